package services

import (
	"time"

	"github.com/caseprep/practice-service/internal/cache"
	"github.com/caseprep/practice-service/internal/events"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/session"
	"github.com/caseprep/practice-service/internal/utils"
	"github.com/caseprep/practice-service/internal/validator"
)

// ServiceManager bundles every service behind one handle for the transport
// layer.
type ServiceManager interface {
	Module() ModuleService
	Run() RunService
	Session() SessionService
	ImportExport() ImportExportService
}

type serviceManager struct {
	module       ModuleService
	run          RunService
	session      SessionService
	importExport ImportExportService
}

// Dependencies carries everything the services need, wired once in main.
type Dependencies struct {
	Repo      repositories.Repository
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Logger    utils.Logger
	Validator *validator.Validator

	Asker  session.Asker
	Scorer session.Scorer
	Clock  session.Clock

	ContentCacheTTL time.Duration
}

func NewServiceManager(deps Dependencies) ServiceManager {
	module := NewModuleService(deps.Repo, deps.Cache, deps.Publisher, deps.Logger, deps.Validator, deps.ContentCacheTTL)
	return &serviceManager{
		module:       module,
		run:          NewRunService(module, deps.Repo, deps.Publisher, deps.Logger),
		session:      NewSessionService(deps.Repo, deps.Publisher, deps.Logger, deps.Validator, deps.Asker, deps.Scorer, deps.Clock),
		importExport: NewImportExportService(module, deps.Repo, deps.Logger, deps.Validator),
	}
}

func (m *serviceManager) Module() ModuleService             { return m.module }
func (m *serviceManager) Run() RunService                   { return m.run }
func (m *serviceManager) Session() SessionService           { return m.session }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
