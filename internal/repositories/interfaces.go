package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/caseprep/practice-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type ModuleFilters struct {
	Status    *models.ModuleStatus `json:"status"`
	CreatedBy *string              `json:"created_by"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "title"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	CaseID    *string               `json:"case_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type ProgressFilters struct {
	StudentID *string `json:"student_id"`
	ModuleID  *uint   `json:"module_id"`
	Finished  *bool   `json:"finished"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// ModuleRepository persists learning modules and their parts.
type ModuleRepository interface {
	Create(ctx context.Context, module *models.LearningModule) error
	GetByID(ctx context.Context, id uint) (*models.LearningModule, error)
	GetByIDWithParts(ctx context.Context, id uint) (*models.LearningModule, error)
	Update(ctx context.Context, module *models.LearningModule) error
	Delete(ctx context.Context, id uint) error // Soft delete

	List(ctx context.Context, filters ModuleFilters) ([]*models.LearningModule, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters ModuleFilters) ([]*models.LearningModule, int64, error)

	UpdateStatus(ctx context.Context, id uint, status models.ModuleStatus) error
	ExistsByTitle(ctx context.Context, title string, creatorID string, excludeID *uint) (bool, error)

	// Part management
	AddPart(ctx context.Context, part *models.ModulePart) error
	UpdatePart(ctx context.Context, part *models.ModulePart) error
	DeletePart(ctx context.Context, partID uint) error
	GetParts(ctx context.Context, moduleID uint) ([]models.ModulePart, error)
	ReorderParts(ctx context.Context, moduleID uint, partIDs []uint) error
}

// SessionRepository persists case-interview sessions and their turns.
type SessionRepository interface {
	Create(ctx context.Context, session *models.CaseSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.CaseSession, error)
	GetBySessionIDWithTurns(ctx context.Context, sessionID string) (*models.CaseSession, error)
	Update(ctx context.Context, session *models.CaseSession) error

	List(ctx context.Context, filters SessionFilters) ([]*models.CaseSession, int64, error)
	GetByStudent(ctx context.Context, studentID string, filters SessionFilters) ([]*models.CaseSession, int64, error)

	AddTurn(ctx context.Context, turn *models.Turn) error
	GetTurns(ctx context.Context, sessionDBID uint) ([]models.Turn, error)
	CountTurns(ctx context.Context, sessionDBID uint) (int64, error)
}

// UserRepository persists the identity projection of authenticated users.
type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ProgressRepository persists per-student module progress snapshots.
type ProgressRepository interface {
	Upsert(ctx context.Context, record *models.ModuleProgressRecord) error
	Get(ctx context.Context, moduleID uint, studentID string) (*models.ModuleProgressRecord, error)
	List(ctx context.Context, filters ProgressFilters) ([]*models.ModuleProgressRecord, int64, error)
	Delete(ctx context.Context, moduleID uint, studentID string) error
}

// Repository aggregates all repositories behind one handle.
type Repository interface {
	Module() ModuleRepository
	Session() SessionRepository
	Progress() ProgressRepository
	Users() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the storage layer's "no rows"
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
