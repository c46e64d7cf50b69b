package postgres

import (
	"context"

	"github.com/caseprep/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db       *gorm.DB
	module   repositories.ModuleRepository
	session  repositories.SessionRepository
	progress repositories.ProgressRepository
	users    repositories.UserRepository
}

// NewRepository builds the aggregated repository handle over one gorm DB.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:       db,
		module:   NewModulePostgreSQL(db),
		session:  NewSessionPostgreSQL(db),
		progress: NewProgressPostgreSQL(db),
		users:    NewUserPostgreSQL(db),
	}
}

func (r *repository) Module() repositories.ModuleRepository     { return r.module }
func (r *repository) Session() repositories.SessionRepository   { return r.session }
func (r *repository) Progress() repositories.ProgressRepository { return r.progress }
func (r *repository) Users() repositories.UserRepository        { return r.users }

func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
