package postgres

import (
	"context"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.CaseSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetBySessionID(ctx context.Context, sessionID string) (*models.CaseSession, error) {
	var session models.CaseSession
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetBySessionIDWithTurns(ctx context.Context, sessionID string) (*models.CaseSession, error) {
	var session models.CaseSession
	if err := s.db.WithContext(ctx).
		Preload("Turns", func(db *gorm.DB) *gorm.DB {
			return db.Order("case_session_turns.question_number ASC")
		}).
		Where("session_id = ?", sessionID).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) Update(ctx context.Context, session *models.CaseSession) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.CaseSession, int64, error) {
	var sessions []*models.CaseSession
	var total int64

	query := s.db.WithContext(ctx).Model(&models.CaseSession{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("started_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (s SessionPostgreSQL) GetByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.CaseSession, int64, error) {
	filters.StudentID = &studentID
	return s.List(ctx, filters)
}

func (s SessionPostgreSQL) AddTurn(ctx context.Context, turn *models.Turn) error {
	return s.db.WithContext(ctx).Create(turn).Error
}

func (s SessionPostgreSQL) GetTurns(ctx context.Context, sessionDBID uint) ([]models.Turn, error) {
	var turns []models.Turn
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionDBID).
		Order("question_number ASC").
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

func (s SessionPostgreSQL) CountTurns(ctx context.Context, sessionDBID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Turn{}).
		Where("session_id = ?", sessionDBID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s SessionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.CaseID != nil {
		query = query.Where("case_id = ?", *filters.CaseID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}
