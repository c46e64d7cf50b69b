package postgres

import (
	"context"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

// Upsert writes the snapshot keyed on (module_id, student_id). Progress is
// written optimistically after every completion event, so conflicts simply
// take the newest state.
func (p ProgressPostgreSQL) Upsert(ctx context.Context, record *models.ModuleProgressRecord) error {
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "module_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_index", "completed_indices", "skipped_indices",
				"progress_percent", "finished", "finished_at", "updated_at",
			}),
		}).
		Create(record).Error
}

func (p ProgressPostgreSQL) Get(ctx context.Context, moduleID uint, studentID string) (*models.ModuleProgressRecord, error) {
	var record models.ModuleProgressRecord
	if err := p.db.WithContext(ctx).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (p ProgressPostgreSQL) List(ctx context.Context, filters repositories.ProgressFilters) ([]*models.ModuleProgressRecord, int64, error) {
	var records []*models.ModuleProgressRecord
	var total int64

	query := p.db.WithContext(ctx).Model(&models.ModuleProgressRecord{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ModuleID != nil {
		query = query.Where("module_id = ?", *filters.ModuleID)
	}
	if filters.Finished != nil {
		query = query.Where("finished = ?", *filters.Finished)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (p ProgressPostgreSQL) Delete(ctx context.Context, moduleID uint, studentID string) error {
	return p.db.WithContext(ctx).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Delete(&models.ModuleProgressRecord{}).Error
}
