package postgres

import (
	"context"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type ModulePostgreSQL struct {
	db *gorm.DB
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{db: db}
}

func (m ModulePostgreSQL) Create(ctx context.Context, module *models.LearningModule) error {
	return m.db.WithContext(ctx).Create(module).Error
}

func (m ModulePostgreSQL) GetByID(ctx context.Context, id uint) (*models.LearningModule, error) {
	var module models.LearningModule
	if err := m.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (m ModulePostgreSQL) GetByIDWithParts(ctx context.Context, id uint) (*models.LearningModule, error) {
	var module models.LearningModule
	if err := m.db.WithContext(ctx).
		Preload("Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_parts.position ASC")
		}).
		First(&module, id).Error; err != nil {
		return nil, err
	}
	module.PartsCount = len(module.Parts)
	return &module, nil
}

func (m ModulePostgreSQL) Update(ctx context.Context, module *models.LearningModule) error {
	return m.db.WithContext(ctx).Save(module).Error
}

func (m ModulePostgreSQL) Delete(ctx context.Context, id uint) error {
	return m.db.WithContext(ctx).Delete(&models.LearningModule{}, id).Error
}

func (m ModulePostgreSQL) List(ctx context.Context, filters repositories.ModuleFilters) ([]*models.LearningModule, int64, error) {
	var modules []*models.LearningModule
	var total int64

	query := m.db.WithContext(ctx).Model(&models.LearningModule{})
	query = m.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = m.applyPaginationAndSort(query, filters)
	if err := query.Find(&modules).Error; err != nil {
		return nil, 0, err
	}

	return modules, total, nil
}

func (m ModulePostgreSQL) GetByCreator(ctx context.Context, creatorID string, filters repositories.ModuleFilters) ([]*models.LearningModule, int64, error) {
	filters.CreatedBy = &creatorID
	return m.List(ctx, filters)
}

func (m ModulePostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.ModuleStatus) error {
	return m.db.WithContext(ctx).
		Model(&models.LearningModule{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (m ModulePostgreSQL) ExistsByTitle(ctx context.Context, title string, creatorID string, excludeID *uint) (bool, error) {
	var count int64
	query := m.db.WithContext(ctx).
		Model(&models.LearningModule{}).
		Where("title = ? AND created_by = ?", title, creatorID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ===== PART MANAGEMENT =====

func (m ModulePostgreSQL) AddPart(ctx context.Context, part *models.ModulePart) error {
	return m.db.WithContext(ctx).Create(part).Error
}

func (m ModulePostgreSQL) UpdatePart(ctx context.Context, part *models.ModulePart) error {
	return m.db.WithContext(ctx).Save(part).Error
}

func (m ModulePostgreSQL) DeletePart(ctx context.Context, partID uint) error {
	return m.db.WithContext(ctx).Delete(&models.ModulePart{}, partID).Error
}

func (m ModulePostgreSQL) GetParts(ctx context.Context, moduleID uint) ([]models.ModulePart, error) {
	var parts []models.ModulePart
	if err := m.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC").
		Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func (m ModulePostgreSQL) ReorderParts(ctx context.Context, moduleID uint, partIDs []uint) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, partID := range partIDs {
			if err := tx.Model(&models.ModulePart{}).
				Where("id = ? AND module_id = ?", partID, moduleID).
				Update("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ===== QUERY HELPERS =====

func (m ModulePostgreSQL) applyFilters(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

func (m ModulePostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "created_at", "updated_at":
	default:
		sortBy = "created_at"
	}
	order := "desc"
	if filters.SortOrder == "asc" {
		order = "asc"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
