package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/caseprep/practice-service/internal/cache"
	"github.com/caseprep/practice-service/internal/events"
	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/utils"
	"github.com/caseprep/practice-service/internal/validator"
)

// ===== REQUEST/RESPONSE TYPES =====

type CreateModuleRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type UpdateModuleRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type CreatePartRequest struct {
	Title       string                 `json:"title" validate:"required,min=1,max=200"`
	BodyContent string                 `json:"body_content"`
	Kind        models.InteractionKind `json:"kind" validate:"required,interaction_kind"`
	// Raw JSON object, passed through to the part's Content column.
	Content           datatypes.JSON `json:"content"`
	MaxAttempts       int            `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	CanSkip           bool           `json:"can_skip"`
	SkipMessage       *string        `json:"skip_message" validate:"omitempty,max=500"`
	CorrectFeedback   string         `json:"correct_feedback"`
	IncorrectFeedback string         `json:"incorrect_feedback"`
}

// ModuleService owns the module catalog: authoring, publishing, and the
// content-source boundary the run service loads from.
type ModuleService interface {
	Create(ctx context.Context, req *CreateModuleRequest, creatorID string) (*models.LearningModule, error)
	GetByID(ctx context.Context, id uint) (*models.LearningModule, error)
	GetByIDWithParts(ctx context.Context, id uint) (*models.LearningModule, error)
	Update(ctx context.Context, id uint, req *UpdateModuleRequest, userID string) (*models.LearningModule, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.ModuleFilters) ([]*models.LearningModule, int64, error)

	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	AddPart(ctx context.Context, moduleID uint, req *CreatePartRequest, userID string) (*models.ModulePart, error)
	UpdatePart(ctx context.Context, moduleID, partID uint, req *CreatePartRequest, userID string) (*models.ModulePart, error)
	DeletePart(ctx context.Context, moduleID, partID uint, userID string) error
	ReorderParts(ctx context.Context, moduleID uint, partIDs []uint, userID string) error

	// LoadContent is the content source for module runs: published modules
	// only, served from cache when possible.
	LoadContent(ctx context.Context, moduleID uint) (*models.LearningModule, error)
}

type moduleService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    utils.Logger
	validator *validator.Validator
	cacheTTL  time.Duration
}

func NewModuleService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
	v *validator.Validator,
	cacheTTL time.Duration,
) ModuleService {
	return &moduleService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: v,
		cacheTTL:  cacheTTL,
	}
}

func contentCacheKey(moduleID uint) string {
	return fmt.Sprintf("module:content:%d", moduleID)
}

func (s *moduleService) Create(ctx context.Context, req *CreateModuleRequest, creatorID string) (*models.LearningModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	exists, err := s.repo.Module().ExistsByTitle(ctx, req.Title, creatorID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
	}
	if exists {
		return nil, ErrModuleDuplicateTitle
	}

	module := &models.LearningModule{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.ModuleDraft,
		CreatedBy:   creatorID,
	}

	if err := s.repo.Module().Create(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.logger.Info("Module created", "module_id", module.ID, "creator_id", creatorID)
	return module, nil
}

func (s *moduleService) GetByID(ctx context.Context, id uint) (*models.LearningModule, error) {
	module, err := s.repo.Module().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}

func (s *moduleService) GetByIDWithParts(ctx context.Context, id uint) (*models.LearningModule, error) {
	module, err := s.repo.Module().GetByIDWithParts(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module with parts: %w", err)
	}
	return module, nil
}

func (s *moduleService) Update(ctx context.Context, id uint, req *UpdateModuleRequest, userID string) (*models.LearningModule, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	module, err := s.ownedEditable(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exists, err := s.repo.Module().ExistsByTitle(ctx, *req.Title, userID, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
		}
		if exists {
			return nil, ErrModuleDuplicateTitle
		}
		module.Title = *req.Title
	}
	if req.Description != nil {
		module.Description = req.Description
	}
	module.Version++

	if err := s.repo.Module().Update(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	s.invalidateContent(ctx, id)
	return module, nil
}

func (s *moduleService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.ownedEditable(ctx, id, userID, "delete"); err != nil {
		return err
	}
	if err := s.repo.Module().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	s.invalidateContent(ctx, id)
	s.logger.Info("Module deleted", "module_id", id, "user_id", userID)
	return nil
}

func (s *moduleService) List(ctx context.Context, filters repositories.ModuleFilters) ([]*models.LearningModule, int64, error) {
	modules, total, err := s.repo.Module().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, total, nil
}

func (s *moduleService) Publish(ctx context.Context, id uint, userID string) error {
	module, err := s.ownedEditable(ctx, id, userID, "publish")
	if err != nil {
		return err
	}

	parts, err := s.repo.Module().GetParts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load parts: %w", err)
	}
	if len(parts) == 0 {
		return ErrModuleEmpty
	}
	for i := range parts {
		if err := s.validator.Content().ValidatePart(&parts[i]); err != nil {
			return fmt.Errorf("%w: part %d: %v", ErrInvalidPartContent, parts[i].Position, err)
		}
	}

	if err := s.repo.Module().UpdateStatus(ctx, id, models.ModulePublished); err != nil {
		return fmt.Errorf("failed to publish module: %w", err)
	}
	s.invalidateContent(ctx, id)

	s.publishEvent(ctx, events.EventModulePublished, events.ModulePublishedEvent{
		ModuleID:    id,
		ModuleTitle: module.Title,
		PartsCount:  len(parts),
		CreatorID:   userID,
		PublishedAt: time.Now(),
	})

	s.logger.Info("Module published", "module_id", id, "parts", len(parts))
	return nil
}

func (s *moduleService) Archive(ctx context.Context, id uint, userID string) error {
	if _, err := s.owned(ctx, id, userID, "archive"); err != nil {
		return err
	}
	if err := s.repo.Module().UpdateStatus(ctx, id, models.ModuleArchived); err != nil {
		return fmt.Errorf("failed to archive module: %w", err)
	}
	s.invalidateContent(ctx, id)
	return nil
}

// ===== PART AUTHORING =====

func (s *moduleService) AddPart(ctx context.Context, moduleID uint, req *CreatePartRequest, userID string) (*models.ModulePart, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if _, err := s.ownedEditable(ctx, moduleID, userID, "add_part"); err != nil {
		return nil, err
	}

	parts, err := s.repo.Module().GetParts(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parts: %w", err)
	}

	part := s.partFromRequest(req)
	part.ModuleID = moduleID
	part.Position = len(parts)

	if err := s.validator.Content().ValidatePart(part); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPartContent, err)
	}

	if err := s.repo.Module().AddPart(ctx, part); err != nil {
		return nil, fmt.Errorf("failed to add part: %w", err)
	}
	s.invalidateContent(ctx, moduleID)
	return part, nil
}

func (s *moduleService) UpdatePart(ctx context.Context, moduleID, partID uint, req *CreatePartRequest, userID string) (*models.ModulePart, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if _, err := s.ownedEditable(ctx, moduleID, userID, "update_part"); err != nil {
		return nil, err
	}

	parts, err := s.repo.Module().GetParts(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parts: %w", err)
	}

	var existing *models.ModulePart
	for i := range parts {
		if parts[i].ID == partID {
			existing = &parts[i]
			break
		}
	}
	if existing == nil {
		return nil, ErrPartNotFound
	}

	updated := s.partFromRequest(req)
	updated.ID = existing.ID
	updated.ModuleID = moduleID
	updated.Position = existing.Position
	updated.CreatedAt = existing.CreatedAt

	if err := s.validator.Content().ValidatePart(updated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPartContent, err)
	}

	if err := s.repo.Module().UpdatePart(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update part: %w", err)
	}
	s.invalidateContent(ctx, moduleID)
	return updated, nil
}

func (s *moduleService) DeletePart(ctx context.Context, moduleID, partID uint, userID string) error {
	if _, err := s.ownedEditable(ctx, moduleID, userID, "delete_part"); err != nil {
		return err
	}
	if err := s.repo.Module().DeletePart(ctx, partID); err != nil {
		return fmt.Errorf("failed to delete part: %w", err)
	}
	s.invalidateContent(ctx, moduleID)
	return nil
}

func (s *moduleService) ReorderParts(ctx context.Context, moduleID uint, partIDs []uint, userID string) error {
	if _, err := s.ownedEditable(ctx, moduleID, userID, "reorder_parts"); err != nil {
		return err
	}
	if err := s.repo.Module().ReorderParts(ctx, moduleID, partIDs); err != nil {
		return fmt.Errorf("failed to reorder parts: %w", err)
	}
	s.invalidateContent(ctx, moduleID)
	return nil
}

// ===== CONTENT SOURCE =====

func (s *moduleService) LoadContent(ctx context.Context, moduleID uint) (*models.LearningModule, error) {
	var cached models.LearningModule
	if err := s.cache.Get(ctx, contentCacheKey(moduleID), &cached); err == nil {
		return &cached, nil
	}

	module, err := s.repo.Module().GetByIDWithParts(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContentUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	if module.Status != models.ModulePublished {
		return nil, ErrModuleNotPublished
	}

	if err := s.cache.Set(ctx, contentCacheKey(moduleID), module, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache module content", "module_id", moduleID, "error", err)
	}
	return module, nil
}

// ===== HELPERS =====

func (s *moduleService) partFromRequest(req *CreatePartRequest) *models.ModulePart {
	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	return &models.ModulePart{
		Title:             req.Title,
		BodyContent:       req.BodyContent,
		Kind:              req.Kind,
		Content:           req.Content,
		MaxAttempts:       maxAttempts,
		CanSkip:           req.CanSkip,
		SkipMessage:       req.SkipMessage,
		CorrectFeedback:   req.CorrectFeedback,
		IncorrectFeedback: req.IncorrectFeedback,
	}
}

func (s *moduleService) owned(ctx context.Context, id uint, userID, action string) (*models.LearningModule, error) {
	module, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if module.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "module", action, "not owned by user")
	}
	return module, nil
}

func (s *moduleService) ownedEditable(ctx context.Context, id uint, userID, action string) (*models.LearningModule, error) {
	module, err := s.owned(ctx, id, userID, action)
	if err != nil {
		return nil, err
	}
	if module.Status == models.ModuleArchived {
		return nil, ErrModuleNotEditable
	}
	return module, nil
}

func (s *moduleService) invalidateContent(ctx context.Context, moduleID uint) {
	if err := s.cache.Delete(ctx, contentCacheKey(moduleID)); err != nil {
		s.logger.Warn("Failed to invalidate content cache", "module_id", moduleID, "error", err)
	}
}

func (s *moduleService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	event := &events.PracticeEvent{
		ID:        fmt.Sprintf("%s-%d", eventType, time.Now().UnixNano()),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "practice-service",
		Version:   "1.0",
		Data:      data,
	}
	if err := s.publisher.PublishPracticeEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}
