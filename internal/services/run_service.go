package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/caseprep/practice-service/internal/events"
	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/progress"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/runner"
	"github.com/caseprep/practice-service/internal/utils"
)

// RunView is the snapshot handed to the transport layer after every run
// operation: everything the UI needs to render the current part.
type RunView struct {
	ModuleID    uint   `json:"module_id"`
	ModuleTitle string `json:"module_title"`
	StudentID   string `json:"student_id"`

	CurrentIndex int                `json:"current_index"`
	PartsCount   int                `json:"parts_count"`
	CurrentPart  *models.ModulePart `json:"current_part"`

	State           runner.State `json:"state"`
	AttemptsUsed    int          `json:"attempts_used"`
	MaxAttempts     int          `json:"max_attempts"`
	Feedback        string       `json:"feedback,omitempty"`
	FeedbackVisible bool         `json:"feedback_visible"`
	LastVerdict     *bool        `json:"last_verdict,omitempty"`

	CanSubmit  bool `json:"can_submit"`
	CanRetry   bool `json:"can_retry"`
	CanSkip    bool `json:"can_skip"`
	CanAdvance bool `json:"can_advance"`
	CanRetreat bool `json:"can_retreat"`

	ProgressPercent  int   `json:"progress_percent"`
	CompletedIndices []int `json:"completed_indices"`
	SkippedIndices   []int `json:"skipped_indices"`
	Finished         bool  `json:"finished"`
}

// RunService drives live module runs. Run state lives in memory for the
// duration of the run; progress is written through to storage after every
// mutating operation so a restart resumes where the student left off.
type RunService interface {
	Start(ctx context.Context, moduleID uint, studentID string) (*RunView, error)
	Get(ctx context.Context, moduleID uint, studentID string) (*RunView, error)

	SetInput(ctx context.Context, moduleID uint, studentID string, input models.AttemptInput) (*RunView, error)
	Submit(ctx context.Context, moduleID uint, studentID string) (*RunView, error)
	Retry(ctx context.Context, moduleID uint, studentID string) (*RunView, error)
	Skip(ctx context.Context, moduleID uint, studentID string) (*RunView, error)
	Advance(ctx context.Context, moduleID uint, studentID string) (*RunView, error)
	Retreat(ctx context.Context, moduleID uint, studentID string) (*RunView, error)

	// Abandon drops the in-memory run. The persisted snapshot survives, so
	// a later Start resumes from it.
	Abandon(ctx context.Context, moduleID uint, studentID string) error
}

type runKey struct {
	moduleID  uint
	studentID string
}

// moduleRun bundles the live state of one student's pass through a module.
type moduleRun struct {
	module    *models.LearningModule
	tracker   *progress.Tracker
	runner    *runner.PartRunner
	startedAt time.Time
	finished  bool // completion event already published
}

// mount installs a fresh runner for the tracker's current part. Per-visit
// state never survives navigation.
func (r *moduleRun) mount() {
	idx := r.tracker.CurrentIndex()
	r.runner = runner.New(&r.module.Parts[idx], idx, r.tracker)
}

type runService struct {
	modules   ModuleService
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger

	mu   sync.Mutex
	runs map[runKey]*moduleRun
}

func NewRunService(
	modules ModuleService,
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
) RunService {
	return &runService{
		modules:   modules,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		runs:      make(map[runKey]*moduleRun),
	}
}

func (s *runService) Start(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	module, err := s.modules.LoadContent(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if len(module.Parts) == 0 {
		return nil, ErrModuleEmpty
	}

	key := runKey{moduleID: moduleID, studentID: studentID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if run, ok := s.runs[key]; ok {
		return s.viewLocked(run, studentID), nil
	}

	run := &moduleRun{module: module, startedAt: time.Now()}

	record, err := s.repo.Progress().Get(ctx, moduleID, studentID)
	switch {
	case err == nil:
		run.tracker = progress.Restore(module, record)
		run.startedAt = record.StartedAt
		run.finished = record.Finished
	case repositories.IsNotFoundError(err):
		run.tracker = progress.NewTracker(module)
		s.publishEvent(ctx, events.EventModuleStarted, events.ModuleStartedEvent{
			ModuleID:    moduleID,
			ModuleTitle: module.Title,
			StudentID:   studentID,
			StartedAt:   run.startedAt,
		})
	default:
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	run.mount()
	s.runs[key] = run
	s.persistLocked(ctx, moduleID, studentID, run)
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Get(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}
	return s.viewLocked(run, studentID), nil
}

func (s *runService) SetInput(ctx context.Context, moduleID uint, studentID string, input models.AttemptInput) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}
	run.runner.SetInput(input)
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Submit(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}
	if run.runner.Resolved() {
		return nil, ErrRunAlreadyResolved
	}
	if _, submitted := run.runner.Submit(); !submitted {
		return nil, ErrSubmitBlocked
	}

	s.persistLocked(ctx, moduleID, studentID, run)
	s.maybeCompleteLocked(ctx, moduleID, studentID, run)
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Retry(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}
	if !run.runner.Retry() {
		return nil, ErrRetryNotAllowed
	}
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Skip(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}
	if !run.runner.Skip() {
		return nil, ErrSkipNotAllowed
	}

	s.publishEvent(ctx, events.EventPartSkipped, events.PartSkippedEvent{
		ModuleID:  moduleID,
		PartIndex: run.tracker.CurrentIndex(),
		StudentID: studentID,
		SkippedAt: time.Now(),
	})

	s.persistLocked(ctx, moduleID, studentID, run)
	s.maybeCompleteLocked(ctx, moduleID, studentID, run)
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Advance(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}

	before := run.tracker.CurrentIndex()
	if !run.tracker.CanAdvanceFrom(before) {
		return nil, ErrAdvanceBlocked
	}
	if after := run.tracker.Advance(); after != before {
		run.mount()
		s.persistLocked(ctx, moduleID, studentID, run)
		s.maybeCompleteLocked(ctx, moduleID, studentID, run)
	}
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Retreat(ctx context.Context, moduleID uint, studentID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runLocked(moduleID, studentID)
	if err != nil {
		return nil, err
	}

	before := run.tracker.CurrentIndex()
	if after := run.tracker.Retreat(); after != before {
		run.mount()
		s.persistLocked(ctx, moduleID, studentID, run)
	}
	return s.viewLocked(run, studentID), nil
}

func (s *runService) Abandon(ctx context.Context, moduleID uint, studentID string) error {
	key := runKey{moduleID: moduleID, studentID: studentID}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[key]
	if !ok {
		return ErrRunNotFound
	}
	s.persistLocked(ctx, moduleID, studentID, run)
	delete(s.runs, key)
	return nil
}

// ===== INTERNALS =====

func (s *runService) runLocked(moduleID uint, studentID string) (*moduleRun, error) {
	run, ok := s.runs[runKey{moduleID: moduleID, studentID: studentID}]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// persistLocked writes the progress snapshot through to storage. Failures
// are logged and swallowed: the in-memory run stays authoritative and the
// next mutation retries the write.
func (s *runService) persistLocked(ctx context.Context, moduleID uint, studentID string, run *moduleRun) {
	record := &models.ModuleProgressRecord{
		ModuleID:         moduleID,
		StudentID:        studentID,
		CurrentIndex:     run.tracker.CurrentIndex(),
		CompletedIndices: datatypes.NewJSONSlice(run.tracker.CompletedIndices()),
		SkippedIndices:   datatypes.NewJSONSlice(run.tracker.SkippedIndices()),
		ProgressPercent:  run.tracker.ProgressPercent(),
		Finished:         run.tracker.Finished(),
		StartedAt:        run.startedAt,
	}
	if record.Finished {
		now := time.Now()
		record.FinishedAt = &now
	}

	if err := s.repo.Progress().Upsert(ctx, record); err != nil {
		s.logger.Warn("Failed to persist module progress",
			"module_id", moduleID, "student_id", studentID, "error", err)
	}
}

// maybeCompleteLocked publishes the completion event exactly once per run.
func (s *runService) maybeCompleteLocked(ctx context.Context, moduleID uint, studentID string, run *moduleRun) {
	if run.finished || !run.tracker.Finished() {
		return
	}
	run.finished = true

	s.publishEvent(ctx, events.EventModuleCompleted, events.ModuleCompletedEvent{
		ModuleID:        moduleID,
		ModuleTitle:     run.module.Title,
		StudentID:       studentID,
		CompletedAt:     time.Now(),
		ProgressPercent: run.tracker.ProgressPercent(),
		SkippedCount:    len(run.tracker.SkippedIndices()),
	})
	s.logger.Info("Module run finished", "module_id", moduleID, "student_id", studentID)
}

func (s *runService) viewLocked(run *moduleRun, studentID string) *RunView {
	idx := run.tracker.CurrentIndex()
	part := &run.module.Parts[idx]

	return &RunView{
		ModuleID:    run.module.ID,
		ModuleTitle: run.module.Title,
		StudentID:   studentID,

		CurrentIndex: idx,
		PartsCount:   len(run.module.Parts),
		// Answer keys never leave the server mid-run.
		CurrentPart: part.ForDisplay(),

		State:           run.runner.State(),
		AttemptsUsed:    run.runner.AttemptsUsed(),
		MaxAttempts:     part.MaxAttempts,
		Feedback:        run.runner.Feedback(),
		FeedbackVisible: run.runner.FeedbackVisible(),
		LastVerdict:     run.runner.LastVerdict(),

		CanSubmit:  run.runner.CanSubmit(),
		CanRetry:   run.runner.CanRetry(),
		CanSkip:    run.runner.CanSkip(),
		CanAdvance: run.tracker.CanAdvanceFrom(idx) && idx < run.tracker.Length()-1,
		CanRetreat: idx > 0,

		ProgressPercent:  run.tracker.ProgressPercent(),
		CompletedIndices: run.tracker.CompletedIndices(),
		SkippedIndices:   run.tracker.SkippedIndices(),
		Finished:         run.tracker.Finished(),
	}
}

func (s *runService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
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
