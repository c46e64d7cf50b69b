package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"gorm.io/datatypes"

	"github.com/caseprep/practice-service/internal/events"
	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/session"
	"github.com/caseprep/practice-service/internal/utils"
	"github.com/caseprep/practice-service/internal/validator"
)

// SessionView is the read-model snapshot of a student's live case session.
type SessionView struct {
	SessionID      string               `json:"session_id"`
	Status         models.SessionStatus `json:"status"`
	Turns          []models.Turn        `json:"turns"`
	FrameworkText  string               `json:"framework_text,omitempty"`
	ElapsedSeconds int                  `json:"elapsed_seconds"`

	TurnsRemaining       int  `json:"turns_remaining"`
	CanSubmitFramework   bool `json:"can_submit_framework"`
	MaxTurns             int  `json:"max_turns"`
	MinTurnsForFramework int  `json:"min_turns_for_framework"`
}

// SessionService manages case-interview sessions: one live orchestrator per
// student, persisted through the session repository, with completed
// sessions retrievable for review.
type SessionService interface {
	Start(ctx context.Context, meta models.CaseMetadata, studentID string) (*SessionView, error)
	Get(ctx context.Context, studentID string) (*SessionView, error)
	SubmitQuestion(ctx context.Context, studentID, text string) (*models.Turn, error)
	SubmitFramework(ctx context.Context, studentID, text string) error
	Complete(ctx context.Context, studentID string) (*models.ScoreReport, error)
	Reset(ctx context.Context, studentID string) error

	// Review surface: persisted sessions, live or finished.
	GetSession(ctx context.Context, sessionID string) (*models.CaseSession, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.CaseSession, int64, error)
}

type sessionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger
	validator *validator.Validator
	asker     session.Asker
	scorer    session.Scorer
	clock     session.Clock

	mu            sync.Mutex
	orchestrators map[string]*session.Orchestrator
}

func NewSessionService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
	v *validator.Validator,
	asker session.Asker,
	scorer session.Scorer,
	clock session.Clock,
) SessionService {
	return &sessionService{
		repo:          repo,
		publisher:     publisher,
		logger:        logger,
		validator:     v,
		asker:         asker,
		scorer:        scorer,
		clock:         clock,
		orchestrators: make(map[string]*session.Orchestrator),
	}
}

func (s *sessionService) orchestratorFor(studentID string) *session.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orchestrators[studentID]; ok {
		return o
	}
	recorder := &sessionRecorder{repo: s.repo, logger: s.logger}
	o := session.NewOrchestrator(s.asker, s.scorer, recorder, s.clock, utils.ToSlogLogger(s.logger))
	s.orchestrators[studentID] = o
	return o
}

func (s *sessionService) activeOrchestrator(studentID string) (*session.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orchestrators[studentID]
	if !ok || o.SessionID() == "" {
		return nil, session.ErrNoActiveSession
	}
	return o, nil
}

func (s *sessionService) Start(ctx context.Context, meta models.CaseMetadata, studentID string) (*SessionView, error) {
	if err := s.validator.Validate(&meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	o := s.orchestratorFor(studentID)
	sessionID, err := o.Start(ctx, meta, studentID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventSessionStarted, events.SessionStartedEvent{
		SessionID: sessionID,
		CaseID:    meta.CaseID,
		StudentID: studentID,
		StartedAt: time.Now(),
	})

	return view(o), nil
}

func (s *sessionService) Get(ctx context.Context, studentID string) (*SessionView, error) {
	o, err := s.activeOrchestrator(studentID)
	if err != nil {
		return nil, err
	}
	return view(o), nil
}

func (s *sessionService) SubmitQuestion(ctx context.Context, studentID, text string) (*models.Turn, error) {
	o, err := s.activeOrchestrator(studentID)
	if err != nil {
		return nil, err
	}

	turn, err := o.SubmitQuestion(ctx, text)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTurnRecorded, events.TurnRecordedEvent{
		SessionID:      o.SessionID(),
		QuestionNumber: turn.QuestionNumber,
		Rating:         turn.Feedback.Data().Rating,
		RecordedAt:     time.Now(),
	})
	return turn, nil
}

func (s *sessionService) SubmitFramework(ctx context.Context, studentID, text string) error {
	o, err := s.activeOrchestrator(studentID)
	if err != nil {
		return err
	}

	if err := o.SubmitFramework(ctx, text); err != nil {
		return err
	}

	s.publishEvent(ctx, events.EventFrameworkSubmitted, events.FrameworkSubmittedEvent{
		SessionID:   o.SessionID(),
		TurnCount:   len(o.Turns()),
		SubmittedAt: time.Now(),
	})
	return nil
}

func (s *sessionService) Complete(ctx context.Context, studentID string) (*models.ScoreReport, error) {
	o, err := s.activeOrchestrator(studentID)
	if err != nil {
		return nil, err
	}

	report, err := o.Complete(ctx)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventSessionCompleted, events.SessionCompletedEvent{
		SessionID:      o.SessionID(),
		CaseID:         o.CaseID(),
		StudentID:      studentID,
		CompletedAt:    time.Now(),
		ElapsedSeconds: o.ElapsedSeconds(),
		OverallScore:   report.Overall,
		TurnCount:      len(o.Turns()),
	})
	return report, nil
}

func (s *sessionService) Reset(ctx context.Context, studentID string) error {
	o, err := s.activeOrchestrator(studentID)
	if err != nil {
		return err
	}
	o.Reset()
	return nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*models.CaseSession, error) {
	cs, err := s.repo.Session().GetBySessionIDWithTurns(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return cs, nil
}

func (s *sessionService) ListByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.CaseSession, int64, error) {
	sessions, total, err := s.repo.Session().GetByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func view(o *session.Orchestrator) *SessionView {
	return &SessionView{
		SessionID:            o.SessionID(),
		Status:               o.Status(),
		Turns:                o.Turns(),
		FrameworkText:        o.FrameworkText(),
		ElapsedSeconds:       o.ElapsedSeconds(),
		TurnsRemaining:       o.TurnsRemaining(),
		CanSubmitFramework:   o.CanSubmitFramework(),
		MaxTurns:             session.MaxTurns,
		MinTurnsForFramework: session.MinTurnsForFramework,
	}
}

func (s *sessionService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
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

// ===== PERSISTENCE COLLABORATOR =====

// sessionRecorder backs the orchestrator's Recorder with the session
// repository. Every method is best-effort from the orchestrator's point of
// view; errors here never abort the local session.
type sessionRecorder struct {
	repo   repositories.Repository
	logger utils.Logger
}

func (r *sessionRecorder) StartCase(ctx context.Context, meta models.CaseMetadata, studentID string) (string, error) {
	cs := &models.CaseSession{
		SessionID: watermill.NewUUID(),
		CaseID:    meta.CaseID,
		StudentID: studentID,
		Status:    models.SessionActive,
		StartedAt: time.Now(),
	}
	if err := r.repo.Session().Create(ctx, cs); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return cs.SessionID, nil
}

func (r *sessionRecorder) RecordTurn(ctx context.Context, sessionID string, turn models.Turn) error {
	cs, err := r.repo.Session().GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	turn.SessionID = cs.ID
	if err := r.repo.Session().AddTurn(ctx, &turn); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func (r *sessionRecorder) RecordFramework(ctx context.Context, sessionID string, text string) error {
	cs, err := r.repo.Session().GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	cs.FrameworkText = &text
	cs.Status = models.SessionFrameworkSubmitted
	if err := r.repo.Session().Update(ctx, cs); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func (r *sessionRecorder) RecordCompletion(ctx context.Context, sessionID string, elapsedSeconds int, score *models.ScoreReport) error {
	cs, err := r.repo.Session().GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	now := time.Now()
	cs.Status = models.SessionCompleted
	cs.CompletedAt = &now
	cs.ElapsedSeconds = elapsedSeconds
	if score != nil {
		wrapped := datatypes.NewJSONType(*score)
		cs.Score = &wrapped
	}
	if err := r.repo.Session().Update(ctx, cs); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}
