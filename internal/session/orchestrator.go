// Package session drives the open-ended case-interview flow: a growing
// list of question/answer turns capped at ten, a framework submission
// gated on a minimum of two turns, and a forward-only status progression
// from active through framework_submitted to completed.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caseprep/practice-service/internal/models"
	"gorm.io/datatypes"
)

func newFeedback(f models.TurnFeedback) datatypes.JSONType[models.TurnFeedback] {
	return datatypes.NewJSONType(f)
}

const (
	// MaxTurns is the hard cap on question turns per session.
	MaxTurns = 10
	// MinTurnsForFramework gates the framework submission.
	MinTurnsForFramework = 2
)

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// Orchestrator owns one case-interview session at a time. It is
// single-owner state guarded for the one concurrency hazard the design
// has: a second question submitted while one is awaiting the AI
// collaborator. That second submission is rejected, never interleaved, so
// question numbers stay monotonic and gap-free.
type Orchestrator struct {
	asker    Asker
	scorer   Scorer
	recorder Recorder
	clock    Clock
	logger   *slog.Logger

	mu         sync.Mutex
	inFlight   bool
	generation int

	active        bool
	sessionID     string
	caseMeta      models.CaseMetadata
	studentID     string
	status        models.SessionStatus
	turns         []models.Turn
	frameworkText string
	startedUnix   int64
	frozenElapsed int
}

// NewOrchestrator wires the orchestrator to its collaborators. A nil clock
// falls back to wall time.
func NewOrchestrator(asker Asker, scorer Scorer, recorder Recorder, clock Clock, logger *slog.Logger) *Orchestrator {
	if clock == nil {
		clock = systemClock{}
	}
	return &Orchestrator{
		asker:    asker,
		scorer:   scorer,
		recorder: recorder,
		clock:    clock,
		logger:   logger,
	}
}

// Start creates a fresh session for the given case. The persistence
// collaborator assigns the session ID; if it fails, a local fallback ID
// keeps the session usable (optimistic local state).
func (o *Orchestrator) Start(ctx context.Context, meta models.CaseMetadata, studentID string) (string, error) {
	if meta.CaseID == "" {
		return "", ErrNoActiveCase
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sessionID, err := o.recorder.StartCase(ctx, meta, studentID)
	if err != nil {
		o.logger.Error("Failed to record session start, continuing locally",
			"case_id", meta.CaseID, "error", err)
		sessionID = fmt.Sprintf("local-%s-%d", meta.CaseID, o.clock.Now())
	}

	o.active = true
	o.sessionID = sessionID
	o.caseMeta = meta
	o.studentID = studentID
	o.status = models.SessionActive
	o.turns = nil
	o.frameworkText = ""
	o.startedUnix = o.clock.Now()
	o.frozenElapsed = 0
	o.generation++

	o.logger.Info("Case session started",
		"session_id", sessionID,
		"case_id", meta.CaseID,
		"student_id", studentID)

	return sessionID, nil
}

// SubmitQuestion sends one question to the AI collaborator and appends the
// resulting turn. At most one submission may be in flight; a concurrent
// call fails with ErrSubmissionInFlight. A response arriving after a
// Reset is discarded so stale results never corrupt a newer session.
func (o *Orchestrator) SubmitQuestion(ctx context.Context, text string) (*models.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuestion
	}

	o.mu.Lock()
	if !o.active || o.status != models.SessionActive {
		o.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if len(o.turns) >= MaxTurns {
		o.mu.Unlock()
		return nil, ErrMaxTurnsReached
	}
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.inFlight = true
	generation := o.generation
	meta := o.caseMeta
	o.mu.Unlock()

	answer, err := o.asker.Ask(ctx, text, meta)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	// Session was reset or restarted while the request was in flight.
	if generation != o.generation {
		o.logger.Warn("Discarding stale AI response", "session_id", o.sessionID)
		return nil, ErrNoActiveSession
	}

	if err != nil {
		o.logger.Error("AI request failed", "session_id", o.sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAIRequestFailed, err)
	}
	if answer == nil || strings.TrimSpace(answer.Text) == "" {
		return nil, ErrEmptyResponse
	}

	turn := models.Turn{
		QuestionNumber: len(o.turns) + 1,
		UserQuestion:   text,
		AIResponse:     answer.Text,
		Feedback:       newFeedback(answer.Feedback),
		CreatedAt:      time.Now(),
	}
	o.turns = append(o.turns, turn)

	if err := o.recorder.RecordTurn(ctx, o.sessionID, turn); err != nil {
		o.logger.Error("Failed to record turn, local state kept",
			"session_id", o.sessionID,
			"question_number", turn.QuestionNumber,
			"error", err)
	}

	o.logger.Info("Question turn recorded",
		"session_id", o.sessionID,
		"question_number", turn.QuestionNumber,
		"rating", answer.Feedback.Rating)

	return &turn, nil
}

// SubmitFramework sets the framework text once and moves the session to
// framework_submitted. Requires at least MinTurnsForFramework turns.
func (o *Orchestrator) SubmitFramework(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyFramework
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.active || o.status != models.SessionActive {
		return ErrNoActiveSession
	}
	if len(o.turns) < MinTurnsForFramework {
		return ErrInsufficientTurns
	}

	o.frameworkText = text
	o.status = models.SessionFrameworkSubmitted

	if err := o.recorder.RecordFramework(ctx, o.sessionID, text); err != nil {
		o.logger.Error("Failed to record framework, local state kept",
			"session_id", o.sessionID, "error", err)
	}

	o.logger.Info("Framework submitted", "session_id", o.sessionID)
	return nil
}

// Complete moves the session to its terminal state, freezes the elapsed
// time, and produces the score report. The external scorer's failure falls
// back to a locally computed heuristic rather than surfacing an error.
func (o *Orchestrator) Complete(ctx context.Context) (*models.ScoreReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.active {
		return nil, ErrNoActiveSession
	}
	if o.status == models.SessionActive {
		return nil, ErrFrameworkNotSubmitted
	}
	if o.status == models.SessionCompleted {
		return nil, ErrNoActiveSession
	}

	o.frozenElapsed = int(o.clock.Now() - o.startedUnix)
	o.status = models.SessionCompleted

	report, err := o.scorer.Score(ctx, o.turns, o.frameworkText, o.frozenElapsed)
	if err != nil || report == nil {
		o.logger.Warn("External scorer failed, using heuristic fallback",
			"session_id", o.sessionID, "error", err)
		report = HeuristicScore(o.turns, o.frameworkText, o.frozenElapsed)
	}

	if err := o.recorder.RecordCompletion(ctx, o.sessionID, o.frozenElapsed, report); err != nil {
		o.logger.Error("Failed to record completion, local state kept",
			"session_id", o.sessionID, "error", err)
	}

	o.logger.Info("Case session completed",
		"session_id", o.sessionID,
		"turns", len(o.turns),
		"elapsed_seconds", o.frozenElapsed,
		"overall_score", report.Overall)

	return report, nil
}

// Reset discards the session entirely, returning to the pre-Start state.
// Any in-flight AI response becomes stale and is dropped on arrival.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.active = false
	o.sessionID = ""
	o.status = ""
	o.turns = nil
	o.frameworkText = ""
	o.startedUnix = 0
	o.frozenElapsed = 0
	o.generation++

	o.logger.Info("Case session reset")
}

// ===== READ SURFACE (Results/Review contract) =====

func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

func (o *Orchestrator) CaseID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.caseMeta.CaseID
}

func (o *Orchestrator) Status() models.SessionStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Turns returns a copy of the recorded turns in submission order.
func (o *Orchestrator) Turns() []models.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Turn, len(o.turns))
	copy(out, o.turns)
	return out
}

func (o *Orchestrator) FrameworkText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frameworkText
}

// ElapsedSeconds grows while the session is live and freezes at completion.
func (o *Orchestrator) ElapsedSeconds() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active {
		return 0
	}
	if o.status == models.SessionCompleted {
		return o.frozenElapsed
	}
	return int(o.clock.Now() - o.startedUnix)
}

// CanSubmitFramework mirrors the UI gate for the framework action.
func (o *Orchestrator) CanSubmitFramework() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active && o.status == models.SessionActive && len(o.turns) >= MinTurnsForFramework
}

// TurnsRemaining reports how many question submissions are left.
func (o *Orchestrator) TurnsRemaining() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	remaining := MaxTurns - len(o.turns)
	if remaining < 0 {
		return 0
	}
	return remaining
}
