package session

import (
	"context"

	"github.com/caseprep/practice-service/internal/models"
)

// Answer is what the AI collaborator returns for one submitted question.
type Answer struct {
	Text     string
	Feedback models.TurnFeedback
}

// Asker is the AI answer collaborator. Implementations may block on the
// network; the orchestrator allows at most one Ask in flight per session.
type Asker interface {
	Ask(ctx context.Context, question string, caseMeta models.CaseMetadata) (*Answer, error)
}

// Scorer maps a finished session to a score report. Failures are absorbed
// by a local heuristic fallback, never surfaced to the user.
type Scorer interface {
	Score(ctx context.Context, turns []models.Turn, frameworkText string, elapsedSeconds int) (*models.ScoreReport, error)
}

// Recorder is the persistence collaborator. Failures must not block local
// session progress; the orchestrator logs and continues.
type Recorder interface {
	StartCase(ctx context.Context, meta models.CaseMetadata, studentID string) (sessionID string, err error)
	RecordTurn(ctx context.Context, sessionID string, turn models.Turn) error
	RecordFramework(ctx context.Context, sessionID string, text string) error
	RecordCompletion(ctx context.Context, sessionID string, elapsedSeconds int, score *models.ScoreReport) error
}

// Clock abstracts time for elapsed-seconds accounting, so tests can drive
// it deterministically.
type Clock interface {
	Now() int64 // unix seconds
}
