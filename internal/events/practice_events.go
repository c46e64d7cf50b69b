package events

import (
	"time"

	"github.com/caseprep/practice-service/internal/models"
)

// EventType represents different types of practice-activity events
type EventType string

const (
	// Module events
	EventModulePublished EventType = "module.published"
	EventModuleStarted   EventType = "module.started"
	EventModuleCompleted EventType = "module.completed"
	EventPartSkipped     EventType = "module.part_skipped"

	// Case session events
	EventSessionStarted     EventType = "session.started"
	EventTurnRecorded       EventType = "session.turn_recorded"
	EventFrameworkSubmitted EventType = "session.framework_submitted"
	EventSessionCompleted   EventType = "session.completed"
)

// PracticeEvent is the base event structure published to the activity topic
type PracticeEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Module event payloads

type ModulePublishedEvent struct {
	ModuleID    uint      `json:"module_id"`
	ModuleTitle string    `json:"module_title"`
	PartsCount  int       `json:"parts_count"`
	CreatorID   string    `json:"creator_id"`
	PublishedAt time.Time `json:"published_at"`
}

type ModuleStartedEvent struct {
	ModuleID    uint      `json:"module_id"`
	ModuleTitle string    `json:"module_title"`
	StudentID   string    `json:"student_id"`
	StartedAt   time.Time `json:"started_at"`
}

type ModuleCompletedEvent struct {
	ModuleID        uint      `json:"module_id"`
	ModuleTitle     string    `json:"module_title"`
	StudentID       string    `json:"student_id"`
	CompletedAt     time.Time `json:"completed_at"`
	ProgressPercent int       `json:"progress_percent"`
	SkippedCount    int       `json:"skipped_count"`
}

type PartSkippedEvent struct {
	ModuleID  uint      `json:"module_id"`
	PartIndex int       `json:"part_index"`
	StudentID string    `json:"student_id"`
	SkippedAt time.Time `json:"skipped_at"`
}

// Case session event payloads

type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	CaseID    string    `json:"case_id"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
}

type TurnRecordedEvent struct {
	SessionID      string                `json:"session_id"`
	QuestionNumber int                   `json:"question_number"`
	Rating         models.FeedbackRating `json:"rating"`
	RecordedAt     time.Time             `json:"recorded_at"`
}

type FrameworkSubmittedEvent struct {
	SessionID   string    `json:"session_id"`
	TurnCount   int       `json:"turn_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type SessionCompletedEvent struct {
	SessionID      string    `json:"session_id"`
	CaseID         string    `json:"case_id"`
	StudentID      string    `json:"student_id"`
	CompletedAt    time.Time `json:"completed_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	OverallScore   int       `json:"overall_score"`
	TurnCount      int       `json:"turn_count"`
}
