package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive             SessionStatus = "active"
	SessionFrameworkSubmitted SessionStatus = "framework_submitted"
	SessionCompleted          SessionStatus = "completed"
)

type FeedbackRating string

const (
	RatingExcellent        FeedbackRating = "excellent"
	RatingSatisfactory     FeedbackRating = "satisfactory"
	RatingNeedsImprovement FeedbackRating = "needs_improvement"
	RatingCritical         FeedbackRating = "critical"
)

// AllFeedbackRatings lists the rating enum, used by validators.
var AllFeedbackRatings = []FeedbackRating{
	RatingExcellent, RatingSatisfactory, RatingNeedsImprovement, RatingCritical,
}

// TurnFeedback is the per-question evaluation returned by the AI collaborator.
type TurnFeedback struct {
	Rating               FeedbackRating `json:"rating"`
	Relevance            string         `json:"relevance"`
	Depth                string         `json:"depth"`
	ConstructiveFeedback string         `json:"constructive_feedback"`
}

// Turn is one question-and-answer exchange in a case-interview session.
// QuestionNumber is 1-based and gap-free in submission order.
type Turn struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SessionID uint `json:"session_id" gorm:"not null;index"`

	QuestionNumber int    `json:"question_number" gorm:"not null"`
	UserQuestion   string `json:"user_question" gorm:"type:text;not null"`
	AIResponse     string `json:"ai_response" gorm:"type:text;not null"`

	Feedback datatypes.JSONType[TurnFeedback] `json:"feedback" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (Turn) TableName() string {
	return "case_session_turns"
}

// CaseSession is the persisted record of a case-interview session. The
// in-memory orchestration state lives in the session package; this row is
// what the persistence collaborator records.
type CaseSession struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"not null;uniqueIndex;size:64"`
	CaseID    string `json:"case_id" gorm:"not null;index;size:64"`
	StudentID string `json:"student_id" gorm:"not null;index"`

	Status        SessionStatus `json:"status" gorm:"default:active;index"`
	FrameworkText *string       `json:"framework_text" gorm:"type:text"`

	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ElapsedSeconds int        `json:"elapsed_seconds"`

	Score *datatypes.JSONType[ScoreReport] `json:"score" gorm:"type:jsonb"`

	Turns []Turn `json:"turns" gorm:"foreignKey:SessionID;references:ID"`
}

func (CaseSession) TableName() string {
	return "case_sessions"
}

// ScoreReport is the scoring collaborator's output for a finished session.
type ScoreReport struct {
	Structure           int      `json:"structure"`
	ProblemFormulation  int      `json:"problem_formulation"`
	Communication       int      `json:"communication"`
	Confidence          int      `json:"confidence"`
	Overall             int      `json:"overall"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	// Set when the external scorer failed and the local heuristic was used.
	HeuristicFallback bool `json:"heuristic_fallback,omitempty"`
}

// CaseMetadata describes the case a session runs against. Sessions cannot
// start without it.
type CaseMetadata struct {
	CaseID     string `json:"case_id" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Industry   string `json:"industry"`
	Difficulty string `json:"difficulty"`
	Prompt     string `json:"prompt"`
}
