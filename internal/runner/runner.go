// Package runner owns the transient state of the currently displayed part:
// in-progress input, attempt count, feedback visibility and last verdict.
// State is scoped to one visit; navigating away discards it and re-entry
// starts fresh, including for parts already completed.
package runner

import (
	"github.com/caseprep/practice-service/internal/evaluator"
	"github.com/caseprep/practice-service/internal/models"
)

// State enumerates the per-visit lifecycle of a part.
type State string

const (
	// StateFresh: no verdict pending; submit enabled once input is complete.
	StateFresh State = "fresh"
	// StateAttemptedCorrect: terminal for this visit, part marked completed.
	StateAttemptedCorrect State = "attempted_correct"
	// StateAttemptedIncorrect: feedback shown; retry or skip may follow.
	StateAttemptedIncorrect State = "attempted_incorrect"
	// StateSkipped: terminal for this visit, completed-but-skipped.
	StateSkipped State = "skipped"
)

// ProgressSink receives completion notifications. Only a correct verdict or
// an explicit skip reaches the sink; incorrect attempts never do.
type ProgressSink interface {
	MarkCompleted(index int)
	MarkSkipped(index int)
}

// PartRunner drives one part from displayed to resolved. All transitions
// are caused by explicit caller actions except content_only parts, which
// complete the moment they are entered.
type PartRunner struct {
	part  *models.ModulePart
	index int
	sink  ProgressSink

	state        State
	input        models.AttemptInput
	attemptsUsed int
	lastVerdict  *bool
	feedback     string
}

// New creates a runner for the part at the given module index. content_only
// parts self-complete on creation.
func New(part *models.ModulePart, index int, sink ProgressSink) *PartRunner {
	r := &PartRunner{
		part:  part,
		index: index,
		sink:  sink,
		state: StateFresh,
	}
	if part.Kind == models.ContentOnly {
		verdict := true
		r.state = StateAttemptedCorrect
		r.lastVerdict = &verdict
		sink.MarkCompleted(index)
	}
	return r
}

func (r *PartRunner) State() State               { return r.state }
func (r *PartRunner) AttemptsUsed() int          { return r.attemptsUsed }
func (r *PartRunner) Feedback() string           { return r.feedback }
func (r *PartRunner) Input() models.AttemptInput { return r.input }
func (r *PartRunner) FeedbackVisible() bool {
	return r.state == StateAttemptedCorrect || r.state == StateAttemptedIncorrect
}

// LastVerdict returns the most recent verdict, or nil before any attempt.
func (r *PartRunner) LastVerdict() *bool { return r.lastVerdict }

// SetInput replaces the in-progress input. Only meaningful while fresh;
// ignored once the visit has resolved.
func (r *PartRunner) SetInput(input models.AttemptInput) {
	if r.state == StateFresh {
		r.input = input
	}
}

// CanSubmit reports whether the submit action should be enabled: fresh
// state, input present and complete for the part's kind.
func (r *PartRunner) CanSubmit() bool {
	return r.state == StateFresh &&
		!r.input.IsEmpty() &&
		evaluator.Complete(r.part, r.input)
}

// Submit evaluates the current input. Returns the verdict and whether a
// submission actually happened; blocked submits (incomplete input, already
// resolved) report false without touching state.
func (r *PartRunner) Submit() (verdict bool, submitted bool) {
	if !r.CanSubmit() {
		return false, false
	}

	verdict = evaluator.Evaluate(r.part, r.input)
	r.attemptsUsed++
	r.lastVerdict = &verdict

	if verdict {
		r.state = StateAttemptedCorrect
		r.feedback = r.part.CorrectFeedback
		r.sink.MarkCompleted(r.index)
	} else {
		r.state = StateAttemptedIncorrect
		r.feedback = r.part.IncorrectFeedback
	}
	return verdict, true
}

// CanRetry reports whether another attempt is allowed after an incorrect one.
func (r *PartRunner) CanRetry() bool {
	return r.state == StateAttemptedIncorrect && r.attemptsUsed < r.part.MaxAttempts
}

// Retry clears feedback and returns to fresh. Arrangement kinds reset their
// input to the unattempted state; choice kinds keep the selection so the
// user can change it in place.
func (r *PartRunner) Retry() bool {
	if !r.CanRetry() {
		return false
	}
	r.state = StateFresh
	r.feedback = ""

	switch r.part.Kind {
	case models.Ordering, models.MatchingPairs, models.CategorySort:
		r.input = models.AttemptInput{}
	}
	return true
}

// CanSkip reports whether the skip action is available: attempts exhausted
// on a skippable part that is still unresolved.
func (r *PartRunner) CanSkip() bool {
	return r.state == StateAttemptedIncorrect &&
		r.part.CanSkip &&
		r.attemptsUsed >= r.part.MaxAttempts
}

// Skip force-marks the part completed without a correct verdict, recorded
// as skipped for progress accounting.
func (r *PartRunner) Skip() bool {
	if !r.CanSkip() {
		return false
	}
	r.state = StateSkipped
	if r.part.SkipMessage != nil {
		r.feedback = *r.part.SkipMessage
	}
	r.sink.MarkSkipped(r.index)
	return true
}

// Resolved reports whether this visit is terminal (correct or skipped).
func (r *PartRunner) Resolved() bool {
	return r.state == StateAttemptedCorrect || r.state == StateSkipped
}
