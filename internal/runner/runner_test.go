package runner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseprep/practice-service/internal/models"
)

type recordingSink struct {
	completed []int
	skipped   []int
}

func (s *recordingSink) MarkCompleted(index int) { s.completed = append(s.completed, index) }
func (s *recordingSink) MarkSkipped(index int)   { s.skipped = append(s.skipped, index) }

func singleChoicePart(t *testing.T, maxAttempts int, canSkip bool) *models.ModulePart {
	t.Helper()
	content, err := json.Marshal(models.SingleChoiceContent{
		Options:       []models.ChoiceOption{{ID: "a"}, {ID: "b"}},
		CorrectOption: "a",
	})
	require.NoError(t, err)

	skipMsg := "Moving on"
	return &models.ModulePart{
		Kind:              models.SingleChoice,
		Content:           content,
		MaxAttempts:       maxAttempts,
		CanSkip:           canSkip,
		SkipMessage:       &skipMsg,
		CorrectFeedback:   "Nice",
		IncorrectFeedback: "Not quite",
	}
}

func orderingPart(t *testing.T) *models.ModulePart {
	t.Helper()
	content, err := json.Marshal(models.OrderingContent{
		Items:        []models.ChoiceOption{{ID: "x"}, {ID: "y"}},
		CorrectOrder: []string{"x", "y"},
	})
	require.NoError(t, err)
	return &models.ModulePart{
		Kind:        models.Ordering,
		Content:     content,
		MaxAttempts: 3,
	}
}

func TestNew_ContentOnlyCompletesOnMount(t *testing.T) {
	sink := &recordingSink{}
	r := New(&models.ModulePart{Kind: models.ContentOnly}, 2, sink)

	assert.Equal(t, StateAttemptedCorrect, r.State())
	assert.Equal(t, []int{2}, sink.completed)
	assert.True(t, r.Resolved())
}

func TestSubmit_CorrectAnswer(t *testing.T) {
	sink := &recordingSink{}
	r := New(singleChoicePart(t, 3, false), 0, sink)

	r.SetInput(models.AttemptInput{Selected: "a"})
	require.True(t, r.CanSubmit())

	verdict, submitted := r.Submit()
	assert.True(t, submitted)
	assert.True(t, verdict)
	assert.Equal(t, StateAttemptedCorrect, r.State())
	assert.Equal(t, "Nice", r.Feedback())
	assert.True(t, r.FeedbackVisible())
	assert.Equal(t, []int{0}, sink.completed)
	assert.Empty(t, sink.skipped)
}

func TestSubmit_IncorrectAnswerNeverReachesSink(t *testing.T) {
	sink := &recordingSink{}
	r := New(singleChoicePart(t, 3, false), 0, sink)

	r.SetInput(models.AttemptInput{Selected: "b"})
	verdict, submitted := r.Submit()

	assert.True(t, submitted)
	assert.False(t, verdict)
	assert.Equal(t, StateAttemptedIncorrect, r.State())
	assert.Equal(t, "Not quite", r.Feedback())
	assert.Empty(t, sink.completed)
	assert.Empty(t, sink.skipped)
}

func TestSubmit_BlockedWithoutInput(t *testing.T) {
	r := New(singleChoicePart(t, 3, false), 0, &recordingSink{})

	assert.False(t, r.CanSubmit())
	_, submitted := r.Submit()
	assert.False(t, submitted)
	assert.Equal(t, 0, r.AttemptsUsed())
	assert.Equal(t, StateFresh, r.State())
}

func TestSubmit_BlockedOnIncompleteInput(t *testing.T) {
	r := New(orderingPart(t), 0, &recordingSink{})

	r.SetInput(models.AttemptInput{Order: []string{"x"}})
	assert.False(t, r.CanSubmit())
	_, submitted := r.Submit()
	assert.False(t, submitted)
}

func TestSubmit_IgnoredOnceResolved(t *testing.T) {
	sink := &recordingSink{}
	r := New(singleChoicePart(t, 3, false), 0, sink)

	r.SetInput(models.AttemptInput{Selected: "a"})
	_, submitted := r.Submit()
	require.True(t, submitted)

	_, submitted = r.Submit()
	assert.False(t, submitted)
	assert.Equal(t, 1, r.AttemptsUsed())
	// Sink notified exactly once.
	assert.Equal(t, []int{0}, sink.completed)
}

func TestRetry_AttemptCap(t *testing.T) {
	r := New(singleChoicePart(t, 2, false), 0, &recordingSink{})

	r.SetInput(models.AttemptInput{Selected: "b"})
	r.Submit()
	require.True(t, r.CanRetry())
	require.True(t, r.Retry())

	r.SetInput(models.AttemptInput{Selected: "b"})
	r.Submit()
	assert.Equal(t, 2, r.AttemptsUsed())

	// Cap reached: no more retries.
	assert.False(t, r.CanRetry())
	assert.False(t, r.Retry())
	assert.Equal(t, StateAttemptedIncorrect, r.State())
}

func TestRetry_ChoiceKindKeepsSelection(t *testing.T) {
	r := New(singleChoicePart(t, 3, false), 0, &recordingSink{})

	r.SetInput(models.AttemptInput{Selected: "b"})
	r.Submit()
	require.True(t, r.Retry())

	assert.Equal(t, "b", r.Input().Selected)
	assert.Equal(t, StateFresh, r.State())
	assert.Empty(t, r.Feedback())
}

func TestRetry_ArrangementKindResetsInput(t *testing.T) {
	r := New(orderingPart(t), 0, &recordingSink{})

	r.SetInput(models.AttemptInput{Order: []string{"y", "x"}})
	_, submitted := r.Submit()
	require.True(t, submitted)
	require.True(t, r.Retry())

	assert.True(t, r.Input().IsEmpty())
}

func TestSkip_RequiresExhaustedAttemptsAndFlag(t *testing.T) {
	sink := &recordingSink{}
	r := New(singleChoicePart(t, 2, true), 3, sink)

	r.SetInput(models.AttemptInput{Selected: "b"})
	r.Submit()

	// One attempt left: skip not yet available.
	assert.False(t, r.CanSkip())
	assert.False(t, r.Skip())

	require.True(t, r.Retry())
	r.SetInput(models.AttemptInput{Selected: "b"})
	r.Submit()

	require.True(t, r.CanSkip())
	require.True(t, r.Skip())
	assert.Equal(t, StateSkipped, r.State())
	assert.Equal(t, "Moving on", r.Feedback())
	assert.Equal(t, []int{3}, sink.skipped)
	assert.Empty(t, sink.completed)
	assert.True(t, r.Resolved())
}

func TestSkip_NeverAvailableOnUnskippablePart(t *testing.T) {
	r := New(singleChoicePart(t, 1, false), 0, &recordingSink{})

	r.SetInput(models.AttemptInput{Selected: "b"})
	r.Submit()

	assert.False(t, r.CanRetry())
	assert.False(t, r.CanSkip())
	assert.False(t, r.Skip())
}

func TestSetInput_IgnoredAfterResolution(t *testing.T) {
	r := New(singleChoicePart(t, 3, false), 0, &recordingSink{})

	r.SetInput(models.AttemptInput{Selected: "a"})
	r.Submit()

	r.SetInput(models.AttemptInput{Selected: "b"})
	assert.Equal(t, "a", r.Input().Selected)
}
