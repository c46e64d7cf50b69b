package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caseprep/practice-service/internal/models"
	"gorm.io/datatypes"
)

func moduleWithKinds(kinds ...models.InteractionKind) *models.LearningModule {
	parts := make([]models.ModulePart, len(kinds))
	for i, kind := range kinds {
		parts[i] = models.ModulePart{Position: i, Kind: kind}
	}
	return &models.LearningModule{Parts: parts}
}

func interactiveModule(n int) *models.LearningModule {
	kinds := make([]models.InteractionKind, n)
	for i := range kinds {
		kinds[i] = models.SingleChoice
	}
	return moduleWithKinds(kinds...)
}

func TestAdvance_GatedOnCompletion(t *testing.T) {
	tr := NewTracker(interactiveModule(3))

	// Current part not completed: advance is a no-op.
	assert.False(t, tr.CanAdvanceFrom(0))
	assert.Equal(t, 0, tr.Advance())

	tr.MarkCompleted(0)
	assert.True(t, tr.CanAdvanceFrom(0))
	assert.Equal(t, 1, tr.Advance())
}

func TestAdvance_ContentOnlyPassesGate(t *testing.T) {
	tr := NewTracker(moduleWithKinds(models.ContentOnly, models.SingleChoice))

	// Nothing marked yet, but content_only completes on sight.
	assert.True(t, tr.CanAdvanceFrom(0))
	assert.Equal(t, 1, tr.Advance())
}

func TestAdvance_CapsAtLastIndex(t *testing.T) {
	tr := NewTracker(interactiveModule(2))
	tr.MarkCompleted(0)
	tr.MarkCompleted(1)

	assert.Equal(t, 1, tr.Advance())
	assert.Equal(t, 1, tr.Advance())
}

func TestRetreat_AlwaysAllowed(t *testing.T) {
	tr := NewTracker(interactiveModule(3))
	tr.MarkCompleted(0)
	tr.Advance()

	assert.Equal(t, 0, tr.Retreat())
	// Floor at zero.
	assert.Equal(t, 0, tr.Retreat())
}

func TestMarkCompleted_IdempotentAndBounded(t *testing.T) {
	tr := NewTracker(interactiveModule(2))

	tr.MarkCompleted(1)
	tr.MarkCompleted(1)
	tr.MarkCompleted(-1)
	tr.MarkCompleted(5)

	assert.Equal(t, []int{1}, tr.CompletedIndices())
	assert.Equal(t, 50, tr.ProgressPercent())
}

func TestMarkSkipped_CountsAsCompleted(t *testing.T) {
	tr := NewTracker(interactiveModule(2))

	tr.MarkSkipped(0)

	assert.True(t, tr.IsCompleted(0))
	assert.True(t, tr.IsSkipped(0))
	assert.True(t, tr.CanAdvanceFrom(0))
	// Skipped parts count toward the percentage.
	assert.Equal(t, 50, tr.ProgressPercent())
}

func TestProgressPercent_Rounding(t *testing.T) {
	tr := NewTracker(interactiveModule(3))
	tr.MarkCompleted(0)
	assert.Equal(t, 33, tr.ProgressPercent())

	tr.MarkCompleted(1)
	assert.Equal(t, 67, tr.ProgressPercent())

	tr.MarkCompleted(2)
	assert.Equal(t, 100, tr.ProgressPercent())
}

func TestFinished(t *testing.T) {
	tr := NewTracker(interactiveModule(2))
	assert.False(t, tr.Finished())

	tr.MarkCompleted(0)
	tr.Advance()
	assert.False(t, tr.Finished())

	tr.MarkSkipped(1)
	assert.True(t, tr.Finished())
}

func TestFinished_RequiresBeingOnLastPart(t *testing.T) {
	tr := NewTracker(interactiveModule(2))
	tr.MarkCompleted(0)
	tr.MarkCompleted(1)

	// All parts done but user navigated back.
	assert.Equal(t, 0, tr.CurrentIndex())
	assert.False(t, tr.Finished())

	tr.Advance()
	assert.True(t, tr.Finished())
}

func TestRestore_RoundTrip(t *testing.T) {
	module := interactiveModule(4)

	tr := NewTracker(module)
	tr.MarkCompleted(0)
	tr.MarkSkipped(1)
	tr.Advance()
	tr.Advance()

	record := &models.ModuleProgressRecord{
		CurrentIndex:     tr.CurrentIndex(),
		CompletedIndices: datatypes.NewJSONSlice(tr.CompletedIndices()),
		SkippedIndices:   datatypes.NewJSONSlice(tr.SkippedIndices()),
	}

	restored := Restore(module, record)
	assert.Equal(t, tr.CurrentIndex(), restored.CurrentIndex())
	assert.Equal(t, tr.CompletedIndices(), restored.CompletedIndices())
	assert.Equal(t, tr.SkippedIndices(), restored.SkippedIndices())
	assert.Equal(t, tr.ProgressPercent(), restored.ProgressPercent())
}

func TestRestore_ClampsOutOfRangeIndex(t *testing.T) {
	module := interactiveModule(2)
	record := &models.ModuleProgressRecord{
		CurrentIndex:     9,
		CompletedIndices: datatypes.NewJSONSlice([]int{0, 7}),
	}

	restored := Restore(module, record)
	assert.Equal(t, 0, restored.CurrentIndex())
	// Out-of-range completion indices are dropped.
	assert.Equal(t, []int{0}, restored.CompletedIndices())
}

func TestEmptyModule(t *testing.T) {
	tr := NewTracker(interactiveModule(0))
	assert.Equal(t, 0, tr.ProgressPercent())
	assert.False(t, tr.Finished())
	assert.False(t, tr.CanAdvanceFrom(0))
}
