// Package progress tracks completion across all parts of one module run:
// which indices are done, which were skipped, where the user currently is,
// and whether forward navigation is legal.
package progress

import (
	"math"
	"sort"

	"github.com/caseprep/practice-service/internal/models"
)

// Tracker owns the durable-for-the-session module progress. It is
// single-owner state: one UI surface mutates it at a time.
type Tracker struct {
	module *models.LearningModule

	completed map[int]bool
	skipped   map[int]bool
	current   int
}

// NewTracker starts a run at index 0 with nothing completed.
func NewTracker(module *models.LearningModule) *Tracker {
	return &Tracker{
		module:    module,
		completed: make(map[int]bool),
		skipped:   make(map[int]bool),
	}
}

func (t *Tracker) CurrentIndex() int { return t.current }
func (t *Tracker) Length() int       { return len(t.module.Parts) }

// MarkCompleted records the part at index as done. Idempotent.
func (t *Tracker) MarkCompleted(index int) {
	if index < 0 || index >= t.Length() {
		return
	}
	t.completed[index] = true
}

// MarkSkipped records the part as completed-but-skipped. Idempotent.
func (t *Tracker) MarkSkipped(index int) {
	if index < 0 || index >= t.Length() {
		return
	}
	t.completed[index] = true
	t.skipped[index] = true
}

func (t *Tracker) IsCompleted(index int) bool { return t.completed[index] }
func (t *Tracker) IsSkipped(index int) bool   { return t.skipped[index] }

// CanAdvanceFrom reports whether forward navigation past index is legal:
// the part is completed (skips included), or it is content_only and
// completes on sight.
func (t *Tracker) CanAdvanceFrom(index int) bool {
	if index < 0 || index >= t.Length() {
		return false
	}
	if t.completed[index] {
		return true
	}
	return t.module.Parts[index].Kind == models.ContentOnly
}

// Advance moves to the next part if the gate allows it; otherwise the
// index stays put. Returns the resulting index either way.
func (t *Tracker) Advance() int {
	if !t.CanAdvanceFrom(t.current) {
		return t.current
	}
	if t.current < t.Length()-1 {
		t.current++
	}
	return t.current
}

// Retreat moves back one part. Revisiting completed parts is always allowed.
func (t *Tracker) Retreat() int {
	if t.current > 0 {
		t.current--
	}
	return t.current
}

// ProgressPercent returns completion as 0..100. Skipped parts count toward
// the percentage: a skip still advances the user through the module.
func (t *Tracker) ProgressPercent() int {
	if t.Length() == 0 {
		return 0
	}
	return int(math.Round(float64(len(t.completed)) / float64(t.Length()) * 100))
}

// Finished reports whether the run is done: the user is on the final part
// and it is completed.
func (t *Tracker) Finished() bool {
	if t.Length() == 0 {
		return false
	}
	last := t.Length() - 1
	return t.current == last && (t.completed[last] || t.module.Parts[last].Kind == models.ContentOnly)
}

// CompletedIndices returns the completed set as a sorted slice for
// persistence.
func (t *Tracker) CompletedIndices() []int {
	return indexSlice(t.completed)
}

// SkippedIndices returns the skipped set as a slice for persistence.
func (t *Tracker) SkippedIndices() []int {
	return indexSlice(t.skipped)
}

// Restore rehydrates a tracker from a persisted snapshot.
func Restore(module *models.LearningModule, record *models.ModuleProgressRecord) *Tracker {
	t := NewTracker(module)
	for _, i := range record.CompletedIndices {
		t.MarkCompleted(i)
	}
	for _, i := range record.SkippedIndices {
		t.MarkSkipped(i)
	}
	if record.CurrentIndex >= 0 && record.CurrentIndex < t.Length() {
		t.current = record.CurrentIndex
	}
	return t
}

func indexSlice(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
