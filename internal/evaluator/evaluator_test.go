package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseprep/practice-service/internal/models"
)

func mustContent(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func part(kind models.InteractionKind, content []byte) *models.ModulePart {
	return &models.ModulePart{Kind: kind, Content: content}
}

func boolPtr(b bool) *bool { return &b }

func TestEvaluate_SingleChoice(t *testing.T) {
	content := mustContent(t, models.SingleChoiceContent{
		Options: []models.ChoiceOption{
			{ID: "a", Text: "Revenue"},
			{ID: "b", Text: "Costs"},
		},
		CorrectOption: "b",
	})
	p := part(models.SingleChoice, content)

	assert.True(t, Evaluate(p, models.AttemptInput{Selected: "b"}))
	assert.False(t, Evaluate(p, models.AttemptInput{Selected: "a"}))
	assert.False(t, Evaluate(p, models.AttemptInput{}))
}

func TestEvaluate_MultiChoice_SetEquality(t *testing.T) {
	content := mustContent(t, models.MultiChoiceContent{
		Options: []models.ChoiceOption{
			{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
		},
		CorrectOptions: []string{"a", "c"},
	})
	p := part(models.MultiChoice, content)

	tests := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact set", []string{"a", "c"}, true},
		{"order independent", []string{"c", "a"}, true},
		{"missing one correct", []string{"a"}, false},
		{"extra incorrect option", []string{"a", "c", "b"}, false},
		{"entirely wrong", []string{"b", "d"}, false},
		{"empty selection", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(p, models.AttemptInput{SelectedSet: tt.selected})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_TrueFalse(t *testing.T) {
	content := mustContent(t, models.TrueFalseContent{
		Statement:    "Fixed costs scale with volume",
		CorrectValue: false,
	})
	p := part(models.TrueFalse, content)

	assert.True(t, Evaluate(p, models.AttemptInput{Value: boolPtr(false)}))
	assert.False(t, Evaluate(p, models.AttemptInput{Value: boolPtr(true)}))
	assert.False(t, Evaluate(p, models.AttemptInput{}))
}

func TestEvaluate_Ordering_IsOrderSensitive(t *testing.T) {
	content := mustContent(t, models.OrderingContent{
		Items: []models.ChoiceOption{
			{ID: "clarify"}, {ID: "structure"}, {ID: "analyze"}, {ID: "recommend"},
		},
		CorrectOrder: []string{"clarify", "structure", "analyze", "recommend"},
	})
	p := part(models.Ordering, content)

	assert.True(t, Evaluate(p, models.AttemptInput{
		Order: []string{"clarify", "structure", "analyze", "recommend"},
	}))
	// Same elements, one swap: set equality is not enough.
	assert.False(t, Evaluate(p, models.AttemptInput{
		Order: []string{"structure", "clarify", "analyze", "recommend"},
	}))
	assert.False(t, Evaluate(p, models.AttemptInput{
		Order: []string{"clarify", "structure", "analyze"},
	}))
}

func TestEvaluate_MatchingPairs(t *testing.T) {
	content := mustContent(t, models.MatchingContent{
		LeftItems:  []models.ChoiceOption{{ID: "l1"}, {ID: "l2"}},
		RightItems: []models.ChoiceOption{{ID: "r1"}, {ID: "r2"}},
		CorrectPairs: []models.MatchPair{
			{LeftID: "l1", RightID: "r1"},
			{LeftID: "l2", RightID: "r2"},
		},
	})
	p := part(models.MatchingPairs, content)

	assert.True(t, Evaluate(p, models.AttemptInput{
		Matches: map[string]string{"l1": "r1", "l2": "r2"},
	}))
	assert.False(t, Evaluate(p, models.AttemptInput{
		Matches: map[string]string{"l1": "r2", "l2": "r1"},
	}))
	// Partial assignments never grade correct.
	assert.False(t, Evaluate(p, models.AttemptInput{
		Matches: map[string]string{"l1": "r1"},
	}))
}

func TestEvaluate_CategorySort(t *testing.T) {
	content := mustContent(t, models.CategorySortContent{
		Items:      []models.ChoiceOption{{ID: "rent"}, {ID: "materials"}},
		Categories: []models.ChoiceOption{{ID: "fixed"}, {ID: "variable"}},
		CorrectCategories: map[string]string{
			"rent":      "fixed",
			"materials": "variable",
		},
	})
	p := part(models.CategorySort, content)

	assert.True(t, Evaluate(p, models.AttemptInput{
		Placements: map[string]string{"rent": "fixed", "materials": "variable"},
	}))
	assert.False(t, Evaluate(p, models.AttemptInput{
		Placements: map[string]string{"rent": "variable", "materials": "variable"},
	}))
	assert.False(t, Evaluate(p, models.AttemptInput{
		Placements: map[string]string{"rent": "fixed"},
	}))
}

func TestEvaluate_SliderRating_ExactMatch(t *testing.T) {
	content := mustContent(t, models.SliderRatingContent{
		Components: []models.SliderComponent{
			{Name: "market_size", Min: 0, Max: 10, Target: 7},
			{Name: "competition", Min: 0, Max: 10, Target: 4},
		},
	})
	p := part(models.SliderRating, content)

	assert.True(t, Evaluate(p, models.AttemptInput{
		SliderValues: map[string]int{"market_size": 7, "competition": 4},
	}))
	// Off by one on a single component fails; no tolerance band.
	assert.False(t, Evaluate(p, models.AttemptInput{
		SliderValues: map[string]int{"market_size": 7, "competition": 5},
	}))
	assert.False(t, Evaluate(p, models.AttemptInput{
		SliderValues: map[string]int{"market_size": 7},
	}))
}

func TestEvaluate_FillInBlanks(t *testing.T) {
	content := mustContent(t, models.FillBlanksContent{
		Template: "Profit equals {b1} minus {b2}",
		Blanks: map[string]models.BlankDef{
			"b1": {Options: []string{"revenue", "costs"}, CorrectValue: "revenue"},
			"b2": {Options: []string{"revenue", "costs"}, CorrectValue: "costs"},
		},
	})
	p := part(models.FillInBlanks, content)

	assert.True(t, Evaluate(p, models.AttemptInput{
		BlankValues: map[string]string{"b1": "revenue", "b2": "costs"},
	}))
	assert.False(t, Evaluate(p, models.AttemptInput{
		BlankValues: map[string]string{"b1": "costs", "b2": "revenue"},
	}))
}

func TestEvaluate_ContentOnly_AlwaysCorrect(t *testing.T) {
	p := part(models.ContentOnly, []byte(`{}`))
	assert.True(t, Evaluate(p, models.AttemptInput{}))
}

func TestEvaluate_MalformedContentGradesIncorrect(t *testing.T) {
	for _, kind := range []models.InteractionKind{
		models.SingleChoice, models.MultiChoice, models.TrueFalse,
		models.Ordering, models.MatchingPairs, models.CategorySort,
		models.ScenarioChoice, models.SliderRating, models.FillInBlanks,
	} {
		t.Run(string(kind), func(t *testing.T) {
			p := part(kind, []byte(`{not json`))
			assert.False(t, Evaluate(p, models.AttemptInput{Selected: "a", Value: boolPtr(true)}))
		})
	}
}

func TestEvaluate_UnknownKind(t *testing.T) {
	p := part(models.InteractionKind("mystery"), []byte(`{}`))
	assert.False(t, Evaluate(p, models.AttemptInput{Selected: "a"}))
}

func TestComplete_TotalAssignmentKinds(t *testing.T) {
	matching := part(models.MatchingPairs, mustContent(t, models.MatchingContent{
		LeftItems:  []models.ChoiceOption{{ID: "l1"}, {ID: "l2"}},
		RightItems: []models.ChoiceOption{{ID: "r1"}, {ID: "r2"}},
		CorrectPairs: []models.MatchPair{
			{LeftID: "l1", RightID: "r1"},
			{LeftID: "l2", RightID: "r2"},
		},
	}))
	assert.False(t, Complete(matching, models.AttemptInput{
		Matches: map[string]string{"l1": "r1"},
	}))
	assert.True(t, Complete(matching, models.AttemptInput{
		Matches: map[string]string{"l1": "r1", "l2": "r2"},
	}))

	ordering := part(models.Ordering, mustContent(t, models.OrderingContent{
		Items:        []models.ChoiceOption{{ID: "x"}, {ID: "y"}, {ID: "z"}},
		CorrectOrder: []string{"x", "y", "z"},
	}))
	assert.False(t, Complete(ordering, models.AttemptInput{Order: []string{"x", "y"}}))
	assert.True(t, Complete(ordering, models.AttemptInput{Order: []string{"z", "y", "x"}}))

	sliders := part(models.SliderRating, mustContent(t, models.SliderRatingContent{
		Components: []models.SliderComponent{
			{Name: "a", Target: 1},
			{Name: "b", Target: 2},
		},
	}))
	assert.False(t, Complete(sliders, models.AttemptInput{SliderValues: map[string]int{"a": 1}}))
	assert.True(t, Complete(sliders, models.AttemptInput{SliderValues: map[string]int{"a": 0, "b": 0}}))

	blanks := part(models.FillInBlanks, mustContent(t, models.FillBlanksContent{
		Blanks: map[string]models.BlankDef{
			"b1": {CorrectValue: "x"},
			"b2": {CorrectValue: "y"},
		},
	}))
	assert.False(t, Complete(blanks, models.AttemptInput{BlankValues: map[string]string{"b1": "x"}}))
	assert.True(t, Complete(blanks, models.AttemptInput{BlankValues: map[string]string{"b1": "x", "b2": "y"}}))
}

func TestComplete_ChoiceKinds(t *testing.T) {
	single := part(models.SingleChoice, mustContent(t, models.SingleChoiceContent{CorrectOption: "a"}))
	assert.False(t, Complete(single, models.AttemptInput{}))
	assert.True(t, Complete(single, models.AttemptInput{Selected: "b"}))

	tf := part(models.TrueFalse, mustContent(t, models.TrueFalseContent{CorrectValue: true}))
	assert.False(t, Complete(tf, models.AttemptInput{}))
	assert.True(t, Complete(tf, models.AttemptInput{Value: boolPtr(false)}))
}

func TestAttemptInput_IsEmpty(t *testing.T) {
	assert.True(t, models.AttemptInput{}.IsEmpty())
	assert.False(t, models.AttemptInput{Selected: "a"}.IsEmpty())
	assert.False(t, models.AttemptInput{Value: boolPtr(false)}.IsEmpty())
	assert.False(t, models.AttemptInput{SliderValues: map[string]int{"a": 0}}.IsEmpty())
}
