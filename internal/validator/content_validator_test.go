package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseprep/practice-service/internal/models"
)

func marshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestValidateContent_SingleChoice(t *testing.T) {
	v := NewContentValidator()

	valid := marshal(t, models.SingleChoiceContent{
		Options:       []models.ChoiceOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
		CorrectOption: "a",
	})
	assert.NoError(t, v.ValidateContent(models.SingleChoice, valid))

	tests := []struct {
		name    string
		content models.SingleChoiceContent
	}{
		{"too few options", models.SingleChoiceContent{
			Options:       []models.ChoiceOption{{ID: "a", Text: "A"}},
			CorrectOption: "a",
		}},
		{"missing correct option", models.SingleChoiceContent{
			Options: []models.ChoiceOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
		}},
		{"dangling correct option", models.SingleChoiceContent{
			Options:       []models.ChoiceOption{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
			CorrectOption: "z",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.ValidateContent(models.SingleChoice, marshal(t, tt.content)))
		})
	}
}

func TestValidateContent_Ordering(t *testing.T) {
	v := NewContentValidator()

	items := []models.ChoiceOption{{ID: "x", Text: "X"}, {ID: "y", Text: "Y"}, {ID: "z", Text: "Z"}}

	assert.NoError(t, v.ValidateContent(models.Ordering, marshal(t, models.OrderingContent{
		Items:        items,
		CorrectOrder: []string{"z", "x", "y"},
	})))

	// Key must be a permutation of the items.
	assert.Error(t, v.ValidateContent(models.Ordering, marshal(t, models.OrderingContent{
		Items:        items,
		CorrectOrder: []string{"x", "y"},
	})))
	assert.Error(t, v.ValidateContent(models.Ordering, marshal(t, models.OrderingContent{
		Items:        items,
		CorrectOrder: []string{"x", "x", "y"},
	})))
	assert.Error(t, v.ValidateContent(models.Ordering, marshal(t, models.OrderingContent{
		Items:        items,
		CorrectOrder: []string{"x", "y", "missing"},
	})))
}

func TestValidateContent_CategorySortRequiresTotalKey(t *testing.T) {
	v := NewContentValidator()

	items := []models.ChoiceOption{{ID: "i1", Text: "One"}, {ID: "i2", Text: "Two"}}
	categories := []models.ChoiceOption{{ID: "c1", Text: "First"}, {ID: "c2", Text: "Second"}}

	assert.NoError(t, v.ValidateContent(models.CategorySort, marshal(t, models.CategorySortContent{
		Items:             items,
		Categories:        categories,
		CorrectCategories: map[string]string{"i1": "c1", "i2": "c2"},
	})))

	// Every item needs a key category.
	assert.Error(t, v.ValidateContent(models.CategorySort, marshal(t, models.CategorySortContent{
		Items:             items,
		Categories:        categories,
		CorrectCategories: map[string]string{"i1": "c1"},
	})))
}

func TestValidateContent_SliderRating(t *testing.T) {
	v := NewContentValidator()

	assert.NoError(t, v.ValidateContent(models.SliderRating, marshal(t, models.SliderRatingContent{
		Components: []models.SliderComponent{{Name: "risk", Min: 0, Max: 10, Target: 5}},
	})))

	assert.Error(t, v.ValidateContent(models.SliderRating, marshal(t, models.SliderRatingContent{
		Components: []models.SliderComponent{{Name: "risk", Min: 5, Max: 5, Target: 5}},
	})), "empty range")

	assert.Error(t, v.ValidateContent(models.SliderRating, marshal(t, models.SliderRatingContent{
		Components: []models.SliderComponent{{Name: "risk", Min: 0, Max: 10, Target: 11}},
	})), "target outside range")
}

func TestValidateContent_FillInBlanks(t *testing.T) {
	v := NewContentValidator()

	assert.NoError(t, v.ValidateContent(models.FillInBlanks, marshal(t, models.FillBlanksContent{
		Template: "Profit is {b1}",
		Blanks: map[string]models.BlankDef{
			"b1": {Options: []string{"revenue minus costs", "revenue"}, CorrectValue: "revenue minus costs"},
		},
	})))

	assert.Error(t, v.ValidateContent(models.FillInBlanks, marshal(t, models.FillBlanksContent{
		Template: "Profit is {b1}",
		Blanks: map[string]models.BlankDef{
			"b1": {Options: []string{"revenue"}, CorrectValue: "costs"},
		},
	})), "correct value not among options")
}

func TestValidateContent_ContentOnlyHasNoKey(t *testing.T) {
	v := NewContentValidator()
	assert.NoError(t, v.ValidateContent(models.ContentOnly, nil))
}

func TestValidateContent_UnknownKind(t *testing.T) {
	v := NewContentValidator()
	assert.Error(t, v.ValidateContent(models.InteractionKind("mystery"), []byte(`{}`)))
}

func TestValidateContent_MalformedJSON(t *testing.T) {
	v := NewContentValidator()
	for _, kind := range models.AllInteractionKinds {
		if kind == models.ContentOnly {
			continue
		}
		t.Run(string(kind), func(t *testing.T) {
			assert.Error(t, v.ValidateContent(kind, []byte(`{broken`)))
		})
	}
}

func TestValidatePart(t *testing.T) {
	v := NewContentValidator()

	content := marshal(t, models.TrueFalseContent{Statement: "Margins shrank", CorrectValue: true})

	assert.NoError(t, v.ValidatePart(&models.ModulePart{
		Title:       "Check understanding",
		Kind:        models.TrueFalse,
		Content:     content,
		MaxAttempts: 3,
	}))

	assert.Error(t, v.ValidatePart(&models.ModulePart{
		Kind:        models.TrueFalse,
		Content:     content,
		MaxAttempts: 3,
	}), "missing title")

	assert.Error(t, v.ValidatePart(&models.ModulePart{
		Title:       "Check understanding",
		Kind:        models.TrueFalse,
		Content:     content,
		MaxAttempts: 0,
	}), "max attempts below 1")
}
