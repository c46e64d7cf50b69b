package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func displayMap(t *testing.T, part *ModulePart) map[string]interface{} {
	t.Helper()
	display := part.DisplayContent()
	require.NotNil(t, display)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(display, &m))
	return m
}

func TestDisplayContent_StripsAnswerKeys(t *testing.T) {
	options := []ChoiceOption{{ID: "a", Text: "Price"}, {ID: "b", Text: "Volume"}}

	tests := []struct {
		name    string
		kind    InteractionKind
		content interface{}
		keep    []string
		strip   []string
	}{
		{"single choice", SingleChoice,
			SingleChoiceContent{Options: options, CorrectOption: "a"},
			[]string{"options"}, []string{"correct_option"}},
		{"multi choice", MultiChoice,
			MultiChoiceContent{Options: options, CorrectOptions: []string{"a", "b"}},
			[]string{"options"}, []string{"correct_options"}},
		{"true false", TrueFalse,
			TrueFalseContent{Statement: "Margins shrank", CorrectValue: true},
			[]string{"statement"}, []string{"correct_value"}},
		{"ordering", Ordering,
			OrderingContent{Items: options, CorrectOrder: []string{"b", "a"}},
			[]string{"items"}, []string{"correct_order"}},
		{"matching", MatchingPairs,
			MatchingContent{
				LeftItems:    options,
				RightItems:   options,
				CorrectPairs: []MatchPair{{LeftID: "a", RightID: "b"}},
			},
			[]string{"left_items", "right_items"}, []string{"correct_pairs"}},
		{"category sort", CategorySort,
			CategorySortContent{
				Items:             options,
				Categories:        options,
				CorrectCategories: map[string]string{"a": "b"},
			},
			[]string{"items", "categories"}, []string{"correct_categories"}},
		{"scenario choice", ScenarioChoice,
			ScenarioChoiceContent{Scenario: "The client calls.", Options: options, CorrectChoice: "a"},
			[]string{"scenario", "options"}, []string{"correct_choice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := &ModulePart{Kind: tt.kind, Content: mustJSON(t, tt.content)}
			m := displayMap(t, part)
			for _, key := range tt.keep {
				assert.Contains(t, m, key)
			}
			for _, key := range tt.strip {
				assert.NotContains(t, m, key)
			}
		})
	}
}

func TestDisplayContent_SliderDropsTargets(t *testing.T) {
	part := &ModulePart{
		Kind: SliderRating,
		Content: mustJSON(t, SliderRatingContent{
			Components: []SliderComponent{{Name: "risk", Min: 0, Max: 10, Target: 7}},
		}),
	}

	m := displayMap(t, part)
	components := m["components"].([]interface{})
	require.Len(t, components, 1)

	component := components[0].(map[string]interface{})
	assert.Equal(t, "risk", component["name"])
	assert.Contains(t, component, "min")
	assert.Contains(t, component, "max")
	assert.NotContains(t, component, "target")
}

func TestDisplayContent_FillBlanksDropsCorrectValues(t *testing.T) {
	part := &ModulePart{
		Kind: FillInBlanks,
		Content: mustJSON(t, FillBlanksContent{
			Template: "Profit is {b1}",
			Blanks: map[string]BlankDef{
				"b1": {Options: []string{"revenue minus costs", "revenue"}, CorrectValue: "revenue minus costs"},
			},
		}),
	}

	m := displayMap(t, part)
	assert.Equal(t, "Profit is {b1}", m["template"])

	blank := m["blanks"].(map[string]interface{})["b1"].(map[string]interface{})
	assert.Contains(t, blank, "options")
	assert.NotContains(t, blank, "correct_value")
}

func TestDisplayContent_ContentOnlyPassesThrough(t *testing.T) {
	raw := mustJSON(t, map[string]string{"body": "Read the case brief."})
	part := &ModulePart{Kind: ContentOnly, Content: raw}

	assert.JSONEq(t, string(raw), string(part.DisplayContent()))
}

func TestDisplayContent_MalformedContentYieldsNothing(t *testing.T) {
	part := &ModulePart{Kind: SingleChoice, Content: []byte(`{broken`)}
	assert.Nil(t, part.DisplayContent())
}

func TestForDisplay_LeavesOriginalUntouched(t *testing.T) {
	raw := mustJSON(t, SingleChoiceContent{
		Options:       []ChoiceOption{{ID: "a"}, {ID: "b"}},
		CorrectOption: "a",
	})
	part := &ModulePart{Kind: SingleChoice, Content: raw}

	display := part.ForDisplay()
	assert.NotContains(t, string(display.Content), "correct_option")
	assert.Contains(t, string(part.Content), "correct_option")
}
