// Package evaluator grades a user's input against a part's answer key.
// Every evaluation is a pure function: a part plus an input produces a
// boolean verdict, with no side effects and no panics. Malformed answer
// keys are a content-authoring bug and grade as incorrect rather than
// failing the attempt.
package evaluator

import (
	"encoding/json"

	"github.com/caseprep/practice-service/internal/models"
)

// Evaluate returns the correctness verdict for the given part and input.
// content_only parts are always correct; unknown kinds are always incorrect.
func Evaluate(part *models.ModulePart, input models.AttemptInput) bool {
	switch part.Kind {
	case models.SingleChoice:
		return evaluateSingleChoice(part.Content, input)
	case models.MultiChoice:
		return evaluateMultiChoice(part.Content, input)
	case models.TrueFalse:
		return evaluateTrueFalse(part.Content, input)
	case models.Ordering:
		return evaluateOrdering(part.Content, input)
	case models.MatchingPairs:
		return evaluateMatching(part.Content, input)
	case models.CategorySort:
		return evaluateCategorySort(part.Content, input)
	case models.ScenarioChoice:
		return evaluateScenarioChoice(part.Content, input)
	case models.SliderRating:
		return evaluateSliderRating(part.Content, input)
	case models.FillInBlanks:
		return evaluateFillInBlanks(part.Content, input)
	case models.ContentOnly:
		return true
	default:
		return false
	}
}

// Complete reports whether the input is full enough for the part's kind to
// be evaluated. Kinds that demand a total assignment (matching_pairs,
// category_sort, fill_in_blanks, slider_rating, ordering) block submission
// until every item has a value; incompleteness is a disabled submit, not
// an error.
func Complete(part *models.ModulePart, input models.AttemptInput) bool {
	switch part.Kind {
	case models.SingleChoice, models.ScenarioChoice:
		return input.Selected != ""
	case models.MultiChoice:
		return len(input.SelectedSet) > 0
	case models.TrueFalse:
		return input.Value != nil
	case models.Ordering:
		var content models.OrderingContent
		if err := json.Unmarshal(part.Content, &content); err != nil {
			return len(input.Order) > 0
		}
		return len(input.Order) == len(content.Items)
	case models.MatchingPairs:
		var content models.MatchingContent
		if err := json.Unmarshal(part.Content, &content); err != nil {
			return false
		}
		for _, left := range content.LeftItems {
			if input.Matches[left.ID] == "" {
				return false
			}
		}
		return true
	case models.CategorySort:
		var content models.CategorySortContent
		if err := json.Unmarshal(part.Content, &content); err != nil {
			return false
		}
		for _, item := range content.Items {
			if input.Placements[item.ID] == "" {
				return false
			}
		}
		return true
	case models.SliderRating:
		var content models.SliderRatingContent
		if err := json.Unmarshal(part.Content, &content); err != nil {
			return false
		}
		for _, comp := range content.Components {
			if _, ok := input.SliderValues[comp.Name]; !ok {
				return false
			}
		}
		return true
	case models.FillInBlanks:
		var content models.FillBlanksContent
		if err := json.Unmarshal(part.Content, &content); err != nil {
			return false
		}
		for blankID := range content.Blanks {
			if input.BlankValues[blankID] == "" {
				return false
			}
		}
		return true
	case models.ContentOnly:
		return true
	default:
		return false
	}
}

func evaluateSingleChoice(raw []byte, input models.AttemptInput) bool {
	var content models.SingleChoiceContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if content.CorrectOption == "" {
		return false
	}
	return input.Selected == content.CorrectOption
}

// Multi-choice demands set equality: every correct option chosen and no
// incorrect option chosen.
func evaluateMultiChoice(raw []byte, input models.AttemptInput) bool {
	var content models.MultiChoiceContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if len(content.CorrectOptions) == 0 {
		return false
	}

	correct := make(map[string]bool, len(content.CorrectOptions))
	for _, id := range content.CorrectOptions {
		correct[id] = true
	}

	selected := make(map[string]bool, len(input.SelectedSet))
	for _, id := range input.SelectedSet {
		selected[id] = true
	}

	if len(selected) != len(correct) {
		return false
	}
	for id := range correct {
		if !selected[id] {
			return false
		}
	}
	return true
}

func evaluateTrueFalse(raw []byte, input models.AttemptInput) bool {
	var content models.TrueFalseContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	return input.Value != nil && *input.Value == content.CorrectValue
}

// Ordering is order-sensitive: the user's sequence must equal the key
// element for element, not as a set.
func evaluateOrdering(raw []byte, input models.AttemptInput) bool {
	var content models.OrderingContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if len(content.CorrectOrder) == 0 || len(input.Order) != len(content.CorrectOrder) {
		return false
	}
	for i, id := range content.CorrectOrder {
		if input.Order[i] != id {
			return false
		}
	}
	return true
}

func evaluateMatching(raw []byte, input models.AttemptInput) bool {
	var content models.MatchingContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if len(content.CorrectPairs) == 0 {
		return false
	}

	key := make(map[string]string, len(content.CorrectPairs))
	for _, pair := range content.CorrectPairs {
		key[pair.LeftID] = pair.RightID
	}

	for left, right := range input.Matches {
		if key[left] != right {
			return false
		}
	}
	return len(input.Matches) == len(key)
}

func evaluateCategorySort(raw []byte, input models.AttemptInput) bool {
	var content models.CategorySortContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if len(content.CorrectCategories) == 0 {
		return false
	}

	for item, category := range content.CorrectCategories {
		if input.Placements[item] != category {
			return false
		}
	}
	return true
}

func evaluateScenarioChoice(raw []byte, input models.AttemptInput) bool {
	var content models.ScenarioChoiceContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if content.CorrectChoice == "" {
		return false
	}
	return input.Selected == content.CorrectChoice
}

// Slider grading is exact integer equality against each component's target.
// No tolerance band; widening this changes observable grading behavior.
func evaluateSliderRating(raw []byte, input models.AttemptInput) bool {
	var content models.SliderRatingContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if len(content.Components) == 0 {
		return false
	}

	for _, comp := range content.Components {
		value, ok := input.SliderValues[comp.Name]
		if !ok || value != comp.Target {
			return false
		}
	}
	return true
}

func evaluateFillInBlanks(raw []byte, input models.AttemptInput) bool {
	var content models.FillBlanksContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return false
	}
	if len(content.Blanks) == 0 {
		return false
	}

	for blankID, def := range content.Blanks {
		if input.BlankValues[blankID] != def.CorrectValue {
			return false
		}
	}
	return true
}
