package validator

import (
	"encoding/json"
	"fmt"

	"github.com/caseprep/practice-service/internal/models"
)

// ContentValidator checks kind-specific answer keys at authoring time.
// Runtime grading never trusts these checks: the evaluator treats a
// malformed key as always-incorrect instead of crashing. This validator
// exists to catch the authoring bug at save time, where it belongs.
type ContentValidator struct{}

func NewContentValidator() *ContentValidator {
	return &ContentValidator{}
}

// ValidateContent validates part content based on interaction kind.
func (v *ContentValidator) ValidateContent(kind models.InteractionKind, content []byte) error {
	switch kind {
	case models.SingleChoice:
		return v.validateSingleChoice(content)
	case models.MultiChoice:
		return v.validateMultiChoice(content)
	case models.TrueFalse:
		return v.validateTrueFalse(content)
	case models.Ordering:
		return v.validateOrdering(content)
	case models.MatchingPairs:
		return v.validateMatching(content)
	case models.CategorySort:
		return v.validateCategorySort(content)
	case models.ScenarioChoice:
		return v.validateScenarioChoice(content)
	case models.SliderRating:
		return v.validateSliderRating(content)
	case models.FillInBlanks:
		return v.validateFillInBlanks(content)
	case models.ContentOnly:
		// Informational parts carry no answer key.
		return nil
	default:
		return fmt.Errorf("unsupported interaction kind: %s", kind)
	}
}

// ValidatePart validates a complete part object.
func (v *ContentValidator) ValidatePart(part *models.ModulePart) error {
	if part.Title == "" {
		return fmt.Errorf("part title is required")
	}
	if part.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	return v.ValidateContent(part.Kind, part.Content)
}

func (v *ContentValidator) validateSingleChoice(content []byte) error {
	var sc models.SingleChoiceContent
	if err := json.Unmarshal(content, &sc); err != nil {
		return fmt.Errorf("invalid single choice content structure: %w", err)
	}

	if len(sc.Options) < 2 {
		return fmt.Errorf("single choice parts must have at least 2 options")
	}
	if sc.CorrectOption == "" {
		return fmt.Errorf("single choice parts must name a correct option")
	}
	if !hasOption(sc.Options, sc.CorrectOption) {
		return fmt.Errorf("correct option '%s' does not match any option", sc.CorrectOption)
	}
	return nil
}

func (v *ContentValidator) validateMultiChoice(content []byte) error {
	var mc models.MultiChoiceContent
	if err := json.Unmarshal(content, &mc); err != nil {
		return fmt.Errorf("invalid multi choice content structure: %w", err)
	}

	if len(mc.Options) < 2 {
		return fmt.Errorf("multi choice parts must have at least 2 options")
	}
	if len(mc.CorrectOptions) == 0 {
		return fmt.Errorf("multi choice parts must have at least 1 correct option")
	}
	for _, id := range mc.CorrectOptions {
		if !hasOption(mc.Options, id) {
			return fmt.Errorf("correct option '%s' does not match any option", id)
		}
	}
	return nil
}

func (v *ContentValidator) validateTrueFalse(content []byte) error {
	var tf models.TrueFalseContent
	if err := json.Unmarshal(content, &tf); err != nil {
		return fmt.Errorf("invalid true/false content structure: %w", err)
	}
	if tf.Statement == "" {
		return fmt.Errorf("true/false parts must have a statement")
	}
	return nil
}

func (v *ContentValidator) validateOrdering(content []byte) error {
	var oc models.OrderingContent
	if err := json.Unmarshal(content, &oc); err != nil {
		return fmt.Errorf("invalid ordering content structure: %w", err)
	}

	if len(oc.Items) < 2 {
		return fmt.Errorf("ordering parts must have at least 2 items")
	}
	if len(oc.CorrectOrder) != len(oc.Items) {
		return fmt.Errorf("correct order must include all items exactly once")
	}

	itemIDs := make(map[string]bool, len(oc.Items))
	for _, item := range oc.Items {
		if item.ID == "" || item.Text == "" {
			return fmt.Errorf("items must have both ID and text")
		}
		itemIDs[item.ID] = true
	}

	seen := make(map[string]bool, len(oc.CorrectOrder))
	for _, id := range oc.CorrectOrder {
		if !itemIDs[id] {
			return fmt.Errorf("correct order references non-existent item: %s", id)
		}
		if seen[id] {
			return fmt.Errorf("correct order contains duplicate item: %s", id)
		}
		seen[id] = true
	}
	return nil
}

func (v *ContentValidator) validateMatching(content []byte) error {
	var mc models.MatchingContent
	if err := json.Unmarshal(content, &mc); err != nil {
		return fmt.Errorf("invalid matching content structure: %w", err)
	}

	if len(mc.LeftItems) < 2 || len(mc.RightItems) < 2 {
		return fmt.Errorf("matching parts must have at least 2 items on each side")
	}
	if len(mc.CorrectPairs) == 0 {
		return fmt.Errorf("matching parts must have at least 1 correct pair")
	}

	leftIDs := make(map[string]bool, len(mc.LeftItems))
	rightIDs := make(map[string]bool, len(mc.RightItems))
	for _, item := range mc.LeftItems {
		if item.ID == "" || item.Text == "" {
			return fmt.Errorf("left items must have both ID and text")
		}
		leftIDs[item.ID] = true
	}
	for _, item := range mc.RightItems {
		if item.ID == "" || item.Text == "" {
			return fmt.Errorf("right items must have both ID and text")
		}
		rightIDs[item.ID] = true
	}

	for _, pair := range mc.CorrectPairs {
		if !leftIDs[pair.LeftID] {
			return fmt.Errorf("correct pair references non-existent left item: %s", pair.LeftID)
		}
		if !rightIDs[pair.RightID] {
			return fmt.Errorf("correct pair references non-existent right item: %s", pair.RightID)
		}
	}
	return nil
}

func (v *ContentValidator) validateCategorySort(content []byte) error {
	var cs models.CategorySortContent
	if err := json.Unmarshal(content, &cs); err != nil {
		return fmt.Errorf("invalid category sort content structure: %w", err)
	}

	if len(cs.Items) < 2 {
		return fmt.Errorf("category sort parts must have at least 2 items")
	}
	if len(cs.Categories) < 2 {
		return fmt.Errorf("category sort parts must have at least 2 categories")
	}

	itemIDs := make(map[string]bool, len(cs.Items))
	for _, item := range cs.Items {
		itemIDs[item.ID] = true
	}
	categoryIDs := make(map[string]bool, len(cs.Categories))
	for _, category := range cs.Categories {
		categoryIDs[category.ID] = true
	}

	for item, category := range cs.CorrectCategories {
		if !itemIDs[item] {
			return fmt.Errorf("answer key references non-existent item: %s", item)
		}
		if !categoryIDs[category] {
			return fmt.Errorf("answer key references non-existent category: %s", category)
		}
	}
	for _, item := range cs.Items {
		if cs.CorrectCategories[item.ID] == "" {
			return fmt.Errorf("item '%s' has no key category", item.ID)
		}
	}
	return nil
}

func (v *ContentValidator) validateScenarioChoice(content []byte) error {
	var sc models.ScenarioChoiceContent
	if err := json.Unmarshal(content, &sc); err != nil {
		return fmt.Errorf("invalid scenario choice content structure: %w", err)
	}

	if sc.Scenario == "" {
		return fmt.Errorf("scenario choice parts must have a scenario")
	}
	if len(sc.Options) < 2 {
		return fmt.Errorf("scenario choice parts must have at least 2 options")
	}
	if !hasOption(sc.Options, sc.CorrectChoice) {
		return fmt.Errorf("correct choice '%s' does not match any option", sc.CorrectChoice)
	}
	return nil
}

func (v *ContentValidator) validateSliderRating(content []byte) error {
	var sr models.SliderRatingContent
	if err := json.Unmarshal(content, &sr); err != nil {
		return fmt.Errorf("invalid slider rating content structure: %w", err)
	}

	if len(sr.Components) == 0 {
		return fmt.Errorf("slider rating parts must have at least 1 component")
	}
	for _, comp := range sr.Components {
		if comp.Name == "" {
			return fmt.Errorf("slider components must be named")
		}
		if comp.Min >= comp.Max {
			return fmt.Errorf("component '%s' range is empty", comp.Name)
		}
		if comp.Target < comp.Min || comp.Target > comp.Max {
			return fmt.Errorf("component '%s' target is outside its range", comp.Name)
		}
	}
	return nil
}

func (v *ContentValidator) validateFillInBlanks(content []byte) error {
	var fb models.FillBlanksContent
	if err := json.Unmarshal(content, &fb); err != nil {
		return fmt.Errorf("invalid fill-in-blanks content structure: %w", err)
	}

	if fb.Template == "" {
		return fmt.Errorf("fill-in-blanks parts must have a template")
	}
	if len(fb.Blanks) == 0 {
		return fmt.Errorf("fill-in-blanks parts must have at least 1 blank")
	}
	for blankID, def := range fb.Blanks {
		if len(def.Options) == 0 {
			return fmt.Errorf("blank '%s' must offer at least 1 option", blankID)
		}
		if def.CorrectValue == "" {
			return fmt.Errorf("blank '%s' must have a correct value", blankID)
		}
		found := false
		for _, option := range def.Options {
			if option == def.CorrectValue {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("blank '%s' correct value is not among its options", blankID)
		}
	}
	return nil
}

func hasOption(options []models.ChoiceOption, id string) bool {
	for _, option := range options {
		if option.ID == id {
			return true
		}
	}
	return false
}
