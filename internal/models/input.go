package models

// AttemptInput carries the user's in-progress input for one part. Only the
// fields matching the part's kind are populated; the rest stay zero.
// Mirrors the per-kind answer payloads the evaluator grades against.
type AttemptInput struct {
	// single_choice / scenario_choice
	Selected string `json:"selected,omitempty"`

	// multi_choice
	SelectedSet []string `json:"selected_set,omitempty"`

	// true_false
	Value *bool `json:"value,omitempty"`

	// ordering: item IDs in the user's current arrangement
	Order []string `json:"order,omitempty"`

	// matching_pairs: left ID -> proposed right ID
	Matches map[string]string `json:"matches,omitempty"`

	// category_sort: item ID -> assigned category ID
	Placements map[string]string `json:"placements,omitempty"`

	// slider_rating: component name -> current value
	SliderValues map[string]int `json:"slider_values,omitempty"`

	// fill_in_blanks: blank ID -> selected value
	BlankValues map[string]string `json:"blank_values,omitempty"`
}

// IsEmpty reports whether the input carries nothing at all. Used to keep
// the submit action disabled before the user has interacted.
func (in AttemptInput) IsEmpty() bool {
	return in.Selected == "" &&
		len(in.SelectedSet) == 0 &&
		in.Value == nil &&
		len(in.Order) == 0 &&
		len(in.Matches) == 0 &&
		len(in.Placements) == 0 &&
		len(in.SliderValues) == 0 &&
		len(in.BlankValues) == 0
}
