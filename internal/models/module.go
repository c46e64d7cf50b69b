package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ModuleStatus string

const (
	ModuleDraft     ModuleStatus = "Draft"
	ModulePublished ModuleStatus = "Published"
	ModuleArchived  ModuleStatus = "Archived"
)

// InteractionKind is the closed set of part interaction types. Each kind
// carries its own answer-key payload shape and user-input shape.
type InteractionKind string

const (
	SingleChoice   InteractionKind = "single_choice"
	MultiChoice    InteractionKind = "multi_choice"
	TrueFalse      InteractionKind = "true_false"
	Ordering       InteractionKind = "ordering"
	MatchingPairs  InteractionKind = "matching_pairs"
	CategorySort   InteractionKind = "category_sort"
	ScenarioChoice InteractionKind = "scenario_choice"
	SliderRating   InteractionKind = "slider_rating"
	FillInBlanks   InteractionKind = "fill_in_blanks"
	ContentOnly    InteractionKind = "content_only"
)

// AllInteractionKinds lists every supported kind, used by validators.
var AllInteractionKinds = []InteractionKind{
	SingleChoice, MultiChoice, TrueFalse, Ordering, MatchingPairs,
	CategorySort, ScenarioChoice, SliderRating, FillInBlanks, ContentOnly,
}

// LearningModule is an ordered sequence of parts. Part identity is
// positional; navigation works on indices, not part IDs.
type LearningModule struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      ModuleStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Published Archived"`

	CreatedBy string         `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Version int `json:"version" gorm:"default:1"`

	Parts []ModulePart `json:"parts" gorm:"foreignKey:ModuleID"`

	// Computed, not stored
	PartsCount int `json:"parts_count" gorm:"-"`
}

func (LearningModule) TableName() string {
	return "learning_modules"
}

// ModulePart is one step in a learning module. Content holds the
// kind-specific answer key serialized as JSONB.
type ModulePart struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	ModuleID uint `json:"module_id" gorm:"not null;index"`
	// Position within the module, 0-based and unique per module.
	Position int `json:"position" gorm:"not null"`

	Title       string          `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	BodyContent string          `json:"body_content" gorm:"type:text"`
	Kind        InteractionKind `json:"kind" gorm:"not null" validate:"required,interaction_kind"`

	Content datatypes.JSON `json:"content" gorm:"type:jsonb"`

	MaxAttempts int     `json:"max_attempts" gorm:"default:3" validate:"min=1,max=10"`
	CanSkip     bool    `json:"can_skip" gorm:"default:false"`
	SkipMessage *string `json:"skip_message" gorm:"size:500"`

	CorrectFeedback   string `json:"correct_feedback" gorm:"type:text"`
	IncorrectFeedback string `json:"incorrect_feedback" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ModulePart) TableName() string {
	return "module_parts"
}

// ===== KIND-SPECIFIC ANSWER-KEY PAYLOADS =====
// These are the structures serialized into ModulePart.Content.

type ChoiceOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type SingleChoiceContent struct {
	Options       []ChoiceOption `json:"options"`
	CorrectOption string         `json:"correct_option"`
}

type MultiChoiceContent struct {
	Options        []ChoiceOption `json:"options"`
	CorrectOptions []string       `json:"correct_options"`
}

type TrueFalseContent struct {
	Statement    string `json:"statement"`
	CorrectValue bool   `json:"correct_value"`
}

type OrderingContent struct {
	Items        []ChoiceOption `json:"items"`
	CorrectOrder []string       `json:"correct_order"`
}

type MatchPair struct {
	LeftID  string `json:"left_id"`
	RightID string `json:"right_id"`
}

type MatchingContent struct {
	LeftItems    []ChoiceOption `json:"left_items"`
	RightItems   []ChoiceOption `json:"right_items"`
	CorrectPairs []MatchPair    `json:"correct_pairs"`
}

type CategorySortContent struct {
	Items      []ChoiceOption `json:"items"`
	Categories []ChoiceOption `json:"categories"`
	// item ID -> category ID
	CorrectCategories map[string]string `json:"correct_categories"`
}

type ScenarioChoiceContent struct {
	Scenario      string         `json:"scenario"`
	Options       []ChoiceOption `json:"options"`
	CorrectChoice string         `json:"correct_choice"`
}

type SliderComponent struct {
	Name   string `json:"name"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Target int    `json:"target"`
}

type SliderRatingContent struct {
	Components []SliderComponent `json:"components"`
}

type BlankDef struct {
	Options      []string `json:"options"`
	CorrectValue string   `json:"correct_value"`
}

type FillBlanksContent struct {
	Template string `json:"template"`
	// blank ID -> definition
	Blanks map[string]BlankDef `json:"blanks"`
}

// ===== STUDENT-FACING PROJECTIONS =====
// What a part's content looks like mid-run: presentation fields only,
// answer keys stripped.

type optionsDisplay struct {
	Options []ChoiceOption `json:"options"`
}

type trueFalseDisplay struct {
	Statement string `json:"statement"`
}

type orderingDisplay struct {
	Items []ChoiceOption `json:"items"`
}

type matchingDisplay struct {
	LeftItems  []ChoiceOption `json:"left_items"`
	RightItems []ChoiceOption `json:"right_items"`
}

type categorySortDisplay struct {
	Items      []ChoiceOption `json:"items"`
	Categories []ChoiceOption `json:"categories"`
}

type scenarioChoiceDisplay struct {
	Scenario string         `json:"scenario"`
	Options  []ChoiceOption `json:"options"`
}

type sliderComponentDisplay struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

type sliderRatingDisplay struct {
	Components []sliderComponentDisplay `json:"components"`
}

type blankDisplay struct {
	Options []string `json:"options"`
}

type fillBlanksDisplay struct {
	Template string                  `json:"template"`
	Blanks   map[string]blankDisplay `json:"blanks"`
}

func displayJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// DisplayContent returns the content payload with answer-key fields
// stripped. Malformed content yields nil rather than echoing the raw
// payload.
func (p *ModulePart) DisplayContent() datatypes.JSON {
	switch p.Kind {
	case SingleChoice:
		var c SingleChoiceContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(optionsDisplay{Options: c.Options})
	case MultiChoice:
		var c MultiChoiceContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(optionsDisplay{Options: c.Options})
	case TrueFalse:
		var c TrueFalseContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(trueFalseDisplay{Statement: c.Statement})
	case Ordering:
		var c OrderingContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(orderingDisplay{Items: c.Items})
	case MatchingPairs:
		var c MatchingContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(matchingDisplay{LeftItems: c.LeftItems, RightItems: c.RightItems})
	case CategorySort:
		var c CategorySortContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(categorySortDisplay{Items: c.Items, Categories: c.Categories})
	case ScenarioChoice:
		var c ScenarioChoiceContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		return displayJSON(scenarioChoiceDisplay{Scenario: c.Scenario, Options: c.Options})
	case SliderRating:
		var c SliderRatingContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		components := make([]sliderComponentDisplay, len(c.Components))
		for i, comp := range c.Components {
			components[i] = sliderComponentDisplay{Name: comp.Name, Min: comp.Min, Max: comp.Max}
		}
		return displayJSON(sliderRatingDisplay{Components: components})
	case FillInBlanks:
		var c FillBlanksContent
		if err := json.Unmarshal(p.Content, &c); err != nil {
			return nil
		}
		blanks := make(map[string]blankDisplay, len(c.Blanks))
		for id, def := range c.Blanks {
			blanks[id] = blankDisplay{Options: def.Options}
		}
		return displayJSON(fillBlanksDisplay{Template: c.Template, Blanks: blanks})
	case ContentOnly:
		return p.Content
	default:
		return nil
	}
}

// ForDisplay returns a copy of the part safe to send to a student mid-run.
func (p *ModulePart) ForDisplay() *ModulePart {
	display := *p
	display.Content = p.DisplayContent()
	return &display
}
