package validator

import (
	"reflect"
	"strings"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with content (answer key)
// validation for module authoring.
type Validator struct {
	structValidator  *validator.Validate
	contentValidator *ContentValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:  structValidator,
		contentValidator: NewContentValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs struct-tag validation. Part content validation is
// requested explicitly through Content().
func (v *Validator) Validate(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Content returns the answer-key content validator
func (v *Validator) Content() *ContentValidator {
	return v.contentValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("interaction_kind", validateInteractionKind)
	validate.RegisterValidation("feedback_rating", validateFeedbackRating)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("module_status", validateModuleStatus)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateInteractionKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, kind := range models.AllInteractionKinds {
		if string(kind) == value {
			return true
		}
	}
	return false
}

func validateFeedbackRating(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, rating := range models.AllFeedbackRatings {
		if string(rating) == value {
			return true
		}
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleStudent,
		models.RoleCoach,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func validateModuleStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ModuleStatus{
		models.ModuleDraft,
		models.ModulePublished,
		models.ModuleArchived,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}
