package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/prep-service/internal/models"
)

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the service's custom rules
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report json names, not Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerCustomRules()
	return v
}

// Validate checks struct tags. The result is nil or ValidationErrors.
func (v *Validator) Validate(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuestionCreate adds the rules that span fields to tag validation
func (v *Validator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errs ValidationErrors
	if err := v.validate.Struct(req); err != nil {
		errs = append(errs, ToValidationErrors(err)...)
	}

	if req.CorrectAnswerIndex != nil && len(req.Options) > 0 && *req.CorrectAnswerIndex >= len(req.Options) {
		errs = append(errs, ValidationError{
			Field:   "correct_answer_index",
			Message: fmt.Sprintf("must index one of the %d options", len(req.Options)),
			Value:   *req.CorrectAnswerIndex,
			Rule:    "option_index",
		})
	}

	return errs
}

// ToValidationErrors converts go-playground errors; other errors become a
// single entry
func ToValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gtfield":
		return "must be greater than " + fe.Param()
	case "ltefield":
		return "must not exceed " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "session_mode":
		return "must be tutor or timed"
	case "difficulty_level":
		return "must be easy, medium or hard"
	case "percent":
		return "must be between 0 and 100"
	case "dive":
		return "is invalid"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation("session_mode", func(fl validator.FieldLevel) bool {
		switch models.SessionMode(fl.Field().String()) {
		case models.ModeTutor, models.ModeTimed:
			return true
		}
		return false
	})

	_ = v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		switch models.DifficultyLevel(fl.Field().String()) {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
			return true
		}
		return false
	})

	_ = v.validate.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		var value float64
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			value = fl.Field().Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			value = float64(fl.Field().Int())
		default:
			return false
		}
		return value >= 0 && value <= 100
	})
}
