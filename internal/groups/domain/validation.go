package domain

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/text/encoding/charmap"
)

// MaxBatchUIDLength is the longest batch_uid the store accepts, in characters.
const MaxBatchUIDLength = 100

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("field"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("latin1", func(fl validator.FieldLevel) bool {
		return IsLatin1(fl.Field().String())
	})
	_ = v.RegisterValidation("groupref", func(fl validator.FieldLevel) bool {
		if ID(fl.Field().Int()).IsPersisted() {
			return true
		}
		pending := reflect.Indirect(fl.Parent()).FieldByName("PendingGroup")
		return pending.IsValid() && pending.Bool()
	})
	return v
}

type groupRules struct {
	CourseID ID     `field:"course_id" validate:"gt=0"`
	Title    string `field:"title" validate:"notblank"`
}

type codeRules struct {
	CourseID ID     `field:"course_id" validate:"gt=0"`
	GroupID  ID     `field:"group_id" validate:"groupref"`
	BatchUID string `field:"batch_uid" validate:"notblank,max=100,latin1"`

	// PendingGroup allows an unset GroupID while the owning group is new.
	PendingGroup bool
}

// IsLatin1 reports whether s can be stored in an ISO-8859-1 column.
func IsLatin1(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

func checkRules(rules any) []ValidationWarning {
	err := validate.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationWarning{{Field: "", Message: err.Error()}}
	}

	warnings := make([]ValidationWarning, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		warnings = append(warnings, ValidationWarning{
			Field:   fe.Field(),
			Message: ruleMessage(fe),
		})
	}
	return warnings
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "value must be a persisted id"
	case "groupref":
		return "value must be set"
	case "notblank":
		return "value must be set"
	case "max":
		return "value must be at most " + fe.Param() + " characters"
	case "latin1":
		return "value must only contain ISO-8859-1 characters"
	default:
		return "failed rule " + fe.Tag()
	}
}

func warningsToError(warnings []ValidationWarning) error {
	if len(warnings) == 0 {
		return nil
	}
	return &ValidationError{Warnings: warnings}
}
