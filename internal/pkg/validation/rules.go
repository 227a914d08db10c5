package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field length limits shared by DTO tags and services
const (
	NameMinLength     = 2
	NameMaxLength     = 100
	QuestionMaxLength = 1000
	ReasonMaxLength   = 1000
)

// NotBlank fails for strings that are empty after trimming whitespace.
// Nil pointers pass; pair with required when the field is mandatory.
func NotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.String {
		return strings.TrimSpace(field.String()) != ""
	}
	return true
}

// RegisterCustomRules installs the project tags on v
func RegisterCustomRules(v *validator.Validate) error {
	return v.RegisterValidation("notblank", NotBlank)
}

// New returns a validator with the custom rules installed
func New() *validator.Validate {
	v := validator.New()
	if err := RegisterCustomRules(v); err != nil {
		panic(err)
	}
	return v
}
