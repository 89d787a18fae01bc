package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by request and config validation; it caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is one rejected request field.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Message, fmt.Sprint(e.Value))
}

// Validator collects field errors of one request, checked with validator tags:
//
//	common.NewValidator().
//		Field("platform", req.Platform, "required").
//		Field("name", req.Name, "max=255").
//		Err()
type Validator struct {
	errors []FieldError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field checks value against tag, e.g. "required", "max=255", "oneof=xlsx json" or "uuid".
func (v *Validator) Field(name string, value any, tag string) *Validator {
	err := validate.Var(value, tag)
	if err == nil {
		return v
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.errors = append(v.errors, FieldError{Field: name, Value: value, Message: err.Error()})
		return v
	}
	for _, fe := range verrs {
		v.errors = append(v.errors, FieldError{Field: name, Value: value, Message: describe(fe)})
	}
	return v
}

// Check records message for name unless ok holds.
func (v *Validator) Check(name string, value any, ok bool, message string) *Validator {
	if !ok {
		v.errors = append(v.errors, FieldError{Field: name, Value: value, Message: message})
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Err joins the collected errors under ErrValidation, or returns nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return "must be a valid UUID"
	default:
		return "failed " + fe.Tag()
	}
}
