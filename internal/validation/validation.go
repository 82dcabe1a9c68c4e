package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"helpinghands/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report json names so messages match the request payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("campaign_category", func(fl validator.FieldLevel) bool {
		return models.CampaignCategory(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("campaign_status", func(fl validator.FieldLevel) bool {
		return models.CampaignStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).IsValid()
	})

	return v
}

// FieldError describes a single failed constraint
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// Errors is returned by ValidateStruct when one or more fields fail
type Errors []FieldError

// Error implements the error interface
func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.Param != "" {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s=%s", fe.Field, fe.Tag, fe.Param))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", fe.Field, fe.Tag))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the failing field names
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Field)
	}
	return out
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if s == nil {
		return nil
	}

	// Check if it's a pointer to a struct
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return fmt.Errorf("validator: nil %T", s)
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(Errors, 0, len(ve))
		for _, e := range ve {
			out = append(out, FieldError{Field: e.Field(), Tag: e.Tag(), Param: e.Param()})
		}
		return out
	}
	return fmt.Errorf("validation failed: %w", err)
}
