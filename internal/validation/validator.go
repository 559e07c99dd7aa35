// Package validation wraps a shared go-playground validator with the custom
// rules used by request inputs and translates its failures into
// field-keyed messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "moodtracker/internal/errors"
)

// Custom tags.
const (
	TagTimezone = "timezone"
	TagHHMM     = "hhmm"
	TagDate     = "date"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)

		mustRegister(v, TagTimezone, func(fl validator.FieldLevel) bool {
			return IsTimezone(fl.Field().String())
		})
		mustRegister(v, TagHHMM, func(fl validator.FieldLevel) bool {
			return IsClockTime(fl.Field().String())
		})
		mustRegister(v, TagDate, func(fl validator.FieldLevel) bool {
			return IsDate(fl.Field().String())
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// IsTimezone reports whether name is a loadable IANA zone identifier.
func IsTimezone(name string) bool {
	// LoadLocation maps "" to UTC and "Local" to the host zone.
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// IsClockTime reports whether s is a 24h HH:MM wall-clock time.
func IsClockTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidateStruct validates s and returns nil or a *errors.ValidationError
// keyed by JSON field name.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		key := FieldKey(fe.Namespace())
		out.Add(key, Message(key, fe))
	}
	return out.OrNil()
}

// FieldKey turns "Input.activities[2]" into "activities.2".
func FieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

// Attribute is the human form of a field key.
func Attribute(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// Message renders a field error.
func Message(key string, fe validator.FieldError) string {
	attr := Attribute(key)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", attr)
	case "min", "gte":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("The %s field must be at least %s characters.", attr, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s field must have at least %s items.", attr, fe.Param())
		default:
			return fmt.Sprintf("The %s field must be at least %s.", attr, fe.Param())
		}
	case "max", "lte":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("The %s field must not be greater than %s characters.", attr, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s field must not have more than %s items.", attr, fe.Param())
		default:
			return fmt.Sprintf("The %s field must not be greater than %s.", attr, fe.Param())
		}
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", attr)
	case TagTimezone:
		return fmt.Sprintf("The %s field must be a valid timezone.", attr)
	case TagHHMM:
		return fmt.Sprintf("The %s field must match the format HH:MM.", attr)
	case TagDate:
		return fmt.Sprintf("The %s field must be a valid date in YYYY-MM-DD format.", attr)
	default:
		return fmt.Sprintf("The %s field is invalid.", attr)
	}
}

// EchoValidator adapts the singleton to echo.Validator.
type EchoValidator struct{}

// Validate implements echo.Validator.
func (EchoValidator) Validate(i interface{}) error {
	return ValidateStruct(i)
}
