package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	apperrors "github.com/HenriqueSouzza/unidos-backend/internal/errors"
)

const msgEmailTaken = "has already been taken"

// inputValidator turns validator failures into field keyed messages.
type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// validator's max counts runes; bcrypt limits bytes.
	_ = v.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})
	return &inputValidator{v: v}
}

// validate always returns a ValidationError; callers check HasErrors.
func (iv *inputValidator) validate(input interface{}) *apperrors.ValidationError {
	verr := apperrors.NewValidationError()

	err := iv.v.Struct(input)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if fe.Tag() == "eqfield" {
			// Confirmation mismatches are reported on the confirmed field.
			field = "password"
		}
		verr.Add(field, fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "eqfield":
		return "confirmation does not match"
	case "bcrypt":
		return fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes)
	default:
		return "is invalid"
	}
}
