package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
)

// PriceScale is the maximum number of decimal places a price may carry.
const PriceScale = 2

// MaxPrice is the largest price a NUMERIC(12,2) column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// Validator is a validator that validates the given struct.
type Validator interface {
	// Validate validates the given struct
	Validate(s any) error
}

type DefaultValidator struct {
	v *validator.Validate
}

// NewDefaultValidator creates a new default validator.
// Field names in errors follow the json tag of the field.
func NewDefaultValidator() (*DefaultValidator, error) {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Optional values validate as their inner value, absent or null ones as nil
	// so that omitempty skips them.
	v.RegisterCustomTypeFunc(optionalValue[string], optional.Value[string]{})
	v.RegisterCustomTypeFunc(optionalValue[int], optional.Value[int]{})
	v.RegisterCustomTypeFunc(optionalValue[int64], optional.Value[int64]{})
	v.RegisterCustomTypeFunc(optionalValue[float64], optional.Value[float64]{})
	v.RegisterCustomTypeFunc(optionalValue[decimal.Decimal], optional.Value[decimal.Decimal]{})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	if err := v.RegisterValidation("price", validatePrice); err != nil {
		return nil, fmt.Errorf("register price validator: %w", err)
	}

	return &DefaultValidator{v: v}, nil
}

func (v DefaultValidator) Validate(s any) error {
	return v.v.Struct(s)
}

// IsValidationError checks if the given error is a validation error
func IsValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "price":
		return fmt.Sprintf("must be a positive amount up to %s with at most %d decimal places", MaxPrice, PriceScale)
	default:
		return "is invalid"
	}
}

// IsValidPrice reports whether d is strictly positive, no larger than MaxPrice
// and has at most PriceScale decimal places.
func IsValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThanOrEqual(MaxPrice) && d.Equal(d.Truncate(PriceScale))
}

func optionalValue[T any](field reflect.Value) any {
	o, ok := field.Interface().(optional.Value[T])
	if !ok {
		return nil
	}
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}

func decimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	return d.String()
}

func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return IsValidPrice(d)
}
