package mapper

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"orderapi/internal/models"
)

// maxSafeInteger bounds integral fields to values a float64 holds exactly.
const maxSafeInteger = 1 << 53

const (
	MsgOrderIDRequired     = "orderId required"
	MsgValueRequired       = "value required and numeric"
	MsgInvalidItems        = "invalid items"
	MsgInvalidCreationDate = "creationDate invalid"
)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("finite", validateFinite); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("integral", validateIntegral); err != nil {
		panic(err)
	}
	return v
}

func validateFinite(fl validator.FieldLevel) bool {
	f, ok := floatValue(fl.Field())
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validateIntegral(fl validator.FieldLevel) bool {
	f, ok := floatValue(fl.Field())
	return ok && f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger
}

func floatValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Ptr:
		if v.IsNil() {
			return 0, false
		}
		return floatValue(v.Elem())
	default:
		return 0, false
	}
}

// Validate applies the full rule set used when creating an order and returns
// the canonical record on success.
func Validate(in OrderInput) (models.Order, error) {
	if err := validate.Struct(in); err != nil {
		return models.Order{}, translate(err)
	}
	return models.Order{
		OrderID:      in.OrderID,
		Value:        *in.Value,
		CreationDate: in.CreationDate,
		Items:        in.OrderItems(),
	}, nil
}

// ValidatePatch checks only the fields an update would apply: value when
// present, items when non-empty and the creation date when one was supplied.
func ValidatePatch(in OrderInput) error {
	if in.Value != nil {
		if err := validate.Var(*in.Value, "finite"); err != nil {
			return NewValidationError("value", MsgValueRequired)
		}
	}
	for _, it := range in.Items {
		if err := validate.Struct(it); err != nil {
			return NewValidationError("items", MsgInvalidItems)
		}
	}
	if in.CreationDateSet && in.CreationDate.IsZero() {
		return NewValidationError("creationDate", MsgInvalidCreationDate)
	}
	return nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	switch {
	case strings.Contains(fe.StructNamespace(), ".Items["):
		return NewValidationError("items", MsgInvalidItems)
	case fe.StructField() == "OrderID":
		return NewValidationError("orderId", MsgOrderIDRequired)
	case fe.StructField() == "Value":
		return NewValidationError("value", MsgValueRequired)
	case fe.StructField() == "CreationDate":
		return NewValidationError("creationDate", MsgInvalidCreationDate)
	default:
		return NewValidationError(fe.Field(), fe.Error())
	}
}
