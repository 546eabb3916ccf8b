package mapper

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"orderapi/internal/models"
)

// ErrNilInput is returned by MapToOrder when there is no body to map.
var ErrNilInput = errors.New("request body is required")

// Each canonical field is read from the first key that carries a usable value.
// The localized name always takes precedence over the canonical one.
var (
	orderIDKeys      = []string{"numeroPedido", "orderId"}
	valueKeys        = []string{"valorTotal", "value"}
	creationDateKeys = []string{"dataCriacao", "creationDate"}
	productIDKeys    = []string{"idItem", "productId"}
	quantityKeys     = []string{"quantidadeItem", "quantity"}
	priceKeys        = []string{"valorItem", "price"}
)

// ItemInput is an order line after field-name normalization. A field that was
// missing or not numeric holds NaN.
type ItemInput struct {
	ProductID float64 `validate:"finite,integral"`
	Quantity  float64 `validate:"finite,integral"`
	Price     float64 `validate:"finite"`
}

// OrderInput is the canonical shape of a request body before validation.
// Field order matters: validation reports the first failing field.
type OrderInput struct {
	OrderID string `validate:"required"`
	// Value is nil when the caller did not send one and NaN when it is not numeric.
	Value *float64    `validate:"required,finite"`
	Items []ItemInput `validate:"dive"`
	// CreationDate is zero when the caller sent something that does not parse.
	CreationDate time.Time `validate:"required"`
	// CreationDateSet reports whether CreationDate came from the body rather
	// than defaulting to the mapping time.
	CreationDateSet bool `validate:"-"`
}

// MapToOrder normalizes an arbitrary JSON object into an OrderInput. It only
// fails when input is nil; bad field values are carried through for Validate
// to reject.
func MapToOrder(input map[string]any) (OrderInput, error) {
	if input == nil {
		return OrderInput{}, ErrNilInput
	}

	var out OrderInput

	if raw, ok := firstTruthy(input, orderIDKeys); ok {
		out.OrderID = identifierString(raw)
	}

	if raw, ok := firstPresent(input, valueKeys); ok {
		v := toNumber(raw)
		out.Value = &v
	}

	if raw, ok := firstTruthy(input, creationDateKeys); ok {
		out.CreationDate = toTime(raw)
		out.CreationDateSet = true
	} else {
		out.CreationDate = time.Now().UTC()
	}

	out.Items = mapItems(input["items"])

	return out, nil
}

// HasIdentifier reports whether input carries a usable order identifier under
// either naming scheme.
func HasIdentifier(input map[string]any) bool {
	_, ok := firstTruthy(input, orderIDKeys)
	return ok
}

// OrderItems converts validated item inputs to their persisted form.
func (in OrderInput) OrderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, models.OrderItem{
			ProductID: int64(it.ProductID),
			Quantity:  int(it.Quantity),
			Price:     it.Price,
		})
	}
	return items
}

func mapItems(raw any) []ItemInput {
	var elems []any
	switch v := raw.(type) {
	case []any:
		elems = v
	case []map[string]any:
		elems = make([]any, len(v))
		for i := range v {
			elems[i] = v[i]
		}
	default:
		return []ItemInput{}
	}

	items := make([]ItemInput, 0, len(elems))
	for _, el := range elems {
		m, ok := el.(map[string]any)
		if !ok {
			items = append(items, ItemInput{ProductID: math.NaN(), Quantity: math.NaN(), Price: math.NaN()})
			continue
		}
		items = append(items, ItemInput{
			ProductID: numberAt(m, productIDKeys),
			Quantity:  numberAt(m, quantityKeys),
			Price:     numberAt(m, priceKeys),
		})
	}
	return items
}

func numberAt(m map[string]any, keys []string) float64 {
	raw, ok := firstPresent(m, keys)
	if !ok {
		return math.NaN()
	}
	return toNumber(raw)
}

// firstPresent returns the first non-null value among keys.
func firstPresent(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// firstTruthy returns the first value among keys that is not null, empty,
// false or zero.
func firstTruthy(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func identifierString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64:
		return cast.ToString(t)
	default:
		return ""
	}
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case nil, bool:
		return math.NaN()
	case string:
		if strings.TrimSpace(t) == "" {
			return math.NaN()
		}
		v = strings.TrimSpace(t)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN()
	}
	return f
}

// toTime parses strings with the layouts cast understands (RFC3339 with any
// fractional precision among them) and numbers as Unix milliseconds.
func toTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		ts, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(t), time.UTC)
		if err != nil {
			return time.Time{}
		}
		return ts.UTC()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}
		}
		return time.UnixMilli(int64(t)).UTC()
	default:
		return time.Time{}
	}
}
