package invoicing

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// onePercent is the factor of a 1% rate.
var onePercent = decimal.New(1, -2)

func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Number is a numeric field of a line item as typed by a user.
//
// It never fails: absent, negative, NaN or non-numeric input all read as
// zero through Value. IsSet tells apart an absent value from a typed one, so
// that an item tax rate can fall back to a document default.
type Number struct {
	value decimal.Decimal
	set   bool
}

// N returns a Number holding value.
func N[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Number {
	return Number{value: newDecimal(value), set: true}
}

// ParseNumber reads a Number from user text. Grouping commas and spaces are
// ignored ("1,234.50"). Empty text is an absent Number, anything that is not a
// number is a present zero.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{set: true}
	}
	return Number{value: d, set: true}
}

// Value returns the coerced value: never negative.
func (n Number) Value() decimal.Decimal {
	if !n.set || n.value.IsNegative() {
		return decimal.Zero
	}
	return n.value
}

func (n Number) IsSet() bool         { return n.set }
func (n Number) IsZero() bool        { return n.Value().IsZero() }
func (n Number) String() string      { return n.Value().String() }
func (n Number) Equal(m Number) bool { return n.Value().Equal(m.Value()) }

// MarshalJSON writes the coerced value, or null for an absent Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return []byte(n.Value().String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null. Any other json
// value decodes to a present zero instead of failing the whole document.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*n = Number{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = Number{set: true}
			return nil
		}
		*n = ParseNumber(s)
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			*n = Number{set: true}
			return nil
		}
		*n = Number{value: d, set: true}
	}
	return nil
}
