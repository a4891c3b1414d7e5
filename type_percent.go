package invoicing

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a rate like a tax rate or a markup, 15 meaning 15%.
type Percent struct {
	value decimal.Decimal
}

// Pct returns a Percent. Negative rates are coerced to 0.
func Pct[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Percent {
	d := newDecimal(value)
	if d.IsNegative() {
		d = decimal.Zero
	}
	return Percent{value: d}
}

// Of returns p percent of m, unrounded.
func (p Percent) Of(m Money) Money { return m.mul(p.value.Mul(onePercent)) }

func (p Percent) Decimal() decimal.Decimal { return p.value }
func (p Percent) Equal(q Percent) bool     { return p.value.Equal(q.value) }
func (p Percent) IsZero() bool             { return p.value.IsZero() }

func (p Percent) String() string {
	return fmt.Sprintf("%s%%", p.value.StringFixed(2))
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.value.String()), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("invalid percent %s: %w", b, err)
	}
	*p = Pct(d)
	return nil
}
