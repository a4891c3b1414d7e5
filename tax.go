package invoicing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxMode tells how tax is computed on a document.
type TaxMode int

const (
	// FlatMode applies one rate once on the document subtotal (invoices).
	FlatMode TaxMode = iota
	// PerItemMode applies each item's own rate on its amount (quotations).
	PerItemMode
)

func (m TaxMode) String() string {
	switch m {
	case PerItemMode:
		return "per-item"
	default:
		return "flat"
	}
}

// ErrInvalidTaxPolicy is returned when a tax policy cannot be parsed.
var ErrInvalidTaxPolicy = errors.New("invalid tax policy")

// TaxPolicy selects the tax mode of a document. It is chosen by the caller,
// never inferred from which item fields happen to be filled.
//
// The zero TaxPolicy is FlatRate(Pct(0)); IsZero reports it so that callers
// can substitute a default.
type TaxPolicy struct {
	mode TaxMode
	rate Percent // flat rate, or default rate for items without one
	set  bool
}

// FlatRate returns a policy applying rate once on the subtotal. Item tax
// rates are ignored.
func FlatRate(rate Percent) TaxPolicy { return TaxPolicy{mode: FlatMode, rate: rate, set: true} }

// PerItemRate returns a policy applying each item's TaxRate on its amount.
// Items without a TaxRate use defaultRate.
func PerItemRate(defaultRate Percent) TaxPolicy {
	return TaxPolicy{mode: PerItemMode, rate: defaultRate, set: true}
}

func (t TaxPolicy) Mode() TaxMode  { return t.mode }
func (t TaxPolicy) Rate() Percent  { return t.rate }
func (t TaxPolicy) IsZero() bool   { return !t.set }
func (t TaxPolicy) String() string { return t.mode.String() + ":" + t.rate.Decimal().String() }

// ItemRate returns the rate applied to item under a per-item policy: its own
// TaxRate, else the policy default.
func (t TaxPolicy) ItemRate(item LineItem) Percent {
	if item.TaxRate.IsSet() {
		return Pct(item.TaxRate.Value())
	}
	return t.rate
}

// ParseTaxPolicy parses the command line form of a policy: "flat:15",
// "per-item" or "per-item:15". A bare number is a flat rate.
func ParseTaxPolicy(s string) (TaxPolicy, error) {
	mode, rate, hasRate := strings.Cut(strings.TrimSpace(s), ":")
	if !hasRate {
		if _, err := decimal.NewFromString(strings.TrimSuffix(mode, "%")); err == nil {
			mode, rate, hasRate = "flat", mode, true
		}
	}
	r := decimal.Zero
	if hasRate {
		d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(rate), "%"))
		if err != nil {
			return TaxPolicy{}, fmt.Errorf("%w %q: rate is not a number", ErrInvalidTaxPolicy, s)
		}
		if d.IsNegative() {
			return TaxPolicy{}, fmt.Errorf("%w %q: rate must not be negative", ErrInvalidTaxPolicy, s)
		}
		r = d
	}
	switch strings.ToLower(mode) {
	case "flat":
		return FlatRate(Pct(r)), nil
	case "per-item", "item":
		return PerItemRate(Pct(r)), nil
	default:
		return TaxPolicy{}, fmt.Errorf("%w %q: unknown mode %q, want flat or per-item", ErrInvalidTaxPolicy, s, mode)
	}
}

// jtaxPolicy is the json form of a TaxPolicy.
type jtaxPolicy struct {
	Mode    string   `json:"mode"`
	Rate    *Percent `json:"rate,omitempty"`
	Default *Percent `json:"default,omitempty"`
}

// MarshalJSON writes {"mode":"flat","rate":15} or {"mode":"per-item","default":15}.
func (t TaxPolicy) MarshalJSON() ([]byte, error) {
	j := jtaxPolicy{Mode: t.mode.String()}
	rate := t.rate
	if t.mode == PerItemMode {
		j.Default = &rate
	} else {
		j.Rate = &rate
	}
	return json.Marshal(j)
}

func (t *TaxPolicy) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = TaxPolicy{}
		return nil
	}
	var j jtaxPolicy
	if err := json.Unmarshal(b, &j); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTaxPolicy, err)
	}
	switch strings.ToLower(j.Mode) {
	case "flat", "":
		if j.Default != nil {
			return fmt.Errorf("%w: a flat policy has a rate, not a default", ErrInvalidTaxPolicy)
		}
		var r Percent
		if j.Rate != nil {
			r = *j.Rate
		}
		*t = FlatRate(r)
	case "per-item", "item":
		if j.Rate != nil {
			return fmt.Errorf("%w: a per-item policy has a default, not a rate", ErrInvalidTaxPolicy)
		}
		var r Percent
		if j.Default != nil {
			r = *j.Default
		}
		*t = PerItemRate(r)
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidTaxPolicy, j.Mode)
	}
	return nil
}
