package invoicing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/invoicing/date"
)

// Kind is the type of a document.
type Kind int

const (
	Invoice Kind = iota
	Quotation
)

func (k Kind) String() string {
	switch k {
	case Quotation:
		return "quotation"
	default:
		return "invoice"
	}
}

// ParseKind parses "invoice" or "quotation" (also "quote").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "":
		return Invoice, nil
	case "quotation", "quote":
		return Quotation, nil
	default:
		return Invoice, fmt.Errorf("unknown document kind %q, want invoice or quotation", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Party is the company issuing a document or the client receiving it.
type Party struct {
	Name      string `json:"name,omitempty"`
	Address   string `json:"address,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	VATNumber string `json:"vatNumber,omitempty"`
}

// Banking holds the payment details printed with the header.
type Banking struct {
	Bank          string `json:"bank,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	BranchCode    string `json:"branchCode,omitempty"`
}

// Document is a quotation or an invoice.
type Document struct {
	Kind       Kind       `json:"kind"`
	Number     string     `json:"number"`
	Date       date.Date  `json:"date"`
	ValidUntil date.Date  `json:"validUntil"` // quotations
	DueDate    date.Date  `json:"dueDate"`    // invoices
	Company    Party      `json:"company"`
	Client     Party      `json:"client"`
	Banking    Banking    `json:"banking"`
	Items      []LineItem `json:"items"`
	Tax        TaxPolicy  `json:"tax"`
	Notes      string     `json:"notes"`
	Terms      string     `json:"terms"`
}

// DefaultTaxPolicy returns the usual policy of a kind of document: invoices
// use a flat rate, quotations carry a rate on each item and use rate for the
// items without one.
func DefaultTaxPolicy(kind Kind, rate Percent) TaxPolicy {
	if kind == Quotation {
		return PerItemRate(rate)
	}
	return FlatRate(rate)
}

// EffectiveTax returns the document tax policy, or DefaultTaxPolicy(d.Kind,
// fallback) when the document does not set one.
func (d Document) EffectiveTax(fallback Percent) TaxPolicy {
	if d.Tax.IsZero() {
		return DefaultTaxPolicy(d.Kind, fallback)
	}
	return d.Tax
}

// MarshalJSON omits the empty optional fields.
func (d Document) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", d.Kind)
	w.Append("number", d.Number)
	w.Optional("date", d.Date)
	w.Optional("validUntil", d.ValidUntil)
	w.Optional("dueDate", d.DueDate)
	w.Optional("company", d.Company)
	w.Optional("client", d.Client)
	w.Optional("banking", d.Banking)
	items := d.Items
	if items == nil {
		items = []LineItem{}
	}
	w.Append("items", items)
	if !d.Tax.IsZero() {
		w.Append("tax", d.Tax)
	}
	w.Optional("notes", d.Notes)
	w.Optional("terms", d.Terms)
	return w.MarshalJSON()
}

// ErrNotQuotation is returned when converting a document that is not a quotation.
var ErrNotQuotation = errors.New("document is not a quotation")

// ToInvoice converts an accepted quotation into an invoice numbered number,
// dated on and due dueDays later (no due date if dueDays is 0).
//
// Items are copied and renumbered. The per-item policy of the quotation
// becomes a flat one when all items share the same rate, otherwise it is
// kept so that the invoice totals equal the quotation ones.
func (d Document) ToInvoice(number string, on date.Date, dueDays int) (Document, error) {
	if d.Kind != Quotation {
		return Document{}, fmt.Errorf("cannot convert %s %q: %w", d.Kind, d.Number, ErrNotQuotation)
	}
	inv := d
	inv.Kind = Invoice
	inv.Number = number
	inv.Date = on
	inv.ValidUntil = date.Date{}
	inv.DueDate = date.Date{}
	if dueDays > 0 {
		inv.DueDate = on.Add(dueDays)
	}
	inv.Items = Renumber(d.Items)

	policy := d.EffectiveTax(Percent{})
	if policy.Mode() == PerItemMode {
		if rate, ok := uniformRate(d.Items, policy); ok {
			policy = FlatRate(rate)
		}
	}
	inv.Tax = policy
	return inv, nil
}

// uniformRate returns the rate shared by all items under a per-item policy.
func uniformRate(items []LineItem, policy TaxPolicy) (Percent, bool) {
	if len(items) == 0 {
		return policy.Rate(), true
	}
	rate := policy.ItemRate(items[0])
	for _, item := range items[1:] {
		if !policy.ItemRate(item).Equal(rate) {
			return Percent{}, false
		}
	}
	return rate, true
}

// Preview is everything a presentation layer needs to print a document.
type Preview struct {
	Document Document
	Items    []NormalizedLineItem
	Totals   DocumentTotals
	Tax      TaxPolicy
	Pages    []PageDescriptor
	Overflow int // items printed on the last page beyond its capacity
}

// Compute normalizes the document items, computes its totals with its tax
// policy (default policy at 0% if unset) and splits them into pages.
func Compute(doc Document, layout Layout) Preview {
	policy := doc.EffectiveTax(Percent{})
	items, totals := Totals(doc.Items, policy)
	return Preview{
		Document: doc,
		Items:    items,
		Totals:   totals,
		Tax:      policy,
		Pages:    layout.Plan(items),
		Overflow: layout.Overflow(len(items)),
	}
}

// MarshalJSON writes the preview with a stable field order.
func (p Preview) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("document", p.Document)
	w.Append("tax", p.Tax)
	w.Append("totals", p.Totals)
	w.Append("pages", p.Pages)
	w.Optional("overflow", p.Overflow)
	return w.MarshalJSON()
}

var _ json.Marshaler = Preview{}
