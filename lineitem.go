package invoicing

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// LineItem is one row of a quotation or invoice as typed in the form.
type LineItem struct {
	ID             string `json:"id"`
	SequenceNumber int    `json:"sequenceNumber"`
	Description    string `json:"description"`
	Quantity       Number `json:"quantity"`
	Rate           Number `json:"rate"`
	MarkupPercent  Number `json:"markupPercent"` // percent added to the rate
	Discount       Number `json:"discount"`      // absolute amount off the line
	TaxRate        Number `json:"taxRate"`       // percent, used by the per-item tax policy only
}

// MarshalJSON omits the absent numeric fields.
func (l LineItem) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", l.ID)
	w.Append("sequenceNumber", l.SequenceNumber)
	w.Optional("description", l.Description)
	w.Optional("quantity", l.Quantity)
	w.Optional("rate", l.Rate)
	w.Optional("markupPercent", l.MarkupPercent)
	w.Optional("discount", l.Discount)
	w.Optional("taxRate", l.TaxRate)
	return w.MarshalJSON()
}

// NormalizedLineItem is a LineItem with its computed amount.
type NormalizedLineItem struct {
	LineItem
	Amount Money `json:"amount"` // rounded to cents, never negative
}

func (n NormalizedLineItem) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(n.LineItem)
	w.Append("amount", n.Amount)
	return w.MarshalJSON()
}

// ErrDuplicateItem is returned by ValidateItems when two items share an ID.
var ErrDuplicateItem = errors.New("duplicate line item id")

// ErrMissingItemID is returned by ValidateItems for an item without ID.
var ErrMissingItemID = errors.New("missing line item id")

// ValidateItems checks the identity invariants of an item list: every item
// has an ID and IDs are unique. Numeric fields are never validated.
func ValidateItems(items []LineItem) error {
	seen := make(map[string]int, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return fmt.Errorf("item #%d: %w", i+1, ErrMissingItemID)
		}
		if j, exists := seen[id]; exists {
			return fmt.Errorf("items #%d and #%d: %w %q", j+1, i+1, ErrDuplicateItem, id)
		}
		seen[id] = i
	}
	return nil
}

// Renumber returns a copy of items with dense 1-based sequence numbers in
// list order.
func Renumber(items []LineItem) []LineItem {
	out := slices.Clone(items)
	for i := range out {
		out[i].SequenceNumber = i + 1
	}
	return out
}

// InsertItem returns a renumbered copy of items with item inserted at index
// at. Out of range indexes are clamped.
func InsertItem(items []LineItem, at int, item LineItem) []LineItem {
	at = max(0, min(at, len(items)))
	out := slices.Insert(slices.Clone(items), at, item)
	return Renumber(out)
}

// RemoveItem returns a renumbered copy of items without the item id.
func RemoveItem(items []LineItem, id string) []LineItem {
	out := slices.DeleteFunc(slices.Clone(items), func(l LineItem) bool { return l.ID == id })
	return Renumber(out)
}

// MoveItem returns a renumbered copy of items where the item id is moved to
// index to. Unknown ids leave the order unchanged.
func MoveItem(items []LineItem, id string, to int) []LineItem {
	from := slices.IndexFunc(items, func(l LineItem) bool { return l.ID == id })
	if from < 0 {
		return Renumber(items)
	}
	item := items[from]
	out := slices.Delete(slices.Clone(items), from, from+1)
	to = max(0, min(to, len(out)))
	return Renumber(slices.Insert(out, to, item))
}
