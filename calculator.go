package invoicing

// DocumentTotals are the amounts printed at the bottom of a document, all
// rounded to cents.
type DocumentTotals struct {
	Subtotal   Money `json:"subtotal"`
	TaxAmount  Money `json:"taxAmount"`
	GrandTotal Money `json:"grandTotal"`
}

// ComputeItemAmount returns the amount of a line:
//
//	grossUnitPrice = rate + rate*markupPercent/100
//	grossAmount    = grossUnitPrice * quantity
//	amount         = max(0, round2(grossAmount - discount))
//
// Absent, negative or non-numeric fields count as 0. A discount larger than
// the gross amount gives a zero amount, never a negative one.
func ComputeItemAmount(item LineItem) Money {
	rate := item.Rate.Value()
	markup := item.MarkupPercent.Value()

	grossUnitPrice := rate.Add(rate.Mul(markup).Mul(onePercent))
	grossAmount := R(grossUnitPrice.Mul(item.Quantity.Value()))
	return grossAmount.Sub(R(item.Discount.Value())).Round2().floor()
}

// NormalizeItems computes the amount of every item. items is left untouched.
func NormalizeItems(items []LineItem) []NormalizedLineItem {
	out := make([]NormalizedLineItem, len(items))
	for i, item := range items {
		out[i] = NormalizedLineItem{LineItem: item, Amount: ComputeItemAmount(item)}
	}
	return out
}

// ComputeDocumentTotals sums normalized items and applies the tax policy.
//
// The subtotal is the sum of the already rounded line amounts. Under a flat
// policy the tax is the policy rate of the subtotal; under a per-item policy
// it is the sum of each line amount taxed at its own rate, rounded once.
// An empty list gives zero totals.
func ComputeDocumentTotals(items []NormalizedLineItem, policy TaxPolicy) DocumentTotals {
	subtotal := R(0)
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}
	subtotal = subtotal.Round2()

	var tax Money
	switch policy.Mode() {
	case PerItemMode:
		tax = R(0)
		for _, item := range items {
			tax = tax.Add(policy.ItemRate(item.LineItem).Of(item.Amount))
		}
	default:
		tax = policy.Rate().Of(subtotal)
	}
	tax = tax.Round2()

	return DocumentTotals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax).Round2(),
	}
}

// Totals normalizes items and computes their totals.
func Totals(items []LineItem, policy TaxPolicy) ([]NormalizedLineItem, DocumentTotals) {
	normalized := NormalizeItems(items)
	return normalized, ComputeDocumentTotals(normalized, policy)
}
