// Package invoicing computes the amounts of quotations and invoices and lays
// their line items out on printable pages.
//
// The package has two stateless components:
//   - The line-item calculator: ComputeItemAmount turns a raw LineItem
//     (quantity, rate, markup, discount) into an amount rounded to cents, and
//     ComputeDocumentTotals sums the rounded amounts into a subtotal, applies a
//     TaxPolicy (a flat rate on the subtotal, or a rate per item) and returns
//     the DocumentTotals.
//   - The pagination planner: a Layout (page capacities, and an optional page
//     limit) splits the normalized items into PageDescriptor values telling
//     which page carries the header block and which one the footer block.
//
// Compute chains both for a Document and returns a Preview for the
// presentation layers (see the renderer and server packages).
//
// Numeric input is never rejected: absent, negative or non-numeric values
// count as zero. Only layout configuration errors are reported, when the
// Layout is built.
//
// All amounts are South African Rand and use exact decimal arithmetic.
package invoicing
