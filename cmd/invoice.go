package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/invoicing"
	"github.com/etnz/invoicing/date"
	"github.com/google/subcommands"
)

type invoiceCmd struct {
	file       string
	outputFile string
	number     string
	date       string
	dueDays    int
}

func (*invoiceCmd) Name() string     { return "invoice" }
func (*invoiceCmd) Synopsis() string { return "converts an accepted quotation into an invoice" }
func (*invoiceCmd) Usage() string {
	return `inv invoice -number <number> [-f <file>] [-o <file>] [-date <date>] [-due-days <days>]

  Creates the invoice of an accepted quotation. Parties, banking details,
  notes and items are copied. The invoice keeps the quotation totals: the tax
  becomes a flat rate only when every item has the same rate.

Usage Examples:
$ inv invoice -f quote.json -number INV-042 -o invoice.json

`
}

func (c *invoiceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Quotation file (JSON), - for stdin")
	f.StringVar(&c.outputFile, "o", "-", "Invoice file, - for stdout")
	f.StringVar(&c.number, "number", "", "Invoice number")
	f.StringVar(&c.date, "date", "", "Invoice date (default today)")
	f.IntVar(&c.dueDays, "due-days", 30, "Days until the invoice is due")
}

func (c *invoiceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.number == "" {
		fmt.Fprintln(os.Stderr, "Error: -number is required")
		return subcommands.ExitUsageError
	}
	on := date.Today()
	if c.date != "" {
		var err error
		if on, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.dueDays < 0 {
		fmt.Fprintf(os.Stderr, "Error: -due-days must not be negative, got %d\n", c.dueDays)
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	quote, err := decodeFile(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load quotation: %v\n", err)
		return subcommands.ExitFailure
	}
	// the configured default applies to a quotation without its own policy.
	if quote.Tax, err = cfg.TaxPolicy(quote); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	inv, err := quote.ToInvoice(c.number, on, c.dueDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := writeFile(c.outputFile, func(w io.Writer) error { return invoicing.EncodeJSON(w, inv) }); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing invoice: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
