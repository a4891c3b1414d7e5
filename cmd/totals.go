package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/invoicing"
	"github.com/etnz/invoicing/renderer"
	"github.com/google/subcommands"
)

type totalsCmd struct {
	file     string
	tax      string
	query    string
	markdown bool
}

// totalsOutput is the json result of the totals command.
type totalsOutput struct {
	Items  []invoicing.NormalizedLineItem `json:"items"`
	Tax    invoicing.TaxPolicy            `json:"tax"`
	Totals invoicing.DocumentTotals       `json:"totals"`
}

func (*totalsCmd) Name() string { return "totals" }
func (*totalsCmd) Synopsis() string {
	return "computes the item amounts and the totals of a document"
}
func (*totalsCmd) Usage() string {
	return `inv totals [-f <file>] [-tax <policy>] [-q <jsonpath>] [-md]

  Computes the amount of every line item, the subtotal, the tax and the grand
  total of a document. Amounts are rounded to cents per line before summation.

  The tax policy is the one of the document, else the configured one. It can
  be forced with -tax: "flat:15", "per-item" or "per-item:15".

Usage Examples:
# Prints the grand total only.
$ inv totals -f quote.json -q '$.totals.grandTotal'

`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Document file (JSON), - for stdin")
	f.StringVar(&c.tax, "tax", "", "Tax policy: flat:<rate>, per-item or per-item:<default rate>")
	f.StringVar(&c.query, "q", "", "JSONPath expression selecting a value of the result")
	f.BoolVar(&c.markdown, "md", false, "Print a markdown summary instead of json")
}

func (c *totalsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	doc, err := decodeFile(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load document: %v\n", err)
		return subcommands.ExitFailure
	}

	var policy invoicing.TaxPolicy
	if c.tax != "" {
		policy, err = invoicing.ParseTaxPolicy(c.tax)
	} else {
		policy, err = cfg.TaxPolicy(doc)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	items, totals := invoicing.Totals(doc.Items, policy)
	if c.markdown {
		printMarkdown(renderer.RenderTotals(items, totals, policy))
		return subcommands.ExitSuccess
	}

	out := totalsOutput{Items: items, Tax: policy, Totals: totals}
	if c.query == "" {
		if err := invoicing.EncodeJSON(stdout, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	return printQuery(out, c.query)
}

// printQuery prints the value selected by a JSONPath expression in the json
// form of v. Strings are printed raw, other values as json.
func printQuery(v any, path string) subcommands.ExitStatus {
	val, err := selectJSON(v, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if s, ok := val.(string); ok {
		fmt.Fprintln(stdout, s)
		return subcommands.ExitSuccess
	}
	data, err := json.Marshal(val)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(stdout, string(data))
	return subcommands.ExitSuccess
}

// selectJSON evaluates a JSONPath expression against the json form of v.
func selectJSON(v any, path string) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return nil, err
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// jsonpath returns a list for wildcard and slice expressions, a single
	// answer is printed as a value.
	if jlist, ok := jval.([]any); ok && len(jlist) == 1 {
		jval = jlist[0]
	}
	return jval, nil
}
