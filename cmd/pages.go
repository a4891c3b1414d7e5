package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/invoicing"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type pagesCmd struct {
	file       string
	capacities string
	maxPages   int
	query      string
}

// pagesOutput is the json result of the pages command.
type pagesOutput struct {
	Layout   invoicing.Layout           `json:"layout"`
	Pages    []invoicing.PageDescriptor `json:"pages"`
	Overflow int                        `json:"overflow"`
}

func (*pagesCmd) Name() string     { return "pages" }
func (*pagesCmd) Synopsis() string { return "splits the line items of a document into pages" }
func (*pagesCmd) Usage() string {
	return `inv pages [-f <file>] [-capacities <n,n,...>] [-max-pages <n>] [-q <jsonpath>]

  Plans the pages of a document. Page i holds up to capacities[i] items, the
  last capacity applies to all the following pages. When the page limit is
  reached, the remaining items are printed on the last page.

Usage Examples:
# 10 items on the first page, 25 on the next ones, no page limit.
$ inv pages -f quote.json -capacities 10,25 -max-pages 0

`
}

func (c *pagesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Document file (JSON), - for stdin")
	layoutFlags(f, &c.capacities, &c.maxPages)
	f.StringVar(&c.query, "q", "", "JSONPath expression selecting a value of the result")
}

func (c *pagesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	layout, err := pageLayout(cfg, f, c.capacities, c.maxPages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	doc, err := decodeFile(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load document: %v\n", err)
		return subcommands.ExitFailure
	}

	items := invoicing.NormalizeItems(doc.Items)
	out := pagesOutput{
		Layout:   layout,
		Pages:    layout.Plan(items),
		Overflow: layout.Overflow(len(items)),
	}
	warnOverflow(doc.Number, layout, out.Overflow)

	if c.query != "" {
		return printQuery(out, c.query)
	}

	if err := invoicing.EncodeJSON(stdout, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// warnOverflow logs when the last page holds more items than its capacity.
func warnOverflow(number string, layout invoicing.Layout, overflow int) {
	if overflow == 0 {
		return
	}
	logger := mustLogger()
	defer func() { _ = logger.Sync() }()
	logger.Warn("page limit reached, the last page exceeds its capacity",
		zap.String("document", number),
		zap.Stringer("layout", layout),
		zap.Int("overflow", overflow),
	)
}
