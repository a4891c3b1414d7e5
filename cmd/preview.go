package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/invoicing"
	"github.com/etnz/invoicing/renderer"
	"github.com/google/subcommands"
)

type previewCmd struct {
	file       string
	raw        bool
	json       bool
	capacities string
	maxPages   int
}

func (*previewCmd) Name() string     { return "preview" }
func (*previewCmd) Synopsis() string { return "renders a document page by page" }
func (*previewCmd) Usage() string {
	return `inv preview [-f <file>] [-raw | -json] [-capacities <n,n,...>] [-max-pages <n>]

  Renders a quotation or an invoice as markdown, one section per page. The
  header is printed on the first page, the totals on the last one.

  -raw prints the markdown source, -json prints the computed preview.

`
}

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Document file (JSON), - for stdin")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown")
	f.BoolVar(&c.json, "json", false, "Print the computed preview as json")
	layoutFlags(f, &c.capacities, &c.maxPages)
}

func (c *previewCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if doc.Tax, err = cfg.TaxPolicy(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	p := invoicing.Compute(doc, layout)
	warnOverflow(doc.Number, layout, p.Overflow)

	switch {
	case c.json:
		if err := invoicing.EncodePreview(stdout, p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	case c.raw:
		fmt.Fprint(stdout, renderer.RenderPreview(&p))
	default:
		printMarkdown(renderer.RenderPreview(&p))
	}
	return subcommands.ExitSuccess
}
