package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/invoicing"
	"github.com/google/subcommands"
)

type fmtCmd struct {
	file       string
	outputFile string
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats documents into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `inv fmt [-f <file>] [-o <file>]

  Validates and formats documents. Item ids must be set and unique. Items
  are renumbered from 1 in their current order and the documents are written
  back in a canonical JSON form. A .jsonl file holds one document per line.
  By default, the file is formatted in-place.

Usage Examples:
# Formats a quotation in-place.
$ inv fmt -f quote.json

`
}

func (c *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Document file (JSON or JSONL), - for stdin")
	f.StringVar(&c.outputFile, "o", "", "Output file, - for stdout (default in-place)")
}

func (c *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	docs, err := decodeFiles(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load documents: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(docs) == 0 {
		fmt.Fprintf(os.Stderr, "Warning: no documents found to format.\n")
		return subcommands.ExitSuccess
	}

	for i := range docs {
		if err := invoicing.ValidateItems(docs[i].Items); err != nil {
			fmt.Fprintf(os.Stderr, "Error: document %q: %v\n", docs[i].Number, err)
			return subcommands.ExitFailure
		}
		docs[i].Items = invoicing.Renumber(docs[i].Items)
	}

	output := c.outputFile
	if output == "" {
		output = c.file
	}
	err = writeFile(output, func(w io.Writer) error {
		if isJSONL(output) {
			for _, doc := range docs {
				if err := invoicing.EncodeDocument(w, doc); err != nil {
					return err
				}
			}
			return nil
		}
		if len(docs) > 1 {
			return fmt.Errorf("cannot write %d documents into %q, use a .jsonl file", len(docs), output)
		}
		return invoicing.EncodeJSON(w, docs[0])
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving formatted documents: %v\n", err)
		return subcommands.ExitFailure
	}
	if output != "-" {
		fmt.Fprintf(os.Stderr, "Successfully formatted %d documents into %s\n", len(docs), output)
	}
	return subcommands.ExitSuccess
}
