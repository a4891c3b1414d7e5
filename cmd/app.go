// Package cmd implements the inv command line application: it computes,
// paginates and renders quotations and invoices stored as JSON documents.
package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/invoicing"
	"github.com/google/subcommands"
)

// command is a subcommand and the group it is listed in.
type command struct {
	subcommands.Command
	group string
}

func commands() []command {
	return []command{
		{&totalsCmd{}, "documents"},
		{&pagesCmd{}, "documents"},
		{&previewCmd{}, "documents"},
		{&fmtCmd{}, "documents"},
		{&invoiceCmd{}, "documents"},
		{&serveCmd{}, "server"},
		{&topicCmd{}, "help"},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range commands() {
		c.Register(cmd.Command, cmd.group)
	}
}

// IsCommand reports whether name is a builtin subcommand.
func IsCommand(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, cmd := range commands() {
		if cmd.Name() == name {
			return true
		}
	}
	return false
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the YAML configuration file (default $"+EnvConfig+")")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", false, "Enable verbose logging")

// command input and output, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// loadConfig loads the application configuration.
func loadConfig() (*Config, error) {
	path := *configFile
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	return LoadConfig(path)
}

// decodeFile reads a single document from a file, or from stdin if name is "-".
func decodeFile(name string) (invoicing.Document, error) {
	if name == "-" {
		return invoicing.DecodeDocument(stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return invoicing.Document{}, err
	}
	defer f.Close()
	doc, err := invoicing.DecodeDocument(f)
	if err != nil {
		return invoicing.Document{}, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// decodeFiles reads all documents of a JSONL file, or a single document from
// any other file.
func decodeFiles(name string) ([]invoicing.Document, error) {
	if !isJSONL(name) {
		doc, err := decodeFile(name)
		if err != nil {
			return nil, err
		}
		return []invoicing.Document{doc}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return invoicing.DecodeDocuments(name, f)
}

// writeFile writes the content produced by write into a file, or to stdout if
// name is "-". The file is left untouched if write fails.
func writeFile(name string, write func(io.Writer) error) error {
	if name == "-" {
		return write(stdout)
	}
	var b bytes.Buffer
	if err := write(&b); err != nil {
		return err
	}
	return os.WriteFile(name, b.Bytes(), 0644)
}

func isJSONL(name string) bool { return strings.HasSuffix(name, ".jsonl") }

// pageLayout returns the configured layout, overridden by the -capacities and
// -max-pages flags when set.
func pageLayout(cfg *Config, f *flag.FlagSet, capacities string, maxPages int) (invoicing.Layout, error) {
	layout, err := cfg.PageLayout()
	if err != nil {
		return invoicing.Layout{}, err
	}
	caps, limit := layout.Capacities(), layout.MaxPages()
	var errFlag error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "capacities":
			caps, errFlag = invoicing.ParseCapacities(capacities)
		case "max-pages":
			limit = maxPages
		}
	})
	if errFlag != nil {
		return invoicing.Layout{}, errFlag
	}
	return invoicing.NewLayout(limit, caps.Values()...)
}

// layoutFlags declares the flags read by pageLayout.
func layoutFlags(f *flag.FlagSet, capacities *string, maxPages *int) {
	f.StringVar(capacities, "capacities", "", "Comma separated item capacities of the pages, the last one repeats (default from config)")
	f.IntVar(maxPages, "max-pages", 0, "Maximum number of pages, 0 for unbounded (default from config)")
}
