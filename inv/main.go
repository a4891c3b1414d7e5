// Command inv computes, paginates and renders quotations and invoices.
//
// Unknown subcommands are delegated to an inv-<subcommand> binary found in PATH.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/invoicing/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Completion().Complete("inv")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()

	if name := flag.Arg(0); name != "" && !cmd.IsCommand(name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
