package cmd

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the application: subcommands,
// their flags, and file names for the flags reading or writing documents.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{
			"help":     {},
			"flags":    {},
			"commands": {},
		},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"v":      predict.Nothing,
		},
	}
	for _, cmd := range commands() {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = flagPredictor(f.Name)
		})
		root.Sub[cmd.Name()] = sub
	}
	return root
}

func flagPredictor(name string) complete.Predictor {
	switch name {
	case "f", "o":
		return predict.Or(predict.Files("*.json"), predict.Files("*.jsonl"))
	case "tax":
		return predict.Set{"flat:15", "per-item", "per-item:15"}
	default:
		return predict.Something
	}
}
