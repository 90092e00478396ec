// Command pal computes the allocation of a portfolio by country, industry,
// currency and asset class.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/allocation/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion.
var completion = &complete.Command{
	Sub: map[string]*complete.Command{
		"data": {
			Flags: map[string]complete.Predictor{
				"format": predict.Set{"json", "yaml"},
			},
		},
		"gnucash-allocation": {
			Flags: map[string]complete.Predictor{
				"r":    predict.Something,
				"f":    predict.Files("*.gnucash"),
				"raw":  predict.Nothing,
				"html": predict.Nothing,
			},
		},
		"help":     {},
		"commands": {},
		"flags":    {},
	},
	Flags: map[string]complete.Predictor{
		"config": predict.Files("*.toml"),
		"v":      predict.Nothing,
	},
}

func main() {
	// exits when invoked by the shell for completion.
	completion.Complete("pal")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
