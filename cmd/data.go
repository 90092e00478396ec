package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/allocation"
	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

type dataCmd struct {
	format string
}

func (*dataCmd) Name() string     { return "data" }
func (*dataCmd) Synopsis() string { return "show currency, fee and allocation data of instruments" }
func (*dataCmd) Usage() string {
	return `pal data [-format json|yaml] <ticker>...

  Fetches the allocation data of each ticker from the first source that knows
  it, and prints them by ticker. Tickers without data are reported on stderr.

Usage Examples:
$ pal data FXUS TSPX
$ pal data -format yaml FXDE
`
}

func (c *dataCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "json", "Output format: json or yaml")
}

func (c *dataCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one ticker is required\n")
		return subcommands.ExitUsageError
	}
	if c.format != "json" && c.format != "yaml" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	collection := a.registry.Collect(ctx, f.Args())
	reportFailures(os.Stderr, collection)

	if err := writeData(os.Stdout, c.format, collection.Instruments()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeData encodes instruments data in format.
func writeData(w io.Writer, format string, data map[string]allocation.InstrumentData) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(data)
	}
}
