package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/etnz/allocation"
	"github.com/etnz/allocation/gnucash"
	"github.com/etnz/allocation/renderer"
	"github.com/google/subcommands"
)

type gnucashAllocationCmd struct {
	report   string
	datafile string
	raw      bool
	html     bool
}

func (*gnucashAllocationCmd) Name() string { return "gnucash-allocation" }
func (*gnucashAllocationCmd) Synopsis() string {
	return "generate the allocation report of the securities held in a GnuCash book"
}
func (*gnucashAllocationCmd) Usage() string {
	return `pal gnucash-allocation [-r <report>] [-f <datafile>] [-raw | -html]

  Values the securities held under the report account of a GnuCash book, fetches
  the allocation data of each of them, and prints the consolidated allocation of
  the portfolio by country, industry, currency and asset class.

  The report is an account name, like "Securities", or a full account name, like
  "Assets:Broker:Securities". The datafile defaults to the last file opened by
  GnuCash, when it is known.

Usage Examples:
$ pal gnucash-allocation -f money.gnucash
$ pal gnucash-allocation -r Assets:Broker -html > allocation.html
`
}

func (c *gnucashAllocationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.report, "r", "", "Name of the account holding the securities. Default: Securities")
	f.StringVar(&c.datafile, "f", "", "GnuCash datafile (.gnucash). Default: the last file opened by GnuCash")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown")
	f.BoolVar(&c.html, "html", false, "Print an HTML page")
}

func (c *gnucashAllocationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	report := c.report
	if report == "" {
		report = a.config.GnuCash.Report
	}
	datafile := c.datafile
	if datafile == "" {
		datafile = a.config.GnuCash.File
	}
	if datafile == "" {
		var ok bool
		if datafile, ok = gnucash.DefaultFile(); !ok {
			fmt.Fprintf(os.Stderr, "Error: no GnuCash datafile, use -f\n")
			return subcommands.ExitUsageError
		}
	}

	positions, err := gnucash.GetValueByInstrument(report, datafile, a.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md := allocationReport(ctx, a.registry, positions, os.Stderr)
	switch {
	case c.html:
		if err := writeHTML(os.Stdout, "Portfolio Allocation", md); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	case c.raw:
		fmt.Print(md)
	default:
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}

// allocationReport collects the data of the positions instruments and renders
// their consolidated allocation. Instruments without data are reported to errw.
func allocationReport(ctx context.Context, reg *allocation.Registry, positions allocation.Positions, errw io.Writer) string {
	ids := slices.Sorted(maps.Keys(positions.Values))
	collection := reg.Collect(ctx, ids)
	reportFailures(errw, collection)
	a := allocation.Aggregate(positions.Values, collection.Instruments())
	return renderer.AllocationMarkdown(a, positions.Currency)
}
