package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/etnz/allocation"
	"github.com/shopspring/decimal"
)

// column headers, per dimension.
var headers = map[allocation.Dimension]string{
	allocation.Countries:  "Country",
	allocation.Industries: "Industry",
	allocation.Currencies: "Currency",
	allocation.Classes:    "Class",
}

// AllocationMarkdown renders a portfolio allocation as a markdown document.
//
// Shares are rendered by decreasing order, empty dimensions are omitted.
func AllocationMarkdown(a allocation.PortfolioAllocation, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Allocation\n\n")
	fmt.Fprintln(&b, "| Total Value | Fee |")
	fmt.Fprintln(&b, "|---:|---:|")
	fmt.Fprintf(&b, "| %s | %s |\n", formatMoney(a.Value, currency), allocation.PercentOf(a.Fee))

	for _, dim := range allocation.Dimensions {
		ConditionalBlock(&b, func(w io.Writer) bool {
			shares := a.Shares(dim).Sorted()
			fmt.Fprintf(w, "\n## %s\n\n", strings.ToUpper(dim.String()[:1])+dim.String()[1:])
			fmt.Fprintf(w, "| %s | Share |\n", headers[dim])
			fmt.Fprintln(w, "|:---|---:|")
			for _, s := range shares {
				fmt.Fprintf(w, "| %s | %s |\n", s.Key, allocation.PercentOf(s.Value))
			}
			return len(shares) > 0
		})
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## Unresolved\n\n")
		fmt.Fprintln(w, "No data was found for these instruments, they are not part of the allocation:")
		fmt.Fprintln(w)
		for _, id := range a.Unresolved {
			fmt.Fprintf(w, "- %s\n", id)
		}
		return len(a.Unresolved) > 0
	})
	return b.String()
}

// formatMoney formats a value in the currency conventions, when the currency is known.
func formatMoney(v float64, code string) string {
	if money.GetCurrency(code) == nil {
		return strings.TrimSpace(fmt.Sprintf("%.2f %s", v, code))
	}
	// to get a never nil currency I need to call the Money constructor
	cur := money.New(0, code).Currency()
	dec := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}
