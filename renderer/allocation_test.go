package renderer

import (
	"bytes"
	"io"
	"testing"

	"github.com/etnz/allocation"
)

func TestAllocationMarkdown(t *testing.T) {
	a := allocation.PortfolioAllocation{
		Countries:  allocation.Shares{"Germany": 0.25, "United States": 0.75},
		Industries: allocation.Shares{},
		Currencies: allocation.Shares{"USD": 1},
		Classes:    allocation.Shares{"Stocks": 0.5, "Bonds": 0.5},
		Fee:        0.0045,
		Value:      1068.45,
		Unresolved: []string{"TBIO"},
	}
	want := `# Portfolio Allocation

| Total Value | Fee |
|---:|---:|
| $1,068.45 | 0.45% |

## Countries

| Country | Share |
|:---|---:|
| United States | 75.00% |
| Germany | 25.00% |

## Currencies

| Currency | Share |
|:---|---:|
| USD | 100.00% |

## Classes

| Class | Share |
|:---|---:|
| Bonds | 50.00% |
| Stocks | 50.00% |

## Unresolved

No data was found for these instruments, they are not part of the allocation:

- TBIO
`
	if got := AllocationMarkdown(a, "USD"); got != want {
		t.Errorf("AllocationMarkdown() =\n%s\nwant\n%s", got, want)
	}
}

func TestAllocationMarkdown_Empty(t *testing.T) {
	want := "# Portfolio Allocation\n\n| Total Value | Fee |\n|---:|---:|\n| 0.00 | 0.00% |\n"
	if got := AllocationMarkdown(allocation.PortfolioAllocation{}, ""); got != want {
		t.Errorf("AllocationMarkdown() = %q, want %q", got, want)
	}
}

func Test_formatMoney(t *testing.T) {
	tests := []struct {
		v    float64
		code string
		want string
	}{
		{1068.45, "USD", "$1,068.45"},
		{0.005, "USD", "$0.01"},
		{12.5, "XXXX", "12.50 XXXX"},
	}
	for _, tc := range tests {
		if got := formatMoney(tc.v, tc.code); got != tc.want {
			t.Errorf("formatMoney(%v, %q) = %q, want %q", tc.v, tc.code, got, tc.want)
		}
	}
}

func TestConditionalBlock(t *testing.T) {
	var buf bytes.Buffer
	ConditionalBlock(&buf, func(w io.Writer) bool { io.WriteString(w, "dropped"); return false })
	ConditionalBlock(&buf, func(w io.Writer) bool { io.WriteString(w, "kept"); return true })
	if got := buf.String(); got != "kept" {
		t.Errorf("ConditionalBlock() wrote %q, want %q", got, "kept")
	}
}
