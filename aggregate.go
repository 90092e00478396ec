package allocation

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of decimal places kept when normalizing sums.
const divisionPrecision = 16

// PortfolioAllocation is the consolidated exposure of a portfolio.
//
// Each dimension sums to 1 when Value is positive, and is empty otherwise.
type PortfolioAllocation struct {
	Countries  Shares
	Industries Shares
	Currencies Shares
	Classes    Shares
	// Fee is the value weighted average of the instruments fees.
	Fee float64
	// Value is the total value of the resolved instruments.
	Value float64
	// Unresolved lists the instruments held but absent from the instruments data.
	Unresolved []string
}

// Shares returns the breakdown of a along dimension dim.
func (a PortfolioAllocation) Shares(dim Dimension) Shares {
	switch dim {
	case Countries:
		return a.Countries
	case Industries:
		return a.Industries
	case Currencies:
		return a.Currencies
	case Classes:
		return a.Classes
	}
	return nil
}

// Aggregate weights every instrument data by the value held in positions.
//
// Only instruments present in both maps contribute: the value of an instrument
// without data is excluded from the total, so that the remaining instruments
// still sum to 1. Those instruments are listed in Unresolved.
//
// Sums are exact (decimal), and computed in instrument order, so that the
// result does not depend on map iteration order.
func Aggregate(positions map[string]float64, instruments map[string]InstrumentData) PortfolioAllocation {
	a := PortfolioAllocation{
		Countries:  make(Shares),
		Industries: make(Shares),
		Currencies: make(Shares),
		Classes:    make(Shares),
	}

	var resolved []string
	for _, id := range slices.Sorted(maps.Keys(positions)) {
		if _, ok := instruments[id]; ok && finite(positions[id]) {
			resolved = append(resolved, id)
		} else {
			a.Unresolved = append(a.Unresolved, id)
		}
	}

	total := decimal.Zero
	for _, id := range resolved {
		total = total.Add(decimal.NewFromFloat(positions[id]))
	}
	a.Value = total.InexactFloat64()
	if total.IsZero() {
		return a
	}

	sums := make(map[Dimension]map[string]decimal.Decimal, len(Dimensions))
	for _, dim := range Dimensions {
		sums[dim] = make(map[string]decimal.Decimal)
	}
	fee := decimal.Zero
	for _, id := range resolved {
		value := decimal.NewFromFloat(positions[id])
		data := instruments[id]
		for _, dim := range Dimensions {
			acc := sums[dim]
			for key, share := range data.Shares(dim) {
				if !finite(share) {
					continue
				}
				acc[key] = acc[key].Add(value.Mul(decimal.NewFromFloat(share)))
			}
		}
		if finite(data.Fee) {
			fee = fee.Add(value.Mul(decimal.NewFromFloat(data.Fee)))
		}
	}

	for _, dim := range Dimensions {
		out := a.Shares(dim)
		for key, sum := range sums[dim] {
			out[key] = sum.DivRound(total, divisionPrecision).InexactFloat64()
		}
	}
	a.Fee = fee.DivRound(total, divisionPrecision).InexactFloat64()
	return a
}
