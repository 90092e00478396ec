package allocation

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < tolerance }

func sharesEqual(t *testing.T, name string, got, want Shares) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s = %v, want %v", name, got, want)
		return
	}
	for k, w := range want {
		if g, ok := got[k]; !ok || !near(g, w) {
			t.Errorf("%s[%q] = %v, want %v", name, k, got[k], w)
		}
	}
}

func single(id string, country string, fee float64) InstrumentData {
	return InstrumentData{
		Instrument: id,
		Countries:  Shares{country: 1},
		Industries: Shares{"Technology": 1},
		Currencies: Shares{"USD": 1},
		Classes:    Shares{"Equity": 1},
		Fee:        fee,
	}
}

func TestAggregate_Empty(t *testing.T) {
	tests := []struct {
		name      string
		positions map[string]float64
	}{
		{"no positions", map[string]float64{}},
		{"unresolved position", map[string]float64{"A": 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Aggregate(tt.positions, map[string]InstrumentData{})
			for _, dim := range Dimensions {
				if s := a.Shares(dim); s == nil || len(s) != 0 {
					t.Errorf("Aggregate() %s = %v, want empty", dim, s)
				}
			}
			if a.Fee != 0 {
				t.Errorf("Aggregate() fee = %v, want 0", a.Fee)
			}
			if a.Value != 0 {
				t.Errorf("Aggregate() value = %v, want 0", a.Value)
			}
		})
	}
}

func TestAggregate_ExcludesUnresolved(t *testing.T) {
	a := Aggregate(
		map[string]float64{"A": 60, "B": 40},
		map[string]InstrumentData{"A": single("A", "US", 0.01)},
	)
	sharesEqual(t, "countries", a.Countries, Shares{"US": 1})
	if !near(a.Fee, 0.01) {
		t.Errorf("Aggregate() fee = %v, want 0.01", a.Fee)
	}
	if !near(a.Value, 60) {
		t.Errorf("Aggregate() value = %v, want 60", a.Value)
	}
	if len(a.Unresolved) != 1 || a.Unresolved[0] != "B" {
		t.Errorf("Aggregate() unresolved = %v, want [B]", a.Unresolved)
	}
}

func TestAggregate_WeightedFee(t *testing.T) {
	a := Aggregate(
		map[string]float64{"A": 50, "B": 50},
		map[string]InstrumentData{
			"A": single("A", "US", 0.02),
			"B": single("B", "US", 0.04),
		},
	)
	if !near(a.Fee, 0.03) {
		t.Errorf("Aggregate() fee = %v, want 0.03", a.Fee)
	}
}

func TestAggregate_WeightedBlend(t *testing.T) {
	a := Aggregate(
		map[string]float64{"A": 75, "B": 25},
		map[string]InstrumentData{
			"A": single("A", "US", 0),
			"B": single("B", "DE", 0),
		},
	)
	sharesEqual(t, "countries", a.Countries, Shares{"US": 0.75, "DE": 0.25})
	sharesEqual(t, "currencies", a.Currencies, Shares{"USD": 1})
}

func TestAggregate_Totals(t *testing.T) {
	instruments := map[string]InstrumentData{
		"FXUS": {
			Instrument: "FXUS",
			Countries:  Shares{"United States": 1},
			Industries: Shares{"Technology": 0.27, "Health Care": 0.13, "Financials": 0.6},
			Currencies: Shares{"USD": 1},
			Classes:    Shares{"Equity": 1},
			Fee:        0.009,
		},
		"TBRU": {
			Instrument: "TBRU",
			Countries:  Shares{"Russia": 0.93, "Kazakhstan": 0.07},
			Industries: Shares{"Government": 0.7, "Energy": 0.2, "Other": 0.1},
			Currencies: Shares{"RUB": 1},
			Classes:    Shares{"Bonds": 0.98, "Cash": 0.02},
			Fee:        0.0049,
		},
		"FXGD": {
			Instrument: "FXGD",
			Countries:  Shares{},
			Currencies: Shares{"USD": 1},
			Classes:    Shares{"Gold": 1},
			Fee:        0.0045,
		},
	}
	positions := map[string]float64{"FXUS": 12345.67, "TBRU": 0.1, "FXGD": 98765.4321}

	a := Aggregate(positions, instruments)
	for _, dim := range []Dimension{Currencies, Classes} {
		if sum := a.Shares(dim).Sum(); math.Abs(sum-1) > 1e-6 {
			t.Errorf("Aggregate() %s sum = %v, want 1", dim, sum)
		}
	}
	// FXGD has no country breakdown, the countries only cover the other two.
	want := (12345.67 + 0.1) / (12345.67 + 0.1 + 98765.4321)
	if sum := a.Countries.Sum(); math.Abs(sum-want) > 1e-6 {
		t.Errorf("Aggregate() countries sum = %v, want %v", sum, want)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	instruments := map[string]InstrumentData{}
	positions := map[string]float64{}
	for i, id := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		instruments[id] = InstrumentData{
			Instrument: id,
			Countries:  Shares{"US": 0.1 * float64(i+1) / 7, "DE": 1 - 0.1*float64(i+1)/7},
			Fee:        0.001 * float64(i+1),
		}
		positions[id] = 0.1 + float64(i)*1000.3
	}
	first := Aggregate(positions, instruments)
	for range 20 {
		again := Aggregate(positions, instruments)
		if again.Fee != first.Fee {
			t.Fatalf("Aggregate() fee = %v then %v", first.Fee, again.Fee)
		}
		for k, v := range first.Countries {
			if again.Countries[k] != v {
				t.Fatalf("Aggregate() countries[%q] = %v then %v", k, v, again.Countries[k])
			}
		}
	}
}

func TestAggregate_NonFinitePosition(t *testing.T) {
	a := Aggregate(
		map[string]float64{"A": math.NaN(), "B": 10},
		map[string]InstrumentData{"A": single("A", "US", 0.5), "B": single("B", "DE", 0.1)},
	)
	sharesEqual(t, "countries", a.Countries, Shares{"DE": 1})
	if len(a.Unresolved) != 1 || a.Unresolved[0] != "A" {
		t.Errorf("Aggregate() unresolved = %v, want [A]", a.Unresolved)
	}
}
