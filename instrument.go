package allocation

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Dimension is one of the axes an instrument exposure is broken down by.
type Dimension int

const (
	Countries Dimension = iota
	Industries
	Currencies
	Classes
)

// Dimensions lists all the dimensions, in reporting order.
var Dimensions = []Dimension{Countries, Industries, Currencies, Classes}

func (d Dimension) String() string {
	switch d {
	case Countries:
		return "countries"
	case Industries:
		return "industries"
	case Currencies:
		return "currencies"
	case Classes:
		return "classes"
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// Shares maps a category (a country name, a sector, a currency code, an asset
// class) to its share in [0,1].
type Shares map[string]float64

// Share is a single entry of Shares.
type Share struct {
	Key   string
	Value float64
}

// Sum returns the total of all shares.
func (s Shares) Sum() float64 {
	var sum float64
	for _, k := range slices.Sorted(maps.Keys(s)) {
		sum += s[k]
	}
	return sum
}

// Sorted returns the entries by descending share, ties broken by key.
func (s Shares) Sorted() []Share {
	res := make([]Share, 0, len(s))
	for k, v := range s {
		res = append(res, Share{Key: k, Value: v})
	}
	slices.SortFunc(res, func(a, b Share) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
	return res
}

// InstrumentData describes the composition of a single instrument.
//
// It is built by a data source and must not be modified afterwards: records
// are shared between the cache, the registry and the aggregation.
type InstrumentData struct {
	Instrument string  `json:"instrument" yaml:"instrument" msgpack:"instrument"`
	Countries  Shares  `json:"countries" yaml:"countries" msgpack:"countries"`
	Industries Shares  `json:"industries" yaml:"industries" msgpack:"industries"`
	Currencies Shares  `json:"currencies" yaml:"currencies" msgpack:"currencies"`
	Classes    Shares  `json:"classes" yaml:"classes" msgpack:"classes"`
	Fee        float64 `json:"fee" yaml:"fee" msgpack:"fee"`
}

// Shares returns the breakdown of d along dimension dim.
func (d InstrumentData) Shares(dim Dimension) Shares {
	switch dim {
	case Countries:
		return d.Countries
	case Industries:
		return d.Industries
	case Currencies:
		return d.Currencies
	case Classes:
		return d.Classes
	}
	return nil
}

// Validate checks that shares and fee are finite and non negative.
func (d InstrumentData) Validate() error {
	if d.Instrument == "" {
		return errors.New("missing instrument identifier")
	}
	if !finite(d.Fee) || d.Fee < 0 {
		return fmt.Errorf("%s: invalid fee %v", d.Instrument, d.Fee)
	}
	var errs error
	for _, dim := range Dimensions {
		for k, v := range d.Shares(dim) {
			if !finite(v) || v < 0 {
				errs = errors.Join(errs, fmt.Errorf("%s: invalid %s share %q: %v", d.Instrument, dim, k, v))
			}
		}
	}
	return errs
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Positions is the value held in each instrument, in a single reporting currency.
type Positions struct {
	Values   map[string]float64
	Currency string
}
