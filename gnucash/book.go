// Package gnucash reads GnuCash books to value the securities held in them.
//
// Books can be stored as XML (compressed or not) or as SQLite databases, both
// are loaded into the same in-memory Book.
package gnucash

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/etnz/allocation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrUnavailable reports a book or a report that cannot be used.
var ErrUnavailable = errors.New("gnucash data unavailable")

// account types holding securities.
var securityTypes = map[string]bool{"STOCK": true, "MUTUAL": true}

const currencyNamespace = "CURRENCY"

// commodity is a currency or a security.
type commodity struct {
	Namespace string
	Mnemonic  string
}

func (c commodity) isCurrency() bool { return c.Namespace == currencyNamespace || c.Namespace == "ISO4217" }

type account struct {
	GUID      string
	Name      string
	Type      string
	Parent    string
	Commodity commodity
	Quantity  decimal.Decimal
}

type price struct {
	Commodity commodity
	Currency  commodity
	Date      time.Time
	Value     decimal.Decimal
}

// Book is the subset of a GnuCash book needed to value securities.
type Book struct {
	accounts map[string]*account
	children map[string][]string
	prices   []price
	logger   zerolog.Logger
}

func newBook(logger zerolog.Logger) *Book {
	return &Book{
		accounts: make(map[string]*account),
		children: make(map[string][]string),
		logger:   logger,
	}
}

func (b *Book) addAccount(a *account) { b.accounts[a.GUID] = a }

// addSplit adds a split quantity to an account.
func (b *Book) addSplit(accountGUID string, quantity decimal.Decimal) {
	if a, ok := b.accounts[accountGUID]; ok {
		a.Quantity = a.Quantity.Add(quantity)
	}
}

// index builds the account tree, once all accounts are known.
func (b *Book) index() {
	for _, guid := range slices.Sorted(maps.Keys(b.accounts)) {
		a := b.accounts[guid]
		if a.Parent != "" {
			b.children[a.Parent] = append(b.children[a.Parent], guid)
		}
	}
}

var (
	sqliteMagic = []byte("SQLite format 3\x00")
	gzipMagic   = []byte{0x1f, 0x8b}
)

// Open loads the book stored in path.
func Open(path string, logger zerolog.Logger) (*Book, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no gnucash file %q: %w", path, ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open gnucash file %q: %v: %w", path, err, ErrUnavailable)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	head, _ := r.Peek(len(sqliteMagic))
	var b *Book
	switch {
	case bytes.Equal(head, sqliteMagic):
		b, err = readSQLite(path, logger)
	case bytes.HasPrefix(head, gzipMagic):
		b, err = readCompressedXML(r, logger)
	default:
		b, err = readXML(r, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read gnucash file %q: %v: %w", path, err, ErrUnavailable)
	}
	b.index()
	return b, nil
}

// fullName returns the colon separated name of an account, without the root.
func (b *Book) fullName(a *account) string {
	var names []string
	for a != nil && a.Type != "ROOT" {
		names = append(names, a.Name)
		a = b.accounts[a.Parent]
	}
	slices.Reverse(names)
	return strings.Join(names, ":")
}

// findReport returns the account selected by a report name: either its full
// name or its short name. Full name matches have priority.
func (b *Book) findReport(report string) (*account, error) {
	var byName []*account
	for _, guid := range slices.Sorted(maps.Keys(b.accounts)) {
		a := b.accounts[guid]
		if b.fullName(a) == report {
			return a, nil
		}
		if a.Name == report {
			byName = append(byName, a)
		}
	}
	switch len(byName) {
	case 0:
		return nil, fmt.Errorf("no report %q in the book: %w", report, ErrUnavailable)
	case 1:
		return byName[0], nil
	}
	names := make([]string, len(byName))
	for i, a := range byName {
		names[i] = b.fullName(a)
	}
	slices.Sort(names)
	return nil, fmt.Errorf("ambiguous report %q, use one of %s: %w", report, strings.Join(names, ", "), ErrUnavailable)
}

// currency returns the reporting currency of an account: its own commodity, or
// the closest ancestor's.
func (b *Book) currency(a *account) (commodity, bool) {
	for ; a != nil; a = b.accounts[a.Parent] {
		if a.Commodity.isCurrency() && a.Commodity.Mnemonic != "" {
			return a.Commodity, true
		}
	}
	return commodity{}, false
}

// latestPrice returns the most recent price of c in currency cur.
func (b *Book) latestPrice(c, cur commodity) (decimal.Decimal, bool) {
	var best *price
	for i := range b.prices {
		p := &b.prices[i]
		if p.Commodity != c || p.Currency != cur {
			continue
		}
		if best == nil || p.Date.After(best.Date) {
			best = p
		}
	}
	if best == nil {
		return decimal.Zero, false
	}
	return best.Value, true
}

// ValueByInstrument values the securities held under the report account.
//
// The report name selects an account of the book, by full name
// ("Assets:Securities") or short name ("Securities"). Every STOCK or MUTUAL
// account below it is valued at the latest known price in the reporting
// currency, and values are added per security mnemonic.
func (b *Book) ValueByInstrument(report string) (allocation.Positions, error) {
	top, err := b.findReport(report)
	if err != nil {
		return allocation.Positions{}, err
	}
	cur, ok := b.currency(top)
	if !ok {
		return allocation.Positions{}, fmt.Errorf("report %q has no currency: %w", report, ErrUnavailable)
	}
	if money.GetCurrency(cur.Mnemonic) == nil {
		b.logger.Warn().Str("currency", cur.Mnemonic).Msg("unknown reporting currency")
	}

	values := make(map[string]decimal.Decimal)
	var walk func(guid string)
	walk = func(guid string) {
		a := b.accounts[guid]
		if securityTypes[a.Type] && !a.Commodity.isCurrency() && !a.Quantity.IsZero() {
			p, ok := b.latestPrice(a.Commodity, cur)
			if ok {
				values[a.Commodity.Mnemonic] = values[a.Commodity.Mnemonic].Add(a.Quantity.Mul(p))
			} else {
				b.logger.Warn().
					Str("instrument", a.Commodity.Mnemonic).
					Str("currency", cur.Mnemonic).
					Msg("no price, instrument ignored")
			}
		}
		for _, c := range b.children[guid] {
			walk(c)
		}
	}
	walk(top.GUID)

	pos := allocation.Positions{
		Values:   make(map[string]float64, len(values)),
		Currency: cur.Mnemonic,
	}
	for k, v := range values {
		pos.Values[k] = v.InexactFloat64()
	}
	return pos, nil
}

// GetValueByInstrument opens datafile and values the securities of report.
func GetValueByInstrument(report, datafile string, logger zerolog.Logger) (allocation.Positions, error) {
	b, err := Open(datafile, logger)
	if err != nil {
		return allocation.Positions{}, err
	}
	return b.ValueByInstrument(report)
}

// parseRational parses GnuCash "num/denom" numbers.
func parseRational(s string) (decimal.Decimal, error) {
	num, denom, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := decimal.NewFromString(denom)
	if err != nil || d.IsZero() {
		return decimal.Zero, fmt.Errorf("invalid denominator in %q", s)
	}
	return n.Div(d), nil
}

// parseTime parses GnuCash timestamps, as found in XML and SQLite books.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05 -0700", "2006-01-02 15:04:05", "20060102150405"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
