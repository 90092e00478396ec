// Package tinkoff provides instrument data for Tinkoff funds, from the fund
// pages of tinkoff.ru.
//
// Tinkoff tickers start with "T" (TSPX, TBRU, ...). Fund pages embed the
// react-query state as a JSON string literal assigned in an inline script; the
// breakdowns are the "pies" charts of the fund detail, in percent.
package tinkoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/allocation"
	"github.com/etnz/allocation/cache"
	"github.com/etnz/allocation/country"
	"github.com/etnz/allocation/scrape"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// Name of the source.
	Name = "tinkoff"
	// DefaultBaseURL of the Tinkoff website.
	DefaultBaseURL = "https://www.tinkoff.ru"
	// DefaultTTL of cached instrument data.
	DefaultTTL = 30 * 24 * time.Hour

	prefix     = "T"
	stateVar   = "window['__REACT_QUERY_STATE__invest']"
	detailPath = "$.queries[0].state.data.detail"
	// sharePlaces is the number of decimal places kept on shares.
	sharePlaces = 8
)

// Source fetches Tinkoff fund pages.
type Source struct {
	baseURL     string
	client      *scrape.Client
	cache       *cache.Cache
	ttl         time.Duration
	normalizer  *country.Normalizer
	logger      zerolog.Logger
	concurrency int
}

var _ allocation.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the Tinkoff website address.
func WithBaseURL(base string) Option {
	return func(s *Source) { s.baseURL = strings.TrimSuffix(base, "/") }
}

// WithCache memoizes instrument data in c for ttl.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *Source) {
		s.cache = c
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithConcurrency sets the maximum number of pages fetched in parallel.
func WithConcurrency(n int) Option {
	return func(s *Source) { s.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// New returns a Tinkoff source.
func New(client *scrape.Client, normalizer *country.Normalizer, opts ...Option) *Source {
	s := &Source{
		baseURL:     DefaultBaseURL,
		client:      client,
		ttl:         DefaultTTL,
		normalizer:  normalizer,
		logger:      zerolog.Nop(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return Name }

// Recognizes Tinkoff tickers. FinEx tickers ("FX...") never start with a T.
func (s *Source) Recognizes(id string) bool { return strings.HasPrefix(id, prefix) }

func (s *Source) Fetch(ctx context.Context, ids []string) map[string]allocation.Result {
	return allocation.FetchEach(ctx, ids, s.concurrency, s.Recognizes, s.instrument)
}

func (s *Source) instrument(ctx context.Context, id string) (allocation.InstrumentData, error) {
	key := Name + "/instrument/" + id
	return cache.GetOrFetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (allocation.InstrumentData, error) {
		return s.fetch(ctx, id)
	})
}

func (s *Source) fetch(ctx context.Context, id string) (allocation.InstrumentData, error) {
	addr := s.baseURL + "/invest/etfs/" + url.PathEscape(id)
	page, err := s.client.Get(ctx, addr)
	if err != nil {
		return allocation.InstrumentData{}, err
	}
	data, err := s.parse(id, page)
	if err != nil && !errors.Is(err, allocation.ErrNotFound) {
		s.logger.Debug().Err(err).Str("instrument", id).Msg("cannot parse tinkoff page")
	}
	return data, err
}

func (s *Source) parse(id string, page []byte) (allocation.InstrumentData, error) {
	literal, err := scrape.ScriptAssignment(page, stateVar)
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	// nested strings are double escaped in the literal, they are dropped.
	obj, err := scrape.Decode(strings.ReplaceAll(literal, `\\"`, ""))
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	detail, err := scrape.LookupMap(obj, detailPath)
	if err != nil || detail == nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: no fund details: %w", id, allocation.ErrNotFound)
	}

	countries, err := chart(detail, "countries")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	industries, err := chart(detail, "sectors")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	classes, err := chart(detail, "types")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	expense, err := scrape.LookupFloat(detail, "$.expense.total")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	currency, err := scrape.LookupString(detail, "$.currency")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}

	return allocation.InstrumentData{
		Instrument: id,
		Countries:  s.normalizer.Shares(countries),
		Industries: industries,
		Currencies: allocation.Shares{currency: 1},
		Classes:    classes,
		Fee:        fromPercent(expense),
	}, nil
}

// chart returns the items of the pie chart of the given type as shares. A fund
// without such chart has an empty breakdown.
func chart(detail map[string]any, kind string) (allocation.Shares, error) {
	charts, err := scrape.OptionalList(detail, "pies", "charts")
	if err != nil {
		return nil, err
	}
	var items []any
	for _, raw := range charts {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pies.charts: chart is not an object: %T", raw)
		}
		if m["type"] != kind {
			continue
		}
		if items, err = scrape.OptionalList(m, "items"); err != nil {
			return nil, fmt.Errorf("%s chart: %w", kind, err)
		}
		break
	}
	res := make(allocation.Shares, len(items))
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s chart: item is not an object: %T", kind, it)
		}
		name, ok := item["name"].(string)
		if !ok {
			return nil, fmt.Errorf("%s chart: item without name", kind)
		}
		value, err := scrape.Float(item["relativeValue"])
		if err != nil {
			return nil, fmt.Errorf("%s chart: %q: %w", kind, name, err)
		}
		res[name] += fromPercent(value)
	}
	return res, nil
}

// fromPercent converts a percentage to a share, rounded to sharePlaces.
func fromPercent(p float64) float64 {
	return decimal.NewFromFloat(p).Div(decimal.NewFromInt(100)).Round(sharePlaces).InexactFloat64()
}
