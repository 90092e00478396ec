// Package finex provides instrument data for FinEx funds, from the product
// pages of finex-etf.ru.
//
// FinEx tickers all start with "FX" (FXUS, FXGD, ...). Product pages are
// Next.js pages: the fund description is in the __NEXT_DATA__ script.
package finex

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
)

const (
	// Name of the source.
	Name = "finex"
	// DefaultBaseURL of the FinEx website.
	DefaultBaseURL = "https://finex-etf.ru"
	// DefaultTTL of cached instrument data.
	DefaultTTL = 30 * 24 * time.Hour

	prefix = "FX"
	// responseDataPath locates the fund description in the __NEXT_DATA__ payload.
	responseDataPath = "$.props.pageProps.initialState.fondDetail.responseData"
)

// Source fetches FinEx product pages.
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

// WithBaseURL overrides the FinEx website address.
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

// New returns a FinEx source fetching pages with client, and normalizing
// country names with normalizer.
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

// Recognizes FinEx tickers.
func (s *Source) Recognizes(id string) bool { return strings.HasPrefix(id, prefix) }

func (s *Source) Fetch(ctx context.Context, ids []string) map[string]allocation.Result {
	return allocation.FetchEach(ctx, ids, s.concurrency, s.Recognizes, s.instrument)
}

// instrument returns the data of a single instrument, from the cache if possible.
func (s *Source) instrument(ctx context.Context, id string) (allocation.InstrumentData, error) {
	key := Name + "/instrument/" + id
	return cache.GetOrFetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (allocation.InstrumentData, error) {
		return s.fetch(ctx, id)
	})
}

func (s *Source) fetch(ctx context.Context, id string) (allocation.InstrumentData, error) {
	addr := s.baseURL + "/products/" + url.PathEscape(id)
	page, err := s.client.Get(ctx, addr)
	if err != nil {
		return allocation.InstrumentData{}, err
	}
	data, err := s.parse(id, page)
	if err != nil && !errors.Is(err, allocation.ErrNotFound) {
		s.logger.Debug().Err(err).Str("instrument", id).Msg("cannot parse finex page")
	}
	return data, err
}

// parse extracts the instrument data from a product page.
func (s *Source) parse(id string, page []byte) (allocation.InstrumentData, error) {
	payload, err := scrape.ScriptByID(page, "__NEXT_DATA__")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	obj, err := scrape.Decode(payload)
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	fund, err := scrape.LookupMap(obj, responseDataPath)
	if err != nil || fund == nil {
		// unknown products get a page without fund details.
		return allocation.InstrumentData{}, fmt.Errorf("%s: no fund details: %w", id, allocation.ErrNotFound)
	}

	countries, err := shares(fund, "countryShare")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	if len(countries) == 0 {
		countries = singleCountry(fund)
	}
	industries, err := shares(fund, "otherShare")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	fee, err := scrape.LookupFloat(fund, "$.commission")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	currency, err := scrape.LookupString(fund, "$.currencyNav")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}
	class, err := scrape.LookupString(fund, "$.classActive")
	if err != nil {
		return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, err)
	}

	return allocation.InstrumentData{
		Instrument: id,
		Countries:  s.normalizer.Shares(countries),
		Industries: industries,
		Currencies: allocation.Shares{currency: 1},
		Classes:    allocation.Shares{class: 1},
		Fee:        fee,
	}, nil
}

// shares reads an optional breakdown of the fund "share" object, FinEx gives
// them as fractions. Absent or null breakdowns are empty, common for single
// asset funds.
func shares(fund map[string]any, key string) (allocation.Shares, error) {
	m, err := scrape.OptionalMap(fund, "share", key)
	if err != nil {
		return nil, err
	}
	res, err := scrape.Shares(m)
	if err != nil {
		return nil, fmt.Errorf("share.%s: %w", key, err)
	}
	return res, nil
}

// singleCountry infers the country of a single country fund from its name,
// as in "FinEx MSCI Germany / Германия".
func singleCountry(fund map[string]any) allocation.Shares {
	name, err := scrape.LookupString(fund, "$.name")
	if err != nil {
		return allocation.Shares{}
	}
	parts := strings.Split(name, "/")
	if len(parts) < 2 {
		return allocation.Shares{}
	}
	c := strings.TrimSpace(parts[1])
	if c == "" {
		return allocation.Shares{}
	}
	return allocation.Shares{c: 1}
}
