package allocation

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound reports that a provider has no record for an instrument.
var ErrNotFound = errors.New("instrument not found")

// Status is the outcome of fetching a single instrument.
type Status int

const (
	NotFound Status = iota
	Found
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Failed:
		return "failed"
	}
	return "not found"
}

// Result is the outcome of fetching a single instrument from a source.
// Data is set only when Status is Found, Err only when Status is Failed.
type Result struct {
	Status Status
	Data   InstrumentData
	Err    error
}

// Source provides instrument data for the instruments it recognizes.
type Source interface {
	// Name identifies the source in logs and cache keys.
	Name() string
	// Recognizes reports whether id is routed to this source.
	Recognizes(id string) bool
	// Fetch returns one Result per recognized instrument in ids.
	// Instruments not recognized are absent from the result.
	Fetch(ctx context.Context, ids []string) map[string]Result
}

// FoundData returns the data of all the found instruments in results.
func FoundData(results map[string]Result) map[string]InstrumentData {
	data := make(map[string]InstrumentData)
	for id, r := range results {
		if r.Status == Found {
			data[id] = r.Data
		}
	}
	return data
}

// FetchEach calls fetch once per instrument in ids that recognizes accepts, with
// at most limit calls in flight (no limit if limit <= 0).
//
// A fetch returning an error wrapping ErrNotFound yields a NotFound result, any
// other error a Failed one. A failure never prevents other instruments from
// being fetched.
func FetchEach(ctx context.Context, ids []string, limit int, recognizes func(string) bool, fetch func(context.Context, string) (InstrumentData, error)) map[string]Result {
	results := make(map[string]Result)
	var mu sync.Mutex
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] || !recognizes(id) {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			r := fetchOne(ctx, id, fetch)
			mu.Lock()
			results[id] = r
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

func fetchOne(ctx context.Context, id string, fetch func(context.Context, string) (InstrumentData, error)) Result {
	if err := ctx.Err(); err != nil {
		return Result{Status: Failed, Err: err}
	}
	data, err := fetch(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return Result{Status: NotFound}
	case err != nil:
		return Result{Status: Failed, Err: err}
	}
	if err := data.Validate(); err != nil {
		return Result{Status: Failed, Err: err}
	}
	return Result{Status: Found, Data: data}
}
