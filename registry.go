package allocation

import (
	"context"
	"maps"
	"slices"
)

// Registry combines several sources into a single view.
type Registry struct {
	sources []Source
}

// NewRegistry returns a Registry querying sources in the given order.
func NewRegistry(sources ...Source) *Registry {
	return &Registry{sources: sources}
}

// Sources returns the registered sources, in registration order.
func (r *Registry) Sources() []Source { return slices.Clone(r.sources) }

// Collection is the merged outcome of a Registry.Collect.
type Collection struct {
	// Data holds the instruments found by at least one source.
	Data map[string]InstrumentData
	// Failures holds the error of instruments that failed in every source that recognized them.
	Failures map[string]error
	// Missing lists, sorted, the requested instruments absent from Data.
	Missing []string
}

// Collect queries every source with all of ids and merges the results.
//
// When two sources find the same instrument, the one registered last wins.
// A NotFound or Failed result never replaces a found one.
func (r *Registry) Collect(ctx context.Context, ids []string) Collection {
	c := Collection{
		Data:     make(map[string]InstrumentData),
		Failures: make(map[string]error),
	}
	for _, s := range r.sources {
		for id, res := range s.Fetch(ctx, ids) {
			switch res.Status {
			case Found:
				c.Data[id] = res.Data
				delete(c.Failures, id)
			case Failed:
				if _, found := c.Data[id]; !found {
					c.Failures[id] = res.Err
				}
			}
		}
	}
	missing := make(map[string]bool)
	for _, id := range ids {
		if _, ok := c.Data[id]; !ok {
			missing[id] = true
		}
	}
	c.Missing = slices.Sorted(maps.Keys(missing))
	return c
}

// Instruments returns the data of the found instruments.
func (c Collection) Instruments() map[string]InstrumentData { return c.Data }
