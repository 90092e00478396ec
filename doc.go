// Package allocation computes the consolidated exposure of a portfolio of funds.
//
// Each fund (an instrument) is described by an InstrumentData record: how its
// holdings split by country, industry, currency and asset class, and what it
// costs per year. Records come from data sources, one per provider, combined
// by a Registry. Aggregate then weights every record by the value held in the
// portfolio and produces a PortfolioAllocation where every dimension sums to 1.
//
// The package is the foundation of the `pal` command-line tool:
//   - Data sources live in sub packages (finex, tinkoff) and share the scrape
//     plumbing.
//   - Positions are read from a GnuCash book by the gnucash package.
//   - The renderer package turns a PortfolioAllocation into markdown.
package allocation
