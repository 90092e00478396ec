// Package cmd implements the CLI application to compute a portfolio allocation.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/etnz/allocation"
	"github.com/etnz/allocation/cache"
	"github.com/etnz/allocation/country"
	"github.com/etnz/allocation/finex"
	"github.com/etnz/allocation/scrape"
	"github.com/etnz/allocation/tinkoff"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&dataCmd{}, "instruments")
	c.Register(&gnucashAllocationCmd{}, "allocation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", DefaultConfigFile(), "Path to the configuration file (TOML)")
var verbose = flag.Bool("v", false, "Log debug information")

// app is the set of collaborators shared by subcommands.
type app struct {
	config   *Config
	logger   zerolog.Logger
	registry *allocation.Registry
	closers  []io.Closer
}

// newApp loads the configuration and builds the collaborators.
func newApp() (*app, error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	a := &app{
		config: cfg,
		logger: newLogger(cfg.Log, os.Stderr),
	}
	c, err := a.newCache()
	if err != nil {
		return nil, err
	}
	a.registry = a.newRegistry(c)
	return a, nil
}

// Close releases the app resources.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close")
		}
	}
}

// newLogger creates the structured logger writing to w.
func newLogger(cfg LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.WarnLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	output := w
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// newCache returns the cache configured for instrument data, nil when disabled.
func (a *app) newCache() (*cache.Cache, error) {
	cfg := a.config.Cache
	var store cache.Store
	switch cfg.Backend {
	case "none":
		return nil, nil
	case "memory":
		store = cache.NewMemoryStore()
	case "redis":
		r := cache.DialRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		a.closers = append(a.closers, r)
		store = r
	default:
		d, err := cache.NewDiskStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("cannot create cache: %w", err)
		}
		store = d
	}
	a.logger.Debug().Str("backend", cfg.Backend).Msg("cache")
	return cache.New(store, a.logger), nil
}

// newRegistry returns the registry of the enabled sources.
func (a *app) newRegistry(c *cache.Cache) *allocation.Registry {
	cfg := a.config
	normalizer := country.NewNormalizer(a.logger)
	client := func(name string) *scrape.Client {
		return scrape.New(name,
			scrape.WithTimeout(cfg.Fetch.GetTimeout()),
			scrape.WithRateLimit(cfg.Fetch.RateLimit),
			scrape.WithLogger(a.logger),
		)
	}

	var sources []allocation.Source
	if src := cfg.Sources.FinEx; src.Enabled {
		opts := []finex.Option{
			finex.WithCache(c, cfg.Cache.GetTTL()),
			finex.WithConcurrency(cfg.Fetch.Concurrency),
			finex.WithLogger(a.logger),
		}
		if src.BaseURL != "" {
			opts = append(opts, finex.WithBaseURL(src.BaseURL))
		}
		sources = append(sources, finex.New(client(finex.Name), normalizer, opts...))
	}
	if src := cfg.Sources.Tinkoff; src.Enabled {
		opts := []tinkoff.Option{
			tinkoff.WithCache(c, cfg.Cache.GetTTL()),
			tinkoff.WithConcurrency(cfg.Fetch.Concurrency),
			tinkoff.WithLogger(a.logger),
		}
		if src.BaseURL != "" {
			opts = append(opts, tinkoff.WithBaseURL(src.BaseURL))
		}
		sources = append(sources, tinkoff.New(client(tinkoff.Name), normalizer, opts...))
	}
	r := allocation.NewRegistry(sources...)
	names := make([]string, 0, len(sources))
	for _, s := range r.Sources() {
		names = append(names, s.Name())
	}
	a.logger.Debug().Strs("sources", names).Msg("registry ready")
	return r
}

// reportFailures prints the instruments that could not be collected.
func reportFailures(w io.Writer, c allocation.Collection) {
	for _, id := range c.Missing {
		if err, failed := c.Failures[id]; failed {
			fmt.Fprintf(w, "Warning: %s: %v\n", id, err)
		} else {
			fmt.Fprintf(w, "Warning: %s: no data found\n", id)
		}
	}
}
