package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/allocation"
	"github.com/etnz/allocation/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableSource serves instruments data from memory.
type tableSource map[string]allocation.InstrumentData

func (tableSource) Name() string { return "table" }

func (tableSource) Recognizes(string) bool { return true }

func (s tableSource) Fetch(ctx context.Context, ids []string) map[string]allocation.Result {
	return allocation.FetchEach(ctx, ids, 1, s.Recognizes, func(_ context.Context, id string) (allocation.InstrumentData, error) {
		d, ok := s[id]
		if !ok {
			return allocation.InstrumentData{}, fmt.Errorf("%s: %w", id, allocation.ErrNotFound)
		}
		return d, nil
	})
}

func fund(id, country string, fee float64) allocation.InstrumentData {
	return allocation.InstrumentData{
		Instrument: id,
		Countries:  allocation.Shares{country: 1},
		Industries: allocation.Shares{"Tech": 1},
		Currencies: allocation.Shares{"USD": 1},
		Classes:    allocation.Shares{"Акции": 1},
		Fee:        fee,
	}
}

func TestAllocationReport(t *testing.T) {
	reg := allocation.NewRegistry(tableSource{
		"FXUS": fund("FXUS", "United States", 0.01),
		"TSPX": fund("TSPX", "Germany", 0.02),
	})
	positions := allocation.Positions{
		Values:   map[string]float64{"FXUS": 300, "TSPX": 100, "TBIO": 50},
		Currency: "RUB",
	}
	var errw bytes.Buffer

	md := allocationReport(context.Background(), reg, positions, &errw)

	assert.Contains(t, md, "| United States | 75.00% |")
	assert.Contains(t, md, "| Germany | 25.00% |")
	assert.Contains(t, md, "| Tech | 100.00% |")
	assert.Contains(t, md, "1.25%")
	assert.Contains(t, md, "- TBIO")
	assert.Equal(t, "Warning: TBIO: no data found\n", errw.String())
}

func TestWriteData(t *testing.T) {
	data := map[string]allocation.InstrumentData{"FXUS": fund("FXUS", "United States", 0.009)}

	var j bytes.Buffer
	require.NoError(t, writeData(&j, "json", data))
	assert.Contains(t, j.String(), `"Акции": 1`)
	assert.Contains(t, j.String(), `"fee": 0.009`)
	assert.True(t, strings.HasPrefix(j.String(), "{\n  \"FXUS\": {\n"))

	var y bytes.Buffer
	require.NoError(t, writeData(&y, "yaml", data))
	assert.Contains(t, y.String(), "FXUS:\n  instrument: FXUS\n")
	assert.Contains(t, y.String(), "    United States: 1\n")
	assert.Contains(t, y.String(), "  fee: 0.009\n")
}

func TestReportFailures(t *testing.T) {
	c := allocation.Collection{
		Failures: map[string]error{"FXBAD": fmt.Errorf("unexpected payload")},
		Missing:  []string{"FXBAD", "NOPE"},
	}
	var buf bytes.Buffer
	reportFailures(&buf, c)
	assert.Equal(t, "Warning: FXBAD: unexpected payload\nWarning: NOPE: no data found\n", buf.String())
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHTML(&buf, "Portfolio Allocation", "# Title\n\n| A | B |\n|---|---|\n| 1 | 2 |\n"))
	assert.Contains(t, buf.String(), "<title>Portfolio Allocation</title>")
	assert.Contains(t, buf.String(), "<h1>Title</h1>")
	assert.Contains(t, buf.String(), "<table>")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "info"}, &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	assert.Equal(t, zerolog.WarnLevel, newLogger(LogConfig{Level: "loud"}, &buf).GetLevel())
}

func TestNewApp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\nbackend = \"memory\"\n\n[sources.tinkoff]\nenabled = false\n"), 0o644))
	old := *configFile
	*configFile = path
	t.Cleanup(func() { *configFile = old })

	a, err := newApp()
	require.NoError(t, err)
	defer a.Close()

	sources := a.registry.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, "finex", sources[0].Name())
}

func TestNewRegistry_LogsEnabledSources(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Sources.FinEx.Enabled = false
	a := &app{config: cfg, logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	r := a.newRegistry(cache.New(cache.NewMemoryStore(), zerolog.Nop()))
	require.Len(t, r.Sources(), 1)
	assert.Contains(t, buf.String(), `"sources":["tinkoff"]`)
	assert.Contains(t, buf.String(), "registry ready")
}
