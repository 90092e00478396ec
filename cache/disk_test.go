package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tinkoff/instrument/TSPX", []byte("payload"), time.Hour))
	v, ok, err := s.Get(ctx, "tinkoff/instrument/TSPX")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestDiskStore_AcrossCaches(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	fetch := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return v, nil }
	}

	s1, err := NewDiskStore(dir)
	require.NoError(t, err)
	_, err = GetOrFetch(ctx, New(s1, zerolog.Nop()), "k", time.Hour, fetch("first"))
	require.NoError(t, err)

	s2, err := NewDiskStore(dir)
	require.NoError(t, err)
	v, err := GetOrFetch(ctx, New(s2, zerolog.Nop()), "k", time.Hour, fetch("second"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}
