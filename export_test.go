package kmeanslab

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kmeanslab/blobstore"
	"github.com/hupe1980/kmeanslab/internal/snapshot"
)

type failingStore struct {
	blobstore.Store
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(4))
	_, err := s.Initialize(ctx, 3, ModeRandom)
	require.NoError(t, err)
	_, err = s.Step(ctx)
	require.NoError(t, err)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			info, err := s.Export(ctx, store, c)
			require.NoError(t, err)
			name := info.Name
			assert.True(t, strings.HasPrefix(name, ExportPrefix))
			assert.True(t, strings.HasSuffix(name, ExportExt))

			data, err := store.Get(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, len(data), info.Size)

			recorded, err := snapshot.CompressionOf(data)
			require.NoError(t, err)
			assert.Equal(t, recorded, info.Compression)

			snap, err := snapshot.Decode(data)
			require.NoError(t, err)

			st := s.State()
			assert.Equal(t, st.K, snap.K)
			assert.Equal(t, string(ModeRandom), snap.Mode)
			assert.Equal(t, 1, snap.Iterations)
			assert.Equal(t, st.Points, snap.Points)
			assert.Equal(t, st.Centroids, snap.Centroids)
			require.Len(t, snap.Clusters, 3)
			assert.Equal(t, info.ID, snap.ID)

			total := 0
			for _, cl := range snap.Clusters {
				total += cl.Len()
			}
			assert.Equal(t, len(st.Points), total)
		})
	}
}

func TestExport_PendingCentroidsHaveNoClusters(t *testing.T) {
	ctx := context.Background()
	s := New(WithSeed(4))
	_, err := s.Initialize(ctx, 3, ModeManual)
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	info, err := s.Export(ctx, store, CompressionNone)
	require.NoError(t, err)

	data, err := store.Get(ctx, info.Name)
	require.NoError(t, err)
	snap, err := snapshot.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, string(ModeManual), snap.Mode)
	assert.Empty(t, snap.Centroids)
	assert.Nil(t, snap.Clusters)
}

func TestExport_ReportsStoredCompression(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// A fresh session encodes to a few hundred bytes of JSON, where LZ4 may
	// not reach the 0.9 ratio and the blob is stored raw.
	s := New(WithSeed(4))
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		info, err := s.Export(ctx, store, c)
		require.NoError(t, err)

		data, err := store.Get(ctx, info.Name)
		require.NoError(t, err)
		recorded, err := snapshot.CompressionOf(data)
		require.NoError(t, err)
		assert.Equal(t, recorded, info.Compression, c.String())
	}
}

func TestExport_ReadBack(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s := New(WithSeed(6))
	_, err := s.Initialize(ctx, 2, ModeRandom)
	require.NoError(t, err)

	ids, err := ListExports(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, ids)

	a, err := s.Export(ctx, store, CompressionZSTD)
	require.NoError(t, err)
	b, err := s.Export(ctx, store, CompressionNone)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "runs/notes.txt", []byte("x")))

	ids, err = ListExports(ctx, store)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	got, err := ReadExport(ctx, store, a.ID)
	require.NoError(t, err)
	assert.Equal(t, *a, got.ExportInfo)
	assert.Equal(t, 2, got.Snapshot.K)
	assert.Equal(t, s.State().Points, got.Snapshot.Points)

	require.NoError(t, DeleteExport(ctx, store, a.ID))
	require.NoError(t, DeleteExport(ctx, store, a.ID))
	_, err = ReadExport(ctx, store, a.ID)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = ReadExport(ctx, store, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, DeleteExport(ctx, store, "nope"), ErrInvalidArgument)

	_, err = ListExports(ctx, nil)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = ReadExport(ctx, nil, a.ID)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestExport_Errors(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	s := New(WithSeed(4), WithMetricsCollector(metrics))

	_, err := s.Export(ctx, nil, CompressionNone)
	assert.ErrorIs(t, err, ErrNoStore)

	_, err = s.Export(ctx, failingStore{}, CompressionNone)
	assert.ErrorContains(t, err, "disk full")

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.ExportCount)
	assert.Equal(t, int64(2), stats.ExportErrors)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, c)

	_, err = ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
