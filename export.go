package kmeanslab

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/kmeanslab/blobstore"
	"github.com/hupe1980/kmeanslab/internal/kmeans"
	"github.com/hupe1980/kmeanslab/internal/snapshot"
)

const (
	// ExportPrefix is the blob name prefix of exported runs.
	ExportPrefix = "runs/"
	// ExportExt is the blob name suffix of exported runs.
	ExportExt = ".kms"
)

// Compression selects the codec of an exported snapshot.
type Compression = snapshot.Compression

// Snapshot codecs.
const (
	CompressionNone = snapshot.CompressionNone
	CompressionLZ4  = snapshot.CompressionLZ4
	CompressionZSTD = snapshot.CompressionZSTD
)

// Snapshot is the document stored by Export.
type Snapshot = snapshot.Snapshot

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	c, err := snapshot.ParseCompression(s)
	if err != nil {
		return CompressionNone, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return c, nil
}

// ExportInfo describes a stored snapshot.
type ExportInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Compression is the codec recorded in the blob. It is CompressionNone
	// when the requested codec did not shrink the payload.
	Compression Compression `json:"compression"`
	Size        int         `json:"size"`
}

// Export is a snapshot read back from a store.
type Export struct {
	ExportInfo
	Snapshot *Snapshot `json:"snapshot"`
}

// Export writes a snapshot of the session to store.
//
// Clusters are included only when the session has all k centroids; they are
// the assignment of the dataset to the current centroids. Exports are never
// loaded back into a session.
func (s *Session) Export(ctx context.Context, store blobstore.Store, c Compression) (*ExportInfo, error) {
	start := time.Now()

	info, err := s.export(ctx, store, c)

	name, size := "", 0
	if info != nil {
		name, size = info.Name, info.Size
	}
	s.opts.metricsCollector.RecordExport(size, time.Since(start), err)
	s.opts.logger.LogExport(ctx, name, size, err)
	return info, err
}

func (s *Session) export(ctx context.Context, store blobstore.Store, c Compression) (*ExportInfo, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	data, err := snapshot.Encode(snap, c)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	stored, err := snapshot.CompressionOf(data)
	if err != nil {
		return nil, err
	}

	name := exportName(snap.ID)
	if err := store.Put(ctx, name, data); err != nil {
		return nil, fmt.Errorf("put %s: %w", name, err)
	}
	return &ExportInfo{ID: snap.ID, Name: name, Compression: stored, Size: len(data)}, nil
}

func (s *Session) snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &snapshot.Snapshot{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		K:          s.k,
		Mode:       string(s.mode),
		Iterations: s.iterations,
		Points:     kmeans.Clone(s.points),
		Centroids:  kmeans.Clone(s.centroids),
	}
	if s.ready() == nil {
		clusters, err := kmeans.AssignParallel(ctx, s.centroids, s.points, s.opts.parallelism)
		if err != nil {
			return nil, err
		}
		snap.Clusters = clusters
	}
	return snap, nil
}

func exportName(id string) string {
	return ExportPrefix + id + ExportExt
}

func exportID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: export id %q: %w", ErrInvalidArgument, id, err)
	}
	return parsed.String(), nil
}

// ListExports returns the sorted IDs of the runs exported to store.
func ListExports(ctx context.Context, store blobstore.Store) ([]string, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	names, err := store.List(ctx, ExportPrefix)
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, name := range names {
		id, ok := strings.CutSuffix(strings.TrimPrefix(name, ExportPrefix), ExportExt)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadExport fetches and decodes one exported run. A missing run matches
// blobstore.ErrNotFound.
func ReadExport(ctx context.Context, store blobstore.Store, id string) (*Export, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	id, err := exportID(id)
	if err != nil {
		return nil, err
	}

	name := exportName(id)
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	c, err := snapshot.CompressionOf(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &Export{
		ExportInfo: ExportInfo{ID: id, Name: name, Compression: c, Size: len(data)},
		Snapshot:   snap,
	}, nil
}

// DeleteExport removes an exported run. Deleting a missing run is not an
// error.
func DeleteExport(ctx context.Context, store blobstore.Store, id string) error {
	if store == nil {
		return ErrNoStore
	}
	id, err := exportID(id)
	if err != nil {
		return err
	}
	return store.Delete(ctx, exportName(id))
}
