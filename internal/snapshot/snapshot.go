package snapshot

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/hupe1980/kmeanslab/internal/codec"
	"github.com/hupe1980/kmeanslab/internal/kmeans"
)

// ErrCorrupt is returned when a blob is not a valid snapshot.
var ErrCorrupt = errors.New("snapshot: corrupt data")

var magic = [4]byte{'K', 'M', 'S', '1'}

const headerSize = 9

// Snapshot is the exported state of a clustering session.
type Snapshot struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	K          int              `json:"k"`
	Mode       string           `json:"mode"`
	Iterations int              `json:"iterations"`
	Points     []kmeans.Point   `json:"data_points"`
	Centroids  []kmeans.Point   `json:"centroids"`
	Clusters   []kmeans.Cluster `json:"clusters,omitempty"`
}

// Encode serializes s with the requested compression.
func Encode(s *Snapshot, c Compression) ([]byte, error) {
	payload, err := codec.Default.Marshal(s)
	if err != nil {
		return nil, err
	}

	compressed, err := compress(payload, c)
	if err != nil {
		return nil, err
	}
	// Keep the raw payload if compression doesn't help (ratio > 0.9).
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(payload))*0.9 {
		c = CompressionNone
		compressed = payload
	}

	out := make([]byte, headerSize+len(compressed))
	copy(out[0:4], magic[:])
	out[4] = byte(c)
	binary.LittleEndian.PutUint32(out[5:], uint32(len(payload)))
	copy(out[headerSize:], compressed)
	return out, nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize || [4]byte(data[0:4]) != magic {
		return nil, ErrCorrupt
	}
	c := Compression(data[4])
	size := binary.LittleEndian.Uint32(data[5:])

	payload, err := decompress(data[headerSize:], c, size)
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := codec.Default.Unmarshal(payload, &s); err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	return &s, nil
}

// CompressionOf reports the codec recorded in an encoded blob's header.
func CompressionOf(data []byte) (Compression, error) {
	if len(data) < headerSize || [4]byte(data[0:4]) != magic {
		return CompressionNone, ErrCorrupt
	}
	return Compression(data[4]), nil
}
