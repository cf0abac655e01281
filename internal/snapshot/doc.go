// Package snapshot encodes a clustering run as a self-describing binary blob.
//
// Layout: [Magic "KMS1"][Compression uint8][UncompressedSize uint32][Payload...]
// The payload is the JSON document written with codec.Default, optionally
// LZ4 or ZSTD compressed. When compression does not shrink the payload it is
// stored raw and the header records CompressionNone.
package snapshot
