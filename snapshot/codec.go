package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

// FormatVersion is the envelope version written by Encode
const FormatVersion = 1

// ErrCorrupt is returned when an image cannot be decoded or fails its
// checksum
var ErrCorrupt = errors.New("corrupt snapshot")

// Compression names
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// envelope is the top-level document. Checksum covers the encoded Root.
type envelope struct {
	Version  int              `json:"version"`
	Checksum string           `json:"checksum"`
	SavedAt  time.Time        `json:"saved_at"`
	Root     *simfs.NodeImage `json:"root"`
}

// Checksum returns the hex xxh3-128 digest of data
func Checksum(data []byte) string {
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}

// Encode serializes root into a checksummed envelope and compresses it
func Encode(root *simfs.NodeImage, compression string, savedAt time.Time) ([]byte, error) {
	rootData, err := sonic.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	data, err := sonic.Marshal(envelope{
		Version:  FormatVersion,
		Checksum: Checksum(rootData),
		SavedAt:  savedAt,
		Root:     root,
	})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return compress(data, compression)
}

// Decode reverses Encode. The compression format is detected from the
// leading magic bytes.
func Decode(data []byte) (*simfs.NodeImage, error) {
	raw, err := decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
	}
	if env.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrCorrupt)
	}
	rootData, err := sonic.Marshal(env.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if sum := Checksum(rootData); sum != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch (have %s, want %s)", ErrCorrupt, sum, env.Checksum)
	}
	return env.Root, nil
}

// ValidCompression reports whether c names a supported compression
func ValidCompression(c string) bool {
	switch c {
	case CompressionNone, CompressionGzip, CompressionZstd:
		return true
	}
	return false
}

func compress(data []byte, compression string) ([]byte, error) {
	switch compression {
	case CompressionNone, "":
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := gz.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
}

func decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case bytes.HasPrefix(data, gzipMagic):
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return data, nil
	}
}
