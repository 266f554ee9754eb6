package archive

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec name constants, also used as the tar command's explicit-flag
// names (-z gzip, -j bzip2, -J xz, --zstd zstd).
const (
	CodecNone   = ""
	CodecGzip   = "gzip"
	CodecBzip2  = "bzip2"
	CodecXZ     = "xz"
	CodecZstd   = "zstd"
)

// CodecForSuffix implements tar -a's suffix-based auto-detection.
func CodecForSuffix(name string) string {
	switch {
	case strings.HasSuffix(name, ".tgz") || strings.HasSuffix(name, ".gz"):
		return CodecGzip
	case strings.HasSuffix(name, ".tbz2") || strings.HasSuffix(name, ".bz2"):
		return CodecBzip2
	case strings.HasSuffix(name, ".txz") || strings.HasSuffix(name, ".xz"):
		return CodecXZ
	case strings.HasSuffix(name, ".tzst") || strings.HasSuffix(name, ".zst"):
		return CodecZstd
	}
	return CodecNone
}

// SniffCodec inspects the first bytes of an archive for a known magic
// number, used on extract regardless of what the filename suffix says.
func SniffCodec(data []byte) string {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return CodecGzip
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("BZh")):
		return CodecBzip2
	case len(data) >= 6 && bytes.Equal(data[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		return CodecXZ
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}):
		return CodecZstd
	}
	return CodecNone
}

// Decompress returns the decoded bytes for one of the supported codecs;
// CodecNone returns data unchanged.
func Decompress(codec string, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("archive: gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CodecBzip2:
		return io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
	case CodecXZ:
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("archive: xz: %w", err)
		}
		return io.ReadAll(xr)
	case CodecZstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("archive: zstd: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return nil, fmt.Errorf("archive: unknown codec %q", codec)
}

// Compress returns the encoded bytes for one of the supported codecs.
// CodecBzip2 is decode-only (the stdlib has no bzip2 writer and no
// example repo in the corpus carries one) and returns an error, matching
// real GNU tar's behavior when bzip2 support is unavailable.
func Compress(codec string, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecBzip2:
		return nil, fmt.Errorf("archive: bzip2 compression is not supported (decode only)")
	case CodecXZ:
		var buf bytes.Buffer
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("archive: xz: %w", err)
		}
		if _, err := xw.Write(data); err != nil {
			return nil, err
		}
		if err := xw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CodecZstd:
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("archive: zstd: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("archive: unknown codec %q", codec)
}
