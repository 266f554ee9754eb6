package archive

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf)

	files := []struct {
		name string
		body string
	}{
		{"a.txt", "hello"},
		{"dir/b.txt", "world, this is the second file"},
	}
	for _, f := range files {
		if err := tw.WriteHeader(&Header{Name: f.name, Size: int64(len(f.body)), ModTime: time.Unix(1700000000, 0), Typeflag: TypeReg}); err != nil {
			t.Fatalf("WriteHeader(%s): %v", f.name, err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatalf("Write(%s): %v", f.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.Len()%blockSize != 0 {
		t.Fatalf("archive length %d is not a multiple of %d", buf.Len(), blockSize)
	}

	tr := NewReader(bytes.NewReader(buf.Bytes()))
	for i, f := range files {
		h, err := tr.Next()
		if err != nil {
			t.Fatalf("Next() entry %d: %v", i, err)
		}
		if h.Name != f.name {
			t.Errorf("entry %d name = %q, want %q", i, h.Name, f.name)
		}
		body, err := tr.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll() entry %d: %v", i, err)
		}
		if string(body) != f.body {
			t.Errorf("entry %d body = %q, want %q", i, body, f.body)
		}
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last entry, got %v", err)
	}
}

func TestWriterLongName(t *testing.T) {
	longName := ""
	for len(longName) < 150 {
		longName += "a-very-long-path-segment/"
	}
	longName += "file.txt"

	var buf bytes.Buffer
	tw := NewWriter(&buf)
	if err := tw.WriteHeader(&Header{Name: longName, Size: 3, Typeflag: TypeReg}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	tw.Write([]byte("hi!"))
	tw.Close()

	tr := NewReader(bytes.NewReader(buf.Bytes()))
	h, err := tr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if h.Name != longName {
		t.Errorf("got name %q (len %d), want %q (len %d)", h.Name, len(h.Name), longName, len(longName))
	}
}

func TestCodecForSuffix(t *testing.T) {
	cases := []struct {
		name  string
		codec string
	}{
		{"a.tar.gz", CodecGzip},
		{"a.tgz", CodecGzip},
		{"a.tar.bz2", CodecBzip2},
		{"a.tar.xz", CodecXZ},
		{"a.tar.zst", CodecZstd},
		{"a.tar", CodecNone},
	}
	for _, c := range cases {
		if got := CodecForSuffix(c.name); got != c.codec {
			t.Errorf("CodecForSuffix(%q) = %q, want %q", c.name, got, c.codec)
		}
	}
}

func TestCompressDecompressGzipRoundTrip(t *testing.T) {
	data := []byte("some archive bytes, not actually a tar file but round-trip is all we check")
	compressed, err := Compress(CodecGzip, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if SniffCodec(compressed) != CodecGzip {
		t.Fatalf("SniffCodec did not recognize gzip magic bytes")
	}
	out, err := Decompress(CodecGzip, compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(out) != string(data) {
		t.Errorf("round trip mismatch: got %q, want %q", out, data)
	}
}
