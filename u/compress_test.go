package u

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func testRoundTrip(t *testing.T, dir string, name string) {
	d := []byte(strings.Repeat(`{"data":[{"name":"A"},null,{"name":"B"}]}`, 64))
	path := filepath.Join(dir, name)
	err := WriteFileMaybeCompressed(path, d)
	assert.Nil(t, err)

	d2, err := ReadFileMaybeCompressed(path)
	assert.Nil(t, err)
	assert.Equal(t, d, d2)

	raw, err := os.ReadFile(path)
	assert.Nil(t, err)
	if CodecFromFileName(name) == CodecNone {
		assert.Equal(t, d, raw)
	} else {
		assert.True(t, len(raw) < len(d), "%s: compressed size %d >= %d", name, len(raw), len(d))
	}
}

func TestCompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "a.json.gz", "a.json.zst", "a.json.zstd", "a.json.br"} {
		testRoundTrip(t, dir, name)
	}
}

func TestCodecFromFileName(t *testing.T) {
	tests := []struct {
		path string
		exp  Codec
	}{
		{"snap.json", CodecNone},
		{"snap", CodecNone},
		{"snap.json.GZ", CodecGzip},
		{"snap.zst", CodecZstd},
		{"snap.zstd", CodecZstd},
		{"dir.br/snap.br", CodecBrotli},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, CodecFromFileName(test.path), "%s", test.path)
	}
}

func TestCompressedFileCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.zst")
	w, err := CreateFileMaybeCompressed(path)
	assert.Nil(t, err)
	_, err = w.Write(bytes.Repeat([]byte("x"), 1000))
	assert.Nil(t, err)
	w.Cancel()
	assert.False(t, PathExists(path))
	entries, err := os.ReadDir(dir)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(entries))
}
