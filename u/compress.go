package u

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/kjk/flatstore/atomicfile"
)

// implement io.ReadCloser over os.File wrapped with io.Reader.
// io.Closer goes to os.File, io.Reader goes to wrapping reader
type readerWrappedFile struct {
	f *os.File
	r io.Reader
	// optional, for decoders that need to release resources
	close func()
}

func (rc *readerWrappedFile) Close() error {
	if rc.close != nil {
		rc.close()
	}
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func wrapInReadCloser(f *os.File, r io.Reader, err error) (io.ReadCloser, error) {
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readerWrappedFile{
		f: f,
		r: r,
	}, nil
}

// Codec identifies compression of a file based on its extension
type Codec int

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
	CodecBrotli
)

// CodecFromFileName returns compression codec based on file extension
// .gz => gzip, .zst and .zstd => zstd, .br => brotli, anything else => none
func CodecFromFileName(path string) Codec {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz":
		return CodecGzip
	case ".zst", ".zstd":
		return CodecZstd
	case ".br":
		return CodecBrotli
	}
	return CodecNone
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip
// or zstd or brotli, based on file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch CodecFromFileName(path) {
	case CodecGzip:
		r, err := gzip.NewReader(f)
		return wrapInReadCloser(f, r, err)
	case CodecZstd:
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r, close: r.Close}, nil
	case CodecBrotli:
		r := brotli.NewReader(f)
		return wrapInReadCloser(f, r, nil)
	}
	return f, nil
}

// ReadFileMaybeCompressed reads file, decompressing it based on extension
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// CompressedFile writes compressed data to an atomicfile.File.
// Close flushes the compressor and then commits the file.
type CompressedFile struct {
	f *atomicfile.File
	w io.WriteCloser
}

func (cf *CompressedFile) Write(p []byte) (int, error) {
	return cf.w.Write(p)
}

// Cancel abandons the file, destination is not created or changed.
// Cancel after Close is a no-op.
func (cf *CompressedFile) Cancel() {
	cf.f.RemoveIfNotClosed()
}

func (cf *CompressedFile) Close() error {
	err := cf.w.Close()
	if err != nil {
		cf.f.RemoveIfNotClosed()
		return err
	}
	return cf.f.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// in my tests:
	// - zstd.SpeedBestCompression is much slower and not much better
	// - default concurrency is GONUMPROCS() but adding concurrency of any value
	//   doesn't consistently speed things up
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

// NewCompressWriter returns a writer that compresses data written to it
// with codec and writes it to dst. Close flushes the compressor but
// doesn't close dst.
func NewCompressWriter(dst io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case CodecGzip:
		w, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		return w, nil
	case CodecZstd:
		w, err := zstdNewWriter(dst)
		if err != nil {
			return nil, err
		}
		return w, nil
	case CodecBrotli:
		return brotli.NewWriterLevel(dst, brotli.DefaultCompression), nil
	}
	return nopWriteCloser{dst}, nil
}

// CreateFileMaybeCompressed creates a file that will be compressed based
// on extension (see CodecFromFileName).
// The file is written atomically: destination only appears after
// a successful Close(). Use Cancel() to abandon writing.
func CreateFileMaybeCompressed(path string) (*CompressedFile, error) {
	f, err := atomicfile.New(path)
	if err != nil {
		return nil, err
	}
	w, err := NewCompressWriter(f, CodecFromFileName(path))
	if err != nil {
		f.RemoveIfNotClosed()
		return nil, err
	}
	return &CompressedFile{f: f, w: w}, nil
}

// WriteFileMaybeCompressed writes data to path, compressed based on
// extension
func WriteFileMaybeCompressed(path string, data []byte) error {
	w, err := CreateFileMaybeCompressed(path)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Cancel()
		return err
	}
	return w.Close()
}
