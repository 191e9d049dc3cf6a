package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func assertFileExists(t *testing.T, path string) {
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file '%s' doesn't exist, os.Stat() failed with '%s'", path, err)
	}
	if !st.Mode().IsRegular() {
		t.Fatalf("Path '%s' exists but is not a file (mode: %d)", path, int(st.Mode()))
	}
}

func assertFileNotExists(t *testing.T, path string) {
	_, err := os.Stat(path)
	if err == nil {
		t.Fatalf("file '%s' exist, expected to not exist", path)
	}
}

func assertNoError(t *testing.T, err error) {
	if err != nil {
		t.Fatalf("error: %s", err)
	}
}

func assertError(t *testing.T, err error) {
	if err == nil {
		t.Fatal("expected to get an error")
	}
}

func assertFileContent(t *testing.T, path string, exp string) {
	d, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile('%s') failed with '%s'", path, err)
	}
	if string(d) != exp {
		t.Fatalf("path: '%s', expected content: '%s', got: '%s'", path, exp, string(d))
	}
}

func TestSimulateError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "dst.txt")
	f, err := New(dst)
	assertNoError(t, err)
	assertFileExists(t, f.tmpPath)
	_, err = f.Write([]byte("foo"))
	assertNoError(t, err)
	// simulate an error
	errSimulated := errors.New("simulated")
	f.err = errSimulated
	err = f.Close()
	if err != errSimulated {
		t.Fatalf("got unexpected error")
	}
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
	// on second Close() should get the same error
	err = f.Close()
	if err != errSimulated {
		t.Fatalf("got unexpected error")
	}
}

func writeWithPanicCancel(t *testing.T, f *File) {
	defer f.RemoveIfNotClosed()

	_, err := f.Write([]byte("foo"))
	assertNoError(t, err)
	panic("simulating a crash")
}

func recoverCancelPanic(t *testing.T, f *File) {
	defer func() {
		err := recover()
		if err == nil {
			t.Fatalf("expected to panic")
		}
	}()

	writeWithPanicCancel(t, f)
}

func TestCancel(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "dst.txt")
	f, err := New(dst)
	assertNoError(t, err)
	assertFileExists(t, f.tmpPath)
	recoverCancelPanic(t, f)
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.txt")
	{
		f, err := New(dst)
		assertNoError(t, err)
		assertFileExists(t, f.tmpPath)
		_ = f.Close()
		assertFileExists(t, dst)
		assertFileContent(t, dst, "")
		assertFileNotExists(t, f.tmpPath)
	}

	{
		f, err := New(dst)
		assertNoError(t, err)
		_, err = f.WriteString("hello ")
		assertNoError(t, err)
		_, err = f.Write([]byte("world"))
		assertNoError(t, err)
		// destination still has the old content until Close()
		assertFileContent(t, dst, "")
		err = f.Close()
		assertNoError(t, err)
		assertFileNotExists(t, f.tmpPath)
		assertFileContent(t, dst, "hello world")
		// calling Close twice is a no-op
		err = f.Close()
		assertNoError(t, err)
	}

	{
		// check that Cancel sets an error state
		f, err := New(dst)
		assertNoError(t, err)
		f.RemoveIfNotClosed()
		_, err = f.Write([]byte("foo"))
		if err != ErrCancelled {
			t.Fatalf("expected err to be %v, got %v", ErrCancelled, err)
		}
		err = f.Close()
		if err != ErrCancelled {
			t.Fatalf("expected err to be %v, got %v", ErrCancelled, err)
		}
		assertFileContent(t, dst, "hello world")
	}

	// we can't create files in directories that don't exist
	// so verify we do an early check
	{
		f, err := New(filepath.Join(dir, "foo", "bar.txt"))
		assertError(t, err)
		if f != nil {
			t.Fatalf("expected f to be nil, got %v", f)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "ts.txtinfo")
	err := WriteFile(dst, []byte("1700000000"), 0644)
	assertNoError(t, err)
	assertFileContent(t, dst, "1700000000")

	err = WriteFile(dst, []byte("1700000001"), 0644)
	assertNoError(t, err)
	assertFileContent(t, dst, "1700000001")

	if runtime.GOOS != "windows" {
		st, err := os.Stat(dst)
		assertNoError(t, err)
		if st.Mode().Perm()&0044 == 0 {
			t.Fatalf("expected file to be readable by others, mode: %v", st.Mode())
		}
	}

	// no temporary files left behind
	entries, err := os.ReadDir(dir)
	assertNoError(t, err)
	if len(entries) != 1 {
		t.Fatalf("expected 1 file in '%s', got %d", dir, len(entries))
	}

	err = WriteFile(filepath.Join(dir, "missing", "x.txt"), []byte("x"), 0644)
	assertError(t, err)
}
