package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func readDaily(t *testing.T, dir string) string {
	name := time.Now().UTC().Format("2006-01-02") + ".txt"
	d, err := os.ReadFile(filepath.Join(dir, name))
	assert.Nil(t, err)
	return string(d)
}

func TestLogToFiles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	prevStdout := Stdout
	Stdout = &out
	var got []string
	Init(&Config{
		Dir:   dir,
		OnLog: func(s string) { got = append(got, s) },
	})
	defer func() {
		Close()
		Stdout = prevStdout
		Verbose = false
	}()

	Logf("inserted %d records into '%s'\n", 2, "users")
	Verbosef("not logged\n")
	Verbose = true
	Verbosef("logged\n")
	Errorf("store failed: %s", "disk full")
	assert.True(t, IfErrf(os.ErrNotExist, "loading '%s' failed", "users"))
	assert.False(t, IfErrf(nil))

	s := readDaily(t, filepath.Join(dir, "log"))
	assert.True(t, strings.Contains(s, "inserted 2 records into 'users'\n"))
	assert.False(t, strings.Contains(s, "not logged"))
	assert.True(t, strings.Contains(s, "logged\n"))
	assert.Equal(t, s, out.String())

	s = readDaily(t, filepath.Join(dir, "errors"))
	assert.True(t, strings.Contains(s, "store failed: disk full\n"))
	assert.True(t, strings.Contains(s, "loading 'users' failed\n"))
	assert.True(t, strings.Contains(s, "log_test.go"), "callstack missing in %s", s)

	assert.Equal(t, 4, len(got))
}

func TestFormatEvent(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	d, err := FormatEvent("docstore.insert", ts, "collection", "users", "n", 2)
	assert.Nil(t, err)
	s := string(d)
	assert.True(t, strings.HasPrefix(s, "=== docstore.insert 1700000000123 "), "%s", s)
	assert.True(t, strings.Contains(s, "collection: users"), "%s", s)
	assert.True(t, strings.Contains(s, "n: 2"), "%s", s)
	assert.True(t, strings.HasSuffix(s, "\n"))

	d, err = FormatEvent("docstore.create", ts)
	assert.Nil(t, err)
	assert.Equal(t, "=== docstore.create 1700000000123 0\n", string(d))

	_, err = FormatEvent("bad", ts, "collection")
	assert.NotNil(t, err)
	_, err = FormatEvent("bad", ts, []string{"a"}, 1)
	assert.NotNil(t, err)
}

func TestEventToFile(t *testing.T) {
	dir := t.TempDir()
	prevStdout := Stdout
	Stdout = &bytes.Buffer{}
	Init(&Config{Dir: dir})
	defer func() {
		Close()
		Stdout = prevStdout
	}()

	Event("docstore.delete", "collection", "users", "n", 1)
	EventWithDuration("docstore.update", time.Millisecond, "collection", "users")
	s := readDaily(t, filepath.Join(dir, "events"))
	assert.Equal(t, 2, strings.Count(s, "=== docstore."))
	assert.True(t, strings.Contains(s, "durmicro: 1000"), "%s", s)
}
