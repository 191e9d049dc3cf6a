//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package docstore

import (
	"os"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/kjk/flatstore/require"
	"golang.org/x/sys/unix"
)

// simulates another process holding a lock on the collection file
func lockFromOutside(t *testing.T, path string, how int) func() {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	err = unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
	require.NoError(t, err)
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}
}

func TestLockContention(t *testing.T) {
	db, err := Open(&Config{
		Dir:        t.TempDir(),
		Secret:     "test secret",
		AutoCreate: true,
		Retries:    3,
		RetryDelay: time.Millisecond,
		Logf:       t.Logf,
	})
	require.NoError(t, err)
	_, err = db.Insert("c", Record{"a": 1})
	require.NoError(t, err)
	path := db.Path("c")
	before := readFile(t, path)

	unlock := lockFromOutside(t, path, unix.LOCK_EX)
	n, err := db.Insert("c", Record{"a": 2})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, n)
	_, err = db.Find("c", All)
	require.ErrorIs(t, err, ErrUnavailable)
	dropped, err := db.Drop("c")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, dropped)
	unlock()
	assert.Equal(t, before, readFile(t, path))

	// readers share the lock, writers wait for it
	unlock = lockFromOutside(t, path, unix.LOCK_SH)
	res, err := db.Find("c", All)
	require.NoError(t, err)
	assert.Equal(t, 1, len(res))
	_, err = db.Delete("c", All)
	require.ErrorIs(t, err, ErrUnavailable)
	unlock()

	// released lock is picked up by a retry
	unlock = lockFromOutside(t, path, unix.LOCK_EX)
	time.AfterFunc(20*time.Millisecond, unlock)
	db.config.Retries = 100
	db.config.RetryDelay = 5 * time.Millisecond
	n, err = db.Insert("c", Record{"a": 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
