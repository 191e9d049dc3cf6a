package docstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"
)

// errLockBusy is returned by tryLockFile when another process
// holds a conflicting lock
var errLockBusy = errors.New("file is locked by another process")

func isTransient(err error) bool {
	return errors.Is(err, errLockBusy) || errors.Is(err, fs.ErrPermission) || isBusyError(err)
}

// retry calls fn until it succeeds, fails with non-transient error
// or we run out of attempts
func (db *DB) retry(what string, fn func() error) error {
	var err error
	for i := 0; i < db.config.Retries; i++ {
		if i > 0 {
			time.Sleep(db.config.RetryDelay)
		}
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		db.logf("docstore: %s: attempt %d of %d failed with '%s'\n", what, i+1, db.config.Retries, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, what, err)
}

// collectionFile is an open collection file, locked for reading or writing
// both within the process and across processes
type collectionFile struct {
	path      string
	f         *os.File
	mu        *sync.RWMutex
	exclusive bool
}

func (db *DB) openCollection(path string, exclusive bool) (*collectionFile, error) {
	cf := &collectionFile{
		path:      path,
		mu:        db.pathLock(path),
		exclusive: exclusive,
	}
	if exclusive {
		cf.mu.Lock()
	} else {
		cf.mu.RLock()
	}

	var f *os.File
	err := db.retry("open '"+path+"'", func() error {
		var err error
		if exclusive {
			f, err = os.OpenFile(path, os.O_RDWR, 0)
		} else {
			f, err = os.Open(path)
		}
		return err
	})
	if err != nil {
		cf.release()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrNotFound, path)
		}
		return nil, err
	}

	err = db.retry("lock '"+path+"'", func() error {
		return tryLockFile(f, exclusive)
	})
	if err != nil {
		f.Close()
		cf.release()
		return nil, err
	}
	cf.f = f
	return cf, nil
}

func (cf *collectionFile) read() (*Document, error) {
	if _, err := cf.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek '%s': %w", cf.path, err)
	}
	d, err := io.ReadAll(cf.f)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", cf.path, err)
	}
	doc, err := parseDocument(d)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %s", ErrUnavailable, cf.path, err)
	}
	return doc, nil
}

// write replaces the content of the file. We can't write to a temp file
// and rename because that would replace the file we hold the lock on.
func (cf *collectionFile) write(d []byte) error {
	if !cf.exclusive {
		panic("write() on collection opened for reading")
	}
	err := cf.f.Truncate(0)
	if err == nil {
		_, err = cf.f.WriteAt(d, 0)
	}
	if err == nil {
		err = cf.f.Sync()
	}
	if err != nil {
		return fmt.Errorf("failed to write '%s': %w", cf.path, err)
	}
	return nil
}

// closeFile releases the OS lock and closes the file. The in-process
// lock is still held.
func (cf *collectionFile) closeFile() error {
	if cf.f == nil {
		return nil
	}
	unlockFile(cf.f)
	err := cf.f.Close()
	cf.f = nil
	return err
}

func (cf *collectionFile) release() {
	if cf.exclusive {
		cf.mu.Unlock()
	} else {
		cf.mu.RUnlock()
	}
}

func (cf *collectionFile) Close() error {
	err := cf.closeFile()
	cf.release()
	return err
}
