package docstore

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/u"
)

// CollectionInfo describes a collection
type CollectionInfo struct {
	Name string `json:"name"`
	// Unix timestamp of creation, 0 if unknown
	Created int64 `json:"created,omitempty"`
	// size of the collection file in bytes
	Size int64 `json:"size,omitempty"`
}

// Exists returns true if collection file exists
func (db *DB) Exists(name string) bool {
	return u.FileExists(db.Path(name))
}

// ensure returns path of collection file, creating it if needed and
// allowed by Config.AutoCreate
func (db *DB) ensure(name string) (string, error) {
	path := db.Path(name)
	if u.FileExists(path) {
		return path, nil
	}
	if !db.config.AutoCreate {
		return "", fmt.Errorf("%w: '%s'", ErrNotFound, Sanitize(name))
	}
	if _, err := db.Create(name); err != nil {
		return "", err
	}
	return path, nil
}

// Ensure makes sure that a collection exists. If it doesn't and
// Config.AutoCreate is false, returns ErrNotFound.
func (db *DB) Ensure(name string) error {
	_, err := db.ensure(name)
	return err
}

// Create creates an empty collection. Returns false if it
// already exists.
func (db *DB) Create(name string) (bool, error) {
	return db.CreateAt(name, time.Now())
}

// CreateAt is like Create but records created as creation time
func (db *DB) CreateAt(name string, created time.Time) (bool, error) {
	if err := db.ensureDir(); err != nil {
		return false, err
	}
	path := db.Path(name)
	mu := db.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create collection '%s': %w", Sanitize(name), err)
	}
	err = db.initCollectionFile(f)
	err2 := f.Close()
	if err == nil {
		err = err2
	}
	if err != nil {
		return false, err
	}
	db.writeMeta(path, created)
	log.Event("docstore.create", "collection", Sanitize(name))
	return true, nil
}

// initCollectionFile writes an empty document to a newly created file
func (db *DB) initCollectionFile(f *os.File) error {
	err := db.retry("lock '"+f.Name()+"'", func() error {
		return tryLockFile(f, true)
	})
	if err != nil {
		return err
	}
	defer unlockFile(f)

	st, err := f.Stat()
	if err != nil {
		return err
	}
	// another process locked it before us and already wrote the content
	if st.Size() > 0 {
		return nil
	}
	d, err := marshalDocument(nil, db.config.Pretty)
	if err != nil {
		return err
	}
	if _, err = f.Write(d); err != nil {
		return err
	}
	return f.Sync()
}

// metadata is auxiliary so a failure to write it doesn't fail the operation
func (db *DB) writeMeta(path string, created time.Time) {
	s := strconv.FormatInt(created.Unix(), 10)
	err := atomicfile.WriteFile(metaPath(path), []byte(s), 0644)
	log.IfErrf(err, "docstore: failed to write metadata for '%s': %s\n", path, err)
}

func readMeta(path string) (int64, error) {
	d, err := os.ReadFile(metaPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: no metadata for '%s'", ErrNotFound, path)
		}
		return 0, err
	}
	created, err := strconv.ParseInt(strings.TrimSpace(string(d)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid metadata for '%s': %s", ErrUnavailable, path, err)
	}
	return created, nil
}

// Info returns metadata of a collection. Returns ErrNotFound if
// the metadata file doesn't exist.
func (db *DB) Info(name string) (*CollectionInfo, error) {
	path := db.Path(name)
	created, err := readMeta(path)
	if err != nil {
		return nil, err
	}
	return &CollectionInfo{
		Name:    Sanitize(name),
		Created: created,
		Size:    max(u.FileSize(path), 0),
	}, nil
}

// List returns collections in the directory, sorted by name.
// Files that don't look like collection files of this DB are skipped.
// If withMeta is true, Created and Size are filled as well.
func (db *DB) List(withMeta bool) ([]*CollectionInfo, error) {
	dir := db.config.Dir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list '%s': %w", dir, err)
	}
	var res []*CollectionInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		id, name, ok := db.parseFileName(e.Name())
		// a file of a collection created with a different secret
		if !ok || id != db.ID(name) {
			continue
		}
		ci := &CollectionInfo{
			Name: name,
		}
		if withMeta {
			path := filepath.Join(dir, e.Name())
			ci.Size = max(u.FileSize(path), 0)
			ci.Created, err = readMeta(path)
			if err != nil {
				db.logf("docstore: List: %s\n", err)
			}
		}
		res = append(res, ci)
	}
	slices.SortFunc(res, func(a, b *CollectionInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return res, nil
}

// Drop deletes a collection and its metadata. Returns false if
// the collection doesn't exist.
func (db *DB) Drop(name string) (bool, error) {
	path := db.Path(name)
	cf, err := db.openCollection(path, true)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	defer cf.release()
	// on Windows we can't delete an open file
	if err = cf.closeFile(); err != nil {
		return false, err
	}
	if err = os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to drop collection '%s': %w", Sanitize(name), err)
	}
	// goroutines already waiting on this mutex find the file gone or,
	// if it was re-created, are serialized by the OS lock
	db.locks.Delete(path)
	err = os.Remove(metaPath(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Errorf("docstore: failed to remove metadata of '%s': %s\n", path, err)
	}
	log.Event("docstore.drop", "collection", Sanitize(name))
	return true, nil
}
