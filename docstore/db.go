package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DB is a directory of collections. It's safe for concurrent use.
type DB struct {
	config Config

	// path of collection file => *sync.RWMutex
	locks sync.Map
}

// Open validates config and returns a DB. The directory is created
// on first use, not here.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("must provide config")
	}
	db := &DB{
		config: *config,
	}
	if err := db.config.setDefaults(); err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(db.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", db.config.Dir, err)
	}
	db.config.Dir = dir
	return db, nil
}

// Dir returns absolute path of the directory with collection files
func (db *DB) Dir() string {
	return db.config.Dir
}

func (db *DB) logf(format string, args ...any) {
	db.config.Logf(format, args...)
}

func (db *DB) ensureDir() error {
	if err := os.MkdirAll(db.config.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", db.config.Dir, err)
	}
	return nil
}

func (db *DB) pathLock(path string) *sync.RWMutex {
	v, _ := db.locks.LoadOrStore(path, &sync.RWMutex{})
	return v.(*sync.RWMutex)
}
