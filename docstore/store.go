package docstore

import (
	"fmt"
	"time"

	"github.com/kjk/flatstore/log"
)

// Load returns the whole content of a collection
func (db *DB) Load(name string) (*Document, error) {
	path, err := db.ensure(name)
	if err != nil {
		return nil, err
	}
	cf, err := db.openCollection(path, false)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	return cf.read()
}

// Store replaces the whole content of a collection. Records can't
// have KeyField. Values are normalized the same way as in Insert.
func (db *DB) Store(name string, doc *Document) error {
	timeStart := time.Now()
	toStore := &Document{}
	if doc != nil {
		toStore.Data = make([]Record, len(doc.Data))
		for i, rec := range doc.Data {
			if rec == nil {
				continue
			}
			if _, ok := rec[KeyField]; ok {
				return fmt.Errorf("record %d: %w", i, ErrReservedField)
			}
			nr, err := normalizeRecord(rec)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			toStore.Data[i] = nr
		}
	}
	d, err := marshalDocument(toStore, db.config.Pretty)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	path, err := db.ensure(name)
	if err != nil {
		return err
	}
	cf, err := db.openCollection(path, true)
	if err != nil {
		return err
	}
	defer cf.Close()
	if err = cf.write(d); err != nil {
		return err
	}
	log.EventWithDuration("docstore.store", time.Since(timeStart), "collection", Sanitize(name), "size", len(d))
	return nil
}

// modify loads a collection, calls fn to change it and writes it back,
// all under exclusive lock. fn returns the number of affected records,
// if it's 0 nothing is written.
func (db *DB) modify(name string, fn func(doc *Document) int) (int, error) {
	path, err := db.ensure(name)
	if err != nil {
		return 0, err
	}
	cf, err := db.openCollection(path, true)
	if err != nil {
		return 0, err
	}
	defer cf.Close()
	doc, err := cf.read()
	if err != nil {
		return 0, err
	}
	n := fn(doc)
	if n == 0 {
		return 0, nil
	}
	d, err := marshalDocument(doc, db.config.Pretty)
	if err != nil {
		return 0, err
	}
	if err = cf.write(d); err != nil {
		return 0, err
	}
	return n, nil
}
