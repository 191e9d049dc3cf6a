// Package snapshot backs up and restores all collections of a docstore.DB.
//
// A snapshot is JSON lines: a header followed by one line per collection.
//
//	{"flatstore_snapshot":1,"created":1700000000,"collections":2}
//	{"name":"users","created":1690000000,"data":[{"name":"A"},null]}
//	{"name":"posts","created":1690000001,"data":[]}
//
// Tombstones are kept so keys of records don't change after restore.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kjk/flatstore/docstore"
	"github.com/kjk/flatstore/log"
)

// Version is the version of snapshot format we write and understand
const Version = 1

// Header is the first line of a snapshot
type Header struct {
	Version     int   `json:"flatstore_snapshot"`
	Created     int64 `json:"created"`
	Collections int   `json:"collections"`
}

// Collection is a single collection in a snapshot
type Collection struct {
	Name string `json:"name"`
	// Unix timestamp, 0 if unknown
	Created int64             `json:"created"`
	Data    []docstore.Record `json:"data"`
}

// ErrInvalid is returned when reading data that is not a valid snapshot
var ErrInvalid = errors.New("invalid snapshot")

func writeLine(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func loadCollections(db *docstore.DB) ([]*Collection, error) {
	infos, err := db.List(true)
	if err != nil {
		return nil, err
	}
	var res []*Collection
	for _, ci := range infos {
		// could have been dropped after List, Load would re-create it
		if !db.Exists(ci.Name) {
			continue
		}
		doc, err := db.Load(ci.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load collection '%s': %w", ci.Name, err)
		}
		c := &Collection{
			Name:    ci.Name,
			Created: ci.Created,
			Data:    doc.Data,
		}
		if c.Data == nil {
			c.Data = []docstore.Record{}
		}
		res = append(res, c)
	}
	return res, nil
}

// Write writes a snapshot of all collections in db to w and returns
// the number of collections written.
// Each collection is consistent but collections are loaded one by one,
// so a snapshot taken during writes is not consistent across collections.
func Write(db *docstore.DB, w io.Writer) (int, error) {
	colls, err := loadCollections(db)
	if err != nil {
		return 0, err
	}
	hdr := &Header{
		Version:     Version,
		Created:     time.Now().Unix(),
		Collections: len(colls),
	}
	bw := bufio.NewWriter(w)
	if err = writeLine(bw, hdr); err != nil {
		return 0, err
	}
	for _, c := range colls {
		if err = writeLine(bw, c); err != nil {
			return 0, fmt.Errorf("failed to write collection '%s': %w", c.Name, err)
		}
	}
	if err = bw.Flush(); err != nil {
		return 0, err
	}
	return len(colls), nil
}

// Read reads a snapshot from r and calls fn for each collection
func Read(r io.Reader, fn func(c *Collection) error) (*Header, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	dec.UseNumber()
	var hdr Header
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %s", ErrInvalid, err)
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalid, hdr.Version)
	}
	n := 0
	for {
		var c Collection
		err := dec.Decode(&c)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: collection %d: %s", ErrInvalid, n, err)
		}
		if docstore.Sanitize(c.Name) != c.Name {
			return nil, fmt.Errorf("%w: collection %d: invalid name '%s'", ErrInvalid, n, c.Name)
		}
		n++
		if err = fn(&c); err != nil {
			return nil, err
		}
	}
	if n != hdr.Collections {
		return nil, fmt.Errorf("%w: expected %d collections, got %d", ErrInvalid, hdr.Collections, n)
	}
	return &hdr, nil
}

// Restore reads a snapshot from r and stores its collections in db,
// overwriting collections with the same name. Collections not in the
// snapshot are not changed. Returns the number of restored collections.
func Restore(db *docstore.DB, r io.Reader) (int, error) {
	n := 0
	_, err := Read(r, func(c *Collection) error {
		created := time.Now()
		if c.Created > 0 {
			created = time.Unix(c.Created, 0)
		}
		if _, err := db.CreateAt(c.Name, created); err != nil {
			return err
		}
		doc := &docstore.Document{
			Data: c.Data,
		}
		if err := db.Store(c.Name, doc); err != nil {
			return fmt.Errorf("failed to restore collection '%s': %w", c.Name, err)
		}
		log.Verbosef("snapshot: restored '%s', %d records\n", c.Name, doc.Live())
		n++
		return nil
	})
	return n, err
}
