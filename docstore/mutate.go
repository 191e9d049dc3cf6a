package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kjk/flatstore/log"
)

// Insert appends records to a collection and returns how many were
// inserted. Keys of new records are consecutive, starting at the
// current length of the collection (including deleted records).
//
// It's all or nothing: if any record has KeyField or can't be
// serialized, nothing is inserted.
func (db *DB) Insert(name string, recs ...Record) (int, error) {
	toAdd := make([]Record, 0, len(recs))
	for i, r := range recs {
		nr, err := normalizeRecord(r)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if _, ok := nr[KeyField]; ok {
			return 0, fmt.Errorf("record %d: %w", i, ErrReservedField)
		}
		toAdd = append(toAdd, nr)
	}
	if len(toAdd) == 0 {
		return 0, db.Ensure(name)
	}
	n, err := db.modify(name, func(doc *Document) int {
		doc.Data = append(doc.Data, toAdd...)
		return len(toAdd)
	})
	if err != nil {
		return 0, err
	}
	log.Event("docstore.insert", "collection", Sanitize(name), "n", n)
	return n, nil
}

// ParseRecords parses a JSON object or an array of objects
func ParseRecords(d []byte) ([]Record, error) {
	v, err := decodeJSON(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	switch v := v.(type) {
	case map[string]any:
		return []Record{v}, nil
	case []any:
		recs := make([]Record, len(v))
		for i, el := range v {
			m, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %s, expected an object", ErrInvalidArgument, i, jsonTypeName(el))
			}
			recs[i] = m
		}
		return recs, nil
	}
	return nil, fmt.Errorf("%w: got %s, expected an object or an array of objects", ErrInvalidArgument, jsonTypeName(v))
}

// InsertJSON is like Insert but records are given as JSON: an object
// or an array of objects
func (db *DB) InsertJSON(name string, d []byte) (int, error) {
	recs, err := ParseRecords(d)
	if err != nil {
		return 0, err
	}
	return db.Insert(name, recs...)
}

// Update sets fields in records selected by the filter and returns
// the number of updated records. Fields not in set are kept.
func (db *DB) Update(name string, f Filter, set Record) (int, error) {
	if set == nil {
		return 0, fmt.Errorf("%w: update without fields to set", ErrInvalidArgument)
	}
	set, err := normalizeRecord(set)
	if err != nil {
		return 0, err
	}
	if _, ok := set[KeyField]; ok {
		return 0, fmt.Errorf("set: %w", ErrReservedField)
	}
	flt, err := compileFilter(f)
	if err != nil {
		return 0, err
	}
	n, err := db.modify(name, func(doc *Document) int {
		res := flt.match(doc)
		for _, r := range res {
			for k, v := range set {
				r.Record[k] = v
			}
		}
		return len(res)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Event("docstore.update", "collection", Sanitize(name), "n", n)
	}
	return n, nil
}

func invalidUpdate(format string, args ...any) error {
	return fmt.Errorf("%w: update: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ParseUpdate parses JSON representation of an update:
//
//	[<filter>, {"set": {<field>: <value>, ...}}]
//
// See ParseFilter for the filter format.
func ParseUpdate(d []byte) (Filter, Record, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, invalidUpdate("%s", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, nil, invalidUpdate("expected an array [filter, spec]")
	}
	var rawFilter json.RawMessage
	if !dec.More() {
		return nil, nil, invalidUpdate("missing filter")
	}
	if err = dec.Decode(&rawFilter); err != nil {
		return nil, nil, invalidUpdate("%s", err)
	}
	f, err := ParseFilter(rawFilter)
	if err != nil {
		return nil, nil, err
	}
	if !dec.More() {
		return nil, nil, invalidUpdate("missing update spec")
	}
	var spec map[string]any
	if err = dec.Decode(&spec); err != nil {
		return nil, nil, invalidUpdate("spec: %s", err)
	}
	set, ok := spec["set"].(map[string]any)
	if !ok {
		return nil, nil, invalidUpdate(`spec must have "set" object`)
	}
	if dec.More() {
		return nil, nil, invalidUpdate("expected exactly 2 elements")
	}
	if _, err = dec.Token(); err != nil {
		return nil, nil, invalidUpdate("%s", err)
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, nil, invalidUpdate("unexpected data after update")
	}
	return f, Record(set), nil
}

// UpdateJSON is like Update but filter and fields to set are given
// as JSON, see ParseUpdate
func (db *DB) UpdateJSON(name string, d []byte) (int, error) {
	f, set, err := ParseUpdate(d)
	if err != nil {
		return 0, err
	}
	return db.Update(name, f, set)
}

// Delete removes records selected by the filter and returns the number
// of removed records. Keys of deleted records are never reused.
func (db *DB) Delete(name string, f Filter) (int, error) {
	flt, err := compileFilter(f)
	if err != nil {
		return 0, err
	}
	n, err := db.modify(name, func(doc *Document) int {
		res := flt.match(doc)
		for _, r := range res {
			doc.Data[r.Key] = nil
		}
		return len(res)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Event("docstore.delete", "collection", Sanitize(name), "n", n)
	}
	return n, nil
}
