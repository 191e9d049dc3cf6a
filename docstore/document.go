package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// KeyField is the name of the synthetic field with record's key.
// Records can't have a top-level field with this name.
const KeyField = "key"

// Record is a single document. Values are what encoding/json decodes
// into with UseNumber: string, json.Number, bool, nil, map[string]any
// and []any.
type Record map[string]any

// Document is the whole content of a collection. Index in Data is
// the key of a record. nil Record is a tombstone of a deleted record.
type Document struct {
	Data []Record `json:"data"`
}

// Live returns number of records that are not deleted
func (d *Document) Live() int {
	n := 0
	for _, rec := range d.Data {
		if rec != nil {
			n++
		}
	}
	return n
}

var emptyDocument = []byte(`{"data":[]}`)

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// we want the file to have "<" and not "\u003c"
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeJSON decodes a single JSON value, numbers as json.Number.
// Trailing data other than whitespace is an error.
func decodeJSON(d []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func marshalDocument(doc *Document, indent bool) ([]byte, error) {
	if doc == nil || len(doc.Data) == 0 {
		if indent {
			return pretty.Pretty(emptyDocument), nil
		}
		return emptyDocument, nil
	}
	d, err := marshalJSON(doc)
	if err != nil {
		return nil, err
	}
	if indent {
		d = pretty.Pretty(d)
	}
	return d, nil
}

// parseDocument parses content of a collection file.
// Empty content is an empty document.
func parseDocument(d []byte) (*Document, error) {
	if len(d) == 0 {
		return &Document{Data: []Record{}}, nil
	}
	v, err := decodeJSON(d)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("content is %s, expected an object", jsonTypeName(v))
	}
	data, ok := m["data"]
	if !ok {
		return nil, errors.New(`missing "data" field`)
	}
	slots, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf(`"data" is %s, expected an array`, jsonTypeName(data))
	}
	doc := &Document{
		Data: make([]Record, len(slots)),
	}
	for i, slot := range slots {
		switch rec := slot.(type) {
		case nil:
			// tombstone
		case map[string]any:
			doc.Data[i] = rec
		default:
			return nil, fmt.Errorf("slot %d is %s, expected an object or null", i, jsonTypeName(slot))
		}
	}
	return doc, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
