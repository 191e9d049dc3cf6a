package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"strconv"
)

// Cond selects records whose Field is equal to Value
type Cond struct {
	Field string
	Value any
}

// Filter selects records of a collection.
//
// An empty filter selects all records. If the first condition is on
// KeyField, the filter selects by key: Value is a key or a list of keys
// and the remaining conditions are ignored. Otherwise a record matches
// if it has all fields with values equal to the values of conditions.
//
// Values are compared after a round-trip through JSON, so int(5) and
// json.Number("5") are equal but 5 and 5.0 and "5" are not. Go floats
// keep their fraction: float64(5) is 5.0, same as 5.0 in a JSON filter.
type Filter []Cond

// All selects all records
var All Filter

// Where returns a filter with a single condition
func Where(field string, value any) Filter {
	return Filter{{Field: field, Value: value}}
}

// And returns a copy of f with an additional condition
func (f Filter) And(field string, value any) Filter {
	res := slices.Clip(f)
	return append(res, Cond{Field: field, Value: value})
}

// Keys returns a filter that selects records by key
func Keys(keys ...int) Filter {
	switch len(keys) {
	case 0:
		// nil would be serialized as null
		return Filter{{Field: KeyField, Value: []int{}}}
	case 1:
		return Filter{{Field: KeyField, Value: keys[0]}}
	}
	return Filter{{Field: KeyField, Value: keys}}
}

func invalidFilter(format string, args ...any) error {
	return fmt.Errorf("%w: filter: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ParseFilter parses JSON representation of a filter: a string "all"
// or an object. Order of fields in the object is preserved.
//
//	"all"
//	{}
//	{"key": [0, 2]}
//	{"name": "A", "age": 30}
func ParseFilter(d []byte) (Filter, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, invalidFilter("%s", err)
	}
	var f Filter
	switch v := tok.(type) {
	case string:
		if v != "all" {
			return nil, invalidFilter("unknown filter '%s'", v)
		}
		f = All
	case json.Delim:
		if v != '{' {
			return nil, invalidFilter("expected an object, got '%s'", v)
		}
		f = Filter{}
		for dec.More() {
			tok, err = dec.Token()
			if err != nil {
				return nil, invalidFilter("%s", err)
			}
			// inside an object a token is always a string key
			field := tok.(string)
			var val any
			if err = dec.Decode(&val); err != nil {
				return nil, invalidFilter("value of '%s': %s", field, err)
			}
			f = append(f, Cond{Field: field, Value: val})
		}
		if _, err = dec.Token(); err != nil {
			return nil, invalidFilter("%s", err)
		}
	default:
		return nil, invalidFilter("expected \"all\" or an object, got '%v'", tok)
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, invalidFilter("unexpected data after filter")
	}
	return f, nil
}

// keepFloats returns a copy of v where integral floats are json.Number
// with ".0" suffix. encoding/json writes float64(5) as 5, which would
// make it equal to int 5. Fields of structs are left as they are.
func keepFloats(v any) any {
	return keepFloatsDepth(v, 0)
}

// past that it's most likely a cycle, which encoding/json reports
const maxValueDepth = 1000

func keepFloatsDepth(v any, depth int) any {
	if v == nil || depth > maxValueDepth {
		return v
	}
	if _, ok := v.(json.Marshaler); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// let encoding/json report it
			return v
		}
		d, err := json.Marshal(v)
		if err != nil {
			return v
		}
		if !bytes.ContainsAny(d, ".eE") {
			d = append(d, ".0"...)
		}
		return json.Number(d)
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = keepFloatsDepth(iter.Value().Interface(), depth+1)
		}
		return m
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		fallthrough
	case reflect.Array:
		// []byte is base64
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		a := make([]any, rv.Len())
		for i := range a {
			a[i] = keepFloatsDepth(rv.Index(i).Interface(), depth+1)
		}
		return a
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return v
		}
		return keepFloatsDepth(rv.Elem().Interface(), depth+1)
	}
	return v
}

// normalizeValue converts v to what encoding/json decodes with UseNumber
func normalizeValue(v any) (any, error) {
	d, err := marshalJSON(keepFloats(v))
	if err != nil {
		return nil, err
	}
	return decodeJSON(d)
}

func normalizeRecord(r Record) (Record, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: record is null", ErrInvalidArgument)
	}
	v, err := normalizeValue(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	return Record(v.(map[string]any)), nil
}

// valuesEqual compares normalized values. Numbers are equal
// if they have the same text.
func valuesEqual(a, b any) bool {
	switch va := a.(type) {
	case nil:
		return b == nil
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case json.Number:
		vb, ok := b.(json.Number)
		return ok && va == vb
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !valuesEqual(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, v := range va {
			v2, ok := vb[k]
			if !ok || !valuesEqual(v, v2) {
				return false
			}
		}
		return true
	}
	return false
}

// compiledFilter is a Filter with normalized values
type compiledFilter struct {
	byKey bool
	keys  []int
	conds []Cond
}

func parseKey(v any) (int, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, invalidFilter("key must be an integer, got %s", jsonTypeName(v))
	}
	key, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, invalidFilter("key must be an integer, got '%s'", n)
	}
	return key, nil
}

func compileFilter(f Filter) (*compiledFilter, error) {
	cf := &compiledFilter{}
	if len(f) == 0 {
		return cf, nil
	}
	if f[0].Field == KeyField {
		cf.byKey = true
		v, err := normalizeValue(f[0].Value)
		if err != nil {
			return nil, invalidFilter("%s", err)
		}
		if list, ok := v.([]any); ok {
			for _, el := range list {
				key, err := parseKey(el)
				if err != nil {
					return nil, err
				}
				cf.keys = append(cf.keys, key)
			}
		} else {
			key, err := parseKey(v)
			if err != nil {
				return nil, err
			}
			cf.keys = []int{key}
		}
		slices.Sort(cf.keys)
		cf.keys = slices.Compact(cf.keys)
		return cf, nil
	}
	for _, c := range f {
		v, err := normalizeValue(c.Value)
		if err != nil {
			return nil, invalidFilter("value of '%s': %s", c.Field, err)
		}
		cf.conds = append(cf.conds, Cond{Field: c.Field, Value: v})
	}
	return cf, nil
}

func (cf *compiledFilter) matchRecord(rec Record) bool {
	for _, c := range cf.conds {
		v, ok := rec[c.Field]
		if !ok || !valuesEqual(v, c.Value) {
			return false
		}
	}
	return true
}

// match returns live records selected by the filter, ordered by key.
// Records in results are the records in doc, not copies.
func (cf *compiledFilter) match(doc *Document) []Result {
	res := []Result{}
	if cf.byKey {
		for _, key := range cf.keys {
			if key < 0 || key >= len(doc.Data) || doc.Data[key] == nil {
				continue
			}
			res = append(res, Result{Key: key, Record: doc.Data[key]})
		}
		return res
	}
	for key, rec := range doc.Data {
		if rec != nil && cf.matchRecord(rec) {
			res = append(res, Result{Key: key, Record: rec})
		}
	}
	return res
}
