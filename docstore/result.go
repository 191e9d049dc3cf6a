package docstore

import "fmt"

// Result is a record returned by Find, along with its key
type Result struct {
	Key    int
	Record Record
}

// Fields returns a copy of the record with the key injected as KeyField
func (r Result) Fields() Record {
	m := make(Record, len(r.Record)+1)
	for k, v := range r.Record {
		m[k] = v
	}
	m[KeyField] = r.Key
	return m
}

// MarshalJSON serializes the result as the record with an extra
// "key" field
func (r Result) MarshalJSON() ([]byte, error) {
	return marshalJSON(map[string]any(r.Fields()))
}

// Limit returns the first n elements of s
func Limit[T any](s []T, n int) ([]T, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: limit must be a positive number, got %d", ErrInvalidArgument, n)
	}
	if n >= len(s) {
		return s, nil
	}
	return s[:n], nil
}
