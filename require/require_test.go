package require

import (
	"fmt"
	"testing"

	"github.com/alecthomas/assert"
)

type fakeT struct {
	failed bool
	msgs   []string
}

func (f *fakeT) Errorf(format string, args ...interface{}) {
	f.msgs = append(f.msgs, fmt.Sprintf(format, args...))
}

func (f *fakeT) FailNow() {
	f.failed = true
}

func (f *fakeT) Helper() {}

func TestDiffJSON(t *testing.T) {
	diff, err := DiffJSON([]byte(`{"b":1,"a":[1,null]}`), []byte(`{"a":[1,null],"b":1}`))
	assert.Nil(t, err)
	assert.Equal(t, "", diff)

	diff, err = DiffJSON([]byte(`{"a":1}`), []byte(`{"a":"1"}`))
	assert.Nil(t, err)
	assert.NotEqual(t, "", diff)
	assert.Contains(t, diff, `-  "a": 1`)
	assert.Contains(t, diff, `+  "a": "1"`)

	_, err = DiffJSON([]byte(`{`), []byte(`{}`))
	assert.NotNil(t, err)
}

func TestEqualJSON(t *testing.T) {
	ft := &fakeT{}
	EqualJSON(ft, `{"data":[]}`, `{ "data": [] }`)
	assert.False(t, ft.failed)

	EqualJSON(ft, `{"data":[]}`, `{"data":[null]}`)
	assert.True(t, ft.failed)
	assert.True(t, len(ft.msgs) > 0)
}

func TestErrorIs(t *testing.T) {
	errBase := fmt.Errorf("base")
	ft := &fakeT{}
	ErrorIs(ft, fmt.Errorf("wrapped: %w", errBase), errBase)
	assert.False(t, ft.failed)
	ErrorIs(ft, nil, errBase)
	assert.True(t, ft.failed)
}
