package docstore

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/davecgh/go-spew/spew"
	"github.com/kjk/flatstore/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		s   string
		exp Filter
	}{
		{`"all"`, All},
		{` "all" `, All},
		{`{}`, Filter{}},
		{`{"key":1}`, Filter{{"key", json.Number("1")}}},
		{`{"key":[2,0]}`, Filter{{"key", []any{json.Number("2"), json.Number("0")}}}},
		{`{"b":"x","a":null,"c":{"d":[true]}}`, Filter{{"b", "x"}, {"a", nil}, {"c", map[string]any{"d": []any{true}}}}},
		{`{"name":"A","key":3}`, Filter{{"name", "A"}, {"key", json.Number("3")}}},
	}
	for _, test := range tests {
		f, err := ParseFilter([]byte(test.s))
		require.NoError(t, err, test.s)
		assert.Equal(t, test.exp, f, "%s\n%s", test.s, spew.Sdump(f))
	}

	bad := []string{``, `all`, `"none"`, `5`, `null`, `true`, `[]`, `[{}]`, `{`, `{"a":}`, `{} {}`, `"all" 1`}
	for _, s := range bad {
		_, err := ParseFilter([]byte(s))
		require.ErrorIs(t, err, ErrInvalidArgument, s)
	}
}

func TestParseUpdate(t *testing.T) {
	f, set, err := ParseUpdate([]byte(`[{"name":"A"},{"set":{"status":"x","n":1.0}}]`))
	require.NoError(t, err)
	assert.Equal(t, Filter{{"name", "A"}}, f)
	assert.Equal(t, Record{"status": "x", "n": json.Number("1.0")}, set)

	f, set, err = ParseUpdate([]byte(` [ "all" , {"set":{}} ] `))
	require.NoError(t, err)
	assert.Equal(t, All, f)
	assert.Equal(t, Record{}, set)

	bad := []string{
		``,
		`{}`,
		`[]`,
		`[{}]`,
		`[{},{}]`,
		`[{},{"set":null}]`,
		`[{},{"set":5}]`,
		`[{},{"set":[]}]`,
		`[{},5]`,
		`[5,{"set":{}}]`,
		`["none",{"set":{}}]`,
		`[{},{"set":{}},{}]`,
		`[{},{"set":{}}] 1`,
	}
	for _, s := range bad {
		_, _, err = ParseUpdate([]byte(s))
		require.ErrorIs(t, err, ErrInvalidArgument, s)
	}

	db := newTestDB(t, true)
	_, err = db.Update("c", All, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		a, b any
		exp  bool
	}{
		{nil, nil, true},
		{"a", "a", true},
		{"a", "b", false},
		{json.Number("1"), json.Number("1"), true},
		{json.Number("1"), json.Number("1.0"), false},
		{json.Number("1"), "1", false},
		{true, true, true},
		{true, "true", false},
		{nil, false, false},
		{[]any{"a", nil}, []any{"a", nil}, true},
		{[]any{"a"}, []any{"a", "a"}, false},
		{[]any{}, map[string]any{}, false},
		{map[string]any{"a": "1", "b": json.Number("2")}, map[string]any{"b": json.Number("2"), "a": "1"}, true},
		{map[string]any{"a": "1"}, map[string]any{"b": "1"}, false},
		{map[string]any{"a": nil}, map[string]any{}, false},
	}
	for i, test := range tests {
		assert.Equal(t, test.exp, valuesEqual(test.a, test.b), "test %d", i)
		assert.Equal(t, test.exp, valuesEqual(test.b, test.a), "test %d reversed", i)
	}
}

func TestFilterAnd(t *testing.T) {
	f := Where("a", 1)
	f1 := f.And("b", 2)
	f2 := f.And("c", 3)
	assert.Equal(t, Filter{{"a", 1}}, f)
	assert.Equal(t, Filter{{"a", 1}, {"b", 2}}, f1)
	assert.Equal(t, Filter{{"a", 1}, {"c", 3}}, f2)
	assert.Equal(t, Filter{{"key", []int{1, 2}}}, Keys(1, 2))
}
