package docstore

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/flatstore/require"
)

func TestResult(t *testing.T) {
	r := Result{
		Key:    2,
		Record: Record{"name": "<b>", "n": json.Number("1.50")},
	}
	m := r.Fields()
	assert.Equal(t, Record{"name": "<b>", "n": json.Number("1.50"), "key": 2}, m)
	_, ok := r.Record[KeyField]
	assert.False(t, ok)

	d, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"key":2,"n":1.50,"name":"<b>"}`, string(d))

	// json.Marshal escapes HTML in the output of MarshalJSON
	d, err = json.Marshal([]Result{r})
	require.NoError(t, err)
	require.EqualJSON(t, `[{"key":2,"n":1.50,"name":"<b>"}]`, string(d))
}

func TestLimit(t *testing.T) {
	s := []int{1, 2, 3}
	_, err := Limit(s, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Limit(s, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	res, err := Limit(s, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res)
	res, err = Limit(s, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, res)

	res2, err := Limit([]Result{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, len(res2))
}
