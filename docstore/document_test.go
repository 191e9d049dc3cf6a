package docstore

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/flatstore/require"
)

func TestParseDocument(t *testing.T) {
	doc, err := parseDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, len(doc.Data))

	doc, err = parseDocument([]byte(` {"data":[{"a":1},null,{}],"extra":true} `))
	require.NoError(t, err)
	require.Len(t, doc.Data, 3)
	assert.Equal(t, Record{"a": json.Number("1")}, doc.Data[0])
	assert.Nil(t, doc.Data[1])
	assert.Equal(t, Record{}, doc.Data[2])
	assert.Equal(t, 2, doc.Live())

	bad := []string{` `, `null`, `"data"`, `{}`, `{"data":1}`, `{"data":[[]]}`, `{"data":[true]}`}
	for _, s := range bad {
		_, err = parseDocument([]byte(s))
		assert.Error(t, err, s)
	}
}

func TestMarshalDocument(t *testing.T) {
	d, err := marshalDocument(nil, false)
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(d))

	d, err = marshalDocument(&Document{}, true)
	require.NoError(t, err)
	require.EqualJSON(t, `{"data":[]}`, string(d))

	doc := &Document{
		Data: []Record{nil, {"s": "a&b", "n": json.Number("1e3")}},
	}
	d, err = marshalDocument(doc, false)
	require.NoError(t, err)
	assert.Equal(t, `{"data":[null,{"n":1e3,"s":"a&b"}]}`, string(d))

	d, err = marshalDocument(doc, true)
	require.NoError(t, err)
	assert.Contains(t, string(d), "\n")
	doc2, err := parseDocument(d)
	require.NoError(t, err)
	assert.Equal(t, doc, doc2)
}
