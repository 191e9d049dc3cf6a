package require

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/alecthomas/assert"
	"github.com/pmezard/go-difflib/difflib"
)

// this is a subset of github.com/stretchr/testify/require
// on top of github.com/alecthomas/assert (a testify fork),
// only the functions tests in this repo use

// TestingT is an interface wrapper around *testing.T
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Helper()
}

// failTracker records whether an assertion reported a failure
// so that we can stop the test no matter how the assertion
// itself reports it
type failTracker struct {
	t      TestingT
	failed bool
}

func (f *failTracker) Errorf(format string, args ...interface{}) {
	f.failed = true
	f.t.Errorf(format, args...)
}

func (f *failTracker) FailNow() {
	f.failed = true
	f.t.FailNow()
}

func (f *failTracker) Helper() {
	f.t.Helper()
}

func check(t TestingT, fn func(ft *failTracker)) {
	t.Helper()
	ft := &failTracker{t: t}
	fn(ft)
	if ft.failed {
		t.FailNow()
	}
}

// Len asserts that the specified object has specific length.
// Len also fails if the object has a type that len() not accept.
//
//	require.Len(t, mySlice, 3)
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.Len(ft, object, length, msgAndArgs...) })
}

// Nil asserts that the specified object is nil.
//
//	require.Nil(t, err)
func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.Nil(ft, object, msgAndArgs...) })
}

// NoError asserts that a function returned no error (i.e. `nil`).
//
//	actualObj, err := SomeFunction()
//	require.NoError(t, err)
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.NoError(ft, err, msgAndArgs...) })
}

// ErrorIs asserts that err wraps target (see errors.Is)
//
//	require.ErrorIs(t, err, docstore.ErrNotFound)
func ErrorIs(t TestingT, err error, target error, msgAndArgs ...interface{}) {
	t.Helper()
	if errors.Is(err, target) {
		return
	}
	check(t, func(ft *failTracker) {
		assert.Fail(ft, "error doesn't match target\n\terror: "+errString(err)+"\n\ttarget: "+errString(target), msgAndArgs...)
	})
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

// Equal asserts that two objects are equal.
//
//	require.Equal(t, 123, 123)
func Equal(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.Equal(ft, expected, actual, msgAndArgs...) })
}

// NotNil asserts that the specified object is not nil.
//
//	require.NotNil(t, err)
func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.NotNil(ft, object, msgAndArgs...) })
}

// True asserts that the specified value is true.
//
//	require.True(t, myBool)
func True(t TestingT, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.True(ft, value, msgAndArgs...) })
}

// False asserts that the specified value is false.
//
//	require.False(t, myBool)
func False(t TestingT, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	check(t, func(ft *failTracker) { assert.False(ft, value, msgAndArgs...) })
}

func indentJSON(d []byte) ([]byte, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

// DiffJSON returns unified diff of expected and actual after
// normalizing both (object keys sorted, indented).
// Returns "" if they are equal.
func DiffJSON(expected []byte, actual []byte) (string, error) {
	exp, err := indentJSON(expected)
	if err != nil {
		return "", err
	}
	got, err := indentJSON(actual)
	if err != nil {
		return "", err
	}
	if bytes.Equal(exp, got) {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(exp)),
		B:        difflib.SplitLines(string(got)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// EqualJSON asserts that two JSON documents are semantically equal
// and shows a diff if they are not.
//
//	require.EqualJSON(t, `{"data":[null]}`, string(d))
func EqualJSON(t TestingT, expected string, actual string, msgAndArgs ...interface{}) {
	t.Helper()
	diff, err := DiffJSON([]byte(expected), []byte(actual))
	if err != nil {
		check(t, func(ft *failTracker) { assert.Fail(ft, "invalid JSON: "+err.Error(), msgAndArgs...) })
		return
	}
	if diff == "" {
		return
	}
	check(t, func(ft *failTracker) { assert.Fail(ft, "JSON not equal:\n"+diff, msgAndArgs...) })
}
