// Package envelope validates the top-level shape of web-service responses.
//
// A successful call answers with an object holding exactly two keys: a
// "warnings" array and one data key whose value is an array of objects. Void
// calls answer with the literal text null, which the transport recognises with
// IsVoid before any parsing happens.
package envelope

import (
	"bytes"

	"github.com/ggoodman/moodlews-go/jsonval"
)

// WarningsKey is the key every envelope carries.
const WarningsKey = "warnings"

// Envelope is a validated response.
type Envelope struct {
	// DataKey is the name of the data array, e.g. "courses" or "assignments".
	DataKey string
	// Elements are the objects of the data array, in order.
	Elements []jsonval.Value
	// Warnings is the warnings array; non-empty only when warnings were ignored.
	Warnings jsonval.Value
}

// Validate checks root against the envelope contract and extracts its data
// elements. Unless ignoreWarnings is set, a non-empty warnings array fails
// with a *WarningsError.
func Validate(root jsonval.Value, ignoreWarnings bool) (*Envelope, error) {
	if root.Kind() != jsonval.Object {
		return nil, &MalformedError{Reason: "root is a " + root.Kind().String() + ", not an object", Body: root}
	}
	warnings, ok := root.Get(WarningsKey)
	if !ok {
		return nil, &MalformedError{Reason: "missing warnings key", Body: root}
	}
	if warnings.Kind() != jsonval.Array {
		return nil, &MalformedError{Reason: "warnings is not an array", Body: root}
	}
	// Shape is checked before warnings: a three-key answer is malformed
	// whatever its warnings say.
	if root.Len() != 2 {
		return nil, &MalformedError{Reason: "expected exactly one data key besides warnings", Body: root}
	}
	if !ignoreWarnings && warnings.Len() > 0 {
		return nil, &WarningsError{Warnings: warnings}
	}

	var dataKey string
	for _, k := range root.Keys() {
		if k != WarningsKey {
			dataKey = k
		}
	}
	data, _ := root.Get(dataKey)
	if data.Kind() != jsonval.Array {
		return nil, &MalformedError{Reason: "data key " + dataKey + " is not an array", Body: root}
	}
	elems := data.Elements()
	for _, e := range elems {
		if e.Kind() != jsonval.Object {
			return nil, &MalformedError{Reason: "data key " + dataKey + " holds a " + e.Kind().String(), Body: root}
		}
	}
	return &Envelope{DataKey: dataKey, Elements: elems, Warnings: warnings}, nil
}

// Len returns the number of data elements.
func (e *Envelope) Len() int { return len(e.Elements) }

// Only returns the single data element, or false when there is not exactly one.
func (e *Envelope) Only() (jsonval.Value, bool) {
	if len(e.Elements) != 1 {
		return jsonval.Value{}, false
	}
	return e.Elements[0], true
}

// IsVoid reports whether body is the literal null returned by void calls.
func IsVoid(body []byte) bool {
	return bytes.Equal(bytes.TrimSpace(body), []byte("null"))
}
