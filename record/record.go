// Package record decodes response elements into typed Go values.
//
// A Schema lists the primitive fields to extract, in order. Decode checks
// every field against the element and yields a Record whose values are
// addressed positionally; a Decoder pairs a Schema with a constructor so call
// sites obtain their own struct types without reflection:
//
//	var gradeDecoder = record.NewDecoder(
//	    record.NewSchema().Int("userid").String("grade"),
//	    func(r record.Record) Grade { return Grade{UserID: r.Int(0), Grade: r.String(1)} },
//	)
//
// Decoding never constructs a partial value. The first field, in declared
// order, that is missing or mistyped aborts the whole element.
package record

import (
	"fmt"

	"github.com/ggoodman/moodlews-go/jsonval"
)

type value struct {
	b bool
	s string
	i int64
	f float64
}

// Record holds the decoded fields of one element, positionally matching its
// Schema. Accessors panic when asked for a kind the schema does not declare
// at that position.
type Record struct {
	schema *Schema
	values []value
}

// Schema returns the schema the record was decoded with.
func (r Record) Schema() *Schema { return r.schema }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.values) }

func (r Record) at(i int, k Kind) value {
	if f := r.schema.fields[i]; f.Kind != k {
		panic(fmt.Sprintf("record: field %d (%s) is %s, not %s", i, f.Name, f.Kind, k))
	}
	return r.values[i]
}

// Bool returns field i as a boolean.
func (r Record) Bool(i int) bool { return r.at(i, Bool).b }

// String returns field i as a string.
func (r Record) String(i int) string { return r.at(i, String).s }

// Int returns field i as an integer.
func (r Record) Int(i int) int64 { return r.at(i, Int).i }

// Float returns field i as a real.
func (r Record) Float(i int) float64 { return r.at(i, Float).f }

// Named returns the position of the named field; it panics when the schema
// has no such field.
func (r Record) Named(name string) int {
	i := r.schema.Index(name)
	if i < 0 {
		panic("record: no field " + name)
	}
	return i
}

// Decode extracts the schema's fields from obj.
func Decode(obj jsonval.Value, schema *Schema) (Record, error) {
	if obj.Kind() != jsonval.Object {
		return Record{}, &TypeMismatchError{Expected: "object", Observed: obj.Kind()}
	}
	values := make([]value, len(schema.fields))
	for i, f := range schema.fields {
		v, ok := obj.Get(f.Name)
		if !ok {
			return Record{}, &MissingFieldError{Field: f.Name}
		}
		dv, err := decodeField(f, v)
		if err != nil {
			return Record{}, err
		}
		values[i] = dv
	}
	return Record{schema: schema, values: values}, nil
}

func decodeField(f Field, v jsonval.Value) (value, error) {
	mismatch := &TypeMismatchError{Field: f.Name, Expected: f.Kind.String(), Observed: v.Kind()}
	switch v.Kind() {
	case jsonval.Bool:
		if f.Kind != Bool {
			return value{}, mismatch
		}
		b, _ := v.AsBool()
		return value{b: b}, nil
	case jsonval.String:
		if f.Kind != String {
			return value{}, mismatch
		}
		s, _ := v.AsString()
		return value{s: s}, nil
	case jsonval.Number:
		switch f.Kind {
		case Int:
			i, err := v.Int()
			if err != nil {
				mismatch.Err = err
				return value{}, mismatch
			}
			return value{i: i}, nil
		case Float:
			fl, err := v.Float()
			if err != nil {
				mismatch.Err = err
				return value{}, mismatch
			}
			return value{f: fl}, nil
		default:
			return value{}, mismatch
		}
	case jsonval.Null, jsonval.Array, jsonval.Object:
		return value{}, mismatch
	default:
		return value{}, mismatch
	}
}

// Decoder couples a Schema with the constructor of a typed value.
type Decoder[T any] struct {
	schema *Schema
	build  func(Record) T
}

// NewDecoder returns a Decoder producing T from elements matching schema.
func NewDecoder[T any](schema *Schema, build func(Record) T) *Decoder[T] {
	return &Decoder[T]{schema: schema, build: build}
}

// Schema returns the decoder's schema.
func (d *Decoder[T]) Schema() *Schema { return d.schema }

// Decode converts one element.
func (d *Decoder[T]) Decode(obj jsonval.Value) (T, error) {
	r, err := Decode(obj, d.schema)
	if err != nil {
		var zero T
		return zero, err
	}
	return d.build(r), nil
}

// DecodeAll converts every element, failing on the first bad one.
func (d *Decoder[T]) DecodeAll(objs []jsonval.Value) ([]T, error) {
	out := make([]T, 0, len(objs))
	for i, o := range objs {
		v, err := d.Decode(o)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
