package params

import (
	"time"
)

// Value is a parameter value accepted by Encode. The set of implementations is
// closed: String, Int, Float, Bool, Timestamp, EnumCode, Optional, Seq and
// Struct. Go types implementing Structured are accepted wherever a Value is
// expected through Record.
type Value interface {
	isValue()
}

// String is a string scalar, encoded verbatim.
type String string

// Int is an integer scalar, encoded in decimal.
type Int int64

// Float is a real scalar, encoded as the shortest decimal representation
// (no exponent, no thousands separator).
type Float float64

// Bool is a boolean scalar, encoded as "1" or "0".
type Bool bool

// Timestamp is an instant, encoded as epoch seconds.
type Timestamp time.Time

// Coder is implemented by enumerations that travel as integer codes.
type Coder interface {
	Code() int
}

// EnumCode wraps an enumeration; it encodes as the decimal code.
type EnumCode struct {
	Enum Coder
}

// Optional is a value that may be absent. An absent Optional produces no key.
type Optional struct {
	Value   Value
	Present bool
}

// Seq is an ordered collection; element i is encoded under name[i].
type Seq []Value

// Field is one named entry of a Struct or a Map.
type Field struct {
	Name  string
	Value Value
}

// Struct is a structured record; each field is encoded under name[field].
type Struct []Field

// Structured is implemented by Go types that describe themselves as an ordered
// list of named fields. Wrap them with Record to obtain a Value.
type Structured interface {
	Fields() []Field
}

// structured adapts a Structured to Value. The field list is resolved lazily
// at encode time.
type structured struct {
	s Structured
}

func (String) isValue()     {}
func (Int) isValue()        {}
func (Float) isValue()      {}
func (Bool) isValue()       {}
func (Timestamp) isValue()  {}
func (EnumCode) isValue()   {}
func (Optional) isValue()   {}
func (Seq) isValue()        {}
func (Struct) isValue()     {}
func (structured) isValue() {}

// Some returns a present Optional.
func Some(v Value) Optional { return Optional{Value: v, Present: true} }

// None returns an absent Optional.
func None() Optional { return Optional{} }

// Enum wraps e as an EnumCode value.
func Enum(e Coder) EnumCode { return EnumCode{Enum: e} }

// Time wraps t as a Timestamp value.
func Time(t time.Time) Timestamp { return Timestamp(t) }

// Record wraps a Structured Go type as a Value.
func Record(s Structured) Value { return structured{s: s} }

// Ints builds a Seq of Int values.
func Ints[T ~int | ~int32 | ~int64](vs ...T) Seq {
	out := make(Seq, len(vs))
	for i, v := range vs {
		out[i] = Int(v)
	}
	return out
}

// Strings builds a Seq of String values.
func Strings(vs ...string) Seq {
	out := make(Seq, len(vs))
	for i, v := range vs {
		out[i] = String(v)
	}
	return out
}

// Records builds a Seq from a slice of Structured values.
func Records[T Structured](vs ...T) Seq {
	out := make(Seq, len(vs))
	for i, v := range vs {
		out[i] = Record(v)
	}
	return out
}

// OptionalInt returns Some(Int(*p)) when p is non-nil, None otherwise.
func OptionalInt(p *int) Optional {
	if p == nil {
		return None()
	}
	return Some(Int(*p))
}

// OptionalBool returns Some(Bool(*p)) when p is non-nil, None otherwise.
func OptionalBool(p *bool) Optional {
	if p == nil {
		return None()
	}
	return Some(Bool(*p))
}

// OptionalTime returns Some(Time(*p)) when p is non-nil, None otherwise.
func OptionalTime(p *time.Time) Optional {
	if p == nil {
		return None()
	}
	return Some(Time(*p))
}

// Map is the ordered set of named parameters of one web-service call.
// Encoding iterates in insertion order.
type Map []Field

// Add appends a parameter and returns the extended map.
func (m Map) Add(name string, v Value) Map {
	return append(m, Field{Name: name, Value: v})
}

// Len reports the number of named parameters.
func (m Map) Len() int { return len(m) }
