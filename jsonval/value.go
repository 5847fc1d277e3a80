// Package jsonval is a small, closed JSON value model. Unlike decoding into
// interface{}, every value carries an explicit Kind so consumers branch on a
// fixed tag set, objects remember their key order, and numbers keep their
// literal text until a caller asks for an integer or a float.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Kind enumerates the JSON value kinds.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents, or the literal text of a number
	arr  []Value
	keys []string
	obj  map[string]Value
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{} }

// BoolValue returns a JSON boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// StringValue returns a JSON string.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// IntValue returns a JSON number holding an integer.
func IntValue(i int64) Value { return Value{kind: Number, s: strconv.FormatInt(i, 10)} }

// FloatValue returns a JSON number holding f.
func FloatValue(f float64) Value {
	return Value{kind: Number, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// numberGrammar is the JSON number production. strconv accepts more, such as
// hex floats, leading zeros and "1.".
var numberGrammar = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// NumberValue returns a JSON number from its literal text. The literal must
// be a valid JSON number.
func NumberValue(lit string) (Value, error) {
	if !numberGrammar.MatchString(lit) {
		return Value{}, fmt.Errorf("jsonval: invalid number %q", lit)
	}
	return Value{kind: Number, s: lit}, nil
}

// ArrayValue returns a JSON array of elems.
func ArrayValue(elems ...Value) Value {
	return Value{kind: Array, arr: append([]Value{}, elems...)}
}

// ObjectValue returns a JSON object of members. A repeated key keeps its
// first position and its last value.
func ObjectValue(members ...Member) Value {
	v := Value{kind: Object, obj: make(map[string]Value, len(members))}
	for _, m := range members {
		if _, seen := v.obj[m.Key]; !seen {
			v.keys = append(v.keys, m.Key)
		}
		v.obj[m.Key] = m.Value
	}
	return v
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == Null }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == Bool }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// Literal returns the literal text of a number.
func (v Value) Literal() (string, bool) {
	if v.kind != Number {
		return "", false
	}
	return v.s, true
}

// Int converts a number to an integer, truncating any fractional part.
func (v Value) Int() (int64, error) {
	if v.kind != Number {
		return 0, fmt.Errorf("jsonval: %s is not a number", v.kind)
	}
	if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, fmt.Errorf("jsonval: invalid number %q", v.s)
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("jsonval: number %s overflows int64", v.s)
	}
	return int64(f), nil
}

// Float converts a number to a float64.
func (v Value) Float() (float64, error) {
	if v.kind != Number {
		return 0, fmt.Errorf("jsonval: %s is not a number", v.kind)
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, fmt.Errorf("jsonval: invalid number %q", v.s)
	}
	return f, nil
}

// Len returns the number of elements of an array or members of an object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.keys)
	default:
		return 0
	}
}

// Elements returns the elements of an array, or nil for other kinds.
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	return append([]Value(nil), v.arr...)
}

// Index returns element i of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Keys returns the keys of an object in document order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Get returns the member named key of an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	m, ok := v.obj[key]
	return m, ok
}

// Has reports whether an object has a member named key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Members returns the members of an object in document order.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	out := make([]Member, len(v.keys))
	for i, k := range v.keys {
		out[i] = Member{Key: k, Value: v.obj[k]}
	}
	return out
}

// MarshalJSON renders v as compact JSON, keeping object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders v as compact JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

func (v Value) write(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(v.s)
	case String:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.write(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.obj[k].write(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("jsonval: unknown kind %d", v.kind)
	}
	return nil
}
