package params

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"time"
)

// ErrEncoding is matched by every *EncodingError.
var ErrEncoding = errors.New("params: encoding error")

// EncodingError reports a parameter value the encoder cannot classify. It
// always indicates a caller bug and is never recovered.
type EncodingError struct {
	Key    string // flattened key at which encoding failed
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("params: cannot encode %q: %s", e.Key, e.Reason)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// Pair is one flattened key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Flattened is the encoder's output: unique keys in emission order.
type Flattened struct {
	pairs []Pair
	index map[string]int
}

// Len reports the number of entries.
func (f *Flattened) Len() int { return len(f.pairs) }

// Pairs returns a copy of the entries in emission order.
func (f *Flattened) Pairs() []Pair { return append([]Pair(nil), f.pairs...) }

// Keys returns the keys in emission order.
func (f *Flattened) Keys() []string {
	keys := make([]string, len(f.pairs))
	for i, p := range f.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Get returns the value stored under key.
func (f *Flattened) Get(key string) (string, bool) {
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.pairs[i].Value, true
}

// Map returns the entries as a plain map.
func (f *Flattened) Map() map[string]string {
	m := make(map[string]string, len(f.pairs))
	for _, p := range f.pairs {
		m[p.Key] = p.Value
	}
	return m
}

// AppendTo adds every entry to v and returns it. A nil v is allocated.
func (f *Flattened) AppendTo(v url.Values) url.Values {
	if v == nil {
		v = make(url.Values, len(f.pairs))
	}
	for _, p := range f.pairs {
		v.Add(p.Key, p.Value)
	}
	return v
}

func (f *Flattened) put(key, value string) error {
	if _, dup := f.index[key]; dup {
		return &EncodingError{Key: key, Reason: "duplicate key"}
	}
	f.index[key] = len(f.pairs)
	f.pairs = append(f.pairs, Pair{Key: key, Value: value})
	return nil
}

// Encode flattens named parameters into bracket-indexed keys. Sequences
// produce name[i], structured values name[field]; nesting composes left to
// right. Absent optionals are omitted.
func Encode(m Map) (*Flattened, error) {
	out := &Flattened{index: make(map[string]int)}
	for _, f := range m {
		if f.Name == "" {
			return nil, &EncodingError{Key: f.Name, Reason: "empty parameter name"}
		}
		if err := encodeValue(out, f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MustEncode is like Encode but panics on error.
func MustEncode(m Map) *Flattened {
	f, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return f
}

func encodeValue(out *Flattened, key string, v Value) error {
	switch v := v.(type) {
	case nil:
		return &EncodingError{Key: key, Reason: "nil value"}
	case Optional:
		if !v.Present {
			return nil
		}
		if _, nested := v.Value.(Optional); nested {
			return &EncodingError{Key: key, Reason: "nested optional"}
		}
		return encodeValue(out, key, v.Value)
	case Seq:
		for i, elem := range v {
			if err := encodeValue(out, key+"["+strconv.Itoa(i)+"]", elem); err != nil {
				return err
			}
		}
		return nil
	case Struct:
		return encodeFields(out, key, v)
	case structured:
		if isNil(v.s) {
			return &EncodingError{Key: key, Reason: "nil structured value"}
		}
		return encodeFields(out, key, v.s.Fields())
	case String:
		return out.put(key, string(v))
	case Int:
		return out.put(key, strconv.FormatInt(int64(v), 10))
	case Float:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return &EncodingError{Key: key, Reason: fmt.Sprintf("non-finite float %v", float64(v))}
		}
		return out.put(key, strconv.FormatFloat(float64(v), 'f', -1, 64))
	case Bool:
		if v {
			return out.put(key, "1")
		}
		return out.put(key, "0")
	case Timestamp:
		return out.put(key, strconv.FormatInt(time.Time(v).Unix(), 10))
	case EnumCode:
		if isNil(v.Enum) {
			return &EncodingError{Key: key, Reason: "nil enumeration"}
		}
		return out.put(key, strconv.Itoa(v.Enum.Code()))
	default:
		return &EncodingError{Key: key, Reason: fmt.Sprintf("unsupported value type %T", v)}
	}
}

// isNil reports whether x is nil or holds a nil pointer. Nil slices and maps
// are left alone: they are valid empty values.
func isNil(x any) bool {
	if x == nil {
		return true
	}
	rv := reflect.ValueOf(x)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func encodeFields(out *Flattened, key string, fields []Field) error {
	for _, f := range fields {
		if f.Name == "" {
			return &EncodingError{Key: key, Reason: "empty field name"}
		}
		if err := encodeValue(out, key+"["+f.Name+"]", f.Value); err != nil {
			return err
		}
	}
	return nil
}
