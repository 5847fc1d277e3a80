package jsonval

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrSyntax is matched by errors returned from Parse.
var ErrSyntax = errors.New("jsonval: syntax error")

// SyntaxError describes input Parse could not turn into a value.
type SyntaxError struct {
	Reason string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jsonval: %s: %v", e.Reason, e.Err)
	}
	return "jsonval: " + e.Reason
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse decodes a single JSON document.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, &SyntaxError{Reason: "empty document"}
	}
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, &SyntaxError{Reason: "invalid document", Err: err}
	}
	if end < len(data) && len(bytes.TrimSpace(data[end:])) > 0 {
		return Value{}, &SyntaxError{Reason: "trailing data after document"}
	}
	return build(raw, typ)
}

func build(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.Null:
		return NullValue(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, &SyntaxError{Reason: "invalid boolean", Err: err}
		}
		return BoolValue(b), nil
	case jsonparser.Number:
		v, err := NumberValue(string(raw))
		if err != nil {
			return Value{}, &SyntaxError{Reason: "invalid number", Err: err}
		}
		return v, nil
	case jsonparser.String:
		if i := bytes.IndexFunc(raw, func(r rune) bool { return r < 0x20 }); i >= 0 {
			return Value{}, &SyntaxError{Reason: fmt.Sprintf("control character %#02x in string", raw[i])}
		}
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, &SyntaxError{Reason: "invalid string", Err: err}
		}
		return StringValue(s), nil
	case jsonparser.Array:
		if trailingComma(raw) {
			return Value{}, &SyntaxError{Reason: "trailing comma in array"}
		}
		elems := []Value{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			elem, err := build(value, dataType)
			if err != nil {
				inner = err
				return
			}
			elems = append(elems, elem)
		})
		if inner != nil {
			return Value{}, inner
		}
		if err != nil {
			return Value{}, &SyntaxError{Reason: "invalid array", Err: err}
		}
		return Value{kind: Array, arr: elems}, nil
	case jsonparser.Object:
		if trailingComma(raw) {
			return Value{}, &SyntaxError{Reason: "trailing comma in object"}
		}
		var members []Member
		err := jsonparser.ObjectEach(raw, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
			elem, err := build(value, dataType)
			if err != nil {
				return err
			}
			members = append(members, Member{Key: string(key), Value: elem})
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrSyntax) {
				return Value{}, err
			}
			return Value{}, &SyntaxError{Reason: "invalid object", Err: err}
		}
		return ObjectValue(members...), nil
	default:
		return Value{}, &SyntaxError{Reason: fmt.Sprintf("unexpected token %q", truncate(raw))}
	}
}

// trailingComma reports whether the last token before the closing bracket of
// a container is a comma. jsonparser skips it.
func trailingComma(raw []byte) bool {
	if len(raw) < 2 {
		return false
	}
	inner := bytes.TrimRight(raw[:len(raw)-1], " \t\r\n")
	return len(inner) > 0 && inner[len(inner)-1] == ','
}

func truncate(b []byte) string {
	const max = 32
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
