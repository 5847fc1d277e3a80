package record

import (
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Kind is the primitive type expected for a field.
type Kind uint8

const (
	Bool Kind = iota + 1
	String
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "boolean"
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "real"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is one entry of a Schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of fields extracted from one response element.
// Builder methods return a new Schema, so a Schema value is never mutated
// once shared.
//
//	grades := record.NewSchema().Int("userid").String("grade")
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema returns an empty schema.
func NewSchema() *Schema { return &Schema{index: map[string]int{}} }

// Bool appends a boolean field.
func (s *Schema) Bool(name string) *Schema { return s.with(name, Bool) }

// String appends a string field.
func (s *Schema) String(name string) *Schema { return s.with(name, String) }

// Int appends an integer field.
func (s *Schema) Int(name string) *Schema { return s.with(name, Int) }

// Float appends a real field.
func (s *Schema) Float(name string) *Schema { return s.with(name, Float) }

func (s *Schema) with(name string, kind Kind) *Schema {
	if strings.TrimSpace(name) == "" {
		panic("record: empty field name")
	}
	if _, dup := s.index[name]; dup {
		panic("record: duplicate field " + name)
	}
	next := &Schema{
		fields: append(append([]Field(nil), s.fields...), Field{Name: name, Kind: kind}),
		index:  make(map[string]int, len(s.index)+1),
	}
	for k, v := range s.index {
		next.index[k] = v
	}
	next.index[name] = len(next.fields) - 1
	return next
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns the fields in declared order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Index returns the position of the named field, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// JSONSchema describes the elements accepted by s. Listed fields are
// required; other members are allowed and ignored by Decode.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	required := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		props.Set(f.Name, &jsonschema.Schema{Type: jsonType(f.Kind)})
		required = append(required, f.Name)
	}
	return &jsonschema.Schema{
		Version:    "https://json-schema.org/draft/2020-12/schema",
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func jsonType(k Kind) string {
	switch k {
	case Bool:
		return "boolean"
	case String:
		return "string"
	case Int:
		return "integer"
	default:
		return "number"
	}
}
