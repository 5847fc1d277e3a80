package jsonval

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{`null`, Null},
		{`true`, Bool},
		{` false `, Bool},
		{`12`, Number},
		{`-3.25e2`, Number},
		{`"x"`, String},
		{`[]`, Array},
		{`{}`, Object},
	}
	for _, tt := range tests {
		v, err := Parse([]byte(tt.in))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.in, err)
		}
		if v.Kind() != tt.kind {
			t.Fatalf("Parse(%q) kind = %s, want %s", tt.in, v.Kind(), tt.kind)
		}
	}
}

func TestParse_ObjectKeepsOrder(t *testing.T) {
	v, err := Parse([]byte(`{"warnings":[],"courses":[{"id":4,"shortname":"a\"b"}],"alpha":null}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := v.Keys(), []string{"warnings", "courses", "alpha"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	courses, _ := v.Get("courses")
	if courses.Kind() != Array || courses.Len() != 1 {
		t.Fatalf("unexpected courses %s", courses)
	}
	course, _ := courses.Index(0)
	name, _ := course.Get("shortname")
	if s, ok := name.AsString(); !ok || s != `a"b` {
		t.Fatalf("shortname = %q", s)
	}
	alpha, ok := v.Get("alpha")
	if !ok || !alpha.IsNull() {
		t.Fatalf("alpha should be present and null")
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{
		``, `   `, `{} x`, `[1] [2]`,
		`{"a":1,}`, `{"a":{"b":1 , }}`, `[1,]`, `[[1],[2,] ]`,
		`01`, `-01`, `1.`, `.5`, `0x1p4`, `-`, `1e`, `1e+`, `+1`, `[1, 0x10]`,
		"\"a\x01b\"", "{\"k\":\"tab\there\"}", "[\"nl\nx\"]",
	} {
		_, err := Parse([]byte(in))
		if !errors.Is(err, ErrSyntax) {
			t.Fatalf("Parse(%q) err = %v, want ErrSyntax", in, err)
		}
	}
}

func TestNumbers(t *testing.T) {
	v, _ := Parse([]byte(`73`))
	if i, err := v.Int(); err != nil || i != 73 {
		t.Fatalf("Int() = %d, %v", i, err)
	}
	v, _ = Parse([]byte(`-7.9`))
	if i, err := v.Int(); err != nil || i != -7 {
		t.Fatalf("Int() should truncate toward zero, got %d, %v", i, err)
	}
	if f, err := v.Float(); err != nil || f != -7.9 {
		t.Fatalf("Float() = %v, %v", f, err)
	}
	if _, err := StringValue("1").Int(); err == nil {
		t.Fatalf("expected error converting a string")
	}
	for _, lit := range []string{"abc", "0x1p4", "01", "1.", "Inf", "NaN", " 1"} {
		if _, err := NumberValue(lit); err == nil {
			t.Fatalf("NumberValue(%q) should fail", lit)
		}
	}
	for _, lit := range []string{"0", "-0", "10", "1.5", "-2.5e-3", "1E9", "0.0e+0"} {
		if _, err := NumberValue(lit); err != nil {
			t.Fatalf("NumberValue(%q): %v", lit, err)
		}
	}
	if _, err := FloatValue(1e300).Int(); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestParse_CommaInsideStrings(t *testing.T) {
	v, err := Parse([]byte(`{"a":",", "b":[",", "x,"]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := v.String(); got != `{"a":",","b":[",","x,"]}` {
		t.Fatalf("String() = %s", got)
	}
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	in := `{"b":[1,2.5,true,null,"x\ny"],"a":{"z":1,"y":{}}}`
	v, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := v.String(); got != in {
		t.Fatalf("String() = %s, want %s", got, in)
	}
}

func TestObjectValue_DuplicateKeys(t *testing.T) {
	v := ObjectValue(Member{"a", IntValue(1)}, Member{"b", IntValue(2)}, Member{"a", IntValue(3)})
	if !reflect.DeepEqual(v.Keys(), []string{"a", "b"}) {
		t.Fatalf("keys = %v", v.Keys())
	}
	a, _ := v.Get("a")
	if i, _ := a.Int(); i != 3 {
		t.Fatalf("a = %d, want last value 3", i)
	}
}

func TestAccessorsOnWrongKind(t *testing.T) {
	v := StringValue("s")
	if v.Keys() != nil || v.Elements() != nil || v.Members() != nil || v.Len() != 0 {
		t.Fatalf("container accessors must be empty on a string")
	}
	if _, ok := v.Get("k"); ok {
		t.Fatalf("Get on a string must fail")
	}
	if _, ok := v.AsBool(); ok {
		t.Fatalf("AsBool on a string must fail")
	}
	if _, ok := v.Literal(); ok {
		t.Fatalf("Literal on a string must fail")
	}
}
