package envelope

import (
	"errors"
	"testing"

	"github.com/ggoodman/moodlews-go/jsonval"
)

func mustParse(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%s) failed: %v", s, err)
	}
	return v
}

func TestValidate_Success(t *testing.T) {
	env, err := Validate(mustParse(t, `{"warnings":[],"data":[{"id":1},{"id":2}]}`), false)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if env.DataKey != "data" {
		t.Fatalf("DataKey = %q", env.DataKey)
	}
	if env.Len() != 2 {
		t.Fatalf("expected 2 elements, got %d", env.Len())
	}
	id, _ := env.Elements[1].Get("id")
	if i, _ := id.Int(); i != 2 {
		t.Fatalf("elements out of order")
	}
	if _, ok := env.Only(); ok {
		t.Fatalf("Only must fail with two elements")
	}
}

func TestValidate_DataKeyFirst(t *testing.T) {
	env, err := Validate(mustParse(t, `{"courses":[],"warnings":[]}`), false)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if env.DataKey != "courses" || env.Len() != 0 {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestValidate_Warnings(t *testing.T) {
	doc := mustParse(t, `{"warnings":[{"item":"course","itemid":3,"warningcode":"1","message":"x"}],"data":[]}`)

	_, err := Validate(doc, false)
	if !errors.Is(err, ErrServerWarning) {
		t.Fatalf("expected ErrServerWarning, got %v", err)
	}
	var werr *WarningsError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WarningsError, got %T", err)
	}
	details := werr.Details()
	if len(details) != 1 || details[0].ItemID != 3 || details[0].Message != "x" || details[0].Item != "course" {
		t.Fatalf("unexpected details %+v", details)
	}

	env, err := Validate(doc, true)
	if err != nil {
		t.Fatalf("Validate with ignoreWarnings failed: %v", err)
	}
	if env.Len() != 0 || env.Warnings.Len() != 1 {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestValidate_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		ignore bool
	}{
		{"array root", `[]`, true},
		{"null root", `null`, true},
		{"missing warnings", `{"data":[]}`, true},
		{"warnings not array", `{"warnings":{},"data":[]}`, true},
		{"three keys", `{"warnings":[],"data":[],"extra":[]}`, false},
		{"three keys ignoring warnings", `{"warnings":[{"m":1}],"data":[],"extra":[]}`, true},
		{"only warnings", `{"warnings":[]}`, false},
		{"data not array", `{"warnings":[],"data":{}}`, false},
		{"element not object", `{"warnings":[],"data":[{"a":1},2]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(mustParse(t, tt.doc), tt.ignore)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			var merr *MalformedError
			if !errors.As(err, &merr) || merr.Body.Kind() == jsonval.Null && tt.doc != "null" {
				t.Fatalf("malformed error must carry the body, got %v", err)
			}
		})
	}
}

func TestValidate_KeyCountCheckedBeforeWarnings(t *testing.T) {
	_, err := Validate(mustParse(t, `{"warnings":[{"m":1}],"data":[],"extra":[]}`), false)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestValidate_WarningsOnMalformedData(t *testing.T) {
	// Two keys, non-empty warnings: warnings win over the data check.
	_, err := Validate(mustParse(t, `{"warnings":[{"m":1}],"data":{}}`), false)
	if !errors.Is(err, ErrServerWarning) {
		t.Fatalf("expected ErrServerWarning, got %v", err)
	}
}

func TestIsVoid(t *testing.T) {
	for in, want := range map[string]bool{"null": true, " null\n": true, "{}": false, "": false, "nul": false} {
		if got := IsVoid([]byte(in)); got != want {
			t.Fatalf("IsVoid(%q) = %v, want %v", in, got, want)
		}
	}
}
