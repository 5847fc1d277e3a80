package params

import (
	"reflect"
	"testing"
)

func TestTree_RoundTrip(t *testing.T) {
	in := Map{}.
		Add("courseid", Int(7)).
		Add("grades", Records(user{"a", 1}, user{"b", 2})).
		Add("prop", Record(property{user{"her name", 60}, "the owner"})).
		Add("ids", Ints(10, 11, 12))

	tree, err := Tree(MustEncode(in).Pairs())
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}

	want := map[string]any{
		"courseid": "7",
		"grades": []any{
			map[string]any{"name": "a", "age": "1"},
			map[string]any{"name": "b", "age": "2"},
		},
		"prop": map[string]any{
			"user":  map[string]any{"name": "her name", "age": "60"},
			"owner": "the owner",
		},
		"ids": []any{"10", "11", "12"},
	}
	if !reflect.DeepEqual(tree, want) {
		t.Fatalf("got %#v\nwant %#v", tree, want)
	}
}

func TestTree_NonContiguousIndicesStayMap(t *testing.T) {
	tree, err := Tree([]Pair{{Key: "p[0]", Value: "a"}, {Key: "p[2]", Value: "b"}})
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if _, ok := tree["p"].(map[string]any); !ok {
		t.Fatalf("expected map for sparse indices, got %T", tree["p"])
	}
}

func TestTree_Errors(t *testing.T) {
	cases := [][]Pair{
		{{Key: "[0]", Value: "x"}},
		{{Key: "p[0", Value: "x"}},
		{{Key: "p[0]x", Value: "x"}},
		{{Key: "p", Value: "x"}, {Key: "p[0]", Value: "y"}},
		{{Key: "p[0]", Value: "x"}, {Key: "p", Value: "y"}},
	}
	for _, c := range cases {
		if _, err := Tree(c); err == nil {
			t.Fatalf("expected error for %v", c)
		}
	}
}
