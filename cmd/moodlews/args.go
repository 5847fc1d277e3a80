package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ggoodman/moodlews-go/jsonval"
	"github.com/ggoodman/moodlews-go/params"
	"github.com/tidwall/jsonc"
)

// parseParams turns command-line arguments into parameters, keeping their
// order. name=value is a string; name:=json is any JSON value.
func parseParams(args []string) (params.Map, error) {
	var m params.Map
	for _, arg := range args {
		if eq := strings.IndexByte(arg, '='); eq > 1 && arg[eq-1] == ':' {
			name := arg[:eq-1]
			v, err := jsonval.Parse([]byte(arg[eq+1:]))
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			pv, err := fromJSON(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			m = m.Add(name, pv)
			continue
		}
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value or name:=json", arg)
		}
		m = m.Add(name, params.String(value))
	}
	return m, nil
}

// fromJSON maps a JSON value onto a parameter value. Objects keep their member
// order; null becomes an absent optional.
func fromJSON(v jsonval.Value) (params.Value, error) {
	switch v.Kind() {
	case jsonval.Null:
		return params.None(), nil
	case jsonval.Bool:
		b, _ := v.AsBool()
		return params.Bool(b), nil
	case jsonval.String:
		s, _ := v.AsString()
		return params.String(s), nil
	case jsonval.Number:
		lit, _ := v.Literal()
		if !strings.ContainsAny(lit, ".eE") {
			i, err := v.Int()
			if err != nil {
				return nil, err
			}
			return params.Int(i), nil
		}
		f, err := v.Float()
		if err != nil {
			return nil, err
		}
		return params.Float(f), nil
	case jsonval.Array:
		seq := make(params.Seq, 0, v.Len())
		for _, e := range v.Elements() {
			pv, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			seq = append(seq, pv)
		}
		return seq, nil
	case jsonval.Object:
		st := make(params.Struct, 0, v.Len())
		for _, mem := range v.Members() {
			pv, err := fromJSON(mem.Value)
			if err != nil {
				return nil, err
			}
			st = append(st, params.Field{Name: mem.Key, Value: pv})
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value %s", v.Kind())
	}
}

// readParamsFile reads parameters from a JSON object; comments and trailing
// commas are allowed. Members keep their order.
func readParamsFile(path string) (params.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	root, err := jsonval.Parse(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if root.Kind() != jsonval.Object {
		return nil, fmt.Errorf("%s: parameters must be an object, got %s", path, root.Kind())
	}
	var m params.Map
	for _, mem := range root.Members() {
		v, err := fromJSON(mem.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", path, mem.Key, err)
		}
		m = m.Add(mem.Key, v)
	}
	return m, nil
}
