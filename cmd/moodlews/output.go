package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ggoodman/moodlews-go/jsonval"
	"gopkg.in/yaml.v3"
)

func validateOutput(format string) error {
	switch format {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid output format %q: must be json or yaml", format)
	}
}

// writeElements prints data elements as JSON lines or as one YAML sequence.
func writeElements(w io.Writer, format string, elems []jsonval.Value) error {
	if format != "yaml" {
		for _, e := range elems {
			if _, err := fmt.Fprintln(w, e.String()); err != nil {
				return err
			}
		}
		return nil
	}

	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range elems {
		doc.Content = append(doc.Content, yamlNode(e))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// yamlNode converts v keeping object member order.
func yamlNode(v jsonval.Value) *yaml.Node {
	switch v.Kind() {
	case jsonval.Bool:
		b, _ := v.AsBool()
		val := "false"
		if b {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}
	case jsonval.Number:
		lit, _ := v.Literal()
		tag := "!!int"
		if strings.ContainsAny(lit, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: lit}
	case jsonval.String:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case jsonval.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v.Elements() {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case jsonval.Object:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				yamlNode(m.Value))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
