package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tree parses flattened pairs back into a nested structure, inverting the
// bracket-index grammar. Leaves are strings; a node whose children are keyed
// 0..n-1 becomes a []any, any other node a map[string]any.
func Tree(pairs []Pair) (map[string]any, error) {
	root := map[string]any{}
	for _, p := range pairs {
		path, err := splitKey(p.Key)
		if err != nil {
			return nil, err
		}
		node := root
		for i, seg := range path {
			if i == len(path)-1 {
				if _, exists := node[seg]; exists {
					return nil, fmt.Errorf("params: key %q conflicts with another entry", p.Key)
				}
				node[seg] = p.Value
				break
			}
			child, ok := node[seg]
			if !ok {
				next := map[string]any{}
				node[seg] = next
				node = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("params: key %q descends into a scalar", p.Key)
			}
			node = next
		}
	}
	for k, v := range root {
		root[k] = collapse(v)
	}
	return root, nil
}

// splitKey turns "a[b][0]" into ["a", "b", "0"].
func splitKey(key string) ([]string, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return []string{key}, nil
	}
	if open == 0 {
		return nil, fmt.Errorf("params: key %q has an empty name", key)
	}
	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("params: malformed key %q", key)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("params: unterminated bracket in %q", key)
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path, nil
}

func collapse(node any) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	for k, v := range m {
		m[k] = collapse(v)
	}
	if len(m) == 0 {
		return m
	}
	idx := make([]int, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil || strconv.Itoa(i) != k {
			return m
		}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for want, got := range idx {
		if want != got {
			return m
		}
	}
	list := make([]any, len(idx))
	for _, i := range idx {
		list[i] = m[strconv.Itoa(i)]
	}
	return list
}
