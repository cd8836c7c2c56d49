package objdiff

import (
	"fmt"

	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/pkg/canonical"
)

const (
	attrNodes = "nodes"
	attrFlows = "flows"
)

// ParseGraph extracts process model nodes and flows from an attribute bag.
// The nodes attribute is required; flows may be absent for single-node models.
// Every flow endpoint must name a declared node.
func ParseGraph(v *mergespec.ObjectVersion) ([]mergespec.Node, []mergespec.Flow, error) {
	malformed := func(field, reason string) error {
		return &mergeerr.MalformedAttributeError{UUID: v.UUID, ObjectType: v.ObjectType, Field: field, Reason: reason}
	}

	rawNodes, ok := v.Attributes[attrNodes]
	if !ok || rawNodes == nil {
		return nil, nil, malformed(attrNodes, "is missing")
	}
	nodeItems, ok := asList(rawNodes)
	if !ok {
		return nil, nil, malformed(attrNodes, "is not a list")
	}

	nodes := make([]mergespec.Node, 0, len(nodeItems))
	seen := make(map[string]bool, len(nodeItems))
	for i, item := range nodeItems {
		m, ok := asMap(item)
		if !ok {
			return nil, nil, malformed(fmt.Sprintf("nodes[%d]", i), "is not an object")
		}
		id := scalar(m["node_id"])
		if id == "" {
			return nil, nil, malformed(fmt.Sprintf("nodes[%d].node_id", i), "is missing")
		}
		if seen[id] {
			return nil, nil, malformed(fmt.Sprintf("nodes[%d].node_id", i), fmt.Sprintf("duplicates %q", id))
		}
		seen[id] = true

		var props map[string]any
		if raw, ok := m["properties"]; ok && raw != nil {
			p, ok := asMap(raw)
			if !ok {
				return nil, nil, malformed(fmt.Sprintf("nodes[%d].properties", i), "is not an object")
			}
			props = p
		}
		nodes = append(nodes, mergespec.Node{
			ID:         id,
			Type:       scalar(m["type"]),
			Name:       scalar(m["name"]),
			Properties: props,
		})
	}

	var flows []mergespec.Flow
	if rawFlows, ok := v.Attributes[attrFlows]; ok && rawFlows != nil {
		flowItems, ok := asList(rawFlows)
		if !ok {
			return nil, nil, malformed(attrFlows, "is not a list")
		}
		flows = make([]mergespec.Flow, 0, len(flowItems))
		for i, item := range flowItems {
			m, ok := asMap(item)
			if !ok {
				return nil, nil, malformed(fmt.Sprintf("flows[%d]", i), "is not an object")
			}
			f := mergespec.Flow{
				From:      scalar(m["from_node_id"]),
				To:        scalar(m["to_node_id"]),
				Label:     scalar(m["label"]),
				Condition: scalar(m["condition"]),
			}
			if f.From == "" || f.To == "" {
				return nil, nil, malformed(fmt.Sprintf("flows[%d]", i), "lacks from_node_id or to_node_id")
			}
			if !seen[f.From] || !seen[f.To] {
				return nil, nil, malformed(fmt.Sprintf("flows[%d]", i), "references unknown node")
			}
			flows = append(flows, f)
		}
	}

	return nodes, flows, nil
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	switch v.(type) {
	case map[string]any, map[any]any:
		m, ok := canonical.Normalize(v).(map[string]any)
		return m, ok
	}
	return nil, false
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
