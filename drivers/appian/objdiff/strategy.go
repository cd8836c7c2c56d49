// Package objdiff implements the per-object-type attribute differ and the
// process model graph differ.
package objdiff

import (
	"fmt"
	"sync"

	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
	"github.com/emenda-labs/mergeassist/pkg/canonical"
	"github.com/emenda-labs/mergeassist/pkg/linediff"
)

// Strategy diffs snapshots of one object type.
type Strategy interface {
	// Kind is the shape of the deltas this strategy produces.
	Kind() mergespec.DiffKind

	// Validate reports a *errors.MalformedAttributeError when v lacks fields its type requires.
	Validate(v *mergespec.ObjectVersion) error

	// Diff compares base with other. Either side may be nil, meaning absent.
	Diff(base, other *mergespec.ObjectVersion) (*mergespec.Delta, error)

	// Fields renders every compared attribute of v as a display string, keyed by field name.
	// A nil v yields an empty map.
	Fields(v *mergespec.ObjectVersion) (map[string]string, error)
}

// Registry dispatches object types to strategies by their catalogue capability.
// Explicitly registered strategies take precedence.
type Registry struct {
	catalogue *objects.Catalogue

	mu        sync.RWMutex
	overrides map[string]Strategy
}

// NewRegistry creates a Registry over the given catalogue.
func NewRegistry(catalogue *objects.Catalogue) *Registry {
	if catalogue == nil {
		catalogue = objects.NewCatalogue()
	}
	return &Registry{catalogue: catalogue, overrides: make(map[string]Strategy)}
}

// Register installs a custom strategy for objectType.
func (r *Registry) Register(objectType string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[objectType] = s
}

// For returns the strategy for objectType.
func (r *Registry) For(objectType string) Strategy {
	r.mu.RLock()
	s, ok := r.overrides[objectType]
	r.mu.RUnlock()
	if ok {
		return s
	}

	spec := r.catalogue.Lookup(objectType)
	if spec.Capability == objects.GraphBased {
		return graphStrategy{spec: spec}
	}
	return lineStrategy{spec: spec}
}

// Capability returns the catalogue capability of objectType.
func (r *Registry) Capability(objectType string) objects.Capability {
	return r.catalogue.Lookup(objectType).Capability
}

// Catalogue returns the underlying object type catalogue.
func (r *Registry) Catalogue() *objects.Catalogue {
	return r.catalogue
}

// lineStrategy diffs a text content field positionally; with no content field
// it diffs the canonical rendering of the whole attribute bag.
type lineStrategy struct {
	spec objects.TypeSpec
}

func (s lineStrategy) Kind() mergespec.DiffKind { return mergespec.DiffKindLine }

func (s lineStrategy) Validate(v *mergespec.ObjectVersion) error {
	_, err := s.content(v)
	return err
}

func (s lineStrategy) content(v *mergespec.ObjectVersion) (string, error) {
	if s.spec.ContentField == "" {
		attrs := v.Attributes
		if attrs == nil {
			attrs = map[string]any{}
		}
		data, err := canonical.MarshalIndent(attrs)
		if err != nil {
			return "", fmt.Errorf("rendering attributes of %s: %w", v.UUID, err)
		}
		return string(data), nil
	}

	raw, ok := v.Attributes[s.spec.ContentField]
	if !ok {
		return "", &mergeerr.MalformedAttributeError{
			UUID:       v.UUID,
			ObjectType: v.ObjectType,
			Field:      s.spec.ContentField,
			Reason:     "is missing",
		}
	}
	return canonical.String(raw), nil
}

func (s lineStrategy) Diff(base, other *mergespec.ObjectVersion) (*mergespec.Delta, error) {
	var basePtr, otherPtr *string
	if base != nil {
		text, err := s.content(base)
		if err != nil {
			return nil, err
		}
		basePtr = &text
	}
	if other != nil {
		text, err := s.content(other)
		if err != nil {
			return nil, err
		}
		otherPtr = &text
	}

	delta := &mergespec.Delta{Lines: linediff.Diff(basePtr, otherPtr)}
	if base != nil && other != nil {
		fields, err := changedFields(s.spec.ComparedFields, base, other)
		if err != nil {
			return nil, err
		}
		delta.Fields = fields
	}
	return delta, nil
}

func (s lineStrategy) Fields(v *mergespec.ObjectVersion) (map[string]string, error) {
	out := make(map[string]string)
	if v == nil {
		return out, nil
	}
	if s.spec.ContentField == "" {
		for k, val := range v.Attributes {
			out[k] = canonical.String(val)
		}
		return out, nil
	}
	text, err := s.content(v)
	if err != nil {
		return nil, err
	}
	out[s.spec.ContentField] = text
	for _, f := range s.spec.ComparedFields {
		out[f] = canonical.String(v.Attributes[f])
	}
	return out, nil
}

// graphStrategy diffs process model nodes and flows.
type graphStrategy struct {
	spec objects.TypeSpec
}

func (s graphStrategy) Kind() mergespec.DiffKind { return mergespec.DiffKindGraph }

func (s graphStrategy) Validate(v *mergespec.ObjectVersion) error {
	_, _, err := ParseGraph(v)
	return err
}

func (s graphStrategy) Diff(base, other *mergespec.ObjectVersion) (*mergespec.Delta, error) {
	var baseNodes, otherNodes []mergespec.Node
	var baseFlows, otherFlows []mergespec.Flow
	var err error
	if base != nil {
		if baseNodes, baseFlows, err = ParseGraph(base); err != nil {
			return nil, err
		}
	}
	if other != nil {
		if otherNodes, otherFlows, err = ParseGraph(other); err != nil {
			return nil, err
		}
	}

	g, err := DiffGraph(baseNodes, baseFlows, otherNodes, otherFlows)
	if err != nil {
		return nil, err
	}
	delta := &mergespec.Delta{Graph: &g}
	if base != nil && other != nil {
		fields, err := changedFields(s.spec.ComparedFields, base, other)
		if err != nil {
			return nil, err
		}
		delta.Fields = fields
	}
	return delta, nil
}

func (s graphStrategy) Fields(v *mergespec.ObjectVersion) (map[string]string, error) {
	out := make(map[string]string)
	if v == nil {
		return out, nil
	}
	nodes, flows, err := ParseGraph(v)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		props := n.Properties
		if props == nil {
			props = map[string]any{}
		}
		out["node/"+n.ID] = canonical.String(map[string]any{"type": n.Type, "name": n.Name, "properties": props})
	}
	for k, f := range indexFlows(flows) {
		name := "flow/" + k.from + "->" + k.to
		if k.ordinal > 0 {
			name = fmt.Sprintf("%s#%d", name, k.ordinal)
		}
		out[name] = canonical.String(map[string]any{"label": f.Label, "condition": f.Condition})
	}
	for _, f := range s.spec.ComparedFields {
		out[f] = canonical.String(v.Attributes[f])
	}
	return out, nil
}

func changedFields(fields []string, a, b *mergespec.ObjectVersion) ([]string, error) {
	var changed []string
	for _, f := range fields {
		eq, err := canonical.Equal(a.Attributes[f], b.Attributes[f])
		if err != nil {
			return nil, fmt.Errorf("comparing field %q: %w", f, err)
		}
		if !eq {
			changed = append(changed, f)
		}
	}
	return changed, nil
}
