package objdiff

import (
	"errors"
	"testing"

	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
)

func version(uuid, objectType string, attrs map[string]any) *mergespec.ObjectVersion {
	return &mergespec.ObjectVersion{UUID: uuid, ObjectType: objectType, Name: uuid, Attributes: attrs}
}

func processModel(uuid string, nodes []any, flows []any) *mergespec.ObjectVersion {
	attrs := map[string]any{"nodes": nodes}
	if flows != nil {
		attrs["flows"] = flows
	}
	return version(uuid, "Process Model", attrs)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry(objects.NewCatalogue())

	if k := r.For("Interface").Kind(); k != mergespec.DiffKindLine {
		t.Errorf("Interface kind = %s, want line", k)
	}
	if k := r.For("Process Model").Kind(); k != mergespec.DiffKindGraph {
		t.Errorf("Process Model kind = %s, want graph", k)
	}
	if k := r.For("Group").Kind(); k != mergespec.DiffKindLine {
		t.Errorf("Group kind = %s, want line", k)
	}
	if c := r.Capability("Group"); c != objects.AlwaysLow {
		t.Errorf("Group capability = %s, want always_low", c)
	}
	if k := r.For("Never Heard Of").Kind(); k != mergespec.DiffKindLine {
		t.Errorf("unregistered kind = %s, want line", k)
	}
}

func TestRegistry_RegisterOverride(t *testing.T) {
	r := NewRegistry(nil)
	custom := graphStrategy{spec: objects.TypeSpec{Name: "Interface", Capability: objects.GraphBased}}
	r.Register("Interface", custom)
	if k := r.For("Interface").Kind(); k != mergespec.DiffKindGraph {
		t.Errorf("override not applied, kind = %s", k)
	}
}

func TestLineStrategy_SailCodeDiff(t *testing.T) {
	s := NewRegistry(nil).For("Interface")
	base := version("i1", "Interface", map[string]any{"sail_code": `a!textField(label:"X")`})
	vendor := version("i1", "Interface", map[string]any{"sail_code": `a!textField(label:"Y")`})

	d, err := s.Diff(base, vendor)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.ChangedLines() != 1 {
		t.Errorf("ChangedLines = %d, want 1", d.ChangedLines())
	}
	if !d.HasChanges() {
		t.Error("HasChanges should be true")
	}

	same, err := s.Diff(base, base)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if same.HasChanges() {
		t.Errorf("identical snapshots should not differ: %+v", same)
	}
}

func TestLineStrategy_ComparedFields(t *testing.T) {
	s := NewRegistry(nil).For("Constant")
	base := version("c1", "Constant", map[string]any{"value": "10", "description": "limit"})
	other := version("c1", "Constant", map[string]any{"value": "10", "description": "upper limit"})

	d, err := s.Diff(base, other)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.ChangedLines() != 0 {
		t.Errorf("ChangedLines = %d, want 0", d.ChangedLines())
	}
	if len(d.Fields) != 1 || d.Fields[0] != "description" {
		t.Errorf("Fields = %v, want [description]", d.Fields)
	}
	if !d.HasChanges() {
		t.Error("a compared-field change must count as a change")
	}
}

func TestLineStrategy_NonStringContent(t *testing.T) {
	s := NewRegistry(nil).For("Constant")
	d, err := s.Diff(
		version("c1", "Constant", map[string]any{"value": 10}),
		version("c1", "Constant", map[string]any{"value": 10.0}),
	)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.HasChanges() {
		t.Errorf("10 and 10.0 should render identically: %+v", d)
	}
}

func TestLineStrategy_AbsentSides(t *testing.T) {
	s := NewRegistry(nil).For("Interface")
	v := version("i1", "Interface", map[string]any{"sail_code": "a\nb\nc"})

	added, err := s.Diff(nil, v)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	for _, l := range added.Lines {
		if l.Op != mergespec.LineAdd {
			t.Errorf("op = %s, want ADD", l.Op)
		}
	}
	if len(added.Lines) != 3 {
		t.Errorf("len = %d, want 3", len(added.Lines))
	}

	removed, err := s.Diff(v, nil)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if removed.ChangedLines() != 3 {
		t.Errorf("ChangedLines = %d, want 3", removed.ChangedLines())
	}
}

func TestLineStrategy_Malformed(t *testing.T) {
	s := NewRegistry(nil).For("Interface")
	bad := version("i1", "Interface", map[string]any{"description": "no code"})

	err := s.Validate(bad)
	var ma *mergeerr.MalformedAttributeError
	if !errors.As(err, &ma) {
		t.Fatalf("Validate error = %v, want MalformedAttributeError", err)
	}
	if ma.Field != "sail_code" {
		t.Errorf("Field = %q, want sail_code", ma.Field)
	}

	if _, err := s.Diff(bad, bad); !errors.As(err, &ma) {
		t.Errorf("Diff error = %v, want MalformedAttributeError", err)
	}
}

func TestLineStrategy_GenericWholeBag(t *testing.T) {
	s := NewRegistry(nil).For("Group")
	base := version("g1", "Group", map[string]any{"members": []any{"alice"}, "description": "admins"})
	reordered := version("g1", "Group", map[string]any{"description": "admins", "members": []any{"alice"}})
	changed := version("g1", "Group", map[string]any{"description": "admins", "members": []any{"alice", "bob"}})

	d, err := s.Diff(base, reordered)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.HasChanges() {
		t.Errorf("key order must not matter: %+v", d.Lines)
	}

	d, err = s.Diff(base, changed)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !d.HasChanges() {
		t.Error("member change not detected")
	}

	fields, err := s.Fields(changed)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if fields["members"] != `["alice","bob"]` {
		t.Errorf("members = %q", fields["members"])
	}
}

func TestGraphStrategy_Diff(t *testing.T) {
	s := NewRegistry(nil).For("Process Model")
	base := processModel("pm1",
		[]any{
			map[string]any{"node_id": "S", "type": "start", "name": "Start"},
			map[string]any{"node_id": "A", "type": "task", "name": "Review"},
			map[string]any{"node_id": "E", "type": "end", "name": "End"},
		},
		[]any{
			map[string]any{"from_node_id": "S", "to_node_id": "A"},
			map[string]any{"from_node_id": "A", "to_node_id": "E"},
		},
	)
	vendor := processModel("pm1",
		[]any{
			map[string]any{"node_id": "S", "type": "start", "name": "Start"},
			map[string]any{"node_id": "A", "type": "task", "name": "Review"},
			map[string]any{"node_id": "B", "type": "task", "name": "Approve"},
			map[string]any{"node_id": "E", "type": "end", "name": "End"},
		},
		[]any{
			map[string]any{"from_node_id": "S", "to_node_id": "A"},
			map[string]any{"from_node_id": "A", "to_node_id": "B"},
			map[string]any{"from_node_id": "B", "to_node_id": "E"},
		},
	)

	d, err := s.Diff(base, vendor)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.Graph == nil {
		t.Fatal("graph delta missing")
	}
	if d.Magnitude() != 1 {
		t.Errorf("Magnitude = %d, want 1", d.Magnitude())
	}

	fields, err := s.Fields(vendor)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	for _, key := range []string{"node/B", "flow/A->B", "flow/B->E", "description"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Fields missing %q", key)
		}
	}
}

func TestParseGraph_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		field string
	}{
		{"missing nodes", map[string]any{}, "nodes"},
		{"nodes not list", map[string]any{"nodes": "S,A"}, "nodes"},
		{"node without id", map[string]any{"nodes": []any{map[string]any{"type": "task"}}}, "nodes[0].node_id"},
		{"duplicate id", map[string]any{"nodes": []any{map[string]any{"node_id": "A"}, map[string]any{"node_id": "A"}}}, "nodes[1].node_id"},
		{"flow without endpoint", map[string]any{
			"nodes": []any{map[string]any{"node_id": "A"}},
			"flows": []any{map[string]any{"from_node_id": "A"}},
		}, "flows[0]"},
		{"flow to undeclared node", map[string]any{
			"nodes": []any{map[string]any{"node_id": "S"}},
			"flows": []any{map[string]any{"from_node_id": "S", "to_node_id": "GONE"}},
		}, "flows[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseGraph(version("pm", "Process Model", tt.attrs))
			var ma *mergeerr.MalformedAttributeError
			if !errors.As(err, &ma) {
				t.Fatalf("error = %v, want MalformedAttributeError", err)
			}
			if ma.Field != tt.field {
				t.Errorf("Field = %q, want %q", ma.Field, tt.field)
			}
		})
	}
}

func TestParseGraph_YAMLShapes(t *testing.T) {
	// yaml.v3 may decode nested mappings with non-string keys and numeric ids.
	v := version("pm", "Process Model", map[string]any{
		"nodes": []any{
			map[any]any{"node_id": 1, "type": "start", "properties": map[any]any{"x": 1}},
			map[string]any{"node_id": 2, "type": "end"},
		},
		"flows": []map[string]any{{"from_node_id": 1, "to_node_id": 2}},
	})

	nodes, flows, err := ParseGraph(v)
	if err != nil {
		t.Fatalf("ParseGraph: %v", err)
	}
	if len(nodes) != 2 || nodes[0].ID != "1" || nodes[0].Properties["x"] != 1 {
		t.Errorf("nodes = %+v", nodes)
	}
	if len(flows) != 1 || flows[0].From != "1" || flows[0].To != "2" {
		t.Errorf("flows = %+v", flows)
	}
}
