package classify

import (
	"errors"
	"testing"

	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objdiff"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
)

func newEvaluator() *Evaluator {
	return NewEvaluator(objdiff.NewRegistry(objects.NewCatalogue()), ConvergeNoConflict)
}

func iface(uuid, version, code string) *mergespec.ObjectVersion {
	return &mergespec.ObjectVersion{
		UUID:        uuid,
		ObjectType:  "Interface",
		Name:        "Case Form",
		VersionUUID: version,
		Attributes:  map[string]any{"sail_code": code},
	}
}

func TestEvaluate_VendorOnlyInterfaceEdit(t *testing.T) {
	id := mergespec.Identity{UUID: "i1", ObjectType: "Interface", Name: "Case Form"}
	v := mergespec.Versions{
		Base:       iface("i1", "v1", `a!textField(label:"X")`),
		Customized: iface("i1", "v1", `a!textField(label:"X")`),
		Vendor:     iface("i1", "v2", `a!textField(label:"Y")`),
	}

	ev, err := newEvaluator().Evaluate(id, v)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Change.Classification != mergespec.ClassNoConflict {
		t.Errorf("classification = %s, want NO_CONFLICT", ev.Change.Classification)
	}
	if ev.Change.VendorChangeType != mergespec.ChangeModified {
		t.Errorf("vendor = %s, want MODIFIED", ev.Change.VendorChangeType)
	}
	if got := ev.Diff.Preferred().ChangedLines(); got != 1 {
		t.Errorf("changed lines = %d, want 1", got)
	}
	if ev.Diff.Kind != mergespec.DiffKindLine {
		t.Errorf("kind = %s, want line", ev.Diff.Kind)
	}
}

func TestEvaluate_VendorDroppedUntouchedConstant(t *testing.T) {
	constant := func() *mergespec.ObjectVersion {
		return &mergespec.ObjectVersion{UUID: "k1", ObjectType: "Constant", Name: "MAX", Attributes: map[string]any{"value": "5"}}
	}
	id := mergespec.Identity{UUID: "k1", ObjectType: "Constant", Name: "MAX"}

	ev, err := newEvaluator().Evaluate(id, mergespec.Versions{Base: constant(), Customized: constant()})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Flags.CustomerDiffers {
		t.Error("customer never changed the constant")
	}
	if ev.Change.Classification != mergespec.ClassDeleted {
		t.Errorf("classification = %s, want DELETED", ev.Change.Classification)
	}
}

func TestEvaluate_BothEditedDifferently(t *testing.T) {
	id := mergespec.Identity{UUID: "i1", ObjectType: "Interface"}
	v := mergespec.Versions{
		Base:       iface("i1", "v1", "line1\nline2"),
		Customized: iface("i1", "v2", "line1\ncustomer"),
		Vendor:     iface("i1", "v3", "line1\nvendor"),
	}
	ev, err := newEvaluator().Evaluate(id, v)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Change.Classification != mergespec.ClassConflict {
		t.Errorf("classification = %s, want CONFLICT", ev.Change.Classification)
	}
	if ev.Diff.Customer == nil || ev.Diff.Vendor == nil {
		t.Error("both deltas should be recorded")
	}
}

func TestEvaluate_Converged(t *testing.T) {
	id := mergespec.Identity{UUID: "i1", ObjectType: "Interface"}
	v := mergespec.Versions{
		Base:       iface("i1", "v1", "old"),
		Customized: iface("i1", "v2", "new"),
		Vendor:     iface("i1", "v3", "new"),
	}

	ev, err := newEvaluator().Evaluate(id, v)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Change.Classification != mergespec.ClassNoConflict || !ev.Flags.Converged {
		t.Errorf("converged edit = %s (flags %+v), want NO_CONFLICT", ev.Change.Classification, ev.Flags)
	}

	strict := NewEvaluator(objdiff.NewRegistry(nil), ConvergeConflict)
	ev, err = strict.Evaluate(id, v)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Change.Classification != mergespec.ClassConflict {
		t.Errorf("converged edit under conflict policy = %s, want CONFLICT", ev.Change.Classification)
	}
}

func TestEvaluate_MalformedFallsBackToPresence(t *testing.T) {
	pm := func(version string, attrs map[string]any) *mergespec.ObjectVersion {
		return &mergespec.ObjectVersion{UUID: "p1", ObjectType: "Process Model", VersionUUID: version, Attributes: attrs}
	}
	good := map[string]any{"nodes": []any{map[string]any{"node_id": "S"}}}
	id := mergespec.Identity{UUID: "p1", ObjectType: "Process Model"}
	v := mergespec.Versions{
		Base:       pm("v1", good),
		Customized: pm("v1", good),
		Vendor:     pm("v2", map[string]any{"flows": []any{}}),
	}

	ev, err := newEvaluator().Evaluate(id, v)
	if err != nil {
		t.Fatalf("Evaluate must not fail on malformed attributes: %v", err)
	}
	if !ev.Change.DiffUnavailable {
		t.Error("DiffUnavailable should be set")
	}
	if ev.Diff.Kind != mergespec.DiffKindNone || ev.Diff.Vendor != nil {
		t.Errorf("diff should be empty, got %+v", ev.Diff)
	}
	if len(ev.Failures) != 1 || ev.Failures[0].Code != string(mergeerr.MalformedAttribute) || ev.Failures[0].Stage != "validate:C" {
		t.Errorf("failures = %+v", ev.Failures)
	}
	if ev.Change.Classification != mergespec.ClassNoConflict {
		t.Errorf("classification = %s, want NO_CONFLICT from version uuids", ev.Change.Classification)
	}
}

func TestEvaluate_DanglingFlowOnIdenticalSnapshots(t *testing.T) {
	pm := func() *mergespec.ObjectVersion {
		return &mergespec.ObjectVersion{
			UUID:        "p1",
			ObjectType:  "Process Model",
			VersionUUID: "v1",
			Attributes: map[string]any{
				"nodes": []any{map[string]any{"node_id": "S"}},
				"flows": []any{map[string]any{"from_node_id": "S", "to_node_id": "GONE"}},
			},
		}
	}
	id := mergespec.Identity{UUID: "p1", ObjectType: "Process Model"}

	ev, err := newEvaluator().Evaluate(id, mergespec.Versions{Base: pm(), Customized: pm(), Vendor: pm()})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Change.Classification != mergespec.ClassUnchanged {
		t.Errorf("classification = %s, want UNCHANGED", ev.Change.Classification)
	}
	if !ev.Change.DiffUnavailable {
		t.Error("a flow to an undeclared node should make the diff unavailable")
	}
	if len(ev.Failures) != 3 {
		t.Errorf("failures = %+v, want one per package", ev.Failures)
	}
	for _, f := range ev.Failures {
		if f.Code != string(mergeerr.MalformedAttribute) {
			t.Errorf("failure code = %s, want %s", f.Code, mergeerr.MalformedAttribute)
		}
	}
}

func TestEvaluate_VendorAddedAndCustomerCreated(t *testing.T) {
	e := newEvaluator()

	added, err := e.Evaluate(mergespec.Identity{UUID: "n1", ObjectType: "Interface"},
		mergespec.Versions{Vendor: iface("n1", "v1", "a\nb")})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if added.Change.Classification != mergespec.ClassNoConflict || added.Change.VendorChangeType != mergespec.ChangeAdded {
		t.Errorf("vendor added = %+v", added.Change)
	}
	if added.Diff.Vendor == nil || added.Diff.Vendor.ChangedLines() != 2 {
		t.Errorf("vendor delta = %+v, want two ADD lines", added.Diff.Vendor)
	}

	created, err := e.Evaluate(mergespec.Identity{UUID: "n2", ObjectType: "Interface"},
		mergespec.Versions{Customized: iface("n2", "v1", "custom")})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if created.Change.Classification != mergespec.ClassRemovedButCustomized || created.Change.CustomerChangeType != mergespec.ChangeAdded {
		t.Errorf("customer created = %+v", created.Change)
	}
}

func TestEvaluate_AbsentEverywhere(t *testing.T) {
	_, err := newEvaluator().Evaluate(mergespec.Identity{UUID: "ghost"}, mergespec.Versions{})
	if !errors.Is(err, ErrAbsentEverywhere) {
		t.Errorf("err = %v, want ErrAbsentEverywhere", err)
	}
}

func TestFromVersions(t *testing.T) {
	id := mergespec.Identity{UUID: "i1", ObjectType: "Interface"}
	v := mergespec.Versions{
		Base:       iface("i1", "v1", "same"),
		Customized: iface("i1", "v1", "same"),
		Vendor:     iface("i1", "v2", "same"),
	}

	ev, err := newEvaluator().FromVersions(id, v)
	if err != nil {
		t.Fatalf("FromVersions: %v", err)
	}
	if ev.Change.Classification != mergespec.ClassNoConflict || !ev.Change.DiffUnavailable {
		t.Errorf("change = %+v, want NO_CONFLICT with diff unavailable", ev.Change)
	}
	if ev.Diff.Kind != mergespec.DiffKindNone || ev.Diff.Vendor != nil {
		t.Errorf("diff = %+v, want none", ev.Diff)
	}

	if _, err := newEvaluator().FromVersions(id, mergespec.Versions{}); !errors.Is(err, ErrAbsentEverywhere) {
		t.Errorf("err = %v, want ErrAbsentEverywhere", err)
	}
}

func TestVersionFlags(t *testing.T) {
	a := &mergespec.ObjectVersion{VersionUUID: "v1"}
	b := &mergespec.ObjectVersion{VersionUUID: "v1"}
	c := &mergespec.ObjectVersion{VersionUUID: ""}

	f := versionFlags(mergespec.Versions{Base: a, Customized: b, Vendor: c})
	if f.CustomerDiffers {
		t.Error("equal version uuids should not differ")
	}
	if !f.VendorDiffers {
		t.Error("a missing version uuid counts as a difference")
	}
	if f.Converged {
		t.Error("missing version uuid cannot prove convergence")
	}
}
