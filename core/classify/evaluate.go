package classify

import (
	"fmt"

	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objdiff"
)

const (
	stageValidate = "validate"
	stageDiff     = "diff"
)

// Evaluation is the classifier's output for one identity.
type Evaluation struct {
	Change   mergespec.Change
	Diff     mergespec.DiffResult
	Outcome  Outcome
	Flags    Flags
	Failures []mergespec.ObjectFailure
}

// Evaluator classifies identities using the attribute differ registry.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	differs *objdiff.Registry
	policy  ConvergencePolicy
}

// NewEvaluator creates an Evaluator. An invalid policy falls back to ConvergeNoConflict.
func NewEvaluator(differs *objdiff.Registry, policy ConvergencePolicy) *Evaluator {
	if !policy.Valid() {
		policy = ConvergeNoConflict
	}
	return &Evaluator{differs: differs, policy: policy}
}

// Evaluate classifies one identity from its three versions.
//
// A malformed attribute bag or a differ failure never fails the evaluation:
// diffing is skipped, the failure is recorded, the change is marked
// DiffUnavailable and classification proceeds on presence plus version uuids.
func (e *Evaluator) Evaluate(id mergespec.Identity, v mergespec.Versions) (Evaluation, error) {
	p := Presence{Base: v.Base != nil, Customized: v.Customized != nil, Vendor: v.Vendor != nil}
	if !p.Base && !p.Customized && !p.Vendor {
		return Evaluation{}, fmt.Errorf("evaluating %s: %w", id.UUID, ErrAbsentEverywhere)
	}

	strategy := e.differs.For(id.ObjectType)
	ev := Evaluation{Diff: mergespec.DiffResult{Kind: strategy.Kind()}}

	available := true
	for _, side := range []struct {
		label mergespec.PackageLabel
		ver   *mergespec.ObjectVersion
	}{
		{mergespec.PackageBase, v.Base},
		{mergespec.PackageCustomized, v.Customized},
		{mergespec.PackageVendor, v.Vendor},
	} {
		if side.ver == nil {
			continue
		}
		if err := strategy.Validate(side.ver); err != nil {
			available = false
			ev.Failures = append(ev.Failures, failure(stageValidate, side.label, err, mergeerr.MalformedAttribute))
		}
	}

	if available {
		flags, diff, err := e.contentFlags(strategy, p, v)
		if err != nil {
			available = false
			ev.Failures = append(ev.Failures, failure(stageDiff, "", err, mergeerr.DiffFailed))
		} else {
			ev.Flags = flags
			ev.Diff.Customer = diff.Customer
			ev.Diff.Vendor = diff.Vendor
		}
	}

	if !available {
		ev.Diff = mergespec.DiffResult{Kind: mergespec.DiffKindNone}
		ev.Flags = versionFlags(v)
	}
	return e.decide(id, p, ev, available)
}

// FromVersions classifies id on presence plus version uuids alone, without
// running any differ. The change is marked DiffUnavailable.
func (e *Evaluator) FromVersions(id mergespec.Identity, v mergespec.Versions) (Evaluation, error) {
	p := Presence{Base: v.Base != nil, Customized: v.Customized != nil, Vendor: v.Vendor != nil}
	ev := Evaluation{
		Diff:  mergespec.DiffResult{Kind: mergespec.DiffKindNone},
		Flags: versionFlags(v),
	}
	return e.decide(id, p, ev, false)
}

func (e *Evaluator) decide(id mergespec.Identity, p Presence, ev Evaluation, available bool) (Evaluation, error) {
	outcome, err := Decide(p, ev.Flags, e.policy)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluating %s: %w", id.UUID, err)
	}
	ev.Outcome = outcome
	ev.Change = mergespec.Change{
		UUID:               id.UUID,
		ObjectType:         id.ObjectType,
		Name:               id.Name,
		Classification:     outcome.Classification,
		VendorChangeType:   outcome.Vendor,
		CustomerChangeType: outcome.Customer,
		DiffUnavailable:    !available,
	}
	return ev, nil
}

// contentFlags runs the differ for the A/B, A/C and, when needed, B/C comparisons.
func (e *Evaluator) contentFlags(s objdiff.Strategy, p Presence, v mergespec.Versions) (Flags, mergespec.DiffResult, error) {
	var flags Flags
	var diff mergespec.DiffResult

	if p.Base || p.Customized {
		d, err := s.Diff(v.Base, v.Customized)
		if err != nil {
			return Flags{}, diff, fmt.Errorf("customer diff: %w", err)
		}
		diff.Customer = d
		flags.CustomerDiffers = p.Base != p.Customized || d.HasChanges()
	}
	if p.Base || p.Vendor {
		d, err := s.Diff(v.Base, v.Vendor)
		if err != nil {
			return Flags{}, diff, fmt.Errorf("vendor diff: %w", err)
		}
		diff.Vendor = d
		flags.VendorDiffers = p.Base != p.Vendor || d.HasChanges()
	}

	bothEdited := flags.CustomerDiffers && flags.VendorDiffers
	if p.Customized && p.Vendor && (bothEdited || !p.Base) {
		d, err := s.Diff(v.Customized, v.Vendor)
		if err != nil {
			return Flags{}, diff, fmt.Errorf("convergence diff: %w", err)
		}
		flags.Converged = !d.HasChanges()
	}
	return flags, diff, nil
}

// versionFlags derives content flags from version uuids when attributes cannot be diffed.
// Missing version uuids count as a difference.
func versionFlags(v mergespec.Versions) Flags {
	return Flags{
		CustomerDiffers: versionsDiffer(v.Base, v.Customized),
		VendorDiffers:   versionsDiffer(v.Base, v.Vendor),
		Converged:       !versionsDiffer(v.Customized, v.Vendor),
	}
}

func versionsDiffer(a, b *mergespec.ObjectVersion) bool {
	if a == nil || b == nil {
		return a != b
	}
	if a.VersionUUID == "" || b.VersionUUID == "" {
		return true
	}
	return a.VersionUUID != b.VersionUUID
}

func failure(stage string, label mergespec.PackageLabel, err error, fallback mergeerr.Code) mergespec.ObjectFailure {
	if label != "" {
		stage = stage + ":" + string(label)
	}
	return mergespec.ObjectFailure{
		Code:    string(mergeerr.CodeOf(err, fallback)),
		Stage:   stage,
		Message: err.Error(),
	}
}
