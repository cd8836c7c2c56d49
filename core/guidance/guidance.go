// Package guidance produces per-field conflict records and a reconciliation
// recommendation for CONFLICT changes.
package guidance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objdiff"
)

// CosmeticPolicy decides which customer/vendor divergences count as cosmetic.
type CosmeticPolicy string

const (
	// CosmeticWhitespace treats values that differ only in whitespace as cosmetic.
	CosmeticWhitespace CosmeticPolicy = "whitespace"
	// CosmeticNone treats every divergence as content.
	CosmeticNone CosmeticPolicy = "none"
)

// Valid reports whether p is a recognised policy.
func (p CosmeticPolicy) Valid() bool {
	return p == CosmeticWhitespace || p == CosmeticNone
}

// FieldSource renders the compared fields of an object type.
type FieldSource interface {
	For(objectType string) objdiff.Strategy
}

// Generator builds MergeGuidance. It is immutable and safe for concurrent use.
type Generator struct {
	fields   FieldSource
	cosmetic CosmeticPolicy
}

// New creates a Generator. An invalid policy falls back to CosmeticWhitespace.
func New(fields FieldSource, cosmetic CosmeticPolicy) *Generator {
	if !cosmetic.Valid() {
		cosmetic = CosmeticWhitespace
	}
	return &Generator{fields: fields, cosmetic: cosmetic}
}

// Generate compares the A, B and C field values of one object.
//
// A conflict is recorded for every field changed on both base→customer and
// base→vendor where the two new values differ. A field absent on one of the
// two sides is a deleted_vs_modified conflict. When the fields cannot be
// rendered the guidance is MANUAL_MERGE with no conflicts, and the render
// error is returned alongside it.
func (g *Generator) Generate(objectType string, v mergespec.Versions) (*mergespec.MergeGuidance, error) {
	s := g.fields.For(objectType)

	base, err := s.Fields(v.Base)
	if err != nil {
		return Manual(), fmt.Errorf("rendering base fields: %w", err)
	}
	customer, err := s.Fields(v.Customized)
	if err != nil {
		return Manual(), fmt.Errorf("rendering customer fields: %w", err)
	}
	vendor, err := s.Fields(v.Vendor)
	if err != nil {
		return Manual(), fmt.Errorf("rendering vendor fields: %w", err)
	}

	conflicts := g.Conflicts(base, customer, vendor)
	return &mergespec.MergeGuidance{
		Recommendation: Recommend(conflicts, customer, vendor),
		Conflicts:      conflicts,
	}, nil
}

// Conflicts returns the per-field conflicts, ordered by field name.
func (g *Generator) Conflicts(base, customer, vendor map[string]string) []mergespec.FieldConflict {
	conflicts := []mergespec.FieldConflict{}
	for _, field := range unionKeys(base, customer, vendor) {
		b, inBase := base[field]
		c, inCustomer := customer[field]
		vv, inVendor := vendor[field]

		customerChanged := inBase != inCustomer || b != c
		vendorChanged := inBase != inVendor || b != vv
		if !customerChanged || !vendorChanged {
			continue
		}
		if inCustomer == inVendor && c == vv {
			continue
		}

		fc := mergespec.FieldConflict{
			Field:         field,
			ConflictType:  mergespec.ConflictContent,
			BaseValue:     b,
			CustomerValue: c,
			VendorValue:   vv,
		}
		switch {
		case inCustomer != inVendor:
			fc.ConflictType = mergespec.ConflictDeletedVsModified
		case g.cosmetic == CosmeticWhitespace && collapseSpace(c) == collapseSpace(vv):
			fc.ConflictType = mergespec.ConflictCosmetic
		}
		conflicts = append(conflicts, fc)
	}
	return conflicts
}

// Recommend derives the recommendation from a conflict list.
//
// Any non-cosmetic conflict needs a manual merge. With no field-level
// conflicts, customer and vendor either converged (accept the vendor copy) or
// edited disjoint fields, which still has to be merged by hand. KEEP_CUSTOMER
// is never produced here.
func Recommend(conflicts []mergespec.FieldConflict, customer, vendor map[string]string) mergespec.Recommendation {
	for _, c := range conflicts {
		if c.ConflictType != mergespec.ConflictCosmetic {
			return mergespec.RecommendManualMerge
		}
	}
	if len(conflicts) > 0 {
		return mergespec.RecommendAcceptVendor
	}
	if sameFields(customer, vendor) {
		return mergespec.RecommendAcceptVendor
	}
	return mergespec.RecommendManualMerge
}

// Manual is the guidance for a conflict whose fields could not be compared.
func Manual() *mergespec.MergeGuidance {
	return &mergespec.MergeGuidance{Recommendation: mergespec.RecommendManualMerge, Conflicts: []mergespec.FieldConflict{}}
}

func unionKeys(maps ...map[string]string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func sameFields(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		if bv, ok := b[k]; !ok || av != bv {
			return false
		}
	}
	return true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
