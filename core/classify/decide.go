// Package classify assigns one classification and a pair of change types to
// each identity from its A/B/C presence and pairwise content-diff flags.
package classify

import (
	"errors"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// ErrAbsentEverywhere is returned for an identity with no version in any package.
var ErrAbsentEverywhere = errors.New("identity is absent from all three packages")

// ConvergencePolicy decides how a change is classified when customer and
// vendor independently arrived at structurally equal content.
type ConvergencePolicy string

const (
	// ConvergeNoConflict treats converged edits as a clean update.
	ConvergeNoConflict ConvergencePolicy = "no_conflict"
	// ConvergeConflict still routes converged edits to a reviewer.
	ConvergeConflict ConvergencePolicy = "conflict"
)

// Valid reports whether p is a recognised policy.
func (p ConvergencePolicy) Valid() bool {
	return p == ConvergeNoConflict || p == ConvergeConflict
}

// Presence records which packages contain the identity.
type Presence struct {
	Base       bool
	Customized bool
	Vendor     bool
}

// Flags are the content-diff flags of one identity.
//
// CustomerDiffers (Δ_cust) compares A with B and VendorDiffers (Δ_vend) compares
// A with C. When exactly one side of a comparison exists the flag is true, since
// presence against absence is a difference. Converged compares B with C and is
// only meaningful when both exist.
type Flags struct {
	CustomerDiffers bool
	VendorDiffers   bool
	Converged       bool
}

// Leaf names the branch of the decision procedure that produced an outcome.
type Leaf string

const (
	LeafRemovedButCustomized Leaf = "vendor_removed_customer_changed"
	LeafDeleted              Leaf = "vendor_removed"
	LeafVendorAdded          Leaf = "vendor_added"
	LeafDeleteVsEdit         Leaf = "customer_removed_vendor_changed"
	LeafCustomerRemoved      Leaf = "customer_removed"
	LeafBothAdded            Leaf = "both_added"
	LeafUnchanged            Leaf = "unchanged"
	LeafVendorModified       Leaf = "vendor_modified"
	LeafCustomerModified     Leaf = "customer_modified"
	LeafConverged            Leaf = "converged"
	LeafBothModified         Leaf = "both_modified"
)

// Outcome is the decision for one identity.
type Outcome struct {
	Classification mergespec.Classification
	Vendor         mergespec.ChangeType
	Customer       mergespec.ChangeType
	Leaf           Leaf
}

// Decide runs the classification procedure. Rules are evaluated in order:
//
//  1. absent from C: REMOVED_BUT_CUSTOMIZED when B exists and differs from A, else DELETED;
//  2. only in C: NO_CONFLICT, vendor ADDED;
//  3. in A and C, not B: CONFLICT when the vendor changed it, else CUSTOMER_ONLY;
//  4. in B and C, not A: both added, NO_CONFLICT when converged, else CONFLICT;
//  5. in all three: by (Δ_cust, Δ_vend), with converged edits governed by policy.
func Decide(p Presence, f Flags, policy ConvergencePolicy) (Outcome, error) {
	switch {
	case !p.Base && !p.Customized && !p.Vendor:
		return Outcome{}, ErrAbsentEverywhere

	case !p.Vendor:
		out := Outcome{Vendor: mergespec.ChangeNone, Customer: customerSide(p, f)}
		if p.Base {
			out.Vendor = mergespec.ChangeRemoved
		}
		if p.Customized && f.CustomerDiffers {
			out.Classification = mergespec.ClassRemovedButCustomized
			out.Leaf = LeafRemovedButCustomized
		} else {
			out.Classification = mergespec.ClassDeleted
			out.Leaf = LeafDeleted
		}
		return out, nil

	case !p.Base && !p.Customized:
		return Outcome{
			Classification: mergespec.ClassNoConflict,
			Vendor:         mergespec.ChangeAdded,
			Customer:       mergespec.ChangeNone,
			Leaf:           LeafVendorAdded,
		}, nil

	case p.Base && !p.Customized:
		if f.VendorDiffers {
			return Outcome{
				Classification: mergespec.ClassConflict,
				Vendor:         mergespec.ChangeModified,
				Customer:       mergespec.ChangeRemoved,
				Leaf:           LeafDeleteVsEdit,
			}, nil
		}
		return Outcome{
			Classification: mergespec.ClassCustomerOnly,
			Vendor:         mergespec.ChangeNone,
			Customer:       mergespec.ChangeRemoved,
			Leaf:           LeafCustomerRemoved,
		}, nil

	case !p.Base:
		out := Outcome{
			Classification: mergespec.ClassConflict,
			Vendor:         mergespec.ChangeAdded,
			Customer:       mergespec.ChangeAdded,
			Leaf:           LeafBothAdded,
		}
		if f.Converged && policy != ConvergeConflict {
			out.Classification = mergespec.ClassNoConflict
		}
		return out, nil
	}

	switch {
	case !f.CustomerDiffers && !f.VendorDiffers:
		return Outcome{
			Classification: mergespec.ClassUnchanged,
			Vendor:         mergespec.ChangeNone,
			Customer:       mergespec.ChangeNone,
			Leaf:           LeafUnchanged,
		}, nil
	case f.VendorDiffers && !f.CustomerDiffers:
		return Outcome{
			Classification: mergespec.ClassNoConflict,
			Vendor:         mergespec.ChangeModified,
			Customer:       mergespec.ChangeNone,
			Leaf:           LeafVendorModified,
		}, nil
	case f.CustomerDiffers && !f.VendorDiffers:
		return Outcome{
			Classification: mergespec.ClassCustomerOnly,
			Vendor:         mergespec.ChangeNone,
			Customer:       mergespec.ChangeModified,
			Leaf:           LeafCustomerModified,
		}, nil
	case f.Converged && policy != ConvergeConflict:
		return Outcome{
			Classification: mergespec.ClassNoConflict,
			Vendor:         mergespec.ChangeModified,
			Customer:       mergespec.ChangeModified,
			Leaf:           LeafConverged,
		}, nil
	default:
		return Outcome{
			Classification: mergespec.ClassConflict,
			Vendor:         mergespec.ChangeModified,
			Customer:       mergespec.ChangeModified,
			Leaf:           LeafBothModified,
		}, nil
	}
}

// customerSide derives the customer change type for identities absent from C.
func customerSide(p Presence, f Flags) mergespec.ChangeType {
	switch {
	case !p.Customized && p.Base:
		return mergespec.ChangeRemoved
	case !p.Customized:
		return mergespec.ChangeNone
	case !p.Base:
		return mergespec.ChangeAdded
	case f.CustomerDiffers:
		return mergespec.ChangeModified
	default:
		return mergespec.ChangeNone
	}
}
