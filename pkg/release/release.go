// Package release checks the version labels of the three packages of a merge session.
package release

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// Canonical returns v as a canonical semantic version ("1.2" becomes "v1.2.0"),
// or "" when v is not a semantic version.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// Compare orders two version labels. ok is false when either label is not a
// semantic version.
func Compare(a, b string) (cmp int, ok bool) {
	ca, cb := Canonical(a), Canonical(b)
	if ca == "" || cb == "" {
		return 0, false
	}
	return semver.Compare(ca, cb), true
}

// Check returns human-readable warnings about the package versions of t.
// Missing versions are ignored. It warns when a label is not a semantic
// version, when the vendor package is not newer than the base, and when the
// customized package predates the base it was derived from.
func Check(t mergespec.Triple) []string {
	var warnings []string
	for _, p := range t.Packages() {
		if p.Version != "" && Canonical(p.Version) == "" {
			warnings = append(warnings, fmt.Sprintf("package %s version %q is not a semantic version", p.Label, p.Version))
		}
	}

	if cmp, ok := Compare(t.Vendor.Version, t.Base.Version); ok && cmp <= 0 {
		warnings = append(warnings, fmt.Sprintf("vendor package %s is not newer than base package %s",
			t.Vendor.Version, t.Base.Version))
	}
	if cmp, ok := Compare(t.Customized.Version, t.Base.Version); ok && cmp < 0 {
		warnings = append(warnings, fmt.Sprintf("customized package %s predates base package %s",
			t.Customized.Version, t.Base.Version))
	}
	return warnings
}
