package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

const rowFormat = "%4s  %s  %-16s  %-28s  %-8s  %-8s  %-6s  %7s  %s\n"

type palette map[mergespec.Classification]*color.Color

func newPalette(colorize bool) palette {
	p := palette{
		mergespec.ClassConflict:             color.New(color.FgRed),
		mergespec.ClassRemovedButCustomized: color.New(color.FgMagenta),
		mergespec.ClassCustomerOnly:         color.New(color.FgCyan),
		mergespec.ClassNoConflict:           color.New(color.FgGreen),
		mergespec.ClassDeleted:              color.New(color.FgYellow),
		mergespec.ClassUnchanged:            color.New(color.FgWhite),
	}
	for _, c := range p {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) paint(c mergespec.Classification) string {
	padded := fmt.Sprintf("%-22s", c)
	if col, ok := p[c]; ok {
		return col.Sprint(padded)
	}
	return padded
}

func writeText(w io.Writer, r *mergespec.Report, colorize bool) error {
	p := newPalette(colorize)
	var b strings.Builder

	fmt.Fprintf(&b, "Merge session %s\n", r.SessionID)
	fmt.Fprintf(&b, "Packages: A %s, B %s, C %s\n\n",
		orDash(r.Versions[mergespec.PackageBase]),
		orDash(r.Versions[mergespec.PackageCustomized]),
		orDash(r.Versions[mergespec.PackageVendor]))

	fmt.Fprintf(&b, rowFormat, "#", fmt.Sprintf("%-22s", "CLASSIFICATION"), "TYPE", "NAME",
		"VENDOR", "CUSTOMER", "LEVEL", "MINUTES", "GUIDANCE")
	for _, res := range r.Results {
		guidance := ""
		if res.Guidance != nil {
			guidance = string(res.Guidance.Recommendation)
			if n := len(res.Guidance.Conflicts); n > 0 {
				guidance = fmt.Sprintf("%s (%d conflict(s))", guidance, n)
			}
		}
		if res.Change.DiffUnavailable {
			guidance = strings.TrimSpace(guidance + " [diff unavailable]")
		}
		fmt.Fprintf(&b, rowFormat,
			fmt.Sprint(res.Change.DisplayOrder),
			p.paint(res.Change.Classification),
			clip(res.Change.ObjectType, 16),
			clip(res.Change.Name, 28),
			res.Change.VendorChangeType,
			res.Change.CustomerChangeType,
			res.Complexity.Level,
			fmt.Sprint(res.Complexity.Minutes),
			guidance,
		)
		if res.Summary != "" {
			fmt.Fprintf(&b, "      %s\n", res.Summary)
		}
	}

	b.WriteString("\nSummary:\n")
	for _, c := range mergespec.Classifications {
		fmt.Fprintf(&b, "  %s %d\n", p.paint(c), r.Stats.Counts[c])
	}
	fmt.Fprintf(&b, "  %d object(s), estimated %s\n", r.Stats.Objects, FormatMinutes(r.Stats.TotalMinutes))
	if r.Stats.IdentityConflicts > 0 {
		fmt.Fprintf(&b, "  %d identity conflict(s) downgraded to Unknown\n", r.Stats.IdentityConflicts)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, wn := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", wn)
		}
	}

	if r.Stats.Failures > 0 {
		b.WriteString("\nFailures:\n")
		for _, res := range r.Results {
			for _, f := range res.Failures {
				fmt.Fprintf(&b, "  %s [%s] %s: %s\n", res.Change.UUID, f.Code, f.Stage, f.Message)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatMinutes renders a duration in minutes as "4h 15m".
func FormatMinutes(m int) string {
	h, rest := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, rest)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
