// Package linediff compares two texts line by line at identical indexes.
//
// The comparison is positional: line i of one side is only ever compared with
// line i of the other, up to the longer side's length. No alignment search is
// performed, so an inserted line shifts every following line into MODIFY.
package linediff

import (
	"unicode/utf8"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// Diff compares base and other. A nil side is absent: every line of the
// non-nil side becomes ADD (base absent) or REMOVE (other absent).
func Diff(base, other *string) []mergespec.LineDiff {
	var baseLines, otherLines []string
	if base != nil {
		baseLines = SplitLines(*base)
	}
	if other != nil {
		otherLines = SplitLines(*other)
	}

	n := max(len(baseLines), len(otherLines))
	ops := make([]mergespec.LineDiff, 0, n)
	for i := 0; i < n; i++ {
		entry := mergespec.LineDiff{LineIndex: i}
		switch {
		case i < len(baseLines) && i < len(otherLines):
			entry.BaseLine = baseLines[i]
			entry.NewLine = otherLines[i]
			if baseLines[i] == otherLines[i] {
				entry.Op = mergespec.LineSame
			} else {
				entry.Op = mergespec.LineModify
			}
		case i < len(baseLines):
			entry.BaseLine = baseLines[i]
			entry.Op = mergespec.LineRemove
		default:
			entry.NewLine = otherLines[i]
			entry.Op = mergespec.LineAdd
		}
		ops = append(ops, entry)
	}
	return ops
}

// DiffStrings compares two present texts.
func DiffStrings(base, other string) []mergespec.LineDiff {
	return Diff(&base, &other)
}

// SplitLines splits text into lines. \r\n counts as one terminator; \n, \r,
// \v, \f, the file, group and record separators (U+001C to U+001E), NEL,
// U+2028 and U+2029 each end a line too. A trailing terminator does not
// produce an extra empty line, and the empty string has no lines.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// Changed reports whether any operation in ops is not SAME.
func Changed(ops []mergespec.LineDiff) bool {
	for _, op := range ops {
		if op.Op != mergespec.LineSame {
			return true
		}
	}
	return false
}
