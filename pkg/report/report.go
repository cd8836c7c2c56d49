// Package report renders merge reports as coloured text, JSON or YAML and
// stores them through driver.ResultSink.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/mergeassist/core/driver"
	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
	}
}

// Write renders r to w. Colour applies to the text format only.
func Write(w io.Writer, r *mergespec.Report, f Format, colorize bool) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return writeText(w, r, colorize)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

var _ driver.ResultSink = (*Sink)(nil)

// Sink stores reports to a file, or to a writer when no path is set.
type Sink struct {
	path     string
	w        io.Writer
	format   Format
	colorize bool
}

// NewFileSink creates a sink that writes each report to path, replacing it.
func NewFileSink(path string, f Format) *Sink {
	return &Sink{path: path, format: f}
}

// NewWriterSink creates a sink that writes each report to w.
func NewWriterSink(w io.Writer, f Format, colorize bool) *Sink {
	return &Sink{w: w, format: f, colorize: colorize}
}

// Store renders the report.
func (s *Sink) Store(ctx context.Context, r *mergespec.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return Write(s.w, r, s.format, s.colorize)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", s.path, err)
	}
	if err := Write(f, r, s.format, false); err != nil {
		f.Close()
		return fmt.Errorf("writing report %s: %w", s.path, err)
	}
	return f.Close()
}
