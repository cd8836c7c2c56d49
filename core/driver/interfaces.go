package driver

import (
	"context"

	"github.com/emenda-labs/mergeassist/core/mergespec"
)

// PackageLoader is the ingestion collaborator. Each object-platform driver
// implements it for its own package format.
type PackageLoader interface {
	// Load reads the package at path and labels it. The loaded package must
	// not be mutated afterwards; the pipeline reads it from several goroutines.
	Load(ctx context.Context, label mergespec.PackageLabel, path string) (mergespec.Package, error)
}

// Summarizer produces a short natural-language summary of a change.
// Failures are recorded on the result and never abort a merge pass.
type Summarizer interface {
	Summarize(ctx context.Context, r mergespec.Result) (string, error)
}

// ResultSink is the persistence collaborator. It receives the finished
// report, results ordered by display order.
type ResultSink interface {
	Store(ctx context.Context, report *mergespec.Report) error
}
