// Package pipeline runs one merge pass over a package triple: a sequential
// identity pre-pass, bounded parallel per-identity processing and
// deterministic ordering of the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/emenda-labs/mergeassist/core/classify"
	"github.com/emenda-labs/mergeassist/core/config"
	"github.com/emenda-labs/mergeassist/core/driver"
	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/estimate"
	"github.com/emenda-labs/mergeassist/core/guidance"
	"github.com/emenda-labs/mergeassist/core/identity"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objdiff"
	"github.com/emenda-labs/mergeassist/pkg/logging"
	"github.com/emenda-labs/mergeassist/pkg/release"
)

const (
	stageIdentity  = "identity"
	stageGuidance  = "guidance"
	stageSummarize = "summarize"
	stageProcess   = "process"
)

// Options configures a Pipeline.
type Options struct {
	Thresholds  estimate.Thresholds
	Convergence classify.ConvergencePolicy
	Cosmetic    guidance.CosmeticPolicy
	// Workers bounds per-identity concurrency; 0 uses GOMAXPROCS.
	Workers int
	// Differs dispatches object types to differ strategies; nil uses the built-in catalogue.
	Differs *objdiff.Registry
	// Summarizer is optional.
	Summarizer driver.Summarizer
	Logger     *slog.Logger
	// Now stamps reports; nil uses time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps a validated configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Thresholds:  cfg.Complexity,
		Convergence: cfg.Classify.Convergence,
		Cosmetic:    cfg.Guidance.Cosmetic,
		Workers:     cfg.Workers,
		Differs:     objdiff.NewRegistry(cfg.Catalogue()),
	}
}

// Pipeline is safe for concurrent use; every Run owns its identity registry.
type Pipeline struct {
	differs    *objdiff.Registry
	evaluator  *classify.Evaluator
	estimator  *estimate.Estimator
	generator  *guidance.Generator
	summarizer driver.Summarizer
	workers    int
	logger     *slog.Logger
	now        func() time.Time
}

// New validates the options and builds a Pipeline. Invalid thresholds or
// policies are reported together as a *errors.ConfigurationError before any
// classification can run.
func New(opts Options) (*Pipeline, error) {
	ce := &mergeerr.ConfigurationError{}
	opts.Thresholds.Check(ce)
	if !opts.Convergence.Valid() {
		ce.Add("classify.convergence %q is not a known policy", opts.Convergence)
	}
	if !opts.Cosmetic.Valid() {
		ce.Add("guidance.cosmetic %q is not a known policy", opts.Cosmetic)
	}
	if opts.Workers < 0 {
		ce.Add("workers (%d) must not be negative", opts.Workers)
	}
	if err := ce.OrNil(); err != nil {
		return nil, err
	}

	differs := opts.Differs
	if differs == nil {
		differs = objdiff.NewRegistry(nil)
	}
	estimator, err := estimate.New(opts.Thresholds, differs)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		differs:    differs,
		evaluator:  classify.NewEvaluator(differs, opts.Convergence),
		estimator:  estimator,
		generator:  guidance.New(differs, opts.Cosmetic),
		summarizer: opts.Summarizer,
		workers:    opts.Workers,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if p.workers == 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	if p.logger == nil {
		p.logger = logging.NewDiscardLogger()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Run classifies every identity of t and returns the report, results ordered
// by display order. Per-object failures are recorded on the results; only
// context cancellation stops the pass.
func (p *Pipeline) Run(ctx context.Context, t mergespec.Triple) (*mergespec.Report, error) {
	start := time.Now()
	p.logger.Info("Merge pass started",
		"base", len(t.Base.Objects),
		"customized", len(t.Customized.Objects),
		"vendor", len(t.Vendor.Objects),
		"workers", p.workers,
	)

	warnings := release.Check(t)
	for _, w := range warnings {
		p.logger.Warn("Package version check", "warning", w)
	}

	registry := identity.NewRegistry(p.logger)
	identityErrs := registry.ResolveTriple(t)
	ids := identity.SortedByDisplay(registry.All())

	results := make([]mergespec.Result, len(ids))
	sem := semaphore.NewWeighted(int64(p.workers))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, id := range ids {
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return fmt.Errorf("acquire worker: %w", err)
			}
			defer sem.Release(1)

			r, err := p.processRecovered(groupCtx, id, t.Versions(id.UUID), identityErrs[id.UUID])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("merge pass: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("merge pass: %w", err)
	}

	for i := range results {
		results[i].Change.DisplayOrder = i + 1
		for _, f := range results[i].Failures {
			p.logger.Warn("Object failure recorded",
				"uuid", results[i].Change.UUID,
				"type", results[i].Change.ObjectType,
				"code", f.Code,
				"stage", f.Stage,
				"error", f.Message,
			)
		}
	}

	stats := ComputeStats(results)
	stats.IdentityConflicts = len(registry.Conflicts())

	attrs := []any{"objects", stats.Objects, "minutes", stats.TotalMinutes, "failures", stats.Failures, "elapsed", time.Since(start)}
	for _, c := range mergespec.Classifications {
		attrs = append(attrs, string(c), stats.Counts[c])
	}
	p.logger.Info("Merge pass complete", attrs...)

	return &mergespec.Report{
		SessionID:   uuid.NewString(),
		GeneratedAt: p.now().UTC(),
		Versions: map[mergespec.PackageLabel]string{
			mergespec.PackageBase:       t.Base.Version,
			mergespec.PackageCustomized: t.Customized.Version,
			mergespec.PackageVendor:     t.Vendor.Version,
		},
		Stats:    stats,
		Warnings: warnings,
		Results:  results,
	}, nil
}

// processRecovered runs process and turns a panic in any stage into an
// INTERNAL_ERROR failure on a presence-only result.
func (p *Pipeline) processRecovered(ctx context.Context, id mergespec.Identity, v mergespec.Versions, identityErrs []error) (r mergespec.Result, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		p.logger.Error("Object processing panicked", "uuid", id.UUID, "type", id.ObjectType, "panic", rec)
		r, err = p.fallback(id, v, identityErrs, fmt.Errorf("panic: %v", rec))
	}()
	return p.process(ctx, id, v, identityErrs)
}

// fallback classifies id without diffing after cause stopped normal processing.
func (p *Pipeline) fallback(id mergespec.Identity, v mergespec.Versions, identityErrs []error, cause error) (mergespec.Result, error) {
	ev, err := p.evaluator.FromVersions(id, v)
	if err != nil {
		return mergespec.Result{}, err
	}

	r := mergespec.Result{Change: ev.Change, Diff: ev.Diff}
	for _, e := range identityErrs {
		r.Failures = append(r.Failures, failure(stageIdentity, e, mergeerr.IdentityConflict))
	}
	r.Failures = append(r.Failures, failure(stageProcess, cause, mergeerr.Internal))
	r.Complexity = p.estimator.Estimate(id.ObjectType, ev.Diff)
	if r.Change.Classification == mergespec.ClassConflict {
		r.Guidance = guidance.Manual()
	}
	return r, nil
}

// process builds the result for one identity.
func (p *Pipeline) process(ctx context.Context, id mergespec.Identity, v mergespec.Versions, identityErrs []error) (mergespec.Result, error) {
	ev, err := p.evaluator.Evaluate(id, v)
	if err != nil {
		return mergespec.Result{}, err
	}

	r := mergespec.Result{Change: ev.Change, Diff: ev.Diff}
	for _, e := range identityErrs {
		r.Failures = append(r.Failures, failure(stageIdentity, e, mergeerr.IdentityConflict))
	}
	r.Failures = append(r.Failures, ev.Failures...)

	r.Complexity = p.estimator.Estimate(id.ObjectType, ev.Diff)

	if r.Change.Classification == mergespec.ClassConflict {
		if r.Change.DiffUnavailable {
			r.Guidance = guidance.Manual()
		} else {
			g, err := p.generator.Generate(id.ObjectType, v)
			if err != nil {
				r.Failures = append(r.Failures, failure(stageGuidance, err, mergeerr.DiffFailed))
			}
			r.Guidance = g
		}
	}

	if p.summarizer != nil && needsSummary(r.Change.Classification) {
		summary, err := p.summarizer.Summarize(ctx, r)
		if err != nil {
			r.Failures = append(r.Failures, failure(stageSummarize, err, mergeerr.SummaryFailed))
		} else {
			r.Summary = summary
		}
	}
	return r, nil
}

func needsSummary(c mergespec.Classification) bool {
	return c == mergespec.ClassConflict || c == mergespec.ClassRemovedButCustomized
}

func failure(stage string, err error, fallback mergeerr.Code) mergespec.ObjectFailure {
	return mergespec.ObjectFailure{
		Code:    string(mergeerr.CodeOf(err, fallback)),
		Stage:   stage,
		Message: err.Error(),
	}
}

// ComputeStats counts results per classification and sums the estimated
// minutes of every change a reviewer has to look at, i.e. all but UNCHANGED.
func ComputeStats(results []mergespec.Result) mergespec.Stats {
	s := mergespec.Stats{
		Objects: len(results),
		Counts:  make(map[mergespec.Classification]int, len(mergespec.Classifications)),
	}
	for _, c := range mergespec.Classifications {
		s.Counts[c] = 0
	}
	for _, r := range results {
		s.Counts[r.Change.Classification]++
		if r.Change.Classification != mergespec.ClassUnchanged {
			s.TotalMinutes += r.Complexity.Minutes
		}
		if len(r.Failures) > 0 {
			s.Failures++
		}
	}
	return s
}
