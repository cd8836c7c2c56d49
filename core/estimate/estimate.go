// Package estimate maps diff magnitude to a complexity tier and remediation time.
package estimate

import (
	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
)

// Thresholds configures the estimator.
type Thresholds struct {
	LowMax        int      `json:"lowMax" yaml:"lowMax" mapstructure:"lowMax"`
	MediumMax     int      `json:"mediumMax" yaml:"mediumMax" mapstructure:"mediumMax"`
	MinutesLow    int      `json:"minutesLow" yaml:"minutesLow" mapstructure:"minutesLow"`
	MinutesMedium int      `json:"minutesMedium" yaml:"minutesMedium" mapstructure:"minutesMedium"`
	MinutesHigh   int      `json:"minutesHigh" yaml:"minutesHigh" mapstructure:"minutesHigh"`
	AlwaysLow     []string `json:"alwaysLow" yaml:"alwaysLow" mapstructure:"alwaysLow"`
}

// DefaultThresholds returns the shipped thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowMax:        10,
		MediumMax:     50,
		MinutesLow:    15,
		MinutesMedium: 60,
		MinutesHigh:   240,
	}
}

// Check appends every threshold problem to ce.
func (t Thresholds) Check(ce *mergeerr.ConfigurationError) {
	if t.LowMax < 0 {
		ce.Add("complexity.lowMax (%d) must not be negative", t.LowMax)
	}
	if t.LowMax >= t.MediumMax {
		ce.Add("complexity.lowMax (%d) must be less than complexity.mediumMax (%d)", t.LowMax, t.MediumMax)
	}
	if t.MinutesLow < 0 {
		ce.Add("complexity.minutesLow (%d) must not be negative", t.MinutesLow)
	}
	if t.MinutesLow >= t.MinutesMedium {
		ce.Add("complexity.minutesLow (%d) must be less than complexity.minutesMedium (%d)", t.MinutesLow, t.MinutesMedium)
	}
	if t.MinutesMedium >= t.MinutesHigh {
		ce.Add("complexity.minutesMedium (%d) must be less than complexity.minutesHigh (%d)", t.MinutesMedium, t.MinutesHigh)
	}
	for i, name := range t.AlwaysLow {
		if name == "" {
			ce.Add("complexity.alwaysLow[%d] is empty", i)
		}
	}
}

// Validate returns a *errors.ConfigurationError listing every problem, or nil.
func (t Thresholds) Validate() error {
	ce := &mergeerr.ConfigurationError{}
	t.Check(ce)
	return ce.OrNil()
}

// CapabilityLookup resolves an object type's catalogue capability.
type CapabilityLookup interface {
	Capability(objectType string) objects.Capability
}

// Estimator derives complexity estimates. It is immutable and safe for concurrent use.
type Estimator struct {
	thresholds   Thresholds
	alwaysLow    map[string]bool
	capabilities CapabilityLookup
}

// New validates t and returns an Estimator. capabilities may be nil, in which
// case only the configured allow-list forces LOW.
func New(t Thresholds, capabilities CapabilityLookup) (*Estimator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	allow := make(map[string]bool, len(t.AlwaysLow))
	for _, name := range t.AlwaysLow {
		allow[name] = true
	}
	return &Estimator{thresholds: t, alwaysLow: allow, capabilities: capabilities}, nil
}

// Estimate returns the complexity tier for a change of objectType.
//
// The magnitude is taken from the vendor-side delta when present, otherwise
// the customer side: non-SAME line operations for line diffs, added plus
// removed plus modified nodes for graph diffs. Allow-listed and AlwaysLow
// types are LOW regardless of magnitude. A change whose diff is unavailable is
// HIGH, since a reviewer has to inspect it by hand.
func (e *Estimator) Estimate(objectType string, diff mergespec.DiffResult) mergespec.ComplexityEstimate {
	magnitude := diff.Preferred().Magnitude()

	if e.alwaysLow[objectType] || (e.capabilities != nil && e.capabilities.Capability(objectType) == objects.AlwaysLow) {
		return e.estimate(mergespec.ComplexityLow, magnitude)
	}
	if diff.Kind == mergespec.DiffKindNone {
		return e.estimate(mergespec.ComplexityHigh, magnitude)
	}
	return e.estimate(e.Level(magnitude), magnitude)
}

// Level thresholds a magnitude.
func (e *Estimator) Level(magnitude int) mergespec.ComplexityLevel {
	switch {
	case magnitude <= e.thresholds.LowMax:
		return mergespec.ComplexityLow
	case magnitude <= e.thresholds.MediumMax:
		return mergespec.ComplexityMedium
	default:
		return mergespec.ComplexityHigh
	}
}

// Minutes returns the configured remediation time for a level.
func (e *Estimator) Minutes(level mergespec.ComplexityLevel) int {
	switch level {
	case mergespec.ComplexityLow:
		return e.thresholds.MinutesLow
	case mergespec.ComplexityMedium:
		return e.thresholds.MinutesMedium
	default:
		return e.thresholds.MinutesHigh
	}
}

func (e *Estimator) estimate(level mergespec.ComplexityLevel, magnitude int) mergespec.ComplexityEstimate {
	return mergespec.ComplexityEstimate{Level: level, Minutes: e.Minutes(level), Magnitude: magnitude}
}
