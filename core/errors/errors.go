// Package errors defines the error taxonomy shared by the merge engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Code is a stable identifier for a failure mode.
type Code string

const (
	// IdentityConflict indicates the same uuid was asserted with two object types.
	IdentityConflict Code = "IDENTITY_CONFLICT"
	// MalformedAttribute indicates an attribute bag lacks fields its type requires.
	MalformedAttribute Code = "MALFORMED_ATTRIBUTE"
	// Configuration indicates invalid thresholds or policies.
	Configuration Code = "CONFIGURATION"
	// DiffFailed indicates an unexpected differ failure for one object.
	DiffFailed Code = "DIFF_FAILED"
	// SummaryFailed indicates the summarization collaborator failed for one object.
	SummaryFailed Code = "SUMMARY_FAILED"
	// LoadFailed indicates a package could not be loaded.
	LoadFailed Code = "LOAD_FAILED"
	// Internal indicates an unexpected error.
	Internal Code = "INTERNAL_ERROR"
)

// IdentityConflictError reports a uuid asserted with incompatible object types.
type IdentityConflictError struct {
	UUID     string
	Existing string
	Asserted string
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("[%s] object %s asserted as %q but already registered as %q",
		IdentityConflict, e.UUID, e.Asserted, e.Existing)
}

// MalformedAttributeError reports an attribute bag missing required fields for its type.
type MalformedAttributeError struct {
	UUID       string
	ObjectType string
	Package    string
	Field      string
	Reason     string
}

func (e *MalformedAttributeError) Error() string {
	where := e.UUID
	if e.Package != "" {
		where = e.Package + ":" + e.UUID
	}
	return fmt.Sprintf("[%s] %s %s: field %q %s", MalformedAttribute, e.ObjectType, where, e.Field, e.Reason)
}

// ConfigurationError enumerates every configuration problem found during validation.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] invalid configuration (%d problem(s)): %s",
		Configuration, len(e.Problems), strings.Join(e.Problems, "; "))
}

// Add appends a problem.
func (e *ConfigurationError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// OrNil returns e when it holds problems, nil otherwise.
func (e *ConfigurationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// LoadError reports a package that could not be loaded.
type LoadError struct {
	Label string
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("[%s] package %s (%s): %v", LoadFailed, e.Label, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CodeOf returns the stable code for err, falling back to fallback for untyped errors.
func CodeOf(err error, fallback Code) Code {
	var ic *IdentityConflictError
	if stderrors.As(err, &ic) {
		return IdentityConflict
	}
	var ma *MalformedAttributeError
	if stderrors.As(err, &ma) {
		return MalformedAttribute
	}
	var ce *ConfigurationError
	if stderrors.As(err, &ce) {
		return Configuration
	}
	var le *LoadError
	if stderrors.As(err, &le) {
		return LoadFailed
	}
	return fallback
}
