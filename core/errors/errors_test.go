package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"identity", &IdentityConflictError{UUID: "u1", Existing: "Interface", Asserted: "Constant"}, IdentityConflict},
		{"malformed", &MalformedAttributeError{UUID: "u1", Field: "nodes"}, MalformedAttribute},
		{"wrapped malformed", fmt.Errorf("diffing: %w", &MalformedAttributeError{UUID: "u1"}), MalformedAttribute},
		{"configuration", &ConfigurationError{Problems: []string{"x"}}, Configuration},
		{"load", &LoadError{Label: "A", Path: "a.zip", Err: stderrors.New("truncated")}, LoadFailed},
		{"plain", stderrors.New("boom"), DiffFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err, DiffFailed); got != tt.want {
				t.Errorf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigurationError_OrNil(t *testing.T) {
	ce := &ConfigurationError{}
	if ce.OrNil() != nil {
		t.Fatal("empty ConfigurationError should be nil")
	}

	ce.Add("lowMax (%d) must be less than mediumMax (%d)", 10, 5)
	ce.Add("minutesLow must be positive")

	err := ce.OrNil()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "2 problem(s)") {
		t.Errorf("message %q should count problems", msg)
	}
	if !strings.Contains(msg, "lowMax (10) must be less than mediumMax (5)") {
		t.Errorf("message %q should list the threshold problem", msg)
	}
}

func TestMalformedAttributeError_Message(t *testing.T) {
	err := &MalformedAttributeError{UUID: "u9", ObjectType: "Process Model", Package: "C", Field: "nodes", Reason: "is missing"}
	want := `[MALFORMED_ATTRIBUTE] Process Model C:u9: field "nodes" is missing`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLoadError_Unwrap(t *testing.T) {
	cause := stderrors.New("truncated")
	err := fmt.Errorf("loading: %w", &LoadError{Label: "C", Path: "vendor.zip", Err: cause})
	if !stderrors.Is(err, cause) {
		t.Error("LoadError should unwrap to its cause")
	}
	if want := "[LOAD_FAILED] package C (vendor.zip): truncated"; !strings.Contains(err.Error(), want) {
		t.Errorf("message = %q, want it to contain %q", err.Error(), want)
	}
}
