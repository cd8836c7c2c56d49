package mergespec

import "time"

// Stats summarizes one merge pass.
type Stats struct {
	Objects      int                    `json:"objects" yaml:"objects"`
	Counts       map[Classification]int `json:"counts" yaml:"counts"`
	TotalMinutes int                    `json:"total_minutes" yaml:"total_minutes"`
	Failures     int                    `json:"failures" yaml:"failures"`
	// IdentityConflicts counts uuids downgraded to the Unknown type.
	IdentityConflicts int `json:"identity_conflicts" yaml:"identity_conflicts"`
}

// Report is what a merge pass hands to the persistence collaborator.
type Report struct {
	SessionID   string                  `json:"session_id" yaml:"session_id"`
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	Versions    map[PackageLabel]string `json:"versions" yaml:"versions"`
	Stats       Stats                   `json:"stats" yaml:"stats"`
	Warnings    []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Results     []Result                `json:"results" yaml:"results"`
}
