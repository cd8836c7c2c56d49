package mergespec

// PackageLabel identifies which of the three releases an object version came from.
type PackageLabel string

const (
	PackageBase       PackageLabel = "A"
	PackageCustomized PackageLabel = "B"
	PackageVendor     PackageLabel = "C"
)

// Classification describes how an object's A/B/C relationship should be handled by a reviewer.
type Classification string

const (
	ClassUnchanged            Classification = "UNCHANGED"
	ClassNoConflict           Classification = "NO_CONFLICT"
	ClassCustomerOnly         Classification = "CUSTOMER_ONLY"
	ClassConflict             Classification = "CONFLICT"
	ClassRemovedButCustomized Classification = "REMOVED_BUT_CUSTOMIZED"
	ClassDeleted              Classification = "DELETED"
)

// Classifications lists every classification in report order.
var Classifications = []Classification{
	ClassConflict,
	ClassRemovedButCustomized,
	ClassCustomerOnly,
	ClassNoConflict,
	ClassDeleted,
	ClassUnchanged,
}

// ChangeType is the direction of one side's change relative to the base package.
type ChangeType string

const (
	ChangeAdded    ChangeType = "ADDED"
	ChangeModified ChangeType = "MODIFIED"
	ChangeRemoved  ChangeType = "REMOVED"
	ChangeNone     ChangeType = "NONE"
)

// Handle is the integer identity handle assigned by the identity registry.
type Handle int

// Identity is the stable cross-package handle for one logical object.
type Identity struct {
	Handle     Handle `json:"handle" yaml:"handle"`
	UUID       string `json:"uuid" yaml:"uuid"`
	ObjectType string `json:"object_type" yaml:"object_type"`
	Name       string `json:"name" yaml:"name"`
}

// Change is the classification outcome for one identity.
type Change struct {
	UUID               string         `json:"uuid" yaml:"uuid"`
	ObjectType         string         `json:"object_type" yaml:"object_type"`
	Name               string         `json:"name" yaml:"name"`
	Classification     Classification `json:"classification" yaml:"classification"`
	VendorChangeType   ChangeType     `json:"vendor_change_type" yaml:"vendor_change_type"`
	CustomerChangeType ChangeType     `json:"customer_change_type" yaml:"customer_change_type"`
	DisplayOrder       int            `json:"display_order" yaml:"display_order"`
	DiffUnavailable    bool           `json:"diff_unavailable,omitempty" yaml:"diff_unavailable,omitempty"`
}

// ComplexityLevel is the remediation complexity tier.
type ComplexityLevel string

const (
	ComplexityLow    ComplexityLevel = "LOW"
	ComplexityMedium ComplexityLevel = "MEDIUM"
	ComplexityHigh   ComplexityLevel = "HIGH"
)

// Rank orders complexity levels so LOW < MEDIUM < HIGH.
func (l ComplexityLevel) Rank() int {
	switch l {
	case ComplexityLow:
		return 0
	case ComplexityMedium:
		return 1
	case ComplexityHigh:
		return 2
	default:
		return -1
	}
}

// ComplexityEstimate is the derived complexity tier and remediation time for a change.
type ComplexityEstimate struct {
	Level   ComplexityLevel `json:"level" yaml:"level"`
	Minutes int             `json:"minutes" yaml:"minutes"`
	// Magnitude is the number of changed lines or graph nodes the level was derived from.
	Magnitude int `json:"magnitude" yaml:"magnitude"`
}

// Recommendation is the suggested reconciliation for a CONFLICT change.
type Recommendation string

const (
	RecommendAcceptVendor Recommendation = "ACCEPT_VENDOR"
	RecommendKeepCustomer Recommendation = "KEEP_CUSTOMER"
	RecommendManualMerge  Recommendation = "MANUAL_MERGE"
)

// ConflictType classifies a single per-field conflict.
type ConflictType string

const (
	ConflictContent           ConflictType = "content"
	ConflictCosmetic          ConflictType = "cosmetic"
	ConflictDeletedVsModified ConflictType = "deleted_vs_modified"
)

// FieldConflict records one attribute changed differently by customer and vendor.
type FieldConflict struct {
	Field         string       `json:"field" yaml:"field"`
	ConflictType  ConflictType `json:"conflict_type" yaml:"conflict_type"`
	BaseValue     string       `json:"base_value" yaml:"base_value"`
	CustomerValue string       `json:"customer_value" yaml:"customer_value"`
	VendorValue   string       `json:"vendor_value" yaml:"vendor_value"`
}

// MergeGuidance is produced only for CONFLICT changes.
type MergeGuidance struct {
	Recommendation Recommendation  `json:"recommendation" yaml:"recommendation"`
	Conflicts      []FieldConflict `json:"conflicts" yaml:"conflicts"`
}

// ObjectFailure records a per-object failure that did not abort the batch.
type ObjectFailure struct {
	Code    string `json:"code" yaml:"code"`
	Stage   string `json:"stage" yaml:"stage"`
	Message string `json:"message" yaml:"message"`
}

// Result bundles every output produced for one identity.
type Result struct {
	Change     Change             `json:"change" yaml:"change"`
	Diff       DiffResult         `json:"diff" yaml:"diff"`
	Complexity ComplexityEstimate `json:"complexity" yaml:"complexity"`
	Guidance   *MergeGuidance     `json:"guidance,omitempty" yaml:"guidance,omitempty"`
	Summary    string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	Failures   []ObjectFailure    `json:"failures,omitempty" yaml:"failures,omitempty"`
}
