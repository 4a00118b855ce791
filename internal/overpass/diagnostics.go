package overpass

// Severity classifies a diagnostic as fatal or advisory.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// DiagnosticKind identifies what a diagnostic is about.
type DiagnosticKind string

const (
	DiagnosticDeprecatedTag     DiagnosticKind = "deprecated_tag"
	DiagnosticLookupUnavailable DiagnosticKind = "lookup_unavailable"
	DiagnosticStructural        DiagnosticKind = "structural"
	DiagnosticSemantic          DiagnosticKind = "semantic"
)

// ValidationDiagnostic describes a finding from the validation passes. Hard
// diagnostics abort the pipeline; soft diagnostics ride along on a
// successful result.
type ValidationDiagnostic struct {
	Severity Severity       `json:"severity"`
	Kind     DiagnosticKind `json:"kind"`
	Message  string         `json:"message"`
	Fragment string         `json:"fragment,omitempty"`
}

// SoftDiagnostic builds an advisory diagnostic.
func SoftDiagnostic(kind DiagnosticKind, message, fragment string) ValidationDiagnostic {
	return ValidationDiagnostic{
		Severity: SeveritySoft,
		Kind:     kind,
		Message:  message,
		Fragment: fragment,
	}
}
