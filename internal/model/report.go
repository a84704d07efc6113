package model

// Severity ranks a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Violation is one architectural rule finding.
type Violation struct {
	RuleID     string   `json:"rule_id"`
	Severity   Severity `json:"severity"`
	TypeName   string   `json:"type"`
	File       string   `json:"file"`
	Line       int      `json:"line,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	// Metric carries the supporting metric value when one exists.
	Metric float64 `json:"metric,omitempty"`
}

// DetectedPattern is one design-pattern finding for a type.
type DetectedPattern struct {
	Pattern    string   `json:"pattern"`
	TypeName   string   `json:"type"`
	File       string   `json:"file"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// Diagnostic records a non-fatal anomaly: an unreadable or malformed file,
// a faulted rule or matcher, or a failed report artifact.
type Diagnostic struct {
	Stage   string `json:"stage"` // scan, rule, pattern, report
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// RuleCount pairs a rule id with its violation count.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// Summary is the caller-facing result of one analysis run.
type Summary struct {
	Repo                 string           `json:"repository"`
	FilesAnalyzed        int              `json:"files_analyzed"`
	FilesSkipped         int              `json:"files_skipped"`
	TotalTypes           int              `json:"total_types_analyzed"`
	TotalViolations      int              `json:"total_violations"`
	ViolationsBySeverity map[Severity]int `json:"violations_by_severity"`
	// TopRules lists the five most-violated rule ids, descending.
	TopRules      []RuleCount    `json:"top_rules"`
	PatternCounts map[string]int `json:"pattern_counts"`
	// ReportErrors maps artifact name to failure message for artifacts
	// that could not be written. Empty on a clean run.
	ReportErrors map[string]string `json:"report_errors,omitempty"`
}

// NamespaceMetrics holds per-namespace aggregates for reporting.
type NamespaceMetrics struct {
	Namespace   string  `json:"namespace"`
	Types       int     `json:"types"`
	Outgoing    int     `json:"outgoing"`
	Incoming    int     `json:"incoming"`
	Instability float64 `json:"instability"`
}

// Result is the full output of one analysis run, consumed by the report
// generator. Everything here is a pure function of the scanned input.
type Result struct {
	Repo            string
	Types           map[TypeKey]*TypeDeclaration
	Namespaces      []NamespaceMetrics
	Edges           []DependencyEdge
	DIRegistrations []DIRegistration
	Violations      []Violation
	Patterns        []DetectedPattern
	Diagnostics     []Diagnostic
	Summary         Summary
}
