package domain

// Severity is a totally ordered enum: info < low < warning < high < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityOrder mirrors SEVERITY_ORDER in
// original_source/backend/core/correlation.py: index order defines rank.
var severityOrder = []Severity{
	SeverityInfo,
	SeverityLow,
	SeverityWarning,
	SeverityHigh,
	SeverityCritical,
}

func (s Severity) index() int {
	for i, v := range severityOrder {
		if v == s {
			return i
		}
	}
	return 0
}

// Valid reports whether s is one of the five canonical severities.
func (s Severity) Valid() bool {
	for _, v := range severityOrder {
		if v == s {
			return true
		}
	}
	return false
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if a.index() >= b.index() {
		return a
	}
	return b
}

// Predecessor returns the severity one rank below s, clamped at info. This
// exists only to reproduce the severity_changed.from bug faithfully — see
// correlate.attachToIncident.
func (s Severity) Predecessor() Severity {
	idx := s.index() - 1
	if idx < 0 {
		idx = 0
	}
	return severityOrder[idx]
}

// severityAliases maps provider-specific spellings onto the canonical set.
// Shared by every normalizer per spec.md §4.1.
var severityAliases = map[string]Severity{
	"critical":      SeverityCritical,
	"error":         SeverityCritical,
	"high":          SeverityHigh,
	"major":         SeverityHigh,
	"warning":       SeverityWarning,
	"warn":          SeverityWarning,
	"low":           SeverityLow,
	"minor":         SeverityLow,
	"info":          SeverityInfo,
	"informational": SeverityInfo,
	"none":          SeverityInfo,
	"page":          SeverityCritical,
	"ticket":        SeverityWarning,
}

// ParseSeverityAlias normalizes a lowercase provider severity token. The
// bool is false when the token is not recognized.
func ParseSeverityAlias(token string) (Severity, bool) {
	v, ok := severityAliases[token]
	return v, ok
}

// SeverityFromRiskScore buckets a numeric risk score per spec.md §3/§4.1.
func SeverityFromRiskScore(score float64) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityWarning
	case score >= 20:
		return SeverityLow
	default:
		return SeverityInfo
	}
}
