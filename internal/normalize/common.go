package normalize

import (
	"strconv"
	"strings"
	"time"

	"solace/internal/domain"
)

// zeroTimeStamp is what Prometheus/Grafana send for an unresolved alert's
// endsAt.
const zeroTimeStamp = "0001-01-01T00:00:00Z"

// parseRFC3339OrZero parses a provider timestamp, returning nil for empty,
// zero-time, or unparseable values — unparseable timestamps degrade to
// null rather than failing normalization (spec.md §4.1 failure semantics).
func parseRFC3339OrZero(ts string) *time.Time {
	if ts == "" || ts == zeroTimeStamp {
		return nil
	}
	cleaned := strings.ReplaceAll(ts, "Z", "+00:00")
	t, err := time.Parse(time.RFC3339, cleaned)
	if err != nil {
		// Fall back to the raw string in case it already carries a
		// numeric offset without the Z->+00:00 rewrite.
		t2, err2 := time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return nil
		}
		t = t2
	}
	return &t
}

// labelSeverityKeys is the priority-ordered set of label keys that might
// carry severity, shared by Prometheus and Grafana normalizers.
var labelSeverityKeys = []string{"severity", "priority", "level"}

// extractSeverityFromLabels scans keys in priority order and maps the
// first recognized alias to the canonical Severity, defaulting to warning.
func extractSeverityFromLabels(labels map[string]string, keys []string) domain.Severity {
	for _, key := range keys {
		raw := strings.ToLower(strings.TrimSpace(labels[key]))
		if raw == "" {
			continue
		}
		if sev, ok := domain.ParseSeverityAlias(raw); ok {
			return sev
		}
	}
	return domain.SeverityWarning
}

var serviceLabelKeys = []string{"service", "app", "application", "job", "namespace"}
var environmentLabelKeys = []string{"environment", "env", "tier", "stage"}

func extractFirstLabel(labels map[string]string, keys []string) string {
	for _, key := range keys {
		if v, ok := labels[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// extractHostFromInstance strips a ":port" suffix from a Prometheus/Grafana
// "instance" label, falling back to node/host labels.
func extractHostFromInstance(labels map[string]string) string {
	if instance := labels["instance"]; instance != "" {
		if idx := strings.Index(instance, ":"); idx >= 0 {
			return instance[:idx]
		}
		return instance
	}
	if node := labels["node"]; node != "" {
		return node
	}
	return labels["host"]
}

func extractDescriptionFromAnnotations(annotations map[string]string, keys []string) string {
	for _, key := range keys {
		if v, ok := annotations[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// cleanLabels returns labels with the given keys removed, so extracted
// structured fields are not duplicated in the labels map (spec.md §4.1).
func cleanLabels(labels map[string]string, exclude map[string]bool) domain.StringMap {
	out := domain.StringMap{}
	for k, v := range labels {
		if exclude[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// toStringMap converts a loosely-typed JSON object (map[string]interface{})
// into a map[string]string, stringifying non-string scalar values. Webhook
// payloads are decoded as map[string]interface{} so label/annotation
// values may arrive as numbers or bools depending on the provider.
func toStringMap(v interface{}) map[string]string {
	out := map[string]string{}
	m, ok := v.(map[string]interface{})
	if !ok {
		return out
	}
	for k, val := range m {
		out[k] = stringify(val)
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}
