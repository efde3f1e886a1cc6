package normalize

import (
	"strconv"
	"strings"

	"solace/internal/domain"
)

// Field-key priority lists shared with the Splunk email normalizer —
// Splunk's webhook payload has no fixed schema since field names come
// straight from the SPL query (original_source/backend/integrations/
// splunk.py).
var (
	splunkSeverityFieldKeys = []string{
		"severity", "priority", "urgency", "level",
		"alert_severity", "risk_level", "risk_score",
	}
	splunkHostFieldKeys = []string{
		"host", "hostname", "src_host", "dest", "dest_host",
		"dvc", "dvc_host", "computer", "node", "instance",
		"ComputerName", "server", "src", "src_ip",
	}
	splunkServiceFieldKeys = []string{
		"service", "app", "application", "service_name",
		"sourcetype", "index", "source_app",
	}
	splunkEnvFieldKeys = []string{
		"environment", "env", "tier", "stage", "datacenter", "dc", "region",
	}
	splunkDescriptionFieldKeys = []string{
		"message", "msg", "description", "summary", "reason",
		"details", "alert_message", "comment", "latest_error", "_raw",
	}
)

var splunkSeverityAliases = map[string]domain.Severity{
	"critical": domain.SeverityCritical, "crit": domain.SeverityCritical,
	"high": domain.SeverityHigh, "major": domain.SeverityHigh,
	"medium": domain.SeverityWarning, "warning": domain.SeverityWarning, "warn": domain.SeverityWarning,
	"low": domain.SeverityLow, "minor": domain.SeverityLow,
	"info": domain.SeverityInfo, "informational": domain.SeverityInfo,
	"urgent": domain.SeverityCritical,
	"5":      domain.SeverityCritical, "4": domain.SeverityHigh, "3": domain.SeverityWarning,
	"2": domain.SeverityLow, "1": domain.SeverityInfo,
}

func splunkExtractFromResult(result map[string]string, keys []string) string {
	for _, key := range keys {
		if v, ok := result[key]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v
			}
		}
	}
	return ""
}

func splunkExtractSeverity(result map[string]string) domain.Severity {
	raw := splunkExtractFromResult(result, splunkSeverityFieldKeys)
	if raw == "" {
		return domain.SeverityWarning
	}
	if sev, ok := splunkSeverityAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return sev
	}
	if score, err := strconv.ParseFloat(raw, 64); err == nil {
		return domain.SeverityFromRiskScore(score)
	}
	return domain.SeverityWarning
}

// splunkBuildLabels copies every result field not already extracted and
// not Splunk-internal (leading underscore) into labels.
func splunkBuildLabels(result map[string]string, extracted map[string]bool) domain.StringMap {
	out := domain.StringMap{}
	for k, v := range result {
		if extracted[k] || strings.TrimSpace(v) == "" {
			continue
		}
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

func splunkExtractedKeySet() map[string]bool {
	extracted := map[string]bool{}
	for _, list := range [][]string{
		splunkSeverityFieldKeys, splunkHostFieldKeys,
		splunkServiceFieldKeys, splunkEnvFieldKeys, splunkDescriptionFieldKeys,
	} {
		for _, k := range list {
			extracted[k] = true
		}
	}
	return extracted
}

type splunkNormalizer struct{}

func init() {
	Register("splunk", splunkNormalizer{})
}

func (splunkNormalizer) Validate(payload map[string]interface{}) bool {
	if _, ok := payload["sid"]; !ok {
		return false
	}
	_, ok := payload["result"].(map[string]interface{})
	return ok
}

func (splunkNormalizer) Normalize(payload map[string]interface{}) []domain.NormalizedAlert {
	result := toStringMap(payload["result"])
	sid := asString(payload["sid"])
	searchName := asString(payload["search_name"])
	resultsLink := asString(payload["results_link"])
	owner := asString(payload["owner"])
	app := asString(payload["app"])

	name := searchName
	if name == "" {
		if sid != "" {
			cut := sid
			if len(cut) > 20 {
				cut = cut[:20]
			}
			name = "Splunk Alert (" + cut + "...)"
		} else {
			name = "Splunk Alert"
		}
	}

	severity := splunkExtractSeverity(result)
	host := splunkExtractFromResult(result, splunkHostFieldKeys)
	service := splunkExtractFromResult(result, splunkServiceFieldKeys)
	environment := splunkExtractFromResult(result, splunkEnvFieldKeys)
	description := splunkExtractFromResult(result, splunkDescriptionFieldKeys)

	labels := splunkBuildLabels(result, splunkExtractedKeySet())
	if owner != "" {
		labels["splunk_owner"] = owner
	}
	if app != "" {
		labels["splunk_app"] = app
	}
	if sid != "" {
		labels["splunk_sid"] = sid
	}

	annotations := domain.StringMap{}
	if resultsLink != "" {
		annotations["results_link"] = resultsLink
	}

	na := domain.NormalizedAlert{
		Name:           name,
		Source:         "splunk",
		SourceInstance: resultsLink,
		Severity:       severity,
		Status:         domain.AlertStatusFiring,
		Description:    description,
		Service:        service,
		Environment:    environment,
		Host:           host,
		Labels:         labels,
		Annotations:    annotations,
		GeneratorURL:   resultsLink,
		RawPayload:     domain.RawJSON(payload),
	}
	return []domain.NormalizedAlert{na}
}
