package normalize

import "solace/internal/domain"

// prometheusExtractedKeys mirrors extracted_keys in
// original_source/backend/integrations/prometheus.py: fields pulled out of
// labels into structured columns are stripped from the remaining labels
// map, following spec.md §4.1's "remove them from the labels mapping"
// instruction.
var prometheusExtractedKeys = map[string]bool{
	"alertname": true, "severity": true, "priority": true, "level": true,
	"service": true, "app": true, "application": true,
	"environment": true, "env": true, "tier": true, "stage": true,
}

type prometheusNormalizer struct{}

func init() {
	Register("prometheus", prometheusNormalizer{})
}

func (prometheusNormalizer) Validate(payload map[string]interface{}) bool {
	alertsRaw, ok := payload["alerts"]
	if !ok {
		return false
	}
	alerts := asSlice(alertsRaw)
	if len(alerts) == 0 {
		return false
	}
	for _, a := range alerts {
		entry, ok := a.(map[string]interface{})
		if !ok {
			return false
		}
		if _, ok := entry["labels"]; !ok {
			return false
		}
		if toStringMap(entry["labels"])["alertname"] == "" {
			return false
		}
	}
	return true
}

func (prometheusNormalizer) Normalize(payload map[string]interface{}) []domain.NormalizedAlert {
	externalURL := asString(payload["externalURL"])
	var out []domain.NormalizedAlert

	for _, a := range asSlice(payload["alerts"]) {
		entry, ok := a.(map[string]interface{})
		if !ok {
			continue
		}
		labels := toStringMap(entry["labels"])
		annotations := toStringMap(entry["annotations"])

		name := labels["alertname"]
		if name == "" {
			name = "UnnamedAlert"
		}
		status := domain.AlertStatusFiring
		if asString(entry["status"]) != "firing" && asString(entry["status"]) != "" {
			status = domain.AlertStatusResolved
		}

		severity := extractSeverityFromLabels(labels, labelSeverityKeys)
		service := extractFirstLabel(labels, serviceLabelKeys)
		host := extractHostFromInstance(labels)
		environment := extractFirstLabel(labels, environmentLabelKeys)
		description := extractDescriptionFromAnnotations(annotations, []string{"description", "summary", "message"})

		clean := cleanLabels(labels, prometheusExtractedKeys)

		na := domain.NormalizedAlert{
			Name:           name,
			Source:         "prometheus",
			SourceInstance: externalURL,
			Severity:       severity,
			Status:         status,
			Description:    description,
			Service:        service,
			Environment:    environment,
			Host:           host,
			Labels:         clean,
			Annotations:    domain.StringMap(annotations),
			RunbookURL:     annotations["runbook_url"],
			GeneratorURL:   asString(entry["generatorURL"]),
			StartsAt:       parseRFC3339OrZero(asString(entry["startsAt"])),
			EndsAt:         parseRFC3339OrZero(asString(entry["endsAt"])),
			RawPayload:     domain.RawJSON(entry),
		}
		out = append(out, na)
	}
	return out
}
