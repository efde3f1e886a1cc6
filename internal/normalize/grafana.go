package normalize

import "solace/internal/domain"

var grafanaSpecificFields = []string{"dashboardURL", "panelURL", "silenceURL", "valueString"}

type grafanaNormalizer struct{}

func init() {
	Register("grafana", grafanaNormalizer{})
}

func (grafanaNormalizer) Validate(payload map[string]interface{}) bool {
	alerts := asSlice(payload["alerts"])
	if len(alerts) == 0 {
		return false
	}
	for _, a := range alerts {
		entry, ok := a.(map[string]interface{})
		if !ok {
			return false
		}
		if toStringMap(entry["labels"])["alertname"] == "" {
			return false
		}
	}

	hasTopLevel := asString(payload["state"]) != "" || asString(payload["title"]) != "" || asString(payload["message"]) != ""
	hasAlertField := false
	for _, a := range alerts {
		entry, _ := a.(map[string]interface{})
		for _, key := range grafanaSpecificFields {
			if _, ok := entry[key]; ok {
				hasAlertField = true
			}
		}
	}
	return hasTopLevel || hasAlertField
}

func (grafanaNormalizer) Normalize(payload map[string]interface{}) []domain.NormalizedAlert {
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

		generatorURL := asString(entry["dashboardURL"])
		if generatorURL == "" {
			generatorURL = asString(entry["panelURL"])
		}
		if generatorURL == "" {
			generatorURL = asString(entry["generatorURL"])
		}

		if v := asString(entry["valueString"]); v != "" {
			annotations["valueString"] = v
		}

		na := domain.NormalizedAlert{
			Name:           name,
			Source:         "grafana",
			SourceInstance: externalURL,
			Severity:       severity,
			Status:         status,
			Description:    description,
			Service:        service,
			Environment:    environment,
			Host:           host,
			Labels:         clean,
			Annotations:    domain.StringMap(annotations),
			GeneratorURL:   generatorURL,
			StartsAt:       parseRFC3339OrZero(asString(entry["startsAt"])),
			EndsAt:         parseRFC3339OrZero(asString(entry["endsAt"])),
			RawPayload:     domain.RawJSON(entry),
		}
		out = append(out, na)
	}
	return out
}
