package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"solace/internal/domain"
)

var datadogPriorityMap = map[string]domain.Severity{
	"p1": domain.SeverityCritical, "p2": domain.SeverityHigh,
	"p3": domain.SeverityWarning, "p4": domain.SeverityLow, "p5": domain.SeverityInfo,
}

var datadogAlertTypeMap = map[string]domain.Severity{
	"error": domain.SeverityCritical, "warning": domain.SeverityWarning,
	"info": domain.SeverityInfo, "success": domain.SeverityInfo,
}

var datadogStatusMap = map[string]domain.AlertStatus{
	"triggered": domain.AlertStatusFiring, "re-triggered": domain.AlertStatusFiring,
	"recovered": domain.AlertStatusResolved, "no data": domain.AlertStatusFiring,
	"warn": domain.AlertStatusFiring,
}

var datadogTitlePrefixRe = regexp.MustCompile(`(?i)^\[(?:Triggered|Recovered|Re-Triggered|No Data|Warn)\]\s*`)

func datadogExtractSeverity(payload map[string]interface{}) domain.Severity {
	priority := strings.ToLower(strings.TrimSpace(asString(payload["priority"])))
	if sev, ok := datadogPriorityMap[priority]; ok {
		return sev
	}
	alertType := strings.ToLower(strings.TrimSpace(asString(payload["alert_type"])))
	if sev, ok := datadogAlertTypeMap[alertType]; ok {
		return sev
	}
	return domain.SeverityWarning
}

func datadogExtractStatus(payload map[string]interface{}) domain.AlertStatus {
	transition := strings.ToLower(strings.TrimSpace(asString(payload["alert_transition"])))
	if s, ok := datadogStatusMap[transition]; ok {
		return s
	}
	return domain.AlertStatusFiring
}

// datadogParseTags parses Datadog's "service:api,env:production" tag
// string into a map; a valueless token stores an empty string.
func datadogParseTags(tagsStr string) map[string]string {
	out := map[string]string{}
	if strings.TrimSpace(tagsStr) == "" {
		return out
	}
	for _, tag := range strings.Split(tagsStr, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if idx := strings.Index(tag, ":"); idx >= 0 {
			out[strings.TrimSpace(tag[:idx])] = strings.TrimSpace(tag[idx+1:])
		} else {
			out[tag] = ""
		}
	}
	return out
}

type datadogNormalizer struct{}

func init() {
	Register("datadog", datadogNormalizer{})
}

func (datadogNormalizer) Validate(payload map[string]interface{}) bool {
	if _, ok := payload["title"]; !ok {
		return false
	}
	_, hasTransition := payload["alert_transition"]
	_, hasType := payload["alert_type"]
	return hasTransition || hasType
}

func (datadogNormalizer) Normalize(payload map[string]interface{}) []domain.NormalizedAlert {
	title := asString(payload["title"])
	if title == "" {
		title = "Datadog Alert"
	}
	name := strings.TrimSpace(datadogTitlePrefixRe.ReplaceAllString(title, ""))

	severity := datadogExtractSeverity(payload)
	status := datadogExtractStatus(payload)

	tags := datadogParseTags(asString(payload["tags"]))
	service := tags["service"]
	delete(tags, "service")
	environment := tags["env"]
	if environment == "" {
		environment = tags["environment"]
	}
	delete(tags, "env")
	delete(tags, "environment")

	host := asString(payload["hostname"])
	description := asString(payload["text"])
	generatorURL := asString(payload["url"])
	if generatorURL == "" {
		generatorURL = asString(payload["link"])
	}

	labels := domain.StringMap{}
	for k, v := range tags {
		labels[k] = v
	}
	if id := asString(payload["alert_id"]); id != "" {
		labels["datadog_alert_id"] = id
	}
	if et := asString(payload["event_type"]); et != "" {
		labels["datadog_event_type"] = et
	}
	if org, ok := payload["org"].(map[string]interface{}); ok {
		if name := asString(org["name"]); name != "" {
			labels["datadog_org"] = name
		}
	}

	annotations := domain.StringMap{}
	if link := asString(payload["link"]); link != "" {
		annotations["event_link"] = link
	}

	var startsAt *time.Time
	if d, ok := payload["date"]; ok {
		var epoch int64
		switch v := d.(type) {
		case float64:
			epoch = int64(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				epoch = n
			}
		}
		if epoch > 0 {
			t := time.Unix(epoch, 0).UTC()
			startsAt = &t
		}
	}

	na := domain.NormalizedAlert{
		Name:         name,
		Source:       "datadog",
		Severity:     severity,
		Status:       status,
		Description:  description,
		Service:      service,
		Environment:  environment,
		Host:         host,
		Labels:       labels,
		Annotations:  annotations,
		GeneratorURL: generatorURL,
		StartsAt:     startsAt,
		RawPayload:   domain.RawJSON(payload),
	}
	return []domain.NormalizedAlert{na}
}
