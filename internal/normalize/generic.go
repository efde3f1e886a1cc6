package normalize

import (
	"strings"

	"solace/internal/domain"
)

// genericNormalizer does a direct field-for-field mapping from the
// documented generic envelope (spec.md §4.1). Grounded in
// original_source/backend/integrations/__init__.py's GenericNormalizer.
type genericNormalizer struct{}

func init() {
	Register("generic", genericNormalizer{})
}

func (genericNormalizer) Validate(payload map[string]interface{}) bool {
	name := asString(payload["name"])
	return name != ""
}

func (genericNormalizer) Normalize(payload map[string]interface{}) []domain.NormalizedAlert {
	labels := toStringMap(payload["labels"])
	annotations := toStringMap(payload["annotations"])

	status := domain.AlertStatusFiring
	if asString(payload["status"]) == "resolved" {
		status = domain.AlertStatusResolved
	}

	severity := domain.SeverityWarning
	if raw := asString(payload["severity"]); raw != "" {
		if sev, ok := domain.ParseSeverityAlias(strings.ToLower(raw)); ok {
			severity = sev
		}
	}

	var tags domain.StringList
	for _, t := range asSlice(payload["tags"]) {
		tags = append(tags, asString(t))
	}

	na := domain.NormalizedAlert{
		Name:           asString(payload["name"]),
		Source:         "generic",
		Severity:       severity,
		Status:         status,
		Description:    asString(payload["description"]),
		Service:        asString(payload["service"]),
		Environment:    asString(payload["environment"]),
		Host:           asString(payload["host"]),
		SourceInstance: asString(payload["source_instance"]),
		GeneratorURL:   asString(payload["generator_url"]),
		RunbookURL:     asString(payload["runbook_url"]),
		TicketURL:      asString(payload["ticket_url"]),
		StartsAt:       parseRFC3339OrZero(asString(payload["starts_at"])),
		EndsAt:         parseRFC3339OrZero(asString(payload["ends_at"])),
		Labels:         domain.StringMap(labels),
		Annotations:    domain.StringMap(annotations),
		Tags:           tags,
		RawPayload:     domain.RawJSON(payload),
	}
	return []domain.NormalizedAlert{na}
}
