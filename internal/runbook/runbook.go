// Package runbook resolves the runbook URL to attach to an alert by
// matching priority-ordered glob rules, grounded in
// original_source/backend/services/runbook.py.
package runbook

import (
	"context"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"solace/internal/domain"
)

// RuleLister is satisfied by the runbook repository.
type RuleLister interface {
	ListActive(ctx context.Context) ([]domain.RunbookRule, error)
}

// TemplateVars are the variables resolve_template in the original
// substitutes into a runbook URL template.
type TemplateVars struct {
	Service     string
	Host        string
	Name        string
	Environment string
}

// ResolveTemplate substitutes {service}, {host}, {name} and {environment}
// placeholders, leaving any other brace token untouched and treating a
// missing value as an empty string — matching the original's _SafeDict.
func ResolveTemplate(template string, vars TemplateVars) string {
	replacer := strings.NewReplacer(
		"{service}", vars.Service,
		"{host}", vars.Host,
		"{name}", vars.Name,
		"{environment}", vars.Environment,
	)
	return replacer.Replace(template)
}

// Find evaluates active rules in priority order (ascending — lower value
// first) and returns the resolved runbook URL for the first rule whose
// service_pattern (required) and name_pattern (optional) glob-match.
func Find(ctx context.Context, rules RuleLister, service, name, host, environment string) (string, bool, error) {
	active, err := rules.ListActive(ctx)
	if err != nil {
		return "", false, err
	}
	// Stable, so rules of equal priority keep the lister's order.
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority < active[j].Priority })

	for _, rule := range active {
		svcGlob, err := glob.Compile(rule.ServicePattern)
		if err != nil {
			continue
		}
		if !svcGlob.Match(service) {
			continue
		}

		if rule.NamePattern != "" {
			if name == "" {
				continue
			}
			nameGlob, err := glob.Compile(rule.NamePattern)
			if err != nil {
				continue
			}
			if !nameGlob.Match(name) {
				continue
			}
		}

		url := ResolveTemplate(rule.RunbookURLTemplate, TemplateVars{
			Service:     service,
			Host:        host,
			Name:        name,
			Environment: environment,
		})
		return url, true, nil
	}

	return "", false, nil
}
