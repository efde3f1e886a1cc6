// Package normalize implements the six provider normalizers (C1): parsing a
// provider-specific payload into solace's internal NormalizedAlert shape.
// Grounded in original_source/backend/integrations/*.py; the registry
// pattern is simplified from __init__.py's NORMALIZERS dict — Go has no
// import-cycle reason to lazy-load, so every normalizer eager-registers via
// init().
package normalize

import "solace/internal/domain"

// Normalizer validates and parses a single provider's webhook payload.
type Normalizer interface {
	// Validate does a cheap shape check that disambiguates this provider
	// from the others (spec.md §4.1).
	Validate(payload map[string]interface{}) bool
	// Normalize transforms a validated payload into one or more
	// NormalizedAlerts. It must not panic on any input a real provider
	// could legitimately send.
	Normalize(payload map[string]interface{}) []domain.NormalizedAlert
}

var registry = map[string]Normalizer{}

// Register adds a normalizer under a provider identifier. Called from each
// provider file's init().
func Register(provider string, n Normalizer) {
	registry[provider] = n
}

// Get resolves a provider identifier to its normalizer. The bool is false
// for an unknown provider (surfaced as 400 at the HTTP edge).
func Get(provider string) (Normalizer, bool) {
	n, ok := registry[provider]
	return n, ok
}

// Providers lists every registered provider identifier, for validation
// error messages and docs.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
