// Package fingerprint computes the stable 16-hex-character identity hash
// used to recognize repeats of the same underlying alert condition.
// Grounded in original_source/backend/core/fingerprint.py.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"solace/internal/domain"
)

// volatileLabelKeys are stripped from the identity before hashing — they
// vary between otherwise-identical firings and must not affect identity.
var volatileLabelKeys = map[string]bool{
	"timestamp":    true,
	"value":        true,
	"description":  true,
	"summary":      true,
	"generatorURL": true,
}

// identity is the canonical structure serialized before hashing. Field
// order here matters: encoding/json marshals struct fields in declaration
// order, so the fields are declared in lexicographic order of their JSON
// keys; the labels map is marshaled with its keys sorted. Together this
// matches the Python original's json.dumps(..., sort_keys=True).
type identity struct {
	Host    string            `json:"host"`
	Labels  map[string]string `json:"labels,omitempty"`
	Name    string            `json:"name"`
	Service string            `json:"service"`
	Source  string            `json:"source"`
}

// Compute derives the 16-hex-character fingerprint for an alert's identity
// fields (spec.md §4.2). It is deterministic, label-key-order independent,
// and must never be influenced by severity, description, or annotations —
// callers must not pass those in via fields.Labels.
func Compute(fields domain.IdentityFields) string {
	id := identity{
		Source:  fields.Source,
		Name:    fields.Name,
		Service: fields.Service,
		Host:    fields.Host,
	}

	if len(fields.Labels) > 0 {
		clean := make(map[string]string, len(fields.Labels))
		for k, v := range fields.Labels {
			if volatileLabelKeys[k] {
				continue
			}
			clean[k] = v
		}
		if len(clean) > 0 {
			id.Labels = clean
		}
	}

	// encoding/json sorts map keys automatically; struct fields marshal
	// in the declared (sorted-key) order above, giving a canonical,
	// whitespace-free serialization with sorted keys.
	b, _ := json.Marshal(id)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}
