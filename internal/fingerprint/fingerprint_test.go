package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solace/internal/domain"
)

func TestCompute_LabelOrderIndependent(t *testing.T) {
	a := domain.IdentityFields{
		Source: "prometheus", Name: "HighCPU", Service: "api", Host: "web-01",
		Labels: domain.StringMap{"region": "us-east", "team": "infra"},
	}
	b := domain.IdentityFields{
		Source: "prometheus", Name: "HighCPU", Service: "api", Host: "web-01",
		Labels: domain.StringMap{"team": "infra", "region": "us-east"},
	}
	assert.Equal(t, Compute(a), Compute(b))
	assert.Len(t, Compute(a), 16)
}

func TestCompute_VolatileKeysIgnored(t *testing.T) {
	a := domain.IdentityFields{Source: "generic", Name: "X", Labels: domain.StringMap{"value": "1"}}
	b := domain.IdentityFields{Source: "generic", Name: "X", Labels: domain.StringMap{"value": "2"}}
	assert.Equal(t, Compute(a), Compute(b))
}

func TestCompute_DifferentIdentityDiffers(t *testing.T) {
	a := domain.IdentityFields{Source: "generic", Name: "X", Service: "api"}
	b := domain.IdentityFields{Source: "generic", Name: "X", Service: "web"}
	assert.NotEqual(t, Compute(a), Compute(b))
}

func TestCompute_Deterministic(t *testing.T) {
	f := domain.IdentityFields{Source: "datadog", Name: "Y", Host: "h1"}
	assert.Equal(t, Compute(f), Compute(f))
}
