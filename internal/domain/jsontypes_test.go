package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilenceMatchersUnmarshalNormalizesScalarServiceAndSeverity(t *testing.T) {
	var m SilenceMatchers
	err := json.Unmarshal([]byte(`{"service": "api", "severity": "critical"}`), &m)
	require.NoError(t, err)

	assert.Equal(t, []string{"api"}, m.Service)
	assert.Equal(t, []string{"critical"}, m.Severity)
}

func TestSilenceMatchersUnmarshalAcceptsListsUnchanged(t *testing.T) {
	var m SilenceMatchers
	err := json.Unmarshal([]byte(`{"service": ["api", "web"], "severity": ["critical", "high"]}`), &m)
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "web"}, m.Service)
	assert.Equal(t, []string{"critical", "high"}, m.Severity)
}

func TestSilenceMatchersUnmarshalHandlesMissingAndNullFields(t *testing.T) {
	var m SilenceMatchers
	err := json.Unmarshal([]byte(`{"labels": {"env": "prod"}}`), &m)
	require.NoError(t, err)
	assert.Nil(t, m.Service)
	assert.Nil(t, m.Severity)

	var m2 SilenceMatchers
	err = json.Unmarshal([]byte(`{"service": null, "severity": null}`), &m2)
	require.NoError(t, err)
	assert.Nil(t, m2.Service)
	assert.Nil(t, m2.Severity)
}

func TestSilenceMatchersUnmarshalRejectsInvalidType(t *testing.T) {
	var m SilenceMatchers
	err := json.Unmarshal([]byte(`{"service": 42}`), &m)
	assert.Error(t, err)
}

func TestSilenceMatchersRoundTripsThroughValueAndScan(t *testing.T) {
	m := SilenceMatchers{Service: []string{"api"}, Severity: []string{"critical"}}
	raw, err := m.Value()
	require.NoError(t, err)

	var scanned SilenceMatchers
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, m, scanned)
}
