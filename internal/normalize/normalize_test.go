package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

func TestRegistryLookup(t *testing.T) {
	for _, name := range []string{"generic", "prometheus", "grafana", "splunk", "email", "datadog"} {
		n, ok := Get(name)
		require.True(t, ok, "expected provider %q to be registered", name)
		assert.NotNil(t, n)
	}

	_, ok := Get("nonexistent-provider")
	assert.False(t, ok)
}

func TestGenericNormalizer(t *testing.T) {
	n, _ := Get("generic")
	payload := map[string]interface{}{
		"name":     "disk full",
		"severity": "critical",
		"service":  "billing",
		"host":     "db-1",
		"status":   "firing",
	}
	assert.True(t, n.Validate(payload))

	out := n.Normalize(payload)
	require.Len(t, out, 1)
	assert.Equal(t, "disk full", out[0].Name)
	assert.Equal(t, domain.SeverityCritical, out[0].Severity)
	assert.Equal(t, "billing", out[0].Service)
	assert.Equal(t, domain.AlertStatusFiring, out[0].Status)
}

func TestGenericNormalizerRejectsMissingName(t *testing.T) {
	n, _ := Get("generic")
	assert.False(t, n.Validate(map[string]interface{}{"severity": "critical"}))
}

func TestPrometheusNormalizer(t *testing.T) {
	n, _ := Get("prometheus")
	payload := map[string]interface{}{
		"externalURL": "http://am.example.com",
		"alerts": []interface{}{
			map[string]interface{}{
				"status": "firing",
				"labels": map[string]interface{}{
					"alertname": "HighCPU",
					"severity":  "warning",
					"service":   "api",
					"instance":  "10.0.0.5:9100",
				},
				"annotations": map[string]interface{}{
					"summary": "CPU is high",
				},
				"generatorURL": "http://prom.example.com/graph",
				"startsAt":     "2026-01-01T00:00:00Z",
			},
		},
	}
	require.True(t, n.Validate(payload))
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	a := out[0]
	assert.Equal(t, "HighCPU", a.Name)
	assert.Equal(t, domain.SeverityWarning, a.Severity)
	assert.Equal(t, "api", a.Service)
	assert.Equal(t, "10.0.0.5", a.Host)
	assert.Equal(t, "CPU is high", a.Description)
	assert.NotContains(t, a.Labels, "alertname")
	assert.NotContains(t, a.Labels, "severity")
}

func TestPrometheusNormalizerRejectsMissingAlertname(t *testing.T) {
	n, _ := Get("prometheus")
	payload := map[string]interface{}{
		"alerts": []interface{}{
			map[string]interface{}{"labels": map[string]interface{}{"severity": "warning"}},
		},
	}
	assert.False(t, n.Validate(payload))
}

func TestGrafanaNormalizerDashboardURLPrecedence(t *testing.T) {
	n, _ := Get("grafana")
	payload := map[string]interface{}{
		"state":   "alerting",
		"message": "panel breached",
		"alerts": []interface{}{
			map[string]interface{}{
				"status":       "firing",
				"labels":       map[string]interface{}{"alertname": "PanelAlert"},
				"annotations":  map[string]interface{}{},
				"dashboardURL": "http://grafana/d/abc",
				"panelURL":     "http://grafana/d/abc?panelId=2",
				"valueString":  "[ var='A' metric='cpu' value=97 ]",
			},
		},
	}
	require.True(t, n.Validate(payload))
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	assert.Equal(t, "http://grafana/d/abc", out[0].GeneratorURL)
	assert.Equal(t, "[ var='A' metric='cpu' value=97 ]", out[0].Annotations["valueString"])
}

func TestSplunkWebhookNormalizer(t *testing.T) {
	n, _ := Get("splunk")
	payload := map[string]interface{}{
		"sid":          "scheduler__admin__search__abc123",
		"search_name":  "High Error Rate",
		"results_link": "https://splunk.example.com/results",
		"result": map[string]interface{}{
			"severity": "high",
			"host":     "web-3",
			"service":  "checkout",
			"message":  "error rate above threshold",
		},
	}
	require.True(t, n.Validate(payload))
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	a := out[0]
	assert.Equal(t, "High Error Rate", a.Name)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
	assert.Equal(t, "web-3", a.Host)
	assert.Equal(t, "checkout", a.Service)
}

func TestSplunkEmailNormalizerHTMLTable(t *testing.T) {
	n, _ := Get("email")
	payload := map[string]interface{}{
		"subject": "Splunk Alert: Disk Usage Critical",
		"from":    "splunk@example.com",
		"body_html": `<html><body><table>
			<tr><th>host</th><th>severity</th><th>message</th></tr>
			<tr><td>db-2</td><td>critical</td><td>disk at 98%</td></tr>
		</table></body></html>`,
	}
	require.True(t, n.Validate(payload))
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	assert.Equal(t, "Disk Usage Critical", out[0].Name)
	assert.Equal(t, domain.SeverityCritical, out[0].Severity)
	assert.Equal(t, "db-2", out[0].Host)
}

func TestSplunkEmailNormalizerFallsBackToSingleAlert(t *testing.T) {
	n, _ := Get("email")
	payload := map[string]interface{}{
		"subject":   "[Splunk] No results table",
		"body_text": "Just a plain notification with no tabular data at all.",
	}
	require.True(t, n.Validate(payload))
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	assert.Equal(t, "No results table", out[0].Name)
}

func TestDatadogNormalizer(t *testing.T) {
	n, _ := Get("datadog")
	payload := map[string]interface{}{
		"title":            "[Triggered] High Memory Usage",
		"alert_transition": "Triggered",
		"alert_type":       "error",
		"tags":             "service:checkout,env:production,team:payments",
		"hostname":         "web-7",
		"text":             "memory usage exceeded 90%",
		"date":             float64(1700000000),
	}
	require.True(t, n.Validate(payload))
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	a := out[0]
	assert.Equal(t, "High Memory Usage", a.Name)
	assert.Equal(t, domain.SeverityCritical, a.Severity)
	assert.Equal(t, domain.AlertStatusFiring, a.Status)
	assert.Equal(t, "checkout", a.Service)
	assert.Equal(t, "production", a.Environment)
	assert.Equal(t, "payments", a.Labels["team"])
	require.NotNil(t, a.StartsAt)
}

func TestDatadogNormalizerRecoveredMapsToResolved(t *testing.T) {
	n, _ := Get("datadog")
	payload := map[string]interface{}{
		"title":            "[Recovered] High Memory Usage",
		"alert_transition": "Recovered",
	}
	out := n.Normalize(payload)
	require.Len(t, out, 1)
	assert.Equal(t, domain.AlertStatusResolved, out[0].Status)
}

func TestDatadogNormalizerRejectsMissingTitle(t *testing.T) {
	n, _ := Get("datadog")
	assert.False(t, n.Validate(map[string]interface{}{"alert_type": "error"}))
}
