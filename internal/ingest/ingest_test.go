package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

type fakeAlertStore struct {
	byFingerprint map[string]*domain.Alert
	created       []*domain.Alert
	occurrences   int
	incidentSet   map[string]string
	nextID        int
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{byFingerprint: map[string]*domain.Alert{}, incidentSet: map[string]string{}}
}

func (s *fakeAlertStore) FindDuplicate(ctx context.Context, fingerprint string, windowStart time.Time) (*domain.Alert, error) {
	return s.byFingerprint[fingerprint], nil
}

func (s *fakeAlertStore) UpdateOccurrence(ctx context.Context, alertID string, duplicateCount int, lastReceivedAt, updatedAt time.Time) error {
	return nil
}

func (s *fakeAlertStore) Create(ctx context.Context, alert *domain.Alert) error {
	s.nextID++
	alert.ID = "alert-" + string(rune('0'+s.nextID))
	s.byFingerprint[alert.Fingerprint] = alert
	s.created = append(s.created, alert)
	return nil
}

func (s *fakeAlertStore) RecordOccurrence(ctx context.Context, alertID string, receivedAt time.Time) error {
	s.occurrences++
	return nil
}

func (s *fakeAlertStore) AttachIncidentID(ctx context.Context, alertID, incidentID string) error {
	s.incidentSet[alertID] = incidentID
	return nil
}

type fakeWindowLister struct {
	windows []domain.SilenceWindow
}

func (f fakeWindowLister) ListActive(ctx context.Context, now time.Time) ([]domain.SilenceWindow, error) {
	return f.windows, nil
}

type fakeRuleLister struct {
	rules []domain.RunbookRule
}

func (f fakeRuleLister) ListActive(ctx context.Context) ([]domain.RunbookRule, error) {
	return f.rules, nil
}

type fakeIncidentStore struct {
	incidents map[string]*domain.Incident
	events    []domain.IncidentEvent
	nextID    int
}

func newFakeIncidentStore() *fakeIncidentStore {
	return &fakeIncidentStore{incidents: map[string]*domain.Incident{}}
}

func (s *fakeIncidentStore) FindOpenByServiceSince(ctx context.Context, service string, since time.Time) (*domain.Incident, error) {
	for _, inc := range s.incidents {
		if inc.Status == domain.IncidentStatusResolved {
			continue
		}
		for _, a := range inc.Alerts {
			if a.Service == service {
				return inc, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeIncidentStore) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	return s.incidents[id], nil
}

func (s *fakeIncidentStore) Create(ctx context.Context, incident *domain.Incident) error {
	s.nextID++
	incident.ID = "inc-" + string(rune('0'+s.nextID))
	s.incidents[incident.ID] = incident
	return nil
}

func (s *fakeIncidentStore) UpdateSeverity(ctx context.Context, id string, severity domain.Severity) error {
	s.incidents[id].Severity = severity
	return nil
}

func (s *fakeIncidentStore) AttachAlert(ctx context.Context, incidentID, alertID string) error {
	s.incidents[incidentID].Alerts = append(s.incidents[incidentID].Alerts, domain.Alert{ID: alertID, Service: "api"})
	return nil
}

func (s *fakeIncidentStore) AppendEvent(ctx context.Context, event domain.IncidentEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *fakeIncidentStore) MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error {
	s.incidents[id].Status = domain.IncidentStatusResolved
	return nil
}

func TestIngestCreatesNewAlertAndIncident(t *testing.T) {
	alerts := newFakeAlertStore()
	incidents := newFakeIncidentStore()
	c := &Coordinator{
		Alerts:            alerts,
		Incidents:         incidents,
		DedupWindow:       time.Minute,
		CorrelationWindow: time.Hour,
	}

	normalized := domain.NormalizedAlert{
		Source: "prometheus", Name: "HighCPU", Service: "api",
		Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring,
	}

	result, err := c.Ingest(context.Background(), normalized)
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.False(t, result.IsDuplicate)
	require.NotNil(t, result.Incident)
	assert.Equal(t, domain.IncidentStatusOpen, result.Incident.Status)
	assert.Equal(t, result.Incident.ID, alerts.incidentSet[result.Alert.ID])
}

func TestIngestDetectsDuplicateWithinWindow(t *testing.T) {
	alerts := newFakeAlertStore()
	incidents := newFakeIncidentStore()
	c := &Coordinator{
		Alerts:            alerts,
		Incidents:         incidents,
		DedupWindow:       time.Minute,
		CorrelationWindow: time.Hour,
	}

	normalized := domain.NormalizedAlert{
		Source: "prometheus", Name: "HighCPU", Service: "api",
		Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring,
	}

	first, err := c.Ingest(context.Background(), normalized)
	require.NoError(t, err)
	first.Alert.Status = domain.AlertStatusFiring
	first.Alert.LastReceivedAt = time.Now().UTC()

	second, err := c.Ingest(context.Background(), normalized)
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, 2, second.DuplicateCount)
	assert.Equal(t, 2, alerts.occurrences)
}

func TestIngestSuppressesAlertMatchingSilenceWindow(t *testing.T) {
	alerts := newFakeAlertStore()
	incidents := newFakeIncidentStore()
	now := time.Now().UTC()
	silences := fakeWindowLister{windows: []domain.SilenceWindow{
		{Name: "maintenance", IsActive: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
			Matchers: domain.SilenceMatchers{Service: []string{"api"}}},
	}}
	c := &Coordinator{
		Alerts:            alerts,
		Incidents:         incidents,
		Silences:          silences,
		DedupWindow:       time.Minute,
		CorrelationWindow: time.Hour,
	}

	normalized := domain.NormalizedAlert{
		Source: "prometheus", Name: "HighCPU", Service: "api",
		Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring,
	}

	result, err := c.Ingest(context.Background(), normalized)
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.Equal(t, domain.AlertStatusSuppressed, result.Alert.Status)
	assert.Nil(t, result.Incident)
}

func TestIngestAutoAttachesRunbookURL(t *testing.T) {
	alerts := newFakeAlertStore()
	incidents := newFakeIncidentStore()
	rules := fakeRuleLister{rules: []domain.RunbookRule{
		{ServicePattern: "api", RunbookURLTemplate: "https://runbooks.example.com/{service}", Priority: 1, IsActive: true},
	}}
	c := &Coordinator{
		Alerts:            alerts,
		Incidents:         incidents,
		Runbooks:          rules,
		DedupWindow:       time.Minute,
		CorrelationWindow: time.Hour,
	}

	normalized := domain.NormalizedAlert{
		Source: "prometheus", Name: "HighCPU", Service: "api",
		Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring,
	}

	result, err := c.Ingest(context.Background(), normalized)
	require.NoError(t, err)
	assert.Equal(t, "https://runbooks.example.com/api", result.Alert.RunbookURL)
}
