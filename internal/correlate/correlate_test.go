package correlate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

type fakeStore struct {
	incidents map[string]*domain.Incident
	events    []domain.IncidentEvent
	nextID    int
	services  map[string]string // alert ID -> service, as alerts.service in the real store
}

func newFakeStore() *fakeStore {
	return &fakeStore{incidents: map[string]*domain.Incident{}}
}

func (s *fakeStore) FindOpenByServiceSince(ctx context.Context, service string, since time.Time) (*domain.Incident, error) {
	var best *domain.Incident
	for _, inc := range s.incidents {
		if inc.Status == domain.IncidentStatusResolved {
			continue
		}
		if inc.StartedAt.Before(since) {
			continue
		}
		found := false
		for _, a := range inc.Alerts {
			if a.Service == service {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if best == nil || inc.StartedAt.After(best.StartedAt) {
			best = inc
		}
	}
	return best, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	return s.incidents[id], nil
}

func (s *fakeStore) Create(ctx context.Context, incident *domain.Incident) error {
	s.nextID++
	incident.ID = "inc-" + string(rune('0'+s.nextID))
	s.incidents[incident.ID] = incident
	return nil
}

func (s *fakeStore) UpdateSeverity(ctx context.Context, id string, severity domain.Severity) error {
	s.incidents[id].Severity = severity
	return nil
}

func (s *fakeStore) AttachAlert(ctx context.Context, incidentID, alertID string) error {
	inc := s.incidents[incidentID]
	inc.Alerts = append(inc.Alerts, domain.Alert{ID: alertID, Service: s.services[alertID]})
	return nil
}

func (s *fakeStore) AppendEvent(ctx context.Context, event domain.IncidentEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *fakeStore) MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error {
	s.incidents[id].Status = domain.IncidentStatusResolved
	s.incidents[id].ResolvedAt = &resolvedAt
	return nil
}

func TestCorrelateCreatesNewIncidentWhenNoneMatch(t *testing.T) {
	store := newFakeStore()
	alert := domain.Alert{ID: "a1", Name: "HighCPU", Service: "api", Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring}

	result, err := Correlate(context.Background(), store, alert, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, result.Incident)
	assert.Equal(t, domain.IncidentStatusOpen, result.Incident.Status)
	assert.Equal(t, domain.SeverityWarning, result.Incident.Severity)
	assert.Equal(t, domain.EventIncidentCreated, result.EventType)
	assert.Len(t, eventsOfType(store, domain.EventIncidentCreated), 1)
}

func TestCorrelateAttachesToExistingIncidentAndPromotesSeverity(t *testing.T) {
	store := newFakeStore()
	store.services = map[string]string{"a1": "api", "a2": "api"}
	first := domain.Alert{ID: "a1", Name: "HighCPU", Service: "api", Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring}
	created, err := Correlate(context.Background(), store, first, time.Hour)
	require.NoError(t, err)

	second := domain.Alert{ID: "a2", Name: "OOM", Service: "api", Severity: domain.SeverityCritical, Status: domain.AlertStatusFiring}
	result, err := Correlate(context.Background(), store, second, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, result.Incident)
	assert.Equal(t, created.Incident.ID, result.Incident.ID)
	assert.Equal(t, domain.SeverityCritical, result.Incident.Severity)
	assert.Len(t, result.Incident.Alerts, 2)
	assert.Equal(t, domain.EventSeverityChanged, result.EventType)
	assert.Len(t, eventsOfType(store, domain.EventSeverityChanged), 1)
}

func TestCorrelateSkipsCorrelationWithoutService(t *testing.T) {
	store := newFakeStore()
	alert := domain.Alert{ID: "a1", Name: "Orphan", Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring}
	result, err := Correlate(context.Background(), store, alert, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, result.Incident)
	assert.Empty(t, result.Incident.Alerts[0].Service)
}

func TestCorrelateAutoResolvesWhenAllAlertsResolved(t *testing.T) {
	store := newFakeStore()
	first := domain.Alert{ID: "a1", Name: "HighCPU", Service: "api", Severity: domain.SeverityWarning, Status: domain.AlertStatusFiring}
	created, err := Correlate(context.Background(), store, first, time.Hour)
	require.NoError(t, err)

	inc := store.incidents[created.Incident.ID]
	inc.Alerts[0].Status = domain.AlertStatusResolved

	resolved := domain.Alert{ID: "a1", Name: "HighCPU", Service: "api", Status: domain.AlertStatusResolved, IncidentID: created.Incident.ID}
	result, err := Correlate(context.Background(), store, resolved, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, result.Incident)
	assert.Equal(t, domain.IncidentStatusResolved, result.Incident.Status)
	assert.NotNil(t, result.Incident.ResolvedAt)
	assert.Equal(t, domain.EventIncidentAutoResolved, result.EventType)
}

func TestCorrelateResolvedAlertWithNoIncidentReturnsNil(t *testing.T) {
	store := newFakeStore()
	resolved := domain.Alert{ID: "a1", Name: "Standalone", Status: domain.AlertStatusResolved}
	result, err := Correlate(context.Background(), store, resolved, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, result.Incident)
	assert.Equal(t, domain.EventNone, result.EventType)
}

func eventsOfType(store *fakeStore, t domain.IncidentEventType) []domain.IncidentEvent {
	var out []domain.IncidentEvent
	for _, e := range store.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}
