package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

func TestMatchesFiltersSeverityAndService(t *testing.T) {
	channel := domain.NotificationChannel{
		Filters: domain.ChannelFilters{
			Severity: []string{"critical", "high"},
			Service:  []string{"api"},
		},
	}
	incident := domain.Incident{
		Severity: domain.SeverityCritical,
		Alerts:   []domain.Alert{{Service: "api"}},
	}
	assert.True(t, matchesFilters(channel, incident))

	incident.Severity = domain.SeverityWarning
	assert.False(t, matchesFilters(channel, incident))
}

func TestMatchesFiltersEmptyMatchesEverything(t *testing.T) {
	channel := domain.NotificationChannel{}
	incident := domain.Incident{Severity: domain.SeverityInfo}
	assert.True(t, matchesFilters(channel, incident))
}

type fakeChannelLister struct {
	channels []domain.NotificationChannel
}

func (f fakeChannelLister) ListActive(ctx context.Context) ([]domain.NotificationChannel, error) {
	return f.channels, nil
}

type fakeLogStore struct {
	created []domain.NotificationLog
	sent    []string
	failed  map[string]string
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{failed: map[string]string{}}
}

func (f *fakeLogStore) Create(ctx context.Context, log domain.NotificationLog) (string, error) {
	id := "log-" + string(rune('0'+len(f.created)))
	f.created = append(f.created, log)
	return id, nil
}

func (f *fakeLogStore) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeLogStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	f.failed[id] = errMsg
	return nil
}

type fakeRateLimiter struct {
	allow bool
}

func (f fakeRateLimiter) CheckAndSet(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	return f.allow, nil
}

type stubSender struct {
	err error
}

func (s stubSender) Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error {
	return s.err
}

func TestDispatchSkipsRateLimitedChannel(t *testing.T) {
	channels := fakeChannelLister{channels: []domain.NotificationChannel{
		{ID: "c1", ChannelType: domain.ChannelWebhook, IsActive: true},
	}}
	logs := newFakeLogStore()
	d := &Dispatcher{
		Channels:    channels,
		Logs:        logs,
		RateLimiter: fakeRateLimiter{allow: false},
		Cooldown:    time.Minute,
		senders:     map[domain.ChannelType]sender{domain.ChannelWebhook: stubSender{}},
	}

	err := d.Dispatch(context.Background(), domain.Incident{ID: "i1"}, domain.EventIncidentCreated)
	require.NoError(t, err)
	assert.Empty(t, logs.created)
}

func TestDispatchMarksSentOnSuccess(t *testing.T) {
	channels := fakeChannelLister{channels: []domain.NotificationChannel{
		{ID: "c1", ChannelType: domain.ChannelWebhook, IsActive: true},
	}}
	logs := newFakeLogStore()
	d := &Dispatcher{
		Channels:    channels,
		Logs:        logs,
		RateLimiter: fakeRateLimiter{allow: true},
		Cooldown:    time.Minute,
		senders:     map[domain.ChannelType]sender{domain.ChannelWebhook: stubSender{}},
	}

	err := d.Dispatch(context.Background(), domain.Incident{ID: "i1"}, domain.EventIncidentCreated)
	require.NoError(t, err)
	require.Len(t, logs.created, 1)
	assert.Len(t, logs.sent, 1)
	assert.Empty(t, logs.failed)
}

func TestDispatchMarksFailedOnSenderError(t *testing.T) {
	channels := fakeChannelLister{channels: []domain.NotificationChannel{
		{ID: "c1", ChannelType: domain.ChannelWebhook, IsActive: true},
	}}
	logs := newFakeLogStore()
	d := &Dispatcher{
		Channels:    channels,
		Logs:        logs,
		RateLimiter: fakeRateLimiter{allow: true},
		Cooldown:    time.Minute,
		senders:     map[domain.ChannelType]sender{domain.ChannelWebhook: stubSender{err: assert.AnError}},
	}

	err := d.Dispatch(context.Background(), domain.Incident{ID: "i1"}, domain.EventIncidentCreated)
	require.NoError(t, err)
	assert.Empty(t, logs.sent)
	assert.Len(t, logs.failed, 1)
}

func TestDispatchSkipsChannelWithNonMatchingFilters(t *testing.T) {
	channels := fakeChannelLister{channels: []domain.NotificationChannel{
		{ID: "c1", ChannelType: domain.ChannelWebhook, IsActive: true, Filters: domain.ChannelFilters{Severity: []string{"critical"}}},
	}}
	logs := newFakeLogStore()
	d := &Dispatcher{
		Channels:    channels,
		Logs:        logs,
		RateLimiter: fakeRateLimiter{allow: true},
		Cooldown:    time.Minute,
		senders:     map[domain.ChannelType]sender{domain.ChannelWebhook: stubSender{}},
	}

	err := d.Dispatch(context.Background(), domain.Incident{ID: "i1", Severity: domain.SeverityLow}, domain.EventIncidentCreated)
	require.NoError(t, err)
	assert.Empty(t, logs.created)
}

func TestPagerDutyEventAction(t *testing.T) {
	assert.Equal(t, "trigger", eventAction(domain.Incident{Status: domain.IncidentStatusOpen}, domain.EventIncidentCreated))
	assert.Equal(t, "resolve", eventAction(domain.Incident{Status: domain.IncidentStatusResolved}, domain.EventIncidentResolved))
}
