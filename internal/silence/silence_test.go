package silence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

func TestMatchesServiceAndSeverity(t *testing.T) {
	matchers := domain.SilenceMatchers{
		Service:  []string{"api", "web"},
		Severity: []string{"critical", "high"},
	}
	assert.True(t, Matches(matchers, domain.NormalizedAlert{Service: "api", Severity: domain.SeverityCritical}))
	assert.False(t, Matches(matchers, domain.NormalizedAlert{Service: "billing", Severity: domain.SeverityCritical}))
	assert.False(t, Matches(matchers, domain.NormalizedAlert{Service: "api", Severity: domain.SeverityWarning}))
}

func TestMatchesLabelsRequiresAllPairs(t *testing.T) {
	matchers := domain.SilenceMatchers{
		Labels: domain.StringMap{"env": "staging", "region": "us-east"},
	}
	assert.True(t, Matches(matchers, domain.NormalizedAlert{
		Labels: domain.StringMap{"env": "staging", "region": "us-east", "extra": "x"},
	}))
	assert.False(t, Matches(matchers, domain.NormalizedAlert{
		Labels: domain.StringMap{"env": "staging"},
	}))
}

func TestMatchesEmptyMatchersMatchEverything(t *testing.T) {
	assert.True(t, Matches(domain.SilenceMatchers{}, domain.NormalizedAlert{Service: "anything"}))
}

type fakeLister struct {
	windows []domain.SilenceWindow
}

func (f fakeLister) ListActive(ctx context.Context, now time.Time) ([]domain.SilenceWindow, error) {
	return f.windows, nil
}

func TestCheckReturnsFirstMatchingWindow(t *testing.T) {
	now := time.Now().UTC()
	lister := fakeLister{windows: []domain.SilenceWindow{
		{
			Name:     "maintenance",
			IsActive: true,
			StartsAt: now.Add(-time.Hour),
			EndsAt:   now.Add(time.Hour),
			Matchers: domain.SilenceMatchers{Service: []string{"billing"}},
		},
	}}

	w, err := Check(context.Background(), lister, domain.NormalizedAlert{Service: "billing"})
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "maintenance", w.Name)
}

func TestCheckReturnsNilWhenNoWindowMatches(t *testing.T) {
	lister := fakeLister{}
	w, err := Check(context.Background(), lister, domain.NormalizedAlert{Service: "billing"})
	require.NoError(t, err)
	assert.Nil(t, w)
}
