package services

import (
	"context"
	"sort"
	"time"

	"solace/internal/domain"
	"solace/internal/repository"
)

// CorrelationAnalytics answers read-only questions over already-correlated
// incidents — root-cause ranking, flapping detection, timeline views —
// adapted from the teacher's AlertCorrelationService and grounded in
// original_source/backend/core/correlation.py's "Future enhancements"
// docstring. It never decides incident membership; internal/correlate
// remains the sole authority for that.
type CorrelationAnalytics struct {
	incidents *repository.IncidentRepository
}

func NewCorrelationAnalytics(incidents *repository.IncidentRepository) *CorrelationAnalytics {
	return &CorrelationAnalytics{incidents: incidents}
}

// RootCauseCandidate ranks one member alert's likelihood of being the
// incident's root cause.
type RootCauseCandidate struct {
	AlertID   string  `json:"alert_id"`
	Name      string  `json:"name"`
	Service   string  `json:"service"`
	Score     float64 `json:"score"`
	StartedAt time.Time `json:"started_at"`
}

// RankRootCause scores every alert in the incident by label-Jaccard
// similarity to the rest of the group combined with a time-decay favoring
// earlier alerts (the first alert to fire is weighted as most likely the
// root cause, all else equal).
func (s *CorrelationAnalytics) RankRootCause(ctx context.Context, incidentID string) ([]RootCauseCandidate, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident == nil || len(incident.Alerts) == 0 {
		return nil, nil
	}

	candidates := make([]RootCauseCandidate, 0, len(incident.Alerts))
	for _, alert := range incident.Alerts {
		similaritySum := 0.0
		for _, other := range incident.Alerts {
			if other.ID == alert.ID {
				continue
			}
			similaritySum += jaccard(alert.Labels, other.Labels)
		}
		avgSimilarity := 0.0
		if len(incident.Alerts) > 1 {
			avgSimilarity = similaritySum / float64(len(incident.Alerts)-1)
		}

		decay := timeDecay(alert.StartsAt, incident.StartedAt)
		candidates = append(candidates, RootCauseCandidate{
			AlertID:   alert.ID,
			Name:      alert.Name,
			Service:   alert.Service,
			Score:     avgSimilarity * decay,
			StartedAt: startsAtOrZero(alert.StartsAt),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates, nil
}

func jaccard(a, b domain.StringMap) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection, union := 0, 0
	seen := map[string]bool{}
	for k, v := range a {
		seen[k] = true
		union++
		if bv, ok := b[k]; ok && bv == v {
			intersection++
		}
	}
	for k := range b {
		if !seen[k] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// timeDecay weights an alert that started close to the incident's own
// started_at more heavily — halves every 10 minutes of lag.
func timeDecay(alertStart *time.Time, incidentStart time.Time) float64 {
	if alertStart == nil {
		return 0.5
	}
	lag := alertStart.Sub(incidentStart)
	if lag < 0 {
		lag = 0
	}
	halfLives := lag.Minutes() / 10
	decay := 1.0
	for i := 1.0; i <= halfLives; i++ {
		decay /= 2
	}
	return decay
}

func startsAtOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// FlappingWindow describes one burst of rapid status changes on an
// incident.
type FlappingWindow struct {
	IncidentID    string    `json:"incident_id"`
	ChangeCount   int       `json:"change_count"`
	FirstChangeAt time.Time `json:"first_change_at"`
	LastChangeAt  time.Time `json:"last_change_at"`
}

// flappingInterval is the status-change interval threshold below which
// successive transitions count as flapping.
const flappingInterval = 5 * time.Minute

// DetectFlapping scans one incident's event history for status changes
// spaced under flappingInterval apart.
func (s *CorrelationAnalytics) DetectFlapping(ctx context.Context, incidentID string) (*FlappingWindow, error) {
	events, err := s.incidents.ListEvents(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	var transitions []domain.IncidentEvent
	for _, e := range events {
		switch e.EventType {
		case domain.EventSeverityChanged, domain.EventIncidentAcknowledged, domain.EventIncidentResolved, domain.EventIncidentAutoResolved:
			transitions = append(transitions, e)
		}
	}
	if len(transitions) < 2 {
		return nil, nil
	}

	sort.Slice(transitions, func(i, j int) bool { return transitions[i].CreatedAt.Before(transitions[j].CreatedAt) })

	count := 0
	for i := 1; i < len(transitions); i++ {
		if transitions[i].CreatedAt.Sub(transitions[i-1].CreatedAt) < flappingInterval {
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}

	return &FlappingWindow{
		IncidentID:    incidentID,
		ChangeCount:   count + 1,
		FirstChangeAt: transitions[0].CreatedAt,
		LastChangeAt:  transitions[len(transitions)-1].CreatedAt,
	}, nil
}

// Timeline returns an incident's full event history in chronological
// order, the read-only view the teacher's GenerateTimeline exposed.
func (s *CorrelationAnalytics) Timeline(ctx context.Context, incidentID string) ([]domain.IncidentEvent, error) {
	events, err := s.incidents.ListEvents(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}
