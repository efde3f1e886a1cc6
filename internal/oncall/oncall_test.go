package oncall

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

type fakeStore struct {
	schedules map[string]*domain.OnCallSchedule
	overrides map[string]*domain.OnCallOverride
	users     map[string]*domain.User
	policies  map[string]*domain.EscalationPolicy
	mappings  []domain.ServiceEscalationMapping
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		schedules: map[string]*domain.OnCallSchedule{},
		overrides: map[string]*domain.OnCallOverride{},
		users:     map[string]*domain.User{},
		policies:  map[string]*domain.EscalationPolicy{},
	}
}

func (s *fakeStore) GetActiveSchedule(ctx context.Context, id string) (*domain.OnCallSchedule, error) {
	return s.schedules[id], nil
}

func (s *fakeStore) FindActiveOverride(ctx context.Context, scheduleID string, at time.Time) (*domain.OnCallOverride, error) {
	o, ok := s.overrides[scheduleID]
	if !ok || !o.Active(at) {
		return nil, nil
	}
	return o, nil
}

func (s *fakeStore) GetActiveUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) GetEscalationPolicy(ctx context.Context, id string) (*domain.EscalationPolicy, error) {
	return s.policies[id], nil
}

func (s *fakeStore) ListMappingsByPriority(ctx context.Context) ([]domain.ServiceEscalationMapping, error) {
	return s.mappings, nil
}

func TestGetCurrentOnCallPrefersActiveOverride(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.schedules["s1"] = &domain.OnCallSchedule{
		ID: "s1", IsActive: true, Timezone: "UTC", RotationType: domain.RotationDaily,
		Members: domain.ScheduleMembers{{UserID: "u1"}}, EffectiveFrom: now.Add(-48 * time.Hour),
	}
	store.overrides["s1"] = &domain.OnCallOverride{ScheduleID: "s1", UserID: "u2", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}
	store.users["u2"] = &domain.User{ID: "u2", Email: "override@example.com"}

	user, err := GetCurrentOnCall(context.Background(), store, "s1", now)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u2", user.ID)
}

func TestGetCurrentOnCallFallsBackToRotation(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.schedules["s1"] = &domain.OnCallSchedule{
		ID: "s1", IsActive: true, Timezone: "UTC", RotationType: domain.RotationDaily,
		HandoffTime: "09:00",
		Members:     domain.ScheduleMembers{{UserID: "u1"}, {UserID: "u2"}},
		EffectiveFrom: now.Add(-48 * time.Hour),
	}
	store.users["u1"] = &domain.User{ID: "u1"}
	store.users["u2"] = &domain.User{ID: "u2"}

	user, err := GetCurrentOnCall(context.Background(), store, "s1", now)
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestGetCurrentOnCallReturnsNilForUnknownSchedule(t *testing.T) {
	store := newFakeStore()
	user, err := GetCurrentOnCall(context.Background(), store, "missing", time.Now())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestResolveEscalationTargetsDedupesAcrossScheduleAndUser(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.schedules["s1"] = &domain.OnCallSchedule{
		ID: "s1", IsActive: true, Timezone: "UTC", RotationType: domain.RotationDaily,
		Members: domain.ScheduleMembers{{UserID: "u1"}}, EffectiveFrom: now.Add(-48 * time.Hour),
	}
	store.users["u1"] = &domain.User{ID: "u1"}
	store.policies["p1"] = &domain.EscalationPolicy{
		ID: "p1",
		Levels: domain.EscalationLevels{
			{Level: 1, Targets: []domain.EscalationTarget{
				{Type: domain.TargetSchedule, ID: "s1"},
				{Type: domain.TargetUser, ID: "u1"},
			}},
		},
	}

	users, err := ResolveEscalationTargets(context.Background(), store, "p1", 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestFindEscalationPolicyGlobMatchAndSeverityFilter(t *testing.T) {
	store := newFakeStore()
	store.mappings = []domain.ServiceEscalationMapping{
		{ServicePattern: "billing-*", SeverityFilter: []string{"critical"}, EscalationPolicyID: "p1", Priority: 1},
		{ServicePattern: "*", EscalationPolicyID: "p2", Priority: 10},
	}
	store.policies["p1"] = &domain.EscalationPolicy{ID: "p1", Name: "billing-critical"}
	store.policies["p2"] = &domain.EscalationPolicy{ID: "p2", Name: "default"}

	policy, err := FindEscalationPolicy(context.Background(), store, "billing-api", "critical")
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, "p1", policy.ID)

	policy, err = FindEscalationPolicy(context.Background(), store, "billing-api", "warning")
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, "p2", policy.ID)
}

func TestValidateMemberIDsReportsInvalid(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &domain.User{ID: "u1"}

	invalid, err := ValidateMemberIDs(context.Background(), store, domain.ScheduleMembers{{UserID: "u1"}, {UserID: "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, invalid)
}
