// Package oncall resolves who is currently on call and walks escalation
// policies, grounded in original_source/backend/core/oncall.py.
package oncall

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"solace/internal/domain"
)

// Store is the narrow persistence surface this package needs.
type Store interface {
	GetActiveSchedule(ctx context.Context, scheduleID string) (*domain.OnCallSchedule, error)
	FindActiveOverride(ctx context.Context, scheduleID string, at time.Time) (*domain.OnCallOverride, error)
	GetActiveUser(ctx context.Context, userID string) (*domain.User, error)
	GetEscalationPolicy(ctx context.Context, policyID string) (*domain.EscalationPolicy, error)
	ListMappingsByPriority(ctx context.Context) ([]domain.ServiceEscalationMapping, error)
}

// GetCurrentOnCall determines who is on call for a schedule at the given
// instant. Active overrides take priority over the computed rotation.
func GetCurrentOnCall(ctx context.Context, store Store, scheduleID string, at time.Time) (*domain.User, error) {
	schedule, err := store.GetActiveSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, nil
	}

	override, err := store.FindActiveOverride(ctx, scheduleID, at)
	if err != nil {
		return nil, err
	}
	if override != nil {
		return store.GetActiveUser(ctx, override.UserID)
	}

	if len(schedule.Members) == 0 {
		return nil, nil
	}

	idx, err := rotationIndex(*schedule, at)
	if err != nil {
		return nil, err
	}

	member := schedule.Members[idx]
	return store.GetActiveUser(ctx, member.UserID)
}

// rotationIndex computes which schedule member is on call at `at`,
// following the handoff-time + rotation-interval arithmetic of
// get_current_oncall in the original. Falls back to UTC if the schedule's
// timezone name is not a valid IANA zone.
func rotationIndex(schedule domain.OnCallSchedule, at time.Time) (int, error) {
	loc, err := time.LoadLocation(schedule.Timezone)
	if err != nil || schedule.Timezone == "" {
		loc = time.UTC
	}

	nowInTZ := at.In(loc)
	effective := schedule.EffectiveFrom.In(loc)

	handoffHour, handoffMinute := parseHandoffTime(schedule.HandoffTime)

	effectiveHandoff := time.Date(
		effective.Year(), effective.Month(), effective.Day(),
		handoffHour, handoffMinute, 0, 0, loc,
	)
	if effective.After(effectiveHandoff) {
		effectiveHandoff = effectiveHandoff.Add(24 * time.Hour)
	}

	delta := nowInTZ.Sub(effectiveHandoff)
	n := len(schedule.Members)

	if delta < 0 {
		return 0, nil
	}

	switch schedule.RotationType {
	case domain.RotationHourly:
		intervalHours := schedule.RotationIntervalHours
		if intervalHours <= 0 {
			intervalHours = 1
		}
		rotations := int(delta.Seconds()) / (intervalHours * 3600)
		return rotations % n, nil
	default:
		var intervalDays int
		switch schedule.RotationType {
		case domain.RotationDaily:
			intervalDays = 1
		case domain.RotationWeekly:
			intervalDays = 7
		default:
			intervalDays = schedule.RotationIntervalDays
			if intervalDays <= 0 {
				intervalDays = 7
			}
		}
		daysElapsed := int(delta.Hours() / 24)
		rotations := daysElapsed / intervalDays
		return ((rotations % n) + n) % n, nil
	}
}

func parseHandoffTime(handoff string) (hour, minute int) {
	hour, minute = 9, 0
	if handoff == "" {
		return
	}
	parts := strings.SplitN(handoff, ":", 2)
	if h, err := strconv.Atoi(parts[0]); err == nil {
		hour = h
	}
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[1]); err == nil {
			minute = m
		}
	}
	return
}

// ResolveEscalationTargets resolves the notification targets for one level
// of a policy, deduplicating users that appear via more than one target
// (e.g. a schedule whose current on-call is also a direct target).
func ResolveEscalationTargets(ctx context.Context, store Store, policyID string, level int) ([]domain.User, error) {
	policy, err := store.GetEscalationPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, nil
	}

	var targetLevel *domain.EscalationLevel
	for i := range policy.Levels {
		if policy.Levels[i].Level == level {
			targetLevel = &policy.Levels[i]
			break
		}
	}
	if targetLevel == nil {
		return nil, nil
	}

	var users []domain.User
	seen := map[string]bool{}

	for _, target := range targetLevel.Targets {
		if target.Type == "" || target.ID == "" {
			continue
		}

		switch target.Type {
		case domain.TargetSchedule:
			user, err := GetCurrentOnCall(ctx, store, target.ID, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			if user != nil && !seen[user.ID] {
				seen[user.ID] = true
				users = append(users, *user)
			}
		case domain.TargetUser:
			if seen[target.ID] {
				continue
			}
			user, err := store.GetActiveUser(ctx, target.ID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				seen[user.ID] = true
				users = append(users, *user)
			}
		}
	}

	return users, nil
}

// ValidateMemberIDs returns the subset of a candidate member list that does
// not resolve to an active user — empty means every ID is valid.
func ValidateMemberIDs(ctx context.Context, store Store, members domain.ScheduleMembers) ([]string, error) {
	var invalid []string
	for _, m := range members {
		if m.UserID == "" {
			invalid = append(invalid, "<missing>")
			continue
		}
		user, err := store.GetActiveUser(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			invalid = append(invalid, m.UserID)
		}
	}
	return invalid, nil
}

// FindEscalationPolicy finds the highest-priority (lowest number) mapping
// whose service pattern glob-matches and whose optional severity filter
// includes severity, returning its policy.
func FindEscalationPolicy(ctx context.Context, store Store, service, severity string) (*domain.EscalationPolicy, error) {
	if service == "" {
		service = "*"
	}

	mappings, err := store.ListMappingsByPriority(ctx)
	if err != nil {
		return nil, err
	}

	for _, mapping := range mappings {
		g, err := glob.Compile(mapping.ServicePattern)
		if err != nil {
			continue
		}
		if !g.Match(service) {
			continue
		}

		if len(mapping.SeverityFilter) > 0 && severity != "" {
			found := false
			for _, s := range mapping.SeverityFilter {
				if s == severity {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		policy, err := store.GetEscalationPolicy(ctx, mapping.EscalationPolicyID)
		if err != nil {
			return nil, err
		}
		if policy != nil {
			return policy, nil
		}
	}

	return nil, nil
}
