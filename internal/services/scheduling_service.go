package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"solace/internal/domain"
	"solace/internal/oncall"
	"solace/internal/repository"
)

// SchedulingService generates on-call rotation shifts and validates
// schedule configuration — conveniences layered on top of the same
// OnCallSchedule data model internal/oncall resolves "who is on call
// right now" against, adapted from the teacher's scheduling_service.go
// (previously all stubs).
type SchedulingService struct {
	oncallRepo *repository.OnCallRepository
}

func NewSchedulingService(oncallRepo *repository.OnCallRepository) *SchedulingService {
	return &SchedulingService{oncallRepo: oncallRepo}
}

// GeneratedShift is one member's stretch of on-call duty.
type GeneratedShift struct {
	ScheduleID string    `json:"schedule_id"`
	UserID     string    `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

func shiftStep(schedule domain.OnCallSchedule) time.Duration {
	switch schedule.RotationType {
	case domain.RotationHourly:
		hours := schedule.RotationIntervalHours
		if hours <= 0 {
			hours = 1
		}
		return time.Duration(hours) * time.Hour
	case domain.RotationDaily:
		return 24 * time.Hour
	case domain.RotationWeekly:
		return 7 * 24 * time.Hour
	default:
		days := schedule.RotationIntervalDays
		if days <= 0 {
			days = 7
		}
		return time.Duration(days) * 24 * time.Hour
	}
}

// GenerateSchedule lays out fair round-robin shifts across [start, end),
// cycling members in the order they appear on the schedule starting from
// effective_from.
func (s *SchedulingService) GenerateSchedule(ctx context.Context, scheduleID string, start, end time.Time) ([]GeneratedShift, error) {
	schedule, err := s.oncallRepo.GetActiveSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil || len(schedule.Members) == 0 {
		return nil, nil
	}

	step := shiftStep(*schedule)
	if step <= 0 {
		return nil, fmt.Errorf("invalid rotation step")
	}

	n := len(schedule.Members)
	cursor := schedule.EffectiveFrom
	idx := 0
	var shifts []GeneratedShift

	// Advance the cursor/index to the first boundary at or after start.
	for cursor.Add(step).Before(start) || cursor.Add(step).Equal(start) {
		cursor = cursor.Add(step)
		idx = (idx + 1) % n
	}

	for cursor.Before(end) {
		shiftEnd := cursor.Add(step)
		shifts = append(shifts, GeneratedShift{
			ScheduleID: scheduleID,
			UserID:     schedule.Members[idx].UserID,
			StartTime:  cursor,
			EndTime:    shiftEnd,
		})
		cursor = shiftEnd
		idx = (idx + 1) % n
	}

	return shifts, nil
}

// SuggestRotation reports the next rotation boundary after now, useful for
// "who takes over next and when" UI prompts.
func (s *SchedulingService) SuggestRotation(ctx context.Context, scheduleID string) (*GeneratedShift, error) {
	now := time.Now().UTC()
	shifts, err := s.GenerateSchedule(ctx, scheduleID, now, now.Add(90*24*time.Hour))
	if err != nil {
		return nil, err
	}
	for _, shift := range shifts {
		if shift.StartTime.After(now) {
			return &shift, nil
		}
	}
	return nil, nil
}

// ScheduleValidation reports the invariant checks a schedule must satisfy.
type ScheduleValidation struct {
	ScheduleID string   `json:"schedule_id"`
	IsValid    bool     `json:"is_valid"`
	Errors     []string `json:"errors,omitempty"`
}

// ValidateSchedule checks the invariants a schedule must hold: resolvable
// timezone, handoff_time in HH:MM 24-hour range, a positive rotation
// interval, and a non-empty member list.
func (s *SchedulingService) ValidateSchedule(ctx context.Context, scheduleID string) (*ScheduleValidation, error) {
	schedule, err := s.oncallRepo.GetActiveSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return &ScheduleValidation{ScheduleID: scheduleID, IsValid: false, Errors: []string{"schedule not found"}}, nil
	}

	var errs []string

	if _, err := time.LoadLocation(schedule.Timezone); err != nil {
		errs = append(errs, "timezone is not a valid IANA zone: "+schedule.Timezone)
	}

	if !validHandoffTime(schedule.HandoffTime) {
		errs = append(errs, "handoff_time must be HH:MM in 24-hour range")
	}

	switch schedule.RotationType {
	case domain.RotationHourly:
		if schedule.RotationIntervalHours <= 0 {
			errs = append(errs, "rotation_interval_hours must be positive for hourly rotation")
		}
	case domain.RotationDaily, domain.RotationWeekly:
		// fixed intervals, nothing to validate
	default:
		if schedule.RotationIntervalDays <= 0 {
			errs = append(errs, "rotation_interval_days must be positive for custom rotation")
		}
	}

	if len(schedule.Members) == 0 {
		errs = append(errs, "schedule must have at least one member")
	}

	if invalid, err := oncall.ValidateMemberIDs(ctx, s.oncallRepo, schedule.Members); err != nil {
		return nil, err
	} else if len(invalid) > 0 {
		errs = append(errs, "unknown member user ids: "+strings.Join(invalid, ", "))
	}

	return &ScheduleValidation{ScheduleID: scheduleID, IsValid: len(errs) == 0, Errors: errs}, nil
}

func validHandoffTime(handoff string) bool {
	parts := strings.SplitN(handoff, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return false
	}
	return true
}
