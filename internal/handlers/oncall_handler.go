package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/oncall"
	"solace/internal/repository"
	"solace/pkg/response"
)

// OnCallHandler is the on-call schedule/override/escalation-policy CRUD
// surface, adapted from the teacher's OnCallHandler but rewired to
// domain.OnCallSchedule and the internal/oncall rotation-resolution package
// instead of a separate member/assignment repository pair.
type OnCallHandler struct {
	oncallRepo *repository.OnCallRepository
}

func NewOnCallHandler(oncallRepo *repository.OnCallRepository) *OnCallHandler {
	return &OnCallHandler{oncallRepo: oncallRepo}
}

func (h *OnCallHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.oncallRepo.ListSchedules(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	c.JSON(http.StatusOK, schedules)
}

type createScheduleRequest struct {
	Name                  string                 `json:"name" binding:"required"`
	Timezone              string                 `json:"timezone"`
	RotationType          domain.RotationType    `json:"rotation_type"`
	Members               domain.ScheduleMembers `json:"members"`
	HandoffTime           string                 `json:"handoff_time"`
	RotationIntervalDays  int                    `json:"rotation_interval_days"`
	RotationIntervalHours int                    `json:"rotation_interval_hours"`
	EffectiveFrom         time.Time              `json:"effective_from"`
}

func (h *OnCallHandler) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if req.RotationType == "" {
		req.RotationType = domain.RotationWeekly
	}
	if req.HandoffTime == "" {
		req.HandoffTime = "09:00"
	}
	if req.EffectiveFrom.IsZero() {
		req.EffectiveFrom = time.Now().UTC()
	}

	if invalid, err := oncall.ValidateMemberIDs(c.Request.Context(), h.oncallRepo, req.Members); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to validate members")
		return
	} else if len(invalid) > 0 {
		response.Detail(c, http.StatusBadRequest, "unknown member user ids")
		return
	}

	schedule := &domain.OnCallSchedule{
		Name:                  req.Name,
		Timezone:              req.Timezone,
		RotationType:          req.RotationType,
		Members:               req.Members,
		HandoffTime:           req.HandoffTime,
		RotationIntervalDays:  req.RotationIntervalDays,
		RotationIntervalHours: req.RotationIntervalHours,
		EffectiveFrom:         req.EffectiveFrom,
		IsActive:              true,
	}
	if err := h.oncallRepo.CreateSchedule(c.Request.Context(), schedule); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create schedule")
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *OnCallHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.oncallRepo.GetActiveSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	if schedule == nil {
		response.Detail(c, http.StatusNotFound, "schedule not found")
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *OnCallHandler) UpdateSchedule(c *gin.Context) {
	schedule, err := h.oncallRepo.GetActiveSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	if schedule == nil {
		response.Detail(c, http.StatusNotFound, "schedule not found")
		return
	}

	var req struct {
		Name                  *string                `json:"name"`
		Timezone              *string                `json:"timezone"`
		RotationType          *domain.RotationType   `json:"rotation_type"`
		Members               domain.ScheduleMembers `json:"members"`
		HandoffTime           *string                `json:"handoff_time"`
		RotationIntervalDays  *int                   `json:"rotation_interval_days"`
		RotationIntervalHours *int                   `json:"rotation_interval_hours"`
		IsActive              *bool                  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.Timezone != nil {
		schedule.Timezone = *req.Timezone
	}
	if req.RotationType != nil {
		schedule.RotationType = *req.RotationType
	}
	if req.Members != nil {
		schedule.Members = req.Members
	}
	if req.HandoffTime != nil {
		schedule.HandoffTime = *req.HandoffTime
	}
	if req.RotationIntervalDays != nil {
		schedule.RotationIntervalDays = *req.RotationIntervalDays
	}
	if req.RotationIntervalHours != nil {
		schedule.RotationIntervalHours = *req.RotationIntervalHours
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}

	if err := h.oncallRepo.UpdateSchedule(c.Request.Context(), schedule); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to update schedule")
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type createOverrideRequest struct {
	UserID   string    `json:"user_id" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
	Reason   string    `json:"reason"`
}

func (h *OnCallHandler) CreateOverride(c *gin.Context) {
	scheduleID := c.Param("id")
	var req createOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		response.Detail(c, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	override := &domain.OnCallOverride{
		ScheduleID: scheduleID,
		UserID:     req.UserID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Reason:     req.Reason,
	}
	if err := h.oncallRepo.CreateOverride(c.Request.Context(), override); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create override")
		return
	}
	c.JSON(http.StatusCreated, override)
}

func (h *OnCallHandler) ListOverrides(c *gin.Context) {
	overrides, err := h.oncallRepo.ListOverrides(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list overrides")
		return
	}
	c.JSON(http.StatusOK, overrides)
}

// WhoIsOnCall handles GET {prefix}/oncall/schedules/:id/current, resolving
// the on-call user for an optional ?at= instant (defaults to now).
func (h *OnCallHandler) WhoIsOnCall(c *gin.Context) {
	at := time.Now().UTC()
	if q := c.Query("at"); q != "" {
		if parsed, err := time.Parse(time.RFC3339, q); err == nil {
			at = parsed
		}
	}

	user, err := oncall.GetCurrentOnCall(c.Request.Context(), h.oncallRepo, c.Param("id"), at)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to resolve on-call user")
		return
	}
	if user == nil {
		response.Detail(c, http.StatusNotFound, "no on-call user for this schedule")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *OnCallHandler) ListEscalationPolicies(c *gin.Context) {
	policies, err := h.oncallRepo.ListEscalationPolicies(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list escalation policies")
		return
	}
	c.JSON(http.StatusOK, policies)
}

type createEscalationPolicyRequest struct {
	Name        string                  `json:"name" binding:"required"`
	RepeatCount int                     `json:"repeat_count"`
	Levels      domain.EscalationLevels `json:"levels"`
}

func (h *OnCallHandler) CreateEscalationPolicy(c *gin.Context) {
	var req createEscalationPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	policy := &domain.EscalationPolicy{
		Name:        req.Name,
		RepeatCount: req.RepeatCount,
		Levels:      req.Levels,
	}
	if err := h.oncallRepo.CreateEscalationPolicy(c.Request.Context(), policy); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create escalation policy")
		return
	}
	c.JSON(http.StatusCreated, policy)
}

type createMappingRequest struct {
	ServicePattern     string   `json:"service_pattern" binding:"required"`
	SeverityFilter     []string `json:"severity_filter"`
	EscalationPolicyID string   `json:"escalation_policy_id" binding:"required"`
	Priority           int      `json:"priority"`
}

func (h *OnCallHandler) CreateMapping(c *gin.Context) {
	var req createMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	mapping := &domain.ServiceEscalationMapping{
		ServicePattern:     req.ServicePattern,
		SeverityFilter:     req.SeverityFilter,
		EscalationPolicyID: req.EscalationPolicyID,
		Priority:           req.Priority,
	}
	if err := h.oncallRepo.CreateMapping(c.Request.Context(), mapping); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create mapping")
		return
	}
	c.JSON(http.StatusCreated, mapping)
}

func (h *OnCallHandler) ListMappings(c *gin.Context) {
	mappings, err := h.oncallRepo.ListMappingsByPriority(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list mappings")
		return
	}
	c.JSON(http.StatusOK, mappings)
}
