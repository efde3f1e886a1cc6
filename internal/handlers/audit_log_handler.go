package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/repository"
	"solace/pkg/response"
)

// AuditLogHandler exposes read-only audit log listing/export, adapted
// from the teacher's AuditLogService (the teacher wired an AuditLogHandler
// into cmd/api/main.go that was never checked into the retrieved repo —
// rebuilt here against the same service surface).
type AuditLogHandler struct {
	logs *repository.AuditLogRepository
}

func NewAuditLogHandler(logs *repository.AuditLogRepository) *AuditLogHandler {
	return &AuditLogHandler{logs: logs}
}

func parseAuditFilter(c *gin.Context) repository.AuditLogFilter {
	filter := repository.AuditLogFilter{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	if v := c.Query("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartTime = &t
		}
	}
	if v := c.Query("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndTime = &t
		}
	}
	return filter
}

func (h *AuditLogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	entries, total, err := h.logs.List(c.Request.Context(), page, pageSize, parseAuditFilter(c))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "total": total, "page": page, "page_size": pageSize})
}

func (h *AuditLogHandler) Export(c *gin.Context) {
	entries, err := h.logs.Export(c.Request.Context(), parseAuditFilter(c))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to export audit log")
		return
	}
	filename := fmt.Sprintf("audit_log_export_%d.json", time.Now().UTC().Unix())
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.JSON(http.StatusOK, entries)
}
