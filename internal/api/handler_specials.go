package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"radio-schedule-backend/internal/model"
	"radio-schedule-backend/internal/notification"
	"radio-schedule-backend/internal/schedule"
)

type specialRequest struct {
	StartTime            time.Time                `json:"start_time" binding:"required"`
	EndTime              time.Time                `json:"end_time" binding:"required"`
	ReplacementProgramID *int64                   `json:"replacement_program_id"`
	ReplacementTitle     string                   `json:"replacement_title"`
	Reason               string                   `json:"reason"`
	Priority             int                      `json:"priority"`
	Version              int64                    `json:"version"`
	Force                bool                     `json:"force"`
	Policy               *schedule.ConflictPolicy `json:"policy"`
}

func (r specialRequest) toModel(id int64) *model.SpecialBroadcast {
	return &model.SpecialBroadcast{
		ID:                   id,
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
		ReplacementProgramID: r.ReplacementProgramID,
		ReplacementTitle:     r.ReplacementTitle,
		Reason:               r.Reason,
		Priority:             r.Priority,
		Version:              r.Version,
	}
}

func (r specialRequest) policy() schedule.ConflictPolicy {
	if r.Policy != nil {
		return *r.Policy
	}
	return defaultSpecialPolicy
}

func (h *Handler) saveSpecial(c *gin.Context, sb *model.SpecialBroadcast, policy schedule.ConflictPolicy, force bool, created bool) {
	report, err := h.sched.SaveSpecial(c.Request.Context(), sb, policy, force)
	if err == schedule.ErrBlockingConflict {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "report": report})
		return
	}
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	if sb.ReplacementProgramID != nil {
		h.dispatch(notification.Change{ProgramID: *sb.ReplacementProgramID, Kind: notification.ChangeReplaced})
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"special": sb, "report": report})
}

// CreateSpecial handles POST /api/specials.
func (h *Handler) CreateSpecial(c *gin.Context) {
	var req specialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.saveSpecial(c, req.toModel(0), req.policy(), req.Force, true)
}

// UpdateSpecial handles PUT /api/specials/:id.
func (h *Handler) UpdateSpecial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid special broadcast ID"})
		return
	}

	var req specialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.saveSpecial(c, req.toModel(id), req.policy(), req.Force, false)
}

// DeleteSpecial handles DELETE /api/specials/:id.
func (h *Handler) DeleteSpecial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid special broadcast ID"})
		return
	}

	if err := h.sched.DeleteSpecial(c.Request.Context(), id); err != nil {
		writeScheduleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
