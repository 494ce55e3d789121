package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"radio-schedule-backend/internal/model"
	"radio-schedule-backend/internal/notification"
)

type programRequest struct {
	Title             string     `json:"title" binding:"required"`
	HostIDs           []int64    `json:"host_ids"`
	RecurrenceType    string     `json:"recurrence_type"`
	RecurrenceDays    []int      `json:"recurrence_days"`
	AirTime           string     `json:"air_time"`
	DurationMinutes   int        `json:"duration_minutes"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date"`
	IsActive          *bool      `json:"is_active"`
	Version           int64      `json:"version"`
}

func (r programRequest) toModel(id int64) *model.Program {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	recurrence := model.RecurrenceType(r.RecurrenceType)
	if recurrence == "" {
		recurrence = model.RecurrenceNone
	}
	return &model.Program{
		ID:                id,
		Title:             r.Title,
		HostIDs:           r.HostIDs,
		RecurrenceType:    recurrence,
		RecurrenceDays:    r.RecurrenceDays,
		AirTime:           r.AirTime,
		DurationMinutes:   r.DurationMinutes,
		RecurrenceEndDate: r.RecurrenceEndDate,
		IsActive:          active,
		Version:           r.Version,
	}
}

// ListPrograms handles GET /api/programs.
func (h *Handler) ListPrograms(c *gin.Context) {
	programs, err := h.store.ListActivePrograms(c.Request.Context())
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, programs)
}

// CreateProgram handles POST /api/programs.
func (h *Handler) CreateProgram(c *gin.Context) {
	var req programRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	program := req.toModel(0)
	if err := h.sched.SaveProgram(c.Request.Context(), program); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, program)
}

// UpdateProgram handles PUT /api/programs/:id. Deactivating a program here
// removes its future occurrences without touching history.
func (h *Handler) UpdateProgram(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid program ID"})
		return
	}

	var req programRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	program := req.toModel(id)
	if err := h.sched.SaveProgram(c.Request.Context(), program); err != nil {
		writeScheduleError(c, err)
		return
	}

	h.dispatch(notification.Change{ProgramID: id, Kind: notification.ChangeUpdated})
	c.JSON(http.StatusOK, program)
}

// DeleteProgram handles DELETE /api/programs/:id.
func (h *Handler) DeleteProgram(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid program ID"})
		return
	}

	if err := h.sched.DeleteProgram(c.Request.Context(), id); err != nil {
		writeScheduleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
