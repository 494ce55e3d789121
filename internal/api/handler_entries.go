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

// Default write policies. Ad-hoc entries are treated strictly: any overlap
// blocks unless the operator forces the write. Specials only block on other
// specials, since displacing regular programming is their whole point.
var (
	defaultEntryPolicy = schedule.ConflictPolicy{
		BlockRecurring: true,
		BlockEntry:     true,
		BlockSpecial:   true,
	}
	defaultSpecialPolicy = schedule.ConflictPolicy{
		BlockSpecial: true,
	}
)

type entryRequest struct {
	ProgramID      int64                    `json:"program_id" binding:"required"`
	StartTime      time.Time                `json:"start_time" binding:"required"`
	EndTime        time.Time                `json:"end_time" binding:"required"`
	IsRecurring    bool                     `json:"is_recurring"`
	RecurrenceRule string                   `json:"recurrence_rule"`
	HostIDs        []int64                  `json:"host_ids"`
	IsSpecial      bool                     `json:"is_special"`
	OverrideTitle  string                   `json:"override_title"`
	Status         string                   `json:"status"`
	Version        int64                    `json:"version"`
	Force          bool                     `json:"force"`
	Policy         *schedule.ConflictPolicy `json:"policy"`
}

func (r entryRequest) toModel(id int64) *model.ScheduleEntry {
	return &model.ScheduleEntry{
		ID:             id,
		ProgramID:      r.ProgramID,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		IsRecurring:    r.IsRecurring,
		RecurrenceRule: r.RecurrenceRule,
		HostIDs:        r.HostIDs,
		IsSpecial:      r.IsSpecial,
		OverrideTitle:  r.OverrideTitle,
		Status:         r.Status,
		Version:        r.Version,
	}
}

func (r entryRequest) policy() schedule.ConflictPolicy {
	if r.Policy != nil {
		return *r.Policy
	}
	return defaultEntryPolicy
}

// CreateEntry handles POST /api/entries.
func (h *Handler) CreateEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := req.toModel(0)
	report, err := h.sched.SaveEntry(c.Request.Context(), entry, req.policy(), req.Force)
	if err == schedule.ErrBlockingConflict {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "report": report})
		return
	}
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	h.dispatch(notification.Change{ProgramID: entry.ProgramID, Kind: notification.ChangeUpdated})
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "report": report})
}

// UpdateEntry handles PUT /api/entries/:id. The request must carry the
// version the caller last read; a mismatch yields 409.
func (h *Handler) UpdateEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := req.toModel(id)
	report, err := h.sched.SaveEntry(c.Request.Context(), entry, req.policy(), req.Force)
	if err == schedule.ErrBlockingConflict {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "report": report})
		return
	}
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	kind := notification.ChangeUpdated
	if entry.Status == model.StatusCancelled {
		kind = notification.ChangeCancelled
	}
	h.dispatch(notification.Change{ProgramID: entry.ProgramID, Kind: kind})
	c.JSON(http.StatusOK, gin.H{"entry": entry, "report": report})
}

// DeleteEntry handles DELETE /api/entries/:id.
func (h *Handler) DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	entry, err := h.store.GetScheduleEntry(c.Request.Context(), id)
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	if err := h.sched.DeleteEntry(c.Request.Context(), id); err != nil {
		writeScheduleError(c, err)
		return
	}

	h.dispatch(notification.Change{ProgramID: entry.ProgramID, Kind: notification.ChangeCancelled})
	c.Status(http.StatusNoContent)
}
