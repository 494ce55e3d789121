package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"radio-schedule-backend/internal/notification"
	"radio-schedule-backend/internal/schedule"
	"radio-schedule-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	sched   *schedule.Service
	webpush *webpush.Options
	pool    *notification.WorkerPool
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, sched *schedule.Service, webpushOptions *webpush.Options, pool *notification.WorkerPool) *Handler {
	return &Handler{
		store:   s,
		sched:   sched,
		webpush: webpushOptions,
		pool:    pool,
	}
}

// dispatch queues a schedule-change notice if the worker pool is wired.
func (h *Handler) dispatch(change notification.Change) {
	if h.pool != nil && change.ProgramID != 0 {
		h.pool.Dispatch(change)
	}
}

// writeScheduleError maps engine and store errors onto HTTP statuses.
func writeScheduleError(c *gin.Context, err error) {
	var invalidWindow *schedule.InvalidWindowError
	var tooLarge *schedule.RangeTooLargeError
	var ambiguous *schedule.AmbiguousOverrideError

	switch {
	case errors.As(err, &invalidWindow), errors.As(err, &tooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ambiguous):
		c.JSON(http.StatusConflict, gin.H{
			"error":         err.Error(),
			"broadcast_ids": ambiguous.BroadcastIDs,
			"priority":      ambiguous.Priority,
		})
	case errors.Is(err, store.ErrStaleWrite):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, schedule.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
