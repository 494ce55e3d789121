package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"radio-schedule-backend/internal/schedule"
)

// occurrenceResponse is the wire form of a resolved occurrence. Timestamps
// are ISO-8601 in the station's configured timezone offset.
type occurrenceResponse struct {
	Start      string              `json:"start"`
	End        string              `json:"end"`
	Title      string              `json:"title"`
	HostIDs    []int64             `json:"hostIds"`
	SourceType schedule.SourceType `json:"sourceType"`
	Status     string              `json:"status"`
}

func (h *Handler) toResponse(occ schedule.Occurrence) occurrenceResponse {
	loc := h.sched.Config().Location
	hostIDs := occ.HostIDs
	if hostIDs == nil {
		hostIDs = []int64{}
	}
	return occurrenceResponse{
		Start:      occ.Start.In(loc).Format(time.RFC3339),
		End:        occ.End.In(loc).Format(time.RFC3339),
		Title:      occ.Title,
		HostIDs:    hostIDs,
		SourceType: occ.SourceType,
		Status:     occ.Status,
	}
}

func (h *Handler) toResponses(occs []schedule.Occurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, len(occs))
	for i, occ := range occs {
		out[i] = h.toResponse(occ)
	}
	return out
}

// GetSchedule handles GET /api/schedule?from=&to= and returns the resolved
// occurrences overlapping the requested range.
func (h *Handler) GetSchedule(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp format. Use RFC3339."})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp format. Use RFC3339."})
		return
	}

	occs, err := h.sched.OccurrencesInRange(c.Request.Context(), from, to)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponses(occs))
}

// GetNowPlaying handles GET /api/schedule/now.
func (h *Handler) GetNowPlaying(c *gin.Context) {
	at := time.Now()
	if atParam := c.Query("at"); atParam != "" {
		parsed, err := time.Parse(time.RFC3339, atParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'at' timestamp format. Use RFC3339."})
			return
		}
		at = parsed
	}

	occ, err := h.sched.CurrentOccurrence(c.Request.Context(), at)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*occ))
}

// GetNextOccurrence handles GET /api/schedule/next?after=.
func (h *Handler) GetNextOccurrence(c *gin.Context) {
	after := time.Now()
	if afterParam := c.Query("after"); afterParam != "" {
		parsed, err := time.Parse(time.RFC3339, afterParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'after' timestamp format. Use RFC3339."})
			return
		}
		after = parsed
	}

	occ, err := h.sched.NextOccurrence(c.Request.Context(), after)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*occ))
}

type conflictCheckRequest struct {
	StartTime time.Time                `json:"start_time" binding:"required"`
	EndTime   time.Time                `json:"end_time" binding:"required"`
	ProgramID int64                    `json:"program_id"`
	Policy    *schedule.ConflictPolicy `json:"policy"`
}

// CheckConflicts handles POST /api/schedule/conflicts, the dry-run check
// editor forms call before saving.
func (h *Handler) CheckConflicts(c *gin.Context) {
	var req conflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := defaultEntryPolicy
	if req.Policy != nil {
		policy = *req.Policy
	}

	report, err := h.sched.CheckEntryConflicts(c.Request.Context(), req.StartTime, req.EndTime, req.ProgramID, policy)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
