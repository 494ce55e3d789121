package api

import (
	"fmt"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
)

// ExportSchedule handles GET /api/schedule/export.ics and serves the
// resolved range as an iCalendar feed for calendar subscribers. Defaults to
// the next seven days when no range is given.
func (h *Handler) ExportSchedule(c *gin.Context) {
	from := time.Now()
	to := from.AddDate(0, 0, 7)

	if fromParam := c.Query("from"); fromParam != "" {
		parsed, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp format. Use RFC3339."})
			return
		}
		from = parsed
	}
	if toParam := c.Query("to"); toParam != "" {
		parsed, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp format. Use RFC3339."})
			return
		}
		to = parsed
	}

	occs, err := h.sched.OccurrencesInRange(c.Request.Context(), from, to)
	if err != nil {
		writeScheduleError(c, err)
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//radio-schedule-backend//EN")

	now := time.Now()
	for _, occ := range occs {
		// One VEVENT per resolved occurrence; the UID encodes the source
		// record and start instant so re-exports stay stable.
		uid := fmt.Sprintf("%s-%d-%d@radio-schedule", occ.SourceType, occ.SourceID, occ.Start.Unix())
		event := cal.AddEvent(uid)
		event.SetDtStampTime(now)
		event.SetStartAt(occ.Start)
		event.SetEndAt(occ.End)
		event.SetSummary(occ.Title)
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="schedule.ics"`)
	c.String(http.StatusOK, cal.Serialize())
}
