package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"radio-schedule-backend/internal/mw"
	"radio-schedule-backend/internal/notification"
	"radio-schedule-backend/internal/schedule"
	"radio-schedule-backend/internal/store"
)

// RouterOptions bundles the tunables the router needs from configuration.
type RouterOptions struct {
	RateLimitPerSec  float64
	ResponseCacheTTL time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, sched *schedule.Service, webpushOptions *webpush.Options, pool *notification.WorkerPool, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, sched, webpushOptions, pool)

	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.ResponseCacheTTL <= 0 {
		opts.ResponseCacheTTL = time.Minute
	}
	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), 5)

	cacheStore := cache.New(opts.ResponseCacheTTL, 2*opts.ResponseCacheTTL)
	caching := mw.Cache(cacheStore, opts.ResponseCacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Resolved schedule (read path).
		api.GET("/schedule", caching, handler.GetSchedule)
		api.GET("/schedule/now", handler.GetNowPlaying)
		api.GET("/schedule/next", handler.GetNextOccurrence)
		api.GET("/schedule/export.ics", handler.ExportSchedule)
		api.POST("/schedule/conflicts", handler.CheckConflicts)

		// Source records (write path).
		api.GET("/programs", handler.ListPrograms)
		api.POST("/programs", handler.CreateProgram)
		api.PUT("/programs/:id", handler.UpdateProgram)
		api.DELETE("/programs/:id", handler.DeleteProgram)

		api.POST("/entries", handler.CreateEntry)
		api.PUT("/entries/:id", handler.UpdateEntry)
		api.DELETE("/entries/:id", handler.DeleteEntry)

		api.POST("/specials", handler.CreateSpecial)
		api.PUT("/specials/:id", handler.UpdateSpecial)
		api.DELETE("/specials/:id", handler.DeleteSpecial)

		// Push subscriptions.
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
