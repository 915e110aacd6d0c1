package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ecocal/cache"
	"github.com/use-agent/ecocal/calendar"
	"github.com/use-agent/ecocal/models"
	"github.com/use-agent/ecocal/sink"
)

// Gatherer runs calendar gathers without queueing. *calendar.Gatherer
// satisfies it.
type Gatherer interface {
	TryGatherEconomicEvents(ctx context.Context, startDate, endDate string) (*calendar.Result, error)
	Busy() bool
}

// Gather returns a handler for POST /api/v1/calendar.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Cache lookup when max_age > 0 and persist is not requested.
//  3. Gather: navigate, scroll, extract           (records gather_ms)
//  4. Persist to sinks when requested            (records persist_ms)
//  5. Cache store, fill Timing, return 200.
//
// sinks and cc may be nil.
func Gather(g Gatherer, sinks sink.Sink, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.GatherRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), models.GatherResponse{})
			return
		}
		if req.Persist && sinks == nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "persist requested but no sinks are configured", nil), models.GatherResponse{})
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.StartDate, req.EndDate)
		if cc != nil && req.MaxAge > 0 && !req.Persist {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Gather ───────────────────────────────────────────────
		gatherStart := time.Now()
		result, err := g.TryGatherEconomicEvents(c.Request.Context(), req.StartDate, req.EndDate)
		gatherMs := time.Since(gatherStart).Milliseconds()

		resp := models.GatherResponse{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		}
		if err != nil {
			resp.Timing = models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				GatherMs: gatherMs,
			}
			respondError(c, err, resp)
			return
		}

		resp.Success = true
		resp.Records = result.Records
		if resp.Records == nil {
			resp.Records = []models.EventRecord{}
		}
		resp.Steps = result.Steps
		resp.Stats = result.Stats

		// ── 4. Persist ──────────────────────────────────────────────
		var persistMs int64
		if req.Persist {
			persistStart := time.Now()
			err := sinks.Persist(c.Request.Context(), resp.Records, req.StartDate, req.EndDate)
			persistMs = time.Since(persistStart).Milliseconds()
			if err != nil {
				// The records are still returned so the caller loses nothing.
				resp.Timing = models.TimingInfo{
					TotalMs:   time.Since(totalStart).Milliseconds(),
					GatherMs:  gatherMs,
					PersistMs: persistMs,
				}
				respondError(c, err, resp)
				return
			}
			resp.Persisted = true
		}

		resp.Timing = models.TimingInfo{
			TotalMs:   time.Since(totalStart).Milliseconds(),
			GatherMs:  gatherMs,
			PersistMs: persistMs,
		}

		// ── 5. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			stored := resp
			stored.Persisted = false
			cc.Set(cacheKey, &stored)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}
