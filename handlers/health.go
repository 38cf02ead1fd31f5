package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"umrahcheck/planner"
)

const healthProbeTimeout = 2 * time.Second

// Health runs the allocator and scoring self-test, reports the configured
// providers and probes the registered dependencies. Any failing probe turns
// the status to "degraded" but the route still answers 200.
func (h *Handler) Health(c *gin.Context) {
	status := "ok"

	alloc, allocErr := planner.Allocate(1200, 4)
	score := planner.Score(350, 95, 4.2)
	selfTest := gin.H{
		"budget_allocator": allocErr == nil && alloc.RoomsNeeded == 1 && alloc.BedsPerRoom == 4,
		"scoring_engine":   score > 0,
		"sample_score":     score,
	}
	if allocErr != nil || score <= 0 {
		status = "degraded"
	}

	flights, hotels := h.searcher.Providers()

	deps := gin.H{}
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		err := check.Probe(ctx)
		cancel()
		if err != nil {
			deps[check.Name] = "error: " + err.Error()
			status = "degraded"
			continue
		}
		deps[check.Name] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "UmrahCheck Quote API",
		"providers": gin.H{
			"flights": flights,
			"hotels":  hotels,
		},
		"self_test":    selfTest,
		"dependencies": deps,
	})
}
