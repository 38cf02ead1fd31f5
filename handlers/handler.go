package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"umrahcheck/database"
	"umrahcheck/planner"
	"umrahcheck/services"
)

// Searcher runs quote searches.
type Searcher interface {
	Search(ctx context.Context, req planner.SearchRequest) (*planner.SearchResult, error)
	Providers() (flights, hotels services.ProviderInfo)
}

// SearchStore reads audited searches back and caches rendered PDFs.
type SearchStore interface {
	GetSearch(ctx context.Context, token string) (*database.SearchRecord, error)
	GetPDF(ctx context.Context, token string) ([]byte, bool, error)
	SavePDF(ctx context.Context, token string, data []byte) error
}

type Summarizer interface {
	Summarize(ctx context.Context, r *planner.SearchResult) string
}

// PanicReporter receives panics recovered by the HTTP stack.
type PanicReporter interface {
	CaptureMessage(msg string, tags map[string]string)
}

// Check is a named dependency probe reported by the health route.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Deps struct {
	Searcher   Searcher
	Store      SearchStore
	Summarizer Summarizer
	Reporter   PanicReporter
	Checks     []Check
	Logger     *zap.Logger
}

type Handler struct {
	searcher   Searcher
	store      SearchStore
	summarizer Summarizer
	reporter   PanicReporter
	checks     []Check
	logger     *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		searcher:   d.Searcher,
		store:      d.Store,
		summarizer: d.Summarizer,
		reporter:   d.Reporter,
		checks:     d.Checks,
		logger:     d.Logger,
	}
}

// Register mounts the API. Lookup routes need a store and are skipped
// without one.
func (h *Handler) Register(r *gin.Engine, limiter *RateLimiter) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/budget-analysis", h.BudgetAnalysis)

		search := api.Group("/search")
		if limiter != nil {
			search.Use(limiter.Middleware())
		}
		search.POST("", h.Search)

		if h.store != nil {
			api.GET("/itinerary/:token", h.Itinerary)
			api.GET("/itinerary/:token/pdf", h.ItineraryPDF)
		}
	}
}
