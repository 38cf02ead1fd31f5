package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umrahcheck/apperrors"
	"umrahcheck/report"
)

// Itinerary returns the stored outcome of a search, successful or not.
func (h *Handler) Itinerary(c *gin.Context) {
	rec, err := h.store.GetSearch(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": rec.Status != "failed",
		"search":  rec,
	})
}

// ItineraryPDF serves the quote document, rendering and storing it on first
// request.
func (h *Handler) ItineraryPDF(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	rec, err := h.store.GetSearch(ctx, token)
	if err != nil {
		writeError(c, err)
		return
	}
	if rec.Result == nil {
		writeError(c, apperrors.NewNotFound("quote", token))
		return
	}

	pdfBytes, ok, err := h.store.GetPDF(ctx, token)
	if err != nil {
		writeError(c, err)
		return
	}

	if !ok {
		summary := report.FallbackSummary(rec.Result)
		if h.summarizer != nil {
			summary = h.summarizer.Summarize(ctx, rec.Result)
		}

		pdfBytes, err = report.RenderPDF(report.Quote{
			Result:       rec.Result,
			CustomerName: rec.CustomerName,
			Summary:      summary,
			GeneratedAt:  time.Now(),
		})
		if err != nil {
			h.logger.Error("❌ PDF generation failed", zap.String("lead_token", token), zap.Error(err))
			writeError(c, err)
			return
		}

		if err := h.store.SavePDF(ctx, token, pdfBytes); err != nil {
			h.logger.Warn("⚠️  Failed to store generated PDF", zap.String("lead_token", token), zap.Error(err))
		}
		h.logger.Info("✅ PDF generated", zap.String("lead_token", token), zap.Int("bytes", len(pdfBytes)))
	}

	c.Header("Content-Disposition", "attachment; filename=umrahcheck-"+token+".pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
