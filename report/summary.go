package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"umrahcheck/config"
	"umrahcheck/planner"
)

const huggingFaceBaseURL = "https://api-inference.huggingface.co/models/"

// Summarizer writes the short advisory text printed on a quote. Without an
// API key, or when the model fails, it falls back to a fixed template.
type Summarizer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSummarizer(cfg config.HuggingFaceConfig, logger *zap.Logger) *Summarizer {
	s := &Summarizer{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    huggingFaceBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
	if s.apiKey != "" {
		logger.Info("✅ AI (HuggingFace) initialized", zap.String("model", s.model))
	} else {
		logger.Warn("⚠️  HUGGINGFACE_API_KEY not set, quote summaries will use fallback text")
	}
	return s
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// Summarize never fails; errors from the model are logged and replaced by
// the template text.
func (s *Summarizer) Summarize(ctx context.Context, r *planner.SearchResult) string {
	if s.apiKey == "" || len(r.Options) == 0 {
		return FallbackSummary(r)
	}
	text, err := s.generate(ctx, buildPrompt(r))
	if err != nil {
		s.logger.Warn("⚠️  AI summary failed, using fallback",
			zap.String("lead_token", r.LeadToken),
			zap.Error(err))
		return FallbackSummary(r)
	}
	return text
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	jsonBody, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   300,
			Temperature:    0.5,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.model, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("AI model is loading")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HuggingFace API error (%d): %s", resp.StatusCode, string(body))
	}

	var hfResp hfResponse
	if err := json.Unmarshal(body, &hfResp); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}
	if len(hfResp) == 0 || strings.TrimSpace(hfResp[0].GeneratedText) == "" {
		return "", fmt.Errorf("empty response from AI")
	}
	return strings.TrimSpace(hfResp[0].GeneratedText), nil
}

func buildPrompt(r *planner.SearchResult) string {
	a := r.Assumptions
	var b strings.Builder
	fmt.Fprintf(&b, `[INST] You are a helpful Umrah travel advisor. Compare these packages and give brief, honest advice.

Trip: %s to %s | %d night(s) Makkah, %d night(s) Madinah | %d traveller(s) | Budget: €%.0f per person

Packages:
`, a.DepartureDate, a.ReturnDate, a.NightsMakkah, a.NightsMadinah,
		a.BudgetAllocation.Persons, a.BudgetAllocation.AveragePerPerson)

	for _, o := range r.Options {
		fmt.Fprintf(&b, "  - %s: €%.0f per person, %s outbound, budget fit %.0f%%", o.Label, o.TotalPerPerson, o.FlightOutbound.Airline, o.BudgetFitPercent)
		if o.HotelMakkah != nil {
			fmt.Fprintf(&b, ", Makkah %s (%s)", o.HotelMakkah.Name, o.HotelMakkah.DistanceDescription)
		}
		if o.HotelMadinah != nil {
			fmt.Fprintf(&b, ", Madinah %s (%s)", o.HotelMadinah.Name, o.HotelMadinah.DistanceDescription)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nIn 120 words or fewer, say which package suits this group best and why. Be direct. [/INST]")
	return b.String()
}

// FallbackSummary is the template text used when no model is available.
func FallbackSummary(r *planner.SearchResult) string {
	if len(r.Options) == 0 {
		return "No package could be assembled for these dates. Our team will contact you with alternatives."
	}

	best := r.Options[0]
	for _, o := range r.Options[1:] {
		if o.Score > best.Score {
			best = o
		}
	}
	cheapest := r.Options[0]

	var b strings.Builder
	fmt.Fprintf(&b, "The %s package scores highest (%.1f) at €%.2f per person.", best.Label, best.Score, best.TotalPerPerson)
	if best.Label != cheapest.Label {
		fmt.Fprintf(&b, " If price matters most, the %s package costs €%.2f per person.", cheapest.Label, cheapest.TotalPerPerson)
	}
	if cheapest.SavingsAmount > 0 {
		fmt.Fprintf(&b, " It leaves €%.2f of the group budget unspent.", cheapest.SavingsAmount)
	}
	b.WriteString(" " + r.Assumptions.RoomCalculation + ".")
	return b.String()
}
