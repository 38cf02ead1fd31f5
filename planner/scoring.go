package planner

import "math"

// ─── Scoring ──────────────────────────────────────────────────────────────────

const (
	weightDistance    = 0.40
	weightBudgetFit   = 0.35
	weightRating      = 0.15
	weightFlexibility = 0.10

	// No cancellation-policy data is available from any provider, so every
	// itinerary gets the same flexibility baseline.
	flexibilityBaseline = 80
)

// Score rates an itinerary from 0 to 100. Callers keep distance >= 0 and
// rating within [0,5].
func Score(distanceMeters, budgetFitPercent, rating float64) float64 {
	distance := 100 - math.Min(distanceMeters/10, 100)
	fit := math.Min(budgetFitPercent, 100)
	review := rating * 20

	total := distance*weightDistance +
		fit*weightBudgetFit +
		review*weightRating +
		flexibilityBaseline*weightFlexibility

	return round1(total)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
