package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umrahcheck/services"
)

func flightsAt(prices ...float64) []services.FlightCandidate {
	out := make([]services.FlightCandidate, len(prices))
	for i, p := range prices {
		out[i] = services.FlightCandidate{Airline: "A", PricePerPerson: p, Currency: "EUR"}
	}
	return out
}

func hotelsAt(totals ...float64) []services.HotelCandidate {
	out := make([]services.HotelCandidate, len(totals))
	for i, p := range totals {
		out[i] = services.HotelCandidate{Name: "H", PriceTotal: p, Currency: "EUR"}
	}
	return out
}

func mustAllocate(t *testing.T, avg float64, persons int) BudgetAllocation {
	t.Helper()
	a, err := Allocate(avg, persons)
	require.NoError(t, err)
	return a
}

func TestBuildItineraries_AllTiers(t *testing.T) {
	c := candidates{
		outbound:    flightsAt(300, 350, 500),
		ret:         flightsAt(320, 360, 480),
		makkah:      hotelsAt(400, 600, 900),
		madinah:     hotelsAt(200, 300, 500),
		wantMakkah:  true,
		wantMadinah: true,
	}
	alloc := mustAllocate(t, 1300, 2)

	options := buildItineraries(c, alloc, BudgetRange{1200, 1400})
	// comfort would cost 1680 per person, above 1400 * 1.1
	require.Len(t, options, 2)

	value := options[0]
	assert.Equal(t, TierValue, value.Label)
	// 300 + 320 + (400+200)/2
	assert.Equal(t, 920.0, value.TotalPerPerson)
	assert.Equal(t, 1840.0, value.TotalGroup)
	assert.Equal(t, 70.8, value.BudgetFitPercent)
	assert.Equal(t, 760.0, value.SavingsAmount)
	assert.Equal(t, Score(500, 920.0/1300*100, 3.8), value.Score)
	assert.Equal(t, "1 room with 3 beds each for 2 travellers", value.Recommendation.RoomExplanation)

	balanced := options[1]
	assert.Equal(t, TierBalanced, balanced.Label)
	assert.Equal(t, 350.0, balanced.FlightOutbound.PricePerPerson)
	assert.Equal(t, 360.0, balanced.FlightReturn.PricePerPerson)
	assert.Equal(t, 600.0, balanced.HotelMakkah.PriceTotal)
	assert.Equal(t, 300.0, balanced.HotelMadinah.PriceTotal)
	assert.Equal(t, 1160.0, balanced.TotalPerPerson)
}

func TestBuildItineraries_ComfortRules(t *testing.T) {
	base := candidates{
		outbound:    flightsAt(300, 350, 500),
		ret:         flightsAt(320, 360, 480),
		makkah:      hotelsAt(400, 600, 900),
		madinah:     hotelsAt(200, 300, 500),
		wantMakkah:  true,
		wantMadinah: true,
	}
	// comfort total per person: 500 + 480 + 1400/2 = 1680

	t.Run("within tolerance", func(t *testing.T) {
		options := buildItineraries(base, mustAllocate(t, 1600, 2), BudgetRange{1550, 1650})
		require.Len(t, options, 3)
		assert.Equal(t, 1680.0, options[2].TotalPerPerson)
		assert.Equal(t, 500.0, options[2].FlightOutbound.PricePerPerson)
		assert.Equal(t, 900.0, options[2].HotelMakkah.PriceTotal)
	})

	t.Run("over tolerance", func(t *testing.T) {
		options := buildItineraries(base, mustAllocate(t, 1450, 2), BudgetRange{1400, 1500})
		require.Len(t, options, 2)
	})

	t.Run("average not above threshold", func(t *testing.T) {
		options := buildItineraries(base, mustAllocate(t, 1200, 2), BudgetRange{1200, 2000})
		require.Len(t, options, 2)
	})

	t.Run("too few flights on one leg", func(t *testing.T) {
		c := base
		c.ret = flightsAt(320, 360)
		options := buildItineraries(c, mustAllocate(t, 1600, 2), BudgetRange{1550, 1650})
		require.Len(t, options, 2)
		for _, o := range options {
			assert.NotEqual(t, TierComfort, o.Label)
		}
	})
}

func TestBuildItineraries_BalancedNeedsTwoHotelsPerCity(t *testing.T) {
	c := candidates{
		outbound:    flightsAt(300),
		ret:         flightsAt(320),
		makkah:      hotelsAt(400, 600),
		madinah:     hotelsAt(200),
		wantMakkah:  true,
		wantMadinah: true,
	}
	options := buildItineraries(c, mustAllocate(t, 1000, 2), BudgetRange{900, 1100})
	require.Len(t, options, 1)
	assert.Equal(t, TierValue, options[0].Label)

	c.madinah = hotelsAt(200, 250)
	options = buildItineraries(c, mustAllocate(t, 1000, 2), BudgetRange{900, 1100})
	require.Len(t, options, 2)
	// a single flight per leg is reused
	assert.Equal(t, 300.0, options[1].FlightOutbound.PricePerPerson)
}

func TestBuildItineraries_SkippedCity(t *testing.T) {
	c := candidates{
		outbound:   flightsAt(300),
		ret:        flightsAt(320),
		makkah:     hotelsAt(400, 500),
		wantMakkah: true,
	}
	options := buildItineraries(c, mustAllocate(t, 1000, 2), BudgetRange{900, 1100})
	require.Len(t, options, 2)
	assert.Nil(t, options[0].HotelMadinah)
	assert.Equal(t, 820.0, options[0].TotalPerPerson)
}

func TestBuildItineraries_IncompleteLists(t *testing.T) {
	c := candidates{
		outbound:    flightsAt(300),
		ret:         nil,
		makkah:      hotelsAt(400),
		madinah:     hotelsAt(200),
		wantMakkah:  true,
		wantMadinah: true,
	}
	assert.Empty(t, buildItineraries(c, mustAllocate(t, 1000, 2), BudgetRange{900, 1100}))
}

func TestBuildItineraries_OverBudgetHasNoSavings(t *testing.T) {
	c := candidates{
		outbound:    flightsAt(600),
		ret:         flightsAt(600),
		makkah:      hotelsAt(1000),
		madinah:     hotelsAt(600),
		wantMakkah:  true,
		wantMadinah: true,
	}
	options := buildItineraries(c, mustAllocate(t, 1000, 2), BudgetRange{900, 1100})
	require.Len(t, options, 1)
	assert.Equal(t, 2000.0, options[0].TotalPerPerson)
	assert.Equal(t, 200.0, options[0].BudgetFitPercent)
	assert.Zero(t, options[0].SavingsAmount)
	assert.LessOrEqual(t, options[0].Score, 100.0)
}
