package planner

import (
	"fmt"
	"math"

	"umrahcheck/services"
)

// ─── Tier pairing ─────────────────────────────────────────────────────────────

const (
	// Comfort is only offered above this average per-person budget.
	comfortMinAverage = 1200
	// Comfort may exceed the stated maximum by at most this factor.
	comfortOverrunTolerance = 1.1
	// Comfort needs a real choice of flights on each leg.
	comfortMinFlights = 3
	balancedMinHotels = 2
)

// tierProfile holds the illustrative distance and rating a tier is scored
// with; cheaper tiers trade proximity and quality for price.
type tierProfile struct {
	distanceMeters float64
	rating         float64
	why            string
}

var tierProfiles = map[Tier]tierProfile{
	TierValue:    {500, 3.8, "Lowest total price. Hotels are a short walk further from the mosques."},
	TierBalanced: {250, 4.3, "Better located hotels for a moderate surcharge over the cheapest option."},
	TierComfort:  {150, 4.7, "Premium hotels closest to the Haram and the Prophet's Mosque."},
}

// candidates holds the price-sorted lists for one search. A nil hotel list
// means the city is not part of the trip.
type candidates struct {
	outbound []services.FlightCandidate
	ret      []services.FlightCandidate
	makkah   []services.HotelCandidate
	madinah  []services.HotelCandidate

	wantMakkah  bool
	wantMadinah bool
}

func (c candidates) complete() bool {
	return len(c.outbound) > 0 && len(c.ret) > 0 &&
		(!c.wantMakkah || len(c.makkah) > 0) &&
		(!c.wantMadinah || len(c.madinah) > 0)
}

func (c candidates) minHotels() int {
	n := math.MaxInt
	if c.wantMakkah {
		n = min(n, len(c.makkah))
	}
	if c.wantMadinah {
		n = min(n, len(c.madinah))
	}
	return n
}

// selection picks one candidate index per list. A negative index selects the
// last (most expensive) element.
type selection struct {
	flight int
	hotel  int
}

// buildItineraries pairs candidates into the Value, Balanced and Comfort
// tiers. Value exists whenever every list is non-empty.
func buildItineraries(c candidates, alloc BudgetAllocation, budget BudgetRange) []Itinerary {
	if !c.complete() {
		return nil
	}

	avg := alloc.AveragePerPerson
	options := make([]Itinerary, 0, 3)

	options = append(options, c.itinerary(TierValue, selection{0, 0}, alloc))

	if c.minHotels() >= balancedMinHotels {
		options = append(options, c.itinerary(TierBalanced, selection{1, 1}, alloc))
	}

	if avg > comfortMinAverage && len(c.outbound) >= comfortMinFlights && len(c.ret) >= comfortMinFlights {
		comfort := c.itinerary(TierComfort, selection{-1, -1}, alloc)
		if comfort.TotalPerPerson <= float64(budget.Max)*comfortOverrunTolerance {
			options = append(options, comfort)
		}
	}

	return options
}

func (c candidates) itinerary(tier Tier, sel selection, alloc BudgetAllocation) Itinerary {
	out := pickFlight(c.outbound, sel.flight)
	ret := pickFlight(c.ret, sel.flight)

	var makkah, madinah *services.HotelCandidate
	hotelTotal := 0.0
	if c.wantMakkah {
		makkah = pickHotel(c.makkah, sel.hotel)
		hotelTotal += makkah.PriceTotal
	}
	if c.wantMadinah {
		madinah = pickHotel(c.madinah, sel.hotel)
		hotelTotal += madinah.PriceTotal
	}

	persons := float64(alloc.Persons)
	totalPP := out.PricePerPerson + ret.PricePerPerson + hotelTotal/persons
	fit := totalPP / alloc.AveragePerPerson * 100
	profile := tierProfiles[tier]

	return Itinerary{
		Label:            tier,
		FlightOutbound:   out,
		FlightReturn:     ret,
		HotelMakkah:      makkah,
		HotelMadinah:     madinah,
		TotalPerPerson:   round2(totalPP),
		TotalGroup:       round2(totalPP * persons),
		BudgetFitPercent: round1(fit),
		SavingsAmount:    round2(math.Max(0, alloc.AveragePerPerson-totalPP) * persons),
		Score:            Score(profile.distanceMeters, fit, profile.rating),
		Recommendation: Recommendation{
			WhyRecommended:  profile.why,
			RoomExplanation: roomExplanation(alloc),
		},
	}
}

// pickFlight returns the candidate at i, clamped to the list; i < 0 is last.
func pickFlight(list []services.FlightCandidate, i int) services.FlightCandidate {
	return list[clampIndex(len(list), i)]
}

func pickHotel(list []services.HotelCandidate, i int) *services.HotelCandidate {
	h := list[clampIndex(len(list), i)]
	return &h
}

func clampIndex(n, i int) int {
	if i < 0 || i >= n {
		return n - 1
	}
	return i
}

func roomExplanation(a BudgetAllocation) string {
	rooms := "room"
	if a.RoomsNeeded != 1 {
		rooms = "rooms"
	}
	return fmt.Sprintf("%d %s with %d beds each for %d travellers", a.RoomsNeeded, rooms, a.BedsPerRoom, a.Persons)
}
