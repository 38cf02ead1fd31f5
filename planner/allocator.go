package planner

import (
	"math"

	"umrahcheck/apperrors"
)

// ─── Budget allocation ────────────────────────────────────────────────────────

// TotalNights is the fixed trip length the hotel budget is spread over,
// both cities combined.
const TotalNights = 9

type allocationTier struct {
	from        float64 // inclusive lower bound of the average per-person budget
	flight      int
	hotel       int
	contingency int
}

// Ordered by bound; each tier runs up to the next one's lower bound.
var allocationTiers = []allocationTier{
	{0, 55, 35, 10},
	{1000, 52, 38, 10},
	{1200, 50, 40, 10},
	{1500, 48, 42, 10},
	{2000, 45, 45, 10},
}

func tierFor(avgPerPerson float64) allocationTier {
	t := allocationTiers[0]
	for _, next := range allocationTiers[1:] {
		if avgPerPerson < next.from {
			break
		}
		t = next
	}
	return t
}

// Occupancy returns beds per room and the number of rooms for a party.
// Parties of four or more share 4-bed rooms, smaller ones a 3-bed room.
func Occupancy(persons int) (bedsPerRoom, rooms int) {
	bedsPerRoom = 3
	if persons >= 4 {
		bedsPerRoom = 4
	}
	rooms = (persons + bedsPerRoom - 1) / bedsPerRoom
	return bedsPerRoom, rooms
}

// Allocate splits the group budget into flight, hotel and contingency shares.
func Allocate(avgPerPerson float64, persons int) (BudgetAllocation, error) {
	if persons <= 0 {
		return BudgetAllocation{}, apperrors.NewInvalidInputf("persons must be positive, got %d", persons)
	}
	if avgPerPerson <= 0 || math.IsNaN(avgPerPerson) || math.IsInf(avgPerPerson, 0) {
		return BudgetAllocation{}, apperrors.NewInvalidInputf("budget must be positive, got %v", avgPerPerson)
	}

	t := tierFor(avgPerPerson)
	total := avgPerPerson * float64(persons)
	flight := total * float64(t.flight) / 100
	hotel := total * float64(t.hotel) / 100
	beds, rooms := Occupancy(persons)

	return BudgetAllocation{
		AveragePerPerson:           avgPerPerson,
		Persons:                    persons,
		TotalBudget:                total,
		FlightBudgetTotal:          flight,
		FlightBudgetPerPerson:      flight / float64(persons),
		HotelBudgetTotal:           hotel,
		ContingencyTotal:           total * float64(t.contingency) / 100,
		RoomsNeeded:                rooms,
		BedsPerRoom:                beds,
		HotelBudgetPerRoomPerNight: hotel / float64(rooms) / TotalNights,
		FlightPercent:              t.flight,
		HotelPercent:               t.hotel,
		ContingencyPercent:         t.contingency,
	}, nil
}
