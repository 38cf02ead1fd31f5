package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umrahcheck/apperrors"
)

func TestAllocate_ScenarioA(t *testing.T) {
	a, err := Allocate(1200, 4)
	require.NoError(t, err)

	assert.Equal(t, 50, a.FlightPercent)
	assert.Equal(t, 40, a.HotelPercent)
	assert.Equal(t, 10, a.ContingencyPercent)
	assert.InDelta(t, 4800, a.TotalBudget, 1e-9)
	assert.InDelta(t, 2400, a.FlightBudgetTotal, 1e-9)
	assert.InDelta(t, 600, a.FlightBudgetPerPerson, 1e-9)
	assert.InDelta(t, 1920, a.HotelBudgetTotal, 1e-9)
	assert.Equal(t, 1, a.RoomsNeeded)
	assert.Equal(t, 4, a.BedsPerRoom)
	assert.InDelta(t, 213.33, a.HotelBudgetPerRoomPerNight, 0.005)
}

func TestAllocate_ScenarioB(t *testing.T) {
	a, err := Allocate(900, 2)
	require.NoError(t, err)

	assert.Equal(t, 55, a.FlightPercent)
	assert.Equal(t, 35, a.HotelPercent)
	assert.Equal(t, 10, a.ContingencyPercent)
	assert.InDelta(t, 1800, a.TotalBudget, 1e-9)
	assert.InDelta(t, 990, a.FlightBudgetTotal, 1e-9)
	assert.InDelta(t, 495, a.FlightBudgetPerPerson, 1e-9)
	assert.InDelta(t, 630, a.HotelBudgetTotal, 1e-9)
	assert.InDelta(t, 180, a.ContingencyTotal, 1e-9)
	assert.Equal(t, 3, a.BedsPerRoom)
	assert.Equal(t, 1, a.RoomsNeeded)
	assert.InDelta(t, 70, a.HotelBudgetPerRoomPerNight, 1e-9)
}

func TestAllocate_Tiers(t *testing.T) {
	tests := []struct {
		avg    float64
		flight int
		hotel  int
	}{
		{1, 55, 35},
		{999.99, 55, 35},
		{1000, 52, 38},
		{1199, 52, 38},
		{1200, 50, 40},
		{1499, 50, 40},
		{1500, 48, 42},
		{1999, 48, 42},
		{2000, 45, 45},
		{50000, 45, 45},
	}
	for _, tt := range tests {
		a, err := Allocate(tt.avg, 1)
		require.NoError(t, err)
		assert.Equal(t, tt.flight, a.FlightPercent, "avg %v", tt.avg)
		assert.Equal(t, tt.hotel, a.HotelPercent, "avg %v", tt.avg)
		assert.Equal(t, 100, a.FlightPercent+a.HotelPercent+a.ContingencyPercent)
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	for _, persons := range []int{1, 3, 4, 7, 20} {
		for _, avg := range []float64{450, 999.99, 1234, 2500} {
			first, err := Allocate(avg, persons)
			require.NoError(t, err)
			second, err := Allocate(avg, persons)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		}
	}
}

func TestOccupancy(t *testing.T) {
	tests := []struct {
		persons, beds, rooms int
	}{
		{1, 3, 1},
		{2, 3, 1},
		{3, 3, 1},
		{4, 4, 1},
		{5, 4, 2},
		{8, 4, 2},
		{9, 4, 3},
		{12, 4, 3},
		{20, 4, 5},
	}
	for _, tt := range tests {
		beds, rooms := Occupancy(tt.persons)
		assert.Equal(t, tt.beds, beds, "persons %d", tt.persons)
		assert.Equal(t, tt.rooms, rooms, "persons %d", tt.persons)
	}
}

func TestAllocate_InvalidInput(t *testing.T) {
	_, err := Allocate(1000, 0)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	_, err = Allocate(0, 2)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	_, err = Allocate(-5, 2)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}
