package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"umrahcheck/apperrors"
	"umrahcheck/services"
)

const (
	MaxPersons = 20

	DefaultNightsMakkah  = 5
	DefaultNightsMadinah = 4
)

var airportCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Trip is a validated request with defaults applied and dates resolved.
type Trip struct {
	Request       SearchRequest
	DepartureDate time.Time
	NightsMakkah  int
	NightsMadinah int
}

// ReturnDate is the day after the last hotel night.
func (t Trip) ReturnDate() time.Time {
	return t.DepartureDate.AddDate(0, 0, t.NightsMakkah+t.NightsMadinah)
}

// MakkahStay and MadinahStay are consecutive; Makkah comes first.
func (t Trip) MakkahStay() (checkIn, checkOut time.Time) {
	return t.DepartureDate, t.DepartureDate.AddDate(0, 0, t.NightsMakkah)
}

func (t Trip) MadinahStay() (checkIn, checkOut time.Time) {
	_, in := t.MakkahStay()
	return in, in.AddDate(0, 0, t.NightsMadinah)
}

// NewTrip validates a request and fills in defaults. Errors are InvalidInput.
func NewTrip(req SearchRequest) (Trip, error) {
	req.DepartureAirport = strings.ToUpper(strings.TrimSpace(req.DepartureAirport))
	req.ArrivalAirport = strings.ToUpper(strings.TrimSpace(req.ArrivalAirport))
	req.Email = strings.TrimSpace(req.Email)
	if req.ArrivalAirport == "" {
		req.ArrivalAirport = services.AirportJeddah
	}

	switch {
	case req.Persons <= 0:
		return Trip{}, apperrors.NewInvalidInputf("persons must be positive, got %d", req.Persons)
	case req.Persons > MaxPersons:
		return Trip{}, apperrors.NewInvalidInputf("persons must be at most %d, got %d", MaxPersons, req.Persons)
	case req.Budget.Min <= 0 || req.Budget.Max <= 0:
		return Trip{}, apperrors.NewInvalidInput("budget min and max must be positive")
	case req.Budget.Min > req.Budget.Max:
		return Trip{}, apperrors.NewInvalidInputf("budget min %d exceeds max %d", req.Budget.Min, req.Budget.Max)
	case !airportCode.MatchString(req.DepartureAirport):
		return Trip{}, apperrors.NewInvalidInputf("departure_airport must be a 3-letter IATA code, got %q", req.DepartureAirport)
	case !airportCode.MatchString(req.ArrivalAirport):
		return Trip{}, apperrors.NewInvalidInputf("arrival_airport must be a 3-letter IATA code, got %q", req.ArrivalAirport)
	}

	dep, err := time.Parse("2006-01-02", strings.TrimSpace(req.DepartureDate))
	if err != nil {
		return Trip{}, apperrors.NewInvalidInputf("departure_date must be YYYY-MM-DD, got %q", req.DepartureDate)
	}
	req.DepartureDate = dep.Format("2006-01-02")

	nightsMakkah, nightsMadinah := DefaultNightsMakkah, DefaultNightsMadinah
	if req.NightsMakkah != nil {
		nightsMakkah = *req.NightsMakkah
	}
	if req.NightsMadinah != nil {
		nightsMadinah = *req.NightsMadinah
	}
	if nightsMakkah < 0 || nightsMadinah < 0 {
		return Trip{}, apperrors.NewInvalidInput("nights must not be negative")
	}
	if nightsMakkah+nightsMadinah == 0 {
		return Trip{}, apperrors.NewInvalidInput("at least one night in Makkah or Madinah is required")
	}
	req.NightsMakkah = &nightsMakkah
	req.NightsMadinah = &nightsMadinah

	return Trip{
		Request:       req,
		DepartureDate: dep,
		NightsMakkah:  nightsMakkah,
		NightsMadinah: nightsMadinah,
	}, nil
}

// Fingerprint is the cache key for a trip. Customer identity is not part of
// it; identical trips share results.
func (t Trip) Fingerprint() string {
	r := t.Request
	key := fmt.Sprintf("%s|%s|%s|%d|%d-%d|%d|%d",
		r.DepartureAirport, r.ArrivalAirport, r.DepartureDate,
		r.Persons, r.Budget.Min, r.Budget.Max,
		t.NightsMakkah, t.NightsMadinah)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NewLeadToken returns umr_<yyyymmdd>_<32 hex chars>.
func NewLeadToken(now time.Time) string {
	id := uuid.New()
	return "umr_" + now.UTC().Format("20060102") + "_" + hex.EncodeToString(id[:])
}

var budgetString = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

const budgetFormatHint = `budget must look like "min-max", e.g. "1150-1300"`

// ParseBudgetRange reads the legacy "min-max" form.
func ParseBudgetRange(s string) (BudgetRange, error) {
	m := budgetString.FindStringSubmatch(s)
	if m == nil {
		return BudgetRange{}, apperrors.NewInvalidInput(budgetFormatHint)
	}
	lo, err1 := strconv.Atoi(m[1])
	hi, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return BudgetRange{}, apperrors.NewInvalidInput(budgetFormatHint)
	}
	if lo <= 0 || hi <= 0 {
		return BudgetRange{}, apperrors.NewInvalidInput("budget min and max must be positive")
	}
	if lo > hi {
		return BudgetRange{}, apperrors.NewInvalidInputf("budget min %d exceeds max %d", lo, hi)
	}
	return BudgetRange{Min: lo, Max: hi}, nil
}
