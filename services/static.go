package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// ─── Static flights ───────────────────────────────────────────────────────────

const staticProviderName = "UmrahCheck Static Tables"

type routeInfo struct {
	basePrice float64
	duration  int // minutes
}

// Base one-way fares in EUR, keyed by origin-destination.
var staticRoutes = map[string]routeInfo{
	"FRA-JED": {420, 360}, "JED-FRA": {420, 375},
	"DUS-JED": {390, 370}, "JED-DUS": {390, 385},
	"MUC-JED": {450, 345}, "JED-MUC": {450, 360},
	"BER-JED": {410, 375}, "JED-BER": {410, 390},
	"HAM-JED": {430, 390}, "JED-HAM": {430, 405},
	"CDG-JED": {380, 355}, "JED-CDG": {380, 370},
	"LHR-JED": {350, 380}, "JED-LHR": {350, 395},
	"IST-JED": {220, 205}, "JED-IST": {220, 215},
	"FRA-MED": {460, 370}, "MED-FRA": {460, 385},
	"DUS-MED": {430, 380}, "MED-DUS": {430, 395},
}

type airlineOption struct {
	name     string
	code     string
	priceMod float64
	stops    int
}

var staticAirlines = []airlineOption{
	{"Egyptair", "MS", 0.80, 1},
	{"Turkish Airlines", "TK", 0.90, 1},
	{"Saudia", "SV", 1.00, 0},
	{"Lufthansa", "LH", 1.10, 0},
	{"Qatar Airways", "QR", 1.20, 1},
	{"Emirates", "EK", 1.30, 1},
}

// StaticFlights serves deterministic fares from built-in route tables.
type StaticFlights struct {
	links *DeeplinkBuilder
}

func NewStaticFlights(links *DeeplinkBuilder) *StaticFlights {
	return &StaticFlights{links: links}
}

func (s *StaticFlights) Info() ProviderInfo {
	return ProviderInfo{Name: staticProviderName, Kind: KindStatic}
}

func (s *StaticFlights) SearchFlights(ctx context.Context, q FlightQuery) ([]FlightCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, ok := staticRoutes[q.Origin+"-"+q.Destination]
	if !ok {
		info = routeInfo{420, 360}
	}
	season := SeasonFactor(q.DepartDate)

	flights := make([]FlightCandidate, 0, len(staticAirlines))
	for i, opt := range staticAirlines {
		price := math.Round(info.basePrice*opt.priceMod*season*100) / 100

		dur := info.duration
		if opt.stops > 0 {
			dur += 150
		}

		depHour := 6 + i*3
		depTime := time.Date(q.DepartDate.Year(), q.DepartDate.Month(), q.DepartDate.Day(), depHour, 15, 0, 0, time.UTC)
		arrTime := depTime.Add(time.Duration(dur) * time.Minute)
		flightNo := fmt.Sprintf("%s%d", opt.code, 100+i*47)

		flights = append(flights, FlightCandidate{
			Airline:         opt.name,
			FlightNumbers:   []string{flightNo},
			Departure:       q.Origin + " " + depTime.Format("2006-01-02 15:04"),
			Arrival:         q.Destination + " " + arrTime.Format("2006-01-02 15:04"),
			Stops:           opt.stops,
			DurationMinutes: dur,
			PricePerPerson:  price,
			Currency:        "EUR",
			Deeplink: s.links.Flight("umrahcheck", map[string]string{
				"airline": opt.name,
				"flight":  flightNo,
				"route":   q.Origin + "-" + q.Destination,
				"date":    q.DepartDate.Format("2006-01-02"),
			}),
			Provider: staticProviderName,
		})
	}

	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].PricePerPerson < flights[j].PricePerPerson
	})
	return flights, nil
}

// SeasonFactor is 1.2 in the Nov-Jan peak, 0.9 in the Jun-Aug low season.
func SeasonFactor(d time.Time) float64 {
	switch d.Month() {
	case time.November, time.December, time.January:
		return 1.2
	case time.June, time.July, time.August:
		return 0.9
	}
	return 1.0
}

// ─── Static hotels ────────────────────────────────────────────────────────────

type staticHotel struct {
	name      string
	stars     float64
	distance  int
	basePrice float64
}

var staticHotels = map[string][]staticHotel{
	CityMakkah: {
		{"Fairmont Makkah Clock Royal Tower", 5, 100, 220},
		{"Conrad Makkah", 5, 150, 200},
		{"Pullman ZamZam Makkah", 5, 200, 180},
		{"Makkah Towers", 4, 400, 130},
		{"Al Masa Hotel", 3, 800, 80},
		{"Elaf Ajyad", 3, 650, 65},
	},
	CityMadinah: {
		{"Anwar Al Madinah Movenpick", 5, 100, 180},
		{"Shaza Al Madina", 5, 200, 160},
		{"Coral Al Ahsa Hotel", 4, 300, 120},
		{"Al Aqeeq Hotel", 3, 500, 90},
		{"Elaf Al Mashaer", 3, 600, 70},
		{"Dallah Taibah", 3, 750, 55},
	},
}

// Hotels above budget by more than this factor are dropped.
const hotelBudgetTolerance = 1.2

const maxStaticHotels = 3

// StaticHotels serves the curated Makkah/Madinah hotel tables.
type StaticHotels struct {
	links *DeeplinkBuilder
}

func NewStaticHotels(links *DeeplinkBuilder) *StaticHotels {
	return &StaticHotels{links: links}
}

func (s *StaticHotels) Info() ProviderInfo {
	return ProviderInfo{Name: staticProviderName, Kind: KindStatic}
}

func (s *StaticHotels) SearchHotels(ctx context.Context, q HotelQuery) ([]HotelCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	city := CanonicalCity(q.City)
	table, ok := staticHotels[city]
	if !ok {
		return nil, nil
	}

	nights := q.Nights()
	season := SeasonFactor(q.CheckIn)

	all := make([]HotelCandidate, 0, len(table))
	for _, h := range table {
		price := math.Round(h.basePrice*season*100) / 100
		all = append(all, HotelCandidate{
			Name:                h.name,
			Stars:               h.stars,
			DistanceMeters:      h.distance,
			DistanceDescription: DistanceDescription(city, h.distance),
			Board:               "Room Only",
			Nights:              nights,
			RoomsNeeded:         q.Rooms,
			BedsPerRoom:         q.BedsPerRoom,
			PricePerRoomNight:   price,
			PriceTotal:          math.Round(price*float64(nights)*float64(q.Rooms)*100) / 100,
			Currency:            "EUR",
			Deeplink: s.links.Hotel("umrahcheck", map[string]string{
				"hotel":    h.name,
				"checkin":  q.CheckIn.Format("2006-01-02"),
				"checkout": q.CheckOut.Format("2006-01-02"),
				"rooms":    fmt.Sprint(q.Rooms),
			}),
			Provider: staticProviderName,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PricePerRoomNight < all[j].PricePerRoomNight
	})

	// Keep hotels the budget can roughly carry; a tight budget still gets the
	// cheapest option rather than nothing.
	limit := q.BudgetPerRoomPerNight * hotelBudgetTolerance
	hotels := make([]HotelCandidate, 0, maxStaticHotels)
	for _, h := range all {
		if h.PricePerRoomNight <= limit {
			hotels = append(hotels, h)
		}
	}
	if len(hotels) == 0 && len(all) > 0 {
		hotels = append(hotels, all[0])
	}

	// Prefer the upper end of what fits so the tiers have room to differ.
	if len(hotels) > maxStaticHotels {
		hotels = hotels[len(hotels)-maxStaticHotels:]
	}
	return hotels, nil
}
