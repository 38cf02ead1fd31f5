package services

import (
	"context"
	"time"
)

// ─── Types ────────────────────────────────────────────────────────────────────

type FlightCandidate struct {
	Airline         string   `json:"airline"`
	FlightNumbers   []string `json:"flight_numbers"`
	Departure       string   `json:"departure"`
	Arrival         string   `json:"arrival"`
	Stops           int      `json:"stops"`
	DurationMinutes int      `json:"duration_minutes"`
	PricePerPerson  float64  `json:"price_per_person"`
	Currency        string   `json:"currency"`
	Deeplink        string   `json:"deeplink"`
	Provider        string   `json:"provider"`
}

type HotelCandidate struct {
	Name                string  `json:"name"`
	Stars               float64 `json:"stars"`
	DistanceMeters      int     `json:"distance_meters"`
	DistanceDescription string  `json:"distance_description"`
	Board               string  `json:"board"`
	Nights              int     `json:"nights"`
	RoomsNeeded         int     `json:"rooms_needed"`
	BedsPerRoom         int     `json:"beds_per_room"`
	PricePerRoomNight   float64 `json:"price_per_room_per_night"`
	PriceTotal          float64 `json:"price_total"`
	Currency            string  `json:"currency"`
	Deeplink            string  `json:"deeplink"`
	Provider            string  `json:"provider"`
}

// FlightQuery describes one leg. ReturnDate is informational; each leg is
// searched as a one-way trip.
type FlightQuery struct {
	Origin          string
	Destination     string
	DepartDate      time.Time
	ReturnDate      time.Time
	Passengers      int
	BudgetPerPerson float64
}

type HotelQuery struct {
	City                  string
	CheckIn               time.Time
	CheckOut              time.Time
	Rooms                 int
	BedsPerRoom           int
	BudgetPerRoomPerNight float64
}

// Nights is the length of the stay in whole days.
func (q HotelQuery) Nights() int {
	return int(q.CheckOut.Sub(q.CheckIn).Hours() / 24)
}

// Kind tells where a provider's data comes from. Scraped data is the most
// volatile and shortens the validity of a result.
type Kind string

const (
	KindStatic Kind = "static"
	KindAPI    Kind = "api"
	KindScrape Kind = "scrape"
)

type ProviderInfo struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// FlightProvider returns flight candidates for a single leg. Results are not
// required to be sorted and may be empty.
type FlightProvider interface {
	SearchFlights(ctx context.Context, q FlightQuery) ([]FlightCandidate, error)
	Info() ProviderInfo
}

// HotelProvider returns hotel candidates for a stay in one city.
type HotelProvider interface {
	SearchHotels(ctx context.Context, q HotelQuery) ([]HotelCandidate, error)
	Info() ProviderInfo
}

// ─── Holy cities ──────────────────────────────────────────────────────────────

const (
	CityMakkah  = "Makkah"
	CityMadinah = "Madinah"
)

type holySite struct {
	Name      string
	Latitude  float64
	Longitude float64
}

var holySites = map[string]holySite{
	CityMakkah:  {Name: "Haram", Latitude: 21.4225, Longitude: 39.8262},
	CityMadinah: {Name: "Prophet's Mosque", Latitude: 24.4672, Longitude: 39.6112},
}

// CanonicalCity maps spelling variants to CityMakkah or CityMadinah.
func CanonicalCity(city string) string {
	switch normalizeCity(city) {
	case "makkah", "mekka", "mecca", "makka", "mekkah":
		return CityMakkah
	case "madinah", "medina", "medinah", "madina":
		return CityMadinah
	}
	return city
}

// DistanceDescription renders meters as the walking hint shown to customers.
func DistanceDescription(city string, meters int) string {
	site := "city center"
	if s, ok := holySites[CanonicalCity(city)]; ok {
		site = s.Name
	}
	desc := formatMeters(meters) + " to " + site
	switch {
	case meters <= 200:
		desc += " (2 min walk)"
	case meters <= 500:
		desc += " (5 min walk)"
	case meters <= 1000:
		desc += " (10 min walk)"
	default:
		desc += " (shuttle recommended)"
	}
	return desc
}
