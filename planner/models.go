package planner

import (
	"time"

	"umrahcheck/services"
)

// ─── Request ──────────────────────────────────────────────────────────────────

// BudgetRange is the per-person budget the customer stated, in whole euros.
type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Average is the midpoint of the range, rounded down.
func (b BudgetRange) Average() int {
	return (b.Min + b.Max) / 2
}

type SearchRequest struct {
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name"`
	Email            string      `json:"email"`
	WhatsApp         string      `json:"whatsapp,omitempty"`
	Persons          int         `json:"persons"`
	Budget           BudgetRange `json:"budget"`
	DepartureAirport string      `json:"departure_airport"`
	ArrivalAirport   string      `json:"arrival_airport"`
	DepartureDate    string      `json:"departure_date"`
	NightsMakkah     *int        `json:"nights_makkah,omitempty"`
	NightsMadinah    *int        `json:"nights_madinah,omitempty"`
	Nationality      string      `json:"nationality,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Source           string      `json:"source,omitempty"`
}

// ─── Allocation ───────────────────────────────────────────────────────────────

type BudgetAllocation struct {
	AveragePerPerson           float64 `json:"average_per_person"`
	Persons                    int     `json:"persons"`
	TotalBudget                float64 `json:"total_budget"`
	FlightBudgetTotal          float64 `json:"flight_budget_total"`
	FlightBudgetPerPerson      float64 `json:"flight_budget_per_person"`
	HotelBudgetTotal           float64 `json:"hotel_budget_total"`
	ContingencyTotal           float64 `json:"contingency_total"`
	RoomsNeeded                int     `json:"rooms_needed"`
	BedsPerRoom                int     `json:"beds_per_room"`
	HotelBudgetPerRoomPerNight float64 `json:"hotel_budget_per_room_per_night"`
	FlightPercent              int     `json:"flight_percent"`
	HotelPercent               int     `json:"hotel_percent"`
	ContingencyPercent         int     `json:"contingency_percent"`
}

// ─── Result ───────────────────────────────────────────────────────────────────

type Tier string

const (
	TierValue    Tier = "Value"
	TierBalanced Tier = "Balanced"
	TierComfort  Tier = "Comfort"
)

const StatusSuccess = "success"

// Recommendation is the customer-facing explanation shown next to an option.
type Recommendation struct {
	WhyRecommended  string `json:"why_recommended"`
	RoomExplanation string `json:"room_explanation"`
}

// Itinerary is one bundled package. A hotel is nil when the customer spends
// no nights in that city.
type Itinerary struct {
	Label            Tier                     `json:"label"`
	FlightOutbound   services.FlightCandidate `json:"flight_outbound"`
	FlightReturn     services.FlightCandidate `json:"flight_return"`
	HotelMakkah      *services.HotelCandidate `json:"hotel_makkah"`
	HotelMadinah     *services.HotelCandidate `json:"hotel_madinah"`
	TotalPerPerson   float64                  `json:"total_per_person"`
	TotalGroup       float64                  `json:"total_group"`
	BudgetFitPercent float64                  `json:"budget_fit_percent"`
	SavingsAmount    float64                  `json:"savings_amount"`
	Score            float64                  `json:"score"`
	Recommendation   Recommendation           `json:"recommendation"`
}

type Assumptions struct {
	BudgetAllocation BudgetAllocation `json:"budget_allocation"`
	RoomCalculation  string           `json:"room_calculation"`
	DateFlexibility  string           `json:"date_flexibility"`
	SeasonFactor     float64          `json:"season_factor"`
	ProviderMode     string           `json:"provider_mode"`
	DepartureDate    string           `json:"departure_date"`
	ReturnDate       string           `json:"return_date"`
	NightsMakkah     int              `json:"nights_makkah"`
	NightsMadinah    int              `json:"nights_madinah"`
	Currency         string           `json:"currency"`
}

type CandidateCounts struct {
	OutboundFlights int `json:"outbound_flights"`
	ReturnFlights   int `json:"return_flights"`
	MakkahHotels    int `json:"makkah_hotels"`
	MadinahHotels   int `json:"madinah_hotels"`
}

type Meta struct {
	CacheHit      bool            `json:"cache_hit"`
	ProvidersUsed []string        `json:"providers_used"`
	Candidates    CandidateCounts `json:"candidates"`
}

type SearchResult struct {
	LeadToken        string      `json:"lead_token"`
	Status           string      `json:"status"`
	Options          []Itinerary `json:"options"`
	Assumptions      Assumptions `json:"assumptions"`
	ValidUntil       time.Time   `json:"valid_until"`
	ProcessingTimeMS int64       `json:"processing_time_ms"`
	Meta             Meta        `json:"meta"`
}

// clone returns a copy that shares no slices with r.
func (r *SearchResult) clone() *SearchResult {
	out := *r
	out.Options = append([]Itinerary(nil), r.Options...)
	out.Meta.ProvidersUsed = append([]string(nil), r.Meta.ProvidersUsed...)
	return &out
}

// ─── Audit ────────────────────────────────────────────────────────────────────

// AuditRecord is what gets written to the record-keeping sink after every
// search, successful or not.
type AuditRecord struct {
	LeadToken        string
	Request          SearchRequest
	Status           string
	ErrorCode        string
	OptionsFound     int
	ProcessingTimeMS int64
	ProvidersUsed    []string
	Result           *SearchResult
	CreatedAt        time.Time
}
