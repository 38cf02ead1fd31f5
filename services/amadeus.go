package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ─── Amadeus Client ───────────────────────────────────────────────────────────

const amadeusProviderName = "Amadeus"

// Airports serving the holy cities, used for hotel geocode lookups and
// the default arrival airport.
const (
	AirportJeddah  = "JED"
	AirportMadinah = "MED"
)

// AmadeusClient implements FlightProvider and HotelProvider on top of the
// Amadeus self-service APIs.
type AmadeusClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	accessToken  string
	tokenExpiry  time.Time
	mu           sync.Mutex
	httpClient   *http.Client
	links        *DeeplinkBuilder
	logger       *zap.Logger

	// cap on hotel IDs per offers request, keeps within the rate limits
	maxHotelIDs int
}

func NewAmadeusClient(clientID, clientSecret, baseURL string, links *DeeplinkBuilder, logger *zap.Logger) *AmadeusClient {
	return &AmadeusClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		links:       links,
		logger:      logger,
		maxHotelIDs: 20,
	}
}

func (c *AmadeusClient) Info() ProviderInfo {
	return ProviderInfo{Name: amadeusProviderName, Kind: KindAPI}
}

// Warmup fetches the first access token so that credential problems show up
// at startup instead of on the first search.
func (c *AmadeusClient) Warmup(ctx context.Context) error {
	if err := c.refreshToken(ctx); err != nil {
		c.logger.Warn("⚠️  Amadeus token pre-warm failed", zap.Error(err))
		return err
	}
	c.logger.Info("✅ Amadeus API authenticated", zap.String("base_url", c.baseURL))
	return nil
}

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

func (c *AmadeusClient) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	c.mu.Unlock()

	return nil
}

func (c *AmadeusClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	expired := time.Now().After(c.tokenExpiry)
	token := c.accessToken
	c.mu.Unlock()

	if expired || token == "" {
		if err := c.refreshToken(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		token = c.accessToken
		c.mu.Unlock()
	}
	return token, nil
}

func (c *AmadeusClient) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func (c *AmadeusClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, status, err := c.doGet(ctx, path, params)
	if status == http.StatusUnauthorized {
		// token revoked before its expiry; retry once with a fresh one
		c.invalidateToken()
		body, _, err = c.doGet(ctx, path, params)
	}
	return body, err
}

func (c *AmadeusClient) doGet(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("auth failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, resp.StatusCode, nil
}

// ─── Flight Search ────────────────────────────────────────────────────────────

// SearchFlights queries one-way flight offers for a single leg, capped at the
// per-person budget.
func (c *AmadeusClient) SearchFlights(ctx context.Context, q FlightQuery) ([]FlightCandidate, error) {
	passengers := q.Passengers
	if passengers < 1 {
		passengers = 1
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartDate.Format("2006-01-02"))
	params.Set("adults", strconv.Itoa(passengers))
	params.Set("currencyCode", "EUR")
	params.Set("max", "10")
	if q.BudgetPerPerson > 0 {
		params.Set("maxPrice", strconv.Itoa(int(math.Ceil(q.BudgetPerPerson))))
	}

	body, err := c.get(ctx, "/v2/shopping/flight-offers", params)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}

	offers, err := parseFlightOffers(body)
	if err != nil {
		return nil, err
	}

	flights := make([]FlightCandidate, 0, len(offers))
	for _, o := range offers {
		o.PricePerPerson = math.Round(o.PricePerPerson/float64(passengers)*100) / 100
		o.Provider = amadeusProviderName
		o.Deeplink = c.links.Flight("amadeus", map[string]string{
			"flight": strings.Join(o.FlightNumbers, ","),
			"route":  q.Origin + "-" + q.Destination,
			"date":   q.DepartDate.Format("2006-01-02"),
		})
		flights = append(flights, o)
	}

	c.logger.Debug("amadeus flight offers",
		zap.String("route", q.Origin+"-"+q.Destination),
		zap.Int("offers", len(flights)))
	return flights, nil
}

// Amadeus flight offers response structures
type amadeusFlightOffersResponse struct {
	Data []amadeusFlightOffer `json:"data"`
}

type amadeusSegment struct {
	Departure struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IataCode string `json:"iataCode"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
}

type amadeusFlightOffer struct {
	Price struct {
		GrandTotal string `json:"grandTotal"`
		Currency   string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string           `json:"duration"`
		Segments []amadeusSegment `json:"segments"`
	} `json:"itineraries"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
}

// parseFlightOffers maps offers to candidates. PricePerPerson still holds the
// grand total for all travellers.
func parseFlightOffers(data []byte) ([]FlightCandidate, error) {
	var resp amadeusFlightOffersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}

	flights := make([]FlightCandidate, 0, len(resp.Data))

	for _, offer := range resp.Data {
		if len(offer.Itineraries) < 1 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}

		price := parsePrice(offer.Price.GrandTotal)
		if price <= 0 {
			continue
		}

		outbound := offer.Itineraries[0]
		segments := outbound.Segments

		airlineCode := segments[0].CarrierCode
		if airlineCode == "" && len(offer.ValidatingAirlineCodes) > 0 {
			airlineCode = offer.ValidatingAirlineCodes[0]
		}

		numbers := make([]string, 0, len(segments))
		for _, s := range segments {
			numbers = append(numbers, s.CarrierCode+s.Number)
		}

		first, last := segments[0], segments[len(segments)-1]
		currency := offer.Price.Currency
		if currency == "" {
			currency = "EUR"
		}

		flights = append(flights, FlightCandidate{
			Airline:         airlineName(airlineCode),
			FlightNumbers:   numbers,
			Departure:       first.Departure.IataCode + " " + first.Departure.At,
			Arrival:         last.Arrival.IataCode + " " + last.Arrival.At,
			Stops:           len(segments) - 1,
			DurationMinutes: parseDurationMinutes(outbound.Duration),
			PricePerPerson:  price,
			Currency:        currency,
		})
	}

	return flights, nil
}

// ─── Hotel Search ─────────────────────────────────────────────────────────────

// SearchHotels lists hotels around the holy site of the city and prices the
// stay via Hotel Offers.
func (c *AmadeusClient) SearchHotels(ctx context.Context, q HotelQuery) ([]HotelCandidate, error) {
	city := CanonicalCity(q.City)
	site, ok := holySites[city]
	if !ok {
		return nil, fmt.Errorf("unsupported hotel city %q", q.City)
	}

	// Step 1: hotels within walking distance of the mosque
	listed, err := c.getHotelsByGeocode(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("hotel list failed: %w", err)
	}
	if len(listed) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(listed))
	for id := range listed {
		ids = append(ids, id)
	}
	// nearest first, so the cap keeps the hotels closest to the mosque
	sort.Slice(ids, func(i, j int) bool {
		if listed[ids[i]] != listed[ids[j]] {
			return listed[ids[i]] < listed[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > c.maxHotelIDs {
		ids = ids[:c.maxHotelIDs]
	}

	// Step 2: available offers for those hotels
	priced, err := c.getHotelOffers(ctx, ids, q)
	if err != nil {
		return nil, err
	}

	hotels := make([]HotelCandidate, 0, len(priced))
	for _, p := range priced {
		h := p.HotelCandidate
		h.DistanceMeters = listed[p.hotelID]
		h.DistanceDescription = DistanceDescription(city, h.DistanceMeters)
		h.Deeplink = c.links.Hotel("amadeus", map[string]string{
			"hotel":    h.Name,
			"checkin":  q.CheckIn.Format("2006-01-02"),
			"checkout": q.CheckOut.Format("2006-01-02"),
			"rooms":    strconv.Itoa(q.Rooms),
		})
		h.Provider = amadeusProviderName
		hotels = append(hotels, h)
	}
	return hotels, nil
}

type amadeusHotelListResponse struct {
	Data []struct {
		HotelID  string `json:"hotelId"`
		Name     string `json:"name"`
		Distance struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
		} `json:"distance"`
	} `json:"data"`
}

// getHotelsByGeocode returns hotel IDs with their distance in meters.
func (c *AmadeusClient) getHotelsByGeocode(ctx context.Context, site holySite) (map[string]int, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(site.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(site.Longitude, 'f', 4, 64))
	params.Set("radius", "2")
	params.Set("radiusUnit", "KM")
	params.Set("hotelSource", "ALL")

	body, err := c.get(ctx, "/v1/reference-data/locations/hotels/by-geocode", params)
	if err != nil {
		return nil, err
	}

	var resp amadeusHotelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel list: %w", err)
	}

	hotels := make(map[string]int, len(resp.Data))
	for _, h := range resp.Data {
		meters := h.Distance.Value
		if strings.EqualFold(h.Distance.Unit, "KM") {
			meters *= 1000
		}
		hotels[h.HotelID] = int(math.Round(meters))
	}
	return hotels, nil
}

type amadeusHotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			HotelID string `json:"hotelId"`
			Name    string `json:"name"`
			Rating  string `json:"rating"`
		} `json:"hotel"`
		Available bool `json:"available"`
		Offers    []struct {
			BoardType string `json:"boardType"`
			Price     struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

type pricedHotel struct {
	hotelID string
	HotelCandidate
}

func (c *AmadeusClient) getHotelOffers(ctx context.Context, hotelIDs []string, q HotelQuery) ([]pricedHotel, error) {
	rooms := q.Rooms
	if rooms < 1 {
		rooms = 1
	}
	nights := q.Nights()
	if nights < 1 {
		nights = 1
	}

	params := url.Values{}
	params.Set("hotelIds", strings.Join(hotelIDs, ","))
	params.Set("checkInDate", q.CheckIn.Format("2006-01-02"))
	params.Set("checkOutDate", q.CheckOut.Format("2006-01-02"))
	params.Set("adults", strconv.Itoa(q.BedsPerRoom))
	params.Set("roomQuantity", strconv.Itoa(rooms))
	params.Set("currency", "EUR")
	params.Set("bestRateOnly", "true")

	body, err := c.get(ctx, "/v3/shopping/hotel-offers", params)
	if err != nil {
		return nil, fmt.Errorf("hotel offers failed: %w", err)
	}

	var resp amadeusHotelOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel offers: %w", err)
	}

	hotels := make([]pricedHotel, 0, len(resp.Data))
	for _, item := range resp.Data {
		if !item.Available || len(item.Offers) == 0 {
			continue
		}

		offer := item.Offers[0]
		total := parsePrice(offer.Price.Total)
		if total <= 0 {
			continue
		}

		board := offer.BoardType
		if board == "" {
			board = "ROOM_ONLY"
		}
		currency := offer.Price.Currency
		if currency == "" {
			currency = "EUR"
		}

		hotels = append(hotels, pricedHotel{hotelID: item.Hotel.HotelID, HotelCandidate: HotelCandidate{
			Name:              item.Hotel.Name,
			Stars:             parseRating(item.Hotel.Rating),
			Board:             board,
			Nights:            nights,
			RoomsNeeded:       rooms,
			BedsPerRoom:       q.BedsPerRoom,
			PricePerRoomNight: math.Round(total/float64(nights)/float64(rooms)*100) / 100,
			PriceTotal:        total,
			Currency:          currency,
		}})
	}
	return hotels, nil
}
