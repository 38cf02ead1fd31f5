package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ─── Hotel price scraper ──────────────────────────────────────────────────────

const scraperProviderName = "Booking Scraper"

// Booking pages change markup often; every field is read through an ordered
// list of selectors and the first match wins.
var (
	cardSelectors = []string{
		`[data-testid="property-card"]`,
		`.sr_property_block`,
		`.hotel-card`,
	}
	nameSelectors = []string{
		`[data-testid="title"]`,
		`.sr-hotel__name`,
		`h3`,
	}
	priceSelectors = []string{
		`[data-testid="price-and-discounted-price"]`,
		`[data-testid="price-summary"]`,
		`.bui-price-display__value`,
		`.prco-valign-middle-helper`,
		`[class*="price"]`,
	}
	distanceSelectors = []string{
		`[data-testid="distance"]`,
		`.distance`,
		`[class*="distance"]`,
	}
	starSelectors = []string{
		`[data-testid="rating-stars"] > span`,
		`[data-testid="rating-squares"] > span`,
		`.bui-rating__item`,
	}
	linkSelectors = []string{
		`a[data-testid="title-link"]`,
		`a.hotel_name_link`,
		`a[href]`,
	}
)

type ScraperOptions struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	MaxConcurrent int64
}

// Scraper reads hotel prices from a booking search results page. Requests to
// the site are limited to MaxConcurrent at a time.
type Scraper struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	sem        *semaphore.Weighted
	links      *DeeplinkBuilder
	logger     *zap.Logger
}

func NewScraper(opts ScraperOptions, links *DeeplinkBuilder, logger *zap.Logger) *Scraper {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &Scraper{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		sem:        semaphore.NewWeighted(opts.MaxConcurrent),
		links:      links,
		logger:     logger,
	}
}

func (s *Scraper) Info() ProviderInfo {
	return ProviderInfo{Name: scraperProviderName, Kind: KindScrape}
}

func (s *Scraper) SearchHotels(ctx context.Context, q HotelQuery) ([]HotelCandidate, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	city := CanonicalCity(q.City)
	rooms := q.Rooms
	if rooms < 1 {
		rooms = 1
	}
	nights := q.Nights()
	if nights < 1 {
		nights = 1
	}

	pageURL := s.searchURL(city, q, rooms)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape %s: unexpected status %d", city, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: parse html: %w", city, err)
	}

	hotels := s.parseResults(doc, city, q, rooms, nights)

	s.logger.Info("🎭 Scraped hotel prices",
		zap.String("city", city),
		zap.Int("hotels", len(hotels)),
		zap.Duration("took", time.Since(start)))
	return hotels, nil
}

func (s *Scraper) searchURL(city string, q HotelQuery, rooms int) string {
	params := url.Values{}
	params.Set("ss", city)
	params.Set("checkin", q.CheckIn.Format("2006-01-02"))
	params.Set("checkout", q.CheckOut.Format("2006-01-02"))
	params.Set("group_adults", strconv.Itoa(max(q.BedsPerRoom, 1)*rooms))
	params.Set("group_children", "0")
	params.Set("no_rooms", strconv.Itoa(rooms))
	params.Set("selected_currency", "EUR")
	params.Set("lang", "de")
	return s.baseURL + "/searchresults.html?" + params.Encode()
}

func (s *Scraper) parseResults(doc *goquery.Document, city string, q HotelQuery, rooms, nights int) []HotelCandidate {
	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil
	}

	hotels := make([]HotelCandidate, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		name := firstText(card, nameSelectors)
		priceText := firstText(card, priceSelectors)
		if name == "" || priceText == "" {
			return
		}

		amount, currency, ok := parseEuropeanPrice(priceText)
		if !ok {
			s.logger.Debug("could not parse price", zap.String("hotel", name), zap.String("text", priceText))
			return
		}

		// Listings show either a nightly rate or the total for the whole stay.
		perRoomNight := amount
		if !isNightlyPrice(priceText) {
			perRoomNight = amount / float64(nights) / float64(rooms)
		}
		perRoomNight = math.Round(perRoomNight*100) / 100

		h := HotelCandidate{
			Name:              name,
			Stars:             starsOf(card),
			Board:             "Room Only",
			Nights:            nights,
			RoomsNeeded:       rooms,
			BedsPerRoom:       q.BedsPerRoom,
			PricePerRoomNight: perRoomNight,
			PriceTotal:        math.Round(perRoomNight*float64(nights)*float64(rooms)*100) / 100,
			Currency:          currency,
			Provider:          scraperProviderName,
		}

		if meters, ok := parseDistanceMeters(firstText(card, distanceSelectors)); ok {
			h.DistanceMeters = meters
			h.DistanceDescription = DistanceDescription(city, meters)
		} else {
			h.DistanceDescription = "Distance not listed"
		}

		h.Deeplink = s.links.WithTracking(s.resolve(firstAttr(card, linkSelectors, "href")), "hotels")
		hotels = append(hotels, h)
	})
	return hotels
}

func (s *Scraper) resolve(href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func isNightlyPrice(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "pro nacht") || strings.Contains(t, "per night") || strings.Contains(t, "/nacht")
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := s.Find(sel).First().Attr(attr); ok && v != "" {
			return v
		}
	}
	return ""
}

func starsOf(card *goquery.Selection) float64 {
	for _, sel := range starSelectors {
		if n := card.Find(sel).Length(); n > 0 {
			return math.Min(float64(n), 5)
		}
	}
	return 3
}
