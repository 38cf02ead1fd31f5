package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const searchResultsHTML = `<html><body>
<div data-testid="property-card">
  <a data-testid="title-link" href="/hotel/sa/swissotel-makkah.de.html?checkin=2025-03-10">
    <div data-testid="title">Swissotel Makkah</div>
  </a>
  <div data-testid="rating-stars"><span></span><span></span><span></span><span></span><span></span></div>
  <span data-testid="distance">250 m vom Zentrum</span>
  <span data-testid="price-and-discounted-price">€&nbsp;1.500</span>
</div>
<div data-testid="property-card">
  <a data-testid="title-link" href="https://www.booking.com/hotel/sa/elaf-kinda.de.html">
    <div data-testid="title">Elaf Kinda</div>
  </a>
  <span data-testid="distance">1,1 km vom Zentrum</span>
  <span class="bui-price-display__value">95 € pro Nacht</span>
</div>
<div data-testid="property-card">
  <div data-testid="title">No Price Hotel</div>
</div>
</body></html>`

func TestScraper_ParsesResults(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/searchresults.html", r.URL.Path)
		assert.Equal(t, "UmrahCheckTest/1.0", r.UserAgent())
		gotQuery = r.URL.RawQuery
		w.Write([]byte(searchResultsHTML))
	}))
	defer srv.Close()

	s := NewScraper(ScraperOptions{BaseURL: srv.URL, UserAgent: "UmrahCheckTest/1.0"}, nil, zaptest.NewLogger(t))
	hotels, err := s.SearchHotels(context.Background(), HotelQuery{
		City:        CityMakkah,
		CheckIn:     date("2025-03-10"),
		CheckOut:    date("2025-03-15"),
		Rooms:       1,
		BedsPerRoom: 4,
	})
	require.NoError(t, err)
	require.Len(t, hotels, 2)

	assert.Contains(t, gotQuery, "ss=Makkah")
	assert.Contains(t, gotQuery, "group_adults=4")
	assert.Contains(t, gotQuery, "selected_currency=EUR")

	swiss := hotels[0]
	assert.Equal(t, "Swissotel Makkah", swiss.Name)
	assert.Equal(t, 5.0, swiss.Stars)
	assert.Equal(t, 250, swiss.DistanceMeters)
	// total for five nights
	assert.Equal(t, 300.0, swiss.PricePerRoomNight)
	assert.Equal(t, 1500.0, swiss.PriceTotal)
	assert.Contains(t, swiss.Deeplink, srv.URL+"/hotel/sa/swissotel-makkah.de.html?")
	assert.Contains(t, swiss.Deeplink, "checkin=2025-03-10")
	assert.Contains(t, swiss.Deeplink, "utm_source=umrahcheck")

	elaf := hotels[1]
	assert.Equal(t, 95.0, elaf.PricePerRoomNight)
	assert.Equal(t, 475.0, elaf.PriceTotal)
	assert.Equal(t, 1100, elaf.DistanceMeters)
	assert.Equal(t, 3.0, elaf.Stars)
	assert.Equal(t, scraperProviderName, elaf.Provider)
}

func TestScraper_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewScraper(ScraperOptions{BaseURL: srv.URL}, nil, zaptest.NewLogger(t))
	_, err := s.SearchHotels(context.Background(), HotelQuery{City: CityMadinah, CheckIn: date("2025-03-15"), CheckOut: date("2025-03-19")})
	assert.ErrorContains(t, err, "unexpected status 403")
}

func TestScraper_LimitsConcurrency(t *testing.T) {
	var inFlight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	s := NewScraper(ScraperOptions{BaseURL: srv.URL, MaxConcurrent: 2}, nil, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SearchHotels(context.Background(), HotelQuery{City: CityMakkah, CheckIn: date("2025-03-10"), CheckOut: date("2025-03-12")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
