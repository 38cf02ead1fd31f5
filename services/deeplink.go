package services

import (
	"net/url"
	"strings"
)

// ─── Deeplinks ────────────────────────────────────────────────────────────────

const defaultRedirectBase = "https://umrahcheck.de/redirect"

var partnerBaseURLs = map[string]string{
	"amadeus":      "https://amadeus.com/booking",
	"booking":      "https://www.booking.com/hotel",
	"halalbooking": "https://www.halalbooking.com/hotels",
	"hotelbeds":    "https://partners.hotelbeds.com/hotel",
	"saudia":       "https://partners.saudia.com/deeplink",
}

// DeeplinkBuilder appends partner tracking parameters to booking links.
// A nil builder uses the default redirect host and medium.
type DeeplinkBuilder struct {
	redirectBase string
	medium       string
}

func NewDeeplinkBuilder(redirectBase, medium string) *DeeplinkBuilder {
	if redirectBase == "" {
		redirectBase = defaultRedirectBase
	}
	if medium == "" {
		medium = "quote_api"
	}
	return &DeeplinkBuilder{redirectBase: strings.TrimRight(redirectBase, "/"), medium: medium}
}

func (b *DeeplinkBuilder) Flight(partner string, params map[string]string) string {
	return b.Build(partner, "flights", params)
}

func (b *DeeplinkBuilder) Hotel(partner string, params map[string]string) string {
	return b.Build(partner, "hotels", params)
}

// Build returns the partner URL for a product with params and tracking
// parameters encoded in a stable order.
func (b *DeeplinkBuilder) Build(partner, product string, params map[string]string) string {
	if b == nil {
		b = NewDeeplinkBuilder("", "")
	}

	base, ok := partnerBaseURLs[strings.ToLower(partner)]
	if !ok {
		base = b.redirectBase + "/" + product
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("ref", "umrahcheck")
	q.Set("utm_source", "umrahcheck")
	q.Set("utm_medium", b.medium)
	q.Set("utm_campaign", product)

	return base + "?" + q.Encode()
}

// WithTracking adds the tracking parameters to a link a provider already
// returned, leaving its own query intact.
func (b *DeeplinkBuilder) WithTracking(link, product string) string {
	if b == nil {
		b = NewDeeplinkBuilder("", "")
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return b.Build("", product, nil)
	}
	q := u.Query()
	q.Set("ref", "umrahcheck")
	q.Set("utm_source", "umrahcheck")
	q.Set("utm_medium", b.medium)
	q.Set("utm_campaign", product)
	u.RawQuery = q.Encode()
	return u.String()
}
