package services

import (
	"context"

	"go.uber.org/zap"
)

// ─── Fallback (when the primary provider fails or finds nothing) ─────────────

// FallbackFlights serves the secondary provider's results when the primary
// errors or returns no offers. Substituted candidates are tagged so the
// replacement stays visible to callers.
type FallbackFlights struct {
	primary   FlightProvider
	secondary FlightProvider
	logger    *zap.Logger
}

func NewFallbackFlights(primary, secondary FlightProvider, logger *zap.Logger) *FallbackFlights {
	return &FallbackFlights{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackFlights) Info() ProviderInfo {
	return f.primary.Info()
}

func (f *FallbackFlights) SearchFlights(ctx context.Context, q FlightQuery) ([]FlightCandidate, error) {
	flights, err := f.primary.SearchFlights(ctx, q)
	if err == nil && len(flights) > 0 {
		return flights, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("⚠️  Flight provider unavailable, using fallback data",
		zap.String("provider", f.primary.Info().Name),
		zap.String("route", q.Origin+"-"+q.Destination),
		zap.Error(err))

	flights, err = f.secondary.SearchFlights(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range flights {
		flights[i].Provider = fallbackTag(flights[i].Provider)
	}
	return flights, nil
}

// FallbackHotels is the hotel counterpart of FallbackFlights.
type FallbackHotels struct {
	primary   HotelProvider
	secondary HotelProvider
	logger    *zap.Logger
}

func NewFallbackHotels(primary, secondary HotelProvider, logger *zap.Logger) *FallbackHotels {
	return &FallbackHotels{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackHotels) Info() ProviderInfo {
	return f.primary.Info()
}

func (f *FallbackHotels) SearchHotels(ctx context.Context, q HotelQuery) ([]HotelCandidate, error) {
	hotels, err := f.primary.SearchHotels(ctx, q)
	if err == nil && len(hotels) > 0 {
		return hotels, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("⚠️  Hotel provider unavailable, using fallback data",
		zap.String("provider", f.primary.Info().Name),
		zap.String("city", q.City),
		zap.Error(err))

	hotels, err = f.secondary.SearchHotels(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range hotels {
		hotels[i].Provider = fallbackTag(hotels[i].Provider)
	}
	return hotels, nil
}

func fallbackTag(provider string) string {
	return provider + " (fallback)"
}
