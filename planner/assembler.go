package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"umrahcheck/apperrors"
	"umrahcheck/metrics"
	"umrahcheck/services"
)

// ─── Collaborators ────────────────────────────────────────────────────────────

// ResultCache stores finished results by trip fingerprint.
type ResultCache interface {
	Get(ctx context.Context, key string) (*SearchResult, bool, error)
	Set(ctx context.Context, key string, result *SearchResult, ttl time.Duration) error
}

// AuditSink keeps a record of every search.
type AuditSink interface {
	RecordSearch(ctx context.Context, rec AuditRecord) error
}

// ErrorReporter forwards failures to error tracking. It must not block.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

// Provider legs, used in errors, metrics and spans.
const (
	LegOutbound = "outbound"
	LegReturn   = "return"
	LegMakkah   = "makkah"
	LegMadinah  = "madinah"
)

const (
	// Share of the per-room-per-night budget spent in each city.
	makkahHotelShare  = 0.6
	madinahHotelShare = 0.4

	validityDefault = 24 * time.Hour
	validityScraped = 6 * time.Hour

	auditTimeout = 10 * time.Second
)

var errNoCandidates = errors.New("no candidates returned")

// ─── Assembler ────────────────────────────────────────────────────────────────

type Options struct {
	Timeout      time.Duration
	CacheTTL     time.Duration
	ProviderMode string
}

type Deps struct {
	Flights  services.FlightProvider
	Hotels   services.HotelProvider
	Cache    ResultCache
	Audit    AuditSink
	Reporter ErrorReporter
	Clock    clock.Clock
	Logger   *zap.Logger
}

// Assembler turns a search request into up to three scored itineraries.
type Assembler struct {
	flights  services.FlightProvider
	hotels   services.HotelProvider
	cache    ResultCache
	audit    AuditSink
	reporter ErrorReporter
	clock    clock.Clock
	logger   *zap.Logger
	opts     Options

	wg sync.WaitGroup
}

func NewAssembler(d Deps, opts Options) *Assembler {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Assembler{
		flights:  d.Flights,
		hotels:   d.Hotels,
		cache:    d.Cache,
		audit:    d.Audit,
		reporter: d.Reporter,
		clock:    d.Clock,
		logger:   d.Logger,
		opts:     opts,
	}
}

// Providers describes the sources behind this assembler.
func (a *Assembler) Providers() (flights, hotels services.ProviderInfo) {
	return a.flights.Info(), a.hotels.Info()
}

// Wait blocks until background audit writes have finished.
func (a *Assembler) Wait() {
	a.wg.Wait()
}

// Search runs one quote search. Every returned error is an *apperrors.Error
// carrying the lead token under the "lead_token" metadata key.
func (a *Assembler) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := a.clock.Now()
	token := NewLeadToken(start)

	ctx, span := otel.Tracer("Assembler").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("lead_token", token),
		attribute.Int("persons", req.Persons),
		attribute.String("origin", req.DepartureAirport),
	))
	defer span.End()

	result, err := a.search(ctx, req, token, start)
	elapsed := a.clock.Now().Sub(start)

	status := StatusSuccess
	if err != nil {
		status = strings.ToLower(string(apperrors.CodeOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
	} else {
		if result.Meta.CacheHit {
			status = "cache_hit"
		}
		span.SetAttributes(attribute.Int("options.count", len(result.Options)))
		span.SetStatus(codes.Ok, "search completed")
	}
	metrics.SearchesTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	a.recordAudit(ctx, token, req, result, err, elapsed)

	if err != nil {
		appErr := apperrors.Normalize(err).WithMetadata("lead_token", token)
		a.logFailure(ctx, appErr, req)
		return nil, appErr
	}

	a.logger.Info("✅ Search completed",
		zap.String("lead_token", token),
		zap.Int("options", len(result.Options)),
		zap.Bool("cache_hit", result.Meta.CacheHit),
		zap.Duration("took", elapsed))
	return result, nil
}

func (a *Assembler) search(ctx context.Context, req SearchRequest, token string, start time.Time) (*SearchResult, error) {
	trip, err := NewTrip(req)
	if err != nil {
		return nil, err
	}

	key := trip.Fingerprint()
	if cached := a.fromCache(ctx, key); cached != nil {
		hit := cached.clone()
		hit.LeadToken = token
		hit.Meta.CacheHit = true
		hit.ProcessingTimeMS = a.clock.Now().Sub(start).Milliseconds()
		return hit, nil
	}

	avg := trip.Request.Budget.Average()
	alloc, err := Allocate(float64(avg), trip.Request.Persons)
	if err != nil {
		return nil, err
	}

	cands, err := a.gather(ctx, trip, alloc)
	if err != nil {
		return nil, err
	}

	options := buildItineraries(cands, alloc, trip.Request.Budget)
	if len(options) == 0 {
		// gather guarantees complete lists; keep the failure explicit anyway
		return nil, apperrors.NewProviderUnavailable("all", errNoCandidates)
	}

	validity := validityDefault
	if a.flights.Info().Kind == services.KindScrape || a.hotels.Info().Kind == services.KindScrape {
		validity = validityScraped
	}

	result := &SearchResult{
		LeadToken: token,
		Status:    StatusSuccess,
		Options:   options,
		Assumptions: Assumptions{
			BudgetAllocation: alloc,
			RoomCalculation:  roomExplanation(alloc),
			DateFlexibility:  "±3 days",
			SeasonFactor:     services.SeasonFactor(trip.DepartureDate),
			ProviderMode:     a.opts.ProviderMode,
			DepartureDate:    trip.Request.DepartureDate,
			ReturnDate:       trip.ReturnDate().Format("2006-01-02"),
			NightsMakkah:     trip.NightsMakkah,
			NightsMadinah:    trip.NightsMadinah,
			Currency:         "EUR",
		},
		ValidUntil:       start.Add(validity).UTC(),
		ProcessingTimeMS: a.clock.Now().Sub(start).Milliseconds(),
		Meta: Meta{
			ProvidersUsed: providersUsed(cands),
			Candidates: CandidateCounts{
				OutboundFlights: len(cands.outbound),
				ReturnFlights:   len(cands.ret),
				MakkahHotels:    len(cands.makkah),
				MadinahHotels:   len(cands.madinah),
			},
		},
	}

	a.toCache(ctx, key, result, min(a.opts.CacheTTL, validity))
	return result, nil
}

// ─── Fan-out ──────────────────────────────────────────────────────────────────

// gather queries both flight legs and both cities concurrently under the
// search deadline. The first failure cancels the remaining calls.
func (a *Assembler) gather(ctx context.Context, trip Trip, alloc BudgetAllocation) (candidates, error) {
	sctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	req := trip.Request
	ret := trip.ReturnDate()
	c := candidates{
		wantMakkah:  trip.NightsMakkah > 0,
		wantMadinah: trip.NightsMadinah > 0,
	}

	// each goroutine writes its own field; nothing is read until Wait returns
	var res candidates
	g, gctx := errgroup.WithContext(sctx)

	g.Go(func() error {
		var err error
		res.outbound, err = a.searchFlights(gctx, LegOutbound, services.FlightQuery{
			Origin:          req.DepartureAirport,
			Destination:     req.ArrivalAirport,
			DepartDate:      trip.DepartureDate,
			ReturnDate:      ret,
			Passengers:      req.Persons,
			BudgetPerPerson: alloc.FlightBudgetPerPerson,
		})
		return err
	})
	g.Go(func() error {
		var err error
		res.ret, err = a.searchFlights(gctx, LegReturn, services.FlightQuery{
			Origin:          req.ArrivalAirport,
			Destination:     req.DepartureAirport,
			DepartDate:      ret,
			ReturnDate:      trip.DepartureDate,
			Passengers:      req.Persons,
			BudgetPerPerson: alloc.FlightBudgetPerPerson,
		})
		return err
	})
	if c.wantMakkah {
		in, out := trip.MakkahStay()
		g.Go(func() error {
			var err error
			res.makkah, err = a.searchHotels(gctx, LegMakkah, services.HotelQuery{
				City:                  services.CityMakkah,
				CheckIn:               in,
				CheckOut:              out,
				Rooms:                 alloc.RoomsNeeded,
				BedsPerRoom:           alloc.BedsPerRoom,
				BudgetPerRoomPerNight: alloc.HotelBudgetPerRoomPerNight * makkahHotelShare,
			})
			return err
		})
	}
	if c.wantMadinah {
		in, out := trip.MadinahStay()
		g.Go(func() error {
			var err error
			res.madinah, err = a.searchHotels(gctx, LegMadinah, services.HotelQuery{
				City:                  services.CityMadinah,
				CheckIn:               in,
				CheckOut:              out,
				Rooms:                 alloc.RoomsNeeded,
				BedsPerRoom:           alloc.BedsPerRoom,
				BudgetPerRoomPerNight: alloc.HotelBudgetPerRoomPerNight * madinahHotelShare,
			})
			return err
		})
	}

	// Providers that ignore cancellation must not hold the request past its
	// deadline, so Wait runs on its own goroutine.
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return candidates{}, apperrors.NewSearchTimeout(a.opts.Timeout, err)
			}
			return candidates{}, err
		}
	case <-sctx.Done():
		if ctx.Err() != nil {
			return candidates{}, fmt.Errorf("search cancelled: %w", ctx.Err())
		}
		return candidates{}, apperrors.NewSearchTimeout(a.opts.Timeout, sctx.Err())
	}

	c.outbound, c.ret, c.makkah, c.madinah = res.outbound, res.ret, res.makkah, res.madinah
	return c, nil
}

func (a *Assembler) searchFlights(ctx context.Context, leg string, q services.FlightQuery) (flights []services.FlightCandidate, err error) {
	info := a.flights.Info()
	ctx, span := otel.Tracer("Assembler").Start(ctx, "SearchFlights", trace.WithAttributes(
		attribute.String("provider", info.Name),
		attribute.String("leg", leg),
		attribute.String("route", q.Origin+"-"+q.Destination),
	))
	defer span.End()

	start := a.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flight provider panic: %v", r)
		}
		a.observeProvider(span, info, leg, start, len(flights), err)
		if err != nil {
			err = apperrors.NewProviderUnavailable(leg, err)
			flights = nil
		}
	}()

	flights, err = a.flights.SearchFlights(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, errNoCandidates
	}

	flights = append([]services.FlightCandidate(nil), flights...)
	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].PricePerPerson < flights[j].PricePerPerson
	})
	return flights, nil
}

func (a *Assembler) searchHotels(ctx context.Context, leg string, q services.HotelQuery) (hotels []services.HotelCandidate, err error) {
	info := a.hotels.Info()
	ctx, span := otel.Tracer("Assembler").Start(ctx, "SearchHotels", trace.WithAttributes(
		attribute.String("provider", info.Name),
		attribute.String("leg", leg),
		attribute.String("city", q.City),
	))
	defer span.End()

	start := a.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hotel provider panic: %v", r)
		}
		a.observeProvider(span, info, leg, start, len(hotels), err)
		if err != nil {
			err = apperrors.NewProviderUnavailable(leg, err)
			hotels = nil
		}
	}()

	hotels, err = a.hotels.SearchHotels(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(hotels) == 0 {
		return nil, errNoCandidates
	}

	hotels = append([]services.HotelCandidate(nil), hotels...)
	sort.SliceStable(hotels, func(i, j int) bool {
		return hotels[i].PricePerRoomNight < hotels[j].PricePerRoomNight
	})
	return hotels, nil
}

func (a *Assembler) observeProvider(span trace.Span, info services.ProviderInfo, leg string, start time.Time, n int, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, errNoCandidates):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}

	metrics.ProviderCalls.WithLabelValues(info.Name, leg, outcome).Inc()
	metrics.ProviderDuration.WithLabelValues(info.Name, leg).Observe(a.clock.Now().Sub(start).Seconds())

	span.SetAttributes(attribute.Int("candidates.count", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		a.logger.Warn("⚠️  Provider call failed",
			zap.String("provider", info.Name),
			zap.String("leg", leg),
			zap.String("outcome", outcome),
			zap.Error(err))
		return
	}
	span.SetStatus(codes.Ok, "")
}

func providersUsed(c candidates) []string {
	seen := map[string]bool{}
	var names []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			names = append(names, p)
		}
	}
	for _, f := range c.outbound {
		add(f.Provider)
	}
	for _, f := range c.ret {
		add(f.Provider)
	}
	for _, h := range c.makkah {
		add(h.Provider)
	}
	for _, h := range c.madinah {
		add(h.Provider)
	}
	sort.Strings(names)
	return names
}

// ─── Cache ────────────────────────────────────────────────────────────────────

func (a *Assembler) fromCache(ctx context.Context, key string) *SearchResult {
	if a.cache == nil {
		return nil
	}
	result, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("⚠️  Cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	a.logger.Debug("cache hit", zap.String("key", key))
	return result
}

func (a *Assembler) toCache(ctx context.Context, key string, result *SearchResult, ttl time.Duration) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, result.clone(), ttl); err != nil {
		a.logger.Warn("⚠️  Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ─── Audit & telemetry ────────────────────────────────────────────────────────

// recordAudit writes the audit record in the background. It outlives the
// request context and never affects the search outcome.
func (a *Assembler) recordAudit(ctx context.Context, token string, req SearchRequest, result *SearchResult, searchErr error, elapsed time.Duration) {
	if a.audit == nil {
		return
	}

	rec := AuditRecord{
		LeadToken:        token,
		Request:          req,
		Status:           StatusSuccess,
		ProcessingTimeMS: elapsed.Milliseconds(),
		CreatedAt:        a.clock.Now().UTC(),
	}
	if searchErr != nil {
		rec.Status = "failed"
		rec.ErrorCode = string(apperrors.CodeOf(searchErr))
	} else {
		rec.Result = result
		rec.OptionsFound = len(result.Options)
		rec.ProvidersUsed = result.Meta.ProvidersUsed
	}

	bg := context.WithoutCancel(ctx)
	a.wg.Add(1)
	metrics.AuditInFlight.Inc()
	go func() {
		defer a.wg.Done()
		defer metrics.AuditInFlight.Dec()

		actx, cancel := context.WithTimeout(bg, auditTimeout)
		defer cancel()

		if err := a.audit.RecordSearch(actx, rec); err != nil {
			metrics.AuditWrites.WithLabelValues("error").Inc()
			auditErr := apperrors.NewAuditSinkFailure(err)
			a.logger.Error("❌ Audit write failed", zap.String("lead_token", token), zap.Error(auditErr))
			a.report(bg, auditErr, req, "audit")
			return
		}
		metrics.AuditWrites.WithLabelValues("ok").Inc()
	}()
}

func (a *Assembler) logFailure(ctx context.Context, err *apperrors.Error, req SearchRequest) {
	fields := []zap.Field{
		zap.Any("lead_token", err.Metadata["lead_token"]),
		zap.String("code", string(err.Code)),
		zap.Error(err),
	}
	if err.Code == apperrors.CodeInvalidInput {
		a.logger.Info("search rejected", fields...)
		return
	}
	a.logger.Error("❌ Search failed", fields...)
	a.report(ctx, err, req, "search")
}

func (a *Assembler) report(ctx context.Context, err error, req SearchRequest, operation string) {
	if a.reporter == nil {
		return
	}
	a.reporter.CaptureError(ctx, err, map[string]string{
		"operation": operation,
		"customer":  strings.TrimSpace(req.FirstName + " " + req.LastName),
		"email":     req.Email,
		"budget":    strconv.Itoa(req.Budget.Min) + "-" + strconv.Itoa(req.Budget.Max),
		"persons":   strconv.Itoa(req.Persons),
	})
}

// LeadTokenOf returns the lead token attached to a search error, if any.
func LeadTokenOf(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if t, ok := appErr.Metadata["lead_token"].(string); ok {
			return t
		}
	}
	return ""
}
