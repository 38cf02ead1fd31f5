package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"umrahcheck/apperrors"
	"umrahcheck/planner"
)

// SearchRecord is one audited search as read back for lookups. Result is nil
// for failed searches.
type SearchRecord struct {
	LeadToken        string                `json:"lead_token"`
	CustomerName     string                `json:"customer_name"`
	Email            string                `json:"email"`
	Persons          int                   `json:"persons"`
	Budget           planner.BudgetRange   `json:"budget"`
	DepartureAirport string                `json:"departure_airport"`
	DepartureDate    string                `json:"departure_date"`
	Status           string                `json:"status"`
	ErrorCode        string                `json:"error_code,omitempty"`
	OptionsFound     int                   `json:"options_found"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
	ProvidersUsed    []string              `json:"providers_used"`
	Result           *planner.SearchResult `json:"result,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// Store is the Postgres audit log of searches. It also keeps the rendered
// PDF next to each result so repeated downloads skip rendering.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSearch writes the audit row for one search.
func (s *Store) RecordSearch(ctx context.Context, rec planner.AuditRecord) error {
	var resultJSON []byte
	if rec.Result != nil {
		var err error
		if resultJSON, err = json.Marshal(rec.Result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}

	r := rec.Request
	providers := rec.ProvidersUsed
	if providers == nil {
		providers = []string{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (
			lead_token, customer_name, email, whatsapp, persons, budget_min, budget_max,
			departure_airport, departure_date, nights_makkah, nights_madinah, source,
			status, error_code, options_found, processing_time_ms, providers_used,
			result_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		rec.LeadToken,
		strings.TrimSpace(r.FirstName+" "+r.LastName),
		r.Email,
		r.WhatsApp,
		r.Persons,
		r.Budget.Min,
		r.Budget.Max,
		strings.ToUpper(r.DepartureAirport),
		r.DepartureDate,
		nullableInt(r.NightsMakkah),
		nullableInt(r.NightsMadinah),
		r.Source,
		rec.Status,
		rec.ErrorCode,
		rec.OptionsFound,
		rec.ProcessingTimeMS,
		pq.Array(providers),
		nullableJSON(resultJSON),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search %s: %w", rec.LeadToken, err)
	}
	return nil
}

// GetSearch returns the audited search for a lead token.
func (s *Store) GetSearch(ctx context.Context, token string) (*SearchRecord, error) {
	rec := &SearchRecord{}
	var providers pq.StringArray
	var resultJSON []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT lead_token, customer_name, email, persons, budget_min, budget_max,
		       departure_airport, departure_date, status, error_code, options_found,
		       processing_time_ms, providers_used, result_json, created_at
		FROM searches WHERE lead_token = $1`, token).
		Scan(&rec.LeadToken, &rec.CustomerName, &rec.Email, &rec.Persons,
			&rec.Budget.Min, &rec.Budget.Max, &rec.DepartureAirport, &rec.DepartureDate,
			&rec.Status, &rec.ErrorCode, &rec.OptionsFound, &rec.ProcessingTimeMS,
			&providers, &resultJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("search", token)
	}
	if err != nil {
		return nil, fmt.Errorf("get search %s: %w", token, err)
	}

	rec.ProvidersUsed = []string(providers)
	if len(resultJSON) > 0 {
		var result planner.SearchResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("decode stored result %s: %w", token, err)
		}
		rec.Result = &result
	}
	return rec, nil
}

// GetPDF returns the stored document, if one was rendered before.
func (s *Store) GetPDF(ctx context.Context, token string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT pdf_data FROM searches WHERE lead_token = $1`, token).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, apperrors.NewNotFound("search", token)
	}
	if err != nil {
		return nil, false, fmt.Errorf("get pdf %s: %w", token, err)
	}
	return data, len(data) > 0, nil
}

func (s *Store) SavePDF(ctx context.Context, token string, data []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE searches SET pdf_data = $1 WHERE lead_token = $2`, data, token)
	if err != nil {
		return fmt.Errorf("save pdf %s: %w", token, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFound("search", token)
	}
	return nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
