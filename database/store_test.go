package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"umrahcheck/apperrors"
	"umrahcheck/planner"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, zaptest.NewLogger(t)), mock
}

func auditRecord() planner.AuditRecord {
	nights := 5
	return planner.AuditRecord{
		LeadToken: "umr_20250201_0123456789abcdef0123456789abcdef",
		Request: planner.SearchRequest{
			FirstName:        "Amina",
			LastName:         "Yilmaz",
			Email:            "amina@example.com",
			Persons:          4,
			Budget:           planner.BudgetRange{Min: 1200, Max: 1300},
			DepartureAirport: "fra",
			DepartureDate:    "2025-03-10",
			NightsMakkah:     &nights,
		},
		Status:           planner.StatusSuccess,
		OptionsFound:     3,
		ProcessingTimeMS: 42,
		ProvidersUsed:    []string{"UmrahCheck Static Tables"},
		Result:           &planner.SearchResult{LeadToken: "umr_20250201_0123456789abcdef0123456789abcdef", Status: planner.StatusSuccess},
		CreatedAt:        time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestRecordSearch(t *testing.T) {
	store, mock := newMockStore(t)
	rec := auditRecord()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO searches")).
		WithArgs(
			rec.LeadToken, "Amina Yilmaz", "amina@example.com", "", 4, 1200, 1300,
			"FRA", "2025-03-10", int64(5), nil, "",
			planner.StatusSuccess, "", 3, int64(42), sqlmock.AnyArg(),
			sqlmock.AnyArg(), rec.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.RecordSearch(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSearch_FailedSearchHasNoResult(t *testing.T) {
	store, mock := newMockStore(t)
	rec := auditRecord()
	rec.Status = "failed"
	rec.ErrorCode = string(apperrors.CodeSearchTimeout)
	rec.Result = nil
	rec.OptionsFound = 0
	rec.ProvidersUsed = nil

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO searches")).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"failed", "SEARCH_TIMEOUT", 0, sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.RecordSearch(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSearch_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO searches").WillReturnError(errors.New("connection refused"))

	err := store.RecordSearch(context.Background(), auditRecord())
	assert.ErrorContains(t, err, "connection refused")
}

var searchColumns = []string{
	"lead_token", "customer_name", "email", "persons", "budget_min", "budget_max",
	"departure_airport", "departure_date", "status", "error_code", "options_found",
	"processing_time_ms", "providers_used", "result_json", "created_at",
}

func TestGetSearch(t *testing.T) {
	store, mock := newMockStore(t)
	rec := auditRecord()
	resultJSON, err := json.Marshal(rec.Result)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM searches WHERE lead_token = $1")).
		WithArgs(rec.LeadToken).
		WillReturnRows(sqlmock.NewRows(searchColumns).AddRow(
			rec.LeadToken, "Amina Yilmaz", "amina@example.com", 4, 1200, 1300,
			"FRA", "2025-03-10", "success", "", 3,
			int64(42), "{\"UmrahCheck Static Tables\"}", resultJSON, rec.CreatedAt,
		))

	got, err := store.GetSearch(context.Background(), rec.LeadToken)
	require.NoError(t, err)
	assert.Equal(t, "Amina Yilmaz", got.CustomerName)
	assert.Equal(t, planner.BudgetRange{Min: 1200, Max: 1300}, got.Budget)
	assert.Equal(t, []string{"UmrahCheck Static Tables"}, got.ProvidersUsed)
	require.NotNil(t, got.Result)
	assert.Equal(t, rec.LeadToken, got.Result.LeadToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSearch_FailedSearch(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM searches").
		WillReturnRows(sqlmock.NewRows(searchColumns).AddRow(
			"umr_x", "", "", 2, 900, 900, "FRA", "2025-03-10", "failed", "PROVIDER_UNAVAILABLE", 0,
			int64(10), "{}", nil, time.Now(),
		))

	got, err := store.GetSearch(context.Background(), "umr_x")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", got.ErrorCode)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.ProvidersUsed)
}

func TestGetSearch_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM searches").WillReturnError(sql.ErrNoRows)

	_, err := store.GetSearch(context.Background(), "umr_missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestPDFStorage(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT pdf_data FROM searches")).
		WithArgs("umr_1").
		WillReturnRows(sqlmock.NewRows([]string{"pdf_data"}).AddRow(nil))
	_, ok, err := store.GetPDF(ctx, "umr_1")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE searches SET pdf_data")).
		WithArgs([]byte("%PDF-1.3"), "umr_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.SavePDF(ctx, "umr_1", []byte("%PDF-1.3")))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT pdf_data FROM searches")).
		WithArgs("umr_1").
		WillReturnRows(sqlmock.NewRows([]string{"pdf_data"}).AddRow([]byte("%PDF-1.3")))
	data, ok, err := store.GetPDF(ctx, "umr_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.3"), data)

	mock.ExpectExec("UPDATE searches").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, apperrors.Is(store.SavePDF(ctx, "umr_gone", []byte("x")), apperrors.CodeNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	store, mock := newMockStore(t)
	for range migrations {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNullableHelpers(t *testing.T) {
	assert.False(t, nullableInt(nil).Valid)
	n := 4
	assert.Equal(t, int64(4), nullableInt(&n).Int64)
	assert.Nil(t, nullableJSON(nil))
	assert.Equal(t, "{}", nullableJSON([]byte("{}")))

	var arr pq.StringArray
	require.NoError(t, arr.Scan([]byte(`{"a","b"}`)))
	assert.Equal(t, pq.StringArray{"a", "b"}, arr)
}
