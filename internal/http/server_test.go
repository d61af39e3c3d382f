package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paytrack/internal/auth"
	"paytrack/internal/cache"
	"paytrack/internal/core"
	"paytrack/internal/imports"
	"paytrack/internal/period"
	"paytrack/internal/reports"
	"paytrack/internal/services"
	"paytrack/internal/storage/memory"
)

var (
	testSecret = []byte("test-secret")
	// Wednesday; the current week runs 2024-01-01 to 2024-01-07
	testNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

type testServer struct {
	*Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	clock := core.FixedClock(testNow)
	resolver := period.NewResolver(clock, time.UTC)
	dash := services.NewDashboardService(store, store, cache.NewLRUCache[core.Dashboard](10, time.Minute))
	schedules := services.NewScheduleService(store, resolver, nil, dash)

	srv := NewServer(":0", Deps{
		Resolver:           resolver,
		Dashboard:          dash,
		Schedules:          schedules,
		Expenses:           services.NewExpenseService(store, nil, nil, dash),
		Imports:            imports.NewPipeline(imports.NewMemorySessions(clock), schedules, imports.Options{Clock: clock}),
		Reports:            reports.NewGenerator(store, store),
		Store:              store,
		JWTSecret:          testSecret,
		UploadDir:          t.TempDir(),
		UploadMaxBytes:     1 << 20,
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, store: store}
}

func token(t *testing.T, owner string) string {
	t.Helper()
	tok, err := auth.GenerateToken(owner, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, owner, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, owner))
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func hourly(date string, hours, rate float64) map[string]any {
	return map[string]any{"date": date, "payType": "hourly", "hours": hours, "hourlyRate": rate}
}

func TestAPIRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "", http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode[ErrorBody](t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = ts.do(t, "", http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.deps.Store = failingPinger{}
	rec = ts.do(t, "", http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDashboardCurrentWeek(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []map[string]any{
		hourly("2024-01-01", 8, 15),
		hourly("2024-01-03", 8, 15),
		hourly("2024-01-10", 8, 15),
	} {
		rec := ts.do(t, "alice", http.MethodPost, "/api/schedules", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := ts.do(t, "alice", http.MethodPost, "/api/expenses", map[string]any{
		"date": "2024-01-02", "vendor": "Market", "category": "Food", "amount": 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, "alice", http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[dashboardView](t, rec)

	assert.Equal(t, "week", view.Period.Kind)
	assert.Equal(t, "2024-01-01", view.Period.StartDate)
	assert.Equal(t, "2024-01-07", view.Period.EndDate)
	assert.Equal(t, 240.0, view.TotalIncome)
	assert.Equal(t, 50.0, view.TotalExpenses)
	assert.Equal(t, 190.0, view.NetProfit)
	require.Len(t, view.IncomeByWeekday, 7)
	assert.Equal(t, dayAmount{Day: "Mon", Amount: 120}, view.IncomeByWeekday[0])
	assert.Equal(t, []namedAmount{{Name: "Food", Amount: 50}}, view.ExpensesByCategory)

	// another owner sees nothing
	rec = ts.do(t, "bob", http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[dashboardView](t, rec).TotalIncome)
}

func TestDashboardInvalidCustomRange(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodGet, "/api/dashboard?period=custom&startDate=2024-02-01&endDate=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_range", decode[ErrorBody](t, rec).Error)

	rec = ts.do(t, "alice", http.MethodGet, "/api/dashboard?period=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[ErrorBody](t, rec).Error)
}

func TestScheduleCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodPost, "/api/schedules", hourly("2024-01-05", 6.5, 20))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[scheduleView](t, rec)
	assert.Equal(t, "Friday", created.DayOfWeek)
	assert.Equal(t, 130.0, created.CalculatedIncome)
	assert.True(t, created.IsFuture)

	rec = ts.do(t, "alice", http.MethodGet, "/api/schedules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "bob", http.MethodGet, "/api/schedules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, "alice", http.MethodPut, "/api/schedules/"+created.ID, map[string]any{
		"date": "2024-01-05", "payType": "monthly", "monthlySalary": 2400,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[scheduleView](t, rec)
	assert.Equal(t, "monthly", updated.PayType)
	assert.Nil(t, updated.Hours)
	assert.Equal(t, 600.0, updated.CalculatedIncome)

	rec = ts.do(t, "alice", http.MethodGet, "/api/schedules/upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]scheduleView](t, rec)["schedules"], 1)

	rec = ts.do(t, "alice", http.MethodDelete, "/api/schedules/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, "alice", http.MethodDelete, "/api/schedules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateScheduleValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodPost, "/api/schedules", map[string]any{"date": "2024-13-01", "payType": "hourly"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorBody](t, rec)
	assert.Contains(t, body.Fields, "date")
	assert.Contains(t, body.Fields, "hours")
	assert.Contains(t, body.Fields, "hourlyRate")

	rec = ts.do(t, "alice", http.MethodPost, "/api/schedules", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorBody](t, rec).Fields, "body")
}

func TestCreateWeekly(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodPost, "/api/schedules/weekly", map[string]any{
		"startDate": "2024-01-01", "weekdays": []string{"Monday", "thu"},
		"payType": "hourly", "hours": 4, "hourlyRate": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var weekly struct {
		Created   int            `json:"created"`
		Schedules []scheduleView `json:"schedules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &weekly))
	// Mondays 1,8,15,22,29 and Thursdays 4,11,18,25 of January
	assert.Equal(t, 9, weekly.Created)
	assert.Len(t, weekly.Schedules, 9)

	rec = ts.do(t, "alice", http.MethodPost, "/api/schedules/weekly", map[string]any{
		"startDate": "2024-01-01", "weekdays": []string{"someday"},
		"payType": "hourly", "hours": 4, "hourlyRate": 10,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorBody](t, rec).Fields, "weekdays")
}

func TestExpenseCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodPost, "/api/expenses", map[string]any{
		"date": "2024-01-02", "vendor": "Station", "amount": 12.5, "receiptRef": "r1.jpg",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[expenseView](t, rec)
	assert.Equal(t, 12.5, created.Amount)

	// an edit that omits the receipt keeps it
	rec = ts.do(t, "alice", http.MethodPut, "/api/expenses/"+created.ID, map[string]any{
		"date": "2024-01-02", "vendor": "Station", "category": "Fuel", "amount": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[expenseView](t, rec)
	assert.Equal(t, "Fuel", updated.Category)
	assert.Equal(t, "r1.jpg", updated.ReceiptRef)

	rec = ts.do(t, "alice", http.MethodPut, "/api/expenses/"+created.ID, map[string]any{
		"date": "2024-01-02", "vendor": "Station", "category": "Fuel", "amount": 20, "receiptRef": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "r1.jpg", decode[expenseView](t, rec).ReceiptRef)

	rec = ts.do(t, "alice", http.MethodPut, "/api/expenses/"+created.ID, map[string]any{
		"date": "2024-01-02", "vendor": "Station", "category": "Fuel", "amount": 20, "receiptRef": "",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[expenseView](t, rec).ReceiptRef)

	rec = ts.do(t, "alice", http.MethodGet, "/api/expenses?period=month", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Fuel"`)

	rec = ts.do(t, "alice", http.MethodDelete, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, "alice", http.MethodPost, "/api/expenses", map[string]any{"date": "2024-01-02", "amount": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func (ts *testServer) upload(t *testing.T, owner, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, owner))
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndConfirm(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "alice", "shifts.csv", "date,hours,hourly_rate,tag,notes\n"+
		"2024-01-02,8,15,bar,\n"+
		"not-a-date,8,15,,\n"+
		"2024-01-04,4,20,,evening\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[previewView](t, rec)
	assert.Equal(t, 3, preview.TotalRows)
	assert.Equal(t, 2, preview.Valid)
	assert.Equal(t, 1, preview.Invalid)
	assert.Equal(t, testNow.Add(time.Hour).Format(time.RFC3339), preview.ExpiresAt)
	require.Len(t, preview.Preview, 3)
	assert.Equal(t, "Tuesday", preview.Preview[0].DayOfWeek)
	assert.False(t, preview.Preview[1].Valid)
	assert.NotEmpty(t, preview.Preview[1].Errors)

	// another owner cannot consume the session
	rec = ts.do(t, "bob", http.MethodPost, "/api/imports/"+preview.SessionID+"/confirm", confirmInput{RowsToImport: []int{2}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, "alice", http.MethodPost, "/api/imports/"+preview.SessionID+"/confirm", confirmInput{RowsToImport: []int{3}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_rows_selected", decode[ErrorBody](t, rec).Error)

	rec = ts.do(t, "alice", http.MethodPost, "/api/imports/"+preview.SessionID+"/confirm", confirmInput{RowsToImport: []int{2, 4}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[map[string]int](t, rec)["imported"])

	rec = ts.do(t, "alice", http.MethodPost, "/api/imports/"+preview.SessionID+"/confirm", confirmInput{RowsToImport: []int{2}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session_expired", decode[ErrorBody](t, rec).Error)

	list, err := ts.store.ListSchedules(context.Background(), "alice", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 8))
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUploadErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		filename string
		content  string
		code     string
	}{
		{name: "no file", code: "validation_error"},
		{name: "unsupported type", filename: "shifts.txt", content: "date,hours,hourly_rate\n", code: "validation_error"},
		{name: "missing columns", filename: "shifts.csv", content: "date,notes\n2024-01-02,x\n", code: "missing_columns"},
		{name: "header only", filename: "shifts.csv", content: "date,hours,hourly_rate\n", code: "empty_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.upload(t, "alice", tt.filename, tt.content)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorBody](t, rec).Error)
		})
	}
}

func TestImportTemplate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodGet, "/api/imports/template", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "hourly_rate")

	rec = ts.do(t, "alice", http.MethodGet, "/api/imports/template?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reports.ContentTypeXLSX, rec.Header().Get("Content-Type"))
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "alice", http.MethodPost, "/api/schedules", hourly("2024-01-02", 8, 15))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "alice", http.MethodPost, "/api/reports", reportInput{ReportType: "schedule", Format: "csv", Period: "week"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, reports.ContentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=schedule-report_2024-01-01_2024-01-07.csv`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "2024-01-02")

	rec = ts.do(t, "alice", http.MethodPost, "/api/reports", reportInput{ReportType: "payroll", Format: "doc"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[ErrorBody](t, rec).Fields
	assert.Contains(t, fields, "reportType")
	assert.Contains(t, fields, "format")
}

func TestQuickReports(t *testing.T) {
	ts := newTestServer(t)

	tests := map[string]struct {
		contentType string
		filename    string
	}{
		"weekly-summary":   {reports.ContentTypePDF, "combined-report_2024-01-01_2024-01-07.pdf"},
		"monthly-overview": {reports.ContentTypeXLSX, "combined-report_2024-01-01_2024-01-31.xlsx"},
		"expense-analysis": {reports.ContentTypeCSV, "expenses-report_2024-01-01_2024-01-31.csv"},
		"schedule-month":   {reports.ContentTypeCSV, "schedule-report_2024-01-01_2024-01-31.csv"},
	}
	for preset, want := range tests {
		t.Run(preset, func(t *testing.T) {
			rec := ts.do(t, "alice", http.MethodGet, "/api/reports/quick/"+preset, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, want.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, fmt.Sprintf("attachment; filename=%s", want.filename), rec.Header().Get("Content-Disposition"))
		})
	}

	rec := ts.do(t, "alice", http.MethodGet, "/api/reports/quick/yearly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "alice", http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMethodNotAllowedListsAllowedMethods(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "alice", http.MethodPut, "/healthz", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))

	rec = ts.do(t, "alice", http.MethodPatch, "/api/schedules/abc", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PUT, DELETE", rec.Header().Get("Allow"))
	assert.Equal(t, "method_not_allowed", decode[ErrorBody](t, rec).Error)
}
