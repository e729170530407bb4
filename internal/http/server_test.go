package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details []core.FieldError `json:"details"`
}

type testServer struct {
	t     *testing.T
	srv   *Server
	store *memory.Store
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		Port:               "0",
		RateLimitPerMinute: 1000,
		CORSAllowedOrigins: []string{"*"},
		TrustProxyHeaders:  true,
		DataBackend:        "memory",
	}
	for _, m := range mutate {
		m(cfg)
	}
	clock := func() time.Time { return june15 }
	store := memory.NewWithClock(clock)
	srv := NewServer(cfg, store, nil, WithClock(clock))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, store: store}
}

func (ts *testServer) do(method, target, body string) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func detailFields(env envelope) []string {
	fields := make([]string, len(env.Details))
	for i, d := range env.Details {
		fields[i] = d.Field
	}
	return fields
}

func (ts *testServer) createTransaction(body string) core.Transaction {
	ts.t.Helper()
	rec, env := ts.do(http.MethodPost, "/api/transactions", body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[core.Transaction](ts.t, env)
}

func TestHealthAndCategories(t *testing.T) {
	ts := newTestServer(t)
	ts.createTransaction(`{"amount":-5,"date":"2024-06-01","description":"Coffee"}`)

	rec, env := ts.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeData[map[string]any](t, env)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "memory", health["backend"])
	assert.Equal(t, map[string]any{"transactions": float64(1), "budgets": float64(0)}, health["database"])
	assert.Equal(t, "0s", health["uptime"])

	rec, env = ts.do(http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.CategoryLabels(), decodeData[[]string](t, env))
}

func TestMiddlewareHeaders(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createTransaction(`{"amount":-12.5,"date":"2024-06-10","description":"  Groceries ","category":"Food & Dining"}`)
	assert.NotEmpty(t, created.ID)
	assert.EqualValues(t, -1250, created.Amount.Cents)
	assert.Equal(t, "Groceries", created.Description)
	assert.Equal(t, core.CategoryFoodDining, created.Category)
	assert.Equal(t, june15, created.CreatedAt)

	path := "/api/transactions/" + created.ID
	rec, env := ts.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeData[core.Transaction](t, env).ID)

	rec, env = ts.do(http.MethodPut, path, `{"amount":-20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[core.Transaction](t, env)
	assert.EqualValues(t, -2000, updated.Amount.Cents)
	assert.Equal(t, "Groceries", updated.Description, "untouched fields survive")

	rec, env = ts.do(http.MethodPut, path, `{"amount":-20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeBadRequest, env.Code)
	assert.Equal(t, "No changes were made to the transaction", env.Error)

	rec, env = ts.do(http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"body"}, detailFields(env))

	rec, env = ts.do(http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+created.ID+`","deleted":true}`, string(env.Data))

	rec, env = ts.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Code)
	assert.Equal(t, "Transaction not found", env.Error)
}

func TestCreateTransaction_DefaultsCategory(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createTransaction(`{"amount":0,"date":"2024-06-10","description":"Zero"}`)
	assert.Equal(t, core.CategoryOther, created.Category)
	assert.EqualValues(t, 0, created.Amount.Cents)
}

func TestCreateTransaction_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
		fields []string
	}{
		{
			name:   "missing fields",
			body:   `{}`,
			status: http.StatusUnprocessableEntity,
			code:   CodeValidation,
			fields: []string{"amount", "date", "description"},
		},
		{
			name:   "bad types",
			body:   `{"amount":"x","date":"soon","description":"ok","category":"Pets"}`,
			status: http.StatusUnprocessableEntity,
			code:   CodeValidation,
			fields: []string{"amount", "date", "category"},
		},
		{
			name:   "blank description",
			body:   `{"amount":1,"date":"2024-06-01","description":"   "}`,
			status: http.StatusUnprocessableEntity,
			code:   CodeValidation,
			fields: []string{"description"},
		},
		{
			name:   "description too long",
			body:   `{"amount":1,"date":"2024-06-01","description":"` + strings.Repeat("x", 501) + `"}`,
			status: http.StatusUnprocessableEntity,
			code:   CodeValidation,
			fields: []string{"description"},
		},
		{
			name:   "amount beyond int64 cents",
			body:   `{"amount":100000000000000000,"date":"2024-06-01","description":"Lottery"}`,
			status: http.StatusUnprocessableEntity,
			code:   CodeValidation,
			fields: []string{"amount"},
		},
		{
			name:   "invalid json",
			body:   `{"amount":`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec, env := ts.do(http.MethodPost, "/api/transactions", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
			if tt.fields != nil {
				assert.Equal(t, tt.fields, detailFields(env))
			}
		})
	}
}

func TestInvalidIDs(t *testing.T) {
	ts := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/transactions/not-a-uuid"},
		{http.MethodPut, "/api/transactions/123"},
		{http.MethodDelete, "/api/transactions/507f1f77bcf86cd799439011"},
		{http.MethodDelete, "/api/budgets/abc"},
	} {
		rec, env := ts.do(tc.method, tc.path, `{"amount":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
		assert.Equal(t, CodeInvalidID, env.Code, tc.path)
	}

	rec, env := ts.do(http.MethodDelete, "/api/transactions/6f9619ff-8b86-d011-b42d-00cf4fc964ff", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Code)
}

func TestListTransactions(t *testing.T) {
	ts := newTestServer(t)
	ts.createTransaction(`{"amount":-10,"date":"2024-06-01","description":"a","category":"Shopping"}`)
	ts.createTransaction(`{"amount":-30,"date":"2024-06-03","description":"b","category":"Shopping"}`)
	ts.createTransaction(`{"amount":2000,"date":"2024-06-02","description":"c","category":"Income/Salary"}`)

	type list struct {
		Transactions []core.Transaction `json:"transactions"`
		Pagination   struct {
			Total   int64 `json:"total"`
			Limit   int   `json:"limit"`
			Skip    int   `json:"skip"`
			HasMore bool  `json:"hasMore"`
		} `json:"pagination"`
	}

	rec, env := ts.do(http.MethodGet, "/api/transactions?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData[list](t, env)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "b", got.Transactions[0].Description, "newest date first by default")
	assert.EqualValues(t, 3, got.Pagination.Total)
	assert.Equal(t, 2, got.Pagination.Limit)
	assert.True(t, got.Pagination.HasMore)

	rec, env = ts.do(http.MethodGet, "/api/transactions?category=Shopping&sortBy=amount&sortOrder=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeData[list](t, env)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "b", got.Transactions[0].Description)
	assert.Equal(t, 50, got.Pagination.Limit)
	assert.False(t, got.Pagination.HasMore)

	rec, env = ts.do(http.MethodGet, "/api/transactions?dateFrom=2024-07-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decodeData[map[string]json.RawMessage](t, env)["transactions"]))

	rec, env = ts.do(http.MethodGet, "/api/transactions?limit=500&sortBy=name", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"limit", "sortBy"}, detailFields(env))
}

func TestBudgets(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodPost, "/api/budgets", `{"category":"Shopping","amount":300,"month":6,"year":2024}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Budget created successfully", env.Message)
	created := decodeData[core.Budget](t, env)

	rec, env = ts.do(http.MethodPost, "/api/budgets", `{"category":"Shopping","amount":450.5,"month":6,"year":2024}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Budget updated successfully", env.Message)
	updated := decodeData[core.Budget](t, env)
	assert.Equal(t, created.ID, updated.ID)
	assert.EqualValues(t, 45050, updated.Amount.Cents)

	ts.do(http.MethodPost, "/api/budgets", `{"category":"Entertainment","amount":50,"month":6,"year":2024}`)
	ts.do(http.MethodPost, "/api/budgets", `{"category":"Entertainment","amount":50,"month":7,"year":2024}`)

	rec, env = ts.do(http.MethodGet, "/api/budgets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	budgets := decodeData[[]core.Budget](t, env)
	require.Len(t, budgets, 2, "defaults to the current month")
	assert.Equal(t, core.CategoryEntertainment, budgets[0].Category, "sorted by category label")
	assert.Equal(t, core.CategoryShopping, budgets[1].Category)

	rec, env = ts.do(http.MethodGet, "/api/budgets?month=1&year=2020", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, env = ts.do(http.MethodGet, "/api/budgets?month=13&year=1999", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"month", "year"}, detailFields(env))

	rec, _ = ts.do(http.MethodDelete, "/api/budgets/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env = ts.do(http.MethodDelete, "/api/budgets/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Budget not found", env.Error)
}

func TestUpsertBudget_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodPost, "/api/budgets", `{"amount":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"category", "month", "year"}, detailFields(env))

	rec, env = ts.do(http.MethodPost, "/api/budgets", `{"category":"Shopping","amount":-1,"month":0,"year":2024}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"amount", "month"}, detailFields(env))
}

func TestAnalytics(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodGet, "/api/analytics?month=6", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Month and year are required.", env.Error)

	ts.do(http.MethodPost, "/api/budgets", `{"category":"Food & Dining","amount":100,"month":6,"year":2024}`)
	ts.createTransaction(`{"amount":-120,"date":"2024-06-05","description":"Dinner","category":"Food & Dining"}`)
	ts.createTransaction(`{"amount":-80,"date":"2024-05-05","description":"Old dinner","category":"Food & Dining"}`)

	rec, env = ts.do(http.MethodGet, "/api/analytics?month=6&year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeData[struct {
		BudgetSummaries []core.BudgetSummary `json:"budgetSummaries"`
		Insights        []core.Insight       `json:"insights"`
	}](t, env)
	require.Len(t, got.BudgetSummaries, 1)
	assert.EqualValues(t, 12000, got.BudgetSummaries[0].Spent.Cents)
	assert.EqualValues(t, 120, got.BudgetSummaries[0].Percentage)
	assert.Equal(t, core.StatusOver, got.BudgetSummaries[0].Status)
	assert.NotEmpty(t, got.Insights)

	rec, env = ts.do(http.MethodGet, "/api/analytics?month=13&year=2024", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"month"}, detailFields(env))
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)
	ts.createTransaction(`{"amount":1000,"date":"2024-06-03","description":"Salary","category":"Income/Salary"}`)
	ts.createTransaction(`{"amount":-200,"date":"2024-06-05","description":"Rent share","category":"Bills & Utilities"}`)
	ts.createTransaction(`{"amount":-50,"date":"2024-04-20","description":"Cinema","category":"Entertainment"}`)

	rec, env := ts.do(http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type dashboard struct {
		Period string `json:"period"`
		Range  struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"range"`
		core.Dashboard
	}
	got := decodeData[dashboard](t, env)
	assert.Equal(t, "this_month", got.Period)
	assert.Equal(t, "2024-06-01", got.Range.From)
	assert.Equal(t, "2024-06-30", got.Range.To)
	assert.EqualValues(t, 100000, got.MonthlySummary.TotalIncome.Cents)
	assert.EqualValues(t, 20000, got.MonthlySummary.TotalExpenses.Cents)
	assert.EqualValues(t, 80000, got.MonthlySummary.Net.Cents)
	require.Len(t, got.RecentTransactions, 3)
	assert.Equal(t, "Cinema", got.RecentTransactions[2].Description)

	rec, env = ts.do(http.MethodGet, "/api/dashboard?period=last_3_months", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeData[dashboard](t, env)
	assert.Equal(t, "2024-04-01", got.Range.From)
	assert.EqualValues(t, 25000, got.MonthlySummary.TotalExpenses.Cents)
	assert.Len(t, got.MonthlyChartData, 2)

	rec, env = ts.do(http.MethodGet, "/api/dashboard?period=forever", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeBadRequest, env.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Code)

	rec, env = ts.do(http.MethodPatch, "/api/transactions", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, CodeMethodNotAllowed, env.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		rec, _ := ts.do(http.MethodGet, "/api/categories", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := ts.do(http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, env.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.createTransaction(`{"amount":1,"date":"2024-06-01","description":"x"}`)

	rec, _ := ts.do(http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "transactions_created_total 1\n")
	assert.Contains(t, body, "http_requests_total 1\n", "counted when the request completes")
	assert.Contains(t, body, "uptime_seconds 0\n")
}

func TestShutdownIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	assert.NoError(t, ts.srv.Shutdown(context.Background()))
	assert.NoError(t, ts.srv.Shutdown(context.Background()))
}
