package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/service"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	run     *domain.ForecastRun
	runErr  error
	latest  *domain.ForecastRun
	eval    *forecast.Evaluation
	evalErr error
	history []repository.ForecastRunRecord
	histErr error
	snaps   []storage.ObjectInfo
	snapErr error
	status  service.EngineStatus
}

func (s *stubService) Run(ctx context.Context) (*domain.ForecastRun, error) {
	return s.run, s.runErr
}

func (s *stubService) Latest(ctx context.Context) (*domain.ForecastRun, error) {
	if s.latest == nil {
		return nil, service.ErrNoForecast
	}
	return s.latest, nil
}

func (s *stubService) Summary(ctx context.Context) (*domain.ForecastSummary, error) {
	if s.latest == nil {
		return nil, service.ErrNoForecast
	}
	summary := domain.Summarize(s.latest)
	return &summary, nil
}

func (s *stubService) Status(ctx context.Context) service.EngineStatus {
	return s.status
}

func (s *stubService) Explain(ctx context.Context, sku string) (*forecast.Evaluation, error) {
	if s.evalErr != nil {
		return nil, s.evalErr
	}
	if s.eval == nil || s.eval.Forecast.SKU != sku {
		return nil, forecast.ErrItemNotFound
	}
	return s.eval, nil
}

func (s *stubService) History(ctx context.Context, limit int) ([]repository.ForecastRunRecord, error) {
	return s.history, s.histErr
}

func (s *stubService) Snapshots(ctx context.Context) ([]storage.ObjectInfo, error) {
	return s.snaps, s.snapErr
}

func sampleRun() *domain.ForecastRun {
	return &domain.ForecastRun{
		Status:     domain.RunStatusPartial,
		TotalItems: 3,
		Skipped:    1,
		Forecasts: []domain.Forecast{
			{SKU: "SKU-A", ProductName: "Widget", PredictedDemand: 500, CurrentStock: 100, Action: domain.ActionRestock, Confidence: domain.ConfidenceHigh, Reason: "High cart/wishlist activity and low inventory", InventoryStatus: domain.InventoryLowStock},
			{SKU: "SKU-B", ProductName: "Gadget", PredictedDemand: 0, CurrentStock: 50, Action: domain.ActionDiscount, Confidence: domain.ConfidenceLow, Reason: "High inventory with good product performance", InventoryStatus: domain.InventoryOverstock},
		},
		SkipReasons: map[domain.SkipReason]int{domain.SkipIntentLookup: 1},
		StartedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	router := NewRouter(&Services{ForecastService: &stubService{}}, nil)

	w := do(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRunForecast(t *testing.T) {
	router := NewRouter(&Services{ForecastService: &stubService{run: sampleRun()}}, nil)

	w := do(t, router, http.MethodPost, "/api/v1/forecast")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Header().Get("X-Forecast-Status"))
	assert.Equal(t, "1", w.Header().Get("X-Forecast-Skipped"))

	var forecasts []domain.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forecasts))
	require.Len(t, forecasts, 2)
	assert.Equal(t, "SKU-A", forecasts[0].SKU)
	assert.Equal(t, domain.ActionRestock, forecasts[0].Action)
}

func TestRunForecast_NoDataIsEmptyArray(t *testing.T) {
	run := &domain.ForecastRun{Status: domain.RunStatusNoData, Forecasts: []domain.Forecast{}}
	router := NewRouter(&Services{ForecastService: &stubService{run: run}}, nil)

	w := do(t, router, http.MethodPost, "/api/v1/forecast")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_data", w.Header().Get("X-Forecast-Status"))
	assert.Equal(t, "[]", w.Body.String())
}

func TestRunForecast_CSV(t *testing.T) {
	router := NewRouter(&Services{ForecastService: &stubService{run: sampleRun()}}, nil)

	w := do(t, router, http.MethodPost, "/api/v1/forecast?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "SKU-A,Widget,"))
}

func TestRunForecast_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"run in progress", service.ErrRunInProgress, http.StatusConflict},
		{"analytics down", forecast.ErrAnalyticsUnavailable, http.StatusServiceUnavailable},
		{"intent down", forecast.ErrIntentUnavailable, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&Services{ForecastService: &stubService{runErr: tt.err}}, nil)
			w := do(t, router, http.MethodPost, "/api/v1/forecast")
			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, w.Header().Get("X-Forecast-Status"))
		})
	}
}

func TestRunForecast_BadFormat(t *testing.T) {
	router := NewRouter(&Services{ForecastService: &stubService{run: sampleRun()}}, nil)
	w := do(t, router, http.MethodPost, "/api/v1/forecast?format=xml")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLatestAndSummary(t *testing.T) {
	stub := &stubService{}
	router := NewRouter(&Services{ForecastService: stub}, nil)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/forecast/latest").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/forecast/summary").Code)

	stub.latest = sampleRun()

	w := do(t, router, http.MethodGet, "/api/v1/forecast/latest")
	require.Equal(t, http.StatusOK, w.Code)
	var run domain.ForecastRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, domain.RunStatusPartial, run.Status)
	assert.Len(t, run.Forecasts, 2)

	w = do(t, router, http.MethodGet, "/api/v1/forecast/summary")
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.ForecastSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalForecasts)
	assert.Equal(t, 1, summary.NeedsRestock)
	assert.Equal(t, 1, summary.LowStock)
	assert.Equal(t, 1, summary.Overstock)
	assert.Len(t, summary.Actions, 4)
}

func TestGetLatest_Filters(t *testing.T) {
	stub := &stubService{latest: sampleRun()}
	router := NewRouter(&Services{ForecastService: stub}, nil)

	w := do(t, router, http.MethodGet, "/api/v1/forecast/latest?action=discount")
	require.Equal(t, http.StatusOK, w.Code)
	var run domain.ForecastRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.Len(t, run.Forecasts, 1)
	assert.Equal(t, "SKU-B", run.Forecasts[0].SKU)

	w = do(t, router, http.MethodGet, "/api/v1/forecast/latest?inventory_status=low_stock&confidence=high")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.Len(t, run.Forecasts, 1)
	assert.Equal(t, "SKU-A", run.Forecasts[0].SKU)

	w = do(t, router, http.MethodGet, "/api/v1/forecast/latest?action=restock&confidence=low")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"forecasts":[]`)

	// the cached run is not narrowed by a filtered request
	assert.Len(t, stub.latest.Forecasts, 2)

	for _, q := range []string{"action=hold", "confidence=certain", "inventory_status=backorder"} {
		w = do(t, router, http.MethodGet, "/api/v1/forecast/latest?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetStatus(t *testing.T) {
	stub := &stubService{status: service.EngineStatus{
		State:   "ready",
		LastRun: &service.RunInfo{Status: domain.RunStatusCompleted, Forecasts: 12},
	}}
	router := NewRouter(&Services{ForecastService: stub}, nil)

	w := do(t, router, http.MethodGet, "/api/v1/forecast/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"ready"`)
	assert.Contains(t, w.Body.String(), `"forecasts":12`)
}

func TestGetItem(t *testing.T) {
	stub := &stubService{eval: &forecast.Evaluation{
		Forecast:     domain.Forecast{SKU: "SKU-B", Action: domain.ActionDiscount},
		CoverageDays: math.Inf(1),
	}}
	router := NewRouter(&Services{ForecastService: stub}, nil)

	w := do(t, router, http.MethodGet, "/api/v1/forecast/items/SKU-B")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["coverage_days"])
	assert.Equal(t, "DISCOUNT", body["forecast"].(map[string]any)["action"])

	stub.eval.CoverageDays = 6.6666
	w = do(t, router, http.MethodGet, "/api/v1/forecast/items/SKU-B")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 6.67, body["coverage_days"])

	w = do(t, router, http.MethodGet, "/api/v1/forecast/items/SKU-X")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetItem_Multipliers(t *testing.T) {
	stub := &stubService{eval: &forecast.Evaluation{
		Forecast:     domain.Forecast{SKU: "SKU-A", Action: domain.ActionRestock},
		CoverageDays: 0.3,
		Multipliers:  map[string]float64{"base": 300, "cart": 1.2},
	}}
	router := NewRouter(&Services{ForecastService: stub}, nil)

	w := do(t, router, http.MethodGet, "/api/v1/forecast/items/SKU-A")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"base": 300.0, "cart": 1.2}, body["multipliers"])
}

func TestGetItem_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid row", fmt.Errorf("sku BAD-001: %w: inventory_count is null", forecast.ErrInvalidItem), http.StatusUnprocessableEntity},
		{"analytics down", fmt.Errorf("%w: connection refused", forecast.ErrAnalyticsUnavailable), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&Services{ForecastService: &stubService{evalErr: tt.err}}, nil)
			w := do(t, router, http.MethodGet, "/api/v1/forecast/items/BAD-001")
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestGetHistoryAndSnapshots(t *testing.T) {
	stub := &stubService{histErr: service.ErrHistoryDisabled, snapErr: service.ErrSnapshotsDisabled}
	router := NewRouter(&Services{ForecastService: stub}, nil)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/forecast/runs").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/forecast/snapshots").Code)

	stub.histErr, stub.snapErr = nil, nil
	stub.snaps = []storage.ObjectInfo{{Key: "forecasts/a.json", Size: 10}}

	w := do(t, router, http.MethodGet, "/api/v1/forecast/runs?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/forecast/snapshots")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "forecasts/a.json")
}

func TestCORSExposesForecastHeaders(t *testing.T) {
	router := NewRouter(&Services{ForecastService: &stubService{run: sampleRun()}}, []string{"https://ops.example.com"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Forecast-Status")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"https://a.example.com, https://b.example.com", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
