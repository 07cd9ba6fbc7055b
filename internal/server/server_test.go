package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/pipeline"
	"MarketLens/internal/recorder"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Errors  []ValidationError `json:"errors"`
}

func newTestServer(t *testing.T, mock *collector.MockFetcher) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := recorder.NewPrometheusRecorder(reg)
	require.NoError(t, err)

	h := NewHandler(pipeline.NewScreener(mock, rec, 252), pipeline.NewFX(mock, rec), Defaults{})
	return New(h, reg, Options{Addr: ":0"})
}

func do(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var env envelope
	if rec.Header().Get("Content-Type") != "image/png" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestScreener_OK(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	rec, env := do(t, s, "/api/screener?tickers=aapl,msft&start=2023-01-01&end=2023-06-30")
	require.Equal(t, http.StatusOK, rec.Code)

	var data screenerResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{"AAPL", "MSFT"}, data.Tickers)
	assert.Len(t, data.Metrics, 2)
	assert.Len(t, data.Cumulative.Series, 2)
	assert.Len(t, data.Cumulative.Series["AAPL"], len(data.Cumulative.Dates))
}

func TestScreener_Defaults(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	rec, env := do(t, s, "/api/screener")
	require.Equal(t, http.StatusOK, rec.Code)

	var data screenerResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, data.Tickers)
	assert.Equal(t, "2023-01-01", data.Start)
	assert.Equal(t, time.Now().Format(dateLayout), data.End)
}

func TestScreener_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mock   *collector.MockFetcher
		target string
		status int
		code   string
	}{
		{"malformed date", &collector.MockFetcher{}, "/api/screener?start=01/01/2023", http.StatusBadRequest, "invalid_request"},
		{"reversed range", &collector.MockFetcher{}, "/api/screener?start=2024-01-01&end=2023-01-01", http.StatusBadRequest, "invalid_range"},
		{"equal dates", &collector.MockFetcher{}, "/api/screener?start=2024-01-01&end=2024-01-01", http.StatusBadRequest, "invalid_range"},
		{"blank tickers", &collector.MockFetcher{}, "/api/screener?tickers=,,", http.StatusBadRequest, "invalid_range"},
		{"provider down", &collector.MockFetcher{Err: errors.New("timeout")}, "/api/screener?tickers=AAPL", http.StatusBadGateway, "data_source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, newTestServer(t, tt.mock), tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestScreener_InvalidRangeDoesNotFetch(t *testing.T) {
	mock := &collector.MockFetcher{}
	do(t, newTestServer(t, mock), "/api/screener?start=2024-01-01&end=2024-01-01")
	assert.Equal(t, 0, mock.Calls)
}

func TestScreener_InsufficientData(t *testing.T) {
	table := model.NewPriceTable(model.ShapeFieldByInstrument, []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	table.Set(model.FieldClose, "ZZZZ", []float64{math.NaN(), math.NaN()})

	rec, env := do(t, newTestServer(t, &collector.MockFetcher{Table: table}), "/api/screener?tickers=ZZZZ")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "warning", env.Code)
}

func TestScreenerChart(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	for _, kind := range []string{ChartCumulative, ChartReturnVolatility, ChartRiskReturn} {
		rec, _ := do(t, s, "/api/screener/charts/"+kind+"?start=2023-01-01&end=2023-04-01")
		require.Equal(t, http.StatusOK, rec.Code, kind)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), kind)
	}
}

func TestScreenerChart_UnknownKind(t *testing.T) {
	mock := &collector.MockFetcher{}
	rec, _ := do(t, newTestServer(t, mock), "/api/screener/charts/pie")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, mock.Calls)
}

func TestFX_OK(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{Price: 7.8})
	rec, env := do(t, s, "/api/fx?pair=EUR&days=60")
	require.Equal(t, http.StatusOK, rec.Code)

	var data fxResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "EURHKD=X", data.Symbol)
	assert.Equal(t, "EUR → HKD", data.Label)
	assert.Len(t, data.Rates, 60)
	require.Len(t, data.MovingAverage, 60)
	assert.Nil(t, data.MovingAverage[28])
	assert.NotNil(t, data.MovingAverage[29])
	assert.Equal(t, data.Rates[59], data.LatestRate)
}

func TestFX_Defaults(t *testing.T) {
	rec, env := do(t, newTestServer(t, &collector.MockFetcher{}), "/api/fx")
	require.Equal(t, http.StatusOK, rec.Code)

	var data fxResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "USDHKD=X", data.Symbol)
	assert.Equal(t, 180, data.Days)
}

func TestFX_Validation(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	for _, target := range []string{"/api/fx?days=29", "/api/fx?days=366", "/api/fx?pair=GBP", "/api/fx?days=abc"} {
		rec, env := do(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, env.Errors, target)
	}
}

func TestFXChart(t *testing.T) {
	rec, _ := do(t, newTestServer(t, &collector.MockFetcher{}), "/api/fx/chart?pair=JPY&days=90")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestFXChart_SinglePoint(t *testing.T) {
	table := model.NewPriceTable(model.ShapeFlat, []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
	table.Set(model.FieldClose, "", []float64{7.8})

	rec, env := do(t, newTestServer(t, &collector.MockFetcher{Table: table}), "/api/fx/chart?pair=USD&days=30")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "warning", env.Code)
}

func TestScreenerChart_TwoObservations(t *testing.T) {
	table := model.NewPriceTable(model.ShapeFieldByInstrument, []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	table.Set(model.FieldClose, "AAPL", []float64{100, 101})

	rec, _ := do(t, newTestServer(t, &collector.MockFetcher{Table: table}),
		"/api/screener/charts/"+ChartCumulative+"?tickers=AAPL&start=2024-01-01&end=2024-02-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestFXPairs(t *testing.T) {
	rec, env := do(t, newTestServer(t, &collector.MockFetcher{}), "/api/fx/pairs")
	require.Equal(t, http.StatusOK, rec.Code)

	var pairs []pairJSON
	require.NoError(t, json.Unmarshal(env.Data, &pairs))
	require.Len(t, pairs, 4)
	assert.Equal(t, "USDHKD=X", pairs[0].Symbol)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	do(t, s, "/api/fx?days=30")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketlens_pipeline_runs_total")
	assert.Contains(t, rec.Body.String(), "marketlens_fx_last_rate")
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
