package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
	"github.com/fyrsmithlabs/sdrclassifier/internal/logging"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/service"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

type testServer struct {
	*Server
	log *logging.TestLogger
}

func setupTestServer(t *testing.T, cfg *Config) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	log := logging.NewTestLogger()

	svc, err := service.New(classifier.DefaultConfig("unknown"),
		service.WithRegisterer(reg),
		service.WithLogger(log.Logger),
	)
	require.NoError(t, err)

	server, err := NewServer(svc, log.Logger, cfg, WithGatherer(reg), WithVersion("v-test"))
	require.NoError(t, err)
	return &testServer{Server: server, log: log}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func intPtr(n int) *int { return &n }

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server := setupTestServer(t, nil)
		assert.Equal(t, "127.0.0.1", server.config.Host)
		assert.Equal(t, 8095, server.config.Port)
		assert.NotNil(t, server.Echo())
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		svc, err := service.New(classifier.DefaultConfig("unknown"), service.WithRegisterer(prometheus.NewRegistry()))
		require.NoError(t, err)
		_, err = NewServer(svc, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when service is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service cannot be nil")
	})
}

func TestFromSection(t *testing.T) {
	cfg := FromSection(config.Default().Server)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8095, cfg.Port)
	assert.Equal(t, "4M", cfg.BodyLimit)
	assert.Equal(t, 50.0, cfg.RateLimit)
	assert.Equal(t, 100, cfg.RateBurst)
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := server.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestLearnStoredCountWithConcurrentReset(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: sdr.SDR{1, 2}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: sdr.SDR{3, 4}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LearnResponse{Label: "a", Stored: 2}, decode[LearnResponse](t, rec))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 50 {
			server.do(t, http.MethodPost, "/api/v1/reset", nil)
		}
	}()
	go func() {
		defer wg.Done()
		for j := range 50 {
			rec := server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: sdr.SDR{j}})
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.GreaterOrEqual(t, decode[LearnResponse](t, rec).Stored, 1)
		}
	}()
	wg.Wait()
}

func TestLearnPredictFlow(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: sdr.SDR{1, 2, 3, 4}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, LearnResponse{Label: "a", Stored: 1}, decode[LearnResponse](t, rec))

	rec = server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "b", SDR: sdr.SDR{1, 5, 6, 7}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/v1/predict", PredictRequest{SDR: sdr.SDR{1, 2, 3, 9}, HowMany: intPtr(2)})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[PredictResponse](t, rec)
	assert.Equal(t, []classifier.Result[string]{
		{Label: "a", NumOfSameBits: 3, Similarity: 75},
		{Label: "b", NumOfSameBits: 1, Similarity: 25},
	}, resp.Results)

	// how_many defaults to one.
	rec = server.do(t, http.MethodPost, "/api/v1/predict", PredictRequest{SDR: sdr.SDR{1, 2, 3, 9}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[PredictResponse](t, rec).Results, 1)

	rec = server.do(t, http.MethodGet, "/api/v1/labels/a/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HistoryResponse{Label: "a", History: []sdr.SDR{{1, 2, 3, 4}}}, decode[HistoryResponse](t, rec))

	rec = server.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[StatusResponse](t, rec)
	assert.Equal(t, "v-test", st.Version)
	assert.Equal(t, []string{"a", "b"}, st.Classifier.Labels)

	server.log.AssertLogged(t, zapcore.InfoLevel, "http request")
}

func TestLearn_BadRequests(t *testing.T) {
	server := setupTestServer(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"missing label", LearnRequest{SDR: sdr.SDR{1}}, http.StatusBadRequest, "label field is required"},
		{"negative index", LearnRequest{Label: "a", SDR: sdr.SDR{-1}}, http.StatusBadRequest, "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := server.do(t, http.MethodPost, "/api/v1/learn", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/learn", strings.NewReader("invalid json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistory_UnknownLabel(t *testing.T) {
	server := setupTestServer(t, nil)
	rec := server.do(t, http.MethodGet, "/api/v1/labels/nope/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObjectsFlow(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := server.do(t, http.MethodPost, "/api/v1/objects/learn", ObjectsLearnRequest{
		Samples: []spatial.Sample[string]{
			{Label: "cat", SDR: sdr.SDR{1, 2, 3}, Frame: spatial.NewFrame(0, 0, 5, 5)},
			{Label: "cat", SDR: sdr.SDR{4, 5, 6}, Frame: spatial.NewFrame(1, 1, 6, 6)},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ObjectsLearnResponse{Learned: 2, TrainingPool: 2}, decode[ObjectsLearnResponse](t, rec))

	rec = server.do(t, http.MethodPost, "/api/v1/objects/predict", ObjectsPredictRequest{
		Samples: []spatial.Sample[string]{
			{SDR: sdr.SDR{1, 2, 3}, Frame: spatial.NewFrame(10, 10, 0, 0)},
			{SDR: sdr.SDR{4, 5, 6}, Frame: spatial.NewFrame(10, 10, 0, 0)},
		},
		HowManyFeatures: 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pred := decode[ObjectsPredictResponse](t, rec)
	assert.Equal(t, "cat", pred.Winner.Label)
	assert.Len(t, pred.Winners, 1)

	rec = server.do(t, http.MethodPost, "/api/v1/objects/predict", ObjectsPredictRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	pred = decode[ObjectsPredictResponse](t, rec)
	assert.Equal(t, "unknown", pred.Winner.Label)
	assert.Len(t, pred.Winners, 2)

	rec = server.do(t, http.MethodPost, "/api/v1/objects/learn", ObjectsLearnRequest{
		Samples: []spatial.Sample[string]{
			{Label: "cat", SDR: sdr.SDR{1, 2, 3}},
			{Label: "dog", SDR: sdr.SDR{8, 9}},
		},
		Whole: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[ObjectsLearnResponse](t, rec).WholePool)

	rec = server.do(t, http.MethodPost, "/api/v1/objects/validate", ValidateRequest{SDR: sdr.SDR{1, 2, 9}, HowMany: intPtr(2)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cat", "dog"}, decode[ValidateResponse](t, rec).Labels)

	rec = server.do(t, http.MethodPost, "/api/v1/objects/learn", ObjectsLearnRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTraceAndReset(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: sdr.SDR{3, 1}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodGet, "/api/v1/trace", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\na\n3, 1\n........... Cell State .............\n\na\n3, 1\n", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))

	rec = server.do(t, http.MethodPost, "/api/v1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reset", decode[ResetResponse](t, rec).Status)

	rec = server.do(t, http.MethodGet, "/api/v1/status", nil)
	assert.Empty(t, decode[StatusResponse](t, rec).Classifier.Labels)
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t, nil)
	server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: sdr.SDR{1}})

	rec := server.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sdr_labels")
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(t, &Config{Host: "127.0.0.1", Port: 0, RateLimit: 1, RateBurst: 1})

	first := server.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := server.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestBodyLimit(t *testing.T) {
	server := setupTestServer(t, &Config{Host: "127.0.0.1", BodyLimit: "1K"})

	big := make(sdr.SDR, 2000)
	for i := range big {
		big[i] = i
	}
	rec := server.do(t, http.MethodPost, "/api/v1/learn", LearnRequest{Label: "a", SDR: big})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
