//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplor/dataplor-cli/internal/config"
	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/schema"
	"github.com/dataplor/dataplor-cli/internal/source"
)

func testConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{Driver: "sqlite"},
		Quality: config.QualityConfig{
			Scorer:                  "weighted",
			MissingCriticalPct:      20,
			MissingWarningPct:       5,
			DuplicateCriticalPct:    5,
			DuplicateWarningPct:     1,
			InvalidCoordCriticalPct: 10,
			MissingNameCriticalPct:  10,
			MissingCategoryCritPct:  15,
			ShortAddressWarningPct:  5,
			InvalidPhoneWarningPct:  5,
			MinAddressLength:        10,
			CategoricalMaxDistinct:  15,
		},
		CPG: config.CPGConfig{
			MinChainLocations:      2,
			GapMinLocations:        1,
			DensityTopN:            10,
			MinClusterSize:         3,
			EngagementMinLocations: 1,
			ChainQualityMinStores:  1,
			LowConfidenceThreshold: 0.7,
			DefaultOpenTime:        "09:00:00",
			DefaultCloseTime:       "17:00:00",
			DefaultWindowHours:     8,
		},
		Schema: schema.DefaultConfig(),
		Server: config.ServerConfig{
			Port:           8080,
			RatePerSecond:  1000,
			RateBurst:      1000,
			AllowedOrigins: []string{"*"},
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}

// newTestRouter seeds a sqlite source with a small places table and
// builds the API router over it.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	cfg = testConfig()

	src, err := source.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	snap, err := frame.New("places", []*frame.Column{
		{Name: "name", Values: []any{"Albertsons", "WinCo", "WinCo"}},
		{Name: "main_category", Values: []any{"retail", "convenience_and_grocery_stores", "convenience_and_grocery_stores"}},
		{Name: "city", Values: []any{"Boise", "Boise", "Boise"}},
		{Name: "latitude", Values: []any{43.61, 43.62, 43.62}},
		{Name: "longitude", Values: []any{-116.20, -116.21, -116.21}},
	})
	require.NoError(t, err)
	_, err = src.SaveTable(context.Background(), snap, "places")
	require.NoError(t, err)

	return buildRouter(&apiServer{src: src})
}

func doJSON(t *testing.T, mux *chi.Mux, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestServe_Health(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_Tables(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodGet, "/api/tables", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var metas []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &metas))
	require.Len(t, metas, 1)
	assert.Equal(t, "places", metas[0]["name"])
}

func TestServe_Analyze(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodPost, "/api/analyze", map[string]any{"table": "places"})
	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Profile struct {
			RowCount int `json:"row_count"`
		} `json:"profile"`
		Score struct {
			Strategy string  `json:"strategy"`
			Value    float64 `json:"score"`
		} `json:"score"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Profile.RowCount)
	assert.Equal(t, "weighted", res.Score.Strategy)
	assert.Greater(t, res.Score.Value, 0.0)
}

func TestServe_Analyze_BadRequests(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodPost, "/api/analyze", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "table is required")

	rr = doJSON(t, mux, http.MethodPost, "/api/analyze", map[string]any{"table": "nope"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "table not found")
}

func TestServe_Clean(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodPost, "/api/clean", map[string]any{
		"table": "places",
		"steps": []map[string]any{{"op": "remove_duplicates"}},
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Changes []struct {
			Step         string `json:"step"`
			RowsAffected int    `json:"rows_affected"`
		} `json:"changes"`
		SavedAs string `json:"saved_as"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "Remove Duplicates", res.Changes[0].Step)
	assert.Equal(t, 1, res.Changes[0].RowsAffected)
	assert.Empty(t, res.SavedAs)
}

func TestServe_Clean_RequiresSteps(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodPost, "/api/clean", map[string]any{"table": "places"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "table and steps are required")
}

func TestServe_Report(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodGet, "/api/report/places", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var rep struct {
		Table        string  `json:"table"`
		QualityScore float64 `json:"quality_score"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	assert.Equal(t, "places", rep.Table)
	assert.Greater(t, rep.QualityScore, 0.0)
}

func TestServe_CPG(t *testing.T) {
	mux := newTestRouter(t)

	rr := doJSON(t, mux, http.MethodGet, "/api/cpg/territory?table=places", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Analysis string           `json:"analysis"`
		Rows     []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "territory", res.Analysis)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Boise", res.Rows[0]["city"])

	rr = doJSON(t, mux, http.MethodGet, "/api/cpg/market-share?table=places", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown analysis")

	rr = doJSON(t, mux, http.MethodGet, "/api/cpg/territory", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "table query parameter is required")
}

func TestServe_RateLimit(t *testing.T) {
	cfg = testConfig()
	cfg.Server.RatePerSecond = 1
	cfg.Server.RateBurst = 1

	src, err := source.NewSQLite(filepath.Join(t.TempDir(), "rate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	mux := buildRouter(&apiServer{src: src})

	first := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "rate limit exceeded")
}
