package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/storage"
	"github.com/ogaspar/ballast/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	log := logger.NewNop()
	return NewRouter(NewStatusHandler(store, log), log), store
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetPortfolio(t *testing.T) {
	router, store := newTestRouter(t)

	port := contracts.NewPortfolio(500)
	port.Positions["AAPL"] = 300
	require.NoError(t, store.PutJSON(context.Background(), storage.KeyPortfolio, port))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/portfolio", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got contracts.Portfolio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 500.0, got.Cash)
	assert.Equal(t, 300.0, got.Positions["AAPL"])
}

func TestGetPlan_MissingSnapshot(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/plan", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetValidation(t *testing.T) {
	router, store := newTestRouter(t)

	report := &contracts.ValidationReport{Status: contracts.ValidationOK}
	require.NoError(t, store.PutJSON(context.Background(), storage.KeyValidation, report))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/validation", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got contracts.ValidationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, contracts.ValidationOK, got.Status)
}
