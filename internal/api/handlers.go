package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ogaspar/ballast/internal/contracts"
	"github.com/ogaspar/ballast/internal/storage"
	"github.com/ogaspar/ballast/pkg/logger"
)

// StatusHandler serves the latest pipeline snapshots from the store.
type StatusHandler struct {
	store  storage.Store
	logger *logger.Logger
}

// NewStatusHandler creates the handler.
func NewStatusHandler(store storage.Store, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		store:  store,
		logger: log,
	}
}

// GetPortfolio returns the current portfolio snapshot.
// GET /api/v1/portfolio
func (h *StatusHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	var port contracts.Portfolio
	h.serveSnapshot(w, r, storage.KeyPortfolio, &port)
}

// GetPlan returns the latest allocation plan.
// GET /api/v1/plan
func (h *StatusHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	var plan contracts.AllocationPlan
	h.serveSnapshot(w, r, storage.KeyPlan, &plan)
}

// GetValidation returns the latest validation report.
// GET /api/v1/validation
func (h *StatusHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	var report contracts.ValidationReport
	h.serveSnapshot(w, r, storage.KeyValidation, &report)
}

func (h *StatusHandler) serveSnapshot(w http.ResponseWriter, r *http.Request, key string, dest interface{}) {
	err := h.store.GetJSON(r.Context(), key, dest)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no snapshot for "+key)
			return
		}
		h.logger.WithError(err).WithField("key", key).Error("failed to read snapshot")
		respondError(w, http.StatusInternalServerError, "failed to read "+key)
		return
	}

	respondJSON(w, http.StatusOK, dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
