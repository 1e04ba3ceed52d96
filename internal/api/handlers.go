package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/backtest"
	"github.com/rxtech-lab/gold-data/internal/logger"
	"github.com/rxtech-lab/gold-data/internal/signals"
	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
)

// Updater brings the cached series up to date.
type Updater interface {
	Update(ctx context.Context) (marketdata.UpdateResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	cache     cache.Cache
	updater   Updater
	generator *signals.Generator
	store     *signals.Store
	backtests *backtest.Store
	logger    *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(
	c cache.Cache,
	updater Updater,
	generator *signals.Generator,
	store *signals.Store,
	backtests *backtest.Store,
	log *zap.Logger,
) *Handler {
	return &Handler{
		cache:     c,
		updater:   updater,
		generator: generator,
		store:     store,
		backtests: backtests,
		logger:    logger.OrNop(log),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type updateResponse struct {
	Message      string `json:"message"`
	AddedRecords int    `json:"addedRecords"`
	Status       string `json:"status"`
	Latest       string `json:"latest,omitempty"`
}

type generateResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// backtestRequest is the body of POST /api/backtest/run. Zero windows fall back
// to the generator's windows.
type backtestRequest struct {
	StartDate   types.Date `json:"startDate"`
	EndDate     types.Date `json:"endDate"`
	ShortWindow int        `json:"shortWindow"`
	LongWindow  int        `json:"longWindow"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetGoldPrices handles GET /api/gold
func (h *Handler) GetGoldPrices(w http.ResponseWriter, _ *http.Request) {
	bars, err := h.loadBars()
	if err != nil {
		h.logger.Error("Failed to load gold prices", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "Failed to load gold prices"})

		return
	}

	respondJSON(w, http.StatusOK, bars)
}

// UpdateGoldPrices handles POST /api/gold/update
func (h *Handler) UpdateGoldPrices(w http.ResponseWriter, r *http.Request) {
	result, err := h.updater.Update(r.Context())
	if err != nil {
		h.logger.Error("Update failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "Update failed"})

		return
	}

	respondJSON(w, http.StatusOK, updateResponse{
		Message:      "Data updated",
		AddedRecords: result.Added,
		Status:       string(result.Status),
		Latest:       result.Latest.String(),
	})
}

// GetPredictions handles GET /api/predictions
func (h *Handler) GetPredictions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List())
}

// GeneratePredictions handles POST /api/predictions/generate
func (h *Handler) GeneratePredictions(w http.ResponseWriter, _ *http.Request) {
	bars, err := h.loadBars()
	if err != nil {
		h.logger.Error("Failed to load gold prices", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "Failed"})

		return
	}

	generated, err := h.generator.Generate(bars)
	if errors.IsInsufficientDataError(err) {
		respondJSON(w, http.StatusOK, generateResponse{Message: "Not enough data", Count: 0})

		return
	}

	if err != nil {
		h.logger.Error("Failed to generate predictions", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "Failed"})

		return
	}

	h.store.Replace(generated)
	h.logger.Info("Generated predictions", zap.Int("count", len(generated)), zap.Int("bars", len(bars)))

	respondJSON(w, http.StatusOK, generateResponse{Message: "Generated", Count: len(generated)})
}

// RunBacktest handles POST /api/backtest/run
func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var request backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})

		return
	}

	config := h.generator.Config()
	if request.ShortWindow != 0 {
		config.ShortWindow = request.ShortWindow
	}

	if request.LongWindow != 0 {
		config.LongWindow = request.LongWindow
	}

	bars, err := h.loadBars()
	if err != nil {
		h.logger.Error("Failed to load gold prices", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "Failed"})

		return
	}

	result, err := backtest.Run(bars, backtest.Params{
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
		Config:    config,
	}, time.Now())

	if err != nil {
		switch errors.GetCode(err) {
		case errors.ErrCodeInsufficientData:
			respondJSON(w, http.StatusBadRequest, messageResponse{Message: "Range too small"})
		case errors.ErrCodeMissingParameter, errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidConfiguration:
			h.logger.Debug("Rejected backtest", zap.Error(err))
			respondJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid backtest parameters"})
		default:
			h.logger.Error("Backtest failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, messageResponse{Message: "Failed"})
		}

		return
	}

	h.backtests.Add(result)
	h.logger.Info("Ran backtest",
		zap.String("name", result.Name),
		zap.Int("trades", result.TradesCount),
		zap.Float64("totalReturn", result.TotalReturn))

	respondJSON(w, http.StatusOK, result)
}

// ListBacktests handles GET /api/backtest
func (h *Handler) ListBacktests(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.backtests.List())
}

// loadBars reads the cache. A cache that does not exist yet reads as empty.
func (h *Handler) loadBars() ([]types.Bar, error) {
	bars, err := h.cache.Load()
	if errors.HasCode(err, errors.ErrCodeDataNotFound) {
		return []types.Bar{}, nil
	}

	if err != nil {
		return nil, err
	}

	if bars == nil {
		bars = []types.Bar{}
	}

	return bars, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
