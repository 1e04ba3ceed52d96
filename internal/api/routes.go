package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(handler.logRequests)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/gold", handler.GetGoldPrices).Methods(http.MethodGet)
	api.HandleFunc("/gold/update", handler.UpdateGoldPrices).Methods(http.MethodPost)
	api.HandleFunc("/predictions", handler.GetPredictions).Methods(http.MethodGet)
	api.HandleFunc("/predictions/generate", handler.GeneratePredictions).Methods(http.MethodPost)
	api.HandleFunc("/backtest", handler.ListBacktests).Methods(http.MethodGet)
	api.HandleFunc("/backtest/run", handler.RunBacktest).Methods(http.MethodPost)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		h.logger.Info("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(started)))
	})
}
