package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/kfin/internal/api/handlers"
	"github.com/wonny/kfin/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// 라우팅 설정은 이 함수에서만
func NewRouter(
	financialHandler *handlers.FinancialHandler,
	valuationHandler *handlers.ValuationHandler,
	collectHandler *handlers.CollectHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Financial statements
	api.HandleFunc("/financials/{ticker}/collect", financialHandler.Collect).Methods("POST")
	api.HandleFunc("/financials/{ticker}/latest", financialHandler.GetLatest).Methods("GET")
	api.HandleFunc("/financials/{ticker}", financialHandler.List).Methods("GET")

	// Valuations
	api.HandleFunc("/valuations/screen", valuationHandler.Screen).Methods("GET")
	api.HandleFunc("/valuations/refresh-all", valuationHandler.RefreshAll).Methods("POST")
	api.HandleFunc("/valuations/{ticker}/ttm", valuationHandler.GetTTMSummary).Methods("GET")
	api.HandleFunc("/valuations/{ticker}/eps-trend", valuationHandler.GetEPSTrend).Methods("GET")
	api.HandleFunc("/valuations/{ticker}/refresh", valuationHandler.Refresh).Methods("POST")
	api.HandleFunc("/valuations/{ticker}", valuationHandler.Get).Methods("GET")

	// Bulk collection and research
	api.HandleFunc("/collect/prices", collectHandler.CollectPrices).Methods("POST")
	api.HandleFunc("/collect/financials", collectHandler.CollectFinancials).Methods("POST")
	api.HandleFunc("/collect/research", collectHandler.CollectResearch).Methods("POST")
	api.HandleFunc("/research/{ticker}", collectHandler.ListResearch).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "kfin-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
