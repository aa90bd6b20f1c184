package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise-ai/pathwise/internal/api/handlers"
	mw "github.com/pathwise-ai/pathwise/internal/api/middleware"
	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/service"
	"github.com/pathwise-ai/pathwise/internal/store"
	"go.uber.org/zap"
)

// App holds the router and process-level metrics.
type App struct {
	Router       *chi.Mux
	Registry     *service.SessionRegistry
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires stores, the session registry, and handlers into a chi
// router. A nil pool runs the engine fully in memory.
func NewApp(db *pgxpool.Pool, cfg service.Config, logger *zap.Logger) *App {
	var (
		sessionStore domain.SessionStore
		eventStore   domain.EventStore
		attemptStore domain.AttemptStore
	)
	if db != nil {
		sessionStore = store.NewSessionStore(db)
		eventStore = store.NewEventStore(db)
		attemptStore = store.NewAttemptStore(db)
	}

	classifier := service.NewHeuristicClassifier()
	registry := service.NewSessionRegistry(cfg, classifier, sessionStore, eventStore, attemptStore, logger)

	sessionHandler := handlers.NewSessionHandler(registry, sessionStore)
	catalogHandler := handlers.NewCatalogHandler()

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Registry:  registry,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Process metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Get("/protocols", catalogHandler.ListProtocols)
		r.Get("/strategies", catalogHandler.ListStrategies)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetStatus)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/events", sessionHandler.RecordStep)
				r.Get("/path", sessionHandler.GetPath)
				r.Get("/metrics", sessionHandler.GetMetrics)
				r.Get("/warnings", sessionHandler.GetWarnings)
				r.Get("/escape-routes", sessionHandler.GetEscapeRoutes)
				r.Post("/options", sessionHandler.GenerateOptions)
				r.Route("/escape", func(r chi.Router) {
					r.Post("/analysis", sessionHandler.AnalyzeEscape)
					r.Post("/execute", sessionHandler.ExecuteEscape)
					r.Get("/stats", sessionHandler.GetEscapeStats)
				})
				r.Route("/monitor", func(r chi.Router) {
					r.Get("/history", sessionHandler.GetMonitorHistory)
					r.Delete("/history", sessionHandler.ResetMonitoring)
				})
			})
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"sessions":       app.Registry.Len(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Compile-time checks that the pgx stores satisfy the domain interfaces.
var (
	_ domain.SessionStore = (*store.SessionStore)(nil)
	_ domain.EventStore   = (*store.EventStore)(nil)
	_ domain.AttemptStore = (*store.AttemptStore)(nil)
)
