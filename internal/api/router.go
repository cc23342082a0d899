package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ecohidalgo/huella/internal/api/handlers"
	mw "github.com/ecohidalgo/huella/internal/api/middleware"
	"github.com/ecohidalgo/huella/internal/config"
	"github.com/ecohidalgo/huella/internal/domain"
	"github.com/ecohidalgo/huella/internal/service"
	"github.com/ecohidalgo/huella/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and shared services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Rules        *service.RuleService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	ruleStore := store.NewRuleStore(db)
	municipioStore := store.NewMunicipioStore(db)

	// Emission-factor catalog, optionally overridden from disk
	factors := domain.NewFactoresEmision()
	if path := config.FactorsPath(); path != "" {
		if err := factors.LoadFromJSON(path); err != nil {
			logger.Warn("no se pudo cargar el catálogo de factores", zap.String("path", path), zap.Error(err))
		}
	}

	// Services
	ruleSvc := service.NewRuleService(context.Background(), ruleStore, logger)
	footprintSvc := service.NewFootprintService(factors, logger)
	suggestionSvc := service.NewSuggestionService(ruleSvc, municipioStore, config.MaxIterations(), logger)

	// Handlers
	footprintHandler := handlers.NewFootprintHandler(footprintSvc)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionSvc)
	ruleHandler := handlers.NewRuleHandler(ruleSvc)
	municipioHandler := handlers.NewMunicipioHandler(municipioStore)

	r := chi.NewRouter()

	// Initialize app with metrics tracking
	app := &App{
		Router:    r,
		Rules:     ruleSvc,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                 // Generate/extract request ID first
	r.Use(middleware.RealIP)                                            // Extract real IP
	r.Use(metricsCollector.Middleware)                                  // Collect metrics
	r.Use(mw.Logging(logger))                                           // Log all requests
	r.Use(middleware.Recoverer)                                         // Recover from panics
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst())) // Rate limiting

	// Health
	r.Get("/health", healthHandler(db))

	// Metrics
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/footprint", footprintHandler.Calculate)
		r.Get("/factors", footprintHandler.Factors)

		r.Post("/suggestions", suggestionHandler.Generate)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", ruleHandler.List)
			r.Post("/reload", ruleHandler.Reload)
			r.Put("/", ruleHandler.UpsertGroup)
		})

		r.Route("/municipios", func(r chi.Router) {
			r.Get("/", municipioHandler.List)
			r.Get("/{nombre}", municipioHandler.GetByName)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
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

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.RuleProvider   = (*store.RuleStore)(nil)
	_ domain.MunicipioStore = (*store.MunicipioStore)(nil)
)
