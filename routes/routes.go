package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/llm-gateway/app"
	"github.com/upb/llm-gateway/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	chatHandler := handlers.NewChatHandler(deps.LLM, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.LLM, deps.Logger)
	providersHandler := handlers.NewProvidersHandler(deps.LLM, deps.Logger)

	// Liveness and service banner
	r.Get("/healthz", healthHandler.HandleLiveness)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Universal LLM Gateway API","status":"running"}`))
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", chatHandler.HandleChat)
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/providers", providersHandler.HandleList)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
	})

	return r
}
