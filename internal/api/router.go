package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Aryan42/wannameet/internal/api/middleware"
	"github.com/Aryan42/wannameet/internal/directory"
	"github.com/Aryan42/wannameet/internal/handlers"
	"github.com/Aryan42/wannameet/internal/relay"
	"github.com/Aryan42/wannameet/internal/store"
)

// NewRouter creates and configures the HTTP router: the matchmaking
// directory endpoints plus the relay upgrade endpoints.
func NewRouter(logger zerolog.Logger, dir *directory.Directory, hub *relay.Hub, rooms store.RoomStore, tokens store.TokenStore) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - browser clients call from the app origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(dir, rooms, tokens)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)

	// Matchmaking directory
	r.Post("/rooms", h.CreateRoom)
	r.Get("/rooms", h.RequestRoom)
	r.Get("/rooms/{roomID}", h.GetRoom)
	r.Put("/rooms/{roomID}", h.ReleaseRoom)

	// Relay channels (websocket upgrades)
	r.Get("/rtm/{roomID}", hub.HandleMessaging)
	r.Get("/rtc/{roomID}", hub.HandleMedia)

	return r
}
