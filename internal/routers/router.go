package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"spaces/internal/api"
	"spaces/internal/metrics"
	"spaces/internal/space"
	"spaces/internal/utils"
)

func New(log *utils.Logger, registry *space.Registry) http.Handler {
	h := api.NewHandlersWithDeps(log, registry)
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(metrics.Middleware())

	r.Get("/health", h.Health)
	r.Get("/spaces", h.ListSpaces)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Get("/ws", h.SpaceWS)

	return r
}
