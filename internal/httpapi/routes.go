package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/hub"
	"github.com/DoyleJ11/dinedecide/internal/ws"
)

func SetupRoutes(h *hub.Hub, opts ws.Options, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/stats", Stats(h))
	r.Get("/ws", ws.Handler(h, opts, log))
	return r
}
