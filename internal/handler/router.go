package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	fatwaHandler "github.com/xamsadine/backend/internal/handler/fatwa"
	middlewarePkg "github.com/xamsadine/backend/internal/middleware"
	"github.com/xamsadine/backend/internal/service/pipeline"
)

// NewRouter wires HTTP routes to the pipeline.
func NewRouter(orchestrator *pipeline.Orchestrator, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	handler := fatwaHandler.New(orchestrator, log)
	wsHandler := fatwaHandler.NewWebSocketHandler(orchestrator, log)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		handler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
