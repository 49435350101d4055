package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bankassist/internal/handlers"
	"bankassist/internal/service"
	"bankassist/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Assistant      service.AssistantService
	VectorStore    vectorstore.VectorStore
	IngestRuns     handlers.IngestRunReader
	CollectionName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.VectorStore, deps.IngestRuns, deps.CollectionName))
		r.Method(http.MethodPost, "/login", handlers.NewLoginHandler(deps.Assistant))

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(deps.Assistant))
			r.Method(http.MethodPost, "/chat", handlers.NewChatHandler(deps.Assistant))
			r.Method(http.MethodPost, "/logout", handlers.NewLogoutHandler(deps.Assistant))
			r.Method(http.MethodGet, "/transcript", handlers.NewTranscriptHandler(deps.Assistant))
		})
	})

	return r
}
