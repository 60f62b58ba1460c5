package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/postservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// siteRoot is used to resolve the assets directory.
func NewRouter(svc *postservice.Service, authEnabled bool, token string, sseHandler http.Handler, siteRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAssetHandler(siteRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Posts CRUD.
	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/*", h.GetPost)
	r.Put("/posts/*", h.UpdatePost)
	r.Delete("/posts/*", h.DeletePost)

	// Search.
	r.Get("/search", h.Search)

	// Graph.
	r.Get("/graph", h.Graph)

	// Lint.
	r.Get("/lint", h.LintCorpus)
	r.Get("/lint/*", h.LintPost)

	// Asset upload (auth-protected).
	r.Post("/assets", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
