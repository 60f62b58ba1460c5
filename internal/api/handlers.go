package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/postservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// postPath extracts the post path from the URL (everything after the route prefix).
// Supports encoded slashes from OpenAPI clients (e.g. essays%2Fpost.md).
func postPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts with optional pagination and filtering
//	@Tags			posts
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			layout	query		string	false	"Filter by layout"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, path)
//	@Success		200		{object}	PostListResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	layout := q.Get("layout")
	sort := q.Get("sort")

	items, total, err := h.svc.ListPosts(r.Context(), limit, offset, tag, layout, sort)
	if err != nil {
		slog.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts": items,
		"total": total,
	})
}

// GetPost handles GET /api/posts/*.
//
//	@Summary		Get a single post by path
//	@Tags			posts
//	@Produce		json
//	@Param			path	path		string	true	"Post path"
//	@Success		200		{object}	PostDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{path} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	post, err := h.svc.GetPost(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get post failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /api/posts.
//
//	@Summary		Create a new post
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePostRequest	true	"Post to create"
//	@Success		201		{object}	PostDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	post, err := h.svc.CreatePost(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("post already exists"))
		} else {
			slog.Error("create post failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost handles PUT /api/posts/*.
//
//	@Summary		Update a post with optimistic concurrency
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"Post path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdatePostRequest	true	"Updated content"
//	@Success		200		{object}	PostDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{path} [put]
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req UpdatePostRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	post, err := h.svc.UpdatePost(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update post failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/*.
//
//	@Summary		Delete a post
//	@Tags			posts
//	@Param			path	path	string	true	"Post path"
//	@Success		204		"Post deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{path} [delete]
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeletePost(r.Context(), path); err != nil {
		slog.Error("delete post failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the cross-reference graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, edges, err := h.svc.Graph(r.Context())
	if err != nil {
		slog.Error("graph failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"edges": edges,
	})
}

// LintCorpus handles GET /api/lint.
//
//	@Summary		Lint the whole corpus
//	@Tags			lint
//	@Produce		json
//	@Success		200	{object}	LintResponse
//	@Security		BearerAuth
//	@Router			/lint [get]
func (h *Handler) LintCorpus(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.LintCorpus(r.Context())
	if err != nil {
		slog.Error("lint corpus failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, LintResponse{
		Findings: nonNilFindings(report),
		Checked:  report.Checked,
		Passed:   report.Passed(),
	})
}

// LintPost handles GET /api/lint/*.
//
//	@Summary		Lint a single post
//	@Tags			lint
//	@Produce		json
//	@Param			path	path		string	true	"Post path"
//	@Success		200		{object}	LintResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lint/{path} [get]
func (h *Handler) LintPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	findings, err := h.svc.LintPost(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("lint post failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	passed := true
	for _, f := range findings {
		if f.Severity == lint.SeverityError {
			passed = false
			break
		}
	}
	if findings == nil {
		findings = []lint.Finding{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"findings": findings,
		"passed":   passed,
	})
}

func nonNilFindings(report *lint.Report) []lint.Finding {
	if report.Findings == nil {
		return []lint.Finding{}
	}
	return report.Findings
}
