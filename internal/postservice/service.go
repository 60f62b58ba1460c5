// Package postservice coordinates storage, index, and lint operations on posts.
package postservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// PostDetail is the full representation of a post.
type PostDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Layout      string         `json:"layout"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PostListItem is a lightweight item in a list response.
type PostListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Layout    string    `json:"layout"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	linter *lint.Linter
}

// NewService creates a new post service.
func NewService(store storage.Provider, db *index.DB, linter *lint.Linter) *Service {
	return &Service{store: store, db: db, linter: linter}
}

// GetPost reads a post from storage, parses it, and enriches with backlinks.
func (s *Service) GetPost(_ context.Context, path string) (*PostDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildPostDetail(path, data)
}

// CreatePost writes a new post and indexes it.
func (s *Service) CreatePost(_ context.Context, path string, content []byte) (*PostDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildPostDetail(path, content)
}

// UpdatePost writes updated content with optimistic concurrency.
func (s *Service) UpdatePost(_ context.Context, path string, content []byte, ifMatch string) (*PostDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildPostDetail(path, content)
}

// DeletePost removes a post from storage and index.
func (s *Service) DeletePost(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeletePost(path)
}

// ListPosts returns paginated posts with optional tag and layout filters.
func (s *Service) ListPosts(_ context.Context, limit, offset int, tag, layout, sort string) ([]PostListItem, int, error) {
	rows, total, err := s.db.ListPosts(limit, offset, tag, layout, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PostListItem, len(rows))
	for i, r := range rows {
		items[i] = PostListItem{
			Path:      r.Path,
			Title:     r.Title,
			Layout:    r.Layout,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all nodes and edges of the cross-reference graph.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphEdge, error) {
	return s.db.Graph()
}

// Backlinks returns all post paths that reference the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// LintPost checks a single post against the corpus contract.
func (s *Service) LintPost(_ context.Context, path string) ([]lint.Finding, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	resolver := lint.NewCorpusResolver(s.store)
	return s.linter.CheckPost(path, data, resolver), nil
}

// LintCorpus checks every post in the site directory.
func (s *Service) LintCorpus(_ context.Context) (*lint.Report, error) {
	return s.linter.CheckCorpus(s.store)
}

// IndexFile parses data and upserts it into the index.
// Exported so that sync and watcher can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	var refs []index.RefRow
	if len(res.Refs) > 0 {
		resolver := lint.NewCorpusResolver(s.store)
		refs = make([]index.RefRow, len(res.Refs))
		for i, r := range res.Refs {
			refs[i] = index.RefRow{Target: resolver.RefTarget(path, r.Target), Kind: string(r.Kind)}
		}
	}
	return s.db.UpsertPost(index.PostRow{
		Path:      path,
		Title:     res.Title,
		Layout:    res.Layout,
		Checksum:  checksum.Sum(data),
		Tags:      nonNilSlice(res.Tags),
		UpdatedAt: time.Now(),
	}, res.Body, refs)
}

// buildPostDetail constructs a PostDetail from raw data without re-reading the file.
func (s *Service) buildPostDetail(path string, data []byte) (*PostDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Path:        path,
		Title:       res.Title,
		Layout:      res.Layout,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
