package api

import (
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/postservice"
)

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UpdatePostRequest is the request body for updating a post.
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListItem is a lightweight item in a list response (aliased from the domain layer).
type PostListItem = postservice.PostListItem

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []PostListItem `json:"posts"`
	Total int            `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// LintResponse wraps a corpus or single-post lint run.
type LintResponse struct {
	Findings []lint.Finding `json:"findings"`
	Checked  int            `json:"checked"`
	Passed   bool           `json:"passed"`
}

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}
