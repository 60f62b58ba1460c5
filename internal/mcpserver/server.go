// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/lint"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	db     *index.DB
	linter *lint.Linter
}

// New creates a new MCP server with all Ansuz tools registered.
func New(store storage.Provider, db *index.DB, linter *lint.Linter) *Server {
	s := &Server{store: store, db: db, linter: linter}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the full content of a Markdown post."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the post (e.g. essays/post.md)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new Markdown post at the specified path. "+
			"Content MUST follow the canonical post format (YAML frontmatter with layout "+
			"and title, then a Markdown body). Read the contract first via the "+
			"get_post_contract tool or the ansuz://post-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new post (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Ansuz post format contract")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the canonical Ansuz post format contract. "+
			"Call this before creating or updating posts to ensure correct structure."),
	), s.getPostContract)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List all posts or posts in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all posts that reference the specified post."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the post to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Download an image (or decode a base64 data URI) and save it "+
			"into the shared assets directory. Returns a ready-to-paste Markdown image."),
		mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or base64 data URI of the asset")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.uploadAsset)

	s.mcp.AddTool(mcp.NewTool("lint_post",
		mcp.WithDescription("Check a post against the corpus contract: well-formed "+
			"frontmatter with layout and title, and resolvable cross-references."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the post to lint")),
	), s.lintPost)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://post-format", "Post Format Contract",
			mcp.WithResourceDescription("Canonical Markdown post format that all posts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Check existence.
	if _, readErr := s.store.Read(path); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("post already exists: %s", path)), nil
	}

	data := []byte(content)

	// Reject content that breaks the corpus contract outright; a renderer
	// downstream would fail the build on it anyway.
	if findings := s.linter.CheckPost(path, data, nil); hasError(findings) {
		msgs := make([]string, len(findings))
		for i, f := range findings {
			msgs[i] = f.String()
		}
		return mcp.NewToolResultError("post violates the format contract:\n" + strings.Join(msgs, "\n")), nil
	}

	if err := s.store.Write(path, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Index the new post.
	res, _ := parser.Parse(data)
	if res != nil {
		tags := res.Tags
		if tags == nil {
			tags = []string{}
		}
		var refs []index.RefRow
		if len(res.Refs) > 0 {
			resolver := lint.NewCorpusResolver(s.store)
			refs = make([]index.RefRow, len(res.Refs))
			for i, r := range res.Refs {
				refs[i] = index.RefRow{Target: resolver.RefTarget(path, r.Target), Kind: string(r.Kind)}
			}
		}
		_ = s.db.UpsertPost(index.PostRow{
			Path:      path,
			Title:     res.Title,
			Layout:    res.Layout,
			Checksum:  checksum.Sum(data),
			Tags:      tags,
			UpdatedAt: time.Now(),
		}, res.Body, refs)
	}

	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) lintPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	findings := s.linter.CheckPost(path, data, lint.NewCorpusResolver(s.store))
	if len(findings) == 0 {
		return mcp.NewToolResultText("post passes the corpus contract"), nil
	}
	out, _ := json.MarshalIndent(findings, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://post-format",
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}

func hasError(findings []lint.Finding) bool {
	for _, f := range findings {
		if f.Severity == lint.SeverityError {
			return true
		}
	}
	return false
}
