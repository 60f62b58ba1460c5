package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Path      string
	Title     string
	Layout    string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// RefRow is an outgoing cross-reference recorded for a post.
type RefRow struct {
	Target string
	Kind   string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// GraphNode is a post in the cross-reference graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// GraphEdge is a directed cross-reference between posts.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// UpsertPost inserts or replaces a post, its FTS entry, and refs within a transaction.
func (db *DB) UpsertPost(p PostRow, body string, refs []RefRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(p.Tags)

	// Upsert posts table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO posts (path, title, layout, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			layout     = excluded.layout,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, p.Path, p.Title, p.Layout, p.Checksum, string(tagsJSON), body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p.Path, p.Title, body, p.Tags); err != nil {
		return err
	}

	// Replace refs: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, p.Path)
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (source, target, kind) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, ref := range refs {
			if _, err := stmt.Exec(p.Path, ref.Target, ref.Kind); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePost removes a post, its FTS entry, and outgoing refs.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM posts WHERE path = ?`, path)

	return tx.Commit()
}

// GetPost returns the indexed row for a post, or nil when not indexed.
func (db *DB) GetPost(path string) (*PostRow, error) {
	var p PostRow
	var tagsJSON string
	err := db.conn.QueryRow(
		`SELECT path, title, layout, checksum, tags, updated_at FROM posts WHERE path = ?`, path,
	).Scan(&p.Path, &p.Title, &p.Layout, &p.Checksum, &tagsJSON, &p.UpdatedAt)
	if err != nil {
		return nil, nil //nolint:nilerr // not indexed is not an error
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	return &p, nil
}

// GetChecksum returns the stored checksum for a post, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListPosts returns a page of posts with optional tag and layout filters.
// sort is one of updated_at (default), title, path.
func (db *DB) ListPosts(limit, offset int, tag, layout, sort string) ([]PostRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var where []string
	var args []any
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where = append(where, `tags LIKE ?`)
		args = append(args, `%"`+tag+`"%`)
	}
	if layout != "" {
		where = append(where, `layout = ?`)
		args = append(args, layout)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE ASC"
	case "path":
		order = "path ASC"
	}

	rows, err := db.conn.Query(
		`SELECT path, title, layout, checksum, tags, updated_at FROM posts`+cond+
			` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		var p PostRow
		var tagsJSON string
		if err := rows.Scan(&p.Path, &p.Title, &p.Layout, &p.Checksum, &tagsJSON, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed post path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns all post paths that reference the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM refs WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Graph returns every post as a node and every recorded ref as an edge.
func (db *DB) Graph() ([]GraphNode, []GraphEdge, error) {
	nodeRows, err := db.conn.Query(`SELECT path, title FROM posts ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []GraphNode
	for nodeRows.Next() {
		var n GraphNode
		if err := nodeRows.Scan(&n.ID, &n.Title); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	edgeRows, err := db.conn.Query(`SELECT source, target, kind FROM refs ORDER BY source, target`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []GraphEdge
	for edgeRows.Next() {
		var e GraphEdge
		if err := edgeRows.Scan(&e.Source, &e.Target, &e.Kind); err != nil {
			return nil, nil, err
		}
		edges = append(edges, e)
	}
	return nodes, edges, edgeRows.Err()
}
