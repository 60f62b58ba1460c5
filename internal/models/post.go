// Package models defines the domain types for Ansuz.
package models

import "time"

// Post represents a parsed essay file in the site directory.
type Post struct {
	Path        string         `json:"path"`
	Content     []byte         `json:"-"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Layout      string         `json:"layout,omitempty"`
	Title       string         `json:"title,omitempty"`
	Refs        []Ref          `json:"refs,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Checksum    string         `json:"checksum"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PostMetadata is a lightweight representation returned by list operations.
type PostMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefKind classifies how a cross-reference appears in a post body.
type RefKind string

const (
	RefInline    RefKind = "inline"    // [text](target)
	RefImage     RefKind = "image"     // ![alt](target)
	RefReference RefKind = "reference" // [id]: target
)

// Ref represents a directed edge from a post to a link target.
type Ref struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Kind   RefKind `json:"kind"`
}
