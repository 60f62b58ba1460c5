// Package storage defines the site-directory file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for site directory file operations.
type Provider interface {
	// List returns metadata for every post file under dir (relative to the site root).
	List(dir string) ([]models.PostMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the site root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the site root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the site root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the site root).
	Move(oldPath, newPath string) error
	// Exists reports whether any file (post or asset) exists at path.
	Exists(path string) (bool, error)
}
