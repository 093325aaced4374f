// Package storage wraps the external document/folder backend behind a small
// key-value-with-metadata interface. Repository code never talks to a backend
// SDK directly, so the backend is swappable without touching business rules.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound reports that an id did not resolve to a file or folder.
var ErrNotFound = errors.New("storage: not found")

// File describes a stored file or folder. ID is the backend-assigned opaque
// identifier, stable for the object's lifetime.
type File struct {
	ID         string
	Name       string
	MIMEType   string
	Size       int64
	Properties map[string]string
	CreatedAt  time.Time
}

// Store is the authenticated surface of the document/folder backend.
// Every call is a single network round trip (or a small fixed number of them)
// and must honor ctx for timeout and cancellation.
type Store interface {
	// CreateFolder creates a child container and returns its id.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	// FindFolder looks up a child container by exact name. It returns ""
	// without error when no such folder exists.
	FindFolder(ctx context.Context, name, parentID string) (string, error)
	// ListFolders lists the child containers of a parent.
	ListFolders(ctx context.Context, parentID string) ([]*File, error)
	// CreateFile writes a new file with metadata properties and content.
	CreateFile(ctx context.Context, name, parentID, mimeType string, properties map[string]string, content io.Reader) (string, error)
	// ListFiles lists the non-folder children of a parent, metadata only.
	ListFiles(ctx context.Context, parentID string) ([]*File, error)
	// GetFile fetches a single file's metadata.
	GetFile(ctx context.Context, id string) (*File, error)
	// ReadContent streams a file's full content.
	ReadContent(ctx context.Context, id string) (io.ReadCloser, error)
	// UpdateProperties merges the patch into the file's properties. Keys
	// absent from the patch keep their current value.
	UpdateProperties(ctx context.Context, id string, patch map[string]string) error
	// AllowPublicRead grants anyone-read permission on a file.
	AllowPublicRead(ctx context.Context, id string) error
	// Delete removes a file permanently.
	Delete(ctx context.Context, id string) error
}

// Counter is an optional capability for backends that can increment a numeric
// property atomically. Callers discover it with a type assertion and fall back
// to read-modify-write when the backend offers no such primitive.
type Counter interface {
	IncrementProperty(ctx context.Context, id, key string, delta int64) (int64, error)
}

// RangeReader is an optional capability for backends that support partial
// content reads. Start and end are inclusive byte offsets; the returned total
// is the full object size.
type RangeReader interface {
	ReadContentRange(ctx context.Context, id string, start, end int64) (io.ReadCloser, int64, error)
}
