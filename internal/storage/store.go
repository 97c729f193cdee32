// Package storage writes uploaded meal photos to durable storage and hands
// back a public reference under PublicPrefix plus an internal locator.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the mount point that serves stored images.
const PublicPrefix = "/uploads"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid object name")
)

// Object describes a stored image. PublicPath is safe to expose; Locator is
// only meaningful to the Store that produced it.
type Object struct {
	Name       string
	PublicPath string
	Locator    string
}

// Store is the blob store used by the analysis pipeline and the public file route.
type Store interface {
	Put(ctx context.Context, ownerID uint, data []byte, fileName string) (Object, error)
	Read(ctx context.Context, locator string) ([]byte, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, locator string) error
	// Locate maps a public file name back to its locator.
	Locate(name string) (string, error)
}

// NewObjectName generates a collision-free name keeping the original extension.
func NewObjectName(fileName string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
}

// PublicPath returns the public reference for a stored name.
func PublicPath(name string) string {
	return path.Join(PublicPrefix, name)
}

// validateName accepts bare file names only.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
