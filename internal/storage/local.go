package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps images in a directory on disk.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Put(ctx context.Context, _ uint, data []byte, fileName string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	name := NewObjectName(fileName)
	locator := filepath.Join(s.dir, name)

	if err := writeFile(locator, data); err != nil {
		return Object{}, err
	}

	return Object{Name: name, PublicPath: PublicPath(name), Locator: locator}, nil
}

func writeFile(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}

func (s *LocalStore) Read(_ context.Context, locator string) ([]byte, error) {
	data, err := os.ReadFile(locator)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *LocalStore) Open(_ context.Context, locator string) (io.ReadCloser, int64, error) {
	f, err := os.Open(locator)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, ErrObjectNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return f, info.Size(), nil
}

// Delete removes the file. A file that is already gone is not an error.
func (s *LocalStore) Delete(_ context.Context, locator string) error {
	err := os.Remove(locator)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) Locate(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}
