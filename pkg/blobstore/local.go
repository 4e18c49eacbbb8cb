package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements Store on the local filesystem under a base directory.
// Intended for development and tests; item ids are paths relative to baseDir.
type LocalStore struct {
	baseDir string
}

// NewLocalStore ensures the base directory exists and returns a handle.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./blobstore"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blobstore directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// FindItem checks for a direct child of parentID by name.
func (s *LocalStore) FindItem(_ context.Context, parentID, name string, isFolder bool) (string, bool, error) {
	id := filepath.Join(parentID, name)
	info, err := os.Stat(s.resolve(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat blobstore item: %w", err)
	}
	if info.IsDir() != isFolder {
		return "", false, nil
	}
	return id, true, nil
}

// EnsureFolder creates the named child folder when absent.
func (s *LocalStore) EnsureFolder(_ context.Context, parentID, name string) (string, error) {
	id := filepath.Join(parentID, name)
	if err := os.MkdirAll(s.resolve(id), 0o755); err != nil {
		return "", fmt.Errorf("create blobstore folder: %w", err)
	}
	return id, nil
}

// Download returns the content of the file identified by fileID.
func (s *LocalStore) Download(_ context.Context, fileID string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blobstore file: %w", err)
	}
	return data, nil
}

// UploadFile copies a local file into the folder.
func (s *LocalStore) UploadFile(_ context.Context, folderID, localPath, name string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer src.Close() //nolint:errcheck

	id := filepath.Join(folderID, name)
	target := s.resolve(id)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare blobstore folder: %w", err)
	}
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create blobstore file: %w", err)
	}
	defer dst.Close() //nolint:errcheck
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write blobstore file: %w", err)
	}
	return id, nil
}

// UploadBytes writes raw bytes into the folder.
func (s *LocalStore) UploadBytes(_ context.Context, folderID string, data []byte, name, _ string) (string, error) {
	id := filepath.Join(folderID, name)
	target := s.resolve(id)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare blobstore folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write blobstore file: %w", err)
	}
	return id, nil
}

func (s *LocalStore) resolve(id string) string {
	return filepath.Join(s.baseDir, id)
}
