package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced item does not exist in the store.
var ErrNotFound = errors.New("blobstore: item not found")

// Store abstracts a hierarchical remote file store. Items are addressed by
// opaque ids; for the shipped backends the id is the item's full key, but
// callers must not rely on that.
type Store interface {
	// FindItem looks up a direct child of parentID by name. The boolean
	// reports whether the item exists.
	FindItem(ctx context.Context, parentID, name string, isFolder bool) (string, bool, error)
	// EnsureFolder returns the id of the named child folder, creating it
	// when absent.
	EnsureFolder(ctx context.Context, parentID, name string) (string, error)
	// Download returns the full content of a file.
	Download(ctx context.Context, fileID string) ([]byte, error)
	// UploadFile stores a local file under folderID as name.
	UploadFile(ctx context.Context, folderID, localPath, name string) (string, error)
	// UploadBytes stores raw bytes under folderID as name.
	UploadBytes(ctx context.Context, folderID string, data []byte, name, mime string) (string, error)
}
