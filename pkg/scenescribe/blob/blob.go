// Package blob abstracts the object store that holds source videos,
// captions, extracted frames and aligned output.
package blob

import (
	"context"
	"iter"
)

// Storage is a flat key space of objects. Keys use forward slashes.
type Storage interface {
	Exists(ctx context.Context, key string) (bool, error)
	ReadText(ctx context.Context, key string) (string, error)
	// SaveFile uploads the local file at path under key.
	SaveFile(ctx context.Context, path, key string) error
	// DownloadFile copies key to the local path, creating parent directories.
	DownloadFile(ctx context.Context, key, path string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// ListFiles yields every key with the given prefix in lexical order.
	ListFiles(ctx context.Context, prefix string) iter.Seq2[string, error]
}
