package blob

import (
	"context"
	"io"
)

// Store is the object storage surface used by the workflow. Keys are
// slash-separated paths relative to the bucket root, e.g.
// "audio/<id>/audio_file.wav".
type Store interface {
	// GetObject opens the object at key for reading.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	// PutObject writes the full contents of r to key, replacing any
	// existing object.
	PutObject(ctx context.Context, key string, r io.Reader) error
	// CopyFromURL streams the body of a remote URL into the object at key.
	CopyFromURL(ctx context.Context, sourceURL, key string) error
	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)
}
