package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"callcheck/internal/config"
	"callcheck/internal/services"
)

// FSStore implements Store on a local directory tree rooted at the
// configured bucket directory.
type FSStore struct {
	root   string
	client *http.Client
}

// NewFSStore returns a filesystem-backed store rooted at the config's
// bucket directory.
func NewFSStore(cfg *config.Config) (*FSStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return &FSStore{
		root:   cfg.BucketDir(),
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Root returns the bucket root directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) resolve(key string) (string, error) {
	// Clean collapses dot segments, so compare against the raw key: anything
	// Clean rewrites (.., ., //, trailing or leading slashes) is rejected
	// rather than silently remapped.
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || cleaned != "/"+key {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// GetObject opens the object at key.
func (s *FSStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blob", "get object", key, err)
	}
	file, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "blob", "get object", key, nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blob", "get object", key, err)
	}
	return file, nil
}

// PutObject writes r to key atomically: the object is staged to a temp file
// in the destination directory and renamed into place.
func (s *FSStore) PutObject(ctx context.Context, key string, r io.Reader) error {
	target, err := s.resolve(key)
	if err != nil {
		return services.Wrap(services.ErrStorage, "blob", "put object", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "blob", "put object", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return services.Wrap(services.ErrStorage, "blob", "put object", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return services.Wrap(services.ErrStorage, "blob", "put object", key, err)
	}
	if err := tmp.Close(); err != nil {
		return services.Wrap(services.ErrStorage, "blob", "put object", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return services.Wrap(services.ErrStorage, "blob", "put object", key, err)
	}
	return nil
}

// CopyFromURL downloads a remote object into the store. Any network or HTTP
// status failure is reported as a transfer error.
func (s *FSStore) CopyFromURL(ctx context.Context, sourceURL, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return services.Wrap(services.ErrTransfer, "blob", "copy from url", sourceURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransfer, "blob", "copy from url", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransfer, "blob", "copy from url",
			fmt.Sprintf("%s returned status %d", sourceURL, resp.StatusCode), nil)
	}
	return s.PutObject(ctx, key, resp.Body)
}

// Exists reports whether an object is present at key.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	target, err := s.resolve(key)
	if err != nil {
		return false, services.Wrap(services.ErrStorage, "blob", "stat object", key, err)
	}
	_, err = os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, services.Wrap(services.ErrStorage, "blob", "stat object", key, err)
	}
	return true, nil
}
