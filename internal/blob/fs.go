package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FSStore writes attachments to a directory on disk. Keys are generated by
// the caller and contain no path separators, so a plain join is safe.
type FSStore struct {
	dir string
	log *zerolog.Logger
}

// NewFSStore creates the directory if needed and returns a disk-backed store.
func NewFSStore(dir string, logger *zerolog.Logger) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{dir: dir, log: logger}, nil
}

// Put writes the payload under key.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write attachment: %w", err)
	}
	s.log.Debug().Str("key", key).Int("size", len(data)).Msg("attachment stored")
	return nil
}

// Dir returns the directory attachments are written to.
func (s *FSStore) Dir() string {
	return s.dir
}
