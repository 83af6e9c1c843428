package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore persists state as a JSON file with atomic writes.
type FileStore struct {
	path     string
	capacity int
	logger   zerolog.Logger
}

// NewFileStore constructs a FileStore for the given path.
func NewFileStore(path string, capacity int, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:     path,
		capacity: capacity,
		logger:   logger.With().Str("component", "state_file").Logger(),
	}
}

// Load reads the state file. A missing file is a fresh start, not an error.
// A file in the legacy schema is upgraded and rewritten once.
func (f *FileStore) Load(ctx context.Context) (*State, error) {
	payload, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(f.capacity), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	s, legacy, err := decodeState(payload, f.capacity)
	if err != nil {
		f.logger.Warn().Err(err).Str("path", f.path).Msg("state file corrupt; starting fresh")
		return New(f.capacity), nil
	}

	if legacy {
		f.logger.Info().Str("path", f.path).Msg("upgrading legacy state file schema")
		if err := f.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("rewrite legacy state file: %w", err)
		}
	}

	return s, nil
}

// Save writes the state to a temp file and renames it into place so a crash
// mid-write never leaves a truncated document behind.
func (f *FileStore) Save(_ context.Context, s *State) error {
	payload, err := encodeState(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

var _ Store = (*FileStore)(nil)
