// Package jsonfile implements repository.SnapshotStore as one JSON document
// on local disk:
//
//	{
//	  "users": {"<user_id>": {"user_id": ..., "username": ..., "password_hash": ...}},
//	  "sets":  {"<set_id>":  {"set_id": ..., "user_id": ..., "title": ..., "description": ..., "cards": [...]}}
//	}
//
// WRITE STRATEGY:
// Save hands the whole document to moby's atomicwriter, which writes a
// temporary file next to the target, syncs it, and renames it into place.
// The parent directory is then synced so the rename itself survives a
// crash. Readers see either the old snapshot or the new one, never a
// truncated file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/sakif/flipit/internal/repository"
)

var _ repository.SnapshotStore = (*Store)(nil)

// Store reads and writes the snapshot file at path.
type Store struct {
	path string
}

// New returns a Store for path, creating the parent directory if needed.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: creating data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields an empty snapshot.
//
// An unparseable file is renamed to "<path>.corrupt" before the error is
// returned, so the next Save cannot overwrite the only copy of the data.
func (s *Store) Load(_ context.Context) (*repository.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return repository.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: reading %s: %w", s.path, err)
	}

	var snap repository.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		quarantined := s.path + ".corrupt"
		if renameErr := os.Rename(s.path, quarantined); renameErr != nil {
			return nil, fmt.Errorf("jsonfile: parsing %s: %w: %v (could not move aside: %v)",
				s.path, repository.ErrCorruptSnapshot, err, renameErr)
		}
		return nil, fmt.Errorf("jsonfile: parsing %s (moved to %s): %w: %v",
			s.path, quarantined, repository.ErrCorruptSnapshot, err)
	}

	snap.Normalize()
	return &snap, nil
}

// Save replaces the snapshot file with snap.
func (s *Store) Save(_ context.Context, snap *repository.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding snapshot: %w", err)
	}

	if err := atomicwriter.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: replacing %s: %w", s.path, err)
	}
	if err := syncDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("jsonfile: syncing data directory: %w", err)
	}
	return nil
}

// syncDir flushes the directory entry so a completed rename is durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Close is a no-op; the file is opened per operation.
func (s *Store) Close() error {
	return nil
}
