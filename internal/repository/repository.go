// Package repository defines the persistence contract of the entity store.
//
// The store keeps all state in memory and hands a full Snapshot to a
// SnapshotStore after every mutation. Backends live in sub-packages:
//   - jsonfile: a single JSON document on local disk (the default)
//   - sqlite:   the same snapshot spread over SQLite tables
package repository

import (
	"context"
	"errors"

	"github.com/sakif/flipit/internal/model"
)

// ErrCorruptSnapshot is wrapped by Load when persisted data exists but cannot
// be parsed. The caller decides whether to start empty.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot is the serialisable representation of the entire entity store.
// Both maps are keyed by entity ID.
type Snapshot struct {
	Users map[string]model.User         `json:"users"`
	Sets  map[string]model.FlashcardSet `json:"sets"`
}

// NewSnapshot returns an empty snapshot with non-nil maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Users: map[string]model.User{},
		Sets:  map[string]model.FlashcardSet{},
	}
}

// Normalize applies the structural defaults tolerated on load: nil maps and
// nil card lists become empty, and entries missing their own ID take the
// ID of the map key. No other validation is performed.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = map[string]model.User{}
	}
	if s.Sets == nil {
		s.Sets = map[string]model.FlashcardSet{}
	}
	for id, u := range s.Users {
		if u.ID == "" {
			u.ID = id
			s.Users[id] = u
		}
	}
	for id, set := range s.Sets {
		changed := false
		if set.ID == "" {
			set.ID = id
			changed = true
		}
		if set.Cards == nil {
			set.Cards = []model.Flashcard{}
			changed = true
		}
		if changed {
			s.Sets[id] = set
		}
	}
}

// SnapshotStore persists and restores whole snapshots.
//
// Load returns an empty snapshot and a nil error when nothing has been
// persisted yet; that is a fresh start, not a failure.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}
