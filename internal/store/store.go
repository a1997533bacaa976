// Package store is the in-memory entity store of flipit: users, flashcard
// sets, and the cards inside them.
//
// CONCURRENCY MODEL:
// One sync.RWMutex guards everything. Mutations hold the write lock for the
// whole check → mutate → flush sequence, so a reader never sees a
// half-applied change and every persisted snapshot is consistent. Reads take
// the read lock and return copies, never pointers into the store.
//
// WRITE-THROUGH:
// Every successful mutation hands a full snapshot to the configured
// repository.SnapshotStore before returning. A failed flush is logged at WARN
// and the mutation stays applied in memory; the next successful flush
// persists it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/flipit/internal/model"
	"github.com/sakif/flipit/internal/repository"
)

// IDFunc produces a new globally unique identifier. The store never checks
// generated IDs for collisions.
type IDFunc func() string

// NewID is the default IDFunc. xid IDs are 20 characters, URL-safe, and sort
// by creation time.
func NewID() string {
	return xid.New().String()
}

// Option configures a Store in Open.
type Option func(*Store)

// WithIDFunc replaces the identifier generator. Tests use it to get
// predictable IDs.
func WithIDFunc(f IDFunc) Option {
	return func(s *Store) {
		if f != nil {
			s.newID = f
		}
	}
}

// Store owns all user, set and card state.
type Store struct {
	mu sync.RWMutex

	users      map[string]model.User
	byUsername map[string]string // username → user ID
	sets       map[string]*model.FlashcardSet

	snapshots repository.SnapshotStore
	newID     IDFunc
	logger    *slog.Logger
}

// Open creates a Store and populates it from snapshots.
//
// A corrupt snapshot is logged and the store starts empty. Any other load
// error is returned: starting empty would let the next flush overwrite data
// that could not be read.
func Open(ctx context.Context, snapshots repository.SnapshotStore, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		users:      map[string]model.User{},
		byUsername: map[string]string{},
		sets:       map[string]*model.FlashcardSet{},
		snapshots:  snapshots,
		newID:      NewID,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := snapshots.Load(ctx)
	if errors.Is(err, repository.ErrCorruptSnapshot) {
		logger.Warn("corrupt snapshot, starting with an empty store",
			slog.String("error", err.Error()),
		)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading snapshot: %w", err)
	}

	s.restore(snap)
	logger.Info("store loaded",
		slog.Int("users", len(s.users)),
		slog.Int("sets", len(s.sets)),
	)
	return s, nil
}

// restore replaces the in-memory state with snap. Called before the store
// is shared, so it does not lock.
func (s *Store) restore(snap *repository.Snapshot) {
	for id, u := range snap.Users {
		s.users[id] = u
		s.byUsername[u.Username] = id
	}
	for id, set := range snap.Sets {
		c := set.Clone()
		s.sets[id] = &c
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *repository.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *repository.Snapshot {
	snap := repository.NewSnapshot()
	for id, u := range s.users {
		snap.Users[id] = u
	}
	for id, set := range s.sets {
		snap.Sets[id] = set.Clone()
	}
	return snap
}

// flushLocked persists the current state. The caller must hold the write
// lock. The flush runs detached from ctx cancellation: by now memory has
// already changed, and abandoning the write would only widen the gap
// between memory and disk.
func (s *Store) flushLocked(ctx context.Context, op string) {
	if err := s.snapshots.Save(context.WithoutCancel(ctx), s.snapshotLocked()); err != nil {
		s.logger.Warn("snapshot flush failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}
