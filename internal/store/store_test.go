package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/sakif/flipit/internal/apperror"
	"github.com/sakif/flipit/internal/model"
	"github.com/sakif/flipit/internal/repository"
)

// =========================================================================
// FAKE SNAPSHOT STORE
// =========================================================================

// memSnapshots keeps the last saved snapshot in memory and can be told to
// fail loads or saves.
type memSnapshots struct {
	mu      sync.Mutex
	saved   *repository.Snapshot
	saves   int
	loadErr error
	saveErr error
}

func (m *memSnapshots) Load(_ context.Context) (*repository.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.saved == nil {
		return repository.NewSnapshot(), nil
	}
	return m.saved, nil
}

func (m *memSnapshots) Save(_ context.Context, snap *repository.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = snap
	return nil
}

func (m *memSnapshots) Close() error { return nil }

func (m *memSnapshots) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// sequentialIDs returns an IDFunc yielding id-01, id-02, ...
func sequentialIDs() IDFunc {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *memSnapshots) {
	t.Helper()
	snaps := &memSnapshots{}
	s, err := Open(context.Background(), snaps, discardLogger(), WithIDFunc(sequentialIDs()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, snaps
}

// mustUser registers a user and returns its ID.
func mustUser(t *testing.T, s *Store, username string) string {
	t.Helper()
	u, err := s.CreateUser(context.Background(), username, "hash-"+username)
	if err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return u.ID
}

func mustSet(t *testing.T, s *Store, owner, title string) model.SetDetail {
	t.Helper()
	set, err := s.CreateSet(context.Background(), owner, title, "")
	if err != nil {
		t.Fatalf("CreateSet(%q) error = %v", title, err)
	}
	return set
}

func ptr(s string) *string { return &s }

// =========================================================================
// USER TESTS
// =========================================================================

func TestCreateUser_UniqueUsername(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, "alice", "h1")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	_, err = s.CreateUser(ctx, "alice", "h2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second CreateUser() error = %v, want ErrConflict", err)
	}

	// Usernames are case-sensitive.
	if _, err := s.CreateUser(ctx, "Alice", "h3"); err != nil {
		t.Fatalf("CreateUser(Alice) error = %v", err)
	}

	got, ok := s.UserByUsername("alice")
	if !ok || got.ID != first.ID || got.PasswordHash != "h1" {
		t.Errorf("UserByUsername(alice) = %+v, %v; want the first registration", got, ok)
	}
	if snaps.saveCount() != 2 {
		t.Errorf("saves = %d, want 2 (the conflict must not flush)", snaps.saveCount())
	}
}

func TestUserExists(t *testing.T) {
	s, _ := newTestStore(t)
	id := mustUser(t, s, "alice")

	if !s.UserExists(id) {
		t.Errorf("UserExists(%q) = false", id)
	}
	if s.UserExists("nobody") {
		t.Error("UserExists(nobody) = true")
	}
	if _, ok := s.UserByUsername("bob"); ok {
		t.Error("UserByUsername(bob) found a user that was never registered")
	}
}

// =========================================================================
// SET TESTS
// =========================================================================

func TestCreateSet_DefaultsAndFlush(t *testing.T) {
	s, snaps := newTestStore(t)
	owner := mustUser(t, s, "alice")

	set, err := s.CreateSet(context.Background(), owner, "Math", "")
	if err != nil {
		t.Fatalf("CreateSet() error = %v", err)
	}
	if set.OwnerID != owner || set.Title != "Math" || set.Description != "" {
		t.Errorf("CreateSet() = %+v", set)
	}
	if set.Cards == nil || set.CardCount != 0 {
		t.Errorf("new set cards = %#v (count %d), want empty", set.Cards, set.CardCount)
	}

	if _, ok := snaps.saved.Sets[set.ID]; !ok {
		t.Error("created set missing from the persisted snapshot")
	}
}

func TestCreateSet_UnknownOwner(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.CreateSet(context.Background(), "ghost", "Math", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("CreateSet() error = %v, want ErrNotFound", err)
	}
	if len(s.Snapshot().Sets) != 0 {
		t.Error("a set was stored for a user that does not exist")
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	set := mustSet(t, s, alice, "Mine")

	if got := s.ListSets(bob); len(got) != 0 {
		t.Errorf("ListSets(bob) = %+v, want empty", got)
	}

	checks := map[string]error{}
	_, checks["get"] = s.GetSet(bob, set.ID)
	_, checks["update"] = s.UpdateSet(ctx, bob, set.ID, SetPatch{Title: ptr("stolen")})
	checks["delete"] = s.DeleteSet(ctx, bob, set.ID)
	_, checks["add_card"] = s.AddCard(ctx, bob, set.ID, "f", "b")

	for op, err := range checks {
		if !apperror.IsMissing(err, "set") {
			t.Errorf("%s on another user's set: error = %v, want set NotFound", op, err)
		}
	}

	// Alice's set is untouched.
	got, err := s.GetSet(alice, set.ID)
	if err != nil {
		t.Fatalf("GetSet(alice) error = %v", err)
	}
	if got.Title != "Mine" || got.CardCount != 0 {
		t.Errorf("alice's set changed: %+v", got)
	}
}

func TestListSets_OrderedSummaries(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")

	b := mustSet(t, s, owner, "B")
	a := mustSet(t, s, owner, "A")
	if _, err := s.AddCard(ctx, owner, a.ID, "f", "b"); err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}

	got := s.ListSets(owner)
	if len(got) != 2 {
		t.Fatalf("ListSets() = %d sets, want 2", len(got))
	}
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("ListSets() order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, b.ID, a.ID)
	}
	if got[1].CardCount != 1 {
		t.Errorf("card_count = %d, want 1", got[1].CardCount)
	}

	if empty := s.ListSets("nobody"); empty == nil || len(empty) != 0 {
		t.Errorf("ListSets(nobody) = %#v, want empty non-nil slice", empty)
	}
}

func TestUpdateSet_Partial(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set, _ := s.CreateSet(ctx, owner, "Old", "keep me")
	s.AddCard(ctx, owner, set.ID, "f", "b")

	got, err := s.UpdateSet(ctx, owner, set.ID, SetPatch{Title: ptr("New")})
	if err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}
	if got.Title != "New" || got.Description != "keep me" || got.CardCount != 1 {
		t.Errorf("UpdateSet(title) = %+v", got)
	}

	got, _ = s.UpdateSet(ctx, owner, set.ID, SetPatch{Description: ptr("")})
	if got.Title != "New" || got.Description != "" {
		t.Errorf("UpdateSet(description) = %+v", got)
	}

	// An empty patch changes nothing but still succeeds.
	if _, err := s.UpdateSet(ctx, owner, set.ID, SetPatch{}); err != nil {
		t.Errorf("UpdateSet(empty) error = %v", err)
	}
}

func TestDeleteSet_Cascades(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set := mustSet(t, s, owner, "Doomed")
	card, _ := s.AddCard(ctx, owner, set.ID, "f", "b")

	if err := s.DeleteSet(ctx, owner, set.ID); err != nil {
		t.Fatalf("DeleteSet() error = %v", err)
	}

	if _, err := s.GetSet(owner, set.ID); !apperror.IsMissing(err, "set") {
		t.Errorf("GetSet() after delete error = %v, want set NotFound", err)
	}
	if _, err := s.UpdateCard(ctx, owner, set.ID, card.ID, "x", "y"); !apperror.IsMissing(err, "set") {
		t.Errorf("UpdateCard() after set delete error = %v, want set NotFound", err)
	}
	if len(snaps.saved.Sets) != 0 {
		t.Errorf("persisted sets = %d, want 0", len(snaps.saved.Sets))
	}
	if err := s.DeleteSet(ctx, owner, set.ID); !apperror.IsMissing(err, "set") {
		t.Errorf("second DeleteSet() error = %v, want set NotFound", err)
	}
}

// =========================================================================
// CARD TESTS
// =========================================================================

func TestCards_OrderUpdateDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set := mustSet(t, s, owner, "Deck")

	var ids []string
	for _, front := range []string{"one", "two", "three"} {
		c, err := s.AddCard(ctx, owner, set.ID, front, strings.ToUpper(front))
		if err != nil {
			t.Fatalf("AddCard(%q) error = %v", front, err)
		}
		ids = append(ids, c.ID)
	}

	updated, err := s.UpdateCard(ctx, owner, set.ID, ids[1], "TWO", "2")
	if err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}
	if updated.ID != ids[1] || updated.Front != "TWO" || updated.Back != "2" {
		t.Errorf("UpdateCard() = %+v", updated)
	}

	if err := s.DeleteCard(ctx, owner, set.ID, ids[0]); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}

	got, _ := s.GetSet(owner, set.ID)
	if got.CardCount != 2 {
		t.Fatalf("card_count = %d, want 2", got.CardCount)
	}
	if got.Cards[0].ID != ids[1] || got.Cards[0].Front != "TWO" || got.Cards[1].ID != ids[2] {
		t.Errorf("cards after update+delete = %+v", got.Cards)
	}
}

func TestCards_MissingCard(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set := mustSet(t, s, owner, "Deck")
	before := snaps.saveCount()

	if _, err := s.UpdateCard(ctx, owner, set.ID, "nope", "f", "b"); !apperror.IsMissing(err, "card") {
		t.Errorf("UpdateCard(missing) error = %v, want card NotFound", err)
	}
	if err := s.DeleteCard(ctx, owner, set.ID, "nope"); !apperror.IsMissing(err, "card") {
		t.Errorf("DeleteCard(missing) error = %v, want card NotFound", err)
	}
	if snaps.saveCount() != before {
		t.Error("a failed card operation flushed the snapshot")
	}
}

func TestGetSet_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set := mustSet(t, s, owner, "Deck")
	s.AddCard(ctx, owner, set.ID, "f", "b")

	got, _ := s.GetSet(owner, set.ID)
	got.Cards[0].Front = "mutated"

	again, _ := s.GetSet(owner, set.ID)
	if again.Cards[0].Front != "f" {
		t.Error("mutating a returned set changed the store")
	}
}

// =========================================================================
// PERSISTENCE TESTS
// =========================================================================

func TestOpen_RestoresSnapshot(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set := mustSet(t, s, owner, "Deck")
	s.AddCard(ctx, owner, set.ID, "f", "b")

	reopened, err := Open(ctx, snaps, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, ok := reopened.UserByUsername("alice"); !ok {
		t.Error("user lost across reopen")
	}
	got, err := reopened.GetSet(owner, set.ID)
	if err != nil {
		t.Fatalf("GetSet() after reopen error = %v", err)
	}
	if got.CardCount != 1 || got.Cards[0].Front != "f" {
		t.Errorf("set after reopen = %+v", got)
	}
	// The username index is rebuilt, so uniqueness still holds.
	if _, err := reopened.CreateUser(ctx, "alice", "x"); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser(alice) after reopen error = %v, want ErrConflict", err)
	}
}

func TestOpen_CorruptSnapshotStartsEmpty(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	snaps := &memSnapshots{loadErr: fmt.Errorf("jsonfile: %w", repository.ErrCorruptSnapshot)}

	s, err := Open(context.Background(), snaps, logger)
	if err != nil {
		t.Fatalf("Open() error = %v, want nil for a corrupt snapshot", err)
	}

	if snap := s.Snapshot(); len(snap.Users) != 0 || len(snap.Sets) != 0 {
		t.Errorf("store after failed load = %+v, want empty", snap)
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected a warning to be logged, got %q", logs.String())
	}
}

func TestOpen_ReadFailureIsReturned(t *testing.T) {
	readErr := errors.New("sqlite: listing users: disk I/O error")
	snaps := &memSnapshots{loadErr: readErr}

	s, err := Open(context.Background(), snaps, discardLogger())
	if !errors.Is(err, readErr) {
		t.Fatalf("Open() error = %v, want %v", err, readErr)
	}
	if s != nil {
		t.Error("Open() returned a store alongside the error")
	}
	if n := snaps.saveCount(); n != 0 {
		t.Errorf("Save called %d times after a failed load, want 0", n)
	}
}

func TestFlushFailure_KeepsMutation(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	snaps := &memSnapshots{saveErr: errors.New("disk full")}
	s, err := Open(context.Background(), snaps, logger, WithIDFunc(sequentialIDs()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	u, err := s.CreateUser(context.Background(), "alice", "h")
	if err != nil {
		t.Fatalf("CreateUser() with failing flush error = %v, want nil", err)
	}
	if !s.UserExists(u.ID) {
		t.Error("mutation was rolled back after a failed flush")
	}
	if !strings.Contains(logs.String(), "snapshot flush failed") {
		t.Errorf("flush failure not logged: %q", logs.String())
	}
}

func TestFlush_IgnoresCancelledContext(t *testing.T) {
	s, snaps := newTestStore(t)
	owner := mustUser(t, s, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saver := &ctxCheckingSnapshots{memSnapshots: snaps}
	s.snapshots = saver
	if _, err := s.CreateSet(ctx, owner, "Deck", ""); err != nil {
		t.Fatalf("CreateSet() error = %v", err)
	}
	if saver.sawCancelled {
		t.Error("Save received a cancelled context")
	}
}

type ctxCheckingSnapshots struct {
	*memSnapshots
	sawCancelled bool
}

func (c *ctxCheckingSnapshots) Save(ctx context.Context, snap *repository.Snapshot) error {
	if ctx.Err() != nil {
		c.sawCancelled = true
	}
	return c.memSnapshots.Save(ctx, snap)
}

// =========================================================================
// CONCURRENCY
// =========================================================================

func TestConcurrentMutations(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "alice")
	set := mustSet(t, s, owner, "Deck")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AddCard(ctx, owner, set.ID, fmt.Sprint(i), "b"); err != nil {
				t.Errorf("AddCard() error = %v", err)
			}
			s.ListSets(owner)
		}(i)
	}
	wg.Wait()

	got, _ := s.GetSet(owner, set.ID)
	if got.CardCount != workers {
		t.Errorf("card_count = %d, want %d", got.CardCount, workers)
	}
	if n := len(snaps.saved.Sets[set.ID].Cards); n != workers {
		t.Errorf("last persisted snapshot has %d cards, want %d", n, workers)
	}
}
