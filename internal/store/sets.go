package store

import (
	"context"
	"slices"
	"strings"

	"github.com/sakif/flipit/internal/apperror"
	"github.com/sakif/flipit/internal/model"
)

// Client-facing messages for missing entities.
const (
	SetNotFoundMessage  = "Set not found or unauthorized"
	CardNotFoundMessage = "Card not found"
)

// SetPatch carries the optional fields of a set update. A nil field is left
// unchanged.
type SetPatch struct {
	Title       *string
	Description *string
}

// authorizeSet returns the set only if it exists and belongs to ownerID.
// A set owned by someone else is reported exactly like a missing one, so
// callers cannot probe for other users' IDs. The caller must hold the lock.
func (s *Store) authorizeSet(ownerID, setID string) (*model.FlashcardSet, error) {
	set, ok := s.sets[setID]
	if !ok || set.OwnerID != ownerID {
		return nil, apperror.Missing("set", SetNotFoundMessage)
	}
	return set, nil
}

// CreateSet adds an empty set owned by ownerID.
func (s *Store) CreateSet(ctx context.Context, ownerID, title, description string) (model.SetDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return model.SetDetail{}, apperror.NotFound("user", ownerID)
	}

	set := &model.FlashcardSet{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Cards:       []model.Flashcard{},
	}
	s.sets[set.ID] = set

	s.flushLocked(ctx, "create_set")
	return set.Detail(), nil
}

// ListSets returns summaries of every set owned by ownerID, ordered by set
// ID. An owner without sets gets an empty, non-nil slice.
func (s *Store) ListSets(ownerID string) []model.SetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.SetSummary{}
	for _, set := range s.sets {
		if set.OwnerID == ownerID {
			out = append(out, set.Summary())
		}
	}
	slices.SortFunc(out, func(a, b model.SetSummary) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// GetSet returns the full view of one owned set.
func (s *Store) GetSet(ownerID, setID string) (model.SetDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, err := s.authorizeSet(ownerID, setID)
	if err != nil {
		return model.SetDetail{}, err
	}
	return set.Detail(), nil
}

// UpdateSet applies patch to an owned set. Cards are never touched.
func (s *Store) UpdateSet(ctx context.Context, ownerID, setID string, patch SetPatch) (model.SetDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.authorizeSet(ownerID, setID)
	if err != nil {
		return model.SetDetail{}, err
	}

	if patch.Title != nil {
		set.Title = *patch.Title
	}
	if patch.Description != nil {
		set.Description = *patch.Description
	}

	s.flushLocked(ctx, "update_set")
	return set.Detail(), nil
}

// DeleteSet removes an owned set together with all of its cards.
func (s *Store) DeleteSet(ctx context.Context, ownerID, setID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.authorizeSet(ownerID, setID); err != nil {
		return err
	}
	delete(s.sets, setID)

	s.flushLocked(ctx, "delete_set")
	return nil
}

// AddCard appends a card to an owned set.
func (s *Store) AddCard(ctx context.Context, ownerID, setID, front, back string) (model.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.authorizeSet(ownerID, setID)
	if err != nil {
		return model.Flashcard{}, err
	}

	card := model.Flashcard{ID: s.newID(), Front: front, Back: back}
	set.Cards = append(set.Cards, card)

	s.flushLocked(ctx, "add_card")
	return card, nil
}

// UpdateCard replaces the front and back of a card in an owned set. The
// card keeps its position.
func (s *Store) UpdateCard(ctx context.Context, ownerID, setID, cardID, front, back string) (model.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.authorizeSet(ownerID, setID)
	if err != nil {
		return model.Flashcard{}, err
	}

	i := indexOfCard(set.Cards, cardID)
	if i < 0 {
		return model.Flashcard{}, apperror.Missing("card", CardNotFoundMessage)
	}
	set.Cards[i].Front = front
	set.Cards[i].Back = back

	s.flushLocked(ctx, "update_card")
	return set.Cards[i], nil
}

// DeleteCard removes a card from an owned set, keeping the order of the
// remaining cards.
func (s *Store) DeleteCard(ctx context.Context, ownerID, setID, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.authorizeSet(ownerID, setID)
	if err != nil {
		return err
	}

	i := indexOfCard(set.Cards, cardID)
	if i < 0 {
		return apperror.Missing("card", CardNotFoundMessage)
	}
	set.Cards = slices.Delete(set.Cards, i, i+1)

	s.flushLocked(ctx, "delete_card")
	return nil
}

// indexOfCard returns the position of the first card with id, or -1.
func indexOfCard(cards []model.Flashcard, id string) int {
	return slices.IndexFunc(cards, func(c model.Flashcard) bool { return c.ID == id })
}
