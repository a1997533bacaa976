// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Store (Data layer)       → owns state, checks ownership, persists snapshots
//
// Handlers only know about HTTP (status codes, headers, JSON). Services only
// know about business rules (input limits, which error a caller sees).
// Neither knows whether snapshots end up in a JSON file or in SQLite.
//
// DEPENDENCY INJECTION:
// SetService takes a SetStore (interface), NOT a *store.Store. Tests can pass
// anything with the same methods, and main.go decides what is real.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/flipit/internal/apperror"
	"github.com/sakif/flipit/internal/model"
	"github.com/sakif/flipit/internal/store"
)

// Validation constants, in bytes.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxCardTextLength    = 5000
)

// CardSetForbiddenMessage is what card operations report when the parent set
// is missing or owned by someone else.
const CardSetForbiddenMessage = "Unauthorized or Set not found"

// SetStore is the slice of store.Store the set service needs.
type SetStore interface {
	CreateSet(ctx context.Context, ownerID, title, description string) (model.SetDetail, error)
	ListSets(ownerID string) []model.SetSummary
	GetSet(ownerID, setID string) (model.SetDetail, error)
	UpdateSet(ctx context.Context, ownerID, setID string, patch store.SetPatch) (model.SetDetail, error)
	DeleteSet(ctx context.Context, ownerID, setID string) error
	AddCard(ctx context.Context, ownerID, setID, front, back string) (model.Flashcard, error)
	UpdateCard(ctx context.Context, ownerID, setID, cardID, front, back string) (model.Flashcard, error)
	DeleteCard(ctx context.Context, ownerID, setID, cardID string) error
}

// SetService handles business logic for flashcard sets and their cards.
// Every method takes the authenticated user ID as ownerID.
type SetService struct {
	store  SetStore
	logger *slog.Logger
}

// NewSetService creates a new SetService.
func NewSetService(s SetStore, logger *slog.Logger) *SetService {
	return &SetService{
		store:  s,
		logger: logger,
	}
}

// CreateSet validates and stores a new, empty set.
//
// The title is trimmed and must not be blank afterwards. The description is
// kept verbatim.
func (s *SetService) CreateSet(ctx context.Context, ownerID, title, description string) (model.SetDetail, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return model.SetDetail{}, err
	}
	if err := checkDescription(description); err != nil {
		return model.SetDetail{}, err
	}

	set, err := s.store.CreateSet(ctx, ownerID, title, description)
	if err != nil {
		return model.SetDetail{}, err
	}

	s.logger.Info("set created",
		slog.String("setID", set.ID),
		slog.String("userID", ownerID),
	)
	return set, nil
}

// ListSets returns the caller's sets as summaries.
func (s *SetService) ListSets(_ context.Context, ownerID string) []model.SetSummary {
	return s.store.ListSets(ownerID)
}

// GetSet returns one of the caller's sets with its cards.
// Returns apperror.ErrNotFound if the set is missing or not owned.
func (s *SetService) GetSet(_ context.Context, ownerID, setID string) (model.SetDetail, error) {
	return s.store.GetSet(ownerID, setID)
}

// UpdateSet applies a partial update. Nil fields are left unchanged; a
// provided title follows the same rules as on creation.
func (s *SetService) UpdateSet(ctx context.Context, ownerID, setID string, title, description *string) (model.SetDetail, error) {
	var patch store.SetPatch
	if title != nil {
		t, err := normalizeTitle(*title)
		if err != nil {
			return model.SetDetail{}, err
		}
		patch.Title = &t
	}
	if description != nil {
		if err := checkDescription(*description); err != nil {
			return model.SetDetail{}, err
		}
		patch.Description = description
	}

	set, err := s.store.UpdateSet(ctx, ownerID, setID, patch)
	if err != nil {
		return model.SetDetail{}, err
	}

	s.logger.Info("set updated", slog.String("setID", setID))
	return set, nil
}

// DeleteSet removes one of the caller's sets and all of its cards.
func (s *SetService) DeleteSet(ctx context.Context, ownerID, setID string) error {
	if err := s.store.DeleteSet(ctx, ownerID, setID); err != nil {
		return err
	}
	s.logger.Info("set deleted", slog.String("setID", setID))
	return nil
}

// AddCard appends a card to one of the caller's sets.
//
// Card operations report a missing or foreign set as apperror.ErrForbidden,
// where set operations report apperror.ErrNotFound. Clients depend on the
// difference.
func (s *SetService) AddCard(ctx context.Context, ownerID, setID, front, back string) (model.Flashcard, error) {
	if err := checkCardText(front, back); err != nil {
		return model.Flashcard{}, err
	}

	card, err := s.store.AddCard(ctx, ownerID, setID, front, back)
	if err != nil {
		return model.Flashcard{}, cardError(err)
	}

	s.logger.Info("card added",
		slog.String("setID", setID),
		slog.String("cardID", card.ID),
	)
	return card, nil
}

// UpdateCard replaces both sides of a card.
func (s *SetService) UpdateCard(ctx context.Context, ownerID, setID, cardID, front, back string) (model.Flashcard, error) {
	if err := checkCardText(front, back); err != nil {
		return model.Flashcard{}, err
	}

	card, err := s.store.UpdateCard(ctx, ownerID, setID, cardID, front, back)
	if err != nil {
		return model.Flashcard{}, cardError(err)
	}
	return card, nil
}

// DeleteCard removes a card from one of the caller's sets.
func (s *SetService) DeleteCard(ctx context.Context, ownerID, setID, cardID string) error {
	if err := s.store.DeleteCard(ctx, ownerID, setID, cardID); err != nil {
		return cardError(err)
	}
	s.logger.Info("card deleted",
		slog.String("setID", setID),
		slog.String("cardID", cardID),
	)
	return nil
}

// cardError turns a missing parent set into Forbidden. A missing card stays
// NotFound.
func cardError(err error) error {
	if apperror.IsMissing(err, "set") {
		return apperror.Forbidden(CardSetForbiddenMessage)
	}
	return err
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return title, nil
}

func checkDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return nil
}

func checkCardText(front, back string) error {
	if len(front) > MaxCardTextLength {
		return apperror.ValidationFailed("front",
			fmt.Sprintf("front must be %d characters or less", MaxCardTextLength))
	}
	if len(back) > MaxCardTextLength {
		return apperror.ValidationFailed("back",
			fmt.Sprintf("back must be %d characters or less", MaxCardTextLength))
	}
	return nil
}
