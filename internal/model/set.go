package model

// Flashcard is a single front/back pair. A card has no existence outside the
// set that owns it: there is no card registry, only FlashcardSet.Cards.
type Flashcard struct {
	ID    string `json:"card_id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardSet is an owned, ordered collection of cards.
//
// OwnerID always references an existing User. It is taken from the
// authenticated identity, never from a request body.
type FlashcardSet struct {
	ID          string      `json:"set_id"`
	OwnerID     string      `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Cards       []Flashcard `json:"cards"`
}

// SetSummary is the list view of a set: every field except the cards, plus
// the derived card count.
type SetSummary struct {
	ID          string `json:"set_id"`
	OwnerID     string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CardCount   int    `json:"card_count"`
}

// SetDetail is the full view of a set. Embedding SetSummary flattens its
// fields into the same JSON object, so the response carries card_count too.
type SetDetail struct {
	SetSummary
	Cards []Flashcard `json:"cards"`
}

// Summary builds the list view of s.
func (s *FlashcardSet) Summary() SetSummary {
	return SetSummary{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Title:       s.Title,
		Description: s.Description,
		CardCount:   len(s.Cards),
	}
}

// Detail builds the full view of s. The card slice is copied so callers can
// encode it after the store lock has been released.
func (s *FlashcardSet) Detail() SetDetail {
	cards := make([]Flashcard, len(s.Cards))
	copy(cards, s.Cards)
	return SetDetail{
		SetSummary: s.Summary(),
		Cards:      cards,
	}
}

// Clone returns a deep copy of s.
func (s *FlashcardSet) Clone() FlashcardSet {
	c := *s
	c.Cards = make([]Flashcard, len(s.Cards))
	copy(c.Cards, s.Cards)
	return c
}
