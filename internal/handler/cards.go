package handler

import "net/http"

type cardRequest struct {
	Front *string `json:"front" validate:"required"`
	Back  *string `json:"back" validate:"required"`
}

// HandleAddCard appends a card to a set.
//
// HTTP: POST /api/sets/{setID}/cards
// REQUEST BODY: {"front": "2+2", "back": "4"}
//
// A missing or foreign set answers 403, not 404.
func (h *SetHandler) HandleAddCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req, "Invalid JSON or missing fields for card"); err != nil {
		writeError(w, err)
		return
	}

	card, err := h.sets.AddCard(r.Context(), currentUser(r), r.PathValue("setID"), *req.Front, *req.Back)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// HandleUpdateCard replaces both sides of a card.
//
// HTTP: PUT /api/sets/{setID}/cards/{cardID}
func (h *SetHandler) HandleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req, "Invalid JSON or missing fields"); err != nil {
		writeError(w, err)
		return
	}

	card, err := h.sets.UpdateCard(r.Context(), currentUser(r),
		r.PathValue("setID"), r.PathValue("cardID"), *req.Front, *req.Back)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// HandleDeleteCard removes a card.
//
// HTTP: DELETE /api/sets/{setID}/cards/{cardID}
func (h *SetHandler) HandleDeleteCard(w http.ResponseWriter, r *http.Request) {
	err := h.sets.DeleteCard(r.Context(), currentUser(r), r.PathValue("setID"), r.PathValue("cardID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Card deleted"})
}
