package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/flipit/internal/apperror"
	"github.com/sakif/flipit/internal/auth"
	"github.com/sakif/flipit/internal/service"
)

// SetHandler serves /api/sets and the card routes nested under it.
// Every route sits behind auth.RequireBearer, so the caller's ID is always
// in the request context.
type SetHandler struct {
	sets   *service.SetService
	logger *slog.Logger
}

// NewSetHandler creates a SetHandler.
func NewSetHandler(sets *service.SetService, logger *slog.Logger) *SetHandler {
	return &SetHandler{sets: sets, logger: logger}
}

type createSetRequest struct {
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description"`
}

type updateSetRequest struct {
	Title       optionalString `json:"title"`
	Description optionalString `json:"description"`
}

// currentUser returns the authenticated user ID. RequireBearer guarantees
// it is present; an empty string reaches the store as "owns nothing".
func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// HandleList returns the caller's sets without their cards.
//
// HTTP: GET /api/sets
//
// RESPONSE FORMAT:
//
//	[
//	  {"set_id":"...","user_id":"...","title":"Math","description":"","card_count":3},
//	  ...
//	]
func (h *SetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sets.ListSets(r.Context(), currentUser(r)))
}

// HandleGet returns one set with its cards.
//
// HTTP: GET /api/sets/{setID}
//
// URL PARAMETERS:
// Chi fills r.PathValue("setID") from the route pattern.
func (h *SetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	set, err := h.sets.GetSet(r.Context(), currentUser(r), r.PathValue("setID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// HandleCreate creates an empty set.
//
// HTTP: POST /api/sets
// REQUEST BODY: {"title": "Math", "description": "optional"}
func (h *SetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if err := decodeJSON(w, r, &req, "Invalid JSON or missing title"); err != nil {
		writeError(w, err)
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	set, err := h.sets.CreateSet(r.Context(), currentUser(r), *req.Title, description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

// HandleUpdate changes the title and/or description of a set.
//
// HTTP: PUT /api/sets/{setID}
// REQUEST BODY: {"title"?: "...", "description"?: "..."}; absent fields are
// kept, null fields are a 400.
func (h *SetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const malformed = "Invalid JSON or missing fields"

	var req updateSetRequest
	if err := decodeJSON(w, r, &req, malformed); err != nil {
		writeError(w, err)
		return
	}
	if req.Title.null || req.Description.null {
		writeError(w, apperror.ValidationFailed("", malformed))
		return
	}

	set, err := h.sets.UpdateSet(r.Context(), currentUser(r), r.PathValue("setID"),
		req.Title.ptr(), req.Description.ptr())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// HandleDelete removes a set and its cards.
//
// HTTP: DELETE /api/sets/{setID}
func (h *SetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sets.DeleteSet(r.Context(), currentUser(r), r.PathValue("setID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Set deleted"})
}
