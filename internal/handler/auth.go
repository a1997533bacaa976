package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/flipit/internal/service"
)

// AuthHandler serves registration and login.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account, return its ID and a bearer token
//   - HandleLogin    → check credentials, return the same shape
//
// Both respond with {message, user_id, token}. Under the default token
// scheme the token equals user_id, so clients that only read user_id keep
// working.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

const credentialsMalformed = "Invalid JSON or missing username/password"

type credentialsRequest struct {
	Username *string `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Token   string `json:"token"`
}

// HandleRegister creates a user.
//
// HTTP: POST /api/register
// REQUEST BODY: {"username": "alice", "password": "secret"}
// RESPONSES: 201 on success, 409 if the username is taken, 400 if malformed.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, credentialsMalformed); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), *req.Username, *req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "Registration successful",
		UserID:  result.User.ID,
		Token:   result.Token,
	})
}

// HandleLogin checks credentials.
//
// HTTP: POST /api/login
// RESPONSES: 200 on success, 401 on bad credentials, 400 if malformed.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, credentialsMalformed); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		UserID:  result.User.ID,
		Token:   result.Token,
	})
}
