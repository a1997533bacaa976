package handler

import (
	"net/http"

	"github.com/sakif/flipit/internal/apperror"
)

// HandleStats is a placeholder for study statistics.
//
// HTTP: POST /api/stats → always 501.
func HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeError(w, apperror.NotImplemented("Stats route"))
}

// HandleHealth reports liveness.
//
// HTTP: GET /healthz → {"status":"ok"}
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
