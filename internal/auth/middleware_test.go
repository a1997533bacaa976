package auth

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sakif/flipit/internal/middleware"
)

func TestRequireBearer(t *testing.T) {
	tokens := NewUserIDTokens(fakeUsers{"u1": true})

	var gotID string
	protected := RequireBearer(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     string
	}{
		{"valid token", "Bearer u1", http.StatusNoContent, "u1"},
		{"no header", "", http.StatusForbidden, ""},
		{"unknown user", "Bearer u2", http.StatusForbidden, ""},
		{"missing token", "Bearer ", http.StatusForbidden, ""},
		{"lowercase scheme", "bearer u1", http.StatusForbidden, ""},
		{"other scheme", "Basic u1", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/sets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotID != tt.wantID {
				t.Errorf("user ID in context = %q, want %q", gotID, tt.wantID)
			}
			if tt.wantStatus == http.StatusForbidden {
				if body := rec.Body.String(); body != authRequiredBody {
					t.Errorf("body = %s, want %s", body, authRequiredBody)
				}
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}
			}
		})
	}
}

func TestRequireBearer_AnnotatesAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tokens := NewUserIDTokens(fakeUsers{"u1": true})

	h := middleware.Logger(logger)(RequireBearer(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	req := httptest.NewRequest(http.MethodGet, "/api/sets", nil)
	req.Header.Set("Authorization", "Bearer u1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !strings.Contains(buf.String(), "user_id=u1") {
		t.Errorf("access log = %q, want user_id=u1", buf.String())
	}

	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/api/sets", nil)
	req.Header.Set("Authorization", "Bearer nobody")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !strings.Contains(buf.String(), `user_id=""`) {
		t.Errorf("access log = %q, want an empty user_id for a rejected token", buf.String())
	}
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id, ok := UserIDFromContext(req.Context()); ok || id != "" {
		t.Errorf("UserIDFromContext() = (%q, %v), want (\"\", false)", id, ok)
	}

	ctx := WithUserID(req.Context(), "u9")
	if id, ok := UserIDFromContext(ctx); !ok || id != "u9" {
		t.Errorf("UserIDFromContext() after WithUserID = (%q, %v), want (u9, true)", id, ok)
	}
}
