package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell-systems/scriptorium/internal/middleware"
)

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(2, time.Minute)
	handler := middleware.UserIdentity()(rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", user)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("u1"); code != http.StatusOK {
		t.Errorf("first request: expected 200, got %d", code)
	}
	if code := do("u1"); code != http.StatusOK {
		t.Errorf("second request: expected 200, got %d", code)
	}
	if code := do("u1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: expected 429, got %d", code)
	}

	// Limits are per user.
	if code := do("u2"); code != http.StatusOK {
		t.Errorf("other user: expected 200, got %d", code)
	}
}
