package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BrewReview/BR-Backend/internal/middleware"
	"github.com/BrewReview/BR-Backend/internal/roles"
	"github.com/BrewReview/BR-Backend/internal/utils"
)

// mockFetcher implements middleware.SessionFetcher without any database dependency.
type mockFetcher struct {
	session utils.SessionData
	err     error
}

func (m mockFetcher) FindSessionByID(id string) (utils.SessionData, error) {
	return m.session, m.err
}

// mockDirectory implements middleware.RoleDirectory.
type mockDirectory struct {
	role roles.Role
	err  error
}

func (m mockDirectory) HighestRoleOf(userID string) (roles.Role, error) {
	return m.role, m.err
}

// callWithCookie wraps a simple 200-OK inner handler in the provided middleware,
// optionally setting one cookie on the request, and returns the recorded response.
func callWithCookie(t *testing.T, mw func(http.Handler) http.Handler, cookieName, cookieValue string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if cookieName != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestSessionMiddleware_MissingCookie verifies that a request with no session_id
// cookie receives a 401 response.
func TestSessionMiddleware_MissingCookie(t *testing.T) {
	fetcher := mockFetcher{}
	mw := middleware.SessionMiddleware(fetcher)

	rec := callWithCookie(t, mw, "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestSessionMiddleware_ExpiredSession verifies that a request with a valid session_id
// cookie but an expired session receives a 401 response containing "Session expired".
func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	fetcher := mockFetcher{
		session: utils.SessionData{
			UserID:    "some-user",
			ExpiresAt: time.Now().Add(-1 * time.Hour), // 1 hour in the past
		},
		err: nil,
	}
	mw := middleware.SessionMiddleware(fetcher)

	rec := callWithCookie(t, mw, "session_id", "expired-session-id")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Session expired") {
		t.Errorf("expected body to contain %q, got: %q", "Session expired", body)
	}
}

// TestSessionMiddleware_FetcherError verifies that a fetcher error (e.g. session not found)
// results in a 401 response.
func TestSessionMiddleware_FetcherError(t *testing.T) {
	fetcher := mockFetcher{
		session: utils.SessionData{},
		err:     errors.New("session not found"),
	}
	mw := middleware.SessionMiddleware(fetcher)

	rec := callWithCookie(t, mw, "session_id", "nonexistent-session-id")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestSessionMiddleware_ValidSession verifies that a request with a valid, non-expired
// session receives a 200 response and that the userID is injected into the context.
func TestSessionMiddleware_ValidSession(t *testing.T) {
	const wantUserID = "test-user-123"

	fetcher := mockFetcher{
		session: utils.SessionData{
			UserID:    wantUserID,
			ExpiresAt: time.Now().Add(1 * time.Hour), // 1 hour in the future
		},
		err: nil,
	}

	// inner handler reads and echoes the userID from context
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "userID not in context", http.StatusInternalServerError)
			return
		}
		if gotUserID != wantUserID {
			http.Error(w, "wrong userID in context: "+gotUserID, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := middleware.SessionMiddleware(fetcher)
	handler := mw(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session-id"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

// callWithUserID runs the middleware with an optional userID already in the
// request context, the way SessionMiddleware would leave it.
func callWithUserID(t *testing.T, mw func(http.Handler) http.Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), utils.ContextUserIDKey, userID)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestRequireRole_MissingUserID verifies that RequireRole returns 401 when no
// userID is present in the request context (i.e. SessionMiddleware did not run
// or injected nothing). This test does not require a database connection.
func TestRequireRole_MissingUserID(t *testing.T) {
	mw := middleware.RequireRole(mockDirectory{}, roles.Admin)

	rec := callWithUserID(t, mw, "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "missing user ID") {
		t.Errorf("expected body to contain %q, got: %q", "missing user ID", body)
	}
}

// TestRequireRole_InsufficientRole verifies that a plain user is rejected from
// an admin-gated route with 403.
func TestRequireRole_InsufficientRole(t *testing.T) {
	mw := middleware.RequireRole(mockDirectory{role: roles.User}, roles.Admin)

	rec := callWithUserID(t, mw, "user-1")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// TestRequireRole_BannedUser verifies that a banned user fails even the User gate.
func TestRequireRole_BannedUser(t *testing.T) {
	mw := middleware.RequireRole(mockDirectory{role: roles.Banned}, roles.User)

	rec := callWithUserID(t, mw, "user-1")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// TestRequireRole_SufficientRole verifies that holders of the minimum role or
// above pass through.
func TestRequireRole_SufficientRole(t *testing.T) {
	for _, role := range []roles.Role{roles.Admin, roles.Manager} {
		mw := middleware.RequireRole(mockDirectory{role: role}, roles.Admin)

		rec := callWithUserID(t, mw, "user-1")

		if rec.Code != http.StatusOK {
			t.Errorf("role %s: expected 200, got %d", role, rec.Code)
		}
	}
}

// TestRequireRole_DirectoryError verifies that an unresolvable user is rejected
// with 401 rather than let through.
func TestRequireRole_DirectoryError(t *testing.T) {
	mw := middleware.RequireRole(mockDirectory{err: errors.New("user not found")}, roles.User)

	rec := callWithUserID(t, mw, "ghost")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestRateLimiter_BurstThenReject verifies that requests beyond the burst are
// rejected with 429 and a Retry-After header.
func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2) // 1/min, burst of 2

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware(inner)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:52342"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected third request to be limited, got %v", codes)
	}
}

// TestRateLimiter_PerIP verifies that one client's exhaustion does not affect
// another address.
func TestRateLimiter_PerIP(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Middleware(inner)

	first := httptest.NewRequest(http.MethodPost, "/login", nil)
	first.RemoteAddr = "10.0.0.1:40000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for first client, got %d", rec.Code)
	}

	again := httptest.NewRequest(http.MethodPost, "/login", nil)
	again.RemoteAddr = "10.0.0.1:40001"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for exhausted client, got %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.2:40000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a different client, got %d", rec.Code)
	}
}
