package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protectedHandler(deps *Dependencies) http.Handler {
	mw := AuthMiddleware(deps)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetEmailFromContext(r.Context())))
	}))
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	deps, _ := setupTestDeps(t)
	h := protectedHandler(deps)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	deps, _ := setupTestDeps(t)
	h := protectedHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	deps, _ := setupTestDeps(t)
	h := protectedHandler(deps)

	req := authedRequest(t, deps, http.MethodGet, "/api/me", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != testAdminEmail {
		t.Errorf("context email = %q, want %q", rr.Body.String(), testAdminEmail)
	}
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	deps, _ := setupTestDeps(t)
	h := protectedHandler(deps)

	tok, err := deps.Auth.Issue(time.Now(), testAdminEmail)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	deps, _ := setupTestDeps(t)
	h := protectedHandler(deps)

	// Issued far enough in the past to be beyond TTL and leeway
	tok, err := deps.Auth.Issue(time.Now().Add(-48*time.Hour), testAdminEmail)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
