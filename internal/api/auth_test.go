package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func loginRequest(t *testing.T, email, password, ip string) *http.Request {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("Failed to marshal login request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = ip
	return req
}

func TestLoginSuccess(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	rr := httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, testAdminEmail, testAdminPassword, "10.0.0.1:1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp LoginResponse
	decodeJSON(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("no token in response")
	}

	claims, err := deps.Auth.Verify(resp.Token, time.Now())
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.Email != testAdminEmail {
		t.Errorf("claims email = %q", claims.Email)
	}

	// A session cookie is set alongside the bearer token
	cookies := rr.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "session" && c.Value == resp.Token && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("expected an HttpOnly session cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	rr := httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, testAdminEmail, "wrong", "10.0.0.2:1"))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	rr := httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, "other@example.com", testAdminPassword, "10.0.0.3:1"))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	rr := httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, "", "", "10.0.0.4:1"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestLoginLockout(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	for i := 0; i < maxLoginAttempts; i++ {
		rr := httptest.NewRecorder()
		handler.Login(rr, loginRequest(t, testAdminEmail, "wrong", "10.0.0.5:1"))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, rr.Code)
		}
	}

	// Further attempts from that address are locked out, even with the
	// right password
	rr := httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, testAdminEmail, testAdminPassword, "10.0.0.5:1"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("locked out status = %d, want 429", rr.Code)
	}

	// Other addresses are unaffected
	rr = httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, testAdminEmail, testAdminPassword, "10.0.0.6:1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("other address status = %d, want 200", rr.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	rr := httptest.NewRecorder()
	handler.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" {
			if c.MaxAge >= 0 {
				t.Error("session cookie not expired")
			}
			return
		}
	}
	t.Error("no session cookie in logout response")
}

func TestLoginCaseInsensitiveEmail(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewAuthHandler(deps)

	rr := httptest.NewRecorder()
	handler.Login(rr, loginRequest(t, "ADMIN@Example.com", testAdminPassword, "10.0.0.7:1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
