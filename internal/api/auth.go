package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts = 5
	loginLockout     = 15 * time.Minute
)

// AuthHandler handles authentication-related API endpoints
type AuthHandler struct {
	deps          *Dependencies
	loginAttempts map[string][]time.Time
	attemptsMu    sync.Mutex
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(deps *Dependencies) *AuthHandler {
	return &AuthHandler{
		deps:          deps,
		loginAttempts: make(map[string][]time.Time),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Login authenticates the configured operator account
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteValidationError(w, "Invalid request body", nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteValidationError(w, "Email and password are required", []FieldError{
			{Field: "email", Message: "Email is required"},
			{Field: "password", Message: "Password is required"},
		})
		return
	}

	ip := clientIP(r)
	if allowed, remaining := h.checkLoginAttempt(ip); !allowed {
		WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimited,
			"Too many login attempts. Try again in "+remaining.Round(time.Second).String(), nil)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	emailMatch := subtle.ConstantTimeCompare(
		[]byte(email), []byte(strings.ToLower(h.deps.Config.AdminEmail))) == 1
	passErr := bcrypt.CompareHashAndPassword(
		[]byte(h.deps.Config.AdminPasswordHash), []byte(req.Password))

	if !emailMatch || passErr != nil {
		h.recordFailedAttempt(ip)
		WriteError(w, http.StatusUnauthorized, ErrCodeAuthentication, "Invalid email or password", nil)
		return
	}

	token, err := h.deps.Auth.Issue(time.Now(), email)
	if err != nil {
		slog.Error("Failed to issue session token", "error", err)
		WriteInternalError(w)
		return
	}
	h.clearAttempts(ip)

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(h.deps.Auth.TTL().Seconds()),
	})

	slog.Info("Login succeeded", "email", email)
	WriteJSON(w, http.StatusOK, LoginResponse{Email: email, Token: token})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"email": GetEmailFromContext(r.Context()),
	})
}

// Login attempt tracking

func (h *AuthHandler) checkLoginAttempt(ip string) (bool, time.Duration) {
	h.attemptsMu.Lock()
	defer h.attemptsMu.Unlock()

	cutoff := time.Now().Add(-loginLockout)
	var recent []time.Time
	for _, ts := range h.loginAttempts[ip] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	h.loginAttempts[ip] = recent

	if len(recent) >= maxLoginAttempts {
		return false, recent[0].Add(loginLockout).Sub(time.Now())
	}
	return true, 0
}

func (h *AuthHandler) recordFailedAttempt(ip string) {
	h.attemptsMu.Lock()
	defer h.attemptsMu.Unlock()
	h.loginAttempts[ip] = append(h.loginAttempts[ip], time.Now())
}

func (h *AuthHandler) clearAttempts(ip string) {
	h.attemptsMu.Lock()
	defer h.attemptsMu.Unlock()
	delete(h.loginAttempts, ip)
}
