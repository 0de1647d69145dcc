package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/arcticalls/arcticalls/internal/config"
)

// TokenHandler issues short-lived telephony access tokens to the
// browser client.
type TokenHandler struct {
	deps    *Dependencies
	limiter *rateLimiter
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(deps *Dependencies) *TokenHandler {
	return &TokenHandler{
		deps:    deps,
		limiter: newRateLimiter(config.TokenRateLimit, config.TokenRateWindow),
	}
}

// TokenResponse carries a minted access token.
type TokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	TTL      int    `json:"ttl"`
}

// Issue mints and returns an access token. Requests from origins
// outside the allow list and callers over the per-IP quota are
// refused with a bare status and no body.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	if !originAllowed(r, h.deps.Config.SiteURL) {
		slog.Warn("Token request from disallowed origin", "origin", r.Header.Get("Origin"))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	ip := clientIP(r)
	if ok, retryAfter := h.limiter.Allow(ip); !ok {
		slog.Warn("Token request rate limited", "ip", ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	token, err := h.deps.Minter.Mint()
	if err != nil {
		slog.Error("Token mint failed", "error", err)
		WriteInternalError(w)
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		Token:    token,
		Identity: config.TokenIdentity,
		TTL:      int(config.TokenTTL.Seconds()),
	})
}
