package token

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Provider acquires voice access tokens from the credential endpoint,
// retrying with exponential backoff. It backs the telephony device both
// at registration and when the device signals imminent expiry.
type Provider struct {
	endpoint    string
	client      *http.Client
	maxAttempts int

	// sleep is replaceable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProvider creates a Provider for the given credential endpoint URL.
func NewProvider(endpoint string, maxAttempts int) *Provider {
	return &Provider{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
		maxAttempts: maxAttempts,
		sleep:       sleepCtx,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Acquire fetches a fresh access token. On failure it waits 2^attempt
// seconds before retrying, up to the configured attempt count; the
// final failure is returned to the caller.
func (p *Provider) Acquire(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if err := p.sleep(ctx, backoff); err != nil {
				return "", err
			}
		}

		token, err := p.acquireOnce(ctx)
		if err == nil {
			return token, nil
		}
		lastErr = err
		slog.Warn("Token acquisition failed", "attempt", attempt+1, "error", err)
	}

	return "", fmt.Errorf("token: failed after %d attempts: %w", p.maxAttempts, lastErr)
}

// Refresh fetches a replacement token for an already-registered device.
// A refresh failure is logged and reported but must not tear down the
// registration; the current token simply expires later.
func (p *Provider) Refresh(ctx context.Context) (string, error) {
	token, err := p.Acquire(ctx)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		return "", err
	}
	return token, nil
}

// KeepFresh acquires a token immediately and then refreshes on the
// given interval until the context is cancelled. Run against the
// deployment's own credential endpoint it is a live self-check: a
// broken minter configuration or origin policy surfaces in the server
// log instead of in the browser.
func (p *Provider) KeepFresh(ctx context.Context, interval time.Duration) {
	if _, err := p.Acquire(ctx); err != nil {
		slog.Warn("Initial credential check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

func (p *Provider) acquireOnce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("credential endpoint returned %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("invalid credential response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("credential response missing token")
	}

	return body.Token, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
