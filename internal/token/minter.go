// Package token mints and acquires voice access credentials.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Minter builds Twilio-format voice access tokens: short-lived JWTs
// signed with an API key secret, carrying a voice grant scoped to one
// identity and one TwiML application.
type Minter struct {
	accountSID   string
	apiKeySID    string
	apiKeySecret string
	appSID       string
	identity     string
	ttl          time.Duration

	now func() time.Time
}

// MinterParams configures a Minter.
type MinterParams struct {
	AccountSID   string
	APIKeySID    string
	APIKeySecret string
	AppSID       string
	Identity     string
	TTL          time.Duration
}

// NewMinter creates a Minter. All credential fields are required.
func NewMinter(p MinterParams) (*Minter, error) {
	if p.AccountSID == "" || p.APIKeySID == "" || p.APIKeySecret == "" {
		return nil, fmt.Errorf("token: account SID, API key SID and secret are required")
	}
	if p.AppSID == "" {
		return nil, fmt.Errorf("token: TwiML application SID is required")
	}
	if p.Identity == "" {
		return nil, fmt.Errorf("token: identity is required")
	}
	if p.TTL <= 0 {
		p.TTL = time.Hour
	}

	return &Minter{
		accountSID:   p.AccountSID,
		apiKeySID:    p.APIKeySID,
		apiKeySecret: p.APIKeySecret,
		appSID:       p.AppSID,
		identity:     p.Identity,
		ttl:          p.TTL,
		now:          time.Now,
	}, nil
}

// Mint produces a signed access token granting permission to originate
// and receive voice sessions through the configured application.
func (m *Minter) Mint() (string, error) {
	now := m.now()

	claims := jwt.MapClaims{
		"jti": m.apiKeySID + "-" + uuid.NewString(),
		"iss": m.apiKeySID,
		"sub": m.accountSID,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
		"grants": map[string]any{
			"identity": m.identity,
			"voice": map[string]any{
				"incoming": map[string]any{"allow": true},
				"outgoing": map[string]any{"application_sid": m.appSID},
			},
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["cty"] = "twilio-fpa;v=1"

	signed, err := t.SignedString([]byte(m.apiKeySecret))
	if err != nil {
		return "", fmt.Errorf("token: signing failed: %w", err)
	}
	return signed, nil
}
