// Package config provides runtime configuration for the ArctiCalls backend
package config

import "time"

// Server defaults
const (
	DefaultHTTPPort = 8080
	DefaultDataDir  = "./data"
	DefaultDBFile   = "arcticalls.db"
)

// Voice access token settings
const (
	TokenIdentity    = "arcticalls-agent"
	TokenTTL         = time.Hour
	TokenRefreshLead = 5 * time.Minute // refresh this long before expiry
)

// Credential endpoint rate limit: requests per source per window
const (
	TokenRateLimit  = 10
	TokenRateWindow = time.Minute
)

// Token acquisition retry settings
const (
	TokenMaxAttempts = 3
	TokenBackoffBase = time.Second // doubled per attempt
)

// Call handling
const (
	DialTimeout  = 30 * time.Second // no-answer timeout on dial instructions
	DurationTick = time.Second
)

// Twilio REST retry settings
const (
	TwilioMaxRetries = 3
)

// API session settings
const (
	SessionDuration = 24 * time.Hour
)

// Call history list bound
const (
	RecentsLimit = 100
)
