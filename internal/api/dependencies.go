package api

import (
	"context"

	"github.com/arcticalls/arcticalls/internal/auth"
	"github.com/arcticalls/arcticalls/internal/call"
	"github.com/arcticalls/arcticalls/internal/config"
	"github.com/arcticalls/arcticalls/internal/db"
	"github.com/arcticalls/arcticalls/internal/routing"
)

// Dependencies holds all dependencies for API handlers
type Dependencies struct {
	DB      *db.DB
	Session SessionController
	Twilio  TwilioClient
	Minter  TokenMinter
	Auth    *auth.Manager
	Config  *config.Config
	Routing routing.Config
}

// SessionController is the slice of the call session the API drives.
type SessionController interface {
	Place(ctx context.Context, raw string) error
	Accept()
	Reject()
	HangUp()
	ToggleMute() bool
	SendTone(digits string)
	Snapshot() call.Snapshot
	HandleRinging()
	HandleAnswered()
	HandleDisconnect()
	HandleError(err error)
	Terminate(reason call.Reason)
	OfferIncoming(c call.Call, from string)
}

// TwilioClient interface for Twilio operations
type TwilioClient interface {
	IsHealthy() bool
	EndCall(ctx context.Context, callSID string) error
	GetAccountBalance(ctx context.Context) (float64, error)
}

// TokenMinter issues short-lived telephony access tokens.
type TokenMinter interface {
	Mint() (string, error)
}

// NewDependencies creates a new Dependencies instance
func NewDependencies(cfg *config.Config, database *db.DB, session SessionController, twilio TwilioClient, minter TokenMinter, authMgr *auth.Manager) *Dependencies {
	return &Dependencies{
		DB:      database,
		Session: session,
		Twilio:  twilio,
		Minter:  minter,
		Auth:    authMgr,
		Config:  cfg,
		Routing: routing.Config{
			AccountNumber:  cfg.AccountNumber,
			ForwardNumber:  cfg.ForwardNumber,
			ClientIdentity: config.TokenIdentity,
			DialTimeout:    int(config.DialTimeout.Seconds()),
		},
	}
}
