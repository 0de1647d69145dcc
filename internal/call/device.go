// Package call owns the lifecycle of a single phone call: the session
// state machine, its duration timing, and the hand-off to the call
// history when a call terminates.
package call

import (
	"context"

	"github.com/arcticalls/arcticalls/internal/models"
)

// Device represents this client's registration with the voice network.
// The signaling and media stack behind it is opaque; the session only
// needs to originate legs and to know whether registration is live.
type Device interface {
	// Registered reports whether the device can currently place calls.
	Registered() bool

	// Connect originates an outgoing leg to the given canonical number.
	// It blocks until the network has accepted or refused the attempt.
	Connect(ctx context.Context, number string) (Call, error)
}

// Call is one live leg created or offered by the Device.
type Call interface {
	// ID is the network-assigned identifier for this leg.
	ID() string

	// Disconnect asks the network to end the leg. Termination is
	// confirmed asynchronously through the session's event methods.
	Disconnect()

	// Mute sets the local mute state.
	Mute(muted bool)

	// SendDigits plays DTMF tones into the leg.
	SendDigits(digits string)

	// Accept answers an offered incoming leg.
	Accept()

	// Reject declines an offered incoming leg.
	Reject()
}

// Recorder persists the summary of a terminated call. Insert-only.
type Recorder interface {
	Create(ctx context.Context, rec *models.CallRecord) error
}

// Directory lists the user's contacts in display order, used for
// best-effort name resolution at call termination.
type Directory interface {
	List(ctx context.Context) ([]*models.Contact, error)
}
