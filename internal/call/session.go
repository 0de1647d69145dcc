package call

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/arcticalls/arcticalls/internal/config"
	"github.com/arcticalls/arcticalls/internal/models"
	"github.com/arcticalls/arcticalls/internal/phone"
)

// State of the call session.
type State string

const (
	StateIdle     State = "idle"
	StatePlacing  State = "placing"
	StateRinging  State = "ringing"
	StateIncoming State = "incoming"
	StateActive   State = "active"
)

// Reason a session terminated.
type Reason string

const (
	ReasonCompleted Reason = "completed"
	ReasonFailed    Reason = "failed"
	ReasonCancelled Reason = "cancelled"
)

// ErrInvalidNumber is returned by Place when the dialed number cannot
// be normalized to a dialable form.
var ErrInvalidNumber = errors.New("call: number is not dialable")

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Device    Device
	Recorder  Recorder
	Directory Directory

	// OnDuration, if set, receives the elapsed seconds on every
	// duration tick while the call is active.
	OnDuration func(seconds int)

	// TickInterval overrides the duration tick period; zero means the
	// default one second.
	TickInterval time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Session is the state machine for one phone call. At most one
// non-terminal session exists per logged-in user; a new outbound
// attempt while one is in flight is a no-op. All transitions run under
// a single lock, so handlers observe a consistent session.
type Session struct {
	mu sync.Mutex

	device     Device
	recorder   Recorder
	directory  Directory
	onDuration func(int)
	tick       time.Duration
	now        func() time.Time

	state        State
	direction    string
	remoteNumber string
	current      Call
	pendingFrom  string // caller-supplied number on an offered leg
	startedAt    time.Time
	muted        bool
	lastTone     string
	stopTick     chan struct{}
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		device:     cfg.Device,
		recorder:   cfg.Recorder,
		directory:  cfg.Directory,
		onDuration: cfg.OnDuration,
		tick:       cfg.TickInterval,
		now:        cfg.Now,
		state:      StateIdle,
	}
	if s.tick <= 0 {
		s.tick = config.DurationTick
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Place originates an outbound call to a raw dialed number. The number
// is normalized first; an undialable number returns ErrInvalidNumber.
// While the device is unregistered or another session is in flight the
// attempt is dropped without error: the UI treats those as prevented
// conditions, not faults.
func (s *Session) Place(ctx context.Context, raw string) error {
	s.mu.Lock()

	if s.state != StateIdle {
		s.mu.Unlock()
		slog.Debug("Place ignored, session in flight", "state", s.state)
		return nil
	}
	if s.device == nil || !s.device.Registered() {
		s.mu.Unlock()
		slog.Debug("Place ignored, device not registered")
		return nil
	}

	number, ok := phone.Normalize(raw)
	if !ok {
		s.mu.Unlock()
		return ErrInvalidNumber
	}

	// Clear any stale per-call state before the new attempt
	s.state = StatePlacing
	s.direction = models.DirectionOutbound
	s.remoteNumber = number
	s.startedAt = time.Time{}
	s.muted = false
	s.lastTone = ""

	c, err := s.device.Connect(ctx, number)
	if err != nil {
		// A refused originate never left the network; reset without a
		// history record and surface the error.
		s.resetLocked()
		s.mu.Unlock()
		slog.Error("Call originate failed", "number", number, "error", err)
		return err
	}
	s.current = c
	s.mu.Unlock()

	slog.Info("Call placed", "call_id", c.ID(), "number", number)
	return nil
}

// OfferIncoming presents an incoming leg to the session. A second
// offer while any session is in flight is rejected immediately.
func (s *Session) OfferIncoming(c Call, from string) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		slog.Info("Incoming call rejected, session in flight", "call_id", c.ID())
		c.Reject()
		return
	}

	s.state = StateIncoming
	s.direction = models.DirectionInbound
	s.current = c
	s.pendingFrom = from
	s.startedAt = time.Time{}
	s.muted = false
	s.lastTone = ""
	s.mu.Unlock()

	slog.Info("Incoming call offered", "call_id", c.ID(), "from", from)
}

// Accept answers the offered incoming leg.
func (s *Session) Accept() {
	s.mu.Lock()
	if s.state != StateIncoming || s.current == nil {
		s.mu.Unlock()
		return
	}

	if number, ok := phone.Normalize(s.pendingFrom); ok {
		s.remoteNumber = number
	} else {
		s.remoteNumber = s.pendingFrom
	}
	c := s.current
	s.enterActiveLocked()
	s.mu.Unlock()

	c.Accept()
	slog.Info("Incoming call accepted", "call_id", c.ID())
}

// Reject declines the offered incoming leg. A rejected call never
// connected, so no history record is written.
func (s *Session) Reject() {
	s.mu.Lock()
	if s.state != StateIncoming || s.current == nil {
		s.mu.Unlock()
		return
	}
	c := s.current
	s.resetLocked()
	s.mu.Unlock()

	c.Reject()
	slog.Info("Incoming call rejected", "call_id", c.ID())
}

// HangUp asks the device to end the current leg. The terminal
// transition happens when the disconnect event arrives.
func (s *Session) HangUp() {
	s.mu.Lock()
	c := s.current
	s.mu.Unlock()

	if c != nil {
		c.Disconnect()
	}
}

// ToggleMute flips the mute state while a call is active and reports
// the resulting state. A no-op in any other state.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	if s.state != StateActive || s.current == nil {
		muted := s.muted
		s.mu.Unlock()
		return muted
	}
	s.muted = !s.muted
	muted := s.muted
	c := s.current
	s.mu.Unlock()

	c.Mute(muted)
	return muted
}

// SendTone forwards DTMF digits while a call is active; ignored
// otherwise.
func (s *Session) SendTone(digits string) {
	s.mu.Lock()
	if s.state != StateActive || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.lastTone = digits
	c := s.current
	s.mu.Unlock()

	c.SendDigits(digits)
}

// HandleRinging moves a placing call to ringing. Driven by the device.
func (s *Session) HandleRinging() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlacing {
		return
	}
	s.state = StateRinging
}

// HandleAnswered marks the remote party as connected and anchors the
// duration clock.
func (s *Session) HandleAnswered() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlacing && s.state != StateRinging {
		return
	}
	s.enterActiveLocked()
}

// HandleDisconnect ends the session normally. An incoming leg that was
// never accepted is treated as withdrawn by the remote side and leaves
// no history record.
func (s *Session) HandleDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
		return
	case StateIncoming:
		s.resetLocked()
	default:
		s.terminateLocked(ReasonCompleted)
	}
}

// HandleError forces a failed termination for any device or session
// level error event. Errors on a never-accepted incoming leg just
// withdraw the offer.
func (s *Session) HandleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return
	}
	slog.Error("Telephony error", "state", s.state, "error", err)
	if s.state == StateIncoming {
		s.resetLocked()
		return
	}
	s.terminateLocked(ReasonFailed)
}

// Terminate ends the session with an explicit reason. Driven by the
// device for remote cancellation and busy/no-answer outcomes.
func (s *Session) Terminate(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
		return
	case StateIncoming:
		s.resetLocked()
	default:
		s.terminateLocked(reason)
	}
}

// Snapshot is a point-in-time view of the session for the UI.
type Snapshot struct {
	State           State  `json:"state"`
	Direction       string `json:"direction,omitempty"`
	RemoteNumber    string `json:"remote_number,omitempty"`
	CallID          string `json:"call_id,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	Muted           bool   `json:"muted"`
	LastTone        string `json:"last_tone,omitempty"`
}

// Snapshot returns the current session state. Duration is always
// derived from the answer timestamp, never accumulated.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:        s.state,
		Direction:    s.direction,
		RemoteNumber: s.remoteNumber,
		Muted:        s.muted,
		LastTone:     s.lastTone,
	}
	if s.current != nil {
		snap.CallID = s.current.ID()
	}
	if s.state == StateIncoming {
		snap.RemoteNumber = s.pendingFrom
	}
	if s.state == StateActive && !s.startedAt.IsZero() {
		snap.DurationSeconds = int(s.now().Sub(s.startedAt) / time.Second)
	}
	return snap
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// enterActiveLocked anchors the duration clock and starts the tick.
// The previous ticker, if any, is stopped first so two can never run.
func (s *Session) enterActiveLocked() {
	s.stopTickLocked()
	s.state = StateActive
	s.startedAt = s.now()

	stop := make(chan struct{})
	s.stopTick = stop
	go s.runTicker(stop)
}

func (s *Session) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state != StateActive || s.startedAt.IsZero() {
				s.mu.Unlock()
				return
			}
			elapsed := int(s.now().Sub(s.startedAt) / time.Second)
			cb := s.onDuration
			s.mu.Unlock()

			if cb != nil {
				cb(elapsed)
			}
		}
	}
}

// terminateLocked stops the tick, writes exactly one history record,
// and returns the session to idle.
func (s *Session) terminateLocked(reason Reason) {
	s.stopTickLocked()

	now := s.now()
	duration := 0
	if !s.startedAt.IsZero() {
		duration = int(now.Sub(s.startedAt) / time.Second)
	}

	rec := &models.CallRecord{
		Phone:           s.remoteNumber,
		Direction:       s.direction,
		DurationSeconds: duration,
		StartedAt:       now.Add(-time.Duration(duration) * time.Second),
		EndedAt:         now,
		Status:          statusForReason(reason),
	}
	s.resolveContact(rec)

	if s.recorder != nil && rec.Phone != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.recorder.Create(ctx, rec); err != nil {
			slog.Error("Failed to log call", "number", rec.Phone, "error", err)
		}
		cancel()
	}

	slog.Info("Call ended", "number", s.remoteNumber, "reason", reason, "duration", duration)
	s.resetLocked()
}

// resolveContact snapshots the best-effort matching contact's name and
// id onto the record. Matching compares normalized numbers, tolerating
// differing national/international prefixes; the first match in
// directory order wins.
func (s *Session) resolveContact(rec *models.CallRecord) {
	if s.directory == nil || rec.Phone == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	contacts, err := s.directory.List(ctx)
	if err != nil {
		slog.Warn("Contact lookup failed", "error", err)
		return
	}

	for _, c := range contacts {
		if phone.Matches(rec.Phone, c.Phone) {
			name := c.Name
			id := c.ID
			rec.DisplayName = &name
			rec.ContactID = &id
			return
		}
	}
}

// resetLocked clears all per-call fields.
func (s *Session) resetLocked() {
	s.stopTickLocked()
	s.state = StateIdle
	s.direction = ""
	s.remoteNumber = ""
	s.current = nil
	s.pendingFrom = ""
	s.startedAt = time.Time{}
	s.muted = false
	s.lastTone = ""
}

func (s *Session) stopTickLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func statusForReason(reason Reason) string {
	switch reason {
	case ReasonCompleted:
		return models.CallStatusCompleted
	case ReasonCancelled:
		return models.CallStatusMissed
	default:
		return models.CallStatusFailed
	}
}
