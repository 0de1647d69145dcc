package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/arcticalls/arcticalls/internal/call"
	"github.com/arcticalls/arcticalls/internal/routing"
)

// WebhookHandler handles Twilio webhook callbacks
type WebhookHandler struct {
	deps *Dependencies
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(deps *Dependencies) *WebhookHandler {
	return &WebhookHandler{deps: deps}
}

// Voice answers Twilio's webhook for a call leg and returns the TwiML
// routing decision. Twilio sends POST form bodies; the handler also
// accepts query parameters so the same decision can be driven from a
// GET, with form values taking precedence.
func (h *WebhookHandler) Voice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondTwiML(w, routing.Decision{Action: routing.ActionReject, Say: "Invalid request"}.TwiML())
		return
	}

	if !h.validateSignature(r) {
		slog.Warn("Voice webhook signature rejected", "remote", r.RemoteAddr)
		WriteError(w, http.StatusForbidden, ErrCodeAuthorization, "Invalid signature", nil)
		return
	}

	to := r.Form.Get("To")
	from := r.Form.Get("From")
	callSID := r.Form.Get("CallSid")

	decision := routing.Decide(h.deps.Routing, to, from)

	// An inbound leg bound for the client is surfaced to the session
	// so the agent can accept or reject it.
	if decision.Action == routing.ActionRing && h.deps.Session != nil && callSID != "" {
		h.deps.Session.OfferIncoming(&incomingLeg{sid: callSID, client: h.deps.Twilio}, from)
	}

	slog.Info("Voice webhook decided", "action", decision.Action, "to", to, "from", from)
	h.respondTwiML(w, decision.TwiML())
}

// VoiceStatus handles call status callbacks and drives the session
// state machine.
func (h *WebhookHandler) VoiceStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !h.validateSignature(r) {
		WriteError(w, http.StatusForbidden, ErrCodeAuthorization, "Invalid signature", nil)
		return
	}

	callSID := r.Form.Get("CallSid")
	status := r.Form.Get("CallStatus")
	slog.Debug("Call status callback", "call_sid", callSID, "status", status)

	if h.deps.Session != nil {
		switch status {
		case "ringing":
			h.deps.Session.HandleRinging()
		case "in-progress", "answered":
			h.deps.Session.HandleAnswered()
		case "completed":
			h.deps.Session.HandleDisconnect()
		case "busy", "no-answer", "canceled":
			h.deps.Session.Terminate(call.ReasonCancelled)
		case "failed":
			h.deps.Session.HandleError(errors.New("call failed: " + callSID))
		}
	}

	w.WriteHeader(http.StatusOK)
}

// incomingLeg is an inbound call leg controlled over the REST API.
type incomingLeg struct {
	sid    string
	client TwilioClient
}

func (l *incomingLeg) ID() string { return l.sid }

func (l *incomingLeg) Disconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.client.EndCall(ctx, l.sid); err != nil {
		slog.Error("Failed to end incoming leg", "call_sid", l.sid, "error", err)
	}
}

func (l *incomingLeg) Accept() {
	// The TwiML response already bridges the leg; answering happens on
	// the handset.
}

func (l *incomingLeg) Reject() { l.Disconnect() }

func (l *incomingLeg) Mute(muted bool) {
	slog.Debug("Mute not supported on incoming leg", "call_sid", l.sid)
}

func (l *incomingLeg) SendDigits(digits string) {
	slog.Debug("DTMF not supported on incoming leg", "call_sid", l.sid)
}

// validateSignature checks the X-Twilio-Signature header against the
// configured auth token. Validation is skipped in debug mode and when
// no auth token is configured.
func (h *WebhookHandler) validateSignature(r *http.Request) bool {
	authToken := h.deps.Config.TwilioAuthToken
	if authToken == "" || h.deps.Config.DebugMode {
		return true
	}

	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}

	// Build validation URL
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	validationURL := scheme + "://" + r.Host + r.URL.RequestURI()

	// Sort form values and append to URL
	keys := make([]string, 0, len(r.PostForm))
	for k := range r.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		validationURL += k + r.PostForm.Get(k)
	}

	// Calculate expected signature
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(validationURL))
	expectedSignature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

func (h *WebhookHandler) respondTwiML(w http.ResponseWriter, twiml string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`)
	io.WriteString(w, twiml)
}
