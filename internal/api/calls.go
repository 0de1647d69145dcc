package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arcticalls/arcticalls/internal/call"
)

// CallHandler exposes control of the active call session
type CallHandler struct {
	deps *Dependencies
}

// NewCallHandler creates a new CallHandler
func NewCallHandler(deps *Dependencies) *CallHandler {
	return &CallHandler{deps: deps}
}

// Get returns a snapshot of the session
func (h *CallHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.deps.Session.Snapshot())
}

// PlaceRequest is the outbound dial payload.
type PlaceRequest struct {
	Number string `json:"number"`
}

// Place originates an outbound call
func (h *CallHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.deps.Session.Place(r.Context(), req.Number); err != nil {
		if errors.Is(err, call.ErrInvalidNumber) {
			WriteValidationError(w, "Invalid number", []FieldError{
				{Field: "number", Message: "Number cannot be dialed"},
			})
			return
		}
		WriteError(w, http.StatusBadGateway, ErrCodeServiceUnavailable, "Call could not be placed", nil)
		return
	}

	WriteJSON(w, http.StatusAccepted, h.deps.Session.Snapshot())
}

// HangUp ends the current call
func (h *CallHandler) HangUp(w http.ResponseWriter, r *http.Request) {
	h.deps.Session.HangUp()
	WriteJSON(w, http.StatusOK, h.deps.Session.Snapshot())
}

// Accept answers an incoming call
func (h *CallHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.deps.Session.Accept()
	WriteJSON(w, http.StatusOK, h.deps.Session.Snapshot())
}

// Reject declines an incoming call
func (h *CallHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.deps.Session.Reject()
	WriteJSON(w, http.StatusOK, h.deps.Session.Snapshot())
}

// ToggleMute flips the mute state of the active call
func (h *CallHandler) ToggleMute(w http.ResponseWriter, r *http.Request) {
	muted := h.deps.Session.ToggleMute()
	WriteJSON(w, http.StatusOK, map[string]bool{"muted": muted})
}

// DigitsRequest carries DTMF digits.
type DigitsRequest struct {
	Digits string `json:"digits"`
}

var validDigits = map[rune]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	'*': true, '#': true,
}

// SendDigits forwards DTMF tones on the active call
func (h *CallHandler) SendDigits(w http.ResponseWriter, r *http.Request) {
	var req DigitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body", nil)
		return
	}
	if req.Digits == "" {
		WriteValidationError(w, "Digits are required", nil)
		return
	}
	for _, d := range req.Digits {
		if !validDigits[d] {
			WriteValidationError(w, "Invalid DTMF digits", []FieldError{
				{Field: "digits", Message: "Only 0-9, * and # are allowed"},
			})
			return
		}
	}

	h.deps.Session.SendTone(req.Digits)
	w.WriteHeader(http.StatusNoContent)
}
