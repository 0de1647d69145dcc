// Package models defines the domain records for ArctiCalls
package models

import "time"

// Contact is a named phone number in the user's directory. The phone
// field is stored as entered; normalization happens at dial and match
// time.
type Contact struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsFavourite bool      `json:"is_favourite"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Call record statuses.
const (
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
	CallStatusMissed    = "missed"
)

// Call directions.
const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// CallRecord is the immutable summary of one terminated call.
// DisplayName and ContactID are snapshots taken at termination; the
// contact reference is weak and may dangle if the contact is later
// deleted.
type CallRecord struct {
	ID              int64     `json:"id"`
	Phone           string    `json:"phone"` // canonical E.164
	DisplayName     *string   `json:"display_name,omitempty"`
	ContactID       *int64    `json:"contact_id,omitempty"`
	Direction       string    `json:"direction"`
	DurationSeconds int       `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	Status          string    `json:"status"`
}
