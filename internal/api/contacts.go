package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arcticalls/arcticalls/internal/db"
	"github.com/arcticalls/arcticalls/internal/models"
)

// ContactHandler handles contact CRUD endpoints
type ContactHandler struct {
	deps *Dependencies
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(deps *Dependencies) *ContactHandler {
	return &ContactHandler{deps: deps}
}

// ContactRequest is the create/update payload.
type ContactRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Notes       string `json:"notes"`
	IsFavourite bool   `json:"is_favourite"`
}

func (req *ContactRequest) validate() []FieldError {
	var details []FieldError
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, FieldError{Field: "name", Message: "Name is required"})
	}
	if strings.TrimSpace(req.Phone) == "" {
		details = append(details, FieldError{Field: "phone", Message: "Phone number is required"})
	}
	return details
}

// apply copies the payload onto a contact. The phone number is kept
// as entered; normalization happens at dial and match time.
func (req *ContactRequest) apply(c *models.Contact) {
	c.Name = strings.TrimSpace(req.Name)
	c.Email = strings.TrimSpace(req.Email)
	c.Notes = req.Notes
	c.IsFavourite = req.IsFavourite
	c.Phone = strings.TrimSpace(req.Phone)
}

// List returns all contacts ordered by name
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.deps.DB.Contacts.List(r.Context())
	if err != nil {
		WriteInternalError(w)
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	WriteJSON(w, http.StatusOK, contacts)
}

// Create adds a new contact
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body", nil)
		return
	}
	if details := req.validate(); len(details) > 0 {
		WriteValidationError(w, "Invalid contact", details)
		return
	}

	contact := &models.Contact{}
	req.apply(contact)

	if err := h.deps.DB.Contacts.Create(r.Context(), contact); err != nil {
		WriteInternalError(w)
		return
	}
	WriteJSON(w, http.StatusCreated, contact)
}

// Get returns a single contact
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid contact ID", nil)
		return
	}

	contact, err := h.deps.DB.Contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrContactNotFound) {
			WriteNotFoundError(w, "Contact")
			return
		}
		WriteInternalError(w)
		return
	}
	WriteJSON(w, http.StatusOK, contact)
}

// Update modifies an existing contact
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid contact ID", nil)
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body", nil)
		return
	}
	if details := req.validate(); len(details) > 0 {
		WriteValidationError(w, "Invalid contact", details)
		return
	}

	contact, err := h.deps.DB.Contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrContactNotFound) {
			WriteNotFoundError(w, "Contact")
			return
		}
		WriteInternalError(w)
		return
	}

	req.apply(contact)
	if err := h.deps.DB.Contacts.Update(r.Context(), contact); err != nil {
		WriteInternalError(w)
		return
	}
	WriteJSON(w, http.StatusOK, contact)
}

// Delete removes a contact
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid contact ID", nil)
		return
	}

	if err := h.deps.DB.Contacts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrContactNotFound) {
			WriteNotFoundError(w, "Contact")
			return
		}
		WriteInternalError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
