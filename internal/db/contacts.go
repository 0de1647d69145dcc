package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/arcticalls/arcticalls/internal/models"
)

var ErrContactNotFound = errors.New("contact not found")

// ContactRepository handles database operations for contacts
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (name, phone, email, notes, is_favourite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, contact.Name, contact.Phone, contact.Email, contact.Notes, contact.IsFavourite, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	contact.ID = id
	return nil
}

// GetByID retrieves a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	contact := &models.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, notes, is_favourite, created_at, updated_at
		FROM contacts WHERE id = ?
	`, id).Scan(&contact.ID, &contact.Name, &contact.Phone, &contact.Email, &contact.Notes, &contact.IsFavourite, &contact.CreatedAt, &contact.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// List returns all contacts ordered by name
func (r *ContactRepository) List(ctx context.Context) ([]*models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, email, notes, is_favourite, created_at, updated_at
		FROM contacts ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact := &models.Contact{}
		if err := rows.Scan(&contact.ID, &contact.Name, &contact.Phone, &contact.Email, &contact.Notes, &contact.IsFavourite, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// Update updates an existing contact
func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET name = ?, phone = ?, email = ?, notes = ?, is_favourite = ?, updated_at = ?
		WHERE id = ?
	`, contact.Name, contact.Phone, contact.Email, contact.Notes, contact.IsFavourite, contact.UpdatedAt, contact.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// Delete removes a contact. Call records keep their snapshot of the
// contact's name; their contact_id reference is left to dangle.
func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}
