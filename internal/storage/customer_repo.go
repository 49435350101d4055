package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// CustomerStore defines the interface for customer credential storage.
type CustomerStore interface {
	// GetByID returns ErrNotFound for unknown customers.
	GetByID(ctx context.Context, id string) (*CustomerRecord, error)
	// Upsert inserts a customer or replaces its password hash.
	Upsert(ctx context.Context, id, passwordHash string) error
	// Count returns the number of stored customers.
	Count(ctx context.Context) (int, error)
}

// CustomerRepo implements CustomerStore on SQLite.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo creates a new CustomerRepo.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// GetByID returns the customer with the given ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*CustomerRecord, error) {
	var (
		rec                  CustomerRecord
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, password_hash, created_at, updated_at FROM customers WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.PasswordHash, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}

	if rec.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return &rec, nil
}

// Upsert inserts a customer or updates the password hash of an existing one.
func (r *CustomerRepo) Upsert(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, password_hash) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET password_hash = excluded.password_hash, updated_at = CURRENT_TIMESTAMP`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}
	return nil
}

// Count returns the number of stored customers.
func (r *CustomerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}
