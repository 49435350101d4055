// Package auth verifies customer credentials and issues the session tokens
// that carry an authenticated principal between requests.
package auth

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_credential_store.go -package=mocks bankassist/internal/auth CredentialStore

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"bankassist/internal/storage"
)

// CredentialStore checks a customer's secret.
type CredentialStore interface {
	// Verify reports whether secret is valid for customerID. Unknown
	// customers and wrong secrets both yield false with a nil error.
	Verify(ctx context.Context, customerID, secret string) (bool, error)
}

// SQLCredentialStore verifies secrets against bcrypt hashes in the customers table.
type SQLCredentialStore struct {
	customers storage.CustomerStore
}

// NewSQLCredentialStore creates a credential store over customers.
func NewSQLCredentialStore(customers storage.CustomerStore) *SQLCredentialStore {
	return &SQLCredentialStore{customers: customers}
}

// Verify implements CredentialStore.
func (s *SQLCredentialStore) Verify(ctx context.Context, customerID, secret string) (bool, error) {
	rec, err := s.customers.GetByID(ctx, customerID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load customer: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare password hash: %w", err)
	}
	return true, nil
}
