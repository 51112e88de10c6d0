package ports

import (
	"context"

	"supachat-woocommerce-layer/internal/domain"
)

// CredentialStore manages scoped WooCommerce REST API credentials in the
// local commerce database.
type CredentialStore interface {
	// Create generates a new key pair for the user. The returned credential
	// carries the plaintext consumer key and secret exactly once; the caller
	// must use them immediately, they are never retrievable again.
	Create(ctx context.Context, userID int64, description string, permissions domain.Permission) (*domain.Credential, error)

	// Get retrieves a credential by id. Returns (nil, nil) when absent.
	// The secret pair is never populated on lookups.
	Get(ctx context.Context, id int64) (*domain.Credential, error)

	// Delete removes a credential by id. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id int64) error

	// ListByUser returns all credentials owned by the user.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Credential, error)

	// FindByDescription returns credentials whose description contains the
	// given fragment. Used by orphan reconciliation to locate keys created
	// for a chatbot whose ledger record is gone.
	FindByDescription(ctx context.Context, fragment string) ([]*domain.Credential, error)
}
