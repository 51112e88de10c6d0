package ports

import (
	"context"

	"supachat-woocommerce-layer/internal/domain"
)

// OptionStore is the key-value persistence underlying the ledger, the auth
// session and the bubble settings. Implementations are expected to be cheap:
// single-admin, low-frequency usage, no transactions.
type OptionStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	// Delete removes a key; deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
	// Keys lists all keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// IntegrationLedger persists integration records keyed by chatbot id.
type IntegrationLedger interface {
	// Get returns the record for a chatbot, or (nil, nil) when absent.
	Get(ctx context.Context, chatbotID string) (*domain.IntegrationRecord, error)
	Put(ctx context.Context, record *domain.IntegrationRecord) error
	Delete(ctx context.Context, chatbotID string) error
}

// SessionStore persists the SupaChat auth session: token pair and cached
// user profile.
type SessionStore interface {
	// Tokens returns the stored pair, or (nil, nil) when not logged in.
	Tokens(ctx context.Context) (*domain.AuthTokens, error)
	SaveTokens(ctx context.Context, tokens *domain.AuthTokens) error
	// User returns the cached profile, or (nil, nil) when absent.
	User(ctx context.Context) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
	// Clear removes tokens and the cached profile.
	Clear(ctx context.Context) error
}

// BubbleSettings persists the per-chatbot floating-bubble flag. Independent
// of integration state.
type BubbleSettings interface {
	Enabled(ctx context.Context, chatbotID string) (bool, error)
	SetEnabled(ctx context.Context, chatbotID string, enabled bool) error
	Delete(ctx context.Context, chatbotID string) error
	// EnabledChatbots lists chatbot ids whose bubble is switched on.
	EnabledChatbots(ctx context.Context) ([]string, error)
}
