package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/ports"
)

// Option key layout. The ledger and bubble settings use one key per chatbot
// id so reconciliation can enumerate them by prefix.
const (
	integrationKeyPrefix = "integration_"
	bubbleKeyPrefix      = "bubble_enabled_"
	userTokenKey         = "user_token"
	refreshTokenKey      = "refresh_token"
	userDataKey          = "user_data"
)

// OptionLedger implements IntegrationLedger on an OptionStore, one JSON
// document per chatbot id.
type OptionLedger struct {
	store ports.OptionStore
}

// NewOptionLedger creates a ledger backed by the given option store.
func NewOptionLedger(store ports.OptionStore) ports.IntegrationLedger {
	return &OptionLedger{store: store}
}

// Get returns the record for a chatbot, or (nil, nil) when absent.
func (l *OptionLedger) Get(ctx context.Context, chatbotID string) (*domain.IntegrationRecord, error) {
	raw, ok, err := l.store.Get(ctx, integrationKeyPrefix+chatbotID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var record domain.IntegrationRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode integration record %s: %w", chatbotID, err)
	}
	return &record, nil
}

func (l *OptionLedger) Put(ctx context.Context, record *domain.IntegrationRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode integration record %s: %w", record.ChatbotID, err)
	}
	return l.store.Put(ctx, integrationKeyPrefix+record.ChatbotID, string(raw))
}

func (l *OptionLedger) Delete(ctx context.Context, chatbotID string) error {
	return l.store.Delete(ctx, integrationKeyPrefix+chatbotID)
}

// OptionSessionStore implements SessionStore on an OptionStore. The token
// pair and cached profile live under fixed keys; there is a single admin
// session per installation.
type OptionSessionStore struct {
	store ports.OptionStore
}

// NewOptionSessionStore creates a session store backed by the given option
// store.
func NewOptionSessionStore(store ports.OptionStore) ports.SessionStore {
	return &OptionSessionStore{store: store}
}

// Tokens returns the stored pair, or (nil, nil) when not logged in.
func (s *OptionSessionStore) Tokens(ctx context.Context) (*domain.AuthTokens, error) {
	token, ok, err := s.store.Get(ctx, userTokenKey)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, nil
	}
	refresh, _, err := s.store.Get(ctx, refreshTokenKey)
	if err != nil {
		return nil, err
	}
	return &domain.AuthTokens{Token: token, RefreshToken: refresh}, nil
}

func (s *OptionSessionStore) SaveTokens(ctx context.Context, tokens *domain.AuthTokens) error {
	if err := s.store.Put(ctx, userTokenKey, tokens.Token); err != nil {
		return err
	}
	return s.store.Put(ctx, refreshTokenKey, tokens.RefreshToken)
}

// User returns the cached profile, or (nil, nil) when absent.
func (s *OptionSessionStore) User(ctx context.Context) (*domain.User, error) {
	raw, ok, err := s.store.Get(ctx, userDataKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

func (s *OptionSessionStore) SaveUser(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.store.Put(ctx, userDataKey, string(raw))
}

// Clear removes tokens and the cached profile.
func (s *OptionSessionStore) Clear(ctx context.Context) error {
	for _, key := range []string{userTokenKey, refreshTokenKey, userDataKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// OptionBubbleSettings implements BubbleSettings on an OptionStore, one flag
// key per chatbot id.
type OptionBubbleSettings struct {
	store ports.OptionStore
}

// NewOptionBubbleSettings creates bubble settings backed by the given option
// store.
func NewOptionBubbleSettings(store ports.OptionStore) ports.BubbleSettings {
	return &OptionBubbleSettings{store: store}
}

func (b *OptionBubbleSettings) Enabled(ctx context.Context, chatbotID string) (bool, error) {
	raw, ok, err := b.store.Get(ctx, bubbleKeyPrefix+chatbotID)
	if err != nil {
		return false, err
	}
	return ok && raw == "1", nil
}

func (b *OptionBubbleSettings) SetEnabled(ctx context.Context, chatbotID string, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	return b.store.Put(ctx, bubbleKeyPrefix+chatbotID, value)
}

func (b *OptionBubbleSettings) Delete(ctx context.Context, chatbotID string) error {
	return b.store.Delete(ctx, bubbleKeyPrefix+chatbotID)
}

// EnabledChatbots lists chatbot ids whose bubble is switched on.
func (b *OptionBubbleSettings) EnabledChatbots(ctx context.Context) ([]string, error) {
	keys, err := b.store.Keys(ctx, bubbleKeyPrefix)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, key := range keys {
		id := strings.TrimPrefix(key, bubbleKeyPrefix)
		on, err := b.Enabled(ctx, id)
		if err != nil {
			return nil, err
		}
		if on {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
