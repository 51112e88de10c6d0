package entity

import (
	"time"

	"supachat-woocommerce-layer/internal/domain"
)

// MongoCredentialDoc represents a store API credential in MongoDB. The
// consumer key is stored as a SHA-256 digest; the plaintext pair never
// reaches the database.
type MongoCredentialDoc struct {
	KeyID           int64             `bson:"key_id"`
	UserID          int64             `bson:"user_id"`
	Description     string            `bson:"description"`
	Permissions     domain.Permission `bson:"permissions"`
	ConsumerKeyHash string            `bson:"consumer_key_hash"`
	ConsumerSecret  string            `bson:"consumer_secret"`
	TruncatedKey    string            `bson:"truncated_key"`
	LastAccess      *time.Time        `bson:"last_access,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
}

// ToDomain converts the MongoDB document to a domain entity. The plaintext
// consumer key is not recoverable from the stored hash and is left empty.
func (d *MongoCredentialDoc) ToDomain() *domain.Credential {
	return &domain.Credential{
		ID:           d.KeyID,
		UserID:       d.UserID,
		Description:  d.Description,
		Permissions:  d.Permissions,
		TruncatedKey: d.TruncatedKey,
		LastAccess:   d.LastAccess,
		CreatedAt:    d.CreatedAt,
	}
}
