package domain

import "time"

// Permission is the access level of a store API credential.
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionWrite     Permission = "write"
	PermissionReadWrite Permission = "read_write"
)

// ValidPermission reports whether p is one of the accepted levels.
func ValidPermission(p Permission) bool {
	switch p {
	case PermissionRead, PermissionWrite, PermissionReadWrite:
		return true
	}
	return false
}

// Credential is a scoped WooCommerce REST API key pair. ConsumerKey and
// ConsumerSecret are populated only on the value returned from Create; the key
// is stored hashed and the plaintext pair is never retrievable again.
type Credential struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Description    string     `json:"description"`
	Permissions    Permission `json:"permissions"`
	ConsumerKey    string     `json:"consumer_key,omitempty"`
	ConsumerSecret string     `json:"consumer_secret,omitempty"`
	TruncatedKey   string     `json:"truncated_key"`
	LastAccess     *time.Time `json:"last_access,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
