package auth

import (
	"time"

	"github.com/rallyops/designops/internal/access"
)

// Identity is a signed-in principal as reported by the identity provider.
// UID is opaque and stable; it keys the principal's authorization record.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// APIKey represents a document in the apiKeys collection. Only the bcrypt
// hash of the key is stored; Prefix narrows the candidates on lookup.
type APIKey struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Prefix    string      `json:"prefix"`
	Hash      string      `json:"hash"`
	Role      access.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	RevokedAt *time.Time  `json:"revokedAt,omitempty"`
}

// Revoked reports whether the key has been revoked.
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}
