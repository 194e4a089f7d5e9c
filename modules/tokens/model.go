package tokens

import "time"

// Token is the stored representation of an issued API token. Hash is the
// SHA-512 digest of the token identifier and the only queryable
// representation of the credential; the raw bearer value is never persisted.
type Token struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	Hash      string     `json:"-"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TokenWithOwner joins a token with its owning user's activity flag, the
// shape verification needs for its revocation decision.
type TokenWithOwner struct {
	Token
	OwnerActive bool
}
