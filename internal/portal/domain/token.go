package domain

import (
	"time"

	"github.com/google/uuid"
)

// PortalToken is a bearer capability granting access to one resource until it expires or
// is revoked. Only the SHA-256 hash of the plain token is persisted.
type PortalToken struct {
	ID             uuid.UUID
	TokenHash      string
	TokenType      TokenType
	ResourceID     *uuid.UUID
	CustomerID     uuid.UUID
	OrgID          uuid.UUID
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	AccessCount    int64
	LastAccessedAt *time.Time
	CreatedAt      time.Time
}

// IsExpired reports whether the token is unusable at now. The expiry instant itself is
// already expired.
func (t *PortalToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsRevoked reports whether the token was explicitly invalidated.
func (t *PortalToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsUsable reports whether the token currently authorizes access of the given type.
func (t *PortalToken) IsUsable(required TokenType, now time.Time) bool {
	if required != TokenTypeAny && t.TokenType != required {
		return false
	}
	return !t.IsExpired(now) && !t.IsRevoked()
}

// IssueTokenInput contains the parameters for issuing a new portal token.
type IssueTokenInput struct {
	TokenType  TokenType
	ResourceID *uuid.UUID
	CustomerID uuid.UUID
	OrgID      uuid.UUID
	// TTL overrides the configured default lifetime when positive.
	TTL time.Duration
}

// IssueTokenOutput contains the result of issuing a portal token.
// SECURITY: PlainToken is only available once and must be delivered to the customer directly.
type IssueTokenOutput struct {
	Token      *PortalToken
	PlainToken string
}

// TokenValidation is the projection returned by the generic validate endpoint.
type TokenValidation struct {
	TokenType  TokenType
	ResourceID *uuid.UUID
	ExpiresAt  time.Time
}
