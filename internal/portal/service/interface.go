// Package service provides technical services for portal token handling.
package service

// TokenService defines operations for portal token generation and hashing.
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random token.
	// Returns both the plain text token (embedded in the link sent to the customer) and
	// the hashed version (stored in the database).
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes a plain text token using SHA-256.
	// Used to look a presented token up by its stored hash.
	HashToken(plainToken string) string
}
