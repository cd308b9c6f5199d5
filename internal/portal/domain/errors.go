package domain

import (
	"fmt"

	"github.com/flowtrade/portal/internal/errors"
)

// Stable error codes reported to portal clients.
const (
	CodeTokenNotFound = "token_not_found"
	CodeTokenExpired  = "token_expired"
	CodeTokenRevoked  = "token_revoked"
	CodeInvalidState  = "invalid_state"
)

// Portal errors.
var (
	// ErrTokenNotFound indicates no token matches the presented string and required type.
	ErrTokenNotFound = errors.WithCode(errors.Wrap(errors.ErrNotFound, "token not found"), CodeTokenNotFound)

	// ErrTokenExpired indicates the token's expiry instant has passed.
	ErrTokenExpired = errors.WithCode(errors.Wrap(errors.ErrGone, "token expired"), CodeTokenExpired)

	// ErrTokenRevoked indicates the token was explicitly invalidated.
	ErrTokenRevoked = errors.WithCode(errors.Wrap(errors.ErrGone, "token revoked"), CodeTokenRevoked)

	// ErrQuoteNotFound indicates the quote a token points at does not exist.
	ErrQuoteNotFound = errors.Wrap(errors.ErrNotFound, "quote not found")

	// ErrInvoiceNotFound indicates the invoice a token points at does not exist.
	ErrInvoiceNotFound = errors.Wrap(errors.ErrNotFound, "invoice not found")

	// ErrQuoteNotTransitionable indicates a conditional quote update lost to a concurrent
	// change: the quote was no longer in the expected state.
	ErrQuoteNotTransitionable = StateError("quote is no longer awaiting a response")
)

// StateError builds an InvalidState error carrying a human-readable reason, e.g.
// "invalid state: invoice has already been paid".
func StateError(reason string) error {
	return errors.WithCode(fmt.Errorf("%w: %s", errors.ErrInvalidState, reason), CodeInvalidState)
}
