// Package usecase implements the customer portal business logic: every token-scoped
// operation runs the access guard, performs its action only on a valid verdict and
// hands an audit entry to the access log queue.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// TokenRepository defines persistence operations for portal tokens.
// Implementations must support transaction-aware operations via context propagation.
type TokenRepository interface {
	// Create stores a new token.
	Create(ctx context.Context, token *portalDomain.PortalToken) error

	// Get retrieves a token by ID. Returns ErrTokenNotFound if not found.
	Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error)

	// GetByTokenHash retrieves a token by the hash of its plain value. A concrete tokenType
	// restricts the match; TokenTypeAny matches every type. Returns ErrTokenNotFound if
	// nothing matches.
	GetByTokenHash(
		ctx context.Context,
		tokenHash string,
		tokenType portalDomain.TokenType,
	) (*portalDomain.PortalToken, error)

	// Revoke sets revoked_at if it is not set yet and reports whether this call set it.
	Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) (bool, error)

	// RecordAccess bumps the advisory access counter.
	RecordAccess(ctx context.Context, tokenID uuid.UUID, accessedAt time.Time) error
}

// QuoteRepository defines the quote operations the portal needs.
type QuoteRepository interface {
	Get(ctx context.Context, quoteID uuid.UUID) (*portalDomain.Quote, error)

	// Accept and Decline are conditional on the quote being sent. They return
	// ErrQuoteNotTransitionable when another request changed the quote first.
	Accept(ctx context.Context, quoteID uuid.UUID, at time.Time) error
	Decline(ctx context.Context, quoteID uuid.UUID, at time.Time, reason *string) error
}

// InvoiceRepository defines the invoice operations the portal needs.
type InvoiceRepository interface {
	Get(ctx context.Context, invoiceID uuid.UUID) (*portalDomain.Invoice, error)
}

// AccessLogRepository defines persistence operations for the append-only access log.
type AccessLogRepository interface {
	CreateBatch(ctx context.Context, entries []*portalDomain.AccessLog) error
	CountOlderThan(ctx context.Context, before time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// AccessLogQueue accepts audit entries for asynchronous persistence. Enqueue must not
// block the request path.
type AccessLogQueue interface {
	Enqueue(entry *portalDomain.AccessLog)
}

// PortalUseCase defines the token-scoped operations offered to customers.
//
// Every operation resolves the presented token through the access guard. Failures are
// reported with the portal error taxonomy: ErrTokenNotFound (unknown token or wrong type),
// ErrTokenExpired, ErrTokenRevoked, or an ErrInvalidState carrying a reason.
type PortalUseCase interface {
	// ValidateToken checks a token of any type and returns its public projection.
	ValidateToken(
		ctx context.Context,
		token string,
		access portalDomain.AccessContext,
	) (*portalDomain.TokenValidation, error)

	// GetQuote returns the quote a quote token points at.
	GetQuote(ctx context.Context, token string, access portalDomain.AccessContext) (*portalDomain.QuoteView, error)

	// GetInvoice returns the invoice an invoice token points at.
	GetInvoice(
		ctx context.Context,
		token string,
		access portalDomain.AccessContext,
	) (*portalDomain.InvoiceView, error)

	// DocumentURL returns where the rendered PDF of the token's quote or invoice lives.
	DocumentURL(
		ctx context.Context,
		token string,
		kind portalDomain.TokenType,
		access portalDomain.AccessContext,
	) (string, error)

	// InitiatePayment acknowledges the start of a payment for a payable invoice.
	InitiatePayment(
		ctx context.Context,
		token string,
		access portalDomain.AccessContext,
	) (*portalDomain.PaymentInitiation, error)

	// AcceptQuote moves a sent quote to accepted. Of two concurrent calls exactly one
	// succeeds.
	AcceptQuote(
		ctx context.Context,
		token string,
		access portalDomain.AccessContext,
	) (*portalDomain.QuoteDecision, error)

	// DeclineQuote moves a sent quote to declined with an optional reason.
	DeclineQuote(
		ctx context.Context,
		token string,
		input *portalDomain.QuoteDecisionInput,
		access portalDomain.AccessContext,
	) (*portalDomain.QuoteDecision, error)
}

// TokenUseCase defines operator-side portal token management.
type TokenUseCase interface {
	// Issue creates a token and returns its plain value exactly once.
	Issue(ctx context.Context, input *portalDomain.IssueTokenInput) (*portalDomain.IssueTokenOutput, error)

	// Revoke invalidates a token. Revoking an already revoked token keeps the original
	// revocation instant.
	Revoke(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error)

	// Get retrieves a token by ID.
	Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error)
}

// AccessLogUseCase defines access log persistence and retention.
type AccessLogUseCase interface {
	// WriteBatch persists a batch of entries in one transaction.
	WriteBatch(ctx context.Context, entries []*portalDomain.AccessLog) error

	// DeleteOlderThan removes entries older than the given number of days. With dryRun it
	// only counts them.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
