package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
	"github.com/flowtrade/portal/internal/portal/guard"
	portalService "github.com/flowtrade/portal/internal/portal/service"
)

// PaymentStatusPending is reported for every accepted payment initiation.
const PaymentStatusPending = "pending"

// portalUseCase implements PortalUseCase.
type portalUseCase struct {
	tokenRepo       TokenRepository
	quoteRepo       QuoteRepository
	invoiceRepo     InvoiceRepository
	tokenService    portalService.TokenService
	accessLog       AccessLogQueue
	documentBaseURL string
	now             func() time.Time
}

// lookupToken resolves the presented plain token by its hash, scoped to the required type.
func (p *portalUseCase) lookupToken(
	ctx context.Context,
	token string,
	required portalDomain.TokenType,
) (*portalDomain.PortalToken, error) {
	return p.tokenRepo.GetByTokenHash(ctx, p.tokenService.HashToken(token), required)
}

func (p *portalUseCase) lookupResourceID(
	ctx context.Context,
	token string,
	required portalDomain.TokenType,
) (*portalDomain.PortalToken, uuid.UUID, error) {
	stored, err := p.lookupToken(ctx, token, required)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if stored.ResourceID == nil {
		return nil, uuid.Nil, portalDomain.ErrTokenNotFound
	}
	return stored, *stored.ResourceID, nil
}

func (p *portalUseCase) lookupQuote(
	ctx context.Context,
	token string,
	required portalDomain.TokenType,
) (*portalDomain.PortalToken, *portalDomain.Quote, error) {
	stored, quoteID, err := p.lookupResourceID(ctx, token, required)
	if err != nil {
		return nil, nil, err
	}
	quote, err := p.quoteRepo.Get(ctx, quoteID)
	if err != nil {
		return nil, nil, err
	}
	return stored, quote, nil
}

func (p *portalUseCase) lookupInvoice(
	ctx context.Context,
	token string,
	required portalDomain.TokenType,
) (*portalDomain.PortalToken, *portalDomain.Invoice, error) {
	stored, invoiceID, err := p.lookupResourceID(ctx, token, required)
	if err != nil {
		return nil, nil, err
	}
	invoice, err := p.invoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return stored, invoice, nil
}

// record hands an audit entry for a found token to the access log queue.
func (p *portalUseCase) record(
	token *portalDomain.PortalToken,
	action string,
	outcome portalDomain.Outcome,
	access portalDomain.AccessContext,
	at time.Time,
) {
	p.accessLog.Enqueue(&portalDomain.AccessLog{
		ID:         uuid.Must(uuid.NewV7()),
		TokenID:    token.ID,
		Action:     action,
		Outcome:    outcome,
		RequestID:  access.RequestID,
		IPAddress:  access.IPAddress,
		UserAgent:  access.UserAgent,
		AccessedAt: at,
	})
}

// guarded records the guard outcome when the token was found and returns the guard error.
func guarded[R any](p *portalUseCase, result guard.Result[R], action string, access portalDomain.AccessContext, at time.Time) error {
	if result.TokenFound() {
		p.record(result.Token, action, result.Outcome(), access, at)
	}
	return result.Err()
}

// ValidateToken checks a token of any type and returns its public projection.
func (p *portalUseCase) ValidateToken(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.TokenValidation, error) {
	now := p.now()
	lookup := func(ctx context.Context, token string, required portalDomain.TokenType) (*portalDomain.PortalToken, struct{}, error) {
		stored, err := p.lookupToken(ctx, token, required)
		return stored, struct{}{}, err
	}

	result := guard.Evaluate(ctx, token, portalDomain.TokenTypeAny, lookup, now, nil)
	if err := guarded(p, result, portalDomain.ActionTokenValidated, access, now); err != nil {
		return nil, err
	}

	return &portalDomain.TokenValidation{
		TokenType:  result.Token.TokenType,
		ResourceID: result.Token.ResourceID,
		ExpiresAt:  result.Token.ExpiresAt,
	}, nil
}

// GetQuote returns the quote a quote token points at.
func (p *portalUseCase) GetQuote(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteView, error) {
	now := p.now()

	result := guard.Evaluate(ctx, token, portalDomain.TokenTypeQuote, p.lookupQuote, now, nil)
	if err := guarded(p, result, portalDomain.ActionQuoteViewed, access, now); err != nil {
		return nil, err
	}

	return &portalDomain.QuoteView{Quote: result.Resource, TokenExpiresAt: result.Token.ExpiresAt}, nil
}

// GetInvoice returns the invoice an invoice token points at. Invoices in any status,
// drafts included, can be viewed.
func (p *portalUseCase) GetInvoice(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.InvoiceView, error) {
	now := p.now()

	result := guard.Evaluate(ctx, token, portalDomain.TokenTypeInvoice, p.lookupInvoice, now, nil)
	if err := guarded(p, result, portalDomain.ActionInvoiceViewed, access, now); err != nil {
		return nil, err
	}

	return &portalDomain.InvoiceView{Invoice: result.Resource, TokenExpiresAt: result.Token.ExpiresAt}, nil
}

// DocumentURL returns {documentBaseURL}/{kind}s/{resourceID}/pdf for the token's resource.
func (p *portalUseCase) DocumentURL(
	ctx context.Context,
	token string,
	kind portalDomain.TokenType,
	access portalDomain.AccessContext,
) (string, error) {
	if !kind.HasDocument() {
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "%q resources have no document", kind)
	}
	now := p.now()

	result := guard.Evaluate(ctx, token, kind, p.lookupResourceID, now, nil)
	if err := guarded(p, result, portalDomain.ActionPDFDownload, access, now); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%ss/%s/pdf", strings.TrimRight(p.documentBaseURL, "/"), kind, result.Resource), nil
}

// InitiatePayment acknowledges the start of a payment for a payable invoice. The payment
// itself is collected by the payment provider.
func (p *portalUseCase) InitiatePayment(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.PaymentInitiation, error) {
	now := p.now()
	check := func(invoice *portalDomain.Invoice) error { return invoice.CheckPayable() }

	result := guard.Evaluate(ctx, token, portalDomain.TokenTypeInvoice, p.lookupInvoice, now, check)
	if err := guarded(p, result, portalDomain.ActionPaymentInitiated, access, now); err != nil {
		return nil, err
	}

	return &portalDomain.PaymentInitiation{
		InvoiceID:      result.Resource.ID,
		AmountDueCents: result.Resource.AmountDueCents(),
		Currency:       portalDomain.Currency,
		Status:         PaymentStatusPending,
		InitiatedAt:    now,
	}, nil
}

// AcceptQuote moves a sent quote to accepted.
func (p *portalUseCase) AcceptQuote(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteDecision, error) {
	return p.decide(ctx, token, access, portalDomain.ActionQuoteAccepted, portalDomain.QuoteStatusAccepted,
		func(ctx context.Context, quoteID uuid.UUID, at time.Time) error {
			return p.quoteRepo.Accept(ctx, quoteID, at)
		},
	)
}

// DeclineQuote moves a sent quote to declined with an optional reason.
func (p *portalUseCase) DeclineQuote(
	ctx context.Context,
	token string,
	input *portalDomain.QuoteDecisionInput,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteDecision, error) {
	var reason *string
	if input != nil && input.Reason != nil {
		trimmed := strings.TrimSpace(*input.Reason)
		if trimmed != "" {
			reason = &trimmed
		}
	}

	return p.decide(ctx, token, access, portalDomain.ActionQuoteDeclined, portalDomain.QuoteStatusDeclined,
		func(ctx context.Context, quoteID uuid.UUID, at time.Time) error {
			return p.quoteRepo.Decline(ctx, quoteID, at, reason)
		},
	)
}

// decide runs the guard for a quote response and applies the conditional transition.
// The guard's state check rejects quotes that are visibly not respondable; the
// conditional update settles races between concurrent responses.
func (p *portalUseCase) decide(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
	action string,
	status portalDomain.QuoteStatus,
	transition func(ctx context.Context, quoteID uuid.UUID, at time.Time) error,
) (*portalDomain.QuoteDecision, error) {
	now := p.now()
	check := func(quote *portalDomain.Quote) error { return quote.CheckRespondable(now) }

	result := guard.Evaluate(ctx, token, portalDomain.TokenTypeQuote, p.lookupQuote, now, check)
	if !result.Valid() {
		return nil, guarded(p, result, action, access, now)
	}

	if err := transition(ctx, result.Resource.ID, now); err != nil {
		outcome := portalDomain.OutcomeError
		if apperrors.Is(err, apperrors.ErrInvalidState) {
			outcome = portalDomain.OutcomeInvalidState
		}
		p.record(result.Token, action, outcome, access, now)
		return nil, err
	}

	p.record(result.Token, action, portalDomain.OutcomeGranted, access, now)
	return &portalDomain.QuoteDecision{QuoteID: result.Resource.ID, Status: status, DecidedAt: now}, nil
}

// NewPortalUseCase creates a new PortalUseCase. documentBaseURL is the base of the
// document service that renders quote and invoice PDFs.
func NewPortalUseCase(
	tokenRepo TokenRepository,
	quoteRepo QuoteRepository,
	invoiceRepo InvoiceRepository,
	tokenService portalService.TokenService,
	accessLog AccessLogQueue,
	documentBaseURL string,
) PortalUseCase {
	return &portalUseCase{
		tokenRepo:       tokenRepo,
		quoteRepo:       quoteRepo,
		invoiceRepo:     invoiceRepo,
		tokenService:    tokenService,
		accessLog:       accessLog,
		documentBaseURL: documentBaseURL,
		now:             func() time.Time { return time.Now().UTC() },
	}
}
