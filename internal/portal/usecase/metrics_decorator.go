package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/flowtrade/portal/internal/errors"
	"github.com/flowtrade/portal/internal/metrics"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

const metricsDomain = "portal"

// operationStatus classifies an operation result for metric labels. Expected guard
// outcomes get their own status so dashboards can tell abuse from outages.
func operationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case apperrors.Is(err, apperrors.ErrGone):
		return "gone"
	case apperrors.Is(err, apperrors.ErrInvalidState):
		return "invalid_state"
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := operationStatus(err)
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// portalUseCaseWithMetrics decorates PortalUseCase with metrics instrumentation.
type portalUseCaseWithMetrics struct {
	next    PortalUseCase
	metrics metrics.BusinessMetrics
}

// NewPortalUseCaseWithMetrics wraps a PortalUseCase with metrics recording.
func NewPortalUseCaseWithMetrics(useCase PortalUseCase, m metrics.BusinessMetrics) PortalUseCase {
	return &portalUseCaseWithMetrics{next: useCase, metrics: m}
}

func (p *portalUseCaseWithMetrics) ValidateToken(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.TokenValidation, error) {
	start := time.Now()
	out, err := p.next.ValidateToken(ctx, token, access)
	record(ctx, p.metrics, "token_validate", start, err)
	return out, err
}

func (p *portalUseCaseWithMetrics) GetQuote(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteView, error) {
	start := time.Now()
	out, err := p.next.GetQuote(ctx, token, access)
	record(ctx, p.metrics, "quote_get", start, err)
	return out, err
}

func (p *portalUseCaseWithMetrics) GetInvoice(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.InvoiceView, error) {
	start := time.Now()
	out, err := p.next.GetInvoice(ctx, token, access)
	record(ctx, p.metrics, "invoice_get", start, err)
	return out, err
}

func (p *portalUseCaseWithMetrics) DocumentURL(
	ctx context.Context,
	token string,
	kind portalDomain.TokenType,
	access portalDomain.AccessContext,
) (string, error) {
	start := time.Now()
	out, err := p.next.DocumentURL(ctx, token, kind, access)
	record(ctx, p.metrics, string(kind)+"_pdf", start, err)
	return out, err
}

func (p *portalUseCaseWithMetrics) InitiatePayment(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.PaymentInitiation, error) {
	start := time.Now()
	out, err := p.next.InitiatePayment(ctx, token, access)
	record(ctx, p.metrics, "payment_initiate", start, err)
	return out, err
}

func (p *portalUseCaseWithMetrics) AcceptQuote(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteDecision, error) {
	start := time.Now()
	out, err := p.next.AcceptQuote(ctx, token, access)
	record(ctx, p.metrics, "quote_accept", start, err)
	return out, err
}

func (p *portalUseCaseWithMetrics) DeclineQuote(
	ctx context.Context,
	token string,
	input *portalDomain.QuoteDecisionInput,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteDecision, error) {
	start := time.Now()
	out, err := p.next.DeclineQuote(ctx, token, input, access)
	record(ctx, p.metrics, "quote_decline", start, err)
	return out, err
}

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{next: useCase, metrics: m}
}

func (t *tokenUseCaseWithMetrics) Issue(
	ctx context.Context,
	input *portalDomain.IssueTokenInput,
) (*portalDomain.IssueTokenOutput, error) {
	start := time.Now()
	out, err := t.next.Issue(ctx, input)
	record(ctx, t.metrics, "token_issue", start, err)
	return out, err
}

func (t *tokenUseCaseWithMetrics) Revoke(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	start := time.Now()
	out, err := t.next.Revoke(ctx, tokenID)
	record(ctx, t.metrics, "token_revoke", start, err)
	return out, err
}

func (t *tokenUseCaseWithMetrics) Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	start := time.Now()
	out, err := t.next.Get(ctx, tokenID)
	record(ctx, t.metrics, "token_get", start, err)
	return out, err
}
