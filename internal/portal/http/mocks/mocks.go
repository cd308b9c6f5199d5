// Package mocks provides mock implementations for testing portal handlers, workers and commands.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// MockPortalUseCase is a mock implementation of PortalUseCase for testing.
type MockPortalUseCase struct {
	mock.Mock
}

// ValidateToken mocks the ValidateToken method of PortalUseCase.
func (m *MockPortalUseCase) ValidateToken(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.TokenValidation, error) {
	args := m.Called(ctx, token, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.TokenValidation), args.Error(1)
}

// GetQuote mocks the GetQuote method of PortalUseCase.
func (m *MockPortalUseCase) GetQuote(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteView, error) {
	args := m.Called(ctx, token, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.QuoteView), args.Error(1)
}

// GetInvoice mocks the GetInvoice method of PortalUseCase.
func (m *MockPortalUseCase) GetInvoice(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.InvoiceView, error) {
	args := m.Called(ctx, token, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.InvoiceView), args.Error(1)
}

// DocumentURL mocks the DocumentURL method of PortalUseCase.
func (m *MockPortalUseCase) DocumentURL(
	ctx context.Context,
	token string,
	kind portalDomain.TokenType,
	access portalDomain.AccessContext,
) (string, error) {
	args := m.Called(ctx, token, kind, access)
	return args.String(0), args.Error(1)
}

// InitiatePayment mocks the InitiatePayment method of PortalUseCase.
func (m *MockPortalUseCase) InitiatePayment(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.PaymentInitiation, error) {
	args := m.Called(ctx, token, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.PaymentInitiation), args.Error(1)
}

// AcceptQuote mocks the AcceptQuote method of PortalUseCase.
func (m *MockPortalUseCase) AcceptQuote(
	ctx context.Context,
	token string,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteDecision, error) {
	args := m.Called(ctx, token, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.QuoteDecision), args.Error(1)
}

// DeclineQuote mocks the DeclineQuote method of PortalUseCase.
func (m *MockPortalUseCase) DeclineQuote(
	ctx context.Context,
	token string,
	input *portalDomain.QuoteDecisionInput,
	access portalDomain.AccessContext,
) (*portalDomain.QuoteDecision, error) {
	args := m.Called(ctx, token, input, access)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.QuoteDecision), args.Error(1)
}

// MockTokenUseCase is a mock implementation of TokenUseCase for testing.
type MockTokenUseCase struct {
	mock.Mock
}

// Issue mocks the Issue method of TokenUseCase.
func (m *MockTokenUseCase) Issue(
	ctx context.Context,
	input *portalDomain.IssueTokenInput,
) (*portalDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.IssueTokenOutput), args.Error(1)
}

// Revoke mocks the Revoke method of TokenUseCase.
func (m *MockTokenUseCase) Revoke(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.PortalToken), args.Error(1)
}

// Get mocks the Get method of TokenUseCase.
func (m *MockTokenUseCase) Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.PortalToken), args.Error(1)
}

// MockAccessLogUseCase is a mock implementation of AccessLogUseCase for testing.
type MockAccessLogUseCase struct {
	mock.Mock
}

// WriteBatch mocks the WriteBatch method of AccessLogUseCase.
func (m *MockAccessLogUseCase) WriteBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// DeleteOlderThan mocks the DeleteOlderThan method of AccessLogUseCase.
func (m *MockAccessLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}
