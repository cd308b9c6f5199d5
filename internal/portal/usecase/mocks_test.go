package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken() (plainToken string, tokenHash string, err error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) HashToken(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}

type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) Create(ctx context.Context, token *portalDomain.PortalToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.PortalToken), args.Error(1)
}

func (m *mockTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	tokenType portalDomain.TokenType,
) (*portalDomain.PortalToken, error) {
	args := m.Called(ctx, tokenHash, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.PortalToken), args.Error(1)
}

func (m *mockTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) (bool, error) {
	args := m.Called(ctx, tokenID, revokedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepository) RecordAccess(ctx context.Context, tokenID uuid.UUID, accessedAt time.Time) error {
	args := m.Called(ctx, tokenID, accessedAt)
	return args.Error(0)
}

type mockQuoteRepository struct {
	mock.Mock
}

func (m *mockQuoteRepository) Get(ctx context.Context, quoteID uuid.UUID) (*portalDomain.Quote, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.Quote), args.Error(1)
}

func (m *mockQuoteRepository) Accept(ctx context.Context, quoteID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, quoteID, at)
	return args.Error(0)
}

func (m *mockQuoteRepository) Decline(ctx context.Context, quoteID uuid.UUID, at time.Time, reason *string) error {
	args := m.Called(ctx, quoteID, at, reason)
	return args.Error(0)
}

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) Get(ctx context.Context, invoiceID uuid.UUID) (*portalDomain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portalDomain.Invoice), args.Error(1)
}

type mockAccessLogRepository struct {
	mock.Mock
}

func (m *mockAccessLogRepository) CreateBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *mockAccessLogRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// recordingQueue collects enqueued access log entries.
type recordingQueue struct {
	mu      sync.Mutex
	entries []*portalDomain.AccessLog
}

func (q *recordingQueue) Enqueue(entry *portalDomain.AccessLog) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
}

func (q *recordingQueue) Entries() []*portalDomain.AccessLog {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*portalDomain.AccessLog(nil), q.entries...)
}

// passthroughTxManager runs the function without a transaction.
type passthroughTxManager struct {
	calls int
}

func (p *passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}
