package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
	"github.com/flowtrade/portal/internal/portal/http/mocks"
)

func TestRunIssuePortalToken(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	quoteID := uuid.Must(uuid.NewV7())
	customerID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())
	expiresAt := time.Date(2026, 11, 16, 9, 0, 0, 0, time.UTC)

	params := IssuePortalTokenParams{
		TokenType:  "quote",
		ResourceID: quoteID.String(),
		CustomerID: customerID.String(),
		OrgID:      orgID.String(),
		TTLHours:   48,
	}

	output := &portalDomain.IssueTokenOutput{
		Token: &portalDomain.PortalToken{
			ID:         uuid.Must(uuid.NewV7()),
			TokenType:  portalDomain.TokenTypeQuote,
			ResourceID: &quoteID,
			CustomerID: customerID,
			OrgID:      orgID,
			ExpiresAt:  expiresAt,
		},
		PlainToken: "plain-token-value",
	}

	matchInput := mock.MatchedBy(func(input *portalDomain.IssueTokenInput) bool {
		return input.TokenType == portalDomain.TokenTypeQuote &&
			input.ResourceID != nil && *input.ResourceID == quoteID &&
			input.CustomerID == customerID &&
			input.OrgID == orgID &&
			input.TTL == 48*time.Hour
	})

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &mocks.MockTokenUseCase{}
		mockUseCase.On("Issue", ctx, matchInput).Return(output, nil)

		var out bytes.Buffer
		err := RunIssuePortalToken(ctx, mockUseCase, logger, &out, params, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Token: plain-token-value")
		require.Contains(t, out.String(), "Resource ID: "+quoteID.String())
		require.Contains(t, out.String(), "Expires at: 2026-11-16T09:00:00Z")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &mocks.MockTokenUseCase{}
		mockUseCase.On("Issue", ctx, matchInput).Return(output, nil)

		var out bytes.Buffer
		err := RunIssuePortalToken(ctx, mockUseCase, logger, &out, params, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"token": "plain-token-value"`)
		require.Contains(t, out.String(), `"token_type": "quote"`)
		require.Contains(t, out.String(), `"resource_id": "`+quoteID.String()+`"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("dashboard-without-resource", func(t *testing.T) {
		mockUseCase := &mocks.MockTokenUseCase{}
		mockUseCase.On("Issue", ctx, mock.MatchedBy(func(input *portalDomain.IssueTokenInput) bool {
			return input.TokenType == portalDomain.TokenTypeDashboard && input.ResourceID == nil && input.TTL == 0
		})).Return(&portalDomain.IssueTokenOutput{
			Token: &portalDomain.PortalToken{
				ID:        uuid.Must(uuid.NewV7()),
				TokenType: portalDomain.TokenTypeDashboard,
				ExpiresAt: expiresAt,
			},
			PlainToken: "dashboard-token",
		}, nil)

		var out bytes.Buffer
		err := RunIssuePortalToken(ctx, mockUseCase, logger, &out, IssuePortalTokenParams{
			TokenType:  "dashboard",
			CustomerID: customerID.String(),
			OrgID:      orgID.String(),
		}, "json")

		require.NoError(t, err)
		require.NotContains(t, out.String(), "resource_id")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-ids", func(t *testing.T) {
		mockUseCase := &mocks.MockTokenUseCase{}

		bad := params
		bad.CustomerID = "not-a-uuid"
		err := RunIssuePortalToken(ctx, mockUseCase, logger, &bytes.Buffer{}, bad, "text")
		require.ErrorContains(t, err, "invalid customer-id")

		bad = params
		bad.OrgID = "not-a-uuid"
		err = RunIssuePortalToken(ctx, mockUseCase, logger, &bytes.Buffer{}, bad, "text")
		require.ErrorContains(t, err, "invalid org-id")

		bad = params
		bad.ResourceID = "not-a-uuid"
		err = RunIssuePortalToken(ctx, mockUseCase, logger, &bytes.Buffer{}, bad, "text")
		require.ErrorContains(t, err, "invalid resource-id")

		mockUseCase.AssertNotCalled(t, "Issue")
	})

	t.Run("negative-ttl", func(t *testing.T) {
		mockUseCase := &mocks.MockTokenUseCase{}

		bad := params
		bad.TTLHours = -1
		err := RunIssuePortalToken(ctx, mockUseCase, logger, &bytes.Buffer{}, bad, "text")

		require.ErrorContains(t, err, "ttl-hours must be a positive number")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &mocks.MockTokenUseCase{}
		mockUseCase.On("Issue", ctx, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidInput, "token_type: must be one of quote, invoice, job, dashboard"))

		bad := params
		bad.TokenType = "receipt"
		err := RunIssuePortalToken(ctx, mockUseCase, logger, &bytes.Buffer{}, bad, "text")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
