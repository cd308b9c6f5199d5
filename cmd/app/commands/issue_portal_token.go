package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
	portalUseCase "github.com/flowtrade/portal/internal/portal/usecase"
)

// IssuePortalTokenParams holds the raw flag values of the issue-portal-token command.
type IssuePortalTokenParams struct {
	TokenType  string
	ResourceID string
	CustomerID string
	OrgID      string
	TTLHours   int
}

func (p IssuePortalTokenParams) toInput() (*portalDomain.IssueTokenInput, error) {
	if p.TTLHours < 0 {
		return nil, fmt.Errorf("ttl-hours must be a positive number, got: %d", p.TTLHours)
	}

	customerID, err := uuid.Parse(p.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer-id: %w", err)
	}
	orgID, err := uuid.Parse(p.OrgID)
	if err != nil {
		return nil, fmt.Errorf("invalid org-id: %w", err)
	}

	input := &portalDomain.IssueTokenInput{
		TokenType:  portalDomain.TokenType(p.TokenType),
		CustomerID: customerID,
		OrgID:      orgID,
		TTL:        time.Duration(p.TTLHours) * time.Hour,
	}

	if p.ResourceID != "" {
		resourceID, err := uuid.Parse(p.ResourceID)
		if err != nil {
			return nil, fmt.Errorf("invalid resource-id: %w", err)
		}
		input.ResourceID = &resourceID
	}

	return input, nil
}

// RunIssuePortalToken issues a portal token and prints its plain value. The plain value
// is shown only once; only its hash is stored.
//
// Requirements: Database must be migrated and accessible.
func RunIssuePortalToken(
	ctx context.Context,
	tokenUseCase portalUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	params IssuePortalTokenParams,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	input, err := params.toInput()
	if err != nil {
		return err
	}

	logger.Info("issuing portal token",
		slog.String("token_type", params.TokenType),
		slog.String("customer_id", input.CustomerID.String()),
	)

	output, err := tokenUseCase.Issue(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to issue portal token: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"token_id":   output.Token.ID.String(),
			"token":      output.PlainToken,
			"token_type": string(output.Token.TokenType),
			"expires_at": output.Token.ExpiresAt.UTC().Format(time.RFC3339),
		}
		if output.Token.ResourceID != nil {
			result["resource_id"] = output.Token.ResourceID.String()
		}
		if err := writeJSON(writer, result); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "Portal token issued successfully!")
		_, _ = fmt.Fprintf(writer, "Token ID: %s\n", output.Token.ID)
		_, _ = fmt.Fprintf(writer, "Type: %s\n", output.Token.TokenType)
		if output.Token.ResourceID != nil {
			_, _ = fmt.Fprintf(writer, "Resource ID: %s\n", output.Token.ResourceID)
		}
		_, _ = fmt.Fprintf(writer, "Expires at: %s\n", output.Token.ExpiresAt.UTC().Format(time.RFC3339))
		_, _ = fmt.Fprintf(writer, "Token: %s\n", output.PlainToken)
		_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The token is shown only once. Send it to the customer directly.")
	}

	logger.Info("portal token issued",
		slog.String("token_id", output.Token.ID.String()),
		slog.String("token_type", string(output.Token.TokenType)),
		slog.Time("expires_at", output.Token.ExpiresAt),
	)

	return nil
}
