package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	portalUseCase "github.com/flowtrade/portal/internal/portal/usecase"
)

// RunRevokePortalToken revokes a portal token. Revoking a token twice keeps the first
// revocation time.
//
// Requirements: Database must be migrated and accessible.
func RunRevokePortalToken(
	ctx context.Context,
	tokenUseCase portalUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	tokenIDString string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	tokenID, err := uuid.Parse(tokenIDString)
	if err != nil {
		return fmt.Errorf("invalid token ID format: %w", err)
	}

	logger.Info("revoking portal token", slog.String("token_id", tokenID.String()))

	token, err := tokenUseCase.Revoke(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke portal token: %w", err)
	}

	var revokedAt string
	if token.RevokedAt != nil {
		revokedAt = token.RevokedAt.UTC().Format(time.RFC3339)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]string{
			"token_id":   token.ID.String(),
			"token_type": string(token.TokenType),
			"revoked_at": revokedAt,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "Portal token revoked successfully!")
		_, _ = fmt.Fprintf(writer, "Token ID: %s\n", token.ID)
		_, _ = fmt.Fprintf(writer, "Revoked at: %s\n", revokedAt)
	}

	logger.Info("portal token revoked",
		slog.String("token_id", token.ID.String()),
		slog.String("revoked_at", revokedAt),
	)

	return nil
}
