// Package repository implements portal persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

const postgresTokenColumns = `id, token_hash, token_type, resource_id, customer_id, org_id,
	expires_at, revoked_at, access_count, last_accessed_at, created_at`

// PostgreSQLTokenRepository implements PortalToken persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new PortalToken.
func (p *PostgreSQLTokenRepository) Create(ctx context.Context, token *portalDomain.PortalToken) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO portal_tokens (` + postgresTokenColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.TokenType,
		nullUUID(token.ResourceID),
		token.CustomerID,
		token.OrgID,
		token.ExpiresAt,
		token.RevokedAt,
		token.AccessCount,
		token.LastAccessedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create portal token")
	}
	return nil
}

// Get retrieves a PortalToken by ID. Returns ErrTokenNotFound if the token doesn't exist.
func (p *PostgreSQLTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + ` FROM portal_tokens WHERE id = $1`

	token, err := scanPostgresToken(querier.QueryRowContext(ctx, query, tokenID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portalDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get portal token")
	}
	return token, nil
}

// GetByTokenHash retrieves a PortalToken by the hash of its plain token. When tokenType is
// not TokenTypeAny only a token of that type matches; a token of another type is reported
// as ErrTokenNotFound.
func (p *PostgreSQLTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	tokenType portalDomain.TokenType,
) (*portalDomain.PortalToken, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + ` FROM portal_tokens WHERE token_hash = $1`
	args := []any{tokenHash}
	if tokenType != portalDomain.TokenTypeAny {
		query += ` AND token_type = $2`
		args = append(args, tokenType)
	}

	token, err := scanPostgresToken(querier.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portalDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get portal token by hash")
	}
	return token, nil
}

// Revoke sets revoked_at on a token that is not revoked yet. It reports whether this call
// revoked the token; revocation is never undone or overwritten.
func (p *PostgreSQLTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE portal_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, revokedAt, tokenID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to revoke portal token")
	}
	return database.AffectedOne(result)
}

// RecordAccess increments the token's access counter.
func (p *PostgreSQLTokenRepository) RecordAccess(ctx context.Context, tokenID uuid.UUID, accessedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE portal_tokens
			  SET access_count = access_count + 1, last_accessed_at = $1
			  WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, accessedAt, tokenID); err != nil {
		return apperrors.Wrap(err, "failed to record portal token access")
	}
	return nil
}

func scanPostgresToken(row *sql.Row) (*portalDomain.PortalToken, error) {
	var token portalDomain.PortalToken
	var resourceID uuid.NullUUID

	err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.TokenType,
		&resourceID,
		&token.CustomerID,
		&token.OrgID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.AccessCount,
		&token.LastAccessedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resourceID.Valid {
		token.ResourceID = &resourceID.UUID
	}
	return &token, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL PortalToken repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}
