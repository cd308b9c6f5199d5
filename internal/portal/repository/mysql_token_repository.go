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

const mysqlTokenColumns = `id, token_hash, token_type, resource_id, customer_id, org_id,
	expires_at, revoked_at, access_count, last_accessed_at, created_at`

// MySQLTokenRepository implements PortalToken persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new PortalToken using BINARY(16) for UUIDs.
func (m *MySQLTokenRepository) Create(ctx context.Context, token *portalDomain.PortalToken) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO portal_tokens (` + mysqlTokenColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	var resourceID []byte
	if token.ResourceID != nil {
		if resourceID, err = token.ResourceID.MarshalBinary(); err != nil {
			return apperrors.Wrap(err, "failed to marshal resource id")
		}
	}

	customerID, err := token.CustomerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal customer id")
	}

	orgID, err := token.OrgID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal org id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		token.TokenType,
		resourceID,
		customerID,
		orgID,
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
func (m *MySQLTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal token id")
	}

	query := `SELECT ` + mysqlTokenColumns + ` FROM portal_tokens WHERE id = ?`

	token, err := scanMySQLToken(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portalDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get portal token")
	}
	return token, nil
}

// GetByTokenHash retrieves a PortalToken by the hash of its plain token, optionally
// restricted to one token type.
func (m *MySQLTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
	tokenType portalDomain.TokenType,
) (*portalDomain.PortalToken, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlTokenColumns + ` FROM portal_tokens WHERE token_hash = ?`
	args := []any{tokenHash}
	if tokenType != portalDomain.TokenTypeAny {
		query += ` AND token_type = ?`
		args = append(args, tokenType)
	}

	token, err := scanMySQLToken(querier.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portalDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get portal token by hash")
	}
	return token, nil
}

// Revoke sets revoked_at on a token that is not revoked yet and reports whether this call
// revoked it.
func (m *MySQLTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal token id")
	}

	query := `UPDATE portal_tokens SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, revokedAt, id)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to revoke portal token")
	}
	return database.AffectedOne(result)
}

// RecordAccess increments the token's access counter.
func (m *MySQLTokenRepository) RecordAccess(ctx context.Context, tokenID uuid.UUID, accessedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	query := `UPDATE portal_tokens
			  SET access_count = access_count + 1, last_accessed_at = ?
			  WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, accessedAt, id); err != nil {
		return apperrors.Wrap(err, "failed to record portal token access")
	}
	return nil
}

func scanMySQLToken(row *sql.Row) (*portalDomain.PortalToken, error) {
	var token portalDomain.PortalToken
	var idBytes, resourceIDBytes, customerIDBytes, orgIDBytes []byte

	err := row.Scan(
		&idBytes,
		&token.TokenHash,
		&token.TokenType,
		&resourceIDBytes,
		&customerIDBytes,
		&orgIDBytes,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.AccessCount,
		&token.LastAccessedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := token.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token id")
	}
	if resourceIDBytes != nil {
		var resourceID uuid.UUID
		if err := resourceID.UnmarshalBinary(resourceIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal resource id")
		}
		token.ResourceID = &resourceID
	}
	if err := token.CustomerID.UnmarshalBinary(customerIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal customer id")
	}
	if err := token.OrgID.UnmarshalBinary(orgIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal org id")
	}

	return &token, nil
}

// NewMySQLTokenRepository creates a new MySQL PortalToken repository.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}
