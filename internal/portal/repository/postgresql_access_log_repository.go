package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// PostgreSQLAccessLogRepository implements append-only AccessLog persistence for PostgreSQL.
type PostgreSQLAccessLogRepository struct {
	db *sql.DB
}

// CreateBatch inserts all entries with a single multi-row INSERT.
func (p *PostgreSQLAccessLogRepository) CreateBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	if len(entries) == 0 {
		return nil
	}
	querier := database.GetTx(ctx, p.db)

	const columns = 8
	placeholders := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*columns)
	for i, entry := range entries {
		n := i * columns
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8,
		))
		args = append(
			args,
			entry.ID,
			entry.TokenID,
			entry.Action,
			entry.Outcome,
			entry.RequestID,
			entry.IPAddress,
			entry.UserAgent,
			entry.AccessedAt,
		)
	}

	query := `INSERT INTO portal_access_logs
			  (id, token_id, action, outcome, request_id, ip_address, user_agent, accessed_at)
			  VALUES ` + strings.Join(placeholders, ", ")

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to create access logs")
	}
	return nil
}

// CountOlderThan returns how many entries were recorded before the cutoff.
func (p *PostgreSQLAccessLogRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	query := `SELECT COUNT(*) FROM portal_access_logs WHERE accessed_at < $1`
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count access logs")
	}
	return count, nil
}

// DeleteOlderThan removes entries recorded before the cutoff and returns how many were removed.
func (p *PostgreSQLAccessLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM portal_access_logs WHERE accessed_at < $1`
	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete access logs")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read deleted access logs")
	}
	return count, nil
}

// NewPostgreSQLAccessLogRepository creates a new PostgreSQL AccessLog repository.
func NewPostgreSQLAccessLogRepository(db *sql.DB) *PostgreSQLAccessLogRepository {
	return &PostgreSQLAccessLogRepository{db: db}
}
