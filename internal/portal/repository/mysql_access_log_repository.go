package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// MySQLAccessLogRepository implements append-only AccessLog persistence for MySQL.
type MySQLAccessLogRepository struct {
	db *sql.DB
}

// CreateBatch inserts all entries with a single multi-row INSERT.
func (m *MySQLAccessLogRepository) CreateBatch(ctx context.Context, entries []*portalDomain.AccessLog) error {
	if len(entries) == 0 {
		return nil
	}
	querier := database.GetTx(ctx, m.db)

	placeholders := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*8)
	for _, entry := range entries {
		id, err := entry.ID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal access log id")
		}
		tokenID, err := entry.TokenID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal token id")
		}

		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(
			args,
			id,
			tokenID,
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
func (m *MySQLAccessLogRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	query := `SELECT COUNT(*) FROM portal_access_logs WHERE accessed_at < ?`
	if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count access logs")
	}
	return count, nil
}

// DeleteOlderThan removes entries recorded before the cutoff and returns how many were removed.
func (m *MySQLAccessLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM portal_access_logs WHERE accessed_at < ?`
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

// NewMySQLAccessLogRepository creates a new MySQL AccessLog repository.
func NewMySQLAccessLogRepository(db *sql.DB) *MySQLAccessLogRepository {
	return &MySQLAccessLogRepository{db: db}
}
