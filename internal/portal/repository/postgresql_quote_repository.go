package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// PostgreSQLQuoteRepository implements Quote persistence for PostgreSQL.
type PostgreSQLQuoteRepository struct {
	db *sql.DB
}

// Get retrieves a Quote by ID. Returns ErrQuoteNotFound if the quote doesn't exist.
func (p *PostgreSQLQuoteRepository) Get(ctx context.Context, quoteID uuid.UUID) (*portalDomain.Quote, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, org_id, customer_id, number, title, status, line_items,
				  subtotal_cents, gst_cents, total_cents, valid_until, accepted_at,
				  declined_at, decline_reason, created_at, updated_at
			  FROM quotes WHERE id = $1`

	var quote portalDomain.Quote
	var lineItems []byte

	err := querier.QueryRowContext(ctx, query, quoteID).Scan(
		&quote.ID,
		&quote.OrgID,
		&quote.CustomerID,
		&quote.Number,
		&quote.Title,
		&quote.Status,
		&lineItems,
		&quote.SubtotalCents,
		&quote.GSTCents,
		&quote.TotalCents,
		&quote.ValidUntil,
		&quote.AcceptedAt,
		&quote.DeclinedAt,
		&quote.DeclineReason,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portalDomain.ErrQuoteNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get quote")
	}

	if err := unmarshalLineItems(lineItems, &quote.LineItems); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Accept moves a sent quote to accepted. Returns ErrQuoteNotTransitionable when the quote
// was not in the sent state at the time of the update.
func (p *PostgreSQLQuoteRepository) Accept(ctx context.Context, quoteID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE quotes SET status = $1, accepted_at = $2, updated_at = $2
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		portalDomain.QuoteStatusAccepted,
		at,
		quoteID,
		portalDomain.QuoteStatusSent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to accept quote")
	}
	return transitioned(result)
}

// Decline moves a sent quote to declined, recording the optional reason. Returns
// ErrQuoteNotTransitionable when the quote was not in the sent state.
func (p *PostgreSQLQuoteRepository) Decline(
	ctx context.Context,
	quoteID uuid.UUID,
	at time.Time,
	reason *string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE quotes SET status = $1, declined_at = $2, decline_reason = $3, updated_at = $2
			  WHERE id = $4 AND status = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		portalDomain.QuoteStatusDeclined,
		at,
		reason,
		quoteID,
		portalDomain.QuoteStatusSent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to decline quote")
	}
	return transitioned(result)
}

func transitioned(result sql.Result) error {
	ok, err := database.AffectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return portalDomain.ErrQuoteNotTransitionable
	}
	return nil
}

func unmarshalLineItems(raw []byte, dst *[]portalDomain.LineItem) error {
	if len(raw) == 0 {
		*dst = []portalDomain.LineItem{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.Wrap(err, "failed to decode line items")
	}
	return nil
}

// NewPostgreSQLQuoteRepository creates a new PostgreSQL Quote repository.
func NewPostgreSQLQuoteRepository(db *sql.DB) *PostgreSQLQuoteRepository {
	return &PostgreSQLQuoteRepository{db: db}
}
