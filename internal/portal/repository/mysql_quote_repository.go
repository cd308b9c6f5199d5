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

// MySQLQuoteRepository implements Quote persistence for MySQL using BINARY(16) UUIDs.
type MySQLQuoteRepository struct {
	db *sql.DB
}

// Get retrieves a Quote by ID. Returns ErrQuoteNotFound if the quote doesn't exist.
func (m *MySQLQuoteRepository) Get(ctx context.Context, quoteID uuid.UUID) (*portalDomain.Quote, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := quoteID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal quote id")
	}

	query := `SELECT id, org_id, customer_id, number, title, status, line_items,
				  subtotal_cents, gst_cents, total_cents, valid_until, accepted_at,
				  declined_at, decline_reason, created_at, updated_at
			  FROM quotes WHERE id = ?`

	var quote portalDomain.Quote
	var idBytes, orgIDBytes, customerIDBytes, lineItems []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&orgIDBytes,
		&customerIDBytes,
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

	if err := unmarshalOwnedIDs(idBytes, orgIDBytes, customerIDBytes, &quote.ID, &quote.OrgID, &quote.CustomerID); err != nil {
		return nil, err
	}
	if err := unmarshalLineItems(lineItems, &quote.LineItems); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Accept moves a sent quote to accepted. Returns ErrQuoteNotTransitionable when the quote
// was not in the sent state at the time of the update.
func (m *MySQLQuoteRepository) Accept(ctx context.Context, quoteID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := quoteID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal quote id")
	}

	query := `UPDATE quotes SET status = ?, accepted_at = ?, updated_at = ?
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		portalDomain.QuoteStatusAccepted,
		at,
		at,
		id,
		portalDomain.QuoteStatusSent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to accept quote")
	}
	return transitioned(result)
}

// Decline moves a sent quote to declined, recording the optional reason.
func (m *MySQLQuoteRepository) Decline(ctx context.Context, quoteID uuid.UUID, at time.Time, reason *string) error {
	querier := database.GetTx(ctx, m.db)

	id, err := quoteID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal quote id")
	}

	query := `UPDATE quotes SET status = ?, declined_at = ?, decline_reason = ?, updated_at = ?
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		portalDomain.QuoteStatusDeclined,
		at,
		reason,
		at,
		id,
		portalDomain.QuoteStatusSent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to decline quote")
	}
	return transitioned(result)
}

// unmarshalOwnedIDs decodes the id, org_id and customer_id columns shared by quotes and
// invoices.
func unmarshalOwnedIDs(idBytes, orgIDBytes, customerIDBytes []byte, id, orgID, customerID *uuid.UUID) error {
	if err := id.UnmarshalBinary(idBytes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal id")
	}
	if err := orgID.UnmarshalBinary(orgIDBytes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal org id")
	}
	if err := customerID.UnmarshalBinary(customerIDBytes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal customer id")
	}
	return nil
}

// NewMySQLQuoteRepository creates a new MySQL Quote repository.
func NewMySQLQuoteRepository(db *sql.DB) *MySQLQuoteRepository {
	return &MySQLQuoteRepository{db: db}
}
