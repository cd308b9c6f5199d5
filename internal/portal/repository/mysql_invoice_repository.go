package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// MySQLInvoiceRepository implements read access to invoices for MySQL.
type MySQLInvoiceRepository struct {
	db *sql.DB
}

// Get retrieves an Invoice by ID. Returns ErrInvoiceNotFound if the invoice doesn't exist.
func (m *MySQLInvoiceRepository) Get(ctx context.Context, invoiceID uuid.UUID) (*portalDomain.Invoice, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := invoiceID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal invoice id")
	}

	query := `SELECT id, org_id, customer_id, number, status, line_items, subtotal_cents,
				  gst_cents, total_cents, amount_paid_cents, due_date, paid_at,
				  created_at, updated_at
			  FROM invoices WHERE id = ?`

	var invoice portalDomain.Invoice
	var idBytes, orgIDBytes, customerIDBytes, lineItems []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&orgIDBytes,
		&customerIDBytes,
		&invoice.Number,
		&invoice.Status,
		&lineItems,
		&invoice.SubtotalCents,
		&invoice.GSTCents,
		&invoice.TotalCents,
		&invoice.AmountPaidCents,
		&invoice.DueDate,
		&invoice.PaidAt,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, portalDomain.ErrInvoiceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get invoice")
	}

	if err := unmarshalOwnedIDs(
		idBytes, orgIDBytes, customerIDBytes,
		&invoice.ID, &invoice.OrgID, &invoice.CustomerID,
	); err != nil {
		return nil, err
	}
	if err := unmarshalLineItems(lineItems, &invoice.LineItems); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// NewMySQLInvoiceRepository creates a new MySQL Invoice repository.
func NewMySQLInvoiceRepository(db *sql.DB) *MySQLInvoiceRepository {
	return &MySQLInvoiceRepository{db: db}
}
