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

// PostgreSQLInvoiceRepository implements read access to invoices for PostgreSQL.
type PostgreSQLInvoiceRepository struct {
	db *sql.DB
}

// Get retrieves an Invoice by ID. Returns ErrInvoiceNotFound if the invoice doesn't exist.
func (p *PostgreSQLInvoiceRepository) Get(ctx context.Context, invoiceID uuid.UUID) (*portalDomain.Invoice, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, org_id, customer_id, number, status, line_items, subtotal_cents,
				  gst_cents, total_cents, amount_paid_cents, due_date, paid_at,
				  created_at, updated_at
			  FROM invoices WHERE id = $1`

	var invoice portalDomain.Invoice
	var lineItems []byte

	err := querier.QueryRowContext(ctx, query, invoiceID).Scan(
		&invoice.ID,
		&invoice.OrgID,
		&invoice.CustomerID,
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

	if err := unmarshalLineItems(lineItems, &invoice.LineItems); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// NewPostgreSQLInvoiceRepository creates a new PostgreSQL Invoice repository.
func NewPostgreSQLInvoiceRepository(db *sql.DB) *PostgreSQLInvoiceRepository {
	return &PostgreSQLInvoiceRepository{db: db}
}
