package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func mustBinary(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

var tokenColumns = []string{
	"id", "token_hash", "token_type", "resource_id", "customer_id", "org_id",
	"expires_at", "revoked_at", "access_count", "last_accessed_at", "created_at",
}

var quoteColumns = []string{
	"id", "org_id", "customer_id", "number", "title", "status", "line_items",
	"subtotal_cents", "gst_cents", "total_cents", "valid_until", "accepted_at",
	"declined_at", "decline_reason", "created_at", "updated_at",
}

var invoiceColumns = []string{
	"id", "org_id", "customer_id", "number", "status", "line_items", "subtotal_cents",
	"gst_cents", "total_cents", "amount_paid_cents", "due_date", "paid_at",
	"created_at", "updated_at",
}

const lineItemsJSON = `[{"description":"Hot water system","quantity":1,"unit_price_cents":100000}]`
