package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusViewed    InvoiceStatus = "viewed"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a bill issued to a customer.
type Invoice struct {
	ID              uuid.UUID
	OrgID           uuid.UUID
	CustomerID      uuid.UUID
	Number          string
	Status          InvoiceStatus
	LineItems       []LineItem
	SubtotalCents   int64
	GSTCents        int64
	TotalCents      int64
	AmountPaidCents int64
	DueDate         time.Time
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AmountDueCents is the outstanding balance, never negative.
func (i *Invoice) AmountDueCents() int64 {
	due := i.TotalCents - i.AmountPaidCents
	if due < 0 {
		return 0
	}
	return due
}

// CheckPayable reports why the invoice cannot be paid, or nil if it can.
func (i *Invoice) CheckPayable() error {
	switch i.Status {
	case InvoiceStatusPaid:
		return StateError("invoice has already been paid")
	case InvoiceStatusCancelled:
		return StateError("invoice has been cancelled")
	case InvoiceStatusDraft:
		return StateError("invoice has not been issued yet")
	}
	if i.AmountDueCents() == 0 {
		return StateError("invoice has no amount due")
	}
	return nil
}

// InvoiceView is an invoice projected for the portal, with the token's own expiry.
type InvoiceView struct {
	Invoice        *Invoice
	TokenExpiresAt time.Time
}

// PaymentInitiation acknowledges that a payment was started for an invoice. Collecting
// the payment is the payment provider's job.
type PaymentInitiation struct {
	InvoiceID      uuid.UUID
	AmountDueCents int64
	Currency       string
	Status         string
	InitiatedAt    time.Time
}
