package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Quote is a priced proposal sent to a customer.
type Quote struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	CustomerID    uuid.UUID
	Number        string
	Title         string
	Status        QuoteStatus
	LineItems     []LineItem
	SubtotalCents int64
	GSTCents      int64
	TotalCents    int64
	ValidUntil    *time.Time
	AcceptedAt    *time.Time
	DeclinedAt    *time.Time
	DeclineReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckRespondable reports why the customer cannot accept or decline the quote at now,
// or nil if they can. Only quotes in the sent state that have not lapsed can be answered.
func (q *Quote) CheckRespondable(now time.Time) error {
	if q.Status != QuoteStatusSent {
		return StateError("quote is " + string(q.Status) + " and can no longer be answered")
	}
	if q.ValidUntil != nil && !now.Before(*q.ValidUntil) {
		return StateError("quote is no longer valid")
	}
	return nil
}

// QuoteView is a quote projected for the portal, with the token's own expiry.
type QuoteView struct {
	Quote          *Quote
	TokenExpiresAt time.Time
}

// QuoteDecisionInput carries the customer's answer to a quote.
type QuoteDecisionInput struct {
	Reason *string
}

// QuoteDecision acknowledges an accepted or declined quote.
type QuoteDecision struct {
	QuoteID   uuid.UUID
	Status    QuoteStatus
	DecidedAt time.Time
}
