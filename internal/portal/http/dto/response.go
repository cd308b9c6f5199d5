package dto

import (
	"time"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
)

// TokenValidationResponse is returned by the generic validate endpoint.
type TokenValidationResponse struct {
	Valid      bool      `json:"valid"`
	TokenType  string    `json:"token_type"`
	ResourceID *string   `json:"resource_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// MapTokenValidationToResponse converts a token validation to an API response.
func MapTokenValidationToResponse(v *portalDomain.TokenValidation) TokenValidationResponse {
	response := TokenValidationResponse{
		Valid:     true,
		TokenType: string(v.TokenType),
		ExpiresAt: v.ExpiresAt,
	}
	if v.ResourceID != nil {
		id := v.ResourceID.String()
		response.ResourceID = &id
	}
	return response
}

// LineItemResponse is a single line on a quote or invoice.
type LineItemResponse struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

func mapLineItems(items []portalDomain.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemResponse{
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents(),
		})
	}
	return out
}

// QuoteResponse is a quote as shown in the portal. Internal ownership fields are omitted.
type QuoteResponse struct {
	ID             string             `json:"id"`
	Number         string             `json:"number"`
	Title          string             `json:"title"`
	Status         string             `json:"status"`
	LineItems      []LineItemResponse `json:"line_items"`
	SubtotalCents  int64              `json:"subtotal_cents"`
	GSTCents       int64              `json:"gst_cents"`
	TotalCents     int64              `json:"total_cents"`
	Currency       string             `json:"currency"`
	ValidUntil     *time.Time         `json:"valid_until"`
	AcceptedAt     *time.Time         `json:"accepted_at"`
	DeclinedAt     *time.Time         `json:"declined_at"`
	CreatedAt      time.Time          `json:"created_at"`
	TokenExpiresAt time.Time          `json:"token_expires_at"`
}

// MapQuoteViewToResponse converts a quote view to an API response.
func MapQuoteViewToResponse(view *portalDomain.QuoteView) QuoteResponse {
	q := view.Quote
	return QuoteResponse{
		ID:             q.ID.String(),
		Number:         q.Number,
		Title:          q.Title,
		Status:         string(q.Status),
		LineItems:      mapLineItems(q.LineItems),
		SubtotalCents:  q.SubtotalCents,
		GSTCents:       q.GSTCents,
		TotalCents:     q.TotalCents,
		Currency:       portalDomain.Currency,
		ValidUntil:     q.ValidUntil,
		AcceptedAt:     q.AcceptedAt,
		DeclinedAt:     q.DeclinedAt,
		CreatedAt:      q.CreatedAt,
		TokenExpiresAt: view.TokenExpiresAt,
	}
}

// InvoiceResponse is an invoice as shown in the portal.
type InvoiceResponse struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	Status          string             `json:"status"`
	LineItems       []LineItemResponse `json:"line_items"`
	SubtotalCents   int64              `json:"subtotal_cents"`
	GSTCents        int64              `json:"gst_cents"`
	TotalCents      int64              `json:"total_cents"`
	AmountPaidCents int64              `json:"amount_paid_cents"`
	AmountDueCents  int64              `json:"amount_due_cents"`
	Currency        string             `json:"currency"`
	DueDate         time.Time          `json:"due_date"`
	PaidAt          *time.Time         `json:"paid_at"`
	CreatedAt       time.Time          `json:"created_at"`
	TokenExpiresAt  time.Time          `json:"token_expires_at"`
}

// MapInvoiceViewToResponse converts an invoice view to an API response.
func MapInvoiceViewToResponse(view *portalDomain.InvoiceView) InvoiceResponse {
	i := view.Invoice
	return InvoiceResponse{
		ID:              i.ID.String(),
		Number:          i.Number,
		Status:          string(i.Status),
		LineItems:       mapLineItems(i.LineItems),
		SubtotalCents:   i.SubtotalCents,
		GSTCents:        i.GSTCents,
		TotalCents:      i.TotalCents,
		AmountPaidCents: i.AmountPaidCents,
		AmountDueCents:  i.AmountDueCents(),
		Currency:        portalDomain.Currency,
		DueDate:         i.DueDate,
		PaidAt:          i.PaidAt,
		CreatedAt:       i.CreatedAt,
		TokenExpiresAt:  view.TokenExpiresAt,
	}
}

// PaymentInitiationResponse acknowledges a started payment.
type PaymentInitiationResponse struct {
	InvoiceID      string    `json:"invoice_id"`
	AmountDueCents int64     `json:"amount_due_cents"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	InitiatedAt    time.Time `json:"initiated_at"`
}

// MapPaymentInitiationToResponse converts a payment initiation to an API response.
func MapPaymentInitiationToResponse(p *portalDomain.PaymentInitiation) PaymentInitiationResponse {
	return PaymentInitiationResponse{
		InvoiceID:      p.InvoiceID.String(),
		AmountDueCents: p.AmountDueCents,
		Currency:       p.Currency,
		Status:         p.Status,
		InitiatedAt:    p.InitiatedAt,
	}
}

// QuoteDecisionResponse acknowledges an accepted or declined quote.
type QuoteDecisionResponse struct {
	QuoteID   string    `json:"quote_id"`
	Status    string    `json:"status"`
	DecidedAt time.Time `json:"decided_at"`
}

// MapQuoteDecisionToResponse converts a quote decision to an API response.
func MapQuoteDecisionToResponse(d *portalDomain.QuoteDecision) QuoteDecisionResponse {
	return QuoteDecisionResponse{
		QuoteID:   d.QuoteID.String(),
		Status:    string(d.Status),
		DecidedAt: d.DecidedAt,
	}
}
