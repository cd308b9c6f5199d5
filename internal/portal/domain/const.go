// Package domain defines the customer portal domain models: bearer tokens scoped to one
// quote or invoice, the resources they unlock, and the append-only access log.
package domain

// TokenType fixes which resource class and action set a portal token may address.
type TokenType string

const (
	// TokenTypeAny is used by call sites that accept a token of any type. It is never
	// stored on a token.
	TokenTypeAny TokenType = ""

	// TokenTypeQuote grants access to one quote.
	TokenTypeQuote TokenType = "quote"

	// TokenTypeInvoice grants access to one invoice.
	TokenTypeInvoice TokenType = "invoice"

	// TokenTypeJob grants access to one job's progress page.
	TokenTypeJob TokenType = "job"

	// TokenTypeDashboard grants access to a customer's dashboard; it has no resource ID.
	TokenTypeDashboard TokenType = "dashboard"
)

// TokenTypes lists every storable token type.
var TokenTypes = []TokenType{TokenTypeQuote, TokenTypeInvoice, TokenTypeJob, TokenTypeDashboard}

// IsValid reports whether t is a storable token type.
func (t TokenType) IsValid() bool {
	for _, v := range TokenTypes {
		if t == v {
			return true
		}
	}
	return false
}

// HasDocument reports whether resources of this type have a rendered PDF.
func (t TokenType) HasDocument() bool {
	return t == TokenTypeQuote || t == TokenTypeInvoice
}

// Action names recorded in the access log.
const (
	ActionTokenValidated   = "token_validated"
	ActionQuoteViewed      = "quote_viewed"
	ActionInvoiceViewed    = "invoice_viewed"
	ActionPDFDownload      = "pdf_download"
	ActionPaymentInitiated = "payment_initiated"
	ActionQuoteAccepted    = "quote_accepted"
	ActionQuoteDeclined    = "quote_declined"
)

// Outcome is the result of a guarded request as recorded in the access log.
type Outcome string

const (
	OutcomeGranted      Outcome = "granted"
	OutcomeExpired      Outcome = "expired"
	OutcomeRevoked      Outcome = "revoked"
	OutcomeInvalidState Outcome = "invalid_state"
	OutcomeError        Outcome = "error"
)

// Currency is the ISO 4217 code all amounts are expressed in (cents).
const Currency = "AUD"
