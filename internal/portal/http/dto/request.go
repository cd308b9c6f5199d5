// Package dto provides data transfer objects for portal HTTP requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
	customValidation "github.com/flowtrade/portal/internal/validation"
)

// MaxDeclineReasonLength bounds the free-form reason a customer can give.
const MaxDeclineReasonLength = 500

// DeclineQuoteRequest contains the optional reason for declining a quote.
type DeclineQuoteRequest struct {
	Reason *string `json:"reason"`
}

// Validate checks if the decline request is valid.
func (r *DeclineQuoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason,
			validation.NilOrNotEmpty,
			validation.RuneLength(0, MaxDeclineReasonLength),
			customValidation.PrintableText,
		),
	)
}

// ToInput converts the request to a use case input.
func (r *DeclineQuoteRequest) ToInput() *portalDomain.QuoteDecisionInput {
	return &portalDomain.QuoteDecisionInput{Reason: r.Reason}
}
