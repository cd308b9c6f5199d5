package domain

// LineItem is a single billable line on a quote or invoice. Amounts are in cents.
type LineItem struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// TotalCents is the line total excluding GST.
func (l LineItem) TotalCents() int64 {
	return l.Quantity * l.UnitPriceCents
}
