package ingest

import (
	"github.com/cpq/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemPayload is a canonical line item as submitted by a trusted caller
type LineItemPayload struct {
	Code       string          `json:"sku"`
	Quantity   int64           `json:"qty" binding:"min=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SitePayload is one named group of line items
type SitePayload struct {
	Name  string            `json:"site_name" binding:"required"`
	Items []LineItemPayload `json:"items"`
}

// TotalsPayload carries the caller-supplied totals
type TotalsPayload struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// CanonicalOrderPayload is the trusted-canonical inbound document. Callers on
// this path have already normalized their data; only validation and
// persistence remain.
type CanonicalOrderPayload struct {
	QuoteID     string         `json:"quote_id" binding:"required"`
	AccountName string         `json:"account_name" binding:"required"`
	Currency    string         `json:"currency"`
	TermMonths  int            `json:"term_months"`
	Sites       []SitePayload  `json:"sites" binding:"dive"`
	Totals      TotalsPayload  `json:"totals"`
	Metadata    map[string]any `json:"metadata"`
}

// ToCanonicalOrder converts the payload into the domain aggregate
func (p *CanonicalOrderPayload) ToCanonicalOrder() (*order.CanonicalOrder, error) {
	o, err := order.NewCanonicalOrder(p.QuoteID, p.AccountName)
	if err != nil {
		return nil, err
	}
	o.SetCurrency(p.Currency)
	if p.TermMonths > 0 {
		o.TermMonths = p.TermMonths
	}
	o.SetTotals(order.Totals{
		Subtotal:      p.Totals.Subtotal,
		DiscountTotal: p.Totals.DiscountTotal,
		TaxTotal:      p.Totals.TaxTotal,
		GrandTotal:    p.Totals.GrandTotal,
	})
	for k, v := range p.Metadata {
		o.SetMetadata(k, v)
	}
	for _, site := range p.Sites {
		group := order.SiteGroup{Name: site.Name}
		for _, item := range site.Items {
			li, err := order.NewLineItem(item.Code, item.Quantity, item.UnitPrice, item.TotalPrice)
			if err != nil {
				return nil, err
			}
			group.Items = append(group.Items, li)
		}
		o.AddSiteGroup(group)
	}
	return o, nil
}

// IngestResult is the outcome of a successful ingestion, duplicate or not
type IngestResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	ExternalID string    `json:"external_id"`
	Duplicate  bool      `json:"duplicate"`
}
