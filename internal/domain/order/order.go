package order

import (
	"strings"
	"time"

	"github.com/cpq/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product code prefixes for the camera/license/retention bundle.
// Classification is by literal prefix match; anything else is unclassified.
const (
	CameraPrefix    = "CAM-"
	LicensePrefix   = "LIC-"
	RetentionPrefix = "RET-"
)

// Defaults applied when the source provides no value
const (
	DefaultSiteName   = "Org"
	DefaultCurrency   = "USD"
	DefaultTermMonths = 12
)

// PrefixClass is the product class of a line item, derived once from its code
type PrefixClass string

const (
	ClassCamera    PrefixClass = "CAMERA"
	ClassLicense   PrefixClass = "LICENSE"
	ClassRetention PrefixClass = "RETENTION"
	ClassOther     PrefixClass = "OTHER"
)

// String returns the string representation of PrefixClass
func (c PrefixClass) String() string {
	return string(c)
}

// ClassifyCode maps a product code to its prefix class
func ClassifyCode(code string) PrefixClass {
	switch {
	case strings.HasPrefix(code, CameraPrefix):
		return ClassCamera
	case strings.HasPrefix(code, LicensePrefix):
		return ClassLicense
	case strings.HasPrefix(code, RetentionPrefix):
		return ClassRetention
	}
	return ClassOther
}

// LineItem represents a canonical line item within a site group
type LineItem struct {
	Code       string
	Quantity   int64
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Class      PrefixClass
}

// NewLineItem creates a canonical line item, classifying the code once
func NewLineItem(code string, quantity int64, unitPrice, totalPrice decimal.Decimal) (LineItem, error) {
	if quantity < 0 {
		return LineItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	return LineItem{
		Code:       code,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
		Class:      ClassifyCode(code),
	}, nil
}

// SiteGroup is an ordered sequence of line items under one site name
type SiteGroup struct {
	Name  string
	Items []LineItem
}

// Totals carries the external system's own totals. They are copied verbatim,
// never recomputed from items: the source is authoritative.
type Totals struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// ZeroTotals returns totals with every amount set to zero
func ZeroTotals() Totals {
	return Totals{
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		TaxTotal:      decimal.Zero,
		GrandTotal:    decimal.Zero,
	}
}

// CanonicalOrder is the fully-normalized order representation on which
// validation and persistence operate. It is built fresh per request and
// never mutated once validation begins.
type CanonicalOrder struct {
	ID          uuid.UUID
	ExternalID  string
	AccountName string
	Currency    string
	TermMonths  int
	SiteGroups  []SiteGroup
	Totals      Totals
	Metadata    map[string]any
	CreatedAt   time.Time
}

// NewCanonicalOrder creates a canonical order with defaults applied.
// Each order owns a freshly-allocated metadata map; the map is never shared
// between orders.
func NewCanonicalOrder(externalID, accountName string) (*CanonicalOrder, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External quote id cannot be empty")
	}
	if accountName == "" {
		accountName = "Unknown"
	}
	return &CanonicalOrder{
		ID:          uuid.New(),
		ExternalID:  externalID,
		AccountName: accountName,
		Currency:    DefaultCurrency,
		TermMonths:  DefaultTermMonths,
		SiteGroups:  make([]SiteGroup, 0),
		Totals:      ZeroTotals(),
		Metadata:    make(map[string]any),
		CreatedAt:   time.Now(),
	}, nil
}

// SetCurrency overrides the default currency when the source provides one
func (o *CanonicalOrder) SetCurrency(currency string) {
	if currency != "" {
		o.Currency = currency
	}
}

// SetTotals sets the externally-supplied totals
func (o *CanonicalOrder) SetTotals(t Totals) {
	o.Totals = t
}

// SetMetadata stores a metadata value
func (o *CanonicalOrder) SetMetadata(key string, value any) {
	o.Metadata[key] = value
}

// AddSiteGroup appends a site group, preserving insertion order
func (o *CanonicalOrder) AddSiteGroup(group SiteGroup) {
	o.SiteGroups = append(o.SiteGroups, group)
}

// AllItems flattens all line items across all site groups, in order
func (o *CanonicalOrder) AllItems() []LineItem {
	var items []LineItem
	for _, g := range o.SiteGroups {
		items = append(items, g.Items...)
	}
	return items
}

// ItemCount returns the total number of line items across all groups
func (o *CanonicalOrder) ItemCount() int {
	n := 0
	for _, g := range o.SiteGroups {
		n += len(g.Items)
	}
	return n
}

// CameraQuantity returns the sum of quantities of camera-class items
func (o *CanonicalOrder) CameraQuantity() int64 {
	var total int64
	for _, item := range o.AllItems() {
		if item.Class == ClassCamera {
			total += item.Quantity
		}
	}
	return total
}
