package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cpq/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JSONMap stores a string-keyed map as a jsonb column
type JSONMap map[string]any

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	return json.Unmarshal(data, m)
}

// OrderModel persists a canonical order header. The unique index on
// external_id is the idempotency arbiter for concurrent writes.
type OrderModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ExternalID    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_external_id"`
	AccountName   string          `gorm:"type:varchar(255);not null"`
	Currency      string          `gorm:"type:varchar(8);not null"`
	TermMonths    int             `gorm:"not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Metadata      JSONMap         `gorm:"type:jsonb"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for OrderModel
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel persists one flattened line item, tagged with its site group
// name. Position keeps the original order so site groups can be rebuilt.
type OrderLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SiteName   string          `gorm:"type:varchar(255);not null"`
	Code       string          `gorm:"type:varchar(64);not null"`
	Quantity   int64           `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Position   int             `gorm:"not null"`
}

// TableName returns the table name for OrderLineModel
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// FromDomainOrder converts a canonical order into header + line models
func FromDomainOrder(o *order.CanonicalOrder) (OrderModel, []OrderLineModel) {
	header := OrderModel{
		ID:            o.ID,
		ExternalID:    o.ExternalID,
		AccountName:   o.AccountName,
		Currency:      o.Currency,
		TermMonths:    o.TermMonths,
		Subtotal:      o.Totals.Subtotal,
		DiscountTotal: o.Totals.DiscountTotal,
		TaxTotal:      o.Totals.TaxTotal,
		GrandTotal:    o.Totals.GrandTotal,
		Metadata:      JSONMap(o.Metadata),
		CreatedAt:     o.CreatedAt,
	}

	var lines []OrderLineModel
	pos := 0
	for _, group := range o.SiteGroups {
		for _, item := range group.Items {
			lines = append(lines, OrderLineModel{
				ID:         uuid.New(),
				OrderID:    o.ID,
				SiteName:   group.Name,
				Code:       item.Code,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.TotalPrice,
				Position:   pos,
			})
			pos++
		}
	}
	return header, lines
}

// ToDomainOrder rebuilds a canonical order from header + lines. Lines must be
// sorted by position; consecutive runs of the same site name become one group.
func ToDomainOrder(header OrderModel, lines []OrderLineModel) *order.CanonicalOrder {
	o := &order.CanonicalOrder{
		ID:          header.ID,
		ExternalID:  header.ExternalID,
		AccountName: header.AccountName,
		Currency:    header.Currency,
		TermMonths:  header.TermMonths,
		Totals: order.Totals{
			Subtotal:      header.Subtotal,
			DiscountTotal: header.DiscountTotal,
			TaxTotal:      header.TaxTotal,
			GrandTotal:    header.GrandTotal,
		},
		Metadata:  map[string]any(header.Metadata),
		CreatedAt: header.CreatedAt,
	}
	if o.Metadata == nil {
		o.Metadata = make(map[string]any)
	}

	for _, line := range lines {
		item := order.LineItem{
			Code:       line.Code,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			Class:      order.ClassifyCode(line.Code),
		}
		n := len(o.SiteGroups)
		if n == 0 || o.SiteGroups[n-1].Name != line.SiteName {
			o.SiteGroups = append(o.SiteGroups, order.SiteGroup{Name: line.SiteName})
			n++
		}
		o.SiteGroups[n-1].Items = append(o.SiteGroups[n-1].Items, item)
	}
	return o
}
