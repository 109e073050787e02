// Package source defines the contracts for the external quote source: the raw
// order and line shapes as the remote system reports them, and the client
// interface the ingestion pipeline consumes.
package source

import (
	"context"
	"errors"
	"fmt"
)

// DisplayTypeSection marks a raw line as a section header rather than a
// product row. Any other non-empty display type is a display-only row (a
// note) and carries no product data.
const DisplayTypeSection = "line_section"

// RawLine is an order line as read from the external system, before
// normalization. Numeric fields keep the source's float representation.
type RawLine struct {
	Name         string
	DisplayType  string
	ProductID    *int64
	Quantity     float64
	UnitPrice    float64
	LineSubtotal float64
}

// IsSection reports whether the line is a site section marker
func (l RawLine) IsSection() bool {
	return l.DisplayType == DisplayTypeSection
}

// IsDisplayOnly reports whether the line is a non-section display row
// (a note) that must be skipped entirely
func (l RawLine) IsDisplayOnly() bool {
	return l.DisplayType != "" && l.DisplayType != DisplayTypeSection
}

// RawOrder is the order header as read from the external system
type RawOrder struct {
	Name          string
	PartnerName   string
	CurrencyName  string
	DateOrder     string
	AmountUntaxed float64
	AmountTax     float64
	AmountTotal   float64
	LineIDs       []int64
}

// ErrOrderNotFound indicates the external system has no order with the
// requested id
var ErrOrderNotFound = errors.New("order not found in source system")

// UnavailableError indicates the external system could not be reached or
// rejected the session. It wraps the transport error.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Client reads quote data from the external system. Implementations handle
// authentication and transport; callers see only domain shapes.
type Client interface {
	// ReadOrder fetches one order header by its source id.
	// Returns an error wrapping ErrOrderNotFound when the id does not exist.
	ReadOrder(ctx context.Context, id int64) (*RawOrder, error)

	// ReadLines fetches the given order lines, preserving the source's order
	ReadLines(ctx context.Context, ids []int64) ([]RawLine, error)

	// ProductCodes resolves product ids to their short codes. A product
	// without a short code falls back to its display name, then "".
	ProductCodes(ctx context.Context, ids []int64) (map[int64]string, error)
}
