package order

import (
	"context"

	"github.com/google/uuid"
)

// UpsertResult reports the outcome of an idempotent order write
type UpsertResult struct {
	// OrderID is the stored order's id: the new id on insert, the
	// previously-stored id on duplicate
	OrderID uuid.UUID
	// IsNew is false when an order with the same external id already existed
	IsNew bool
}

// Repository defines the persistence contract for canonical orders.
// Upsert is idempotent on ExternalID: a duplicate never errors, it reports
// the existing order instead.
type Repository interface {
	Upsert(ctx context.Context, o *CanonicalOrder) (UpsertResult, error)
	FindByExternalID(ctx context.Context, externalID string) (*CanonicalOrder, error)
}
