package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers recently ingested quote identifiers so that
// redelivered webhooks can be answered without opening a write transaction.
// The database uniqueness constraint on the external id remains the
// authority; the store is a fast path, not a correctness mechanism.
type IdempotencyStore interface {
	// MarkProcessed marks a quote id as ingested with a TTL
	// Returns true if the id was newly marked, false if it was already present
	MarkProcessed(ctx context.Context, quoteID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a quote id has already been ingested
	IsProcessed(ctx context.Context, quoteID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for the duplicate fast path
type IdempotencyConfig struct {
	// TTL is the time-to-live for remembered quote ids. After this duration
	// a redelivery falls through to the database duplicate check.
	TTL time.Duration

	// Enabled determines whether the fast path is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
