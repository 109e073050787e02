package ingest

import (
	"context"
	"time"

	"github.com/cpq/backend/internal/domain/order"
	"github.com/cpq/backend/internal/domain/shared"
	"github.com/cpq/backend/internal/domain/source"
	"go.uber.org/zap"
)

// Service runs the quote ingestion pipeline: fetch (raw path only), group,
// normalize, validate, persist. Both entry paths converge on the same
// validate-and-persist step.
type Service struct {
	src     source.Client
	orders  order.Repository
	idem    shared.IdempotencyStore
	idemTTL time.Duration
	logger  *zap.Logger
}

// NewService creates an ingestion service. The source client may be nil when
// only the trusted-canonical path is served.
func NewService(src source.Client, orders order.Repository, logger *zap.Logger) *Service {
	return &Service{
		src:     src,
		orders:  orders,
		idemTTL: shared.DefaultIdempotencyConfig().TTL,
		logger:  logger,
	}
}

// SetIdempotencyStore enables the duplicate fast-path. The store is a cache
// in front of the database's unique index, never a replacement for it.
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idem = store
	if ttl > 0 {
		s.idemTTL = ttl
	}
}

// IngestCanonical validates and persists an already-canonical payload
func (s *Service) IngestCanonical(ctx context.Context, payload CanonicalOrderPayload) (*IngestResult, error) {
	o, err := payload.ToCanonicalOrder()
	if err != nil {
		return nil, err
	}
	return s.validateAndPersist(ctx, o)
}

// IngestFromSource pulls the order from the external system by id and runs
// the full pipeline
func (s *Service) IngestFromSource(ctx context.Context, sourceOrderID int64) (*IngestResult, error) {
	raw, err := s.src.ReadOrder(ctx, sourceOrderID)
	if err != nil {
		return nil, err
	}

	lines, err := s.src.ReadLines(ctx, raw.LineIDs)
	if err != nil {
		return nil, err
	}

	codes := map[int64]string{}
	if ids := CollectProductIDs(lines); len(ids) > 0 {
		codes, err = s.src.ProductCodes(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	groups, err := GroupLines(lines, codes)
	if err != nil {
		return nil, err
	}

	o, err := buildCanonicalOrder(raw, groups)
	if err != nil {
		return nil, err
	}

	return s.validateAndPersist(ctx, o)
}

func (s *Service) validateAndPersist(ctx context.Context, o *order.CanonicalOrder) (*IngestResult, error) {
	if err := order.Validate(o); err != nil {
		s.logger.Info("quote rejected by validation",
			zap.String("external_id", o.ExternalID),
			zap.Error(err))
		return nil, err
	}

	// Fast path: a cached external id means the order was persisted recently,
	// so answer from the store without opening a write transaction. The
	// database's unique index stays the authority; a cache miss just falls
	// through to the upsert.
	if s.idem != nil {
		if processed, err := s.idem.IsProcessed(ctx, o.ExternalID); err == nil && processed {
			existing, err := s.orders.FindByExternalID(ctx, o.ExternalID)
			if err == nil && existing != nil {
				s.logger.Info("duplicate quote short-circuited",
					zap.String("external_id", o.ExternalID))
				return &IngestResult{
					OrderID:    existing.ID,
					ExternalID: existing.ExternalID,
					Duplicate:  true,
				}, nil
			}
		}
	}

	res, err := s.orders.Upsert(ctx, o)
	if err != nil {
		return nil, err
	}

	if s.idem != nil {
		if _, err := s.idem.MarkProcessed(ctx, o.ExternalID, s.idemTTL); err != nil {
			s.logger.Warn("failed to mark quote in idempotency store",
				zap.String("external_id", o.ExternalID),
				zap.Error(err))
		}
	}

	s.logger.Info("quote persisted",
		zap.String("external_id", o.ExternalID),
		zap.String("order_id", res.OrderID.String()),
		zap.Bool("duplicate", !res.IsNew))

	return &IngestResult{
		OrderID:    res.OrderID,
		ExternalID: o.ExternalID,
		Duplicate:  !res.IsNew,
	}, nil
}
