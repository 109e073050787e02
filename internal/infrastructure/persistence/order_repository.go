package persistence

import (
	"context"
	"errors"

	"github.com/cpq/backend/internal/domain/order"
	"github.com/cpq/backend/internal/domain/shared"
	"github.com/cpq/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Upsert persists the order idempotently keyed by external id. A repeat
// external id returns the stored order's id without touching any row; first
// write wins permanently. Header and lines go in one transaction. A
// concurrent insert losing the race on the unique index is re-read and
// reported as a duplicate, never as an error.
func (r *GormOrderRepository) Upsert(ctx context.Context, o *order.CanonicalOrder) (order.UpsertResult, error) {
	if existing, err := r.findHeader(ctx, o.ExternalID); err == nil {
		return order.UpsertResult{OrderID: existing.ID, IsNew: false}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return order.UpsertResult{}, err
	}

	header, lines := models.FromDomainOrder(o)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&header).Error; err != nil {
			return err
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := r.findHeader(ctx, o.ExternalID)
			if ferr != nil {
				return order.UpsertResult{}, ferr
			}
			return order.UpsertResult{OrderID: existing.ID, IsNew: false}, nil
		}
		return order.UpsertResult{}, err
	}

	return order.UpsertResult{OrderID: header.ID, IsNew: true}, nil
}

// FindByExternalID loads a stored order with its site groups rebuilt in their
// original order
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, externalID string) (*order.CanonicalOrder, error) {
	header, err := r.findHeader(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var lines []models.OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", header.ID).
		Order("position ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}

	return models.ToDomainOrder(*header, lines), nil
}

func (r *GormOrderRepository) findHeader(ctx context.Context, externalID string) (*models.OrderModel, error) {
	var header models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&header).Error; err != nil {
		return nil, err
	}
	return &header, nil
}
