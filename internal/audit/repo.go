package audit

import (
	"context"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for request lifecycle events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.RequestEvent) error
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.RequestEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.RequestEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.RequestEvent, error) {
	var events []models.RequestEvent
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
