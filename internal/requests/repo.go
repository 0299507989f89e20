package requests

import (
	"context"
	"errors"
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for borrow requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error)
	Update(ctx context.Context, request *models.Request) error
	List(ctx context.Context, filters ListFilters) ([]models.Request, error)
	FindActiveForUser(ctx context.Context, userID, equipmentID uuid.UUID) (*models.Request, error)
	ListIssuedPastDue(ctx context.Context, asOf time.Time, limit int) ([]models.Request, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByIDForUpdate loads the request under FOR UPDATE. Callers must run
// inside a transaction; outside one the lock clause is a plain read.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) Update(ctx context.Context, request *models.Request) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Request, error) {
	qb := r.db.WithContext(ctx).Model(&models.Request{})
	if filters.UserID != nil {
		qb = qb.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		qb = qb.Where("status = ?", filters.Status.String())
	}

	var rows []models.Request
	if err := qb.Order("requested_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindActiveForUser returns the user's open request for the equipment, or nil
// when none exists. Pending requests and approved or issued loans block a new
// request; an overdue loan does not, the borrower may still queue a new one.
func (r *repository) FindActiveForUser(ctx context.Context, userID, equipmentID uuid.UUID) (*models.Request, error) {
	statuses := []string{
		enums.RequestStatusPending.String(),
		enums.RequestStatusApproved.String(),
		enums.RequestStatusIssued.String(),
	}

	var request models.Request
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND equipment_id = ? AND status IN ?", userID, equipmentID, statuses).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListIssuedPastDue(ctx context.Context, asOf time.Time, limit int) ([]models.Request, error) {
	qb := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", enums.RequestStatusIssued.String(), asOf).
		Order("due_date ASC")
	if limit > 0 {
		qb = qb.Limit(limit)
	}

	var rows []models.Request
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
