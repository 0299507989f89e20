package equipment

import (
	"context"
	"strings"
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/dcervantes/equiplend-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wires together equipment persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a live equipment row. Soft-deleted rows are not found.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var row models.Equipment
	if err := r.db.WithContext(ctx).
		First(&row, "id = ? AND is_deleted = ?", id, false).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIDForUpdate loads a live equipment row under an exclusive row lock.
// Callers must run inside a transaction; outside one the lock clause is a
// plain read.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	var row models.Equipment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ? AND is_deleted = ?", id, false).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ExistsByName reports whether another live record already uses the name,
// compared case-insensitively.
func (r *Repository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	qb := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Where("lower(name) = ? AND is_deleted = ?", strings.ToLower(strings.TrimSpace(name)), false)
	if excludeID != uuid.Nil {
		qb = qb.Where("id <> ?", excludeID)
	}
	if err := qb.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new equipment row.
func (r *Repository) Create(ctx context.Context, row *models.Equipment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// UpdateFields applies non-quantity column updates to the row.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SaveQuantities writes the quantity counters guarded by the row's
// lock_version. A zero rows-affected result means a concurrent writer got
// there first and the caller must retry.
func (r *Repository) SaveQuantities(ctx context.Context, row *models.Equipment) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Where("id = ? AND lock_version = ?", row.ID, row.LockVersion).
		Updates(map[string]any{
			"total_quantity":     row.TotalQuantity,
			"available_quantity": row.AvailableQuantity,
			"lock_version":       row.LockVersion + 1,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	row.LockVersion++
	return true, nil
}

// SoftDelete flags the row deleted and records who removed it.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": actorID,
			"updated_at": now,
		}).Error
}

// SumOutstandingQuantity totals the units held by requests that currently
// reserve stock for the equipment.
func (r *Repository) SumOutstandingQuantity(ctx context.Context, equipmentID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("equipment_id = ? AND status IN ?", equipmentID, statusStrings(enums.StockHoldingStatuses())).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// CountActiveRequests counts the requests that block deletion of the record.
func (r *Repository) CountActiveRequests(ctx context.Context, equipmentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("equipment_id = ? AND status IN ?", equipmentID, statusStrings(enums.ActiveStatuses())).
		Count(&count).Error
	return count, err
}

// List returns a page of live equipment rows ordered by newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Equipment, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Where("is_deleted = ?", false)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Equipment
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

func statusStrings(statuses []enums.RequestStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}
