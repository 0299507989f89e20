package models

import (
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
)

// Equipment is a lendable inventory record. AvailableQuantity stays within
// [0, TotalQuantity] at every committed state; LockVersion is bumped on every
// quantity write so stale writers fail instead of clobbering counts.
type Equipment struct {
	ID                uuid.UUID                `gorm:"type:uuid;primaryKey"`
	Name              string                   `gorm:"type:text;not null"`
	Category          string                   `gorm:"type:text;not null;index"`
	Condition         enums.EquipmentCondition `gorm:"column:condition;type:text;not null;default:good"`
	Description       *string                  `gorm:"column:description"`
	TotalQuantity     int                      `gorm:"column:total_quantity;not null"`
	AvailableQuantity int                      `gorm:"column:available_quantity;not null"`
	LockVersion       int64                    `gorm:"column:lock_version;not null;default:0"`
	IsDeleted         bool                     `gorm:"column:is_deleted;not null;default:false;index"`
	DeletedAt         *time.Time               `gorm:"column:deleted_at"`
	DeletedBy         *uuid.UUID               `gorm:"column:deleted_by;type:uuid"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Equipment) TableName() string {
	return "equipment"
}
