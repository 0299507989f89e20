package models

import (
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
)

// Request is a borrow request for a quantity of one equipment record.
// Quantity is immutable after creation; Status moves only along the
// transition table in pkg/enums.
type Request struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	EquipmentID uuid.UUID           `gorm:"column:equipment_id;type:uuid;not null;index"`
	Quantity    int                 `gorm:"column:quantity;not null"`
	Status      enums.RequestStatus `gorm:"column:status;type:text;not null;default:pending;index"`
	Notes       *string             `gorm:"column:notes"`
	AdminNotes  *string             `gorm:"column:admin_notes"`
	RequestedAt time.Time           `gorm:"column:requested_at;not null"`
	DueDate     *time.Time          `gorm:"column:due_date"`
	ApprovedAt  *time.Time          `gorm:"column:approved_at"`
	ApprovedBy  *uuid.UUID          `gorm:"column:approved_by;type:uuid"`
	IssuedAt    *time.Time          `gorm:"column:issued_at"`
	ReturnedAt  *time.Time          `gorm:"column:returned_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	User      *User      `gorm:"foreignKey:UserID"`
	Equipment *Equipment `gorm:"foreignKey:EquipmentID"`
}
