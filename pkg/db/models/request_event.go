package models

import (
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
)

// RequestEvent is an append-only audit record of request lifecycle changes.
type RequestEvent struct {
	ID             uuid.UUID              `gorm:"type:uuid;primaryKey"`
	RequestID      uuid.UUID              `gorm:"column:request_id;type:uuid;not null;index"`
	ActorID        *uuid.UUID             `gorm:"column:actor_id;type:uuid"`
	EventType      enums.RequestEventType `gorm:"column:event_type;type:text;not null"`
	FromStatus     *enums.RequestStatus   `gorm:"column:from_status;type:text"`
	ToStatus       enums.RequestStatus    `gorm:"column:to_status;type:text;not null"`
	InventoryDelta int                    `gorm:"column:inventory_delta;not null;default:0"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
}
