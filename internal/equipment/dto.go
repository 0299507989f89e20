package equipment

import (
	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateInput carries the fields accepted when registering equipment.
// AvailableQuantity nil means all units start available.
type CreateInput struct {
	Name              string
	Category          string
	Condition         enums.EquipmentCondition
	Description       *string
	TotalQuantity     int
	AvailableQuantity *int
}

// UpdateInput carries the optional fields accepted on update. A nil field
// leaves the column untouched.
type UpdateInput struct {
	Name          *string
	Category      *string
	Condition     *enums.EquipmentCondition
	Description   *string
	TotalQuantity *int
}

// Availability is the read projection of an equipment record's stock.
type Availability struct {
	EquipmentID uuid.UUID `json:"equipment_id"`
	Total       int       `json:"total"`
	Available   int       `json:"available"`
	Reserved    int       `json:"reserved"`
	IsAvailable bool      `json:"is_available"`
}

// ListResult is one page of equipment rows plus the follow-up cursor.
type ListResult struct {
	Equipment  []models.Equipment `json:"equipment"`
	NextCursor string             `json:"next_cursor,omitempty"`
}
