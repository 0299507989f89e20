package requests

import (
	"time"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
)

// CreateInput captures the data needed to open a borrow request.
type CreateInput struct {
	UserID      uuid.UUID
	EquipmentID uuid.UUID
	Quantity    int
	Notes       *string
}

// TransitionInput captures a requested status change and its actor.
type TransitionInput struct {
	RequestID  uuid.UUID
	Target     enums.RequestStatus
	ActorID    uuid.UUID
	ActorRole  enums.UserRole
	DueDate    *time.Time
	AdminNotes *string
}

// ListFilters narrows request listings.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.RequestStatus
}

// Detail is a request joined with its audit trail.
type Detail struct {
	Request models.Request        `json:"request"`
	Events  []models.RequestEvent `json:"events,omitempty"`
}
