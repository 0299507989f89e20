package audit

import (
	"context"
	"fmt"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service records immutable request lifecycle events.
type Service interface {
	RecordCreated(ctx context.Context, tx *gorm.DB, requestID, actorID uuid.UUID) error
	RecordTransition(ctx context.Context, tx *gorm.DB, input RecordTransitionInput) error
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.RequestEvent, error)
}

type service struct {
	repo Repository
}

// RecordTransitionInput captures the immutable data a transition event requires.
// ActorID is nil for scheduler-driven transitions.
type RecordTransitionInput struct {
	RequestID      uuid.UUID
	ActorID        *uuid.UUID
	FromStatus     enums.RequestStatus
	ToStatus       enums.RequestStatus
	InventoryDelta int
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordCreated(ctx context.Context, tx *gorm.DB, requestID, actorID uuid.UUID) error {
	if requestID == uuid.Nil {
		return fmt.Errorf("request id is required")
	}
	if actorID == uuid.Nil {
		return fmt.Errorf("actor id is required")
	}

	event := &models.RequestEvent{
		ID:        uuid.New(),
		RequestID: requestID,
		ActorID:   &actorID,
		EventType: enums.RequestEventCreated,
		ToStatus:  enums.RequestStatusPending,
	}
	return s.repo.WithTx(tx).Create(ctx, event)
}

func (s *service) RecordTransition(ctx context.Context, tx *gorm.DB, input RecordTransitionInput) error {
	if input.RequestID == uuid.Nil {
		return fmt.Errorf("request id is required")
	}
	if !input.FromStatus.IsValid() || !input.ToStatus.IsValid() {
		return fmt.Errorf("invalid status pair %q -> %q", input.FromStatus, input.ToStatus)
	}

	from := input.FromStatus
	event := &models.RequestEvent{
		ID:             uuid.New(),
		RequestID:      input.RequestID,
		ActorID:        input.ActorID,
		EventType:      enums.RequestEventStatusChanged,
		FromStatus:     &from,
		ToStatus:       input.ToStatus,
		InventoryDelta: input.InventoryDelta,
	}
	return s.repo.WithTx(tx).Create(ctx, event)
}

func (s *service) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.RequestEvent, error) {
	if requestID == uuid.Nil {
		return nil, fmt.Errorf("request id is required")
	}
	return s.repo.ListByRequestID(ctx, requestID)
}
