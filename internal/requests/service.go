package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dcervantes/equiplend-backend/internal/audit"
	"github.com/dcervantes/equiplend-backend/internal/equipment"
	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	pkgerrors "github.com/dcervantes/equiplend-backend/pkg/errors"
	"github.com/dcervantes/equiplend-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the borrow request lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Request, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Request, error)
	Get(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) (*Detail, error)
	List(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, status *enums.RequestStatus) ([]models.Request, error)
	ListPending(ctx context.Context) ([]models.Request, error)
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

type service struct {
	repo      Repository
	equipment *equipment.Repository
	tx        txRunner
	audit     audit.Service
	metrics   *metrics.RequestMetrics
	now       func() time.Time
}

// NewService builds a request service with the required dependencies.
// Metrics may be nil when transition counters are not wanted.
func NewService(repo Repository, equipmentRepo *equipment.Repository, tx txRunner, auditSvc audit.Service, requestMetrics *metrics.RequestMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if equipmentRepo == nil {
		return nil, fmt.Errorf("equipment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{
		repo:      repo,
		equipment: equipmentRepo,
		tx:        tx,
		audit:     auditSvc,
		metrics:   requestMetrics,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Request, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.EquipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	request := &models.Request{
		ID:          uuid.New(),
		UserID:      input.UserID,
		EquipmentID: input.EquipmentID,
		Quantity:    input.Quantity,
		Status:      enums.RequestStatusPending,
		Notes:       input.Notes,
		RequestedAt: s.now(),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// lock the equipment row so a concurrent soft delete cannot land
		// between this read and the insert below
		item, err := s.equipment.WithTx(tx).FindByIDForUpdate(ctx, input.EquipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
		}
		if input.Quantity > item.TotalQuantity {
			return pkgerrors.New(pkgerrors.CodeQuantityExceedsCapacity, "requested quantity exceeds total stock").
				WithDetails(map[string]any{
					"requested": input.Quantity,
					"total":     item.TotalQuantity,
				})
		}

		existing, err := repo.FindActiveForUser(ctx, input.UserID, input.EquipmentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing requests")
		}
		if existing != nil {
			code := pkgerrors.CodeDuplicateActiveRequest
			msg := "an active request for this equipment already exists"
			if existing.Status == enums.RequestStatusPending {
				code = pkgerrors.CodeDuplicatePendingRequest
				msg = "a pending request for this equipment already exists"
			}
			return pkgerrors.New(code, msg).
				WithDetails(map[string]any{
					"request_id": existing.ID,
					"status":     existing.Status,
				})
		}

		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert request")
		}
		return s.audit.RecordCreated(ctx, tx, request.ID, input.UserID)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Request, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status").
			WithDetails(map[string]any{"status": input.Target})
	}

	var result *models.Request
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// lock the row so concurrent transitions of the same request
		// serialize here and the loser validates against committed state
		request, err := repo.FindByIDForUpdate(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
		}

		if err := authorizeTransition(request, input); err != nil {
			return err
		}

		if !request.Status.CanTransitionTo(input.Target) {
			return pkgerrors.New(pkgerrors.CodeInvalidStatusTransition, "status transition disallowed").
				WithDetails(map[string]any{
					"from": request.Status,
					"to":   input.Target,
				})
		}

		delta := inventoryDelta(request.Status, input.Target, request.Quantity)
		if delta != 0 {
			if err := s.applyInventoryDelta(ctx, tx, request.EquipmentID, delta); err != nil {
				return err
			}
		}

		from := request.Status
		applyTransitionFields(request, input, s.now())
		if err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
		}

		actor := input.ActorID
		if err := s.audit.RecordTransition(ctx, tx, audit.RecordTransitionInput{
			RequestID:      request.ID,
			ActorID:        &actor,
			FromStatus:     from,
			ToStatus:       input.Target,
			InventoryDelta: delta,
		}); err != nil {
			return err
		}

		s.metrics.IncTransition(from.String(), input.Target.String())
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyInventoryDelta adjusts the equipment's available units under the row
// lock, re-validating bounds before the guarded write commits.
func (s *service) applyInventoryDelta(ctx context.Context, tx *gorm.DB, equipmentID uuid.UUID, delta int) error {
	repo := s.equipment.WithTx(tx)
	item, err := repo.FindByIDForUpdate(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock equipment")
	}

	next := item.AvailableQuantity + delta
	if next < 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientAvailability, "insufficient availability").
			WithDetails(map[string]any{
				"requested": -delta,
				"available": item.AvailableQuantity,
			})
	}
	if next > item.TotalQuantity {
		return pkgerrors.New(pkgerrors.CodeInventoryBoundsViolation, "inventory counters out of bounds").
			WithDetails(map[string]any{
				"available": item.AvailableQuantity,
				"total":     item.TotalQuantity,
				"delta":     delta,
			})
	}

	item.AvailableQuantity = next
	ok, err := repo.SaveQuantities(ctx, item)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save equipment quantities")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification, "equipment modified concurrently")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) (*Detail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	if !actorRole.IsPrivileged() && request.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
	}

	detail := &Detail{Request: *request}
	if actorRole.IsPrivileged() {
		events, err := s.audit.ListByRequestID(ctx, request.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request events")
		}
		detail.Events = events
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, status *enums.RequestStatus) ([]models.Request, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	filters := ListFilters{Status: status}
	if !actorRole.IsPrivileged() {
		filters.UserID = &actorID
	}

	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Request, error) {
	pending := enums.RequestStatusPending
	rows, err := s.repo.List(ctx, ListFilters{Status: &pending})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending requests")
	}
	return rows, nil
}

// MarkOverdue flags issued requests whose due date passed as of the provided
// time. The scheduler drives this, so audit events carry no actor. Overdue
// units stay reserved, only a return releases them.
func (s *service) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	rows, err := s.repo.ListIssuedPastDue(ctx, asOf, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list past-due requests")
	}

	marked := 0
	var errs []error
	for _, row := range rows {
		changed := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			request, err := repo.FindByIDForUpdate(ctx, row.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
			}
			// another actor may have returned or re-dated it since the scan
			if request.Status != enums.RequestStatusIssued {
				return nil
			}
			if request.DueDate == nil || !request.DueDate.Before(asOf) {
				return nil
			}

			request.Status = enums.RequestStatusOverdue
			if err := repo.Update(ctx, request); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
			}
			if err := s.audit.RecordTransition(ctx, tx, audit.RecordTransitionInput{
				RequestID:  request.ID,
				FromStatus: enums.RequestStatusIssued,
				ToStatus:   enums.RequestStatusOverdue,
			}); err != nil {
				return err
			}
			s.metrics.IncTransition(enums.RequestStatusIssued.String(), enums.RequestStatusOverdue.String())
			changed = true
			return nil
		})
		if err != nil {
			// one stuck row should not block the rest of the sweep
			errs = append(errs, fmt.Errorf("request %s: %w", row.ID, err))
			continue
		}
		if changed {
			marked++
		}
	}
	return marked, multierr.Combine(errs...)
}

// authorizeTransition enforces who may move a request where. Students may
// cancel or return their own requests; every other transition is staff or
// admin.
func authorizeTransition(request *models.Request, input TransitionInput) error {
	if input.ActorRole.IsPrivileged() {
		return nil
	}
	if input.Target != enums.RequestStatusCancelled && input.Target != enums.RequestStatusReturned {
		return pkgerrors.New(pkgerrors.CodeForbidden, "transition requires staff role")
	}
	if request.UserID != input.ActorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
	}
	return nil
}

// inventoryDelta returns the change to available_quantity when moving between
// statuses: entering the stock-holding set reserves units, leaving it
// releases them.
func inventoryDelta(from, to enums.RequestStatus, quantity int) int {
	switch {
	case !from.HoldsStock() && to.HoldsStock():
		return -quantity
	case from.HoldsStock() && !to.HoldsStock():
		return quantity
	default:
		return 0
	}
}

func applyTransitionFields(request *models.Request, input TransitionInput, now time.Time) {
	request.Status = input.Target
	if input.AdminNotes != nil && input.ActorRole.IsPrivileged() {
		request.AdminNotes = input.AdminNotes
	}

	switch input.Target {
	case enums.RequestStatusApproved:
		request.ApprovedAt = &now
		actor := input.ActorID
		request.ApprovedBy = &actor
		if input.DueDate != nil {
			request.DueDate = input.DueDate
		}
	case enums.RequestStatusIssued:
		request.IssuedAt = &now
		if input.DueDate != nil {
			request.DueDate = input.DueDate
		}
	case enums.RequestStatusReturned:
		request.ReturnedAt = &now
	}
}
