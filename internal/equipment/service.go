package equipment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	pkgerrors "github.com/dcervantes/equiplend-backend/pkg/errors"
	"github.com/dcervantes/equiplend-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines equipment inventory operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Equipment, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Equipment, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Equipment, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds an equipment service with the required dependencies.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("equipment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Equipment, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment name required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment category required")
	}
	if input.TotalQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total quantity must not be negative")
	}
	condition := input.Condition
	if condition == "" {
		condition = enums.EquipmentConditionGood
	}
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid equipment condition").
			WithDetails(map[string]any{"condition": input.Condition})
	}
	available := input.TotalQuantity
	if input.AvailableQuantity != nil {
		available = *input.AvailableQuantity
		if available < 0 || available > input.TotalQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity must be between 0 and total quantity").
				WithDetails(map[string]any{
					"available": available,
					"total":     input.TotalQuantity,
				})
		}
	}

	row := &models.Equipment{
		ID:                uuid.New(),
		Name:              name,
		Category:          strings.TrimSpace(input.Category),
		Condition:         condition,
		Description:       input.Description,
		TotalQuantity:     input.TotalQuantity,
		AvailableQuantity: available,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ExistsByName(ctx, name, uuid.Nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check equipment name")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeDuplicateName, "equipment name already in use").
				WithDetails(map[string]any{"name": name})
		}
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert equipment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Equipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment id required")
	}
	if input.TotalQuantity != nil && *input.TotalQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total quantity must not be negative")
	}
	if input.Condition != nil && !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid equipment condition").
			WithDetails(map[string]any{"condition": *input.Condition})
	}

	var updated *models.Equipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
		}

		fields := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "equipment name required")
			}
			if !strings.EqualFold(name, row.Name) {
				exists, err := repo.ExistsByName(ctx, name, row.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check equipment name")
				}
				if exists {
					return pkgerrors.New(pkgerrors.CodeDuplicateName, "equipment name already in use").
						WithDetails(map[string]any{"name": name})
				}
			}
			fields["name"] = name
			row.Name = name
		}
		if input.Category != nil {
			category := strings.TrimSpace(*input.Category)
			if category == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "equipment category required")
			}
			fields["category"] = category
			row.Category = category
		}
		if input.Condition != nil {
			fields["condition"] = input.Condition.String()
			row.Condition = *input.Condition
		}
		if input.Description != nil {
			fields["description"] = *input.Description
			row.Description = input.Description
		}

		if len(fields) > 0 {
			if err := repo.UpdateFields(ctx, row.ID, fields); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update equipment fields")
			}
		}

		if input.TotalQuantity != nil && *input.TotalQuantity != row.TotalQuantity {
			reserved, err := repo.SumOutstandingQuantity(ctx, row.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum outstanding quantity")
			}
			if *input.TotalQuantity < reserved {
				return pkgerrors.New(pkgerrors.CodeBelowReservedQuantity, "total quantity below reserved units").
					WithDetails(map[string]any{
						"requested_total": *input.TotalQuantity,
						"reserved":        reserved,
					})
			}
			row.TotalQuantity = *input.TotalQuantity
			row.AvailableQuantity = *input.TotalQuantity - reserved

			ok, err := repo.SaveQuantities(ctx, row)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save equipment quantities")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConcurrentModification, "equipment modified concurrently")
			}
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "equipment id required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
		}

		active, err := repo.CountActiveRequests(ctx, row.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active requests")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeHasActiveReservations, "equipment has active reservations").
				WithDetails(map[string]any{"active_requests": active})
		}

		if err := repo.SoftDelete(ctx, row.ID, actorID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete equipment")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipment id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "equipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load equipment")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list equipment")
	}
	return &ListResult{Equipment: rows, NextCursor: next}, nil
}

func (s *service) GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repo.SumOutstandingQuantity(ctx, row.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum outstanding quantity")
	}
	return &Availability{
		EquipmentID: row.ID,
		Total:       row.TotalQuantity,
		Available:   row.AvailableQuantity,
		Reserved:    reserved,
		IsAvailable: row.AvailableQuantity > 0,
	}, nil
}
