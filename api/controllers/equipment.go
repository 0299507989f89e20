package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dcervantes/equiplend-backend/api/middleware"
	"github.com/dcervantes/equiplend-backend/api/responses"
	"github.com/dcervantes/equiplend-backend/api/validators"
	equipmentsvc "github.com/dcervantes/equiplend-backend/internal/equipment"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	pkgerrors "github.com/dcervantes/equiplend-backend/pkg/errors"
	"github.com/dcervantes/equiplend-backend/pkg/logger"
	"github.com/dcervantes/equiplend-backend/pkg/pagination"
)

type createEquipmentRequest struct {
	Name              string  `json:"name" validate:"required"`
	Category          string  `json:"category" validate:"required"`
	Condition         *string `json:"condition,omitempty"`
	Description       *string `json:"description,omitempty"`
	TotalQuantity     int     `json:"total_quantity" validate:"required,min=0"`
	AvailableQuantity *int    `json:"available_quantity,omitempty" validate:"omitempty,min=0"`
}

type updateEquipmentRequest struct {
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	Condition     *string `json:"condition,omitempty"`
	Description   *string `json:"description,omitempty"`
	TotalQuantity *int    `json:"total_quantity,omitempty" validate:"omitempty,min=0"`
}

func (r createEquipmentRequest) toInput() (equipmentsvc.CreateInput, error) {
	input := equipmentsvc.CreateInput{
		Name:              strings.TrimSpace(r.Name),
		Category:          strings.TrimSpace(r.Category),
		Description:       r.Description,
		TotalQuantity:     r.TotalQuantity,
		AvailableQuantity: r.AvailableQuantity,
	}
	if r.Condition != nil {
		condition, err := enums.ParseEquipmentCondition(*r.Condition)
		if err != nil {
			return equipmentsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition")
		}
		input.Condition = condition
	}
	return input, nil
}

func (r updateEquipmentRequest) toInput() (equipmentsvc.UpdateInput, error) {
	input := equipmentsvc.UpdateInput{
		Name:          r.Name,
		Category:      r.Category,
		Description:   r.Description,
		TotalQuantity: r.TotalQuantity,
	}
	if r.Condition != nil {
		condition, err := enums.ParseEquipmentCondition(*r.Condition)
		if err != nil {
			return equipmentsvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition")
		}
		input.Condition = &condition
	}
	return input, nil
}

// CreateEquipment registers a new equipment record.
func CreateEquipment(svc equipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		var body createEquipmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// UpdateEquipment applies partial updates, reconciling availability on resize.
func UpdateEquipment(svc equipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "equipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEquipmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, row)
	}
}

// DeleteEquipment soft-deletes a record with no active reservations.
func DeleteEquipment(svc equipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "equipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		if err := svc.Delete(r.Context(), id, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GetEquipment returns a single live equipment record.
func GetEquipment(svc equipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "equipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, row)
	}
}

// ListEquipment returns a cursor-paginated page of live equipment.
func ListEquipment(svc equipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// GetEquipmentAvailability reports counters for one equipment record.
func GetEquipmentAvailability(svc equipmentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "equipment service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "equipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availability, err := svc.GetAvailability(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, availability)
	}
}

func parsePathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path").
			WithDetails(map[string]any{"param": param})
	}
	return id, nil
}
