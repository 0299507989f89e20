package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcervantes/equiplend-backend/api/middleware"
	"github.com/dcervantes/equiplend-backend/api/responses"
	"github.com/dcervantes/equiplend-backend/api/validators"
	requestsvc "github.com/dcervantes/equiplend-backend/internal/requests"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	pkgerrors "github.com/dcervantes/equiplend-backend/pkg/errors"
	"github.com/dcervantes/equiplend-backend/pkg/logger"
)

type createRequestRequest struct {
	EquipmentID string  `json:"equipment_id" validate:"required,uuid"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	Notes       *string `json:"notes,omitempty"`
}

type transitionRequestRequest struct {
	Status     string     `json:"status" validate:"required"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	AdminNotes *string    `json:"admin_notes,omitempty"`
}

func actorFromContext(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	uid, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing")
	}
	return uid, role, nil
}

// CreateRequest submits a borrow request for the authenticated user.
func CreateRequest(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actorID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		equipmentID, err := uuid.Parse(body.EquipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id"))
			return
		}

		request, err := svc.Create(r.Context(), requestsvc.CreateInput{
			UserID:      actorID,
			EquipmentID: equipmentID,
			Quantity:    body.Quantity,
			Notes:       body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// TransitionRequest moves a request to the status named in the body.
func TransitionRequest(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		var body transitionRequestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseRequestStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		handleTransition(svc, logg, target, body.DueDate, body.AdminNotes)(w, r)
	}
}

// ApproveRequest is the convenience endpoint for pending -> approved.
func ApproveRequest(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		var body struct {
			DueDate    *time.Time `json:"due_date,omitempty"`
			AdminNotes *string    `json:"admin_notes,omitempty"`
		}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		handleTransition(svc, logg, enums.RequestStatusApproved, body.DueDate, body.AdminNotes)(w, r)
	}
}

// ReturnRequest is the convenience endpoint for issued/overdue -> returned.
func ReturnRequest(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		handleTransition(svc, logg, enums.RequestStatusReturned, nil, nil)(w, r)
	}
}

func handleTransition(svc requestsvc.Service, logg *logger.Logger, target enums.RequestStatus, dueDate *time.Time, adminNotes *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := parsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Transition(r.Context(), requestsvc.TransitionInput{
			RequestID:  requestID,
			Target:     target,
			ActorID:    actorID,
			ActorRole:  role,
			DueDate:    dueDate,
			AdminNotes: adminNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// GetRequest returns one request, with the audit trail for staff and admins.
func GetRequest(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		requestID, err := parsePathUUID(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), requestID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// ListRequests returns the caller's requests, or everything for staff/admin.
// An optional ?status= filter narrows the result.
func ListRequests(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.RequestStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		rows, err := svc.List(r.Context(), actorID, role, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// ListPendingRequests is the staff review queue.
func ListPendingRequests(svc requestsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		rows, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
