package enums

import (
	"fmt"
	"strings"
)

// RequestStatus tracks the lifecycle of a borrow request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusIssued    RequestStatus = "issued"
	RequestStatusReturned  RequestStatus = "returned"
	RequestStatusOverdue   RequestStatus = "overdue"
	RequestStatusCancelled RequestStatus = "cancelled"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusIssued,
	RequestStatusReturned,
	RequestStatusOverdue,
	RequestStatusCancelled,
}

// requestStatusTransitions is the single source of truth for allowed moves.
// Terminal states map to an empty target set.
var requestStatusTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:   {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusApproved:  {RequestStatusIssued, RequestStatusCancelled},
	RequestStatusIssued:    {RequestStatusReturned, RequestStatusOverdue},
	RequestStatusOverdue:   {RequestStatusReturned},
	RequestStatusReturned:  {},
	RequestStatusRejected:  {},
	RequestStatusCancelled: {},
}

// String implements fmt.Stringer.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s RequestStatus) IsTerminal() bool {
	targets, ok := requestStatusTransitions[s]
	return ok && len(targets) == 0
}

// CanTransitionTo reports whether the move from s to target is allowed.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, candidate := range requestStatusTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// HoldsStock reports whether a request in this status has units removed
// from the equipment's available quantity.
func (s RequestStatus) HoldsStock() bool {
	switch s {
	case RequestStatusApproved, RequestStatusIssued, RequestStatusOverdue:
		return true
	default:
		return false
	}
}

// StockHoldingStatuses returns the statuses counted as outstanding reservations.
func StockHoldingStatuses() []RequestStatus {
	return []RequestStatus{RequestStatusApproved, RequestStatusIssued, RequestStatusOverdue}
}

// ActiveStatuses returns the statuses that block equipment deletion.
func ActiveStatuses() []RequestStatus {
	return []RequestStatus{RequestStatusPending, RequestStatusApproved, RequestStatusIssued, RequestStatusOverdue}
}

// ParseRequestStatus converts raw input into a RequestStatus. Matching is
// case-insensitive.
func ParseRequestStatus(value string) (RequestStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRequestStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
