package enums

// RequestEventType labels entries in the request audit trail.
type RequestEventType string

const (
	RequestEventCreated       RequestEventType = "created"
	RequestEventStatusChanged RequestEventType = "status_changed"
)

func (t RequestEventType) String() string {
	return string(t)
}

func (t RequestEventType) IsValid() bool {
	return t == RequestEventCreated || t == RequestEventStatusChanged
}
