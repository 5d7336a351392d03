package model

type SessionState string

const (
	StateUnauthenticated SessionState = "UNAUTHENTICATED"
	StateWaitingPassword SessionState = "WAITING_PASSWORD"
	StateAuthenticated   SessionState = "AUTHENTICATED"
	StateVehicleSelected SessionState = "VEHICLE_SELECTED"
)

func (s SessionState) IsValid() bool {
	switch s {
	case StateUnauthenticated, StateWaitingPassword, StateAuthenticated, StateVehicleSelected:
		return true
	}
	return false
}

// MessageKind distinguishes typed text from a button or list tap.
type MessageKind string

const (
	MessageKindText      MessageKind = "text"
	MessageKindSelection MessageKind = "selection"
)

func (k MessageKind) IsValid() bool {
	return k == MessageKindText || k == MessageKindSelection
}
