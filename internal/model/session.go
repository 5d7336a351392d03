package model

import (
	"fmt"
	"time"
)

type Session struct {
	PhoneNumber       string       `json:"phoneNumber"`
	State             SessionState `json:"state"`
	User              *Identity    `json:"user,omitempty"`
	SelectedVehicle   *VehicleRef  `json:"selectedVehicle,omitempty"`
	PendingIdentifier *string      `json:"pendingIdentifier,omitempty"`
	LastActivity      time.Time    `json:"lastActivity"`

	// transient marks a stand-in created while the store was unreachable.
	// It must never replace the stored record.
	transient bool
}

func NewSession(phone string, now time.Time) *Session {
	return &Session{
		PhoneNumber:  phone,
		State:        StateUnauthenticated,
		LastActivity: now,
	}
}

// IsExpired reports whether the session has been idle for longer than timeout.
func (s *Session) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActivity) > timeout
}

func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// Clear drops the authenticated identity and any partial credential and puts
// the session back in its initial state.
func (s *Session) Clear() {
	s.State = StateUnauthenticated
	s.User = nil
	s.SelectedVehicle = nil
	s.PendingIdentifier = nil
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.User = s.User.Clone()
	if s.SelectedVehicle != nil {
		v := *s.SelectedVehicle
		c.SelectedVehicle = &v
	}
	if s.PendingIdentifier != nil {
		p := *s.PendingIdentifier
		c.PendingIdentifier = &p
	}
	return &c
}

func (s *Session) MarkTransient() {
	s.transient = true
}

func (s *Session) IsTransient() bool {
	return s != nil && s.transient
}

func (s *Session) VehicleCount() int {
	if s.User == nil {
		return 0
	}
	return len(s.User.Vehicles)
}

// Validate checks the state-dependent field invariants.
func (s *Session) Validate() error {
	if !s.State.IsValid() {
		return fmt.Errorf("unknown state %q", s.State)
	}
	if s.SelectedVehicle != nil && s.State != StateVehicleSelected {
		return fmt.Errorf("selected vehicle set in state %s", s.State)
	}
	if s.User != nil && s.State != StateAuthenticated && s.State != StateVehicleSelected {
		return fmt.Errorf("user set in state %s", s.State)
	}
	if s.PendingIdentifier != nil && s.State != StateWaitingPassword {
		return fmt.Errorf("pending identifier set in state %s", s.State)
	}
	if (s.State == StateAuthenticated || s.State == StateVehicleSelected) && s.User == nil {
		return fmt.Errorf("state %s without user", s.State)
	}
	return nil
}
