package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	timeout := 30 * time.Minute

	tests := []struct {
		name     string
		idle     time.Duration
		expected bool
	}{
		{name: "fresh session", idle: 0, expected: false},
		{name: "exactly at timeout", idle: 30 * time.Minute, expected: false},
		{name: "one minute past timeout", idle: 31 * time.Minute, expected: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession("5511999999999", now.Add(-tc.idle))
			assert.Equal(t, tc.expected, s.IsExpired(now, timeout))
		})
	}
}

func TestSessionClone(t *testing.T) {
	pending := "12345678901"
	s := &Session{
		PhoneNumber: "5511999999999",
		State:       StateVehicleSelected,
		User: &Identity{
			ID:       "c1",
			Name:     "Maria",
			Vehicles: []VehicleRef{{ID: "v1", Plate: "ABC1234"}},
		},
		SelectedVehicle:   &VehicleRef{ID: "v1", Plate: "ABC1234"},
		PendingIdentifier: &pending,
	}

	c := s.Clone()
	c.User.Vehicles[0].Blocked = true
	c.SelectedVehicle.Plate = "XYZ"
	*c.PendingIdentifier = "changed"

	assert.False(t, s.User.Vehicles[0].Blocked)
	assert.Equal(t, "ABC1234", s.SelectedVehicle.Plate)
	assert.Equal(t, "12345678901", *s.PendingIdentifier)
	assert.False(t, c.IsTransient())

	s.MarkTransient()
	assert.True(t, s.Clone().IsTransient())
}

func TestSessionValidate(t *testing.T) {
	pending := "12345678901"
	user := &Identity{ID: "c1", Vehicles: []VehicleRef{{ID: "v1"}}}

	t.Run("fresh session is valid", func(t *testing.T) {
		require.NoError(t, NewSession("1", time.Now()).Validate())
	})

	t.Run("selected vehicle outside VEHICLE_SELECTED", func(t *testing.T) {
		s := &Session{State: StateAuthenticated, User: user, SelectedVehicle: &VehicleRef{ID: "v1"}}
		assert.Error(t, s.Validate())
	})

	t.Run("user while unauthenticated", func(t *testing.T) {
		s := &Session{State: StateUnauthenticated, User: user}
		assert.Error(t, s.Validate())
	})

	t.Run("pending identifier outside WAITING_PASSWORD", func(t *testing.T) {
		s := &Session{State: StateUnauthenticated, PendingIdentifier: &pending}
		assert.Error(t, s.Validate())
	})

	t.Run("unknown state", func(t *testing.T) {
		s := &Session{State: SessionState("LIMBO")}
		assert.Error(t, s.Validate())
	})

	t.Run("clear resets every field", func(t *testing.T) {
		s := &Session{State: StateVehicleSelected, User: user, SelectedVehicle: &VehicleRef{ID: "v1"}}
		s.Clear()
		assert.Equal(t, StateUnauthenticated, s.State)
		assert.Nil(t, s.User)
		assert.Nil(t, s.SelectedVehicle)
		require.NoError(t, s.Validate())
	})
}

func TestIdentitySetBlocked(t *testing.T) {
	id := &Identity{Vehicles: []VehicleRef{{ID: "v1"}, {ID: "v2"}}}
	id.SetBlocked("v2", true)

	assert.False(t, id.Vehicles[0].Blocked)
	assert.True(t, id.Vehicles[1].Blocked)

	v, ok := id.VehicleByID("v2")
	require.True(t, ok)
	assert.Equal(t, "Bloqueado", v.StatusLabel())
}
