package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
)

// sessionRecord is the persisted shape of a session in shared stores.
// Timestamps are RFC 3339 in UTC with second precision.
type sessionRecord struct {
	PhoneNumber       string         `json:"phone_number"`
	State             string         `json:"state"`
	PendingIdentifier *string        `json:"pending_identifier"`
	LastActivity      string         `json:"last_activity"`
	User              *userRecord    `json:"user"`
	SelectedVehicle   *vehicleRecord `json:"selected_vehicle"`
}

type userRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	GreetingShown bool            `json:"greeting_shown"`
	Vehicles      []vehicleRecord `json:"vehicles"`
}

type vehicleRecord struct {
	ID      string `json:"id"`
	Plate   string `json:"plate"`
	Model   string `json:"model"`
	Blocked bool   `json:"blocked"`
}

func toVehicleRecord(v model.VehicleRef) vehicleRecord {
	return vehicleRecord{ID: v.ID, Plate: v.Plate, Model: v.Model, Blocked: v.Blocked}
}

func (v vehicleRecord) ref() model.VehicleRef {
	return model.VehicleRef{ID: v.ID, Plate: v.Plate, Model: v.Model, Blocked: v.Blocked}
}

func EncodeSession(s *model.Session) ([]byte, error) {
	rec := sessionRecord{
		PhoneNumber:       s.PhoneNumber,
		State:             string(s.State),
		PendingIdentifier: s.PendingIdentifier,
		LastActivity:      s.LastActivity.UTC().Format(time.RFC3339),
	}

	if s.User != nil {
		u := &userRecord{
			ID:            s.User.ID,
			Name:          s.User.Name,
			Email:         s.User.Email,
			GreetingShown: s.User.GreetingShown,
			Vehicles:      make([]vehicleRecord, 0, len(s.User.Vehicles)),
		}
		for _, v := range s.User.Vehicles {
			u.Vehicles = append(u.Vehicles, toVehicleRecord(v))
		}
		rec.User = u
	}

	if s.SelectedVehicle != nil {
		v := toVehicleRecord(*s.SelectedVehicle)
		rec.SelectedVehicle = &v
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// DecodeSession rejects records that cannot be trusted: bad JSON, a missing
// phone number, an unknown state or an unparseable timestamp.
func DecodeSession(data []byte) (*model.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if rec.PhoneNumber == "" {
		return nil, fmt.Errorf("decode session: missing phone_number")
	}

	state := model.SessionState(rec.State)
	if !state.IsValid() {
		return nil, fmt.Errorf("decode session: unknown state %q", rec.State)
	}

	lastActivity, err := time.Parse(time.RFC3339, rec.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("decode session: last_activity: %w", err)
	}

	s := &model.Session{
		PhoneNumber:       rec.PhoneNumber,
		State:             state,
		PendingIdentifier: rec.PendingIdentifier,
		LastActivity:      lastActivity,
	}

	if rec.User != nil {
		u := &model.Identity{
			ID:            rec.User.ID,
			Name:          rec.User.Name,
			Email:         rec.User.Email,
			GreetingShown: rec.User.GreetingShown,
			Vehicles:      make([]model.VehicleRef, 0, len(rec.User.Vehicles)),
		}
		for _, v := range rec.User.Vehicles {
			u.Vehicles = append(u.Vehicles, v.ref())
		}
		s.User = u
	}

	if rec.SelectedVehicle != nil {
		v := rec.SelectedVehicle.ref()
		s.SelectedVehicle = &v
	}

	return s, nil
}
