package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/audit"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

func (m *Machine) handleAuthenticated(ctx context.Context, s *model.Session, msg Message) {
	if s.User == nil {
		log.Error().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("authenticated session without user")
		m.heal(ctx, s)
		return
	}

	action := parseAction(msg.Text)
	if action.isVehicleAction() && len(s.User.Vehicles) == 1 {
		v := s.User.Vehicles[0]
		s.State = model.StateVehicleSelected
		s.SelectedVehicle = &v
		m.runVehicleAction(ctx, s, action)
		return
	}

	if action == ActionMenu {
		m.showVehicles(ctx, s)
		return
	}

	v, ok := resolveVehicle(s.User, msg)
	if !ok {
		log.Warn().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("vehicle not found for input")
		m.sendText(ctx, s, msgVehicleNotFound)
		m.showVehicles(ctx, s)
		return
	}

	s.State = model.StateVehicleSelected
	s.SelectedVehicle = &v
	m.showOptions(ctx, s)
}

func (m *Machine) handleVehicleSelected(ctx context.Context, s *model.Session, msg Message) {
	if s.User == nil || s.SelectedVehicle == nil {
		log.Error().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("vehicle selected without vehicle, returning to list")
		s.SelectedVehicle = nil
		m.heal(ctx, s)
		return
	}

	if msg.Kind == model.MessageKindSelection {
		if v, ok := s.User.VehicleByID(strings.TrimSpace(msg.Text)); ok && v.ID != s.SelectedVehicle.ID {
			s.SelectedVehicle = &v
			m.showOptions(ctx, s)
			return
		}
	}

	switch action := parseAction(msg.Text); action {
	case ActionMenu:
		if s.VehicleCount() > 1 {
			s.State = model.StateAuthenticated
			s.SelectedVehicle = nil
			m.showVehicles(ctx, s)
			return
		}
		m.showOptions(ctx, s)
	case ActionBack, ActionLocation, ActionBlock, ActionUnblock:
		m.runVehicleAction(ctx, s, action)
	default:
		m.showOptions(ctx, s)
	}
}

// resolveVehicle matches a selection by id, then free text by plate and
// then by model.
func resolveVehicle(user *model.Identity, msg Message) (model.VehicleRef, bool) {
	if msg.Kind == model.MessageKindSelection {
		if v, ok := user.VehicleByID(strings.TrimSpace(msg.Text)); ok {
			return v, true
		}
	}

	text := normalize(msg.Text)
	if text == "" {
		return model.VehicleRef{}, false
	}
	for _, v := range user.Vehicles {
		if normalize(v.Plate) == text {
			return v, true
		}
	}
	for _, v := range user.Vehicles {
		if normalize(v.Model) == text {
			return v, true
		}
	}
	return model.VehicleRef{}, false
}

// runVehicleAction executes an action against the selected vehicle.
// The blocked flag changes only after the command gateway accepts it.
func (m *Machine) runVehicleAction(ctx context.Context, s *model.Session, action Action) {
	v := *s.SelectedVehicle
	buttons := afterActionButtons(s.VehicleCount())

	switch action {
	case ActionBack:
		m.showOptions(ctx, s)

	case ActionLocation:
		gctx, cancel := m.gatewayContext(ctx)
		loc, err := m.vehicles.Location(gctx, v.ID)
		cancel()

		if err != nil || loc == nil {
			log.Warn().Err(err).Str("vehicle_id", v.ID).Msg("location unavailable")
			m.sendButtons(ctx, s, locationUnavailableText(v), buttons)
			return
		}
		m.sendButtons(ctx, s, locationText(v, loc), buttons)

	case ActionBlock, ActionUnblock:
		blocked := action == ActionBlock

		gctx, cancel := m.gatewayContext(ctx)
		err := m.vehicles.SetBlock(gctx, v.ID, blocked)
		cancel()

		if err != nil {
			log.Warn().Err(err).Str("vehicle_id", v.ID).Bool("blocked", blocked).Msg("block command failed")
			auditCommand(ctx, s, v.ID, blocked, false)
			m.sendButtons(ctx, s, blockResultText(v, blocked, false), buttons)
			return
		}

		s.SelectedVehicle.Blocked = blocked
		s.User.SetBlocked(v.ID, blocked)
		log.Info().Str("vehicle_id", v.ID).Bool("blocked", blocked).Msg("block command accepted")
		auditCommand(ctx, s, v.ID, blocked, true)
		m.sendButtons(ctx, s, blockResultText(v, blocked, true), buttons)
	}
}

func auditCommand(ctx context.Context, s *model.Session, vehicleID string, blocked, ok bool) {
	command := buttonUnblock.ID
	if blocked {
		command = buttonBlock.ID
	}
	event := audit.Event{
		Type:  audit.EventVehicleCommand,
		Phone: util.MaskPhone(s.PhoneNumber),
		Details: map[string]interface{}{
			"vehicle_id": vehicleID,
			"command":    command,
			"ok":         ok,
		},
	}
	if s.User != nil {
		event.CustomerID = s.User.ID
	}
	audit.Log(ctx, event)
}

// showVehicles prints the vehicle list. An account with a single vehicle
// skips the list and lands on that vehicle's menu.
func (m *Machine) showVehicles(ctx context.Context, s *model.Session) {
	s.SelectedVehicle = nil

	if s.User == nil || len(s.User.Vehicles) == 0 {
		m.sendText(ctx, s, msgNoVehicles)
		return
	}

	greeting := ""
	if !s.User.GreetingShown {
		greeting = greetingFor(s.User.Name)
		s.User.GreetingShown = true
	}

	if len(s.User.Vehicles) == 1 {
		v := s.User.Vehicles[0]
		s.State = model.StateVehicleSelected
		s.SelectedVehicle = &v

		body, buttons := singleVehicleMenu(greeting, v)
		m.sendButtons(ctx, s, body, buttons)
		return
	}

	s.State = model.StateAuthenticated
	body, label, sections := vehicleList(greeting, s.User.Vehicles)
	m.sendList(ctx, s, body, label, sections)
}

func (m *Machine) showOptions(ctx context.Context, s *model.Session) {
	body, buttons := optionsMenu(*s.SelectedVehicle, s.VehicleCount())
	m.sendButtons(ctx, s, body, buttons)
}
