package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

// Authenticator resolves a sender to an identity. A nil identity with a nil
// error means the credentials were rejected; an error means the backend
// could not answer.
type Authenticator interface {
	AuthenticateByPhone(ctx context.Context, phone, sharedSecret string) (*model.Identity, error)
	AuthenticateByCredentials(ctx context.Context, identifier, password string) (*model.Identity, error)
}

type VehicleCommander interface {
	Location(ctx context.Context, vehicleID string) (*model.Location, error)
	SetBlock(ctx context.Context, vehicleID string, blocked bool) error
}

type Sender interface {
	SendText(ctx context.Context, phone, text string) error
	SendButtons(ctx context.Context, phone, body string, buttons []model.Button) error
	SendList(ctx context.Context, phone, body, buttonLabel string, sections []model.ListSection) error
}

type Message struct {
	Text string
	Kind model.MessageKind
}

type Config struct {
	SharedSecret      string
	PhonePrefixLength int
	GatewayTimeout    time.Duration
}

// Machine decides the next state of a session for one inbound message.
// It holds no per-session data; the caller owns the session for the call.
type Machine struct {
	auth     Authenticator
	vehicles VehicleCommander
	out      Sender
	flow     CredentialFlow
	cfg      Config
}

func NewMachine(auth Authenticator, vehicles VehicleCommander, out Sender, flow CredentialFlow, cfg Config) *Machine {
	if flow == nil {
		flow = PromptFlow{}
	}
	return &Machine{
		auth:     auth,
		vehicles: vehicles,
		out:      out,
		flow:     flow,
		cfg:      cfg,
	}
}

func (m *Machine) Handle(ctx context.Context, s *model.Session, msg Message) {
	if msg.Kind == "" {
		msg.Kind = model.MessageKindText
	}

	// Exit resets from every known state, including before sign-in.
	if s.State.IsValid() && parseAction(msg.Text) == ActionExit {
		m.reset(ctx, s)
		return
	}

	switch s.State {
	case model.StateUnauthenticated:
		m.handleUnauthenticated(ctx, s, msg)
	case model.StateWaitingPassword:
		m.handleWaitingPassword(ctx, s, msg)
	case model.StateAuthenticated:
		m.handleAuthenticated(ctx, s, msg)
	case model.StateVehicleSelected:
		m.handleVehicleSelected(ctx, s, msg)
	default:
		log.Error().
			Str("phone", util.MaskPhone(s.PhoneNumber)).
			Str("state", string(s.State)).
			Msg("unknown session state, resetting")
		s.Clear()
		m.sendText(ctx, s, msgUnknownState)
		return
	}

	if err := s.Validate(); err != nil {
		log.Error().Err(err).
			Str("phone", util.MaskPhone(s.PhoneNumber)).
			Msg("session invariant violated after transition, healing")
		m.heal(ctx, s)
	}
}

// heal repairs a session that violates its field invariants. Sessions with a
// usable identity go back to the vehicle list; anything else is reset.
func (m *Machine) heal(ctx context.Context, s *model.Session) {
	if s.User != nil && len(s.User.Vehicles) > 0 {
		s.PendingIdentifier = nil
		s.State = model.StateAuthenticated
		m.showVehicles(ctx, s)
		return
	}
	s.Clear()
	m.sendText(ctx, s, msgUnknownState)
}

func (m *Machine) reset(ctx context.Context, s *model.Session) {
	log.Info().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("session reset")
	s.Clear()
	m.sendText(ctx, s, msgFarewell)
}

func (m *Machine) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.GatewayTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.cfg.GatewayTimeout)
}

// signIn stores a freshly authenticated identity and shows the vehicle
// selection prompt. Identities without vehicles never reach this point.
func (m *Machine) signIn(ctx context.Context, s *model.Session, identity *model.Identity) {
	identity.GreetingShown = false
	s.User = identity
	s.PendingIdentifier = nil
	s.SelectedVehicle = nil
	s.State = model.StateAuthenticated

	log.Info().
		Str("phone", util.MaskPhone(s.PhoneNumber)).
		Str("customer_id", identity.ID).
		Int("vehicles", len(identity.Vehicles)).
		Msg("user authenticated")

	m.showVehicles(ctx, s)
}

func (m *Machine) sendText(ctx context.Context, s *model.Session, text string) {
	if err := m.out.SendText(ctx, s.PhoneNumber, text); err != nil {
		log.Warn().Err(err).Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("failed to send text")
	}
}

func (m *Machine) sendButtons(ctx context.Context, s *model.Session, body string, buttons []model.Button) {
	if len(buttons) > model.MaxButtons {
		log.Error().Int("buttons", len(buttons)).Str("state", string(s.State)).Msg("button menu over channel limit, truncating")
		buttons = buttons[:model.MaxButtons]
	}
	if err := m.out.SendButtons(ctx, s.PhoneNumber, body, buttons); err != nil {
		log.Warn().Err(err).Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("failed to send buttons")
	}
}

func (m *Machine) sendList(ctx context.Context, s *model.Session, body, label string, sections []model.ListSection) {
	if err := m.out.SendList(ctx, s.PhoneNumber, body, label, sections); err != nil {
		log.Warn().Err(err).Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("failed to send list")
	}
}
