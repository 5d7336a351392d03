package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/config"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

// CredentialFlow handles an UNAUTHENTICATED message once phone-based
// authentication has not signed the sender in.
type CredentialFlow interface {
	Name() string
	Unauthenticated(ctx context.Context, m *Machine, s *model.Session, msg Message)
}

func NewCredentialFlow(name string) (CredentialFlow, error) {
	switch name {
	case config.AuthFlowPrompt, "":
		return PromptFlow{}, nil
	case config.AuthFlowInline:
		return InlineFlow{}, nil
	case config.AuthFlowBoth:
		return BothFlow{}, nil
	default:
		return nil, fmt.Errorf("unknown credential flow %q", name)
	}
}

// PromptFlow asks for a document number, then for the password in a
// separate message (WAITING_PASSWORD).
type PromptFlow struct{}

func (PromptFlow) Name() string { return config.AuthFlowPrompt }

func (PromptFlow) Unauthenticated(ctx context.Context, m *Machine, s *model.Session, msg Message) {
	text := strings.TrimSpace(msg.Text)
	if !util.LooksLikeDocument(text) {
		m.sendText(ctx, s, msgWelcome)
		return
	}

	s.State = model.StateWaitingPassword
	s.PendingIdentifier = &text
	log.Info().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("identifier received, waiting for password")
	m.sendText(ctx, s, msgAskPassword)
}

// InlineFlow accepts "IDENTIFIER,PASSWORD" in a single message.
type InlineFlow struct{}

func (InlineFlow) Name() string { return config.AuthFlowInline }

func (InlineFlow) Unauthenticated(ctx context.Context, m *Machine, s *model.Session, msg Message) {
	identifier, password, ok := splitCredentials(msg.Text)
	if !ok {
		m.sendText(ctx, s, msgInlineWelcome)
		return
	}

	identity, err := m.authenticateByCredentials(ctx, s, identifier, password)
	if err != nil {
		m.sendText(ctx, s, msgTemporaryFailure)
		return
	}
	if !hasVehicles(identity) {
		m.sendText(ctx, s, msgInlineInvalid)
		return
	}
	m.signIn(ctx, s, identity)
}

// BothFlow uses the inline variant when the message carries a comma and the
// prompt variant otherwise.
type BothFlow struct{}

func (BothFlow) Name() string { return config.AuthFlowBoth }

func (BothFlow) Unauthenticated(ctx context.Context, m *Machine, s *model.Session, msg Message) {
	if strings.Contains(msg.Text, ",") {
		InlineFlow{}.Unauthenticated(ctx, m, s, msg)
		return
	}
	PromptFlow{}.Unauthenticated(ctx, m, s, msg)
}

func splitCredentials(text string) (identifier, password string, ok bool) {
	identifier, password, found := strings.Cut(text, ",")
	if !found {
		return "", "", false
	}
	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)
	if identifier == "" || password == "" {
		return "", "", false
	}
	return identifier, password, true
}

func hasVehicles(identity *model.Identity) bool {
	return identity != nil && len(identity.Vehicles) > 0
}

func (m *Machine) handleUnauthenticated(ctx context.Context, s *model.Session, msg Message) {
	if m.cfg.SharedSecret != "" {
		phone := util.StripPhonePrefix(s.PhoneNumber, m.cfg.PhonePrefixLength)

		gctx, cancel := m.gatewayContext(ctx)
		identity, err := m.auth.AuthenticateByPhone(gctx, phone, m.cfg.SharedSecret)
		cancel()

		if err != nil {
			log.Error().Err(err).Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("phone authentication failed")
			m.sendText(ctx, s, msgTemporaryFailure)
			return
		}
		if hasVehicles(identity) {
			m.signIn(ctx, s, identity)
			return
		}
	}

	m.flow.Unauthenticated(ctx, m, s, msg)
}

func (m *Machine) handleWaitingPassword(ctx context.Context, s *model.Session, msg Message) {
	if s.PendingIdentifier == nil || *s.PendingIdentifier == "" {
		log.Error().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("waiting for password without identifier, resetting")
		s.Clear()
		m.sendText(ctx, s, msgWelcome)
		return
	}

	identity, err := m.authenticateByCredentials(ctx, s, *s.PendingIdentifier, strings.TrimSpace(msg.Text))
	if err != nil {
		m.sendText(ctx, s, msgTemporaryFailure)
		return
	}
	if !hasVehicles(identity) {
		log.Warn().Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("invalid credentials or no vehicles")
		s.Clear()
		m.sendText(ctx, s, msgInvalidCredentials)
		return
	}
	m.signIn(ctx, s, identity)
}

func (m *Machine) authenticateByCredentials(ctx context.Context, s *model.Session, identifier, password string) (*model.Identity, error) {
	gctx, cancel := m.gatewayContext(ctx)
	defer cancel()

	identity, err := m.auth.AuthenticateByCredentials(gctx, identifier, password)
	if err != nil {
		log.Error().Err(err).Str("phone", util.MaskPhone(s.PhoneNumber)).Msg("credential authentication failed")
		return nil, err
	}
	return identity, nil
}
