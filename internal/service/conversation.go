package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/bot"
	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/repository"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

// InboundMessage is a message already normalized by the channel adapter.
type InboundMessage struct {
	ID   string
	From string
	Text string
	Kind model.MessageKind
}

// MessageHandler advances a session by one inbound message.
type MessageHandler interface {
	Handle(ctx context.Context, s *model.Session, msg bot.Message)
}

// ConversationService runs the per-message pipeline: load the sender's
// session, let the state machine act on it, and persist the result.
type ConversationService struct {
	sessions repository.SessionRepository
	handler  MessageHandler
	locks    *repository.KeyedMutex
	metrics  *observability.Metrics
}

func NewConversationService(
	sessions repository.SessionRepository,
	handler MessageHandler,
	metrics *observability.Metrics,
) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		handler:  handler,
		locks:    repository.NewKeyedMutex(),
		metrics:  metrics,
	}
}

// Process handles one inbound message. Messages from the same sender are
// handled one at a time, in arrival order of the lock.
func (s *ConversationService) Process(ctx context.Context, msg InboundMessage) error {
	phone := strings.TrimSpace(msg.From)
	if phone == "" {
		return apperrors.MissingRequired("from")
	}
	if !util.IsValidPhone(phone) {
		return apperrors.InvalidInput("from", "must be 8 to 15 digits")
	}
	kind := msg.Kind
	if kind == "" {
		kind = model.MessageKindText
	}
	if !kind.IsValid() {
		return apperrors.InvalidInput("kind", "must be text or selection")
	}

	// The reply must go out even if the caller hangs up mid-turn.
	ctx = context.WithoutCancel(ctx)

	unlock := s.locks.Lock(phone)
	defer unlock()

	start := time.Now()

	session := s.sessions.GetOrCreate(ctx, phone)
	from := session.State

	s.handler.Handle(ctx, session, bot.Message{Text: msg.Text, Kind: kind})

	s.metrics.ObserveTransition(string(from), string(session.State))

	if err := s.sessions.Save(ctx, session); err != nil {
		log.Error().
			Err(err).
			Str("phone", util.MaskPhone(phone)).
			Str("messageId", msg.ID).
			Str("state", string(session.State)).
			Msg("failed to persist session")
	}

	s.metrics.ObserveMessage(string(from), string(kind), time.Since(start))

	log.Debug().
		Str("phone", util.MaskPhone(phone)).
		Str("messageId", msg.ID).
		Str("from", string(from)).
		Str("to", string(session.State)).
		Msg("message handled")

	return nil
}

// Session returns the stored session for phone without creating one.
func (s *ConversationService) Session(ctx context.Context, phone string) (*model.Session, error) {
	session, err := s.sessions.Get(ctx, phone)
	if err != nil {
		return nil, apperrors.SessionStore(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("session")
	}
	return session, nil
}

// Remove forgets the session for phone. It waits for any in-flight message
// from the same sender.
func (s *ConversationService) Remove(ctx context.Context, phone string) error {
	unlock := s.locks.Lock(phone)
	defer unlock()

	if err := s.sessions.Remove(ctx, phone); err != nil {
		return apperrors.SessionStore(err)
	}
	return nil
}

// Backend names the session store in use.
func (s *ConversationService) Backend() string {
	return s.sessions.Backend()
}
