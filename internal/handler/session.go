package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/audit"
	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/repository"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

type SessionService interface {
	Session(ctx context.Context, phone string) (*model.Session, error)
	Remove(ctx context.Context, phone string) error
}

// SessionHandler exposes stored chat sessions to operators.
type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{phone}", h.GetSession)
	r.Delete("/{phone}", h.RemoveSession)

	return r
}

// GET /v1/sessions/{phone}
// Returns the session in its persisted record format.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if !util.IsValidPhone(phone) {
		writeError(w, apperrors.InvalidInput("phone", "must be 8 to 15 digits"))
		return
	}

	session, err := h.sessions.Session(r.Context(), phone)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			log.Error().Err(err).Str("phone", util.MaskPhone(phone)).Msg("failed to load session")
		}
		writeError(w, err)
		return
	}

	record, err := repository.EncodeSession(session)
	if err != nil {
		log.Error().Err(err).Str("phone", util.MaskPhone(phone)).Msg("failed to encode session")
		writeError(w, apperrors.Internal("Failed to encode session"))
		return
	}

	writeJSON(w, http.StatusOK, json.RawMessage(record))
}

// DELETE /v1/sessions/{phone}
func (h *SessionHandler) RemoveSession(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if !util.IsValidPhone(phone) {
		writeError(w, apperrors.InvalidInput("phone", "must be 8 to 15 digits"))
		return
	}

	if err := h.sessions.Remove(r.Context(), phone); err != nil {
		log.Error().Err(err).Str("phone", util.MaskPhone(phone)).Msg("failed to remove session")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:  audit.EventSessionRemoved,
		Phone: util.MaskPhone(phone),
	})

	w.WriteHeader(http.StatusNoContent)
}
