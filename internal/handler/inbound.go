package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/audit"
	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/middleware"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/redis"
	"github.com/RodrigoCastroMoura/trackerbot/internal/service"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

type MessageProcessor interface {
	Process(ctx context.Context, msg service.InboundMessage) error
}

// InboundHandler accepts messages already normalized by the channel
// adapter and runs them through the conversation pipeline.
type InboundHandler struct {
	processor MessageProcessor
	limiter   middleware.Limiter
	metrics   *observability.Metrics
}

func NewInboundHandler(processor MessageProcessor, limiter middleware.Limiter, metrics *observability.Metrics) *InboundHandler {
	return &InboundHandler{
		processor: processor,
		limiter:   limiter,
		metrics:   metrics,
	}
}

func (h *InboundHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Receive)

	return r
}

type inboundRequest struct {
	ID   string            `json:"id"`
	From string            `json:"from"`
	Text string            `json:"text"`
	Kind model.MessageKind `json:"kind"`
}

// POST /v1/messages
func (h *InboundHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req inboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.InboundRejectedFor("bad_request")
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	req.From = strings.TrimSpace(req.From)
	if req.From == "" {
		h.metrics.InboundRejectedFor("bad_request")
		writeError(w, apperrors.MissingRequired("from"))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx := r.Context()

	if h.limiter != nil {
		allowed, resetAt := h.limiter.Allow(ctx, redis.InboundRateLimitKey(req.From))
		if !allowed {
			h.metrics.InboundRejectedFor("rate_limit")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Phone:   util.MaskPhone(req.From),
				Details: map[string]interface{}{"messageId": req.ID},
			})
			w.Header().Set("Retry-After", fmt.Sprintf("%d", middleware.RetryAfterSeconds(resetAt)))
			writeError(w, apperrors.RateLimitExceeded())
			return
		}
	}

	err := h.processor.Process(ctx, service.InboundMessage{
		ID:   req.ID,
		From: req.From,
		Text: req.Text,
		Kind: req.Kind,
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			h.metrics.InboundRejectedFor("invalid")
		} else {
			log.Error().Err(err).Str("messageId", req.ID).Msg("failed to process inbound message")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     req.ID,
		"status": "processed",
	})
}
