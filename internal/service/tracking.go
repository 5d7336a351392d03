package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
)

var (
	ErrCommandRejected     = errors.New("vehicle command rejected")
	ErrLocationUnavailable = errors.New("vehicle location unavailable")
)

const (
	blockCommand   = "bloquear"
	unblockCommand = "desbloquear"
	notAvailable   = "N/A"
)

type TrackingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// TrackingService sends block commands and location queries to the
// tracking backend over HTTP.
type TrackingService struct {
	client  *http.Client
	cfg     TrackingConfig
	metrics *observability.Metrics
}

func NewTrackingService(cfg TrackingConfig, metrics *observability.Metrics) *TrackingService {
	return &TrackingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:     cfg,
		metrics: metrics,
	}
}

type blockRequest struct {
	Command string `json:"comando"`
}

type locationResponse struct {
	Location *struct {
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		Address   *string `json:"address"`
		Speed     float64 `json:"speed"`
		Timestamp *string `json:"timestamp"`
	} `json:"location"`
}

func (s *TrackingService) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + strings.Join(escaped, "/")
}

func (s *TrackingService) SetBlock(ctx context.Context, vehicleID string, blocked bool) error {
	command := unblockCommand
	if blocked {
		command = blockCommand
	}

	body, err := json.Marshal(blockRequest{Command: command})
	if err != nil {
		return fmt.Errorf("marshal block command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("vehicles", vehicleID, "block"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("vehicle_id", vehicleID).Str("command", command).Msg("block command error")
		s.metrics.GatewayError("tracking", "set_block")
		return apperrors.External("tracking", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Str("vehicle_id", vehicleID).
			Str("command", command).
			Int("status", resp.StatusCode).
			Msg("block command rejected")
		s.metrics.GatewayError("tracking", "set_block")
		return apperrors.CommandRejected(vehicleID).
			WithCause(fmt.Errorf("%w: status %d", ErrCommandRejected, resp.StatusCode))
	}

	log.Info().
		Str("vehicle_id", vehicleID).
		Str("command", command).
		Dur("elapsed", time.Since(start)).
		Msg("block command sent")
	return nil
}

func (s *TrackingService) Location(ctx context.Context, vehicleID string) (*model.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("tracking", "vehicles", vehicleID, "location"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("vehicle_id", vehicleID).Msg("location request error")
		s.metrics.GatewayError("tracking", "location")
		return nil, apperrors.External("tracking", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Str("vehicle_id", vehicleID).Int("status", resp.StatusCode).Msg("location request failed")
		s.metrics.GatewayError("tracking", "location")
		return nil, apperrors.LocationUnavailable(vehicleID).
			WithCause(fmt.Errorf("%w: status %d", ErrLocationUnavailable, resp.StatusCode))
	}

	var payload locationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.metrics.GatewayError("tracking", "location")
		return nil, apperrors.LocationUnavailable(vehicleID).
			WithCause(fmt.Errorf("%w: decode response: %v", ErrLocationUnavailable, err))
	}
	if payload.Location == nil {
		return nil, apperrors.LocationUnavailable(vehicleID).WithCause(ErrLocationUnavailable)
	}

	loc := &model.Location{
		Lat:        payload.Location.Lat,
		Lng:        payload.Location.Lng,
		Speed:      payload.Location.Speed,
		Address:    notAvailable,
		LastUpdate: notAvailable,
	}
	if payload.Location.Address != nil && *payload.Location.Address != "" {
		loc.Address = *payload.Location.Address
	}
	if payload.Location.Timestamp != nil && *payload.Location.Timestamp != "" {
		loc.LastUpdate = *payload.Location.Timestamp
	}
	return loc, nil
}

func (s *TrackingService) authorize(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
}
