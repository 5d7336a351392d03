package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

type WhatsAppConfig struct {
	APIURL        string
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
}

// WhatsAppService delivers replies through the WhatsApp Cloud API.
// It does not retry; a failed send is reported to the caller once.
type WhatsAppService struct {
	client  *http.Client
	cfg     WhatsAppConfig
	metrics *observability.Metrics
}

func NewWhatsAppService(cfg WhatsAppConfig, metrics *observability.Metrics) *WhatsAppService {
	return &WhatsAppService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:     cfg,
		metrics: metrics,
	}
}

func (s *WhatsAppService) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.cfg.APIURL, "/"), s.cfg.PhoneNumberID)
}

func (s *WhatsAppService) SendText(ctx context.Context, phone, text string) error {
	return s.send(ctx, waMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             &waText{Body: text},
	})
}

func (s *WhatsAppService) SendButtons(ctx context.Context, phone, body string, buttons []model.Button) error {
	if len(buttons) > waMaxButtons {
		buttons = buttons[:waMaxButtons]
	}

	formatted := make([]waButton, 0, len(buttons))
	for _, b := range buttons {
		formatted = append(formatted, waButton{
			Type:  "reply",
			Reply: waReply{ID: b.ID, Title: truncate(b.Title, waMaxButtonTitle)},
		})
	}

	return s.send(ctx, waMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "interactive",
		Interactive: &waInteractive{
			Type:   "button",
			Body:   waText{Body: truncate(body, waMaxBody)},
			Action: waAction{Buttons: formatted},
		},
	})
}

func (s *WhatsAppService) SendList(ctx context.Context, phone, body, buttonLabel string, sections []model.ListSection) error {
	formatted := make([]waSection, 0, len(sections))
	for _, section := range sections {
		rows := section.Rows
		if len(rows) > waMaxRows {
			rows = rows[:waMaxRows]
		}

		waRows := make([]waRow, 0, len(rows))
		for _, row := range rows {
			waRows = append(waRows, waRow{
				ID:          truncate(row.ID, waMaxRowID),
				Title:       truncate(row.Title, waMaxRowTitle),
				Description: truncate(row.Description, waMaxRowDescription),
			})
		}
		formatted = append(formatted, waSection{
			Title: truncate(section.Title, waMaxSectionTitle),
			Rows:  waRows,
		})
	}

	return s.send(ctx, waMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "interactive",
		Interactive: &waInteractive{
			Type: "list",
			Body: waText{Body: truncate(body, waMaxBody)},
			Action: waAction{
				Button:   truncate(buttonLabel, waMaxListButton),
				Sections: formatted,
			},
		},
	})
}

func (s *WhatsAppService) send(ctx context.Context, msg waMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.messagesURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	resp, err := s.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("to", util.MaskPhone(msg.To)).
			Dur("elapsed", elapsed).
			Msg("whatsapp send error")
		s.metrics.GatewayError("whatsapp", msg.Type)
		return apperrors.External("whatsapp", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().
			Str("to", util.MaskPhone(msg.To)).
			Int("status", resp.StatusCode).
			Str("response", string(detail)).
			Dur("elapsed", elapsed).
			Msg("whatsapp send failed")
		s.metrics.GatewayError("whatsapp", msg.Type)
		return apperrors.External("whatsapp", fmt.Errorf("send failed with status %d", resp.StatusCode))
	}

	log.Debug().
		Str("to", util.MaskPhone(msg.To)).
		Str("type", msg.Type).
		Dur("elapsed", elapsed).
		Msg("whatsapp message sent")

	return nil
}
