package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stolik/internal/config"

	"github.com/rs/zerolog"
)

// SMSSender posts messages to an SMS gateway. A missing API key
// turns it into a configured no-op so deployments without a gateway
// still run.
type SMSSender struct {
	url    string
	apiKey string
	client *http.Client
	logger *zerolog.Logger
}

func NewSMSSender(cfg config.NotificationsConfig, logger *zerolog.Logger) *SMSSender {
	timeout := 15 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	return &SMSSender{
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *SMSSender) Send(ctx context.Context, recipient, message string) error {
	if s.apiKey == "" {
		s.logger.Warn().Msg("sms api key is not set, skipping notification")
		return nil
	}

	body, err := json.Marshal(smsRequest{To: recipient, Message: message})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
