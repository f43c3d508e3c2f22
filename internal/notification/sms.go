package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SMSSender delivers one text message to one phone number
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message, senderID string) error
}

// HTTPSender posts messages to an SMS gateway's JSON API
type HTTPSender struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewHTTPSender creates a gateway-backed sender
func NewHTTPSender(apiURL, apiKey string) *HTTPSender {
	return &HTTPSender{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	From    string `json:"from,omitempty"`
}

// SendSMS posts the message to the gateway and treats any non-2xx response
// as a delivery failure.
func (s *HTTPSender) SendSMS(ctx context.Context, phone, message, senderID string) error {
	body, err := json.Marshal(smsPayload{To: phone, Message: message, From: senderID})
	if err != nil {
		return fmt.Errorf("failed to encode SMS payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender is the dev fallback used when no gateway is configured; it only
// logs the message.
type LogSender struct{}

// SendSMS logs the message instead of delivering it
func (LogSender) SendSMS(_ context.Context, phone, message, senderID string) error {
	log.Printf("[SMS] (dry-run) to=%s from=%s: %s", phone, senderID, message)
	return nil
}
