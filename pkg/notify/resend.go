package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

// ResendConfig carries the API settings for the Resend channel. An
// empty Endpoint targets the public API.
type ResendConfig struct {
	APIKey   string
	From     string
	Endpoint string
}

// ResendNotifier delivers report emails through the Resend HTTP API,
// for plants without a reachable SMTP relay.
type ResendNotifier struct {
	cfg    ResendConfig
	client *http.Client
}

// NewResend creates a notifier that posts to the Resend emails API.
func NewResend(cfg ResendConfig) *ResendNotifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultResendEndpoint
	}
	return &ResendNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the notifier type identifier.
func (r *ResendNotifier) Name() string {
	return "resend"
}

// Send posts the message to the Resend emails endpoint. Attachments are
// inlined base64, per the API contract.
func (r *ResendNotifier) Send(ctx context.Context, email Email) error {
	payload := resendPayload{
		From:    r.cfg.From,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTMLBody,
	}
	if email.Attachment.Filename != "" {
		payload.Attachments = []resendAttachment{{
			Filename: email.Attachment.Filename,
			Content:  base64.StdEncoding.EncodeToString(email.Attachment.Data),
		}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}

type resendPayload struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}
