package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nonprofit-edge/evaluation-api/pkg/config"
)

// ResendMailer sends messages through the Resend HTTP API.
type ResendMailer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewResendMailer constructs a Resend-backed sender.
func NewResendMailer(cfg config.MailerConfig) *ResendMailer {
	return &ResendMailer{
		baseURL: cfg.APIBaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.SendTimeout},
	}
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	ReplyTo     string             `json:"reply_to,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts the message to the provider and returns its delivery ID.
func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	payload := resendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	for _, att := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename: att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read email response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("decode email response: %w", err)
	}

	if resp.StatusCode >= 300 {
		if parsed.Message != "" {
			return "", fmt.Errorf("email provider rejected send (%d): %s", resp.StatusCode, parsed.Message)
		}
		return "", fmt.Errorf("email provider rejected send (%d)", resp.StatusCode)
	}

	return parsed.ID, nil
}
