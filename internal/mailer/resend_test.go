package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonprofit-edge/evaluation-api/pkg/config"
)

func newTestMailer(url string) *ResendMailer {
	return NewResendMailer(config.MailerConfig{
		APIBaseURL:  url,
		APIKey:      "re_test_key",
		SendTimeout: 2 * time.Second,
	})
}

func TestResendSend(t *testing.T) {
	var captured resendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-123"}`))
	}))
	defer server.Close()

	id, err := newTestMailer(server.URL).Send(context.Background(), Message{
		From:    "Board Tools <noreply@example.org>",
		To:      []string{"one@example.org"},
		Subject: "CEO Evaluation Request",
		HTML:    "<p>Hello</p>",
		ReplyTo: "admin@example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, "msg-123", id)
	assert.Equal(t, []string{"one@example.org"}, captured.To)
	assert.Equal(t, "CEO Evaluation Request", captured.Subject)
	assert.Equal(t, "admin@example.org", captured.ReplyTo)
}

func TestResendSendEncodesAttachments(t *testing.T) {
	var captured resendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"msg-123"}`))
	}))
	defer server.Close()

	_, err := newTestMailer(server.URL).Send(context.Background(), Message{
		From:    "noreply@example.org",
		To:      []string{"admin@example.org"},
		Subject: "Report",
		HTML:    "<p>Attached</p>",
		Attachments: []Attachment{
			{Filename: "report.pdf", Content: []byte("%PDF-1.4 fake")},
		},
	})
	require.NoError(t, err)

	require.Len(t, captured.Attachments, 1)
	assert.Equal(t, "report.pdf", captured.Attachments[0].Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake")), captured.Attachments[0].Content)
}

func TestResendSendProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	_, err := newTestMailer(server.URL).Send(context.Background(), Message{
		From: "bad", To: []string{"one@example.org"}, Subject: "x", HTML: "y",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")
	assert.Contains(t, err.Error(), "422")
}

func TestResendSendUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestMailer(server.URL).Send(context.Background(), Message{
		From: "noreply@example.org", To: []string{"one@example.org"}, Subject: "x", HTML: "y",
	})
	require.Error(t, err)
}
