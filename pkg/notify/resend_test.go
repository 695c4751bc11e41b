package notify_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stocktide/stockwatch/pkg/notify"
)

type capturedResendRequest struct {
	From        string   `json:"from"`
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	HTML        string   `json:"html"`
	Attachments []struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	} `json:"attachments"`
}

func TestResendNotifier_Name(t *testing.T) {
	n := notify.NewResend(notify.ResendConfig{APIKey: "key", From: "alerts@example.com"})
	assert.Equal(t, "resend", n.Name())
}

func TestResendNotifier_Send(t *testing.T) {
	var (
		gotAuth        string
		gotContentType string
		gotPayload     capturedResendRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewResend(notify.ResendConfig{
		APIKey:   "re_test_key",
		From:     "alerts@example.com",
		Endpoint: server.URL,
	})

	err := n.Send(context.Background(), notify.Email{
		To:       []string{"ops@example.com"},
		Subject:  "Inventory Stock Alerts",
		HTMLBody: "<html><body>low stock</body></html>",
		Attachment: notify.Attachment{
			Filename: "inventory_alerts_2026-08-25.csv",
			Data:     []byte("Site,Part Name\nSheffield,Bearing\n"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test_key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "alerts@example.com", gotPayload.From)
	assert.Equal(t, []string{"ops@example.com"}, gotPayload.To)
	assert.Equal(t, "Inventory Stock Alerts", gotPayload.Subject)
	assert.Contains(t, gotPayload.HTML, "low stock")

	require.Len(t, gotPayload.Attachments, 1)
	assert.Equal(t, "inventory_alerts_2026-08-25.csv", gotPayload.Attachments[0].Filename)
	decoded, err := base64.StdEncoding.DecodeString(gotPayload.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "Site,Part Name\nSheffield,Bearing\n", string(decoded))
}

func TestResendNotifier_Send_NoAttachment(t *testing.T) {
	var gotPayload capturedResendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewResend(notify.ResendConfig{APIKey: "key", From: "alerts@example.com", Endpoint: server.URL})
	err := n.Send(context.Background(), notify.Email{
		To:       []string{"ops@example.com"},
		Subject:  "Inventory Stock Alerts",
		HTMLBody: "<html></html>",
	})
	require.NoError(t, err)
	assert.Empty(t, gotPayload.Attachments)
}

func TestResendNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := notify.NewResend(notify.ResendConfig{APIKey: "key", From: "alerts@example.com", Endpoint: server.URL})
	err := n.Send(context.Background(), notify.Email{To: []string{"ops@example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
