package notifications_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexabank/nexabank_ledger/internal/core/notifications"
)

func TestWebhookSender_SignsAndDelivers(t *testing.T) {
	payload := []byte(`{"transferID":"tr-1"}`)
	secret := "shh"

	var gotBody []byte
	var gotSignature, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Signature")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := notifications.NewWebhookSender(server.URL, secret)
	err := sender.Send(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, payload, gotBody)
	assert.Equal(t, "application/json", gotContentType)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestWebhookSender_UnsignedWithoutSecret(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := notifications.NewWebhookSender(server.URL, "")
	err := sender.Send(context.Background(), []byte("{}"))

	require.NoError(t, err)
	assert.Empty(t, gotSignature)
}

func TestWebhookSender_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := notifications.NewWebhookSender(server.URL, "")
	err := sender.Send(context.Background(), []byte("{}"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
