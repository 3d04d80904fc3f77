package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stolik/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSSenderPostsToGateway(t *testing.T) {
	var got smsRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	sender := NewSMSSender(config.NotificationsConfig{
		Enabled:    true,
		GatewayURL: srv.URL,
		APIKey:     "test-key",
	}, &logger)

	err := sender.Send(context.Background(), "+15550101", "Your table 5 is booked.")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "+15550101", got.To)
	assert.Equal(t, "Your table 5 is booked.", got.Message)
}

func TestSMSSenderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	sender := NewSMSSender(config.NotificationsConfig{GatewayURL: srv.URL, APIKey: "test-key"}, &logger)

	err := sender.Send(context.Background(), "+15550101", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSMSSenderWithoutAPIKeyIsNoop(t *testing.T) {
	logger := zerolog.Nop()
	sender := NewSMSSender(config.NotificationsConfig{GatewayURL: "http://unreachable.invalid"}, &logger)
	assert.NoError(t, sender.Send(context.Background(), "+15550101", "hello"))
}
