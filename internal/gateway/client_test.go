// internal/gateway/client_test.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/config"
)

func testSettings(url string) config.GatewaySettings {
	return config.GatewaySettings{URL: url, APIKey: "secret", Instance: "main"}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(testSettings(srv.URL), 5*time.Second, nil)
	c.http = srv.Client()
	return c
}

func TestSendTextSuccess(t *testing.T) {
	var gotPath, gotKey string
	var gotBody sendTextRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"key":{"id":"ack-1"}}`))
	})

	res, err := client.SendText(context.Background(), "5511999999999@c.us", "hello")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "/message/sendText/main", gotPath)
	require.Equal(t, "secret", gotKey)
	require.Equal(t, "5511999999999@c.us", gotBody.Number)
	require.Equal(t, "hello", gotBody.TextMessage.Text)
}

func TestSendTextGatewayRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"number not on whatsapp"}`))
	})

	_, err := client.SendText(context.Background(), "123@c.us", "hello")
	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	require.Equal(t, http.StatusBadRequest, gatewayErr.StatusCode)
	require.Equal(t, "number not on whatsapp", gatewayErr.Message)
}

func TestSendTextGatewayRejectedUnparsableBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>boom</html>"))
	})

	_, err := client.SendText(context.Background(), "123@c.us", "hello")
	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	require.Equal(t, "API returned status 502", gatewayErr.Message)
}

func TestSendTextConfigurationMissing(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(config.GatewaySettings{URL: srv.URL}, time.Second, nil)
	_, err := client.SendText(context.Background(), "123@c.us", "hello")

	var missing *apperrors.ErrConfigurationMissing
	require.ErrorAs(t, err, &missing)
	require.Contains(t, missing.Missing, "EVOLUTION_API_KEY")
	require.Contains(t, missing.Missing, "EVOLUTION_INSTANCE")
	require.False(t, called, "no network attempt may happen on missing configuration")
}

func TestSendTextNetworkError(t *testing.T) {
	client := NewClient(testSettings("https://127.0.0.1:1"), 500*time.Millisecond, nil)

	_, err := client.SendText(context.Background(), "123@c.us", "hello")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.True(t, errors.Unwrap(netErr) != nil)
}

func TestSendTextURLBuilding(t *testing.T) {
	c := NewClient(config.GatewaySettings{
		URL:      "http://api.example.com/",
		APIKey:   "k",
		Instance: "my instance",
	}, time.Second, nil)

	require.Equal(t, "https://api.example.com/message/sendText/my%20instance", c.sendTextURL())
}
