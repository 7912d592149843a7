// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zapdispatch/internal/config"
)

// NetworkError wraps a transport failure (timeout, DNS, refused) so the
// dispatcher never sees a raw *url.Error.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GatewayError is a non-2xx answer from the provider, carrying whatever
// human-readable message could be parsed out of the response body.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected send (status %d): %s", e.StatusCode, e.Message)
}

// SendResult is the provider acknowledgement. The body is kept opaque; the
// dispatcher records success and nothing else.
type SendResult struct {
	StatusCode int
	Body       json.RawMessage
}

// Client delivers a single text message through an Evolution API instance.
// One invocation makes exactly one outbound call; retries are a caller
// decision.
type Client struct {
	settings config.GatewaySettings
	http     *http.Client
	log      *logrus.Entry
}

func NewClient(settings config.GatewaySettings, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		settings: settings,
		http:     &http.Client{Timeout: timeout},
		log:      logger.WithField("component", "gateway"),
	}
}

// VerifySettings reports ConfigurationMissing before any network attempt.
func (c *Client) VerifySettings() error {
	return c.settings.Validate()
}

type sendTextRequest struct {
	Number      string `json:"number"`
	TextMessage struct {
		Text string `json:"text"`
	} `json:"textMessage"`
}

type gatewayErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SendText posts one message to the provider. The recipient must already be
// normalized; SendText does not reshape it.
func (c *Client) SendText(ctx context.Context, number, text string) (*SendResult, error) {
	if err := c.VerifySettings(); err != nil {
		return nil, err
	}
	if number == "" {
		return nil, fmt.Errorf("recipient identifier is empty")
	}
	if text == "" {
		return nil, fmt.Errorf("message text is empty")
	}

	payload := sendTextRequest{Number: number}
	payload.TextMessage.Text = text
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendTextURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.settings.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// Caller cancellation is not a provider problem; let it through as-is.
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Message:    parseGatewayMessage(raw, resp.StatusCode),
		}
	}

	c.log.WithFields(logrus.Fields{"number": number, "status": resp.StatusCode}).Debug("message accepted by gateway")
	return &SendResult{StatusCode: resp.StatusCode, Body: raw}, nil
}

// sendTextURL builds {base}/message/sendText/{instance}. The base URL has
// any trailing slash trimmed and plain http upgraded, matching how the
// provider expects to be called.
func (c *Client) sendTextURL() string {
	base := strings.TrimSuffix(c.settings.URL, "/")
	if strings.HasPrefix(base, "http://") {
		base = "https://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/message/sendText/" + url.PathEscape(c.settings.Instance)
}

func parseGatewayMessage(raw []byte, status int) string {
	var parsed gatewayErrorBody
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if status > 0 {
		return fmt.Sprintf("API returned status %d", status)
	}
	return "unknown API error"
}
