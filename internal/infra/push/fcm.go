package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/notify"
)

const defaultEndpoint = "https://fcm.googleapis.com/fcm/send"

var _ notify.PushTransport = (*FCMClient)(nil)

// FCMClient delivers push notifications through the FCM HTTP API,
// one token per request so failures stay per-token.
type FCMClient struct {
	serverKey  string
	endpoint   string
	httpClient *http.Client
}

// NewFCMClient creates a new FCM push client.
func NewFCMClient(serverKey string) *FCMClient {
	return &FCMClient{
		serverKey:  serverKey,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether the push service has an active credential.
func (c *FCMClient) Configured() bool {
	return c.serverKey != ""
}

// Send delivers {title, body} plus a data payload to one device token.
// Invalid or unregistered tokens surface as notify.ErrUnregisteredToken.
func (c *FCMClient) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if !c.Configured() {
		return common.NewNotConfiguredError("fcm")
	}

	payload := map[string]any{
		"to": token,
		"notification": map[string]string{
			"title": title,
			"body":  body,
		},
		"data": data,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return common.NewCredentialExpiredError("fcm")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fcm: status %d", resp.StatusCode)
	}

	var result struct {
		Success int `json:"success"`
		Failure int `json:"failure"`
		Results []struct {
			MessageID string `json:"message_id"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parsing fcm response: %w", err)
	}

	if result.Failure > 0 && len(result.Results) > 0 {
		code := result.Results[0].Error
		switch code {
		case "NotRegistered", "InvalidRegistration", "MissingRegistration":
			return fmt.Errorf("fcm: %s: %w", code, notify.ErrUnregisteredToken)
		default:
			return fmt.Errorf("fcm: %s", code)
		}
	}

	return nil
}
