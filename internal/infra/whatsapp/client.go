package whatsapp

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

const defaultBaseURL = "https://graph.facebook.com/v18.0"

var _ notify.ChatTransport = (*Client)(nil)

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a new WhatsApp Cloud API client.
func NewClient(accessToken, phoneNumberID string) *Client {
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

// SendTemplate posts a pre-approved template message.
func (c *Client) SendTemplate(ctx context.Context, to string, msg notify.TemplateMessage) error {
	params := make([]map[string]string, len(msg.Parameters))
	for i, p := range msg.Parameters {
		params[i] = map[string]string{"type": "text", "text": p}
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     msg.Name,
			"language": map[string]string{"code": msg.Language},
			"components": []map[string]any{
				{"type": "body", "parameters": params},
			},
		},
	}

	return c.post(ctx, payload)
}

// SendText posts a free-form text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}

	return c.post(ctx, payload)
}

// post executes one messages API call, translating a 401-class response
// into the distinct expired-credential error.
func (c *Client) post(ctx context.Context, payload map[string]any) error {
	if !c.Configured() {
		return common.NewNotConfiguredError("whatsapp")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

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
		return common.NewCredentialExpiredError("whatsapp")
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		msg := errResp.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("whatsapp API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("whatsapp: %s", msg)
	}

	return nil
}
