package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/weather"
)

const openaiBaseURL = "https://api.openai.com/v1/chat/completions"

var _ weather.TextGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator produces notification text with the OpenAI chat API.
type OpenAIGenerator struct {
	keys       weather.KeyStore
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIGenerator creates a new OpenAI text generator.
func NewOpenAIGenerator(keys weather.KeyStore) *OpenAIGenerator {
	return &OpenAIGenerator{
		keys:       keys,
		baseURL:    openaiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the provider name used in requests and config.
func (g *OpenAIGenerator) Name() string { return "openai" }

// Generate asks the model for one notification for the given weather.
func (g *OpenAIGenerator) Generate(ctx context.Context, info weather.Info) (weather.Notification, error) {
	apiKey, err := g.keys.Get(ctx, "openai")
	if err != nil {
		return weather.Notification{}, err
	}
	if apiKey == "" {
		return weather.Notification{}, common.NewNotConfiguredError("openai")
	}

	payload := map[string]any{
		"model": "gpt-3.5-turbo",
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(info)},
		},
		"temperature": 1.0,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return weather.Notification{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return weather.Notification{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return weather.Notification{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return weather.Notification{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return weather.Notification{}, common.NewCredentialExpiredError("openai")
	}
	if resp.StatusCode >= 400 {
		return weather.Notification{}, fmt.Errorf("openai: status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return weather.Notification{}, fmt.Errorf("parsing openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return weather.Notification{}, fmt.Errorf("openai: empty response")
	}

	return parseNotification(result.Choices[0].Message.Content)
}
