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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

var _ weather.TextGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator produces notification text with the Gemini API.
type GeminiGenerator struct {
	keys       weather.KeyStore
	baseURL    string
	httpClient *http.Client
}

// NewGeminiGenerator creates a new Gemini text generator.
func NewGeminiGenerator(keys weather.KeyStore) *GeminiGenerator {
	return &GeminiGenerator{
		keys:       keys,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the provider name used in requests and config.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate asks the model for one notification for the given weather.
func (g *GeminiGenerator) Generate(ctx context.Context, info weather.Info) (weather.Notification, error) {
	apiKey, err := g.keys.Get(ctx, "gemini")
	if err != nil {
		return weather.Notification{}, err
	}
	if apiKey == "" {
		return weather.Notification{}, common.NewNotConfiguredError("gemini")
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": buildPrompt(info)}}},
		},
		"generationConfig": map[string]any{
			"temperature": 1.0,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return weather.Notification{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := g.baseURL + "?key=" + apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return weather.Notification{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return weather.Notification{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return weather.Notification{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return weather.Notification{}, common.NewCredentialExpiredError("gemini")
	}
	if resp.StatusCode >= 400 {
		return weather.Notification{}, fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return weather.Notification{}, fmt.Errorf("parsing gemini response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return weather.Notification{}, fmt.Errorf("gemini: empty response")
	}

	return parseNotification(result.Candidates[0].Content.Parts[0].Text)
}
