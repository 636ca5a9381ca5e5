package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/weather"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

var _ weather.Client = (*OpenWeatherClient)(nil)

// OpenWeatherClient fetches current conditions from OpenWeatherMap.
// The API key is read from the key store on every call so a rotated
// key takes effect without a restart.
type OpenWeatherClient struct {
	keys       weather.KeyStore
	baseURL    string
	httpClient *http.Client
}

// NewOpenWeatherClient creates a new OpenWeatherMap client.
func NewOpenWeatherClient(keys weather.KeyStore) *OpenWeatherClient {
	return &OpenWeatherClient{
		keys:       keys,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the current weather for a city, in metric units.
func (c *OpenWeatherClient) Current(ctx context.Context, city string) (weather.Info, error) {
	apiKey, err := c.keys.Get(ctx, "openweather")
	if err != nil {
		return weather.Info{}, err
	}
	if apiKey == "" {
		return weather.Info{}, common.NewNotConfiguredError("openweather")
	}

	reqURL := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(city), url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return weather.Info{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.Info{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return weather.Info{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return weather.Info{}, common.NewCredentialExpiredError("openweather")
	}
	if resp.StatusCode >= 400 {
		return weather.Info{}, fmt.Errorf("openweather: status %d for city %q", resp.StatusCode, city)
	}

	var result struct {
		Name string `json:"name"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return weather.Info{}, fmt.Errorf("parsing weather response: %w", err)
	}

	info := weather.Info{
		City:        result.Name,
		Temperature: result.Main.Temp,
		Humidity:    result.Main.Humidity,
	}
	if info.City == "" {
		info.City = city
	}
	if len(result.Weather) > 0 {
		info.Main = result.Weather[0].Main
		info.Description = result.Weather[0].Description
		info.Icon = result.Weather[0].Icon
	}
	info.IsRainy = isRainy(info.Main, info.Description)

	return info, nil
}

func isRainy(main, description string) bool {
	m := strings.ToLower(main)
	d := strings.ToLower(description)
	return strings.Contains(m, "rain") || strings.Contains(d, "rain") || strings.Contains(m, "drizzle")
}
