package llm

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"orderpulse/internal/domain/weather"
)

// buildPrompt produces the generation prompt for one weather reading.
// A random seed and timestamp are injected so back-to-back calls for
// identical weather still drift toward fresh wording.
func buildPrompt(info weather.Info) string {
	themes := []string{"romantic", "dramatic", "playful", "nostalgic", "filmy"}
	foods := []string{"pakora", "chai", "samosa", "jalebi", "maggi"}
	if info.IsRainy {
		themes = []string{"monsoon romance", "rain dance", "filmy barish"}
		foods = []string{"garam pakora", "adrak wali chai", "bhutta"}
	}

	theme := themes[rand.Intn(len(themes))]
	food := foods[rand.Intn(len(foods))]

	var b strings.Builder
	fmt.Fprintf(&b, "You write short push notifications for a food delivery app in %s.\n", info.City)
	fmt.Fprintf(&b, "Current weather: %s (%s), %.1f°C, humidity %d%%.\n",
		info.Main, info.Description, info.Temperature, info.Humidity)
	fmt.Fprintf(&b, "Write one Bollywood-style notification in Hindi (Devanagari), theme: %s, mention %s.\n", theme, food)
	b.WriteString("Keep the title under 40 characters and the body under 120 characters.\n")
	b.WriteString(`Respond with ONLY a JSON object: {"title": "...", "body": "..."}` + "\n")
	fmt.Fprintf(&b, "Variation seed: %d-%d", rand.Intn(100000), time.Now().UnixNano())

	return b.String()
}

// parseNotification extracts the {title, body} object from model output,
// tolerating text or code fences around the JSON.
func parseNotification(raw string) (weather.Notification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return weather.Notification{}, fmt.Errorf("no JSON object in model output")
	}

	var n weather.Notification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &n); err != nil {
		return weather.Notification{}, fmt.Errorf("parsing model output: %w", err)
	}
	if n.Title == "" || n.Body == "" {
		return weather.Notification{}, fmt.Errorf("model output missing title or body")
	}
	return n, nil
}
