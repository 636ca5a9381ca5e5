package weather

import (
	"context"
	"fmt"
	"log/slog"

	"orderpulse/internal/common"
)

// maxRegenerations caps how often a duplicate notification is retried
// before the last candidate is accepted anyway. The original behavior
// of regenerating unboundedly can loop forever against a generator
// that has converged.
const maxRegenerations = 3

// Result is a generated weather notification with its source data.
type Result struct {
	WeatherInfo  Info         `json:"weatherInfo"`
	Notification Notification `json:"notification"`
	Provider     string       `json:"provider"`
}

// Generator produces weather-driven notification texts. It fetches
// current weather, runs the selected text provider, and deduplicates
// against a bounded history of prior outputs.
type Generator struct {
	client    Client
	providers map[string]TextGenerator
	history   *History
}

// NewGenerator creates a generator over the given providers.
func NewGenerator(client Client, history *History, providers ...TextGenerator) *Generator {
	pm := make(map[string]TextGenerator, len(providers))
	for _, p := range providers {
		pm[p.Name()] = p
	}
	return &Generator{
		client:    client,
		providers: pm,
		history:   history,
	}
}

// Message fetches the weather for a city and generates a fresh
// notification with the named provider, regenerating on a history
// collision.
func (g *Generator) Message(ctx context.Context, city, provider string) (*Result, error) {
	gen, ok := g.providers[provider]
	if !ok {
		return nil, common.NewValidationError(fmt.Sprintf("unknown text provider: %s", provider))
	}

	info, err := g.client.Current(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("fetching weather for %s: %w", city, err)
	}

	var notif Notification
	for attempt := 1; ; attempt++ {
		notif, err = gen.Generate(ctx, info)
		if err != nil {
			return nil, fmt.Errorf("generating notification with %s: %w", provider, err)
		}

		if !g.history.Seen(notif) {
			break
		}
		if attempt >= maxRegenerations {
			slog.Warn("accepting duplicate notification after regeneration cap",
				"provider", provider,
				"attempts", attempt,
			)
			break
		}
		slog.Info("duplicate notification, regenerating", "provider", provider, "attempt", attempt)
	}

	g.history.Add(notif)

	slog.Info("weather notification generated",
		"city", info.City,
		"description", info.Description,
		"rainy", info.IsRainy,
		"provider", provider,
		"title", notif.Title,
	)

	return &Result{WeatherInfo: info, Notification: notif, Provider: provider}, nil
}
