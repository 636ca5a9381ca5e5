package weather

import (
	"context"
	"fmt"
	"log/slog"
)

// PushDispatcher abstracts the push side of the workflow: resolve every
// known device token, then deliver to all of them.
type PushDispatcher interface {
	// CollectPushTokens returns the deduplicated device token set.
	CollectPushTokens(ctx context.Context) ([]string, error)

	// PushToTokens delivers {title, body} to each token independently
	// and reports how many sends succeeded and failed.
	PushToTokens(ctx context.Context, tokens []string, title, body string) (successful, failed int, err error)
}

// RunReport describes one completed workflow run.
type RunReport struct {
	WeatherInfo  Info         `json:"weatherInfo"`
	Notification Notification `json:"notification"`
	Provider     string       `json:"provider"`
	TokenCount   int          `json:"tokenCount"`
	Successful   int          `json:"successful"`
	Failed       int          `json:"failed"`
}

// Workflow is the weather notification pipeline: generate a message,
// resolve push tokens, push to all of them.
type Workflow struct {
	gen      *Generator
	push     PushDispatcher
	city     string
	provider string
}

// NewWorkflow creates a workflow with default city and provider.
func NewWorkflow(gen *Generator, push PushDispatcher, city, provider string) *Workflow {
	return &Workflow{gen: gen, push: push, city: city, provider: provider}
}

// Run executes the workflow with the configured defaults. Used by the
// scheduler; failures are returned for logging and leave no state behind.
func (w *Workflow) Run(ctx context.Context) error {
	_, err := w.RunFor(ctx, w.city, w.provider)
	return err
}

// RunFor executes the workflow for an explicit city and provider and
// returns the detailed report. An empty token set aborts the run.
func (w *Workflow) RunFor(ctx context.Context, city, provider string) (*RunReport, error) {
	if city == "" {
		city = w.city
	}
	if provider == "" {
		provider = w.provider
	}

	res, err := w.gen.Message(ctx, city, provider)
	if err != nil {
		return nil, err
	}

	tokens, err := w.push.CollectPushTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving push tokens: %w", err)
	}

	report := &RunReport{
		WeatherInfo:  res.WeatherInfo,
		Notification: res.Notification,
		Provider:     res.Provider,
		TokenCount:   len(tokens),
	}

	if len(tokens) == 0 {
		slog.Warn("no push tokens found, weather notification not sent", "city", city)
		return report, fmt.Errorf("no push tokens found")
	}

	successful, failed, err := w.push.PushToTokens(ctx, tokens, res.Notification.Title, res.Notification.Body)
	if err != nil {
		return report, fmt.Errorf("pushing weather notification: %w", err)
	}
	report.Successful = successful
	report.Failed = failed

	slog.Info("weather notification pushed",
		"city", city,
		"provider", provider,
		"tokens", len(tokens),
		"successful", successful,
		"failed", failed,
	)

	return report, nil
}
