package weather

import "context"

// Info is a current-weather snapshot for one city.
type Info struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	Main        string  `json:"main"`
	IsRainy     bool    `json:"isRainy"`
	Icon        string  `json:"icon"`
}

// Notification is a generated push text.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Client fetches current weather. Implementations live in infra/weatherapi/.
type Client interface {
	Current(ctx context.Context, city string) (Info, error)
}

// TextGenerator produces a notification text from a weather snapshot.
// Implementations live in infra/llm/.
type TextGenerator interface {
	// Generate returns a {title, body} pair for the given weather.
	Generate(ctx context.Context, w Info) (Notification, error)

	// Name returns the provider selector ("gemini", "openai").
	Name() string
}

// KeyStore holds runtime-mutable provider API keys.
// Implementations live in infra/keys/.
type KeyStore interface {
	// Get returns the key for a service, or "" when unset.
	Get(ctx context.Context, service string) (string, error)

	// SetAll stores the given service keys.
	SetAll(ctx context.Context, keys map[string]string) error

	// All returns every stored service key.
	All(ctx context.Context) (map[string]string, error)
}
