package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orderpulse/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWeatherClient returns a fixed Info.
type fakeWeatherClient struct {
	info Info
	err  error
}

func (f *fakeWeatherClient) Current(context.Context, string) (Info, error) {
	return f.info, f.err
}

// fakeTextGenerator returns canned notifications in sequence, repeating
// the last one when exhausted.
type fakeTextGenerator struct {
	name    string
	outputs []Notification
	err     error
	calls   int
}

func (f *fakeTextGenerator) Name() string { return f.name }

func (f *fakeTextGenerator) Generate(context.Context, Info) (Notification, error) {
	f.calls++
	if f.err != nil {
		return Notification{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.outputs) {
		idx = len(f.outputs) - 1
	}
	return f.outputs[idx], nil
}

func TestGenerator_UnknownProvider(t *testing.T) {
	g := NewGenerator(&fakeWeatherClient{}, NewHistory(10),
		&fakeTextGenerator{name: "gemini", outputs: []Notification{{Title: "t", Body: "b"}}})

	_, err := g.Message(context.Background(), "Tanakpur", "cohere")

	var validation *common.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestGenerator_HappyPath(t *testing.T) {
	gen := &fakeTextGenerator{name: "gemini", outputs: []Notification{{Title: "Dhoop!", Body: "Chai?"}}}
	g := NewGenerator(&fakeWeatherClient{info: Info{City: "Tanakpur", Temperature: 31}}, NewHistory(10), gen)

	res, err := g.Message(context.Background(), "Tanakpur", "gemini")

	require.NoError(t, err)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, "Dhoop!", res.Notification.Title)
	assert.Equal(t, "Tanakpur", res.WeatherInfo.City)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerator_RegeneratesOnDuplicate(t *testing.T) {
	history := NewHistory(10)
	history.Add(Notification{Title: "stale", Body: "b"})

	gen := &fakeTextGenerator{name: "gemini", outputs: []Notification{
		{Title: "stale", Body: "b"},
		{Title: "fresh", Body: "b"},
	}}
	g := NewGenerator(&fakeWeatherClient{}, history, gen)

	res, err := g.Message(context.Background(), "Tanakpur", "gemini")

	require.NoError(t, err)
	assert.Equal(t, "fresh", res.Notification.Title)
	assert.Equal(t, 2, gen.calls)
}

func TestGenerator_AcceptsDuplicateAtCap(t *testing.T) {
	history := NewHistory(10)
	history.Add(Notification{Title: "stale", Body: "b"})

	// The generator has converged: every attempt yields the same text.
	gen := &fakeTextGenerator{name: "gemini", outputs: []Notification{{Title: "stale", Body: "b"}}}
	g := NewGenerator(&fakeWeatherClient{}, history, gen)

	res, err := g.Message(context.Background(), "Tanakpur", "gemini")

	require.NoError(t, err, "a converged generator must not loop forever")
	assert.Equal(t, "stale", res.Notification.Title)
	assert.Equal(t, maxRegenerations, gen.calls)
}

func TestGenerator_WeatherFetchError(t *testing.T) {
	g := NewGenerator(&fakeWeatherClient{err: errors.New("api down")}, NewHistory(10),
		&fakeTextGenerator{name: "gemini", outputs: []Notification{{Title: "t", Body: "b"}}})

	_, err := g.Message(context.Background(), "Tanakpur", "gemini")
	require.Error(t, err)
}

func TestGenerator_TextGenerationError(t *testing.T) {
	g := NewGenerator(&fakeWeatherClient{}, NewHistory(10),
		&fakeTextGenerator{name: "gemini", err: fmt.Errorf("quota exhausted")})

	_, err := g.Message(context.Background(), "Tanakpur", "gemini")
	require.Error(t, err)
}
