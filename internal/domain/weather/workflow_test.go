package weather

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher is a canned PushDispatcher.
type fakeDispatcher struct {
	tokens     []string
	collectErr error
	successful int
	failed     int
	pushErr    error

	pushedTitle string
	pushedBody  string
}

func (f *fakeDispatcher) CollectPushTokens(context.Context) ([]string, error) {
	return f.tokens, f.collectErr
}

func (f *fakeDispatcher) PushToTokens(_ context.Context, _ []string, title, body string) (int, int, error) {
	f.pushedTitle = title
	f.pushedBody = body
	return f.successful, f.failed, f.pushErr
}

func testWorkflow(dispatcher PushDispatcher) *Workflow {
	gen := NewGenerator(
		&fakeWeatherClient{info: Info{City: "Tanakpur", Temperature: 28}},
		NewHistory(10),
		&fakeTextGenerator{name: "gemini", outputs: []Notification{{Title: "Dhoop!", Body: "Chai?"}}},
	)
	return NewWorkflow(gen, dispatcher, "Tanakpur", "gemini")
}

func TestWorkflow_RunForPushesGeneratedText(t *testing.T) {
	d := &fakeDispatcher{tokens: []string{"tok-1", "tok-2"}, successful: 2}
	w := testWorkflow(d)

	report, err := w.RunFor(context.Background(), "", "")

	require.NoError(t, err)
	assert.Equal(t, "Dhoop!", d.pushedTitle)
	assert.Equal(t, "Chai?", d.pushedBody)
	assert.Equal(t, 2, report.TokenCount)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, "gemini", report.Provider)
}

func TestWorkflow_NoTokensAbortsWithReport(t *testing.T) {
	d := &fakeDispatcher{}
	w := testWorkflow(d)

	report, err := w.RunFor(context.Background(), "", "")

	require.Error(t, err)
	require.NotNil(t, report, "the generated text is still reported")
	assert.Zero(t, report.TokenCount)
	assert.Empty(t, d.pushedTitle, "nothing pushed without tokens")
}

func TestWorkflow_CollectErrorPropagates(t *testing.T) {
	d := &fakeDispatcher{collectErr: errors.New("store down")}
	w := testWorkflow(d)

	_, err := w.RunFor(context.Background(), "", "")
	require.Error(t, err)
}

func TestWorkflow_OverridesCityAndProvider(t *testing.T) {
	gen := NewGenerator(
		&fakeWeatherClient{info: Info{City: "Delhi"}},
		NewHistory(10),
		&fakeTextGenerator{name: "gemini", outputs: []Notification{{Title: "a", Body: "b"}}},
		&fakeTextGenerator{name: "openai", outputs: []Notification{{Title: "c", Body: "d"}}},
	)
	d := &fakeDispatcher{tokens: []string{"tok"}, successful: 1}
	w := NewWorkflow(gen, d, "Tanakpur", "gemini")

	report, err := w.RunFor(context.Background(), "Delhi", "openai")

	require.NoError(t, err)
	assert.Equal(t, "openai", report.Provider)
	assert.Equal(t, "c", d.pushedTitle)
}
