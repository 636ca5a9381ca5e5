package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderpulse/internal/common"
	"orderpulse/internal/domain/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *FCMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewFCMClient("server-key")
	c.endpoint = srv.URL
	return c
}

func TestSend_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=server-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":1,"failure":0,"results":[{"message_id":"m1"}]}`))
	})

	err := c.Send(context.Background(), "tok", "title", "body", nil)
	require.NoError(t, err)
}

func TestSend_NotRegisteredIsUnregisteredToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`))
	})

	err := c.Send(context.Background(), "tok", "title", "body", nil)
	require.ErrorIs(t, err, notify.ErrUnregisteredToken)
}

func TestSend_InvalidRegistrationIsUnregisteredToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"InvalidRegistration"}]}`))
	})

	err := c.Send(context.Background(), "tok", "title", "body", nil)
	require.ErrorIs(t, err, notify.ErrUnregisteredToken)
}

func TestSend_OtherErrorNotClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"InternalServerError"}]}`))
	})

	err := c.Send(context.Background(), "tok", "title", "body", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, notify.ErrUnregisteredToken)
}

func TestSend_UnauthorizedIsCredentialExpired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Send(context.Background(), "tok", "title", "body", nil)

	var expired *common.CredentialExpiredError
	require.ErrorAs(t, err, &expired)
}

func TestSend_NotConfigured(t *testing.T) {
	c := NewFCMClient("")
	assert.False(t, c.Configured())

	err := c.Send(context.Background(), "tok", "title", "body", nil)

	var notConfigured *common.NotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
}
