package webhook_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Send(t *testing.T) {
	t.Run("sends every header value and the body", func(t *testing.T) {
		target := newTargetServer(t, http.StatusCreated)
		sender := webhook.NewSender(time.Second, nil)

		status, err := sender.Send(context.Background(), webhook.ResolvedRequest{
			Method: http.MethodPatch,
			URL:    target.URL + "/items/1?verbose=true",
			Headers: webhook.Headers{
				{Name: "X-Multi", Values: []string{"one", "two"}},
				{Name: "Host", Values: []string{"callbacks.example"}},
			},
			Body: []byte("payload"),
		})

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, status)
		req := target.next(t)
		assert.Equal(t, http.MethodPatch, req.Method)
		assert.Equal(t, "/items/1?verbose=true", req.Path)
		assert.Equal(t, []string{"one", "two"}, req.Header.Values("X-Multi"))
		assert.Equal(t, "callbacks.example", req.Host)
		assert.Equal(t, "payload", req.Body)
	})

	t.Run("connection refused", func(t *testing.T) {
		sender := webhook.NewSender(time.Second, nil)

		_, err := sender.Send(context.Background(), webhook.ResolvedRequest{Method: http.MethodGet, URL: unreachableURL(t)})

		var transportErr *webhook.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.False(t, transportErr.Timeout())
	})

	t.Run("timeout", func(t *testing.T) {
		slow := newSlowServer(t)
		sender := webhook.NewSender(50*time.Millisecond, nil)

		_, err := sender.Send(context.Background(), webhook.ResolvedRequest{Method: http.MethodGet, URL: slow.URL})

		var transportErr *webhook.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.True(t, transportErr.Timeout())
	})
}
