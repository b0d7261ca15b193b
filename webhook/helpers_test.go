package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/handlebars"
)

const waitTimeout = 5 * time.Second

type capturedRequest struct {
	Method string
	Path   string
	Host   string
	Header http.Header
	Body   string
	At     time.Time
}

// targetServer records every request it receives and answers with a fixed status
type targetServer struct {
	*httptest.Server
	received chan capturedRequest
	count    atomic.Int64
}

func newTargetServer(t *testing.T, status int) *targetServer {
	t.Helper()
	ts := &targetServer{received: make(chan capturedRequest, 256)}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts.count.Add(1)
		ts.received <- capturedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Host:   r.Host,
			Header: r.Header.Clone(),
			Body:   string(body),
			At:     time.Now(),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *targetServer) next(t *testing.T) capturedRequest {
	t.Helper()
	select {
	case req := <-ts.received:
		return req
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the webhook request")
		return capturedRequest{}
	}
}

// unreachableURL returns the address of a server that has already been closed
func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

type sinkLine struct {
	Severity webhook.Severity
	Line     string
}

type recordingSink struct {
	lines chan sinkLine
}

func newRecordingSink() *recordingSink {
	return &recordingSink{lines: make(chan sinkLine, 256)}
}

func (s *recordingSink) Write(severity webhook.Severity, line string) {
	s.lines <- sinkLine{Severity: severity, Line: line}
}

func (s *recordingSink) next(t *testing.T) sinkLine {
	t.Helper()
	select {
	case line := <-s.lines:
		return line
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a notification line")
		return sinkLine{}
	}
}

type recordingNotifier struct {
	outcomes chan webhook.Outcome
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{outcomes: make(chan webhook.Outcome, 256)}
}

func (n *recordingNotifier) Notify(_ context.Context, outcome webhook.Outcome) {
	n.outcomes <- outcome
}

func (n *recordingNotifier) next(t *testing.T) webhook.Outcome {
	t.Helper()
	select {
	case outcome := <-n.outcomes:
		return outcome
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for an outcome")
		return webhook.Outcome{}
	}
}

// newDispatcher builds a dispatcher with the Handlebars engine that is shut down when the test ends
func newDispatcher(t *testing.T, notifier webhook.Notifier, opts ...webhook.Option) *webhook.Dispatcher {
	t.Helper()
	d := webhook.NewDispatcher(handlebars.New(), notifier, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	return d
}

func waitIdle(t *testing.T, d *webhook.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("dispatcher did not become idle: %v", err)
	}
}

// newSlowServer never answers; each request is held until the client gives up
func newSlowServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}
