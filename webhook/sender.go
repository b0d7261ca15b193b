package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds a single outbound exchange
const DefaultTimeout = 30 * time.Second

/* Sender performs the outbound HTTP call for resolved requests
 * A single Sender is shared by every firing; http.Client is safe for concurrent use
 */
type Sender struct {
	client *http.Client
}

// NewSender creates a sender with the given timeout. A nil transport uses http.DefaultTransport.
func NewSender(timeout time.Duration, transport http.RoundTripper) *Sender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Sender{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

/* Send issues req and returns the response status code
 * Any status is a completed exchange; only failures to complete return an error
 * The response body is drained and discarded
 */
func (s *Sender) Send(ctx context.Context, req ResolvedRequest) (int, error) {
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return 0, &TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}

	// Assign directly so names keep their declared casing and every value is sent
	for _, header := range req.Headers {
		if strings.EqualFold(header.Name, "Host") && len(header.Values) > 0 {
			httpReq.Host = header.Values[len(header.Values)-1]
			continue
		}
		httpReq.Header[header.Name] = append(httpReq.Header[header.Name], header.Values...)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
