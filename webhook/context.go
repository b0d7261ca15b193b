package webhook

import (
	"maps"
	"net/http"
	"net/textproto"
	"slices"
	"strings"
)

/* TemplateContext is a read-only snapshot of the inbound transaction that triggered a webhook
 * It is captured once, handed to the firing goroutine and used for a single resolution pass
 * None of its accessors can fail
 */
type TemplateContext struct {
	method      string
	url         string
	absoluteURL string
	headers     http.Header
	body        []byte
	parameters  map[string]any
}

// NewTemplateContext copies every argument so later changes by the caller are not observed
func NewTemplateContext(method, url, absoluteURL string, headers http.Header, body []byte) TemplateContext {
	return TemplateContext{
		method:      method,
		url:         url,
		absoluteURL: absoluteURL,
		headers:     headers.Clone(),
		body:        slices.Clone(body),
	}
}

// CaptureRequest snapshots an inbound request whose body has already been read
func CaptureRequest(r *http.Request, body []byte) TemplateContext {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return NewTemplateContext(
		r.Method,
		r.URL.RequestURI(),
		scheme+"://"+r.Host+r.URL.RequestURI(),
		r.Header,
		body,
	)
}

// WithParameters returns a copy of the context exposing params to templates
func (c TemplateContext) WithParameters(params map[string]any) TemplateContext {
	c.parameters = maps.Clone(params)
	return c
}

// Method returns the inbound request method
func (c TemplateContext) Method() string {
	return c.method
}

// URL returns the inbound path and query
func (c TemplateContext) URL() string {
	return c.url
}

// AbsoluteURL returns the inbound URL including scheme and host
func (c TemplateContext) AbsoluteURL() string {
	return c.absoluteURL
}

// Header returns every value of the named header in the order received
func (c TemplateContext) Header(name string) []string {
	if values, ok := c.headers[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return slices.Clone(values)
	}
	var values []string
	for key, v := range c.headers {
		if strings.EqualFold(key, name) {
			values = append(values, v...)
		}
	}
	return values
}

// Headers returns a copy of the inbound header multimap
func (c TemplateContext) Headers() http.Header {
	if c.headers == nil {
		return http.Header{}
	}
	return c.headers.Clone()
}

// Body returns a copy of the raw inbound body, empty when there was none
func (c TemplateContext) Body() []byte {
	if c.body == nil {
		return []byte{}
	}
	return slices.Clone(c.body)
}

// BodyString returns the inbound body decoded as a string
func (c TemplateContext) BodyString() string {
	return string(c.body)
}

// Parameters returns a copy of the extra parameters
func (c TemplateContext) Parameters() map[string]any {
	if c.parameters == nil {
		return map[string]any{}
	}
	return maps.Clone(c.parameters)
}
