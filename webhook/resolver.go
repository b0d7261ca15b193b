package webhook

import (
	"fmt"
	"net/url"
	"strings"
)

// templateMarker opens every template expression
const templateMarker = "{{"

/* TemplateEngine evaluates a template string against a TemplateContext
 * The resolver treats every failure the same way, whatever the cause
 */
type TemplateEngine interface {
	Evaluate(template string, ctx TemplateContext) (string, error)
}

var methods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"OPTIONS": {},
	"TRACE":   {},
	"CONNECT": {},
}

// Resolver derives a ResolvedRequest from a RequestSpec and the triggering transaction
type Resolver struct {
	Engine TemplateEngine
}

// NewResolver creates a resolver using engine for templated fields
func NewResolver(engine TemplateEngine) *Resolver {
	return &Resolver{
		Engine: engine,
	}
}

/* Resolve evaluates every field of spec against ctx
 * Fields never see each other's resolved values, only ctx
 * The first failing field aborts the whole resolution
 */
func (r *Resolver) Resolve(spec RequestSpec, ctx TemplateContext) (ResolvedRequest, error) {
	method, err := r.resolveMethod(spec.method, ctx)
	if err != nil {
		return ResolvedRequest{}, err
	}

	target, err := r.resolveURL(spec.url, ctx)
	if err != nil {
		return ResolvedRequest{}, err
	}

	var headers Headers
	for _, header := range spec.headers {
		values := make([]string, 0, len(header.Values))
		for _, value := range header.Values {
			resolved, err := r.evaluate(value, ctx)
			if err != nil {
				return ResolvedRequest{}, &ResolutionError{Field: "header " + header.Name, Err: err}
			}
			values = append(values, resolved)
		}
		headers = append(headers, Header{Name: header.Name, Values: values})
	}

	var body []byte
	if spec.hasBody {
		resolved, err := r.evaluate(spec.body, ctx)
		if err != nil {
			return ResolvedRequest{}, &ResolutionError{Field: "body", Err: err}
		}
		body = []byte(resolved)
	}

	return ResolvedRequest{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    body,
	}, nil
}

func (r *Resolver) resolveMethod(raw string, ctx TemplateContext) (string, error) {
	if raw == "" {
		return "", &ResolutionError{Field: "method", Err: fmt.Errorf("%w: method is required", ErrInvalidMethod)}
	}
	resolved, err := r.evaluate(raw, ctx)
	if err != nil {
		return "", &ResolutionError{Field: "method", Err: err}
	}
	method := strings.ToUpper(strings.TrimSpace(resolved))
	if _, ok := methods[method]; !ok {
		return "", &ResolutionError{Field: "method", Err: fmt.Errorf("%w: %q", ErrInvalidMethod, resolved)}
	}
	return method, nil
}

func (r *Resolver) resolveURL(raw string, ctx TemplateContext) (string, error) {
	if raw == "" {
		return "", &ResolutionError{Field: "url", Err: fmt.Errorf("%w: url is required", ErrInvalidURL)}
	}
	resolved, err := r.evaluate(raw, ctx)
	if err != nil {
		return "", &ResolutionError{Field: "url", Err: err}
	}
	resolved = strings.TrimSpace(resolved)
	parsed, err := url.Parse(resolved)
	if err != nil {
		return "", &ResolutionError{Field: "url", Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", &ResolutionError{Field: "url", Err: fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, resolved)}
	}
	return resolved, nil
}

// evaluate passes literals through without touching the engine
func (r *Resolver) evaluate(raw string, ctx TemplateContext) (string, error) {
	if !strings.Contains(raw, templateMarker) {
		return raw, nil
	}
	if r.Engine == nil {
		return "", fmt.Errorf("%w: no template engine configured", ErrTemplateFailure)
	}
	out, err := r.Engine.Evaluate(raw, ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplateFailure, err)
	}
	return out, nil
}
