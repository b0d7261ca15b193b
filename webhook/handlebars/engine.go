// Package handlebars evaluates webhook templates written in Handlebars syntax.
//
// Templates see the triggering request under originalRequest (method, url, absoluteUrl,
// headers, body) and the webhook's extra parameters under parameters. Two helpers are
// registered on every template:
//
//	{{jsonPath originalRequest.body '$.name'}}
//	{{math 3 'x' 2}}
package handlebars

import (
	"fmt"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/marcelsud/webhook-dispatch/webhook"
)

// Engine implements webhook.TemplateEngine. Parsed templates are cached by source.
type Engine struct {
	templates sync.Map
}

// New creates a template engine
func New() *Engine {
	return &Engine{}
}

// Evaluate renders source against the transaction captured in tc
func (e *Engine) Evaluate(source string, tc webhook.TemplateContext) (string, error) {
	tpl, err := e.template(source)
	if err != nil {
		return "", err
	}

	out, err := tpl.Exec(model(tc))
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return out, nil
}

func (e *Engine) template(source string) (*raymond.Template, error) {
	if cached, ok := e.templates.Load(source); ok {
		return cached.(*raymond.Template), nil
	}

	tpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	tpl.RegisterHelper("jsonPath", jsonPathHelper)
	tpl.RegisterHelper("math", mathHelper)

	actual, _ := e.templates.LoadOrStore(source, tpl)
	return actual.(*raymond.Template), nil
}

// model builds the data a template is rendered against
func model(tc webhook.TemplateContext) map[string]any {
	headers := make(map[string]any)
	for name, values := range tc.Headers() {
		if len(values) == 0 {
			continue
		}
		headers[name] = values[0]
	}

	return map[string]any{
		"originalRequest": map[string]any{
			"method":      tc.Method(),
			"url":         tc.URL(),
			"absoluteUrl": tc.AbsoluteURL(),
			"headers":     headers,
			"body":        tc.BodyString(),
		},
		"parameters": tc.Parameters(),
	}
}
