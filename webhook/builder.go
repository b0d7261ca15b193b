package webhook

import (
	"fmt"
	"maps"
)

/* Builder is the fluent surface for authoring a RequestSpec
 * Method and URL may still be templates, so they are only checked when a firing resolves them
 */
type Builder struct {
	spec RequestSpec
	err  error
}

// NewBuilder starts an empty webhook spec
func NewBuilder() *Builder {
	return &Builder{}
}

// WithMethod sets the method token or template
func (b *Builder) WithMethod(method string) *Builder {
	b.spec.method = method
	return b
}

// WithURL sets the absolute target URL or template
func (b *Builder) WithURL(url string) *Builder {
	b.spec.url = url
	return b
}

// WithHeader declares a header; repeated calls for the same name add values
func (b *Builder) WithHeader(name string, values ...string) *Builder {
	if len(values) == 0 {
		b.fail(fmt.Sprintf("header %q declared without values", name), nil)
		return b
	}
	b.spec.headers = b.spec.headers.add(name, values...)
	return b
}

// WithBody sets the body literal or template
func (b *Builder) WithBody(body string) *Builder {
	b.spec.body = body
	b.spec.hasBody = true
	return b
}

// WithFixedDelay waits exactly ms milliseconds before sending
func (b *Builder) WithFixedDelay(ms int64) *Builder {
	d, err := NewFixedDelay(ms)
	if err != nil {
		b.fail("invalid delay", err)
		return b
	}
	b.spec.delay = &d
	return b
}

// WithRandomDelay waits a uniformly drawn number of milliseconds in [lower, upper]
func (b *Builder) WithRandomDelay(lower, upper int64) *Builder {
	d, err := NewUniformDelay(lower, upper)
	if err != nil {
		b.fail("invalid delay", err)
		return b
	}
	b.spec.delay = &d
	return b
}

// WithDelay sets an already built delay spec
func (b *Builder) WithDelay(d DelaySpec) *Builder {
	if err := d.Validate(); err != nil {
		b.fail("invalid delay", err)
		return b
	}
	b.spec.delay = &d
	return b
}

// WithExtraParameter exposes value to templates as parameters.<name>
func (b *Builder) WithExtraParameter(name string, value any) *Builder {
	if b.spec.extraParameters == nil {
		b.spec.extraParameters = make(map[string]any)
	}
	b.spec.extraParameters[name] = value
	return b
}

// Build returns the spec, or the first ConfigurationError recorded while building
func (b *Builder) Build() (RequestSpec, error) {
	if b.err != nil {
		return RequestSpec{}, b.err
	}
	spec := b.spec
	spec.headers = b.spec.headers.Clone()
	spec.delay = b.spec.Delay()
	if b.spec.extraParameters != nil {
		spec.extraParameters = maps.Clone(b.spec.extraParameters)
	}
	return spec, nil
}

func (b *Builder) fail(reason string, err error) {
	if b.err == nil {
		b.err = &ConfigurationError{Reason: reason, Err: err}
	}
}
