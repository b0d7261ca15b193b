package webhook

import (
	"maps"
	"slices"
	"strings"
)

/* RequestSpec is the declarative description of a webhook to fire
 * Fields are unexported so a spec cannot change once built; every accessor hands out a copy
 * Build one with NewBuilder or decode one from JSON with ParseSpec
 */
type RequestSpec struct {
	method          string
	url             string
	headers         Headers
	body            string
	hasBody         bool
	delay           *DelaySpec
	extraParameters map[string]any
}

// Method returns the method token or template
func (s RequestSpec) Method() string {
	return s.method
}

// URL returns the target URL or template
func (s RequestSpec) URL() string {
	return s.url
}

// Headers returns a copy of the declared headers
func (s RequestSpec) Headers() Headers {
	return s.headers.Clone()
}

// Body returns the body template and whether one was declared
func (s RequestSpec) Body() (string, bool) {
	return s.body, s.hasBody
}

// Delay returns a copy of the delay spec, nil when no delay was declared
func (s RequestSpec) Delay() *DelaySpec {
	if s.delay == nil {
		return nil
	}
	d := *s.delay
	return &d
}

// ExtraParameters returns a copy of the parameters exposed to templates
func (s RequestSpec) ExtraParameters() map[string]any {
	if s.extraParameters == nil {
		return map[string]any{}
	}
	return maps.Clone(s.extraParameters)
}

/* Header is one declared header with one or more values
 * Name keeps the casing it was declared with
 */
type Header struct {
	Name   string
	Values []string
}

// Headers is an ordered header multimap with case-insensitive lookup
type Headers []Header

// Get returns every value declared for name, in declaration order
func (h Headers) Get(name string) []string {
	var values []string
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			values = append(values, header.Values...)
		}
	}
	return values
}

// Names returns the header names in declaration order
func (h Headers) Names() []string {
	names := make([]string, 0, len(h))
	for _, header := range h {
		names = append(names, header.Name)
	}
	return names
}

// Clone returns a deep copy
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	for i, header := range h {
		out[i] = Header{Name: header.Name, Values: slices.Clone(header.Values)}
	}
	return out
}

// add appends values to an existing header (matched case-insensitively) or declares a new one
func (h Headers) add(name string, values ...string) Headers {
	for i := range h {
		if strings.EqualFold(h[i].Name, name) {
			h[i].Values = append(h[i].Values, values...)
			return h
		}
	}
	return append(h, Header{Name: name, Values: slices.Clone(values)})
}

/* ResolvedRequest is a concrete outbound request with every template evaluated
 * Produced fresh for each firing and owned by that firing only
 */
type ResolvedRequest struct {
	Method  string
	URL     string
	Headers Headers
	Body    []byte
}
