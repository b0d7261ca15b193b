package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AnyMethod matches every request method
const AnyMethod = "ANY"

/* Mapping pairs a request pattern with a canned response
 * Post-serve actions run once the response has been written
 */
type Mapping struct {
	ID               string         `json:"id,omitempty"`
	Request          RequestPattern `json:"request"`
	Response         Response       `json:"response"`
	PostServeActions []ActionSpec   `json:"postServeActions,omitempty"`
}

/* RequestPattern selects the inbound requests a mapping answers
 * URL matches path and query exactly, URLPath matches the path only
 * Leaving both empty matches every URL
 */
type RequestPattern struct {
	Method  string `json:"method,omitempty"`
	URL     string `json:"url,omitempty"`
	URLPath string `json:"urlPath,omitempty"`
}

// Response is written back to the caller when a mapping matches
type Response struct {
	Status  int               `json:"status,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ActionSpec names a registered post-serve action and carries its raw parameters
type ActionSpec struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// StatusCode returns the configured status, 200 when none was set
func (r Response) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// Validate checks the mapping shape; action parameters are checked by the Registry
func (m Mapping) Validate() error {
	if m.Request.URL != "" && m.Request.URLPath != "" {
		return fmt.Errorf("%w: url and urlPath are mutually exclusive", ErrInvalidMapping)
	}
	if m.Request.URL != "" && !strings.HasPrefix(m.Request.URL, "/") {
		return fmt.Errorf("%w: url %q must start with /", ErrInvalidMapping, m.Request.URL)
	}
	if m.Request.URLPath != "" && !strings.HasPrefix(m.Request.URLPath, "/") {
		return fmt.Errorf("%w: urlPath %q must start with /", ErrInvalidMapping, m.Request.URLPath)
	}
	if m.Response.Status != 0 && (m.Response.Status < 100 || m.Response.Status > 599) {
		return fmt.Errorf("%w: status %d is out of range", ErrInvalidMapping, m.Response.Status)
	}
	for i, action := range m.PostServeActions {
		if action.Name == "" {
			return fmt.Errorf("%w: post-serve action %d has no name", ErrInvalidMapping, i)
		}
	}
	return nil
}

// Matches reports whether an inbound request with method and u is answered by this mapping
func (p RequestPattern) Matches(method string, u *url.URL) bool {
	if p.Method != "" && !strings.EqualFold(p.Method, AnyMethod) && !strings.EqualFold(p.Method, method) {
		return false
	}
	switch {
	case p.URL != "":
		return p.URL == u.RequestURI()
	case p.URLPath != "":
		return p.URLPath == u.Path
	default:
		return true
	}
}
