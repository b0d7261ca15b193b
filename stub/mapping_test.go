package stub_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPattern_Matches(t *testing.T) {
	u, err := url.Parse("/templating?x=1")
	require.NoError(t, err)

	cases := []struct {
		name    string
		pattern stub.RequestPattern
		method  string
		want    bool
	}{
		{"exact url", stub.RequestPattern{Method: "POST", URL: "/templating?x=1"}, http.MethodPost, true},
		{"url ignores missing query", stub.RequestPattern{Method: "POST", URL: "/templating"}, http.MethodPost, false},
		{"url path ignores query", stub.RequestPattern{Method: "POST", URLPath: "/templating"}, http.MethodPost, true},
		{"method mismatch", stub.RequestPattern{Method: "GET", URLPath: "/templating"}, http.MethodPost, false},
		{"method is case insensitive", stub.RequestPattern{Method: "post", URLPath: "/templating"}, http.MethodPost, true},
		{"any method", stub.RequestPattern{Method: "ANY", URLPath: "/templating"}, http.MethodDelete, true},
		{"empty pattern matches everything", stub.RequestPattern{}, http.MethodPatch, true},
		{"different path", stub.RequestPattern{URLPath: "/other"}, http.MethodPost, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.pattern.Matches(c.method, u))
		})
	}
}

func TestMapping_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := stub.Mapping{Request: stub.RequestPattern{Method: "POST", URLPath: "/x"}}

		assert.NoError(t, m.Validate())
		assert.Equal(t, http.StatusOK, m.Response.StatusCode())
	})

	cases := map[string]stub.Mapping{
		"url and urlPath":     {Request: stub.RequestPattern{URL: "/a", URLPath: "/a"}},
		"relative url":        {Request: stub.RequestPattern{URL: "a"}},
		"relative urlPath":    {Request: stub.RequestPattern{URLPath: "a"}},
		"status out of range": {Response: stub.Response{Status: 99}},
		"action without name": {PostServeActions: []stub.ActionSpec{{}}},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, m.Validate(), stub.ErrInvalidMapping)
		})
	}
}
