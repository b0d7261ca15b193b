package chi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/rs/zerolog"
)

/* serveStub answers a request from the first matching mapping
 * The response is written and flushed before post-serve actions fire, and action failures never change it
 */
func serveStub(logger zerolog.Logger, store *stub.Store, registry *stub.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		mapping, ok := store.Match(r.Method, r.URL)
		if !ok {
			http.Error(w, fmt.Sprintf("no stub mapping matches %s %s", r.Method, r.URL.RequestURI()), http.StatusNotFound)
			return
		}

		for name, value := range mapping.Response.Headers {
			w.Header().Set(name, value)
		}
		w.WriteHeader(mapping.Response.StatusCode())
		if mapping.Response.Body != "" {
			_, _ = io.WriteString(w, mapping.Response.Body)
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		if len(mapping.PostServeActions) == 0 {
			return
		}
		tc := webhook.CaptureRequest(r, body)
		if err := registry.Fire(mapping.PostServeActions, tc); err != nil {
			logger.Error().
				Err(err).
				Str("mapping_id", mapping.ID).
				Msg("post-serve action failed")
		}
	}
}
