package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/webhook-dispatch/metrics"
	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/marcelsud/webhook-dispatch/webhook"
)

/* HTTP layer DTOs for the admin API
 * Mappings are exchanged in their stored shape; outcome records are already serialisable
 */

const (
	defaultOutcomeLimit = 20
	maxOutcomeLimit     = 1000
)

// mappingsResponse represents GET /__admin/mappings
type mappingsResponse struct {
	Mappings []stub.Mapping `json:"mappings"`
	Meta     meta           `json:"meta"`
}

type meta struct {
	Total int `json:"total"`
}

// outcomesResponse represents GET /__admin/webhooks/outcomes
type outcomesResponse struct {
	Outcomes []webhook.OutcomeRecord `json:"outcomes"`
}

// listMappings handles GET /__admin/mappings
func listMappings(store *stub.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mappings := store.List()
		writeJSON(w, http.StatusOK, mappingsResponse{
			Mappings: mappings,
			Meta:     meta{Total: len(mappings)},
		})
	})
}

// createMapping handles POST /__admin/mappings
func createMapping(store *stub.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m stub.Mapping
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, fmt.Sprintf("invalid mapping JSON: %v", err), http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		added, err := store.Add(m)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, http.StatusCreated, added)
	})
}

// getMapping handles GET /__admin/mappings/{id}
func getMapping(store *stub.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := store.Get(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
}

// deleteMapping handles DELETE /__admin/mappings/{id}
func deleteMapping(store *stub.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := store.Remove(chi.URLParam(r, "id")); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

// resetMappings handles DELETE /__admin/mappings
func resetMappings(store *stub.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store.Reset()
		w.WriteHeader(http.StatusOK)
	})
}

// getOutcomes handles GET /__admin/webhooks/outcomes?limit=N
func getOutcomes(reader OutcomeReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			http.Error(w, "outcome journal is not enabled", http.StatusNotFound)
			return
		}

		limit := defaultOutcomeLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxOutcomeLimit)
		}

		records, err := reader.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, outcomesResponse{Outcomes: records})
	})
}

// getMetrics handles GET /__admin/webhooks/metrics
func getMetrics(collector metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if collector == nil {
			http.Error(w, "metrics are not enabled", http.StatusNotFound)
			return
		}

		m, err := collector.Collect(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, stub.ErrMappingNotFound):
		return http.StatusNotFound
	case errors.Is(err, stub.ErrInvalidMapping),
		errors.Is(err, stub.ErrUnknownAction),
		errors.Is(err, webhook.ErrInvalidConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
