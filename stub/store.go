package stub

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"
)

/* Store keeps stub mappings in memory
 * Mappings are matched in the order they were added; re-adding an ID replaces it in place
 */
type Store struct {
	mu       sync.RWMutex
	mappings []Mapping
	registry *Registry
}

// NewStore creates an empty store validating post-serve actions against registry
func NewStore(registry *Registry) *Store {
	return &Store{
		registry: registry,
	}
}

// Add validates m and stores it, generating an ID when m has none
func (s *Store) Add(m Mapping) (Mapping, error) {
	if err := m.Validate(); err != nil {
		return Mapping{}, err
	}
	if err := s.registry.Validate(m.PostServeActions); err != nil {
		return Mapping{}, fmt.Errorf("validating post-serve actions: %w", err)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m = clone(m)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mappings {
		if s.mappings[i].ID == m.ID {
			s.mappings[i] = m
			return clone(m), nil
		}
	}
	s.mappings = append(s.mappings, m)
	return clone(m), nil
}

// Get returns the mapping with the given ID
func (s *Store) Get(id string) (Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.ID == id {
			return clone(m), nil
		}
	}
	return Mapping{}, fmt.Errorf("%w: %s", ErrMappingNotFound, id)
}

// List returns every mapping in match order
func (s *Store) List() []Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, clone(m))
	}
	return out
}

// Remove deletes the mapping with the given ID
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.mappings {
		if m.ID == id {
			s.mappings = slices.Delete(s.mappings, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMappingNotFound, id)
}

// Reset removes every mapping
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = nil
}

// Match returns the first mapping answering method and u
func (s *Store) Match(method string, u *url.URL) (Mapping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.Request.Matches(method, u) {
			return clone(m), true
		}
	}
	return Mapping{}, false
}

func clone(m Mapping) Mapping {
	m.Response.Headers = maps.Clone(m.Response.Headers)
	if m.PostServeActions != nil {
		actions := make([]ActionSpec, len(m.PostServeActions))
		for i, a := range m.PostServeActions {
			actions[i] = ActionSpec{Name: a.Name, Parameters: slices.Clone(a.Parameters)}
		}
		m.PostServeActions = actions
	}
	return m
}
