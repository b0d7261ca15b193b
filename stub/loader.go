package stub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

/* Loader reads mapping files from a directory into a Store
 * Each *.json, *.yaml or *.yml file holds one mapping or {"mappings": [...]}
 * Files are read in lexical order, so mappings load deterministically
 */
type Loader struct {
	store  *Store
	logger zerolog.Logger
}

// NewLoader creates a loader adding mappings to store
func NewLoader(store *Store, logger zerolog.Logger) *Loader {
	return &Loader{
		store:  store,
		logger: logger,
	}
}

// LoadDir loads every mapping file in dir and returns how many mappings were added
func (l *Loader) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading mappings directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !isMappingFile(entry.Name()) {
			continue
		}
		n, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// LoadFile loads the mappings of a single file
func (l *Loader) LoadFile(path string) (int, error) {
	mappings, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	for i, m := range mappings {
		added, err := l.store.Add(m)
		if err != nil {
			return i, fmt.Errorf("loading %s: mapping %d: %w", path, i, err)
		}
		l.logger.Debug().
			Str("file", path).
			Str("mapping_id", added.ID).
			Int("actions", len(added.PostServeActions)).
			Msg("mapping loaded")
	}
	return len(mappings), nil
}

// ReadFile parses a mapping file without storing or validating its mappings
func ReadFile(path string) ([]Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	mappings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return mappings, nil
}

// Parse decodes one JSON mapping or a {"mappings": [...]} document
func Parse(data []byte) ([]Mapping, error) {
	var doc struct {
		Mappings []Mapping `json:"mappings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	if doc.Mappings != nil {
		return doc.Mappings, nil
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	return []Mapping{m}, nil
}

// yamlToJSON re-encodes a YAML document so post-serve parameters keep their JSON shape
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	return out, nil
}

func isMappingFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
