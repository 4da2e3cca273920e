package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"globetrotter/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed destinations.yaml
var defaultCatalog []byte

var errEmptyCatalog = errors.New("catalog has no destinations")

type file struct {
	Destinations []domain.Destination `yaml:"destinations"`
}

// Default returns the catalog bundled with the binary.
func Default() ([]domain.Destination, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a YAML or JSON catalog from path.
func LoadFile(path string) ([]domain.Destination, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a catalog document. JSON is accepted as well since it is valid YAML.
// Both a top-level list and a {destinations: [...]} document are understood.
func Parse(data []byte) ([]domain.Destination, error) {
	var destinations []domain.Destination
	if err := yaml.Unmarshal(data, &destinations); err != nil {
		var doc file
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		destinations = doc.Destinations
	}
	if err := Validate(destinations); err != nil {
		return nil, err
	}
	return normalize(destinations), nil
}

// Validate checks that IDs are unique and every destination can produce a question.
func Validate(destinations []domain.Destination) error {
	if len(destinations) == 0 {
		return errEmptyCatalog
	}
	seen := make(map[string]struct{}, len(destinations))
	for i, d := range destinations {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return fmt.Errorf("destination %d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("destination %q: duplicate id", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(d.City) == "" {
			return fmt.Errorf("destination %q: missing city", id)
		}
		if len(nonBlank(d.Clues)) == 0 {
			return fmt.Errorf("destination %q: at least one clue is required", id)
		}
	}
	return nil
}

func normalize(destinations []domain.Destination) []domain.Destination {
	out := make([]domain.Destination, 0, len(destinations))
	for _, d := range destinations {
		funFacts := nonBlank(d.FunFacts)
		if funFacts == nil {
			funFacts = []string{}
		}
		out = append(out, domain.Destination{
			ID:       strings.TrimSpace(d.ID),
			City:     strings.TrimSpace(d.City),
			Country:  strings.TrimSpace(d.Country),
			Clues:    nonBlank(d.Clues),
			FunFacts: funFacts,
		})
	}
	return out
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
