package automata

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Pattern struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Automaton   Automaton `yaml:"automaton"`
}

// Catalog is a fixed, ordered set of well known automata.
type Catalog struct {
	patterns []Pattern
	byName   map[string]int
}

// ParseCatalog reads a catalog document and validates every automaton in it.
func ParseCatalog(document []byte) (*Catalog, error) {
	var parsed struct {
		Patterns []Pattern `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(document, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog := &Catalog{byName: make(map[string]int, len(parsed.Patterns))}
	for _, pattern := range parsed.Patterns {
		if _, exists := catalog.byName[pattern.Name]; exists {
			return nil, fmt.Errorf("pattern %q defined twice", pattern.Name)
		}
		if err := pattern.Automaton.Validate(); err != nil {
			return nil, fmt.Errorf("pattern %q is invalid: %w", pattern.Name, err)
		}
		catalog.byName[pattern.Name] = len(catalog.patterns)
		catalog.patterns = append(catalog.patterns, pattern)
	}
	return catalog, nil
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
})

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

func (c *Catalog) Lookup(name string) (Pattern, bool) {
	index, ok := c.byName[name]
	if !ok {
		return Pattern{}, false
	}
	return c.patterns[index], true
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.patterns))
	for _, pattern := range c.patterns {
		names = append(names, pattern.Name)
	}
	return names
}
