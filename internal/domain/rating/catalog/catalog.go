// Package catalog loads the seed list of sources and experts from YAML
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
)

//go:embed default.yaml
var defaultCatalog []byte

// Entry is one catalog item. Name becomes the item id.
type Entry struct {
	Name      string `yaml:"name"`
	Reference string `yaml:"reference"`
	Category  string `yaml:"category"`
}

// Catalog lists the items to register on an empty store
type Catalog struct {
	Sources []Entry `yaml:"sources"`
	Experts []Entry `yaml:"experts"`
}

// Registrar registers rated items
type Registrar interface {
	RegisterItem(kind entities.Kind, id, category, reference string) (bool, error)
}

// Load reads a catalog file. An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, e := range c.Sources {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog source #%d has no name", i+1)
		}
	}
	for i, e := range c.Experts {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog expert #%d has no name", i+1)
		}
	}
	return &c, nil
}

// Seed registers every entry and returns how many items were created
func (c *Catalog) Seed(r Registrar) (int, error) {
	created := 0
	register := func(kind entities.Kind, entries []Entry) error {
		for _, e := range entries {
			ok, err := r.RegisterItem(kind, e.Name, e.Category, e.Reference)
			if err != nil {
				return fmt.Errorf("failed to register %s %q: %w", kind, e.Name, err)
			}
			if ok {
				created++
			}
		}
		return nil
	}

	if err := register(entities.KindSource, c.Sources); err != nil {
		return created, err
	}
	if err := register(entities.KindExpert, c.Experts); err != nil {
		return created, err
	}
	return created, nil
}

// Categories returns the distinct source categories in file order
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range c.Sources {
		if _, ok := seen[e.Category]; ok || e.Category == "" {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}
