package templates

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"resume-render/pkg/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Templates []models.TemplateDescriptor `yaml:"templates"`
}

// Registry is a read-only catalog of template descriptors keyed by id
type Registry struct {
	byID    map[string]models.TemplateDescriptor
	byLower map[string]string
}

// Default loads the embedded ATS catalog
func Default() (*Registry, error) {
	return Parse(catalogYAML)
}

// MustDefault is Default for package-level initialization
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Parse builds a registry from a YAML document with a top-level templates list
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	r := &Registry{
		byID:    make(map[string]models.TemplateDescriptor, len(file.Templates)),
		byLower: make(map[string]string, len(file.Templates)),
	}
	for _, t := range file.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template catalog entry %q has no id", t.Name)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		r.byID[t.ID] = t
		r.byLower[strings.ToLower(t.ID)] = t.ID
	}
	return r, nil
}

// Lookup returns a copy of the descriptor for id. Exact match first, then
// case-insensitive.
func (r *Registry) Lookup(id string) (models.TemplateDescriptor, bool) {
	id = strings.TrimSpace(id)
	if t, ok := r.byID[id]; ok {
		return t.Clone(), true
	}
	if canonical, ok := r.byLower[strings.ToLower(id)]; ok {
		return r.byID[canonical].Clone(), true
	}
	return models.TemplateDescriptor{}, false
}

// List returns every descriptor sorted by id
func (r *Registry) List() []models.TemplateDescriptor {
	out := make([]models.TemplateDescriptor, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Summaries returns the listing form of every descriptor
func (r *Registry) Summaries() []models.TemplateSummary {
	list := r.List()
	out := make([]models.TemplateSummary, 0, len(list))
	for _, t := range list {
		out = append(out, models.TemplateSummary{
			ID:          t.ID,
			Name:        t.Name,
			Category:    t.Category,
			Columns:     t.Layout.Columns,
			HeaderStyle: t.Layout.HeaderStyle,
		})
	}
	return out
}

// Len returns the number of templates
func (r *Registry) Len() int { return len(r.byID) }
