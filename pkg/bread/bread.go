// Package bread holds the metadata that drives browsing, reading, editing,
// adding and deleting rows of one table.
package bread

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/modelregistry"
)

// Bread describes one table exposed through the admin panel
type Bread struct {
	Table        string                     `json:"table" yaml:"table"`
	Slug         string                     `json:"slug" yaml:"slug"`
	NameSingular string                     `json:"name_singular" yaml:"name_singular"`
	NamePlural   string                     `json:"name_plural" yaml:"name_plural"`
	ModelName    string                     `json:"model_name" yaml:"model_name"`
	PrimaryKey   string                     `json:"primary_key" yaml:"primary_key"`
	Layouts      []*Layout                  `json:"layouts" yaml:"layouts"`
	Relations    map[string]common.Relation `json:"relationships" yaml:"relationships"`
	// ListLayoutName and ViewLayoutName pick a layout by name; empty means the first of that type
	ListLayoutName string `json:"list_layout" yaml:"list_layout"`
	ViewLayoutName string `json:"view_layout" yaml:"view_layout"`

	model *modelregistry.Model
}

// Validate fills defaults and checks the layouts
func (b *Bread) Validate() error {
	if b.Table == "" {
		return fmt.Errorf("bread requires a table")
	}
	if b.Slug == "" {
		b.Slug = strings.ReplaceAll(b.Table, "_", "-")
	}
	if b.NamePlural == "" {
		b.NamePlural = b.Table
	}
	if b.NameSingular == "" {
		b.NameSingular = strings.TrimSuffix(b.NamePlural, "s")
	}
	for _, l := range b.Layouts {
		if l == nil {
			return fmt.Errorf("bread %s: nil layout", b.Slug)
		}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("bread %s: %w", b.Slug, err)
		}
	}
	return nil
}

func (b *Bread) layout(kind, name string) *Layout {
	for _, l := range b.Layouts {
		if l.Type != kind {
			continue
		}
		if name == "" || l.Name == name {
			return l
		}
	}
	return nil
}

// ListLayout returns the layout used for browsing, or nil
func (b *Bread) ListLayout() *Layout {
	return b.layout(LayoutList, b.ListLayoutName)
}

// ViewLayout returns the layout used for reading, editing and adding, or nil
func (b *Bread) ViewLayout() *Layout {
	return b.layout(LayoutView, b.ViewLayoutName)
}

// Model returns the resolved model, nil before the bread is added to a Store
func (b *Bread) Model() *modelregistry.Model {
	return b.model
}

// SetModel attaches a resolved model
func (b *Bread) SetModel(m *modelregistry.Model) {
	b.model = m
}

// GetComputedProperties returns the model's accessor names, sorted
func (b *Bread) GetComputedProperties() []string {
	if b.model == nil || len(b.model.Accessors) == 0 {
		return nil
	}
	names := make([]string, 0, len(b.model.Accessors))
	for name := range b.model.Accessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
