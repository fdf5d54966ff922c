package bread

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/locale"
)

// Layout types
const (
	LayoutList = "list"
	LayoutView = "view"
)

// Rule is one validation rule of a formfield, e.g. "max:255", with an
// optional message that may be translated.
type Rule struct {
	Rule    string      `json:"rule" yaml:"rule"`
	Message locale.Text `json:"message" yaml:"message"`
}

// Name is the rule text before its first ':'
func (r Rule) Name() string {
	name, _, _ := strings.Cut(r.Rule, ":")
	return name
}

// Formfield is one field of a layout. Column may be "column",
// "relation.column" or "relation.pivot.column".
type Formfield struct {
	Type         string                 `json:"type" yaml:"type"`
	Column       string                 `json:"column" yaml:"column"`
	Title        locale.Text            `json:"title" yaml:"title"`
	Translatable bool                   `json:"translatable" yaml:"translatable"`
	Searchable   bool                   `json:"searchable" yaml:"searchable"`
	Orderable    bool                   `json:"orderable" yaml:"orderable"`
	Rules        []Rule                 `json:"rules" yaml:"rules"`
	Options      map[string]interface{} `json:"options" yaml:"options"`
}

// IsRelationship reports whether the column reaches into a relation
func (f *Formfield) IsRelationship() bool {
	return strings.Contains(f.Column, ".")
}

// Option returns a raw option value
func (f *Formfield) Option(key string) (interface{}, bool) {
	if f.Options == nil {
		return nil, false
	}
	v, ok := f.Options[key]
	return v, ok
}

func (f *Formfield) OptionString(key string) string {
	v, _ := f.Option(key)
	return cast.ToString(v)
}

func (f *Formfield) OptionBool(key string) bool {
	v, _ := f.Option(key)
	return cast.ToBool(v)
}

func (f *Formfield) OptionInt(key string) int {
	v, _ := f.Option(key)
	return cast.ToInt(v)
}

func (f *Formfield) OptionStringSlice(key string) []string {
	v, ok := f.Option(key)
	if !ok {
		return nil
	}
	return cast.ToStringSlice(v)
}

// Layout is an ordered set of formfields used to browse (list) or to read
// and edit (view) a bread.
type Layout struct {
	Name       string                 `json:"name" yaml:"name"`
	Type       string                 `json:"type" yaml:"type"`
	Formfields []*Formfield           `json:"formfields" yaml:"formfields"`
	Options    map[string]interface{} `json:"options" yaml:"options"`
}

// Validate checks the layout type and that every formfield has a column and a type
func (l *Layout) Validate() error {
	if l.Type != LayoutList && l.Type != LayoutView {
		return fmt.Errorf("layout %s: type must be '%s' or '%s', got '%s'", l.Name, LayoutList, LayoutView, l.Type)
	}
	for i, f := range l.Formfields {
		if f == nil || f.Column == "" || f.Type == "" {
			return fmt.Errorf("layout %s: formfield %d requires a column and a type", l.Name, i)
		}
	}
	return nil
}

// SearchableColumns returns the columns of searchable formfields, in layout order
func (l *Layout) SearchableColumns() []string {
	var columns []string
	for _, f := range l.Formfields {
		if f.Searchable {
			columns = append(columns, f.Column)
		}
	}
	return columns
}

// Formfield returns the first formfield for column, or nil
func (l *Layout) Formfield(column string) *Formfield {
	for _, f := range l.Formfields {
		if f.Column == column {
			return f
		}
	}
	return nil
}

// IsFormfieldTranslatable reports whether column belongs to a translatable formfield
func (l *Layout) IsFormfieldTranslatable(column string) bool {
	f := l.Formfield(column)
	return f != nil && f.Translatable
}
