// Package formfield implements the per-type behaviour of layout fields:
// how a stored value is shown, edited and stored again, and how a filter on
// the field narrows a query.
package formfield

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/locale"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Context is what a formfield knows about the field it is called for
type Context struct {
	Field  *bread.Formfield
	Locale locale.Context
}

func (c Context) Column() string {
	if c.Field == nil {
		return ""
	}
	return c.Field.Column
}

func (c Context) Translatable() bool {
	return c.Field != nil && c.Field.Translatable
}

// Formfield is implemented by every field type.
// The read methods return attributes to merge into the record; the write
// methods return column values to persist.
type Formfield interface {
	Type() string
	Browse(c Context, value interface{}, rec *record.Record) map[string]interface{}
	Edit(c Context, value interface{}, rec *record.Record) map[string]interface{}
	Show(c Context, value interface{}, rec *record.Record) map[string]interface{}
	Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error)
	Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error)
	Query(c Context, query common.SelectQuery, column string, value interface{}) common.SelectQuery
}

// Registry maps type names to formfields
type Registry struct {
	fields map[string]Formfield
	mu     sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]Formfield)}
}

// NewDefaultRegistry returns a registry holding the built-in types
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, f := range Builtins() {
		_ = r.Register(f)
	}
	return r
}

// Builtins returns one instance of every built-in type
func Builtins() []Formfield {
	return []Formfield{
		NewText(),
		NewNumber(),
		NewCheckbox(),
		NewSelect(),
		NewRichText(),
		NewPassword(),
		NewTags(),
		NewRelationship(),
	}
}

// Register adds f; a type can only be registered once
func (r *Registry) Register(f Formfield) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fields[f.Type()]; exists {
		return fmt.Errorf("formfield %s already registered", f.Type())
	}
	r.fields[f.Type()] = f
	return nil
}

func (r *Registry) Get(typ string) (Formfield, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fields[typ]
	return f, ok
}

// Types returns the registered type names, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fields))
	for t := range r.fields {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Base passes values through unchanged, except that translatable values are
// read and written per locale. Types embed it and override what differs.
type Base struct {
	Name string
}

func (b Base) Type() string {
	return b.Name
}

func (b Base) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): browseValue(c, value)}
}

func (b Base) Edit(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): editValue(c, value)}
}

func (b Base) Show(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): editValue(c, value)}
}

func (b Base) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	v, err := storeValue(c, value, old)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{c.Column(): v}, nil
}

func (b Base) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return b.Store(c, value, old, rec, input)
}

// Query adds column LIKE '%value%'
func (b Base) Query(c Context, query common.SelectQuery, column string, value interface{}) common.SelectQuery {
	return query.Where(column+" LIKE ?", "%"+cast.ToString(value)+"%")
}

// browseValue picks the active locale out of a translatable value
func browseValue(c Context, value interface{}) interface{} {
	if !c.Translatable() {
		return value
	}
	switch v := value.(type) {
	case map[string]interface{}:
		if s, ok := v[c.Locale.Locale]; ok {
			return s
		}
		if s, ok := v[c.Locale.Fallback]; ok {
			return s
		}
		return ""
	case nil:
		return value
	default:
		return locale.Get(cast.ToString(v), c.Locale.Locale, c.Locale.Fallback)
	}
}

// editValue decodes a stored translation blob so every locale can be edited
func editValue(c Context, value interface{}) interface{} {
	if !c.Translatable() || value == nil {
		return value
	}
	if _, ok := value.(map[string]interface{}); ok {
		return value
	}
	if m, ok := locale.Decode(cast.ToString(value)); ok {
		return m
	}
	return value
}

// storeValue writes a single-locale string into the existing translation blob.
// Structured values are returned as-is and encoded by the caller.
func storeValue(c Context, value, old interface{}) (interface{}, error) {
	if !c.Translatable() {
		return value, nil
	}
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return locale.Set(blobString(old), c.Locale.Locale, s)
}

func blobString(v interface{}) string {
	switch t := v.(type) {
	case map[string]interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return cast.ToString(v)
	}
}
