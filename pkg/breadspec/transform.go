package breadspec

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/logger"
	"github.com/bitechdev/BreadSpec/pkg/record"
	"github.com/bitechdev/BreadSpec/pkg/schema"
)

// Mode selects the formfield method used to transform a value
type Mode string

const (
	ModeBrowse Mode = "browse"
	ModeEdit   Mode = "edit"
	ModeShow   Mode = "show"
	ModeStore  Mode = "store"
	ModeUpdate Mode = "update"
)

// LoadAccessors appends the bread's computed properties to a record or to
// every record of a collection. Other values are left alone.
func (c *Controller) LoadAccessors(target interface{}, b *bread.Bread) {
	props := b.GetComputedProperties()
	switch v := target.(type) {
	case *record.Record:
		if v != nil {
			v.Append(props...)
		}
	case record.Collection:
		for _, rec := range v {
			rec.Append(props...)
		}
	case []*record.Record:
		for _, rec := range v {
			rec.Append(props...)
		}
	}
}

func (c *Controller) PrepareDataForEditing(ctx context.Context, rec *record.Record, b *bread.Bread, layout *bread.Layout) (*record.Record, error) {
	return c.PrepareDataForBrowsing(ctx, rec, b, layout, ModeEdit)
}

func (c *Controller) PrepareDataForReading(ctx context.Context, rec *record.Record, b *bread.Bread, layout *bread.Layout) (*record.Record, error) {
	return c.PrepareDataForBrowsing(ctx, rec, b, layout, ModeShow)
}

// PrepareDataForBrowsing runs every formfield of layout over rec in layout
// order and merges what each returns into rec. Relation columns
// ("author.name") load the relation when it is not loaded yet. mode is
// ModeBrowse, ModeEdit or ModeShow. The primary key is copied to "primary".
func (c *Controller) PrepareDataForBrowsing(ctx context.Context, rec *record.Record, b *bread.Bread, layout *bread.Layout, mode Mode) (*record.Record, error) {
	for _, field := range layout.Formfields {
		value, err := c.fieldValue(ctx, rec, b, field.Column)
		if err != nil {
			return nil, err
		}

		ff, fc := c.formfield(field)
		var out map[string]interface{}
		switch mode {
		case ModeEdit:
			out = ff.Edit(fc, value, rec)
		case ModeShow:
			out = ff.Show(fc, value, rec)
		default:
			out = ff.Browse(fc, value, rec)
		}
		for _, key := range sortedKeys(out) {
			rec.Set(key, out[key])
		}
	}
	rec.Set("primary", rec.Key())
	return rec, nil
}

// fieldValue reads column off rec, or off its relation for dotted columns.
// Anything unresolvable reads as "".
func (c *Controller) fieldValue(ctx context.Context, rec *record.Record, b *bread.Bread, column string) (interface{}, error) {
	if rec.Has(column) {
		return rec.Get(column), nil
	}
	if !strings.Contains(column, ".") {
		return "", nil
	}
	name, relColumn := splitRelation(column)
	if _, ok := b.Model().Relation(name); !ok && !rec.RelationLoaded(name) {
		logger.Debug("Column %s of bread %s names unknown relation %s", column, b.Slug, name)
		return "", nil
	}
	if !rec.RelationLoaded(name) {
		if c.env.Relations == nil {
			return nil, fmt.Errorf("cannot load relation %s: no relation loader configured", name)
		}
		if err := c.env.Relations.Load(ctx, rec, b, name); err != nil {
			return nil, fmt.Errorf("failed to load relation %s: %w", name, err)
		}
	}
	return record.Pluck(rec.Relation(name), relColumn), nil
}

func (c *Controller) PrepareDataForUpdating(ctx context.Context, input map[string]interface{}, rec *record.Record, b *bread.Bread, layout *bread.Layout) (*record.Record, error) {
	return c.PrepareDataForStoring(ctx, input, rec, b, layout, ModeUpdate)
}

// PrepareDataForStoring passes each submitted value through its formfield's
// Store (or Update, for ModeUpdate) and assigns the returned columns to rec.
//
// Structured values returned for translatable columns are JSON encoded.
// Returned columns are assigned only when the column of the formfield that
// produced them exists in the table, whatever the returned column names are.
func (c *Controller) PrepareDataForStoring(ctx context.Context, input map[string]interface{}, rec *record.Record, b *bread.Bread, layout *bread.Layout, mode Mode) (*record.Record, error) {
	if c.env.Columns == nil {
		return nil, fmt.Errorf("no column lister configured")
	}
	columns, err := c.env.Columns.Columns(ctx, b.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", b.Table, err)
	}

	for _, field := range layout.Formfields {
		value := input[field.Column]
		old := rec.Get(field.Column)

		ff, fc := c.formfield(field)
		var out map[string]interface{}
		if mode == ModeUpdate {
			out, err = ff.Update(fc, value, old, rec, input)
		} else {
			out, err = ff.Store(fc, value, old, rec, input)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.Column, err)
		}

		if !schema.Contains(columns, field.Column) {
			continue
		}
		for _, column := range sortedKeys(out) {
			val := out[column]
			if layout.IsFormfieldTranslatable(column) && isStructured(val) {
				encoded, err := json.Marshal(val)
				if err != nil {
					return nil, fmt.Errorf("%s: failed to encode translations: %w", column, err)
				}
				val = string(encoded)
			}
			rec.Set(column, val)
		}
	}
	return rec, nil
}

func isStructured(v interface{}) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
