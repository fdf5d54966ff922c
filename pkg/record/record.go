// Package record holds the map-backed row type the BREAD pipeline reads and mutates.
package record

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Accessor computes a derived attribute from a record
type Accessor func(r *Record) interface{}

// AccessorSource resolves accessors by table and attribute name.
// modelregistry implements it so records can evaluate appended properties on output.
type AccessorSource interface {
	Accessor(table, name string) (Accessor, bool)
}

// Record is one row of a bread table: sparse attributes keyed by column name,
// eager-loaded relations and the names of appended computed properties.
type Record struct {
	table      string
	primaryKey string
	attributes map[string]interface{}
	order      []string
	relations  map[string]interface{}
	appends    []string
	accessors  AccessorSource
}

// New creates an empty record for table. An empty primaryKey means "id".
func New(table, primaryKey string) *Record {
	if primaryKey == "" {
		primaryKey = "id"
	}
	return &Record{
		table:      table,
		primaryKey: primaryKey,
		attributes: make(map[string]interface{}),
		relations:  make(map[string]interface{}),
	}
}

// FromMap creates a record from a scanned row. Keys are kept in sorted order
// since map iteration carries no column order.
func FromMap(table, primaryKey string, row map[string]interface{}) *Record {
	r := New(table, primaryKey)
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, row[k])
	}
	return r
}

// WithAccessors sets the source used to evaluate appended properties
func (r *Record) WithAccessors(src AccessorSource) *Record {
	r.accessors = src
	return r
}

func (r *Record) Table() string {
	return r.table
}

func (r *Record) PrimaryKey() string {
	return r.primaryKey
}

// Has reports whether column is set, even to nil
func (r *Record) Has(column string) bool {
	_, ok := r.attributes[column]
	return ok
}

// Get returns the attribute value, nil when unset
func (r *Record) Get(column string) interface{} {
	return r.attributes[column]
}

func (r *Record) Set(column string, value interface{}) {
	if _, ok := r.attributes[column]; !ok {
		r.order = append(r.order, column)
	}
	r.attributes[column] = value
}

// Unset removes an attribute
func (r *Record) Unset(column string) {
	if _, ok := r.attributes[column]; !ok {
		return
	}
	delete(r.attributes, column)
	for i, c := range r.order {
		if c == column {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Key returns the primary key value
func (r *Record) Key() interface{} {
	return r.attributes[r.primaryKey]
}

// Exists reports whether the record carries a primary key value
func (r *Record) Exists() bool {
	return r.Key() != nil
}

// Attributes returns a copy of the attribute map
func (r *Record) Attributes() map[string]interface{} {
	out := make(map[string]interface{}, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// Columns returns the attribute names in the order they were first set
func (r *Record) Columns() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Relation returns a loaded relation: *Record, Collection, or nil
func (r *Record) Relation(name string) interface{} {
	return r.relations[name]
}

// SetRelation stores a loaded relation. value is *Record, Collection or nil.
func (r *Record) SetRelation(name string, value interface{}) {
	r.relations[name] = value
}

// RelationLoaded reports whether SetRelation was called for name
func (r *Record) RelationLoaded(name string) bool {
	_, ok := r.relations[name]
	return ok
}

// Append adds computed property names; duplicates are ignored
func (r *Record) Append(names ...string) {
	for _, name := range names {
		found := false
		for _, existing := range r.appends {
			if existing == name {
				found = true
				break
			}
		}
		if !found {
			r.appends = append(r.appends, name)
		}
	}
}

// Appends returns the computed property names
func (r *Record) Appends() []string {
	return append([]string(nil), r.appends...)
}

// Pluck reads column off a single related record or across a collection.
// Missing relations give "".
func Pluck(rel interface{}, column string) interface{} {
	switch v := rel.(type) {
	case *Record:
		if v == nil {
			return ""
		}
		return v.Get(column)
	case Collection:
		return v.Pluck(column)
	case []*Record:
		return Collection(v).Pluck(column)
	default:
		return ""
	}
}

// MarshalJSON writes attributes in set order, then relations by name, then
// appended properties evaluated through the accessor source.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, col := range r.order {
		if err := write(col, r.attributes[col]); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(r.relations))
	for name := range r.relations {
		if _, clash := r.attributes[name]; !clash {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := write(name, r.relations[name]); err != nil {
			return nil, err
		}
	}

	for _, name := range r.appends {
		if _, clash := r.attributes[name]; clash {
			continue
		}
		var value interface{}
		if r.accessors != nil {
			if fn, ok := r.accessors.Accessor(r.table, name); ok {
				value = fn(r)
			}
		}
		if err := write(name, value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Collection is an ordered list of records
type Collection []*Record

// Pluck returns column from every record, in order
func (c Collection) Pluck(column string) []interface{} {
	out := make([]interface{}, 0, len(c))
	for _, r := range c {
		out = append(out, r.Get(column))
	}
	return out
}

// Keys returns the primary key of every record
func (c Collection) Keys() []interface{} {
	out := make([]interface{}, 0, len(c))
	for _, r := range c {
		out = append(out, r.Key())
	}
	return out
}
