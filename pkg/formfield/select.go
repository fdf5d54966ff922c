package formfield

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Select chooses from the "options" option, a map of stored key to label.
// With the "multiple" option the keys are stored as a JSON array.
type Select struct {
	Base
}

func NewSelect() *Select {
	return &Select{Base{Name: "select"}}
}

func (s *Select) labels(c Context) map[string]string {
	if c.Field == nil {
		return nil
	}
	v, _ := c.Field.Option("options")
	return cast.ToStringMapString(v)
}

func (s *Select) multiple(c Context) bool {
	return c.Field != nil && c.Field.OptionBool("multiple")
}

// Browse shows labels instead of keys
func (s *Select) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	labels := s.labels(c)
	label := func(key string) string {
		if l, ok := labels[key]; ok {
			return l
		}
		return key
	}
	if s.multiple(c) {
		keys := decodeList(value)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, label(k))
		}
		return map[string]interface{}{c.Column(): out}
	}
	if value == nil {
		return map[string]interface{}{c.Column(): nil}
	}
	return map[string]interface{}{c.Column(): label(cast.ToString(value))}
}

func (s *Select) Edit(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	if s.multiple(c) {
		return map[string]interface{}{c.Column(): decodeList(value)}
	}
	return map[string]interface{}{c.Column(): value}
}

func (s *Select) Show(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return s.Browse(c, value, rec)
}

func (s *Select) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	if !s.multiple(c) {
		return map[string]interface{}{c.Column(): value}, nil
	}
	data, err := json.Marshal(decodeList(value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Column(), err)
	}
	return map[string]interface{}{c.Column(): string(data)}, nil
}

func (s *Select) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return s.Store(c, value, old, rec, input)
}

// Query matches the key exactly, or as a substring of the stored list
func (s *Select) Query(c Context, query common.SelectQuery, column string, value interface{}) common.SelectQuery {
	if s.multiple(c) {
		return query.Where(column+" LIKE ?", "%\""+cast.ToString(value)+"\"%")
	}
	return query.Where(column+" = ?", cast.ToString(value))
}
