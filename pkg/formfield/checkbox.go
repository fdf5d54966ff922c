package formfield

import (
	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Checkbox reads any truthy value as a bool. It stores 1/0 when the previous
// value was numeric so integer flag columns keep their type.
type Checkbox struct {
	Base
}

func NewCheckbox() *Checkbox {
	return &Checkbox{Base{Name: "checkbox"}}
}

func (cb *Checkbox) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): cast.ToBool(value)}
}

func (cb *Checkbox) Edit(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return cb.Browse(c, value, rec)
}

func (cb *Checkbox) Show(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return cb.Browse(c, value, rec)
}

func (cb *Checkbox) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	checked := cast.ToBool(value)
	switch old.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if checked {
			return map[string]interface{}{c.Column(): int64(1)}, nil
		}
		return map[string]interface{}{c.Column(): int64(0)}, nil
	}
	return map[string]interface{}{c.Column(): checked}, nil
}

func (cb *Checkbox) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return cb.Store(c, value, old, rec, input)
}

func (cb *Checkbox) Query(c Context, query common.SelectQuery, column string, value interface{}) common.SelectQuery {
	if cast.ToBool(value) {
		return query.Where(column+" = ?", true)
	}
	return query.WhereGroup(func(q common.SelectQuery) common.SelectQuery {
		return q.Where(column+" = ?", false).WhereOr(column + " IS NULL")
	})
}
