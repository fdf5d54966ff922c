package formfield

import (
	"fmt"
	"math"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Number stores numeric input as int64 when it is whole, float64 otherwise.
// Empty input stores NULL.
type Number struct {
	Base
}

func NewNumber() *Number {
	return &Number{Base{Name: "number"}}
}

func (n *Number) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	v, err := toNumber(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Column(), err)
	}
	return map[string]interface{}{c.Column(): v}, nil
}

func (n *Number) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return n.Store(c, value, old, rec, input)
}

// Query matches the number exactly; a non-numeric filter matches nothing
func (n *Number) Query(c Context, query common.SelectQuery, column string, value interface{}) common.SelectQuery {
	v, err := toNumber(value)
	if err != nil || v == nil {
		return query.Where("1 = 0")
	}
	return query.Where(column+" = ?", v)
}

func toNumber(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt64(v), nil
	case string:
		if v == "" {
			return nil, nil
		}
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return nil, fmt.Errorf("'%v' is not a number", value)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), nil
	}
	return f, nil
}
