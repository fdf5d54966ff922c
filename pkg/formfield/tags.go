package formfield

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Tags stores a list of strings as a JSON array. Input may be a list or a
// comma separated string.
type Tags struct {
	Base
}

func NewTags() *Tags {
	return &Tags{Base{Name: "tags"}}
}

func (t *Tags) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): strings.Join(decodeList(value), ", ")}
}

func (t *Tags) Edit(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): decodeList(value)}
}

func (t *Tags) Show(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return t.Edit(c, value, rec)
}

func (t *Tags) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(decodeList(value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Column(), err)
	}
	return map[string]interface{}{c.Column(): string(data)}, nil
}

func (t *Tags) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return t.Store(c, value, old, rec, input)
}

// decodeList accepts a list, a JSON array string or a comma separated string
func decodeList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []interface{}:
		return cast.ToStringSlice(v)
	}
	s := strings.TrimSpace(cast.ToString(value))
	if s == "" {
		return []string{}
	}
	if strings.HasPrefix(s, "[") {
		var list []interface{}
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return cast.ToStringSlice(list)
		}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
