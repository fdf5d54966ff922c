package formfield

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/record"
)

// RichText holds HTML. Stored and shown HTML is sanitised; browsing strips
// all markup.
type RichText struct {
	Base
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewRichText() *RichText {
	return &RichText{
		Base:   Base{Name: "rich_text_editor"},
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

func (rt *RichText) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	v := browseValue(c, value)
	if v == nil {
		return map[string]interface{}{c.Column(): nil}
	}
	return map[string]interface{}{c.Column(): strings.TrimSpace(rt.strict.Sanitize(cast.ToString(v)))}
}

func (rt *RichText) Show(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): rt.sanitize(editValue(c, value))}
}

func (rt *RichText) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	v, err := storeValue(c, rt.sanitize(value), old)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{c.Column(): v}, nil
}

func (rt *RichText) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return rt.Store(c, value, old, rec, input)
}

// sanitize cleans a string or every string of a per-locale map
func (rt *RichText) sanitize(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return rt.ugc.Sanitize(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, s := range v {
			if str, ok := s.(string); ok {
				out[k] = rt.ugc.Sanitize(str)
			} else {
				out[k] = s
			}
		}
		return out
	default:
		return value
	}
}
