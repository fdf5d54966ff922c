package formfield

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Relationship displays values read through a relation ("author.name",
// "tags.name"). It has nothing to store of its own.
type Relationship struct {
	Base
}

func NewRelationship() *Relationship {
	return &Relationship{Base{Name: "relationship"}}
}

// Browse joins plucked collections for list display
func (r *Relationship) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	if list, ok := value.([]interface{}); ok {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, cast.ToString(v))
		}
		return map[string]interface{}{c.Column(): strings.Join(parts, ", ")}
	}
	return map[string]interface{}{c.Column(): value}
}

func (r *Relationship) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (r *Relationship) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}
