package common

import "fmt"

// Relation types
const (
	RelationBelongsTo     = "belongsTo"
	RelationHasOne        = "hasOne"
	RelationHasMany       = "hasMany"
	RelationBelongsToMany = "belongsToMany"
)

// Relation describes how rows of a related table attach to a parent row.
//
//	belongsTo:     parent.ForeignKey      -> related.OwnerKey
//	hasOne/Many:   parent.LocalKey        -> related.ForeignKey
//	belongsToMany: parent.LocalKey        -> pivot.ForeignPivotKey,
//	               pivot.RelatedPivotKey  -> related.OwnerKey
type Relation struct {
	Name            string `json:"name" yaml:"name"`
	Type            string `json:"type" yaml:"type"`
	Table           string `json:"table" yaml:"table"`
	ForeignKey      string `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	OwnerKey        string `json:"owner_key,omitempty" yaml:"owner_key,omitempty"`
	LocalKey        string `json:"local_key,omitempty" yaml:"local_key,omitempty"`
	PivotTable      string `json:"pivot_table,omitempty" yaml:"pivot_table,omitempty"`
	ForeignPivotKey string `json:"foreign_pivot_key,omitempty" yaml:"foreign_pivot_key,omitempty"`
	RelatedPivotKey string `json:"related_pivot_key,omitempty" yaml:"related_pivot_key,omitempty"`
}

// Alias is the table alias used for the related table inside relation subqueries
func (r Relation) Alias() string {
	return r.Name
}

// IsMany reports whether the relation yields a collection
func (r Relation) IsMany() bool {
	return r.Type == RelationHasMany || r.Type == RelationBelongsToMany
}

// ParentKey is the column on the parent row the relation is keyed by
func (r Relation) ParentKey() string {
	if r.Type == RelationBelongsTo {
		if r.ForeignKey == "" {
			return r.Name + "_id"
		}
		return r.ForeignKey
	}
	if r.LocalKey == "" {
		return "id"
	}
	return r.LocalKey
}

// OwnerColumn is the unqualified key column on the related table that
// belongsTo and belongsToMany relations point at
func (r Relation) OwnerColumn() string {
	if r.OwnerKey == "" {
		return "id"
	}
	return r.OwnerKey
}

// RelatedKey is the qualified column that must equal the parent key
func (r Relation) RelatedKey() string {
	switch r.Type {
	case RelationBelongsTo:
		return r.Alias() + "." + r.OwnerColumn()
	case RelationBelongsToMany:
		return r.PivotTable + "." + r.ForeignPivotKey
	default:
		return r.Alias() + "." + r.ForeignKey
	}
}

// Joins returns the join clauses needed to reach the related table
func (r Relation) Joins() []string {
	if r.Type != RelationBelongsToMany {
		return nil
	}
	return []string{fmt.Sprintf("JOIN %s ON %s.%s = %s.%s",
		r.PivotTable, r.PivotTable, r.RelatedPivotKey, r.Alias(), r.OwnerColumn())}
}

// Correlation is the condition tying the related rows to parentTable
func (r Relation) Correlation(parentTable string) string {
	return r.RelatedKey() + " = " + parentTable + "." + r.ParentKey()
}

// Validate checks that the keys required by the relation type are present
func (r Relation) Validate() error {
	if r.Name == "" || r.Table == "" {
		return fmt.Errorf("relation requires a name and a table")
	}
	switch r.Type {
	case RelationBelongsTo:
	case RelationHasOne, RelationHasMany:
		if r.ForeignKey == "" {
			return fmt.Errorf("relation %s: %s requires foreign_key", r.Name, r.Type)
		}
	case RelationBelongsToMany:
		if r.PivotTable == "" || r.ForeignPivotKey == "" || r.RelatedPivotKey == "" {
			return fmt.Errorf("relation %s: belongsToMany requires pivot_table, foreign_pivot_key and related_pivot_key", r.Name)
		}
	default:
		return fmt.Errorf("relation %s: unknown type '%s'", r.Name, r.Type)
	}
	return nil
}
