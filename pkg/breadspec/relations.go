package breadspec

import (
	"context"
	"fmt"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/modelregistry"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// RelationLoader loads one named relation of rec and stores it with SetRelation
type RelationLoader interface {
	Load(ctx context.Context, rec *record.Record, b *bread.Bread, name string) error
}

// DBRelationLoader loads relations with one query per relation and record
type DBRelationLoader struct {
	db     common.Database
	models *modelregistry.DefaultModelRegistry
}

// NewDBRelationLoader creates a loader. models gives related records their
// primary key and accessors; nil uses the default registry.
func NewDBRelationLoader(db common.Database, models *modelregistry.DefaultModelRegistry) *DBRelationLoader {
	if models == nil {
		models = modelregistry.GetDefaultRegistry()
	}
	return &DBRelationLoader{db: db, models: models}
}

func (l *DBRelationLoader) Load(ctx context.Context, rec *record.Record, b *bread.Bread, name string) error {
	rel, ok := b.Model().Relation(name)
	if !ok {
		return fmt.Errorf("bread %s has no relation %s", b.Slug, name)
	}

	parent := rec.Get(rel.ParentKey())
	if parent == nil {
		if rel.IsMany() {
			rec.SetRelation(name, record.Collection{})
		} else {
			rec.SetRelation(name, nil)
		}
		return nil
	}

	var rows []map[string]interface{}
	if err := l.query(rel, parent).Scan(ctx, &rows); err != nil {
		return err
	}

	primaryKey := "id"
	if m, err := l.models.GetModelByTable(rel.Table); err == nil {
		primaryKey = m.Key()
	}
	related := make(record.Collection, 0, len(rows))
	for _, row := range rows {
		related = append(related, record.FromMap(rel.Table, primaryKey, row).WithAccessors(l.models))
	}

	switch {
	case rel.IsMany():
		rec.SetRelation(name, related)
	case len(related) == 0:
		rec.SetRelation(name, nil)
	default:
		rec.SetRelation(name, related[0])
	}
	return nil
}

func (l *DBRelationLoader) query(rel common.Relation, parent interface{}) common.SelectQuery {
	q := l.db.NewSelect().Table(rel.Table)
	switch rel.Type {
	case common.RelationBelongsTo:
		return q.Where(rel.Table+"."+rel.OwnerColumn()+" = ?", parent).Limit(1)
	case common.RelationBelongsToMany:
		return q.ColumnExpr(rel.Table+".*").
			Join(fmt.Sprintf("%s ON %s.%s = %s.%s",
				rel.PivotTable, rel.PivotTable, rel.RelatedPivotKey, rel.Table, rel.OwnerColumn())).
			Where(rel.PivotTable+"."+rel.ForeignPivotKey+" = ?", parent)
	case common.RelationHasOne:
		return q.Where(rel.Table+"."+rel.ForeignKey+" = ?", parent).Limit(1)
	default:
		return q.Where(rel.Table+"."+rel.ForeignKey+" = ?", parent)
	}
}
