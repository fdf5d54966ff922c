package database

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// GormAdapter adapts GORM to work with our Database interface
type GormAdapter struct {
	db *gorm.DB
}

// NewGormAdapter creates a new GORM adapter
func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

// InstrumentQueries records every statement in the metrics provider and,
// with debug set, logs it through gorm's logger
func (g *GormAdapter) InstrumentQueries(debug bool) *GormAdapter {
	if err := registerGormMetrics(g.db); err != nil {
		logger.Warn("Failed to register GORM metrics callbacks: %v", err)
	}
	if debug {
		g.db = g.db.Debug()
		logger.Info("GORM query debug enabled")
	}
	return g
}

func (g *GormAdapter) session() *gorm.DB {
	return g.db.Session(&gorm.Session{NewDB: true})
}

func (g *GormAdapter) NewSelect() common.SelectQuery {
	return &GormSelectQuery{db: g.session()}
}

func (g *GormAdapter) NewInsert() common.InsertQuery {
	return &GormInsertQuery{db: g.session()}
}

func (g *GormAdapter) NewUpdate() common.UpdateQuery {
	return &GormUpdateQuery{db: g.session()}
}

func (g *GormAdapter) NewDelete() common.DeleteQuery {
	return &GormDeleteQuery{db: g.session()}
}

func (g *GormAdapter) Exec(ctx context.Context, query string, args ...interface{}) (res common.Result, err error) {
	defer recoverQuery("GormAdapter.Exec", &err)
	info := gorm.WithResult()
	result := g.db.WithContext(ctx).Clauses(info).Exec(query, args...)
	return &GormResult{rowsAffected: result.RowsAffected, result: info.Result}, result.Error
}

func (g *GormAdapter) Query(ctx context.Context, dest *[]map[string]interface{}, query string, args ...interface{}) (err error) {
	defer recoverQuery("GormAdapter.Query", &err)
	return g.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

func (g *GormAdapter) RunInTransaction(ctx context.Context, fn func(common.Database) error) (err error) {
	defer recoverQuery("GormAdapter.RunInTransaction", &err)
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormAdapter{db: tx})
	})
}

func (g *GormAdapter) TableColumns(ctx context.Context, table string) ([]string, error) {
	query, args, err := columnListQuery(g.DriverName(), table)
	if err != nil {
		return nil, err
	}

	var columns []string
	if err := g.db.WithContext(ctx).Raw(query, args...).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	return columns, nil
}

func (g *GormAdapter) GetUnderlyingDB() interface{} {
	return g.db
}

func (g *GormAdapter) DriverName() string {
	return normalizeDriverName(g.db.Dialector.Name())
}

// GormSelectQuery implements SelectQuery for GORM
type GormSelectQuery struct {
	db *gorm.DB
}

func (g *GormSelectQuery) Table(table string) common.SelectQuery {
	g.db = g.db.Table(table)
	return g
}

func (g *GormSelectQuery) Column(columns ...string) common.SelectQuery {
	g.db = g.db.Select(columns)
	return g
}

func (g *GormSelectQuery) ColumnExpr(query string, args ...interface{}) common.SelectQuery {
	if len(args) > 0 {
		g.db = g.db.Select(query, args...)
	} else {
		g.db = g.db.Select(query)
	}
	return g
}

func (g *GormSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Where(query, args...)
	return g
}

func (g *GormSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Or(query, args...)
	return g
}

func (g *GormSelectQuery) WhereGroup(fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	inner := &GormSelectQuery{db: g.db.Session(&gorm.Session{NewDB: true})}
	if gq, ok := fn(inner).(*GormSelectQuery); ok {
		// gorm renders the conditions of a *gorm.DB argument as one parenthesised group
		g.db = g.db.Where(gq.db)
	}
	return g
}

func (g *GormSelectQuery) WhereHas(rel common.Relation, parentTable string, fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	sub := g.db.Session(&gorm.Session{NewDB: true}).
		Table(rel.Table + " AS " + rel.Alias()).
		Select("1")
	for _, join := range rel.Joins() {
		sub = sub.Joins(join)
	}
	sub = sub.Where(rel.Correlation(parentTable))

	inner := &GormSelectQuery{db: sub}
	if fn != nil {
		if gq, ok := fn(inner).(*GormSelectQuery); ok {
			sub = gq.db
		}
	}

	g.db = g.db.Where("EXISTS (?)", sub)
	return g
}

func (g *GormSelectQuery) Join(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Joins("JOIN "+query, args...)
	return g
}

func (g *GormSelectQuery) LeftJoin(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Joins("LEFT JOIN "+query, args...)
	return g
}

func (g *GormSelectQuery) Order(order string) common.SelectQuery {
	g.db = g.db.Order(order)
	return g
}

func (g *GormSelectQuery) OrderExpr(order string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Order(gorm.Expr(order, args...))
	return g
}

func (g *GormSelectQuery) Limit(n int) common.SelectQuery {
	g.db = g.db.Limit(n)
	return g
}

func (g *GormSelectQuery) Offset(n int) common.SelectQuery {
	g.db = g.db.Offset(n)
	return g
}

func (g *GormSelectQuery) Scan(ctx context.Context, dest *[]map[string]interface{}) (err error) {
	defer recoverQuery("GormSelectQuery.Scan", &err)
	err = g.db.WithContext(ctx).Find(dest).Error
	if err != nil {
		// Log SQL string for debugging
		logger.Error("GormSelectQuery.Scan failed. SQL: %s. Error: %v", g.String(), err)
	}
	return err
}

func (g *GormSelectQuery) Count(ctx context.Context) (count int, err error) {
	defer recoverQuery("GormSelectQuery.Count", &err)
	var count64 int64
	err = g.db.WithContext(ctx).Count(&count64).Error
	if err != nil {
		sqlStr := g.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return tx.Count(&count64)
		})
		logger.Error("GormSelectQuery.Count failed. SQL: %s. Error: %v", sqlStr, err)
	}
	return int(count64), err
}

func (g *GormSelectQuery) Exists(ctx context.Context) (exists bool, err error) {
	defer recoverQuery("GormSelectQuery.Exists", &err)
	var rows []map[string]interface{}
	err = g.db.WithContext(ctx).Limit(1).Find(&rows).Error
	if err != nil {
		logger.Error("GormSelectQuery.Exists failed. SQL: %s. Error: %v", g.String(), err)
	}
	return len(rows) > 0, err
}

func (g *GormSelectQuery) String() string {
	return g.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Find(&[]map[string]interface{}{})
	})
}

// GormInsertQuery implements InsertQuery for GORM
type GormInsertQuery struct {
	db     *gorm.DB
	values map[string]interface{}
}

func (g *GormInsertQuery) Table(table string) common.InsertQuery {
	g.db = g.db.Table(table)
	return g
}

func (g *GormInsertQuery) Value(column string, value interface{}) common.InsertQuery {
	if g.values == nil {
		g.values = make(map[string]interface{})
	}
	g.values[column] = value
	return g
}

func (g *GormInsertQuery) Values(values map[string]interface{}) common.InsertQuery {
	for column, value := range values {
		g.Value(column, value)
	}
	return g
}

func (g *GormInsertQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer recoverQuery("GormInsertQuery.Exec", &err)
	if len(g.values) == 0 {
		return nil, fmt.Errorf("insert requires at least one value")
	}
	info := gorm.WithResult()
	result := g.db.WithContext(ctx).Clauses(info).Create(g.values)
	if result.Error != nil {
		sqlStr := g.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return tx.Create(g.values)
		})
		logger.Error("GormInsertQuery.Exec failed. SQL: %s. Error: %v", sqlStr, result.Error)
	}
	return &GormResult{rowsAffected: result.RowsAffected, result: info.Result}, result.Error
}

// GormUpdateQuery implements UpdateQuery for GORM
type GormUpdateQuery struct {
	db      *gorm.DB
	updates map[string]interface{}
}

func (g *GormUpdateQuery) Table(table string) common.UpdateQuery {
	g.db = g.db.Table(table)
	return g
}

func (g *GormUpdateQuery) Set(column string, value interface{}) common.UpdateQuery {
	if g.updates == nil {
		g.updates = make(map[string]interface{})
	}
	g.updates[column] = value
	return g
}

func (g *GormUpdateQuery) SetMap(values map[string]interface{}) common.UpdateQuery {
	for column, value := range values {
		g.Set(column, value)
	}
	return g
}

func (g *GormUpdateQuery) Where(query string, args ...interface{}) common.UpdateQuery {
	g.db = g.db.Where(query, args...)
	return g
}

func (g *GormUpdateQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer recoverQuery("GormUpdateQuery.Exec", &err)
	if len(g.updates) == 0 {
		return &GormResult{}, nil
	}
	result := g.db.WithContext(ctx).Updates(g.updates)
	if result.Error != nil {
		sqlStr := g.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return tx.Updates(g.updates)
		})
		logger.Error("GormUpdateQuery.Exec failed. SQL: %s. Error: %v", sqlStr, result.Error)
	}
	return &GormResult{rowsAffected: result.RowsAffected}, result.Error
}

// GormDeleteQuery implements DeleteQuery for GORM
type GormDeleteQuery struct {
	db *gorm.DB
}

func (g *GormDeleteQuery) Table(table string) common.DeleteQuery {
	g.db = g.db.Table(table)
	return g
}

func (g *GormDeleteQuery) Where(query string, args ...interface{}) common.DeleteQuery {
	g.db = g.db.Where(query, args...)
	return g
}

func (g *GormDeleteQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer recoverQuery("GormDeleteQuery.Exec", &err)
	// Table-only delete: the map destination carries no schema
	result := g.db.WithContext(ctx).Delete(map[string]interface{}{})
	if result.Error != nil {
		sqlStr := g.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			return tx.Delete(map[string]interface{}{})
		})
		logger.Error("GormDeleteQuery.Exec failed. SQL: %s. Error: %v", sqlStr, result.Error)
	}
	return &GormResult{rowsAffected: result.RowsAffected}, result.Error
}

// GormResult implements Result for GORM
type GormResult struct {
	rowsAffected int64
	result       sql.Result
}

func (g *GormResult) RowsAffected() int64 {
	return g.rowsAffected
}

func (g *GormResult) LastInsertId() (int64, error) {
	if g.result == nil {
		return 0, nil
	}
	return g.result.LastInsertId()
}
