package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// BunAdapter adapts Bun to work with our Database interface.
// It wraps either a *bun.DB or a transaction.
type BunAdapter struct {
	db bun.IDB
}

// NewBunAdapter creates a new Bun adapter
func NewBunAdapter(db *bun.DB) *BunAdapter {
	return &BunAdapter{db: db}
}

// InstrumentQueries records every statement in the metrics provider and,
// with debug set, logs it
func (b *BunAdapter) InstrumentQueries(debug bool) *BunAdapter {
	if db, ok := b.db.(*bun.DB); ok {
		db.AddQueryHook(&bunQueryHook{debug: debug})
		if debug {
			logger.Info("Bun query debug enabled")
		}
	}
	return b
}

func (b *BunAdapter) NewSelect() common.SelectQuery {
	return &BunSelectQuery{
		query: b.db.NewSelect(),
		db:    b.db,
	}
}

func (b *BunAdapter) NewInsert() common.InsertQuery {
	return &BunInsertQuery{query: b.db.NewInsert()}
}

func (b *BunAdapter) NewUpdate() common.UpdateQuery {
	return &BunUpdateQuery{query: b.db.NewUpdate()}
}

func (b *BunAdapter) NewDelete() common.DeleteQuery {
	return &BunDeleteQuery{query: b.db.NewDelete()}
}

func (b *BunAdapter) Exec(ctx context.Context, query string, args ...interface{}) (res common.Result, err error) {
	defer recoverQuery("BunAdapter.Exec", &err)
	result, err := b.db.ExecContext(ctx, query, args...)
	return &BunResult{result: result}, err
}

func (b *BunAdapter) Query(ctx context.Context, dest *[]map[string]interface{}, query string, args ...interface{}) (err error) {
	defer recoverQuery("BunAdapter.Query", &err)
	return b.db.NewRaw(query, args...).Scan(ctx, dest)
}

func (b *BunAdapter) RunInTransaction(ctx context.Context, fn func(common.Database) error) (err error) {
	defer recoverQuery("BunAdapter.RunInTransaction", &err)
	return b.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(&BunAdapter{db: &tx})
	})
}

func (b *BunAdapter) TableColumns(ctx context.Context, table string) ([]string, error) {
	query, args, err := columnListQuery(b.DriverName(), table)
	if err != nil {
		return nil, err
	}

	var columns []string
	if err := b.db.NewRaw(query, args...).Scan(ctx, &columns); err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	return columns, nil
}

func (b *BunAdapter) GetUnderlyingDB() interface{} {
	return b.db
}

func (b *BunAdapter) DriverName() string {
	return normalizeDriverName(b.db.Dialect().Name().String())
}

// BunSelectQuery implements SelectQuery for Bun
type BunSelectQuery struct {
	query     *bun.SelectQuery
	db        bun.IDB // Store DB connection for count queries and subqueries
	tableName string
}

func (b *BunSelectQuery) Table(table string) common.SelectQuery {
	b.query = b.query.Table(table)
	b.tableName = table
	return b
}

func (b *BunSelectQuery) Column(columns ...string) common.SelectQuery {
	b.query = b.query.Column(columns...)
	return b
}

func (b *BunSelectQuery) ColumnExpr(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.ColumnExpr(query, args...)
	return b
}

func (b *BunSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.WhereOr(query, args...)
	return b
}

func (b *BunSelectQuery) WhereGroup(fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	b.query = b.query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		inner := &BunSelectQuery{query: q, db: b.db, tableName: b.tableName}
		return unwrapBun(fn(inner), q)
	})
	return b
}

func (b *BunSelectQuery) WhereHas(rel common.Relation, parentTable string, fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	sub := b.db.NewSelect().
		TableExpr(rel.Table + " AS " + rel.Alias()).
		ColumnExpr("1")
	for _, join := range rel.Joins() {
		sub = sub.Join(join)
	}
	sub = sub.Where(rel.Correlation(parentTable))

	inner := &BunSelectQuery{query: sub, db: b.db, tableName: rel.Table}
	if fn != nil {
		sub = unwrapBun(fn(inner), sub)
	}

	b.query = b.query.Where("EXISTS (?)", sub)
	return b
}

// unwrapBun returns the bun query behind q, or fallback when q is foreign
func unwrapBun(q common.SelectQuery, fallback *bun.SelectQuery) *bun.SelectQuery {
	if bq, ok := q.(*BunSelectQuery); ok {
		return bq.query
	}
	return fallback
}

func (b *BunSelectQuery) Join(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.Join("JOIN "+query, args...)
	return b
}

func (b *BunSelectQuery) LeftJoin(query string, args ...interface{}) common.SelectQuery {
	b.query = b.query.Join("LEFT JOIN "+query, args...)
	return b
}

func (b *BunSelectQuery) Order(order string) common.SelectQuery {
	b.query = b.query.OrderExpr(order)
	return b
}

func (b *BunSelectQuery) OrderExpr(order string, args ...interface{}) common.SelectQuery {
	b.query = b.query.OrderExpr(order, args...)
	return b
}

func (b *BunSelectQuery) Limit(n int) common.SelectQuery {
	b.query = b.query.Limit(n)
	return b
}

func (b *BunSelectQuery) Offset(n int) common.SelectQuery {
	b.query = b.query.Offset(n)
	return b
}

func (b *BunSelectQuery) Scan(ctx context.Context, dest *[]map[string]interface{}) (err error) {
	defer recoverQuery("BunSelectQuery.Scan", &err)
	if err = b.query.Scan(ctx, dest); errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func (b *BunSelectQuery) Count(ctx context.Context) (count int, err error) {
	defer recoverQuery("BunSelectQuery.Count", &err)
	// Without a model bun cannot build COUNT(*) itself, so wrap as subquery
	countQuery := b.db.NewSelect().
		TableExpr("(?) AS subquery", b.query).
		ColumnExpr("COUNT(*)")
	err = countQuery.Scan(ctx, &count)
	return count, err
}

func (b *BunSelectQuery) Exists(ctx context.Context) (exists bool, err error) {
	defer recoverQuery("BunSelectQuery.Exists", &err)
	return b.query.Exists(ctx)
}

func (b *BunSelectQuery) String() string {
	return b.query.String()
}

// BunInsertQuery implements InsertQuery for Bun
type BunInsertQuery struct {
	query  *bun.InsertQuery
	values map[string]interface{}
}

func (b *BunInsertQuery) Table(table string) common.InsertQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunInsertQuery) Value(column string, value interface{}) common.InsertQuery {
	if b.values == nil {
		b.values = make(map[string]interface{})
	}
	b.values[column] = value
	return b
}

func (b *BunInsertQuery) Values(values map[string]interface{}) common.InsertQuery {
	for column, value := range values {
		b.Value(column, value)
	}
	return b
}

func (b *BunInsertQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer recoverQuery("BunInsertQuery.Exec", &err)
	if len(b.values) == 0 {
		return nil, fmt.Errorf("insert requires at least one value")
	}
	// Bun inserts map[string]interface{} directly
	b.query = b.query.Model(&b.values)
	result, err := b.query.Exec(ctx)
	return &BunResult{result: result}, err
}

// BunUpdateQuery implements UpdateQuery for Bun
type BunUpdateQuery struct {
	query *bun.UpdateQuery
}

func (b *BunUpdateQuery) Table(table string) common.UpdateQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunUpdateQuery) Set(column string, value interface{}) common.UpdateQuery {
	b.query = b.query.Set("? = ?", bun.Ident(column), value)
	return b
}

func (b *BunUpdateQuery) SetMap(values map[string]interface{}) common.UpdateQuery {
	for _, column := range sortedKeys(values) {
		b.Set(column, values[column])
	}
	return b
}

func (b *BunUpdateQuery) Where(query string, args ...interface{}) common.UpdateQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunUpdateQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer recoverQuery("BunUpdateQuery.Exec", &err)
	result, err := b.query.Exec(ctx)
	return &BunResult{result: result}, err
}

// BunDeleteQuery implements DeleteQuery for Bun
type BunDeleteQuery struct {
	query *bun.DeleteQuery
}

func (b *BunDeleteQuery) Table(table string) common.DeleteQuery {
	b.query = b.query.Table(table)
	return b
}

func (b *BunDeleteQuery) Where(query string, args ...interface{}) common.DeleteQuery {
	b.query = b.query.Where(query, args...)
	return b
}

func (b *BunDeleteQuery) Exec(ctx context.Context) (res common.Result, err error) {
	defer recoverQuery("BunDeleteQuery.Exec", &err)
	result, err := b.query.Exec(ctx)
	return &BunResult{result: result}, err
}

// BunResult implements Result for Bun
type BunResult struct {
	result sql.Result
}

func (b *BunResult) RowsAffected() int64 {
	if b.result == nil {
		return 0
	}
	rows, _ := b.result.RowsAffected()
	return rows
}

func (b *BunResult) LastInsertId() (int64, error) {
	if b.result == nil {
		return 0, nil
	}
	return b.result.LastInsertId()
}
