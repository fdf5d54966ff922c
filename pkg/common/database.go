package common

import "context"

// Database is the schemaless query surface BREAD runs on. The bun and gorm
// adapters implement it; rows travel as map[string]interface{} keyed by column.
type Database interface {
	NewSelect() SelectQuery
	NewInsert() InsertQuery
	NewUpdate() UpdateQuery
	NewDelete() DeleteQuery

	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Query(ctx context.Context, dest *[]map[string]interface{}, query string, args ...interface{}) error

	RunInTransaction(ctx context.Context, fn func(Database) error) error

	// TableColumns returns the column names of table, in declaration order
	TableColumns(ctx context.Context, table string) ([]string, error)

	// GetUnderlyingDB is *gorm.DB for gorm and bun.IDB for bun
	GetUnderlyingDB() interface{}

	// DriverName is "postgres", "sqlite" or "mssql" whatever the dialect calls itself
	DriverName() string
}

// SelectQuery builds a SELECT. Every builder method returns the receiver.
type SelectQuery interface {
	Table(table string) SelectQuery
	Column(columns ...string) SelectQuery
	ColumnExpr(query string, args ...interface{}) SelectQuery
	Where(query string, args ...interface{}) SelectQuery
	WhereOr(query string, args ...interface{}) SelectQuery

	// WhereGroup adds the conditions built by fn as one parenthesised AND clause
	WhereGroup(fn func(SelectQuery) SelectQuery) SelectQuery

	// WhereHas requires at least one related row for rel.
	// fn constrains the related rows; columns must be qualified with rel.Alias().
	WhereHas(rel Relation, parentTable string, fn func(SelectQuery) SelectQuery) SelectQuery

	// Join and LeftJoin take the clause without its keyword: "tags ON tags.id = post_tag.tag_id"
	Join(query string, args ...interface{}) SelectQuery
	LeftJoin(query string, args ...interface{}) SelectQuery
	Order(order string) SelectQuery
	OrderExpr(order string, args ...interface{}) SelectQuery
	Limit(n int) SelectQuery
	Offset(n int) SelectQuery

	Scan(ctx context.Context, dest *[]map[string]interface{}) error
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context) (bool, error)

	// String renders the query SQL with arguments inlined, for logging and tests
	String() string
}

// InsertQuery inserts one row
type InsertQuery interface {
	Table(table string) InsertQuery
	Value(column string, value interface{}) InsertQuery
	Values(values map[string]interface{}) InsertQuery

	Exec(ctx context.Context) (Result, error)
}

// UpdateQuery updates the rows matched by its Where clauses
type UpdateQuery interface {
	Table(table string) UpdateQuery
	Set(column string, value interface{}) UpdateQuery
	SetMap(values map[string]interface{}) UpdateQuery
	Where(query string, args ...interface{}) UpdateQuery

	Exec(ctx context.Context) (Result, error)
}

// DeleteQuery deletes the rows matched by its Where clauses
type DeleteQuery interface {
	Table(table string) DeleteQuery
	Where(query string, args ...interface{}) DeleteQuery

	Exec(ctx context.Context) (Result, error)
}

// Result mirrors sql.Result without the RowsAffected error
type Result interface {
	RowsAffected() int64
	LastInsertId() (int64, error)
}
