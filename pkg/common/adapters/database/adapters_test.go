package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bitechdev/BreadSpec/pkg/common"
)

var fixtureSchema = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`,
	`CREATE TABLE posts (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, body TEXT, author_id INTEGER)`,
	`CREATE TABLE comments (id INTEGER PRIMARY KEY AUTOINCREMENT, post_id INTEGER NOT NULL, body TEXT NOT NULL)`,
	`CREATE TABLE tags (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`,
	`CREATE TABLE post_tag (post_id INTEGER NOT NULL, tag_id INTEGER NOT NULL)`,
	`INSERT INTO users (id, name) VALUES (1, 'Ann'), (2, 'Bob')`,
	`INSERT INTO posts (id, title, body, author_id) VALUES
		(1, 'Hello world', 'first body', 1),
		(2, 'Second post', 'mentions foo', 2),
		(3, 'Third', 'nothing', NULL)`,
	`INSERT INTO comments (post_id, body) VALUES (1, 'great'), (1, 'meh'), (2, 'spam')`,
	`INSERT INTO tags (id, name) VALUES (1, 'go'), (2, 'sql')`,
	`INSERT INTO post_tag (post_id, tag_id) VALUES (1, 1), (3, 2)`,
}

var (
	authorRelation   = common.Relation{Name: "author", Type: common.RelationBelongsTo, Table: "users"}
	commentsRelation = common.Relation{Name: "comments", Type: common.RelationHasMany, Table: "comments", ForeignKey: "post_id"}
	tagsRelation     = common.Relation{Name: "tags", Type: common.RelationBelongsToMany, Table: "tags",
		PivotTable: "post_tag", ForeignPivotKey: "post_id", RelatedPivotKey: "tag_id"}
)

type adapterCase struct {
	name string
	open func(t *testing.T) common.Database
}

func adapterCases() []adapterCase {
	return []adapterCase{
		{name: "bun", open: openBunFixture},
		{name: "gorm", open: openGormFixture},
	}
}

func openBunFixture(t *testing.T) common.Database {
	t.Helper()
	sqldb, err := sql.Open(sqlite.DriverName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return seed(t, NewBunAdapter(db))
}

func openGormFixture(t *testing.T) common.Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return seed(t, NewGormAdapter(db))
}

func seed(t *testing.T, db common.Database) common.Database {
	t.Helper()
	for _, stmt := range fixtureSchema {
		_, err := db.Exec(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

// str normalises driver text values, which may arrive as string or []byte
func str(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

func titles(t *testing.T, q common.SelectQuery) []string {
	t.Helper()
	var rows []map[string]interface{}
	require.NoError(t, q.Order("id ASC").Scan(context.Background(), &rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, str(row["title"]))
	}
	return out
}

func TestAdapters_DriverAndColumns(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			db := tc.open(t)
			assert.Equal(t, "sqlite", db.DriverName())

			columns, err := db.TableColumns(context.Background(), "posts")
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "title", "body", "author_id"}, columns)
		})
	}
}

func TestAdapters_WhereGroup(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			db := tc.open(t)

			q := db.NewSelect().Table("posts").
				Where("id < ?", 3).
				WhereGroup(func(g common.SelectQuery) common.SelectQuery {
					return g.Where("title LIKE ?", "%foo%").WhereOr("body LIKE ?", "%foo%")
				})

			assert.Equal(t, []string{"Second post"}, titles(t, q))
		})
	}
}

func TestAdapters_WhereHas(t *testing.T) {
	tests := []struct {
		name     string
		rel      common.Relation
		column   string
		value    string
		expected []string
	}{
		{"belongsTo", authorRelation, "name", "%an%", []string{"Hello world"}},
		{"hasMany", commentsRelation, "body", "%e%", []string{"Hello world"}},
		{"hasMany no match", commentsRelation, "body", "%zzz%", []string{}},
		{"belongsToMany", tagsRelation, "name", "%s%", []string{"Third"}},
	}

	for _, tc := range adapterCases() {
		for _, tt := range tests {
			t.Run(tc.name+"/"+tt.name, func(t *testing.T) {
				db := tc.open(t)
				q := db.NewSelect().Table("posts").
					WhereHas(tt.rel, "posts", func(sub common.SelectQuery) common.SelectQuery {
						return sub.Where(tt.rel.Alias()+"."+tt.column+" LIKE ?", tt.value)
					})
				assert.Equal(t, tt.expected, titles(t, q))
			})
		}
	}
}

func TestAdapters_CountAndString(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			db := tc.open(t)
			q := db.NewSelect().Table("posts").Where("title LIKE ?", "%o%")

			count, err := q.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			exists, err := q.Exists(context.Background())
			require.NoError(t, err)
			assert.True(t, exists)

			// quoting of the inlined value differs per dialect
			assert.Contains(t, q.String(), "title LIKE")
			assert.Contains(t, q.String(), "%o%")
		})
	}
}

func TestAdapters_InsertUpdateDelete(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			db := tc.open(t)
			ctx := context.Background()

			res, err := db.NewInsert().Table("posts").
				Values(map[string]interface{}{"title": "Fourth", "body": "new"}).
				Exec(ctx)
			require.NoError(t, err)
			id, err := res.LastInsertId()
			require.NoError(t, err)
			assert.Equal(t, int64(4), id)

			res, err = db.NewUpdate().Table("posts").
				SetMap(map[string]interface{}{"title": "Fourth (edited)"}).
				Where("id = ?", id).
				Exec(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), res.RowsAffected())

			var rows []map[string]interface{}
			require.NoError(t, db.Query(ctx, &rows, "SELECT title FROM posts WHERE id = ?", id))
			require.Len(t, rows, 1)
			assert.Equal(t, "Fourth (edited)", str(rows[0]["title"]))

			res, err = db.NewDelete().Table("posts").Where("id = ?", id).Exec(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), res.RowsAffected())
		})
	}
}

func TestAdapters_RunInTransactionRollsBack(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			db := tc.open(t)
			ctx := context.Background()

			err := db.RunInTransaction(ctx, func(tx common.Database) error {
				if _, err := tx.NewDelete().Table("comments").Where("post_id = ?", 1).Exec(ctx); err != nil {
					return err
				}
				return fmt.Errorf("abort")
			})
			assert.EqualError(t, err, "abort")

			count, err := db.NewSelect().Table("comments").Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, count)
		})
	}
}
