package breadspec

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/common/adapters/database"
	"github.com/bitechdev/BreadSpec/pkg/locale"
	"github.com/bitechdev/BreadSpec/pkg/modelregistry"
	"github.com/bitechdev/BreadSpec/pkg/record"
	"github.com/bitechdev/BreadSpec/pkg/schema"
)

var fixtureSchema = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`,
	`CREATE TABLE posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		body TEXT,
		status TEXT,
		published_at TEXT,
		featured INTEGER,
		views INTEGER,
		bio TEXT,
		author_id INTEGER
	)`,
	`CREATE TABLE comments (id INTEGER PRIMARY KEY AUTOINCREMENT, post_id INTEGER NOT NULL, body TEXT NOT NULL)`,
	`INSERT INTO users (id, name) VALUES (1, 'Ann'), (2, 'Bob')`,
	`INSERT INTO posts (id, title, body, status, published_at, featured, views, bio, author_id) VALUES
		(1, 'Hello foo', 'first body', 'draft', NULL, 1, 10, '{"de":"Hallo","en":"Hi"}', 1),
		(2, 'Second', 'mentions bar', 'published', '2024-01-01', 0, 20, NULL, 2),
		(3, 'Third FOO', 'nothing', 'draft', NULL, 0, 5, NULL, NULL)`,
	`INSERT INTO comments (post_id, body) VALUES (1, 'great'), (2, 'spam')`,
}

func openFixture(t *testing.T) common.Database {
	t.Helper()
	sqldb, err := sql.Open(sqlite.DriverName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = bunDB.Close() })

	db := database.NewBunAdapter(bunDB)
	for _, stmt := range fixtureSchema {
		_, err := db.Exec(context.Background(), stmt)
		require.NoError(t, err)
	}
	return db
}

func listLayout() *bread.Layout {
	return &bread.Layout{Name: "list", Type: bread.LayoutList, Formfields: []*bread.Formfield{
		{Type: "text", Column: "title", Searchable: true, Orderable: true},
		{Type: "text", Column: "body", Searchable: true},
		{Type: "text", Column: "author.name", Searchable: true},
		{Type: "number", Column: "views", Orderable: true},
		{Type: "checkbox", Column: "featured"},
	}}
}

func viewLayout() *bread.Layout {
	return &bread.Layout{Name: "view", Type: bread.LayoutView, Formfields: []*bread.Formfield{
		{Type: "text", Column: "title", Rules: []bread.Rule{
			{Rule: "required", Message: locale.Text{Translations: map[string]string{"en": "Title needed", "de": "Titel fehlt"}}},
			{Rule: "max:255"},
		}},
		{Type: "text", Column: "status", Rules: []bread.Rule{{Rule: "nullable|in:draft,published"}}},
		{Type: "number", Column: "views", Rules: []bread.Rule{{Rule: "nullable|integer"}}},
		{Type: "checkbox", Column: "featured"},
		{Type: "text", Column: "bio", Translatable: true, Rules: []bread.Rule{{Rule: "max:500"}}},
	}}
}

// newFixtureStore registers a Post model with an accessor and relations and
// a posts bread using it
func newFixtureStore(t *testing.T) (*bread.Store, *bread.Bread) {
	t.Helper()
	models := modelregistry.NewModelRegistry()
	require.NoError(t, models.RegisterModel(&modelregistry.Model{
		Name:  "Post",
		Table: "posts",
		Relations: map[string]common.Relation{
			"author":   {Type: common.RelationBelongsTo, Table: "users"},
			"comments": {Type: common.RelationHasMany, Table: "comments", ForeignKey: "post_id"},
		},
		Accessors: map[string]record.Accessor{
			"title_upper": func(r *record.Record) interface{} {
				return strings.ToUpper(cast.ToString(r.Get("title")))
			},
		},
	}))

	store := bread.NewStore(models)
	b := &bread.Bread{
		Table:     "posts",
		ModelName: "Post",
		Layouts:   []*bread.Layout{listLayout(), viewLayout()},
	}
	require.NoError(t, store.Add(b))
	return store, b
}

func newFixtureController(t *testing.T, db common.Database, store *bread.Store) *Controller {
	t.Helper()
	return NewController(Env{
		Locale:         "en",
		FallbackLocale: "en",
		Columns:        schema.NewCachedLister(db, nil, time.Minute),
		Relations:      NewDBRelationLoader(db, store.Models()),
		Breads:         store,
	})
}

func loadRow(t *testing.T, db common.Database, id int) map[string]interface{} {
	t.Helper()
	var rows []map[string]interface{}
	require.NoError(t, db.NewSelect().Table("posts").Where("id = ?", id).Scan(context.Background(), &rows))
	require.Len(t, rows, 1)
	return rows[0]
}

func scanIDs(t *testing.T, q common.SelectQuery) []int64 {
	t.Helper()
	var rows []map[string]interface{}
	require.NoError(t, q.Order("id").Scan(context.Background(), &rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, cast.ToInt64(row["id"]))
	}
	return ids
}
