package formfield

import (
	"database/sql"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/common/adapters/database"
	"github.com/bitechdev/BreadSpec/pkg/locale"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

func ctxFor(field *bread.Formfield) Context {
	return Context{Field: field, Locale: locale.Context{Locale: "de", Fallback: "en"}}
}

func newQuery(t *testing.T) common.SelectQuery {
	t.Helper()
	sqldb, err := sql.Open(sqlite.DriverName, "file::memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return database.NewBunAdapter(db).NewSelect().Table("posts")
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"checkbox", "number", "password", "relationship", "rich_text_editor", "select", "tags", "text"}, r.Types())

	f, ok := r.Get("text")
	require.True(t, ok)
	assert.Equal(t, "text", f.Type())

	_, ok = r.Get("map")
	assert.False(t, ok)
	assert.Error(t, r.Register(NewText()))
}

func TestTextPassThrough(t *testing.T) {
	text := NewText()
	c := ctxFor(&bread.Formfield{Type: "text", Column: "title"})
	rec := record.New("posts", "id")

	assert.Equal(t, map[string]interface{}{"title": "Hello"}, text.Browse(c, "Hello", rec))
	assert.Equal(t, map[string]interface{}{"title": "Hello"}, text.Edit(c, "Hello", rec))

	out, err := text.Store(c, "New", "Hello", rec, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"title": "New"}, out)

	q := text.Query(c, newQuery(t), "title", "foo")
	assert.Contains(t, q.String(), "title LIKE '%foo%'")
}

func TestTranslatableText(t *testing.T) {
	text := NewText()
	c := ctxFor(&bread.Formfield{Type: "text", Column: "bio", Translatable: true})
	rec := record.New("users", "id")
	blob := `{"en":"Hello","de":"Hallo"}`

	assert.Equal(t, "Hallo", text.Browse(c, blob, rec)["bio"])
	assert.Equal(t, "Hello", text.Browse(ctxFor(&bread.Formfield{Column: "bio", Translatable: true}), map[string]interface{}{"en": "Hello"}, rec)["bio"])

	edited := text.Edit(c, blob, rec)["bio"]
	assert.Equal(t, map[string]interface{}{"en": "Hello", "de": "Hallo"}, edited)
	assert.Equal(t, "plain", text.Show(c, "plain", rec)["bio"])

	// a single string is written into the active locale of the stored blob
	out, err := text.Store(c, "Servus", blob, rec, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"en":"Hello","de":"Servus"}`, out["bio"].(string))

	out, err = text.Update(c, "Servus", edited, rec, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"en":"Hello","de":"Servus"}`, out["bio"].(string))

	// structured values are left for the controller to encode
	structured := map[string]interface{}{"en": "A", "de": "B"}
	out, err = text.Store(c, structured, nil, rec, nil)
	require.NoError(t, err)
	assert.Equal(t, structured, out["bio"])
}

func TestNumber(t *testing.T) {
	n := NewNumber()
	c := ctxFor(&bread.Formfield{Type: "number", Column: "views"})

	cases := []struct {
		in   interface{}
		want interface{}
	}{
		{"12", int64(12)},
		{"1.5", 1.5},
		{int32(7), int64(7)},
		{float64(3), int64(3)},
		{"", nil},
		{nil, nil},
	}
	for _, tc := range cases {
		out, err := n.Store(c, tc.in, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out["views"], "input %v", tc.in)
	}

	_, err := n.Store(c, "abc", nil, nil, nil)
	assert.Error(t, err)

	assert.Contains(t, n.Query(c, newQuery(t), "views", "42").String(), "views = 42")
	assert.Contains(t, n.Query(c, newQuery(t), "views", "x").String(), "1 = 0")
}

func TestCheckbox(t *testing.T) {
	cb := NewCheckbox()
	c := ctxFor(&bread.Formfield{Type: "checkbox", Column: "published"})

	assert.Equal(t, true, cb.Browse(c, int64(1), nil)["published"])
	assert.Equal(t, false, cb.Edit(c, "0", nil)["published"])

	out, err := cb.Store(c, true, int64(0), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out["published"])

	out, err = cb.Update(c, "false", false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, false, out["published"])

	sqlText := cb.Query(c, newQuery(t), "published", "0").String()
	assert.Contains(t, sqlText, "published IS NULL")
}

func TestSelect(t *testing.T) {
	s := NewSelect()
	single := ctxFor(&bread.Formfield{Type: "select", Column: "status", Options: map[string]interface{}{
		"options": map[string]interface{}{"draft": "Draft", "live": "Published"},
	}})
	multi := ctxFor(&bread.Formfield{Type: "select", Column: "channels", Options: map[string]interface{}{
		"multiple": true,
		"options":  map[string]interface{}{"web": "Website"},
	}})

	assert.Equal(t, "Published", s.Browse(single, "live", nil)["status"])
	assert.Equal(t, "other", s.Browse(single, "other", nil)["status"])
	assert.Equal(t, "live", s.Edit(single, "live", nil)["status"])

	assert.Equal(t, []string{"Website", "rss"}, s.Browse(multi, `["web","rss"]`, nil)["channels"])
	assert.Equal(t, []string{"web"}, s.Edit(multi, `["web"]`, nil)["channels"])

	out, err := s.Store(multi, []interface{}{"web", "rss"}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, `["web","rss"]`, out["channels"])

	assert.Contains(t, s.Query(single, newQuery(t), "status", "draft").String(), "status = 'draft'")
}

func TestRichText(t *testing.T) {
	rt := NewRichText()
	c := ctxFor(&bread.Formfield{Type: "rich_text_editor", Column: "body"})
	html := `<p>Hi <b>there</b></p><script>alert(1)</script>`

	assert.Equal(t, "Hi there", rt.Browse(c, html, nil)["body"])
	assert.Equal(t, "<p>Hi <b>there</b></p>", rt.Show(c, html, nil)["body"])
	assert.Equal(t, html, rt.Edit(c, html, nil)["body"])

	out, err := rt.Store(c, html, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi <b>there</b></p>", out["body"])

	tc := ctxFor(&bread.Formfield{Type: "rich_text_editor", Column: "body", Translatable: true})
	out, err = rt.Store(tc, map[string]interface{}{"en": html}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"en": "<p>Hi <b>there</b></p>"}, out["body"])
}

func TestPassword(t *testing.T) {
	p := NewPassword()
	p.Cost = 4
	c := ctxFor(&bread.Formfield{Type: "password", Column: "password"})

	assert.Equal(t, "", p.Browse(c, "$2a$hash", nil)["password"])
	assert.Equal(t, "", p.Edit(c, "$2a$hash", nil)["password"])

	out, err := p.Update(c, "", "$2a$hash", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out, "empty input keeps the stored hash")

	out, err = p.Store(c, "secret", nil, nil, nil)
	require.NoError(t, err)
	hash := out["password"].(string)
	assert.True(t, CheckPassword(hash, "secret"))
	assert.False(t, CheckPassword(hash, "other"))

	q := newQuery(t)
	assert.Equal(t, q.String(), p.Query(c, q, "password", "x").String())
}

func TestTags(t *testing.T) {
	tags := NewTags()
	c := ctxFor(&bread.Formfield{Type: "tags", Column: "keywords"})

	assert.Equal(t, "go, sql", tags.Browse(c, `["go","sql"]`, nil)["keywords"])
	assert.Equal(t, []string{"go", "sql"}, tags.Edit(c, "go, sql,", nil)["keywords"])
	assert.Equal(t, []string{}, tags.Show(c, nil, nil)["keywords"])

	out, err := tags.Store(c, "a,b", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, out["keywords"])
}

func TestRelationship(t *testing.T) {
	r := NewRelationship()
	c := ctxFor(&bread.Formfield{Type: "relationship", Column: "tags.name"})

	assert.Equal(t, "go, sql", r.Browse(c, []interface{}{"go", "sql"}, nil)["tags.name"])
	assert.Equal(t, "Ann", r.Show(c, "Ann", nil)["tags.name"])

	out, err := r.Store(c, "x", nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
