package record

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAccessors map[string]Accessor

func (s staticAccessors) Accessor(table, name string) (Accessor, bool) {
	fn, ok := s[table+"."+name]
	return fn, ok
}

func TestRecordAttributes(t *testing.T) {
	r := New("posts", "")
	assert.Equal(t, "id", r.PrimaryKey())
	assert.False(t, r.Exists())

	r.Set("id", 7)
	r.Set("title", "Hello")
	r.Set("excerpt", nil)

	assert.True(t, r.Has("excerpt"))
	assert.False(t, r.Has("body"))
	assert.Nil(t, r.Get("body"))
	assert.Equal(t, 7, r.Key())
	assert.Equal(t, []string{"id", "title", "excerpt"}, r.Columns())

	attrs := r.Attributes()
	attrs["title"] = "changed"
	assert.Equal(t, "Hello", r.Get("title"), "Attributes must return a copy")

	r.Unset("title")
	assert.False(t, r.Has("title"))
	assert.Equal(t, []string{"id", "excerpt"}, r.Columns())
}

func TestFromMapSortsColumns(t *testing.T) {
	r := FromMap("users", "uid", map[string]interface{}{"uid": 1, "name": "a", "email": "b"})
	assert.Equal(t, []string{"email", "name", "uid"}, r.Columns())
	assert.Equal(t, 1, r.Key())
}

func TestRelationsAndPluck(t *testing.T) {
	post := New("posts", "id")
	assert.False(t, post.RelationLoaded("author"))

	author := New("users", "id")
	author.Set("name", "Ann")
	post.SetRelation("author", author)

	t1 := New("tags", "id")
	t1.Set("name", "go")
	t2 := New("tags", "id")
	t2.Set("name", "sql")
	post.SetRelation("tags", Collection{t1, t2})
	post.SetRelation("editor", nil)

	assert.True(t, post.RelationLoaded("editor"))
	assert.Equal(t, "Ann", Pluck(post.Relation("author"), "name"))
	assert.Equal(t, []interface{}{"go", "sql"}, Pluck(post.Relation("tags"), "name"))
	assert.Equal(t, "", Pluck(post.Relation("editor"), "name"))
	assert.Equal(t, "", Pluck(post.Relation("missing"), "name"))
}

func TestAppendDeduplicates(t *testing.T) {
	r := New("posts", "id")
	r.Append("slug_url", "word_count")
	r.Append("slug_url")
	assert.Equal(t, []string{"slug_url", "word_count"}, r.Appends())
}

func TestMarshalJSON(t *testing.T) {
	src := staticAccessors{
		"posts.title_upper": func(r *Record) interface{} {
			return strings.ToUpper(r.Get("title").(string))
		},
	}

	r := New("posts", "id").WithAccessors(src)
	r.Set("id", 1)
	r.Set("title", "hello")
	author := New("users", "id")
	author.Set("name", "Ann")
	r.SetRelation("author", author)
	r.Append("title_upper", "unknown")

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"title":"hello","author":{"name":"Ann"},"title_upper":"HELLO","unknown":null}`, string(data))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "HELLO", decoded["title_upper"])
}

func TestCollectionKeys(t *testing.T) {
	a := New("t", "id")
	a.Set("id", 1)
	b := New("t", "id")
	b.Set("id", 2)
	assert.Equal(t, []interface{}{1, 2}, Collection{a, b}.Keys())
}
