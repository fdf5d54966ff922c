package modelregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

func postModel() *Model {
	return &Model{
		Name:  "Post",
		Table: "posts",
		Relations: map[string]common.Relation{
			"author": {Type: common.RelationBelongsTo, Table: "users", ForeignKey: "author_id"},
		},
		Accessors: map[string]record.Accessor{
			"excerpt": func(r *record.Record) interface{} { return "x" },
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewModelRegistry()
	require.NoError(t, reg.RegisterModel(postModel()))

	m, err := reg.GetModel("Post")
	require.NoError(t, err)
	assert.Equal(t, "id", m.Key())

	rel, ok := m.Relation("author")
	require.True(t, ok)
	assert.Equal(t, "author", rel.Name, "relation name defaults to its map key")

	byTable, err := reg.GetModelByTable("posts")
	require.NoError(t, err)
	assert.Same(t, m, byTable)

	_, err = reg.GetModel("Missing")
	assert.Error(t, err)
	_, err = reg.GetModelByTable("missing")
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicatesAndInvalid(t *testing.T) {
	reg := NewModelRegistry()
	require.NoError(t, reg.RegisterModel(postModel()))

	assert.Error(t, reg.RegisterModel(postModel()))
	assert.Error(t, reg.RegisterModel(&Model{Name: "Other", Table: "posts"}))
	assert.Error(t, reg.RegisterModel(nil))
	assert.Error(t, reg.RegisterModel(&Model{Name: "NoTable"}))
	assert.Error(t, reg.RegisterModel(&Model{
		Name:      "Bad",
		Table:     "bad",
		Relations: map[string]common.Relation{"x": {Type: "sideways", Table: "y"}},
	}))
}

func TestAccessorSource(t *testing.T) {
	reg := NewModelRegistry()
	require.NoError(t, reg.RegisterModel(postModel()))

	fn, ok := reg.Accessor("posts", "excerpt")
	require.True(t, ok)
	assert.Equal(t, "x", fn(nil))

	_, ok = reg.Accessor("posts", "nope")
	assert.False(t, ok)
	_, ok = reg.Accessor("users", "excerpt")
	assert.False(t, ok)

	m, _ := reg.GetModel("Post")
	rec := m.NewRecord(reg)
	rec.Append("excerpt")
	data, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"excerpt":"x"}`, string(data))
}

func TestDefaultRegistry(t *testing.T) {
	original := GetDefaultRegistry()
	defer SetDefaultRegistry(original)

	SetDefaultRegistry(NewModelRegistry())
	require.NoError(t, RegisterModel(&Model{Name: "User", Table: "users"}))
	require.NoError(t, RegisterModel(&Model{Name: "Comment", Table: "comments"}))

	all := GetAllModels()
	require.Len(t, all, 2)
	assert.Equal(t, "Comment", all[0].Name)

	m, err := GetModelByTable("users")
	require.NoError(t, err)
	assert.Equal(t, "User", m.Name)
	_, err = GetModel("User")
	assert.NoError(t, err)
}
