package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationCorrelation(t *testing.T) {
	tests := []struct {
		name        string
		rel         Relation
		correlation string
		joins       []string
	}{
		{
			name:        "belongsTo defaults",
			rel:         Relation{Name: "author", Type: RelationBelongsTo, Table: "users"},
			correlation: "author.id = posts.author_id",
		},
		{
			name:        "hasMany",
			rel:         Relation{Name: "comments", Type: RelationHasMany, Table: "comments", ForeignKey: "post_id"},
			correlation: "comments.post_id = posts.id",
		},
		{
			name: "belongsToMany",
			rel: Relation{Name: "tags", Type: RelationBelongsToMany, Table: "tags",
				PivotTable: "post_tag", ForeignPivotKey: "post_id", RelatedPivotKey: "tag_id"},
			correlation: "post_tag.post_id = posts.id",
			joins:       []string{"JOIN post_tag ON post_tag.tag_id = tags.id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.rel.Validate())
			assert.Equal(t, tt.correlation, tt.rel.Correlation("posts"))
			assert.Equal(t, tt.joins, tt.rel.Joins())
		})
	}
}

func TestRelationValidate(t *testing.T) {
	assert.Error(t, Relation{Name: "x"}.Validate())
	assert.Error(t, Relation{Name: "comments", Type: RelationHasMany, Table: "comments"}.Validate())
	assert.Error(t, Relation{Name: "tags", Type: RelationBelongsToMany, Table: "tags"}.Validate())
	assert.Error(t, Relation{Name: "x", Type: "morphTo", Table: "x"}.Validate())
}

func TestRelationIsMany(t *testing.T) {
	assert.True(t, Relation{Type: RelationHasMany}.IsMany())
	assert.True(t, Relation{Type: RelationBelongsToMany}.IsMany())
	assert.False(t, Relation{Type: RelationHasOne}.IsMany())
	assert.False(t, Relation{Type: RelationBelongsTo}.IsMany())
}
