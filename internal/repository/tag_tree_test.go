package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint64) *uint64 { return &v }

func TestBuildStructuredTagsNestsChildrenUnderParent(t *testing.T) {
	food := &Tag{ID: 1, Value: "food", Display: "Food", SortOrder: 1, HasChildren: true}
	pizza := &Tag{ID: 2, Value: "pizza", Display: "Pizza", SortOrder: 1, ParentTagID: uptr(1)}
	sushi := &Tag{ID: 3, Value: "sushi", Display: "Sushi", SortOrder: 2, ParentTagID: uptr(1)}
	patio := &Tag{ID: 4, Value: "patio", Display: "Patio", SortOrder: 5}

	st := BuildStructuredTags([]*Tag{food, pizza, sushi, patio})

	require.Len(t, st.Parents, 1)
	assert.Equal(t, "food", st.Parents[0].Value)
	require.Len(t, st.Parents[0].Children, 2)
	assert.Equal(t, "pizza", st.Parents[0].Children[0].Value)
	assert.Equal(t, "sushi", st.Parents[0].Children[1].Value)

	require.Len(t, st.Standalone, 1)
	assert.Equal(t, "patio", st.Standalone[0].Value)
}

func TestBuildStructuredTagsChildrenAreNotStandalone(t *testing.T) {
	parent := &Tag{ID: 10, Value: "drinks", HasChildren: true}
	child := &Tag{ID: 11, Value: "beer", ParentTagID: uptr(10)}

	st := BuildStructuredTags([]*Tag{parent, child})

	assert.Len(t, st.Parents, 1)
	assert.Empty(t, st.Standalone)
}

func TestBuildStructuredTagsEmptyInput(t *testing.T) {
	st := BuildStructuredTags(nil)

	assert.NotNil(t, st.Parents)
	assert.NotNil(t, st.Standalone)
	assert.Empty(t, st.Parents)
	assert.Empty(t, st.Standalone)
}

func TestBuildStructuredTagsPreservesInputOrder(t *testing.T) {
	// Input arrives sorted by (sort_order, value); the tree keeps it.
	a := &Tag{ID: 1, Value: "arts", SortOrder: 1, HasChildren: true}
	b := &Tag{ID: 2, Value: "food", SortOrder: 2, HasChildren: true}
	c1 := &Tag{ID: 3, Value: "galleries", SortOrder: 1, ParentTagID: uptr(1)}
	c2 := &Tag{ID: 4, Value: "pizza", SortOrder: 1, ParentTagID: uptr(2)}

	st := BuildStructuredTags([]*Tag{a, b, c1, c2})

	require.Len(t, st.Parents, 2)
	assert.Equal(t, "arts", st.Parents[0].Value)
	assert.Equal(t, "food", st.Parents[1].Value)
}
