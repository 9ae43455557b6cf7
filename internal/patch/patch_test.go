package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePatch struct {
	Name   String      `json:"name"`
	Rank   Int         `json:"rank"`
	Parent Uint64      `json:"parent"`
	Tags   StringSlice `json:"tags"`
}

func TestAbsentFieldsStayAbsent(t *testing.T) {
	var p samplePatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))

	assert.False(t, p.Name.Present)
	assert.False(t, p.Rank.Present)
	assert.False(t, p.Parent.Present)
	assert.False(t, p.Tags.Present)
}

func TestNullIsPresentButNil(t *testing.T) {
	var p samplePatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":null,"parent":null}`), &p))

	assert.True(t, p.Name.Present)
	assert.Nil(t, p.Name.Value)
	assert.True(t, p.Parent.Present)
	assert.Nil(t, p.Parent.Value)
	assert.False(t, p.Rank.Present)
}

func TestValuesDecode(t *testing.T) {
	var p samplePatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Joe's Bar","rank":3,"parent":7,"tags":["food","drinks"]}`), &p))

	require.True(t, p.Name.Present)
	require.NotNil(t, p.Name.Value)
	assert.Equal(t, "Joe's Bar", *p.Name.Value)

	require.True(t, p.Rank.Present)
	require.NotNil(t, p.Rank.Value)
	assert.Equal(t, 3, *p.Rank.Value)

	require.True(t, p.Parent.Present)
	require.NotNil(t, p.Parent.Value)
	assert.Equal(t, uint64(7), *p.Parent.Value)

	require.True(t, p.Tags.Present)
	assert.Equal(t, []string{"food", "drinks"}, p.Tags.Value)
}

func TestEmptyStringAndEmptyListArePresent(t *testing.T) {
	var p samplePatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"","tags":[]}`), &p))

	require.True(t, p.Name.Present)
	require.NotNil(t, p.Name.Value)
	assert.Equal(t, "", *p.Name.Value)

	require.True(t, p.Tags.Present)
	assert.Empty(t, p.Tags.Value)
}

func TestTypeMismatchErrors(t *testing.T) {
	var p samplePatch
	assert.Error(t, json.Unmarshal([]byte(`{"rank":"three"}`), &p))
}
