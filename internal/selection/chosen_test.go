package selection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChosenIDs_Multi(t *testing.T) {
	c := NewChosenIDs(false, 1, 2, 2)
	assert.Equal(t, []int64{1, 2}, c.Values())

	c.Apply(Event{Kind: EventSelect, ID: 2})
	assert.Equal(t, []int64{1, 2}, c.Values())

	c.Apply(Event{Kind: EventToggle, ID: 1})
	assert.Equal(t, []int64{2}, c.Values())

	c.Apply(Event{Kind: EventToggle, ID: 3})
	assert.Equal(t, []int64{2, 3}, c.Values())
}

func TestChosenIDs_Singular(t *testing.T) {
	c := NewChosenIDs(true, 1, 2)
	assert.Equal(t, []int64{2}, c.Values())

	c.Apply(Event{Kind: EventToggle, ID: 2})
	assert.Equal(t, []int64{2}, c.Values(), "radio re-check keeps the value")

	c.Apply(Event{Kind: EventSelect, ID: 7})
	assert.True(t, c.Contains(7))
	assert.False(t, c.Contains(2))
}

func TestChosenIDs_JSON(t *testing.T) {
	b, err := json.Marshal(NewChosenIDs(true))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = json.Marshal(NewChosenIDs(true, 4))
	require.NoError(t, err)
	assert.Equal(t, "4", string(b))

	b, err = json.Marshal(NewChosenIDs(false))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = json.Marshal(NewChosenIDs(false, 4, 5))
	require.NoError(t, err)
	assert.Equal(t, "[4,5]", string(b))
}
