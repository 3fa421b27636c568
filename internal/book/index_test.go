package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gungnir/internal/common"
)

func TestIndex(t *testing.T) {
	ix := NewIndex()

	assert.False(t, ix.Contains(1))
	assert.Equal(t, 0, ix.Len())

	ix.Insert(1, Location{Side: common.Buy, Price: 99})
	ix.Insert(2, Location{Side: common.Sell, Price: 101})
	assert.True(t, ix.Contains(1))
	assert.Equal(t, 2, ix.Len())

	loc, ok := ix.Remove(1)
	require.True(t, ok)
	assert.Equal(t, Location{Side: common.Buy, Price: 99}, loc)
	assert.False(t, ix.Contains(1))

	_, ok = ix.Remove(1)
	assert.False(t, ok, "second remove of the same id must miss")

	seen := map[common.OrderID]Location{}
	ix.Each(func(id common.OrderID, loc Location) {
		seen[id] = loc
	})
	assert.Equal(t, map[common.OrderID]Location{
		2: {Side: common.Sell, Price: 101},
	}, seen)
}
