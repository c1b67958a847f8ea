package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "12_M", Key(12, "M"))
	assert.Equal(t, "1_", Key(1, ""))
}

func TestPriceMap_Lookup(t *testing.T) {
	m := NewPriceMap([]PriceEntry{
		{ProductID: 1, Size: "M", UnitPrice: decimal.RequireFromString("5.50"), Stock: 3},
		{ProductID: 1, Size: "L", UnitPrice: decimal.RequireFromString("7.00"), Stock: 0},
		{ProductID: 2, Size: "M", UnitPrice: decimal.RequireFromString("4.25"), Stock: 9},
	})

	e, ok := m.Lookup(1, "L")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("7.00").Equal(e.UnitPrice))

	_, ok = m.Lookup(2, "L")
	assert.False(t, ok)

	_, ok = m.Lookup(3, "M")
	assert.False(t, ok)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, UniqueIDs([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueIDs(nil))
}
