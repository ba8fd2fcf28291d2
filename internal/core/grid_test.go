package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatticeCentredIndexing(t *testing.T) {
	l := NewLattice(10)

	idx, ok := l.Index(0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, (5*10+5)*10+5, idx)

	idx, ok = l.Index(-5, -5, -5)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = l.Index(4, 4, 4)
	require.True(t, ok)
	assert.Equal(t, 999, idx)

	for _, p := range [][3]int{{5, 0, 0}, {0, -6, 0}, {0, 0, 5}} {
		assert.False(t, l.Contains(p[0], p[1], p[2]), "%v should be outside", p)
	}
}

func TestLatticeSetAndClear(t *testing.T) {
	l := NewLattice(8)
	assert.False(t, l.Occupied(1, 2, 3))

	l.Set(1, 2, 3, true)
	l.Set(-4, 0, 3, true)
	assert.True(t, l.Occupied(1, 2, 3))
	assert.Equal(t, 2, l.Count())

	l.Set(1, 2, 3, false)
	assert.False(t, l.Occupied(1, 2, 3))
	assert.Equal(t, 1, l.Count())

	l.Clear()
	assert.Equal(t, 0, l.Count())
}

func TestLatticeOutOfRangePanics(t *testing.T) {
	l := NewLattice(4)
	assert.Panics(t, func() { l.Occupied(2, 0, 0) })
	assert.Panics(t, func() { l.Set(0, 0, -3, true) })
}
