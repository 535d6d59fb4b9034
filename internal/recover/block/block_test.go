package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnd(t *testing.T) {
	b := Block{Pos: 10, Size: 5}
	assert.Equal(t, int64(15), b.End())
}

func TestShiftPreservesAdjacency(t *testing.T) {
	a := Block{Pos: 0, Size: 1}
	b := Block{Pos: 1, Size: 4}
	require := assert.New(t)

	for i := 0; i < 3; i++ {
		Shift(&a, &b)
		require.Equal(a.End(), b.Pos)
	}

	assert.Equal(t, Block{Pos: 0, Size: 4}, a)
	assert.Equal(t, Block{Pos: 4, Size: 1}, b)
}
