package diffusion

import (
	"testing"

	"github.com/Davincible/shadowshare/pkg/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(t *testing.T, w, h int) *grid.Grid {
	t.Helper()
	g, err := grid.New(w, h)
	require.NoError(t, err)
	for i := range g.Pix {
		g.Pix[i] = byte(i * 7)
	}
	return g
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(43, 4, 3)
	require.NoError(t, err)
	b, err := Build(43, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes, b.Bytes)
	assert.Equal(t, []byte{186, 82, 218, 217}, a.Bytes[:4])

	c, err := Build(44, 4, 3)
	require.NoError(t, err)
	assert.NotEqual(t, a.Bytes, c.Bytes)
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(1, 0, 3)
	assert.ErrorIs(t, err, grid.ErrInvalidDimensions)
}

func TestApplyIsInvolution(t *testing.T) {
	tests := []struct {
		name string
		seed uint16
		w, h int
	}{
		{"tiny", 43, 2, 2},
		{"wide", 1, 31, 3},
		{"tall", 0xFFFF, 5, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGrid(t, tt.w, tt.h)
			m, err := Build(tt.seed, tt.w, tt.h)
			require.NoError(t, err)

			diffused, err := Apply(g, m)
			require.NoError(t, err)
			assert.False(t, diffused.Equal(g))

			restored, err := Invert(diffused, m)
			require.NoError(t, err)
			assert.True(t, restored.Equal(g))

			twice, err := Apply(diffused, m)
			require.NoError(t, err)
			assert.True(t, twice.Equal(g))
		})
	}
}

func TestApplyDoesNotAlias(t *testing.T) {
	g := testGrid(t, 3, 3)
	before := g.Clone()
	m, err := Build(5, 3, 3)
	require.NoError(t, err)

	_, err = Apply(g, m)
	require.NoError(t, err)
	assert.True(t, g.Equal(before))
}

func TestApplySizeMismatch(t *testing.T) {
	g := testGrid(t, 3, 3)
	m, err := Build(5, 3, 4)
	require.NoError(t, err)

	_, err = Apply(g, m)
	assert.ErrorIs(t, err, ErrMismatchedLength)
}

func TestTarget(t *testing.T) {
	m, err := Build(43, 2, 2)
	require.NoError(t, err)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			target := m.Target(row, col)
			assert.GreaterOrEqual(t, target, 0)
			assert.Less(t, target, 4)
			assert.Equal(t, int(m.Bytes[row*2+col])%4, target)
		}
	}
}
