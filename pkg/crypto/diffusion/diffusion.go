// Package diffusion masks a grid with keystream bytes before it is split.
//
// Each sample is XORed with the keystream byte drawn for its position in
// row-major order. The mask is fully determined by the seed, so it is never
// stored; applying the same mask twice restores the original grid.
package diffusion

import (
	"errors"
	"fmt"

	"github.com/Davincible/shadowshare/pkg/crypto/keystream"
	"github.com/Davincible/shadowshare/pkg/grid"
)

// ErrMismatchedLength is returned when a mask and a grid differ in size.
var ErrMismatchedLength = errors.New("diffusion: mask and grid sizes differ")

// Mask holds one keystream byte per grid position.
type Mask struct {
	Width  int
	Height int
	Bytes  []byte
}

// Build draws a W×H mask from a fresh generator seeded with seed.
func Build(seed uint16, width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", grid.ErrInvalidDimensions, width, height)
	}
	g := keystream.New(seed)
	return &Mask{
		Width:  width,
		Height: height,
		Bytes:  g.Bytes(width * height),
	}, nil
}

// Target interprets the mask byte at (row, col) as an offset into the flat
// sample array.
func (m *Mask) Target(row, col int) int {
	return int(m.Bytes[row*m.Width+col]) % (m.Width * m.Height)
}

// Apply returns a new grid with every sample XORed with its mask byte.
func Apply(g *grid.Grid, m *Mask) (*grid.Grid, error) {
	if g.Width != m.Width || g.Height != m.Height || len(g.Pix) != len(m.Bytes) {
		return nil, fmt.Errorf("%w: grid %dx%d, mask %dx%d",
			ErrMismatchedLength, g.Width, g.Height, m.Width, m.Height)
	}

	out := g.Clone()
	for i, b := range m.Bytes {
		out.Pix[i] ^= b
	}
	return out, nil
}

// Invert undoes Apply. XOR is its own inverse, so this is the same operation.
func Invert(g *grid.Grid, m *Mask) (*grid.Grid, error) {
	return Apply(g, m)
}
