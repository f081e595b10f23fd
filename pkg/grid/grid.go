// Package grid holds the rectangular 8-bit grayscale sample buffer shared by
// every stage of the sharing pipeline.
package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions is returned for non-positive sizes or a buffer whose
// length does not match width*height.
var ErrInvalidDimensions = errors.New("grid: invalid dimensions")

// Grid is a row-major W×H buffer of samples. Row 0 is the top row and the
// stride is always Width.
type Grid struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed grid.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height),
	}, nil
}

// FromPixels builds a grid from a copy of pix.
func FromPixels(width, height int, pix []byte) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrInvalidDimensions, len(pix), width, height)
	}
	copy(g.Pix, pix)
	return g, nil
}

// FromRows builds a grid from equal-length rows, top row first.
func FromRows(rows [][]byte) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidDimensions)
	}
	g, err := New(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != g.Width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrInvalidDimensions, y, len(row), g.Width)
		}
		copy(g.Pix[y*g.Width:], row)
	}
	return g, nil
}

// Len returns the number of samples.
func (g *Grid) Len() int {
	return g.Width * g.Height
}

// Row returns row y without copying.
func (g *Grid) Row(y int) []byte {
	return g.Pix[y*g.Width : (y+1)*g.Width]
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	pix := make([]byte, len(g.Pix))
	copy(pix, g.Pix)
	return &Grid{Width: g.Width, Height: g.Height, Pix: pix}
}

// SameSize reports whether both grids have identical dimensions.
func (g *Grid) SameSize(o *Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// Equal reports whether both grids have the same dimensions and samples.
func (g *Grid) Equal(o *Grid) bool {
	if !g.SameSize(o) || len(g.Pix) != len(o.Pix) {
		return false
	}
	for i := range g.Pix {
		if g.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}
