// Package keystream provides the deterministic byte generator used for the
// diffusion mask and for keystream-drawn polynomial coefficients.
//
// The generator is a 48-bit linear congruential generator. Its output is a
// pure function of the seed and the number of bytes drawn.
package keystream

const (
	multiplier = 0x5DEECE66D
	increment  = 0xB
	stateMask  = (1 << 48) - 1
)

// Generator is a seeded keystream. Construct with New; a zero Generator is
// not seeded.
type Generator struct {
	state uint64
}

// New returns a generator seeded with seed.
func New(seed uint16) *Generator {
	g := &Generator{}
	g.Seed(seed)
	return g
}

// Seed resets the generator. Any previously drawn bytes are irrelevant to
// what follows.
func (g *Generator) Seed(seed uint16) {
	g.state = (uint64(seed) ^ multiplier) & stateMask
}

// Next advances the state and returns bits 40..47 of the new state.
func (g *Generator) Next() byte {
	g.state = (g.state*multiplier + increment) & stateMask
	return byte(g.state >> 40)
}

// Read fills p with keystream bytes. It never fails.
func (g *Generator) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = g.Next()
	}
	return len(p), nil
}

// Bytes returns the next n keystream bytes.
func (g *Generator) Bytes(n int) []byte {
	out := make([]byte, n)
	_, _ = g.Read(out)
	return out
}
