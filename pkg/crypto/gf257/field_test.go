package gf257

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldClosure(t *testing.T) {
	for a := Element(0); a < Order; a++ {
		for b := Element(0); b < Order; b++ {
			require.Less(t, Add(a, b), Element(Order))
			require.Less(t, Sub(a, b), Element(Order))
			require.Less(t, Mul(a, b), Element(Order))
		}
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Element
		want Element
	}{
		{"add wraps", Add(200, 100), 43},
		{"add identity", Add(17, 0), 17},
		{"sub no negative", Sub(3, 5), 255},
		{"sub zero", Sub(256, 256), 0},
		{"mul wraps", Mul(256, 256), 1},
		{"mul by zero", Mul(0, 123), 0},
		{"pow zero exponent", Pow(9, 0), 1},
		{"pow fermat", Pow(3, 256), 1},
		{"pow small", Pow(2, 8), 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestReduce(t *testing.T) {
	assert.Equal(t, Element(0), Reduce(257))
	assert.Equal(t, Element(256), Reduce(-1))
	assert.Equal(t, Element(1), Reduce(-513))
	assert.Equal(t, Element(10), Reduce(10))
}

func TestInverse(t *testing.T) {
	for a := Element(1); a < Order; a++ {
		inv, err := Inverse(a)
		require.NoError(t, err)
		assert.Equal(t, Element(1), Mul(a, inv), "a=%d", a)

		searched, err := InverseSearch(a)
		require.NoError(t, err)
		assert.Equal(t, inv, searched, "a=%d", a)
	}
}

func TestInverseOfZero(t *testing.T) {
	_, err := Inverse(0)
	assert.ErrorIs(t, err, ErrNoInverse)

	_, err = InverseSearch(0)
	assert.ErrorIs(t, err, ErrNoInverse)

	_, err = Div(5, 0)
	assert.ErrorIs(t, err, ErrNoInverse)
}

func TestDiv(t *testing.T) {
	q, err := Div(10, 5)
	require.NoError(t, err)
	assert.Equal(t, Element(2), q)

	q, err = Div(1, 2)
	require.NoError(t, err)
	assert.Equal(t, Element(129), q)
}

func TestEval(t *testing.T) {
	// 7 + 3x + 2x^2 at x = 4 is 51.
	assert.Equal(t, Element(51), Eval([]Element{7, 3, 2}, 4))

	// Replicated coefficients form a geometric series.
	s := Element(200)
	for x := Element(1); x <= 10; x++ {
		want := Element(0)
		for i := 0; i < 5; i++ {
			want = Add(want, Mul(s, Pow(x, i)))
		}
		assert.Equal(t, want, Eval([]Element{s, s, s, s, s}, x), "x=%d", x)
	}

	assert.Equal(t, Element(0), Eval(nil, 3))
}

func BenchmarkInverse(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Inverse(Element(i%256 + 1))
	}
}
