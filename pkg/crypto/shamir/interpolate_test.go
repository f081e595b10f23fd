package shamir

import (
	"math/rand"
	"testing"

	"github.com/Davincible/shadowshare/pkg/crypto/gf257"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLagrangeGaussJordanAgreement(t *testing.T) {
	r := rand.New(rand.NewSource(257))

	for trial := 0; trial < 1000; trial++ {
		k := MinThreshold + r.Intn(MaxThreshold-MinThreshold+1)
		points := r.Perm(MaxParts)[:k]

		xs := make([]gf257.Element, k)
		ys := make([]gf257.Element, k)
		for i, p := range points {
			xs[i] = gf257.Element(p + 1)
			ys[i] = gf257.Element(r.Intn(gf257.Order))
		}

		c0, err := Lagrange(xs, ys)
		require.NoError(t, err)

		coeffs, err := GaussJordan(xs, ys)
		require.NoError(t, err)
		require.Len(t, coeffs, k)
		require.Equal(t, c0, coeffs[0], "trial %d xs=%v ys=%v", trial, xs, ys)

		for i, x := range xs {
			require.Equal(t, ys[i], gf257.Eval(coeffs, x), "trial %d point %d", trial, i)
		}
	}
}

func TestLagrangeKnownPolynomial(t *testing.T) {
	// 42 + 5x + 3x^2
	coeffs := []gf257.Element{42, 5, 3}
	xs := []gf257.Element{2, 5, 9}
	ys := make([]gf257.Element, len(xs))
	for i, x := range xs {
		ys[i] = gf257.Eval(coeffs, x)
	}

	c0, err := Lagrange(xs, ys)
	require.NoError(t, err)
	assert.Equal(t, gf257.Element(42), c0)

	all, err := GaussJordan(xs, ys)
	require.NoError(t, err)
	assert.Equal(t, coeffs, all)
}

func TestThresholdSecrecyWeakForm(t *testing.T) {
	secret := randomSamples(64, 12)
	for i := range secret {
		if secret[i] == 0 {
			secret[i] = 1
		}
	}

	for k := MinThreshold; k <= MaxThreshold; k++ {
		shares, err := Split(secret, Config{Parts: MaxParts, Threshold: k})
		require.NoError(t, err)

		for _, idx := range subsets(MaxParts, k-1) {
			subset := pick(shares, idx)
			xs := make([]gf257.Element, len(subset))
			for i, share := range subset {
				xs[i] = gf257.Element(share.Index)
			}

			differs := false
			for p := range secret {
				ys := make([]gf257.Element, len(subset))
				for i, share := range subset {
					ys[i] = share.Values[p]
				}
				guess, err := Lagrange(xs, ys)
				require.NoError(t, err)
				if guess != gf257.Element(secret[p]) {
					differs = true
					break
				}
			}
			require.True(t, differs, "k=%d subset %v recovered the secret", k, idx)
		}
	}
}

func TestLagrangeErrors(t *testing.T) {
	_, err := Lagrange(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientShares)

	_, err = Lagrange([]gf257.Element{1, 2}, []gf257.Element{1})
	assert.ErrorIs(t, err, ErrMismatchedLength)

	_, err = Lagrange([]gf257.Element{3, 3}, []gf257.Element{1, 2})
	assert.ErrorIs(t, err, ErrDuplicateIndex)
}

func TestGaussJordanSingular(t *testing.T) {
	_, err := GaussJordan([]gf257.Element{4, 4, 1}, []gf257.Element{1, 2, 3})
	assert.ErrorIs(t, err, ErrSingularSystem)

	_, err = Solve([][]gf257.Element{{1, 2}, {2, 4}}, []gf257.Element{1, 1})
	assert.ErrorIs(t, err, ErrSingularSystem)
}

func TestSolvePivoting(t *testing.T) {
	// The leading zero forces a row swap.
	a := [][]gf257.Element{{0, 1}, {1, 0}}
	c, err := Solve(a, []gf257.Element{7, 9})
	require.NoError(t, err)
	assert.Equal(t, []gf257.Element{9, 7}, c)

	// Inputs are left untouched.
	assert.Equal(t, [][]gf257.Element{{0, 1}, {1, 0}}, a)
}

func TestSolveShapeErrors(t *testing.T) {
	_, err := Solve([][]gf257.Element{{1, 0}, {0, 1}}, []gf257.Element{1})
	assert.ErrorIs(t, err, ErrMismatchedLength)

	_, err = Solve([][]gf257.Element{{1, 0}, {0}}, []gf257.Element{1, 2})
	assert.ErrorIs(t, err, ErrMismatchedLength)

	_, err = GaussJordan(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestVandermonde(t *testing.T) {
	v := Vandermonde([]gf257.Element{1, 2, 3})
	assert.Equal(t, [][]gf257.Element{{1, 1, 1}, {1, 2, 4}, {1, 3, 9}}, v)
}
