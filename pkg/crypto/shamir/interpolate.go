package shamir

import (
	"fmt"

	"github.com/Davincible/shadowshare/pkg/crypto/gf257"
)

// LagrangeWeights returns w with Σ w[i]·y[i] equal to the value at zero of the
// polynomial through (xs[i], y[i]) for any ys.
func LagrangeWeights(xs []gf257.Element) ([]gf257.Element, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInsufficientShares)
	}

	weights := make([]gf257.Element, len(xs))
	for i, xi := range xs {
		numerator := gf257.Element(1)
		denominator := gf257.Element(1)
		for j, xj := range xs {
			if i == j {
				continue
			}
			numerator = gf257.Mul(numerator, gf257.Sub(0, xj))
			denominator = gf257.Mul(denominator, gf257.Sub(xi, xj))
		}

		inv, err := gf257.Inverse(denominator)
		if err != nil {
			return nil, fmt.Errorf("%w: x=%d", ErrDuplicateIndex, xi)
		}
		weights[i] = gf257.Mul(numerator, inv)
	}
	return weights, nil
}

// Lagrange returns the constant term of the lowest-degree polynomial through
// the given points.
func Lagrange(xs, ys []gf257.Element) (gf257.Element, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("%w: %d x values, %d y values", ErrMismatchedLength, len(xs), len(ys))
	}

	weights, err := LagrangeWeights(xs)
	if err != nil {
		return 0, err
	}

	var sum gf257.Element
	for i, w := range weights {
		sum = gf257.Add(sum, gf257.Mul(w, ys[i]))
	}
	return sum, nil
}

// Vandermonde returns V with V[i][j] = xs[i]^j.
func Vandermonde(xs []gf257.Element) [][]gf257.Element {
	v := make([][]gf257.Element, len(xs))
	for i, x := range xs {
		v[i] = make([]gf257.Element, len(xs))
		p := gf257.Element(1)
		for j := range v[i] {
			v[i][j] = p
			p = gf257.Mul(p, x)
		}
	}
	return v
}

// GaussJordan returns every coefficient of the polynomial through the given
// points by solving the Vandermonde system.
func GaussJordan(xs, ys []gf257.Element) ([]gf257.Element, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values, %d y values", ErrMismatchedLength, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInsufficientShares)
	}
	return Solve(Vandermonde(xs), ys)
}

// Solve solves a·c = b over GF(257) by Gauss-Jordan elimination with row
// swaps on zero pivots. a and b are not modified.
func Solve(a [][]gf257.Element, b []gf257.Element) ([]gf257.Element, error) {
	n := len(a)
	if len(b) != n {
		return nil, fmt.Errorf("%w: %d rows, %d values", ErrMismatchedLength, n, len(b))
	}

	m := make([][]gf257.Element, n)
	for i := range a {
		if len(a[i]) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrMismatchedLength, i, len(a[i]), n)
		}
		m[i] = make([]gf257.Element, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i] % gf257.Order
	}

	for col := 0; col < n; col++ {
		pivot := col
		for pivot < n && m[pivot][col] == 0 {
			pivot++
		}
		if pivot == n {
			return nil, fmt.Errorf("%w: no pivot in column %d", ErrSingularSystem, col)
		}
		m[col], m[pivot] = m[pivot], m[col]

		inv, err := gf257.Inverse(m[col][col])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
		}
		for j := col; j <= n; j++ {
			m[col][j] = gf257.Mul(m[col][j], inv)
		}

		for row := 0; row < n; row++ {
			if row == col || m[row][col] == 0 {
				continue
			}
			factor := m[row][col]
			for j := col; j <= n; j++ {
				m[row][j] = gf257.Sub(m[row][j], gf257.Mul(factor, m[col][j]))
			}
		}
	}

	c := make([]gf257.Element, n)
	for i := range c {
		c[i] = m[i][n]
	}
	return c, nil
}
