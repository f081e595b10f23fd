// Package gf257 implements arithmetic in the prime field of integers modulo 257.
//
// 257 is the smallest prime above the largest 8-bit sample value, so every
// grayscale sample maps to a distinct field element.
package gf257

import "errors"

// Order is the number of elements in the field.
const Order = 257

// Element is a field element in [0, 256].
type Element uint16

// ErrNoInverse is returned when inverting zero.
var ErrNoInverse = errors.New("gf257: zero has no multiplicative inverse")

// Reduce maps any integer into the field.
func Reduce(x int) Element {
	x %= Order
	if x < 0 {
		x += Order
	}
	return Element(x)
}

// Add returns a + b mod 257.
func Add(a, b Element) Element {
	return Element((uint32(a) + uint32(b)) % Order)
}

// Sub returns a - b mod 257.
func Sub(a, b Element) Element {
	return Element((uint32(a) + Order - uint32(b)%Order) % Order)
}

// Mul returns a * b mod 257.
func Mul(a, b Element) Element {
	return Element((uint32(a) * uint32(b)) % Order)
}

// Pow returns a^e mod 257 by square-and-multiply.
func Pow(a Element, e int) Element {
	result := Element(1)
	base := a % Order
	for e > 0 {
		if e&1 == 1 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		e >>= 1
	}
	return result
}

// Inverse returns x with a*x ≡ 1 (mod 257) using the extended Euclidean algorithm.
func Inverse(a Element) (Element, error) {
	a %= Order
	if a == 0 {
		return 0, ErrNoInverse
	}

	t, newT := 0, 1
	r, newR := Order, int(a)
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}

	return Reduce(t), nil
}

// InverseSearch finds the inverse of a by trying every non-zero element.
// It must agree with Inverse for all non-zero inputs.
func InverseSearch(a Element) (Element, error) {
	a %= Order
	if a == 0 {
		return 0, ErrNoInverse
	}
	for x := Element(1); x < Order; x++ {
		if Mul(a, x) == 1 {
			return x, nil
		}
	}
	return 0, ErrNoInverse
}

// Div returns a / b mod 257.
func Div(a, b Element) (Element, error) {
	inv, err := Inverse(b)
	if err != nil {
		return 0, err
	}
	return Mul(a, inv), nil
}

// Eval evaluates the polynomial with the given coefficients at x using
// Horner's rule. coeffs[0] is the constant term.
func Eval(coeffs []Element, x Element) Element {
	var result Element
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = Add(Mul(result, x), coeffs[i])
	}
	return result
}
