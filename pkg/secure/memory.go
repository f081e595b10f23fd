// Package secure wipes secret material held in memory once it is no longer
// needed.
package secure

import (
	"crypto/subtle"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroValues overwrites a slice of field values or other small integers.
func ZeroValues[T ~uint8 | ~uint16 | ~uint32](v []T) {
	for i := range v {
		v[i] = 0
	}
	runtime.KeepAlive(v)
}

// ClearBytes zeroes *b and drops the reference.
func ClearBytes(b *[]byte) {
	if b == nil || *b == nil {
		return
	}
	Zero(*b)
	*b = nil
}

// ConstantTimeCompare reports whether x and y are equal without leaking the
// position of the first difference.
func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}
