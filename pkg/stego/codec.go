// Package stego moves share payloads into and out of the low-order bits of
// carrier pixel data.
package stego

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBits = errors.New("stego: bits per carrier byte must be 1, 2 or 8")
	ErrCapacity    = errors.New("stego: carrier too small for payload")
)

// Codec packs payload bytes into Bits low-order bits of each carrier byte,
// most significant bits first. Bits 8 replaces carrier bytes outright and is
// used for dedicated share images.
type Codec struct {
	Bits int
}

// NewCodec returns a validated codec.
func NewCodec(bits int) (Codec, error) {
	c := Codec{Bits: bits}
	if err := c.Validate(); err != nil {
		return Codec{}, err
	}
	return c, nil
}

func (c Codec) Validate() error {
	switch c.Bits {
	case 1, 2, 8:
		return nil
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidBits, c.Bits)
	}
}

func (c Codec) mask() byte {
	return byte(1<<c.Bits - 1)
}

// CarrierBytesPerByte is the number of carrier bytes one payload byte uses.
func (c Codec) CarrierBytesPerByte() int {
	return 8 / c.Bits
}

// Capacity is the number of whole payload bytes a carrier of carrierLen
// bytes can hold.
func (c Codec) Capacity(carrierLen int) int {
	return carrierLen / c.CarrierBytesPerByte()
}

// Required is the number of carrier bytes needed for payloadLen bytes.
func (c Codec) Required(payloadLen int) int {
	return payloadLen * c.CarrierBytesPerByte()
}

// Embed returns a copy of carrier with payload written into its low bits.
// Carrier bytes past the payload are unchanged.
func (c Codec) Embed(carrier, payload []byte) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if need := c.Required(len(payload)); need > len(carrier) {
		return nil, fmt.Errorf("%w: need %d carrier bytes, have %d", ErrCapacity, need, len(carrier))
	}

	out := make([]byte, len(carrier))
	copy(out, carrier)

	mask := c.mask()
	pos := 0
	for _, b := range payload {
		for shift := 8 - c.Bits; shift >= 0; shift -= c.Bits {
			out[pos] = (out[pos] &^ mask) | ((b >> shift) & mask)
			pos++
		}
	}
	return out, nil
}

// Extract reassembles n payload bytes from the start of carrier.
func (c Codec) Extract(carrier []byte, n int) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("stego: negative payload length %d", n)
	}
	if need := c.Required(n); need > len(carrier) {
		return nil, fmt.Errorf("%w: need %d carrier bytes, have %d", ErrCapacity, need, len(carrier))
	}

	out := make([]byte, n)
	mask := c.mask()
	pos := 0
	for i := range out {
		var b byte
		for j := 0; j < c.CarrierBytesPerByte(); j++ {
			b = b<<c.Bits | (carrier[pos] & mask)
			pos++
		}
		out[i] = b
	}
	return out, nil
}
