package stego

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Davincible/shadowshare/pkg/crypto/gf257"
	"github.com/Davincible/shadowshare/pkg/secure"
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/crypto/blake2b"
)

// Frame layout, little endian:
//
//	magic "SHDW" | version | threshold | block size | reserved
//	width u32 | height u32 | count u32
//	count low bytes
//	overflow bitset (bit i set when value i is 256)
//	first 8 bytes of BLAKE2b-256 over everything above
const (
	frameMagic   = "SHDW"
	frameVersion = 1
	HeaderSize   = 20
	tagSize      = 8
)

var (
	ErrNotAShare        = errors.New("stego: payload is not a share frame")
	ErrMismatchedLength = errors.New("stego: frame length mismatch")
)

// Header describes the share carried by a frame.
type Header struct {
	Threshold int `json:"threshold"`
	BlockSize int `json:"block_size"`
	Width     int `json:"width"`
	Height    int `json:"height"`
	Count     int `json:"count"`
}

// Frame is one share's values together with the geometry needed to rebuild
// the secret grid.
type Frame struct {
	Header
	Values []gf257.Element
}

// FrameSize is the encoded size of a frame carrying count values.
func FrameSize(count int) int {
	return HeaderSize + count + overflowSize(count) + tagSize
}

// overflowSize matches bitset's BinaryStorageSize: a length word followed
// by one word per 64 values.
func overflowSize(count int) int {
	return 8 + 8*((count+63)/64)
}

func (h Header) validate() error {
	if h.Threshold < 1 || h.Threshold > 255 || h.BlockSize < 1 || h.BlockSize > 255 {
		return fmt.Errorf("%w: threshold %d, block size %d", ErrNotAShare, h.Threshold, h.BlockSize)
	}
	if h.Width <= 0 || h.Height <= 0 || h.Count <= 0 {
		return fmt.Errorf("%w: %dx%d with %d values", ErrNotAShare, h.Width, h.Height, h.Count)
	}
	if h.Count*h.BlockSize != h.Width*h.Height {
		return fmt.Errorf("%w: %d values of block size %d for %dx%d",
			ErrMismatchedLength, h.Count, h.BlockSize, h.Width, h.Height)
	}
	return nil
}

// EncodeFrame serialises f.
func EncodeFrame(f Frame) ([]byte, error) {
	if f.Count == 0 {
		f.Count = len(f.Values)
	}
	if err := f.Header.validate(); err != nil {
		return nil, err
	}
	if len(f.Values) != f.Count {
		return nil, fmt.Errorf("%w: header says %d values, have %d", ErrMismatchedLength, f.Count, len(f.Values))
	}

	var buf bytes.Buffer
	buf.Grow(FrameSize(f.Count))

	buf.WriteString(frameMagic)
	buf.Write([]byte{frameVersion, byte(f.Threshold), byte(f.BlockSize), 0})
	var dims [12]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(f.Width))
	binary.LittleEndian.PutUint32(dims[4:], uint32(f.Height))
	binary.LittleEndian.PutUint32(dims[8:], uint32(f.Count))
	buf.Write(dims[:])

	overflow := bitset.New(uint(f.Count))
	low := make([]byte, f.Count)
	for i, v := range f.Values {
		if v >= gf257.Order {
			return nil, fmt.Errorf("stego: value %d at %d is not a field element", v, i)
		}
		if v == 256 {
			overflow.Set(uint(i))
		}
		low[i] = byte(v)
	}
	buf.Write(low)

	bits, err := overflow.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode overflow bitmap: %w", err)
	}
	buf.Write(bits)

	sum := blake2b.Sum256(buf.Bytes())
	buf.Write(sum[:tagSize])

	return buf.Bytes(), nil
}

// DecodeHeader parses the fixed-size frame header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrNotAShare, len(data))
	}
	if string(data[:4]) != frameMagic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrNotAShare)
	}
	if data[4] != frameVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrNotAShare, data[4])
	}
	if data[7] != 0 {
		return Header{}, fmt.Errorf("%w: reserved byte set", ErrNotAShare)
	}

	h := Header{
		Threshold: int(data[5]),
		BlockSize: int(data[6]),
		Width:     int(binary.LittleEndian.Uint32(data[8:])),
		Height:    int(binary.LittleEndian.Uint32(data[12:])),
		Count:     int(binary.LittleEndian.Uint32(data[16:])),
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// DecodeFrame parses and verifies a frame. Trailing bytes are ignored.
func DecodeFrame(data []byte) (*Frame, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	if h.Count > len(data)-HeaderSize {
		return nil, fmt.Errorf("%w: header declares %d values, have %d bytes", ErrNotAShare, h.Count, len(data))
	}
	size := FrameSize(h.Count)
	if len(data) < size {
		return nil, fmt.Errorf("%w: truncated, need %d bytes, have %d", ErrNotAShare, size, len(data))
	}
	data = data[:size]

	sum := blake2b.Sum256(data[:size-tagSize])
	if !secure.ConstantTimeCompare(sum[:tagSize], data[size-tagSize:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrNotAShare)
	}

	low := data[HeaderSize : HeaderSize+h.Count]
	overflow := &bitset.BitSet{}
	if err := overflow.UnmarshalBinary(data[HeaderSize+h.Count : size-tagSize]); err != nil {
		return nil, fmt.Errorf("%w: overflow bitmap: %v", ErrNotAShare, err)
	}
	if overflow.Len() != uint(h.Count) {
		return nil, fmt.Errorf("%w: overflow bitmap covers %d values, expected %d", ErrNotAShare, overflow.Len(), h.Count)
	}

	values := make([]gf257.Element, h.Count)
	flagged := uint(0)
	for i, b := range low {
		if overflow.Test(uint(i)) {
			if b != 0 {
				return nil, fmt.Errorf("%w: overflow flag on non-zero low byte at %d", ErrNotAShare, i)
			}
			values[i] = 256
			flagged++
			continue
		}
		values[i] = gf257.Element(b)
	}
	if overflow.Count() != flagged {
		return nil, fmt.Errorf("%w: overflow bitmap has bits past the last value", ErrNotAShare)
	}

	return &Frame{Header: h, Values: values}, nil
}

// WriteFrame encodes f and embeds it at the start of carrier.
func (c Codec) WriteFrame(carrier []byte, f Frame) ([]byte, error) {
	payload, err := EncodeFrame(f)
	if err != nil {
		return nil, err
	}
	defer secure.ClearBytes(&payload)
	return c.Embed(carrier, payload)
}

// ReadFrame extracts and decodes the frame at the start of carrier.
func (c Codec) ReadFrame(carrier []byte) (*Frame, error) {
	head, err := c.Extract(carrier, HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAShare, err)
	}
	h, err := DecodeHeader(head)
	if err != nil {
		return nil, err
	}

	capacity := c.Capacity(len(carrier))
	if h.Count > capacity-HeaderSize {
		return nil, fmt.Errorf("%w: header declares %d values, carrier holds %d bytes", ErrNotAShare, h.Count, capacity)
	}
	size := FrameSize(h.Count)
	if capacity < size {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds carrier capacity %d", ErrNotAShare, size, capacity)
	}
	payload, err := c.Extract(carrier, size)
	if err != nil {
		return nil, err
	}
	defer secure.ClearBytes(&payload)
	return DecodeFrame(payload)
}
