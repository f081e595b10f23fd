// Package bmp reads and writes uncompressed 8-bit palettised bitmaps.
//
// The two reserved 16-bit fields of the file header are exposed as a side
// channel: reserved1 holds the share seed and reserved2 the share index.
package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Davincible/shadowshare/pkg/grid"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	signature      = 0x4D42 // "BM"
	paletteEntries = 256
)

var (
	ErrUnsupportedFormat = errors.New("bmp: unsupported format")
	ErrInvalidBitmap     = errors.New("bmp: invalid bitmap")
)

// SideChannel is the per-image metadata stored in the reserved header fields.
type SideChannel struct {
	Seed  uint16 `json:"seed"`
	Index uint16 `json:"index"`
}

// Image is a decoded 8-bit bitmap. Grid rows are top row first regardless of
// the on-disk row order.
type Image struct {
	Grid    *grid.Grid
	Palette []byte // BGRA quads
	Side    SideChannel
}

// GrayPalette returns the identity grayscale palette.
func GrayPalette() []byte {
	p := make([]byte, paletteEntries*4)
	for i := 0; i < paletteEntries; i++ {
		p[i*4] = byte(i)
		p[i*4+1] = byte(i)
		p[i*4+2] = byte(i)
	}
	return p
}

// NewGray wraps g in an image with a grayscale palette.
func NewGray(g *grid.Grid) *Image {
	return &Image{Grid: g, Palette: GrayPalette()}
}

type fileHeader struct {
	Signature  uint16
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

type infoHeader struct {
	Size            uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

func stride(width int) int {
	return (width + 3) &^ 3
}

// Decode reads an 8-bit uncompressed bitmap.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bitmap: %w", err)
	}
	if len(data) < fileHeaderSize+infoHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrInvalidBitmap, len(data))
	}

	var fh fileHeader
	if err := binary.Read(bytes.NewReader(data[:fileHeaderSize]), binary.LittleEndian, &fh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	if fh.Signature != signature {
		return nil, fmt.Errorf("%w: missing BM signature", ErrInvalidBitmap)
	}

	var ih infoHeader
	if err := binary.Read(bytes.NewReader(data[fileHeaderSize:fileHeaderSize+infoHeaderSize]), binary.LittleEndian, &ih); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	if ih.Size < infoHeaderSize {
		return nil, fmt.Errorf("%w: info header of %d bytes", ErrUnsupportedFormat, ih.Size)
	}
	if ih.BitsPerPixel != 8 {
		return nil, fmt.Errorf("%w: %d bits per pixel, need 8", ErrUnsupportedFormat, ih.BitsPerPixel)
	}
	if ih.Compression != 0 {
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedFormat, ih.Compression)
	}

	width := int(ih.Width)
	height := int(ih.Height)
	topDown := height < 0
	if topDown {
		height = -height
	}
	if width <= 0 || height == 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBitmap, ih.Width, ih.Height)
	}

	paletteStart := fileHeaderSize + int(ih.Size)
	offset := int(fh.DataOffset)
	if offset < paletteStart || offset > len(data) {
		return nil, fmt.Errorf("%w: pixel data offset %d", ErrInvalidBitmap, offset)
	}
	// Bytes between the colour table and the pixel data are padding.
	entries := int(ih.ColorsUsed)
	if entries == 0 || entries > paletteEntries {
		entries = paletteEntries
	}
	size := min(entries*4, offset-paletteStart)
	size -= size % 4
	palette := make([]byte, size)
	copy(palette, data[paletteStart:paletteStart+size])

	rowLen := stride(width)
	if need := offset + rowLen*height; need > len(data) {
		return nil, fmt.Errorf("%w: pixel data truncated, need %d bytes, have %d", ErrInvalidBitmap, need, len(data))
	}

	g, err := grid.New(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		src := y
		if !topDown {
			src = height - 1 - y
		}
		start := offset + src*rowLen
		copy(g.Row(y), data[start:start+width])
	}

	return &Image{
		Grid:    g,
		Palette: palette,
		Side:    SideChannel{Seed: fh.Reserved1, Index: fh.Reserved2},
	}, nil
}

// Encode writes img as a bottom-up 8-bit bitmap. A nil or empty palette is
// replaced with the grayscale palette.
func Encode(w io.Writer, img *Image) error {
	if img == nil || img.Grid == nil {
		return fmt.Errorf("%w: no pixel data", ErrInvalidBitmap)
	}
	palette := img.Palette
	if len(palette) == 0 {
		palette = GrayPalette()
	}
	if len(palette)%4 != 0 || len(palette) > paletteEntries*4 {
		return fmt.Errorf("%w: palette of %d bytes", ErrInvalidBitmap, len(palette))
	}

	g := img.Grid
	rowLen := stride(g.Width)
	imageSize := rowLen * g.Height
	offset := fileHeaderSize + infoHeaderSize + len(palette)

	fh := fileHeader{
		Signature:  signature,
		FileSize:   uint32(offset + imageSize),
		Reserved1:  img.Side.Seed,
		Reserved2:  img.Side.Index,
		DataOffset: uint32(offset),
	}
	ih := infoHeader{
		Size:         infoHeaderSize,
		Width:        int32(g.Width),
		Height:       int32(g.Height),
		Planes:       1,
		BitsPerPixel: 8,
		ImageSize:    uint32(imageSize),
		ColorsUsed:   uint32(len(palette) / 4),
	}

	var buf bytes.Buffer
	buf.Grow(offset + imageSize)
	if err := binary.Write(&buf, binary.LittleEndian, fh); err != nil {
		return fmt.Errorf("failed to encode file header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, ih); err != nil {
		return fmt.Errorf("failed to encode info header: %w", err)
	}
	buf.Write(palette)

	row := make([]byte, rowLen)
	for y := g.Height - 1; y >= 0; y-- {
		copy(row, g.Row(y))
		buf.Write(row)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write bitmap: %w", err)
	}
	return nil
}
