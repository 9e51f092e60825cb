// Package ascii converts luminance fields into character-grid video frames.
//
// A Frame is a fixed-size grid of glyph cells chosen from a monotonic
// brightness ramp: darker samples map to sparser glyphs, brighter samples
// to denser ones. Frames serialize to a compact binary form that the relay
// treats as an opaque payload.
package ascii

import (
	"encoding/binary"
	"errors"
	"strings"
)

// Ramp is the brightness-to-glyph ramp, ordered from darkest to densest.
const Ramp = " .'`^\",:;Il!i><~+_-?][}{1)(|\\tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

// headerSize is the serialized prefix: uint16 width, uint16 height.
const headerSize = 4

// cellSize is the serialized size of one cell: glyph, r, g, b.
const cellSize = 4

var (
	// ErrFrameTruncated is returned when frame data is shorter than its header.
	ErrFrameTruncated = errors.New("ascii: frame data truncated")

	// ErrFrameLength is returned when frame data does not match its declared
	// dimensions.
	ErrFrameLength = errors.New("ascii: frame data length mismatch")
)

// Cell is one character of a frame with its color.
type Cell struct {
	Glyph byte
	R     uint8
	G     uint8
	B     uint8
}

// Frame is a width x height grid of glyph cells, row-major.
type Frame struct {
	Width  uint16
	Height uint16
	Cells  []Cell
}

// New returns a blank frame of the given dimensions.
func New(width, height uint16) *Frame {
	cells := make([]Cell, int(width)*int(height))
	for i := range cells {
		cells[i].Glyph = ' '
	}
	return &Frame{Width: width, Height: height, Cells: cells}
}

// Luminance returns the perceived brightness of an RGB sample using the
// BT.601 weights.
func Luminance(r, g, b uint8) uint8 {
	return uint8(0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b))
}

// GlyphFor maps a luminance sample onto the ramp.
func GlyphFor(lum uint8) byte {
	idx := int(lum) * (len(Ramp) - 1) / 255
	return Ramp[idx]
}

// FromRGB builds a frame from packed RGB samples, three bytes per cell in
// row-major order. Short input yields blank cells rather than an error so a
// partially captured field still renders. With mono set, cell colors are
// collapsed to greyscale.
func FromRGB(data []byte, width, height uint16, mono bool) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, 0, int(width)*int(height)),
	}

	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			i := (y*int(width) + x) * 3
			if i+2 >= len(data) {
				f.Cells = append(f.Cells, Cell{Glyph: ' '})
				continue
			}

			r, g, b := data[i], data[i+1], data[i+2]
			glyph := GlyphFor(Luminance(r, g, b))
			if mono {
				lum := Luminance(r, g, b)
				f.Cells = append(f.Cells, Cell{Glyph: glyph, R: lum, G: lum, B: lum})
			} else {
				f.Cells = append(f.Cells, Cell{Glyph: glyph, R: r, G: g, B: b})
			}
		}
	}
	return f
}

// Marshal serializes the frame: little-endian width and height, then one
// (glyph, r, g, b) quad per cell.
func (f *Frame) Marshal() []byte {
	data := make([]byte, headerSize, headerSize+len(f.Cells)*cellSize)
	binary.LittleEndian.PutUint16(data[0:2], f.Width)
	binary.LittleEndian.PutUint16(data[2:4], f.Height)

	for _, c := range f.Cells {
		data = append(data, c.Glyph, c.R, c.G, c.B)
	}
	return data
}

// Unmarshal parses a serialized frame, validating that the payload matches
// the declared dimensions.
func Unmarshal(data []byte) (*Frame, error) {
	if len(data) < headerSize {
		return nil, ErrFrameTruncated
	}

	width := binary.LittleEndian.Uint16(data[0:2])
	height := binary.LittleEndian.Uint16(data[2:4])

	expected := headerSize + int(width)*int(height)*cellSize
	if len(data) != expected {
		return nil, ErrFrameLength
	}

	cells := make([]Cell, 0, int(width)*int(height))
	for i := headerSize; i < len(data); i += cellSize {
		cells = append(cells, Cell{
			Glyph: data[i],
			R:     data[i+1],
			G:     data[i+2],
			B:     data[i+3],
		})
	}

	return &Frame{Width: width, Height: height, Cells: cells}, nil
}

// String renders the frame as plain rows of glyphs.
func (f *Frame) String() string {
	var sb strings.Builder
	sb.Grow((int(f.Width) + 1) * int(f.Height))

	for y := 0; y < int(f.Height); y++ {
		for x := 0; x < int(f.Width); x++ {
			sb.WriteByte(f.Cells[y*int(f.Width)+x].Glyph)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
