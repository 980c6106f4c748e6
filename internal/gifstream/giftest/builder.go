// Package giftest writes small GIF streams for tests. Frames are LZW
// compressed exactly as an encoder would emit them, so the streams exercise
// the same code paths as files found in the wild.
package giftest

import (
	"bytes"
	"compress/lzw"
	"fmt"
)

// Color is an RGB color table entry.
type Color [3]uint8

// Frame is one image descriptor and its pixel indices in natural row order.
type Frame struct {
	X, Y          int
	Width, Height int
	Interlaced    bool
	Local         []Color
	Pixels        []uint8 // Width*Height indices, row-major
}

// Builder accumulates records behind a logical screen descriptor.
type Builder struct {
	width, height int
	background    uint8
	global        []Color
	version       string
	body          bytes.Buffer
}

// New starts a GIF89a stream with a width x height logical screen.
func New(width, height int) *Builder {
	return &Builder{width: width, height: height, version: "GIF89a"}
}

// Version overrides the signature, e.g. "GIF87a".
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// Global sets the global color table. It is padded to a power of two.
func (b *Builder) Global(colors ...Color) *Builder {
	b.global = colors
	return b
}

// Background sets the background color index.
func (b *Builder) Background(idx uint8) *Builder {
	b.background = idx
	return b
}

// Control appends a graphics control extension. When transparent is
// negative the transparent-color flag is cleared.
func (b *Builder) Control(transparent int) *Builder {
	var flags, idx uint8
	if transparent >= 0 {
		flags = 0x01
		idx = uint8(transparent)
	}
	b.body.Write([]byte{0x21, 0xF9, 0x04, flags, 0x00, 0x00, idx, 0x00})
	return b
}

// Comment appends a comment extension split into sub-blocks.
func (b *Builder) Comment(text string) *Builder {
	b.body.Write([]byte{0x21, 0xFE})
	writeBlocks(&b.body, []byte(text))
	return b
}

// Application appends an application extension with the given identifier
// and data sub-blocks.
func (b *Builder) Application(ident string, data ...[]byte) *Builder {
	b.body.Write([]byte{0x21, 0xFF, byte(len(ident))})
	b.body.WriteString(ident)
	for _, d := range data {
		b.body.WriteByte(byte(len(d)))
		b.body.Write(d)
	}
	b.body.WriteByte(0)
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p ...byte) *Builder {
	b.body.Write(p)
	return b
}

// Frame appends an image descriptor and its compressed data. Interlaced
// frames are written in the four-pass row order.
func (b *Builder) Frame(f Frame) *Builder {
	if len(f.Pixels) != f.Width*f.Height {
		panic(fmt.Sprintf("giftest: %d pixels for %dx%d frame", len(f.Pixels), f.Width, f.Height))
	}

	var flags uint8
	if f.Interlaced {
		flags |= 0x40
	}
	if len(f.Local) > 0 {
		flags |= 0x80 | tableBits(len(f.Local))
	}

	b.body.WriteByte(0x2C)
	putUint16(&b.body, f.X)
	putUint16(&b.body, f.Y)
	putUint16(&b.body, f.Width)
	putUint16(&b.body, f.Height)
	b.body.WriteByte(flags)
	if len(f.Local) > 0 {
		writeTable(&b.body, f.Local)
	}

	pixels := f.Pixels
	if f.Interlaced {
		pixels = Interlace(f.Pixels, f.Width, f.Height)
	}

	litWidth := 2
	for _, p := range pixels {
		for int(p) >= 1<<litWidth {
			litWidth++
		}
	}

	var compressed bytes.Buffer
	w := lzw.NewWriter(&compressed, lzw.LSB, litWidth)
	if _, err := w.Write(pixels); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}

	b.body.WriteByte(byte(litWidth))
	writeBlocks(&b.body, compressed.Bytes())
	return b
}

// Bytes returns the stream terminated by a trailer.
func (b *Builder) Bytes() []byte {
	out := b.Unterminated()
	return append(out, 0x3B)
}

// Unterminated returns the stream without a trailer.
func (b *Builder) Unterminated() []byte {
	var out bytes.Buffer
	out.WriteString(b.version)
	putUint16(&out, b.width)
	putUint16(&out, b.height)

	var flags uint8
	if len(b.global) > 0 {
		flags = 0x80 | 0x70 | tableBits(len(b.global))
	}
	out.WriteByte(flags)
	out.WriteByte(b.background)
	out.WriteByte(0)
	if len(b.global) > 0 {
		writeTable(&out, b.global)
	}

	out.Write(b.body.Bytes())
	return out.Bytes()
}

// Interlace reorders natural-order rows into the four-pass GIF order.
func Interlace(pixels []uint8, width, height int) []uint8 {
	out := make([]uint8, 0, len(pixels))
	for _, pass := range [][2]int{{0, 8}, {4, 8}, {2, 4}, {1, 2}} {
		for y := pass[0]; y < height; y += pass[1] {
			out = append(out, pixels[y*width:(y+1)*width]...)
		}
	}
	return out
}

// tableBits returns the packed size field for a table of n entries.
func tableBits(n int) uint8 {
	var bits uint8
	for 1<<(bits+1) < n {
		bits++
	}
	return bits
}

func writeTable(buf *bytes.Buffer, colors []Color) {
	size := 1 << (tableBits(len(colors)) + 1)
	for i := 0; i < size; i++ {
		var c Color
		if i < len(colors) {
			c = colors[i]
		}
		buf.Write(c[:])
	}
}

func writeBlocks(buf *bytes.Buffer, data []byte) {
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		buf.WriteByte(byte(n))
		buf.Write(data[:n])
		data = data[n:]
	}
	buf.WriteByte(0)
}

func putUint16(buf *bytes.Buffer, v int) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}
