// Package pixel implements the RGBA pixel buffer that decoders write into,
// together with the memory budget every buffer is charged against.
package pixel

import (
	"unsafe"
)

// Kind classifies the opacity of a buffer.
type Kind int

const (
	KindEmpty Kind = iota // no rows allocated
	KindAlpha             // at least one pixel is not fully opaque
	KindSolid             // every pixel is fully opaque
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindAlpha:
		return "ALPHA"
	case KindSolid:
		return "SOLID"
	}
	return "UNKNOWN"
}

// Pixel is a non-premultiplied RGBA value.
type Pixel struct {
	R, G, B, A uint8
}

// Merge composites src over p.
func (p *Pixel) Merge(src Pixel) {
	switch src.A {
	case 0:
		return
	case 0xFF:
		*p = src
		return
	}

	af := float64(src.A) / 0xFF
	ab := float64(p.A) / 0xFF
	a := 1 - (1-af)*(1-ab)

	p.R = uint8((float64(src.R)*af+float64(p.R)*ab*(1-af))/a + 0.5)
	p.G = uint8((float64(src.G)*af+float64(p.G)*ab*(1-af))/a + 0.5)
	p.B = uint8((float64(src.B)*af+float64(p.B)*ab*(1-af))/a + 0.5)
	p.A = uint8(a*0xFF + 0.5)
}

// rowHeaderSize is the per-row bookkeeping charged on top of pixel data.
const rowHeaderSize = int64(unsafe.Sizeof([]Pixel(nil)))

const pixelSize = int64(unsafe.Sizeof(Pixel{}))

// SizeOf returns the number of bytes a w x h buffer is charged.
func SizeOf(w, h int) int64 {
	return int64(h)*rowHeaderSize + int64(w)*int64(h)*pixelSize
}
