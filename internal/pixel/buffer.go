package pixel

import (
	"fmt"
)

// Buffer owns a width x height grid of pixels charged against a Budget.
// A Buffer is not safe for concurrent use; only the budget counters are
// shared.
type Buffer struct {
	width  int
	height int
	kind   Kind
	rows   [][]Pixel
	budget *Budget
}

// NewBuffer returns an empty buffer charged against b, or against Default()
// when b is nil.
func NewBuffer(b *Budget) *Buffer {
	if b == nil {
		b = Default()
	}
	return &Buffer{budget: b}
}

// Width returns the width in pixels.
func (p *Buffer) Width() int {
	return p.width
}

// Height returns the height in pixels.
func (p *Buffer) Height() int {
	return p.height
}

// Kind returns the opacity classification.
func (p *Buffer) Kind() Kind {
	return p.kind
}

// Budget returns the budget the buffer is charged against.
func (p *Buffer) Budget() *Budget {
	return p.budget
}

// Rows returns the pixel rows. The slices alias the buffer.
func (p *Buffer) Rows() [][]Pixel {
	return p.rows
}

// Row returns row y.
func (p *Buffer) Row(y int) []Pixel {
	return p.rows[y]
}

// Size returns the number of bytes charged for the current dimensions.
func (p *Buffer) Size() int64 {
	if p.kind == KindEmpty {
		return 0
	}
	return SizeOf(p.width, p.height)
}

// Reserve allocates w x h zeroed pixels. On failure the buffer stays empty
// and nothing is charged.
func (p *Buffer) Reserve(w, h int) error {
	if p.kind != KindEmpty {
		return ErrBufferInUse
	}
	if err := p.budget.CheckDimensions(w, h); err != nil {
		return err
	}

	if err := p.budget.charge(SizeOf(w, h)); err != nil {
		return err
	}

	slab := make([]Pixel, w*h)
	rows := make([][]Pixel, h)
	for y := range rows {
		rows[y] = slab[y*w : (y+1)*w : (y+1)*w]
	}

	p.width = w
	p.height = h
	p.rows = rows
	p.kind = KindAlpha

	return nil
}

// Release frees the rows and refunds the budget. It is safe to call more
// than once.
func (p *Buffer) Release() {
	if p.kind == KindEmpty {
		return
	}
	p.budget.refund(p.Size())
	p.rows = nil
	p.width = 0
	p.height = 0
	p.kind = KindEmpty
}

// ClassifyTransparency rescans every pixel and sets the kind to KindSolid
// when all of them are fully opaque, KindAlpha otherwise.
func (p *Buffer) ClassifyTransparency() {
	if p.kind == KindEmpty {
		return
	}
	for _, row := range p.rows {
		for i := range row {
			if row[i].A != 0xFF {
				p.kind = KindAlpha
				return
			}
		}
	}
	p.kind = KindSolid
}

// PixelAt returns the pixel at (x, y), or a zero pixel outside the buffer.
func (p *Buffer) PixelAt(x, y int) Pixel {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return Pixel{}
	}
	return p.rows[y][x]
}

// Set writes the pixel at (x, y). Writes outside the buffer are ignored.
// The kind is not updated; call ClassifyTransparency when done.
func (p *Buffer) Set(x, y int, px Pixel) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return
	}
	p.rows[y][x] = px
}

// Fill sets every pixel to c.
func (p *Buffer) Fill(c Pixel) {
	for _, row := range p.rows {
		for i := range row {
			row[i] = c
		}
	}
	if p.kind != KindEmpty {
		if c.A == 0xFF {
			p.kind = KindSolid
		} else {
			p.kind = KindAlpha
		}
	}
}

// Draw merges src over the buffer with its top-left corner at (x, y).
// Parts of src falling outside the buffer are clipped.
func (p *Buffer) Draw(src *Buffer, x, y int) {
	if p.kind == KindEmpty || src == nil || src.kind == KindEmpty {
		return
	}

	solid := src.kind == KindSolid
	for sy := 0; sy < src.height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= p.height {
			continue
		}
		srow, drow := src.rows[sy], p.rows[dy]
		for sx := 0; sx < src.width; sx++ {
			dx := x + sx
			if dx < 0 || dx >= p.width {
				continue
			}
			if solid {
				drow[dx] = srow[sx]
			} else {
				drow[dx].Merge(srow[sx])
			}
		}
	}
	p.ClassifyTransparency()
}

// CopyFrom reserves a w x h buffer holding the region of src at (x, y).
// The region must lie inside src.
func (p *Buffer) CopyFrom(src *Buffer, x, y, w, h int) error {
	if src == nil || src.kind == KindEmpty {
		return fmt.Errorf("%w: empty source", ErrInvalidDimensions)
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > src.width || y+h > src.height {
		return fmt.Errorf("%w: region (%d,%d %dx%d) outside %dx%d source",
			ErrInvalidDimensions, x, y, w, h, src.width, src.height)
	}
	if err := p.Reserve(w, h); err != nil {
		return err
	}
	for row := 0; row < h; row++ {
		copy(p.rows[row], src.rows[y+row][x:x+w])
	}
	p.ClassifyTransparency()
	return nil
}
