package codec

import (
	"fmt"

	"github.com/zhanspace/node-images/internal/gifstream"
)

// Four-pass interlace order: first row and row step of each pass.
var (
	interlacedOffset = [4]int{0, 4, 2, 1}
	interlacedJumps  = [4]int{8, 8, 4, 2}
)

// RowSource yields decompressed scanlines of palette indices.
type RowSource interface {
	ReadScanline(dst []byte) error
}

// Canvas is the logical screen as a grid of palette indices. All rows are
// views into one slab owned by the canvas.
type Canvas struct {
	width  int
	height int
	slab   []byte
	rows   [][]byte
}

// NewCanvas allocates a width x height grid with every cell set to
// background.
func NewCanvas(width, height int, background uint8) *Canvas {
	slab := make([]byte, width*height)
	if background != 0 {
		for i := range slab {
			slab[i] = background
		}
	}

	rows := make([][]byte, height)
	for y := range rows {
		rows[y] = slab[y*width : (y+1)*width : (y+1)*width]
	}

	return &Canvas{width: width, height: height, slab: slab, rows: rows}
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the canvas height in cells.
func (c *Canvas) Height() int {
	return c.height
}

// Row returns row y. It is nil once the canvas is released.
func (c *Canvas) Row(y int) []byte {
	if y < 0 || y >= len(c.rows) {
		return nil
	}
	return c.rows[y]
}

// Contains reports whether rect lies entirely inside the canvas.
func (c *Canvas) Contains(rect gifstream.ImageDesc) bool {
	return rect.Left >= 0 && rect.Top >= 0 &&
		rect.Width >= 0 && rect.Height >= 0 &&
		rect.Left+rect.Width <= c.width &&
		rect.Top+rect.Height <= c.height
}

// DrawFrame reads rect.Height scanlines from rows into the canvas at the
// frame offset, in four-pass order when the frame is interlaced.
func (c *Canvas) DrawFrame(rect gifstream.ImageDesc, rows RowSource) error {
	if !c.Contains(rect) {
		return fmt.Errorf("%w: %dx%d at (%d,%d) on %dx%d canvas",
			ErrFrameOutOfBounds, rect.Width, rect.Height, rect.Left, rect.Top, c.width, c.height)
	}
	if rect.Width == 0 || rect.Height == 0 {
		return nil
	}

	x0, x1 := rect.Left, rect.Left+rect.Width

	if rect.Interlaced {
		for pass := 0; pass < 4; pass++ {
			for i := interlacedOffset[pass]; i < rect.Height; i += interlacedJumps[pass] {
				if err := rows.ReadScanline(c.rows[rect.Top+i][x0:x1]); err != nil {
					return fmt.Errorf("%w: row %d: %w", ErrScanlineRead, i, err)
				}
			}
		}
		return nil
	}

	for i := 0; i < rect.Height; i++ {
		if err := rows.ReadScanline(c.rows[rect.Top+i][x0:x1]); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrScanlineRead, i, err)
		}
	}
	return nil
}

// Release drops the grid. It is safe to call more than once.
func (c *Canvas) Release() {
	c.slab = nil
	c.rows = nil
}
