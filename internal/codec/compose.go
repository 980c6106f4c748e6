package codec

import (
	"fmt"

	"github.com/zhanspace/node-images/internal/gifstream"
	"github.com/zhanspace/node-images/internal/pixel"
)

// Compose paints the frame rectangle of the canvas into dst. Cells holding
// the active transparent index keep whatever dst already has; every other
// cell is written fully opaque from table. dst is reclassified afterwards.
//
// dst must be at least as large as the canvas.
func Compose(dst *pixel.Buffer, c *Canvas, rect gifstream.ImageDesc, table gifstream.ColorTable, tr Transparency) error {
	if !c.Contains(rect) || rect.Left+rect.Width > dst.Width() || rect.Top+rect.Height > dst.Height() {
		return fmt.Errorf("%w: compose %dx%d at (%d,%d)",
			ErrFrameOutOfBounds, rect.Width, rect.Height, rect.Left, rect.Top)
	}

	transparent, hasTransparent := tr.Index()

	for y := rect.Top; y < rect.Top+rect.Height; y++ {
		src := c.Row(y)
		out := dst.Row(y)
		for x := rect.Left; x < rect.Left+rect.Width; x++ {
			id := src[x]
			if hasTransparent && id == transparent {
				continue
			}
			entry, err := Resolve(table, id)
			if err != nil {
				return fmt.Errorf("%w at (%d,%d)", err, x, y)
			}
			out[x] = pixel.Pixel{R: entry.R, G: entry.G, B: entry.B, A: 0xFF}
		}
	}

	dst.ClassifyTransparency()
	return nil
}
