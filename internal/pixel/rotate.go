package pixel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/gift"
)

// rotateFilter returns the gift filter rotating by deg degrees
// counter-clockwise, or nil when deg is a whole turn.
func rotateFilter(deg int) gift.Filter {
	switch ((deg % 360) + 360) % 360 {
	case 0:
		return nil
	case 90:
		return gift.Rotate90()
	case 180:
		return gift.Rotate180()
	case 270:
		return gift.Rotate270()
	}
	return gift.Rotate(float32(deg), color.Transparent, gift.CubicInterpolation)
}

// Rotate turns the buffer deg degrees counter-clockwise. Quarter turns are
// exact; other angles grow the buffer to fit and leave the uncovered
// corners transparent. The old pixels are kept if the rotated size cannot
// be reserved.
func (p *Buffer) Rotate(deg int) error {
	if p.kind == KindEmpty {
		return fmt.Errorf("%w: rotate of empty buffer", ErrInvalidDimensions)
	}
	filter := rotateFilter(deg)
	if filter == nil {
		return nil
	}

	g := gift.New(filter)
	bounds := g.Bounds(p.Bounds())

	next := NewBuffer(p.budget)
	if err := next.Reserve(bounds.Dx(), bounds.Dy()); err != nil {
		return err
	}

	dst := image.NewNRGBA(bounds)
	g.Draw(dst, p.ToNRGBA())
	next.loadNRGBA(dst)
	next.ClassifyTransparency()

	p.Release()
	*p = *next
	return nil
}
