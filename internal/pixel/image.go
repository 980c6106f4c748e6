package pixel

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// Resize filters understood by Resize.
const (
	FilterNearest    = "nearest"
	FilterBilinear   = "bilinear"
	FilterCatmullRom = "catmullrom"
)

// At implements the image.Image interface.
func (p *Buffer) At(x, y int) color.Color {
	px := p.PixelAt(x, y)
	return color.NRGBA{R: px.R, G: px.G, B: px.B, A: px.A}
}

// Bounds implements the image.Image interface.
func (p *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}

// ToNRGBA copies the buffer into a new image.NRGBA.
func (p *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(p.Bounds())
	for y, row := range p.rows {
		off := y * img.Stride
		for x, px := range row {
			i := off + x*4
			img.Pix[i+0] = px.R
			img.Pix[i+1] = px.G
			img.Pix[i+2] = px.B
			img.Pix[i+3] = px.A
		}
	}
	return img
}

// FromImage reserves a buffer charged against b and fills it with img
// converted to non-premultiplied RGBA.
func FromImage(img image.Image, b *Budget) (*Buffer, error) {
	bounds := img.Bounds()
	buf := NewBuffer(b)
	if err := buf.Reserve(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}

	if src, ok := img.(*image.NRGBA); ok {
		buf.loadNRGBA(src)
	} else {
		for y := 0; y < buf.height; y++ {
			row := buf.rows[y]
			for x := range row {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				row[x] = Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
			}
		}
	}

	buf.ClassifyTransparency()
	return buf, nil
}

func (p *Buffer) loadNRGBA(src *image.NRGBA) {
	for y, row := range p.rows {
		off := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		for x := range row {
			i := off + x*4
			row[x] = Pixel{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2], A: src.Pix[i+3]}
		}
	}
}

func scalerFor(filter string) (draw.Scaler, error) {
	switch strings.ToLower(filter) {
	case FilterNearest:
		return draw.NearestNeighbor, nil
	case FilterBilinear, "":
		return draw.ApproxBiLinear, nil
	case FilterCatmullRom:
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("pixel: unknown resize filter %q", filter)
}

// Resize scales the buffer to w x h. The old pixels are kept if the new
// size cannot be reserved.
func (p *Buffer) Resize(w, h int, filter string) error {
	if p.kind == KindEmpty {
		return fmt.Errorf("%w: resize of empty buffer", ErrInvalidDimensions)
	}
	scaler, err := scalerFor(filter)
	if err != nil {
		return err
	}

	next := NewBuffer(p.budget)
	if err := next.Reserve(w, h); err != nil {
		return err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), p.ToNRGBA(), p.Bounds(), draw.Src, nil)
	next.loadNRGBA(dst)
	next.ClassifyTransparency()

	p.Release()
	*p = *next
	return nil
}

// scaleSide returns other*to/from rounded to nearest, never below 1.
func scaleSide(other, to, from int) int {
	n := (int64(other)*int64(to) + int64(from)/2) / int64(from)
	if n < 1 {
		return 1
	}
	return int(n)
}

// SetWidth resizes the buffer to width w, scaling the height to keep the
// aspect ratio.
func (p *Buffer) SetWidth(w int, filter string) error {
	if p.kind == KindEmpty {
		return fmt.Errorf("%w: resize of empty buffer", ErrInvalidDimensions)
	}
	if w <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidDimensions, w)
	}
	return p.Resize(w, scaleSide(p.height, w, p.width), filter)
}

// SetHeight resizes the buffer to height h, scaling the width to keep the
// aspect ratio.
func (p *Buffer) SetHeight(h int, filter string) error {
	if p.kind == KindEmpty {
		return fmt.Errorf("%w: resize of empty buffer", ErrInvalidDimensions)
	}
	if h <= 0 {
		return fmt.Errorf("%w: height %d", ErrInvalidDimensions, h)
	}
	return p.Resize(scaleSide(p.width, h, p.height), h, filter)
}
