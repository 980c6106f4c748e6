package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/zhanspace/node-images/internal/pixel"
)

// RAW layout: big-endian uint32 width and height followed by width*height
// RGBA pixels, row-major, with nothing after the last pixel.
const rawHeaderSize = 8

type rawCodec struct{}

func (rawCodec) Type() Type { return TypeRAW }

func (rawCodec) Match(data []byte) bool {
	w, h, ok := rawHeader(data)
	return ok && uint64(len(data)-rawHeaderSize) == uint64(w)*uint64(h)*4
}

func rawHeader(data []byte) (w, h uint32, ok bool) {
	if len(data) < rawHeaderSize {
		return 0, 0, false
	}
	w = binary.BigEndian.Uint32(data[0:4])
	h = binary.BigEndian.Uint32(data[4:8])
	return w, h, w > 0 && h > 0
}

func (c rawCodec) Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error) {
	w, h, ok := rawHeader(data)
	if !ok {
		return nil, fmt.Errorf("%w: raw header", ErrMalformedScreenDescriptor)
	}
	if w > 1<<30 || h > 1<<30 {
		return nil, fmt.Errorf("%w: raw %dx%d", ErrAllocationBudgetExceeded, w, h)
	}
	if !c.Match(data) {
		return nil, fmt.Errorf("%w: raw payload is %d bytes, want %d",
			ErrScanlineRead, len(data)-rawHeaderSize, uint64(w)*uint64(h)*4)
	}

	buf := pixel.NewBuffer(budget)
	if err := buf.Reserve(int(w), int(h)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationBudgetExceeded, err)
	}

	src := data[rawHeaderSize:]
	for y, row := range buf.Rows() {
		line := src[y*int(w)*4:]
		for x := range row {
			row[x] = pixel.Pixel{R: line[x*4], G: line[x*4+1], B: line[x*4+2], A: line[x*4+3]}
		}
	}
	buf.ClassifyTransparency()
	return buf, nil
}

func (rawCodec) Encode(buf *pixel.Buffer, _ EncodeOptions) ([]byte, error) {
	w, h := buf.Width(), buf.Height()
	out := make([]byte, rawHeaderSize, rawHeaderSize+w*h*4)
	binary.BigEndian.PutUint32(out[0:4], uint32(w)) // #nosec G115
	binary.BigEndian.PutUint32(out[4:8], uint32(h)) // #nosec G115
	for _, row := range buf.Rows() {
		for _, px := range row {
			out = append(out, px.R, px.G, px.B, px.A)
		}
	}
	return out, nil
}
