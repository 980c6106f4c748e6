package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/zhanspace/node-images/internal/pixel"
)

// decodeImage checks the header dimensions against the budget before the
// full decode so oversized inputs never get their pixels expanded.
func decodeImage(data []byte, budget *pixel.Budget,
	decodeConfig func(io.Reader) (image.Config, error),
	decode func(io.Reader) (image.Image, error),
) (*pixel.Buffer, error) {
	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}
	if err := budget.CheckDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationBudgetExceeded, err)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanlineRead, err)
	}

	buf, err := pixel.FromImage(img, budget)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationBudgetExceeded, err)
	}
	return buf, nil
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type pngCodec struct{}

func (pngCodec) Type() Type { return TypePNG }

func (pngCodec) Match(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}

func (pngCodec) Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error) {
	return decodeImage(data, budget, png.DecodeConfig, png.Decode)
}

func (pngCodec) Encode(buf *pixel.Buffer, _ EncodeOptions) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, buf.ToNRGBA()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type jpegCodec struct{}

func (jpegCodec) Type() Type { return TypeJPEG }

func (jpegCodec) Match(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

func (jpegCodec) Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error) {
	return decodeImage(data, budget, jpeg.DecodeConfig, jpeg.Decode)
}

// Encode drops the alpha channel; JPEG has none.
func (jpegCodec) Encode(buf *pixel.Buffer, opts EncodeOptions) ([]byte, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	if quality > 100 {
		quality = 100
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, buf.ToNRGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type gifCodec struct{}

func (gifCodec) Type() Type { return TypeGIF }

func (gifCodec) Match(data []byte) bool {
	return bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))
}

func (gifCodec) Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error) {
	return NewGIFDecoder(WithBudget(budget)).Decode(data)
}

func (gifCodec) Encode(*pixel.Buffer, EncodeOptions) ([]byte, error) {
	return nil, fmt.Errorf("%w: gif", ErrEncodeUnsupported)
}

type bmpCodec struct{}

func (bmpCodec) Type() Type { return TypeBMP }

func (bmpCodec) Match(data []byte) bool {
	return len(data) >= 14 && data[0] == 'B' && data[1] == 'M'
}

func (bmpCodec) Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error) {
	return decodeImage(data, budget, bmp.DecodeConfig, bmp.Decode)
}

func (bmpCodec) Encode(buf *pixel.Buffer, _ EncodeOptions) ([]byte, error) {
	var out bytes.Buffer
	if err := bmp.Encode(&out, buf.ToNRGBA()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type webpCodec struct{}

func (webpCodec) Type() Type { return TypeWEBP }

func (webpCodec) Match(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

func (webpCodec) Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error) {
	return decodeImage(data, budget, webp.DecodeConfig, webp.Decode)
}

func (webpCodec) Encode(*pixel.Buffer, EncodeOptions) ([]byte, error) {
	return nil, fmt.Errorf("%w: webp", ErrEncodeUnsupported)
}
