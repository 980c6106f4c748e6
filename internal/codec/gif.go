package codec

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zhanspace/node-images/internal/gifstream"
	"github.com/zhanspace/node-images/internal/logging"
	"github.com/zhanspace/node-images/internal/pixel"
)

// RecordSource is a pull-based reader of GIF records. Calls are made strictly
// in sequence by a single decode.
type RecordSource interface {
	Screen() gifstream.Screen
	NextRecordType() (gifstream.RecordType, error)
	ImageDescriptor() (gifstream.ImageDesc, error)
	ReadScanline(dst []byte) error
	ExtensionHeader() (code byte, block []byte, err error)
	NextExtensionBlock() ([]byte, error)
	Close() error
}

// Opener positions a RecordSource at the start of data.
type Opener func(data []byte) (RecordSource, error)

// OpenGIF is the default Opener, backed by gifstream.
func OpenGIF(data []byte) (RecordSource, error) {
	d, err := gifstream.Open(data)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GIFDecoder rebuilds the final visible state of a GIF stream into a pixel
// buffer charged against a budget.
type GIFDecoder struct {
	budget *pixel.Budget
	open   Opener
	logger *logging.Logger
}

// GIFOption configures a GIFDecoder.
type GIFOption func(*GIFDecoder)

// WithBudget charges decoded buffers to b instead of the process budget.
func WithBudget(b *pixel.Budget) GIFOption {
	return func(g *GIFDecoder) {
		if b != nil {
			g.budget = b
		}
	}
}

// WithOpener replaces the record source.
func WithOpener(open Opener) GIFOption {
	return func(g *GIFDecoder) {
		if open != nil {
			g.open = open
		}
	}
}

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l *logging.Logger) GIFOption {
	return func(g *GIFDecoder) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGIFDecoder creates a decoder using the process budget and gifstream
// unless overridden by opts.
func NewGIFDecoder(opts ...GIFOption) *GIFDecoder {
	g := &GIFDecoder{
		budget: pixel.Default(),
		open:   OpenGIF,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DecodeGif decodes data with the default GIFDecoder.
func DecodeGif(data []byte) (*pixel.Buffer, error) {
	return NewGIFDecoder().Decode(data)
}

// Decode draws every frame of the stream in order onto a screen-sized
// canvas and returns the composited result. On failure nothing stays
// charged to the budget and no buffer is returned.
func (g *GIFDecoder) Decode(data []byte) (*pixel.Buffer, error) {
	var trace string
	if g.logger.Enabled(logging.LevelDebug) {
		trace = uuid.NewString()
	}

	buf, err := g.decode(data, trace)
	if err != nil {
		g.logger.Debug("gif[%s]: decode failed: %v", trace, err)
		return nil, err
	}
	return buf, nil
}

// trace tags the debug lines of one decode.
func (g *GIFDecoder) decode(data []byte, trace string) (*pixel.Buffer, error) {
	src, err := g.open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}
	defer func() {
		_ = src.Close()
	}()

	screen := src.Screen()
	if screen.Width <= 0 || screen.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrMalformedScreenDescriptor, screen.Width, screen.Height)
	}
	// The canvas is not charged, but it is never built for a screen the
	// destination could not hold.
	if err := g.budget.CheckDimensions(screen.Width, screen.Height); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationBudgetExceeded, err)
	}
	g.logger.Debug("gif[%s]: screen %dx%d background %d", trace, screen.Width, screen.Height, screen.Background)

	canvas := NewCanvas(screen.Width, screen.Height, screen.Background)
	defer canvas.Release()

	dst := pixel.NewBuffer(g.budget)
	if err := dst.Reserve(screen.Width, screen.Height); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationBudgetExceeded, err)
	}
	done := false
	defer func() {
		if !done {
			dst.Release()
		}
	}()

	var tr Transparency
	frames := 0

	for {
		rt, err := src.NextRecordType()
		if err != nil {
			return nil, fmt.Errorf("%w: record type: %w", ErrScanlineRead, err)
		}

		switch rt {
		case gifstream.RecordImage:
			frame, err := src.ImageDescriptor()
			if err != nil {
				return nil, fmt.Errorf("%w: image descriptor: %w", ErrScanlineRead, err)
			}
			if err := canvas.DrawFrame(frame, src); err != nil {
				return nil, err
			}
			table, err := ActiveTable(frame, screen.Global)
			if err != nil {
				return nil, err
			}
			if err := Compose(dst, canvas, frame, table, tr); err != nil {
				return nil, err
			}
			frames++
			if trace != "" {
				g.logger.Debug("gif[%s]: frame %d %dx%d at (%d,%d) interlaced=%t",
					trace, frames, frame.Width, frame.Height, frame.Left, frame.Top, frame.Interlaced)
			}

		case gifstream.RecordExtension:
			code, block, err := src.ExtensionHeader()
			if err != nil {
				return nil, fmt.Errorf("%w: extension: %w", ErrScanlineRead, err)
			}
			if code == gifstream.ExtGraphicControl && block != nil {
				tr.SetFromExtension(block)
			}
			for block != nil {
				if block, err = src.NextExtensionBlock(); err != nil {
					return nil, fmt.Errorf("%w: extension 0x%02X: %w", ErrScanlineRead, code, err)
				}
			}

		case gifstream.RecordTerminate:
			done = true
			g.logger.Debug("gif[%s]: decoded %d frame(s), kind %s", trace, frames, dst.Kind())
			return dst, nil

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedRecordType, rt)
		}
	}
}
