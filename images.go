// Package images decodes encoded images into RGBA pixel buffers whose memory
// is charged to a process-wide budget.
//
// Decoding is a single call; the caller owns the returned buffer and must
// Release it to return its memory to the budget:
//
//	buf, typ, err := images.Decode(data)
//	if err != nil {
//		return err
//	}
//	defer buf.Release()
package images

import (
	"fmt"
	"sync/atomic"

	"github.com/zhanspace/node-images/internal/codec"
	"github.com/zhanspace/node-images/internal/config"
	"github.com/zhanspace/node-images/internal/logging"
	"github.com/zhanspace/node-images/internal/pixel"
)

type (
	Buffer        = pixel.Buffer
	Pixel         = pixel.Pixel
	Kind          = pixel.Kind
	Type          = codec.Type
	EncodeOptions = codec.EncodeOptions

	Config        = config.Config
	LimitsConfig  = config.LimitsConfig
	DecodeConfig  = config.DecodeConfig
	LoggingConfig = config.LoggingConfig
)

const (
	KindEmpty = pixel.KindEmpty
	KindAlpha = pixel.KindAlpha
	KindSolid = pixel.KindSolid
)

const (
	TypePNG  = codec.TypePNG
	TypeJPEG = codec.TypeJPEG
	TypeGIF  = codec.TypeGIF
	TypeBMP  = codec.TypeBMP
	TypeRAW  = codec.TypeRAW
	TypeWEBP = codec.TypeWEBP
)

var (
	ErrStreamOpen                = codec.ErrStreamOpen
	ErrMalformedScreenDescriptor = codec.ErrMalformedScreenDescriptor
	ErrFrameOutOfBounds          = codec.ErrFrameOutOfBounds
	ErrScanlineRead              = codec.ErrScanlineRead
	ErrMissingColorTable         = codec.ErrMissingColorTable
	ErrPaletteIndexOutOfRange    = codec.ErrPaletteIndexOutOfRange
	ErrUnexpectedRecordType      = codec.ErrUnexpectedRecordType
	ErrAllocationBudgetExceeded  = codec.ErrAllocationBudgetExceeded
	ErrUnknownFormat             = codec.ErrUnknownFormat
	ErrEncodeUnsupported         = codec.ErrEncodeUnsupported
	ErrInputTooLarge             = codec.ErrInputTooLarge
)

var current atomic.Pointer[config.Config]

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// Configure validates cfg and applies it: buffer limits go to the process
// budget, logging settings to the default logger. Buffers already reserved
// keep their charge.
func Configure(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("images: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("images: %w", err)
	}

	applied := *cfg
	pixel.Default().SetLimits(applied.Limits.MaxWidth, applied.Limits.MaxHeight, applied.Limits.MaxMemory)
	logging.Configure(applied.Logging.Level, applied.Logging.Format)
	current.Store(&applied)

	if used := pixel.Default().Used(); applied.Limits.MaxMemory > 0 && used > applied.Limits.MaxMemory {
		logging.Warn("images: %d bytes already reserved exceed the new memory limit of %d", used, applied.Limits.MaxMemory)
	}

	logging.Debug("images: limits %dx%d, %d bytes", applied.Limits.MaxWidth, applied.Limits.MaxHeight, applied.Limits.MaxMemory)
	return nil
}

// settings returns the configuration set by Configure, falling back to the
// defaults.
func settings() *config.Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Limits: config.LimitsConfig{
			MaxWidth:  pixel.DefaultMaxWidth,
			MaxHeight: pixel.DefaultMaxHeight,
			MaxMemory: pixel.DefaultMaxMemory,
		},
		Decode: config.DecodeConfig{
			Unwrap:       true,
			MaxInputSize: 256 << 20,
			ResizeFilter: pixel.FilterBilinear,
			JPEGQuality:  90,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

// Decode detects the format of data and decodes it. A zstd or gzip wrapper
// is removed first unless disabled in the configuration.
func Decode(data []byte) (*Buffer, Type, error) {
	cfg := settings()

	if cfg.Decode.Unwrap {
		unwrapped, err := codec.Unwrap(data, cfg.Decode.MaxInputSize)
		if err != nil {
			return nil, 0, err
		}
		data = unwrapped
	} else if int64(len(data)) > cfg.Decode.MaxInputSize {
		return nil, 0, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(data), cfg.Decode.MaxInputSize)
	}

	return codec.Decode(data, pixel.Default())
}

// DecodeGif decodes a GIF stream into a buffer holding the state left by
// its last frame.
func DecodeGif(data []byte) (*Buffer, error) {
	return codec.DecodeGif(data)
}

// Encode encodes buf as format t using the configured JPEG quality.
func Encode(t Type, buf *Buffer) ([]byte, error) {
	return codec.Encode(t, buf, EncodeOptions{Quality: settings().Decode.JPEGQuality})
}

// Resize scales buf in place with the configured filter.
func Resize(buf *Buffer, w, h int) error {
	return buf.Resize(w, h, settings().Decode.ResizeFilter)
}

// SetWidth scales buf to width w with the configured filter, keeping its
// aspect ratio.
func SetWidth(buf *Buffer, w int) error {
	return buf.SetWidth(w, settings().Decode.ResizeFilter)
}

// SetHeight scales buf to height h with the configured filter, keeping its
// aspect ratio.
func SetHeight(buf *Buffer, h int) error {
	return buf.SetHeight(h, settings().Decode.ResizeFilter)
}

// Rotate turns buf deg degrees counter-clockwise in place.
func Rotate(buf *Buffer, deg int) error {
	return buf.Rotate(deg)
}

// UsedMemory returns the bytes currently held by buffers charged to the
// process budget.
func UsedMemory() int64 {
	return pixel.Default().Used()
}

// Limits returns the process-wide maximum buffer width, height and memory.
func Limits() (maxWidth, maxHeight int, maxMemory int64) {
	return pixel.Default().Limits()
}
