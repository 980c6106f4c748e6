package codec

import (
	"fmt"
	"strings"

	"github.com/zhanspace/node-images/internal/logging"
	"github.com/zhanspace/node-images/internal/pixel"
)

// Type identifies an image format.
type Type int

const (
	TypePNG Type = iota + 1
	TypeJPEG
	TypeGIF
	TypeBMP
	TypeRAW
	TypeWEBP
)

var typeNames = map[Type]string{
	TypePNG:  "png",
	TypeJPEG: "jpeg",
	TypeGIF:  "gif",
	TypeBMP:  "bmp",
	TypeRAW:  "raw",
	TypeWEBP: "webp",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType returns the Type named s ("jpg" is accepted for jpeg).
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "jpg" {
		return TypeJPEG, nil
	}
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// EncodeOptions holds format specific encoder settings.
type EncodeOptions struct {
	// Quality is the JPEG quality, 1-100. Zero selects the encoder default.
	Quality int
}

// Codec decodes and encodes one image format.
type Codec interface {
	// Type returns the format tag
	Type() Type

	// Match reports whether data looks like this format
	Match(data []byte) bool

	// Decode decodes data into a buffer charged against budget
	Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, error)

	// Encode encodes buf; formats without an encoder return ErrEncodeUnsupported
	Encode(buf *pixel.Buffer, opts EncodeOptions) ([]byte, error)
}

// codecs is consulted in order when sniffing input.
var codecs = []Codec{
	pngCodec{},
	jpegCodec{},
	gifCodec{},
	bmpCodec{},
	rawCodec{},
	webpCodec{},
}

// Codecs returns the registered codecs in sniffing order.
func Codecs() []Codec {
	out := make([]Codec, len(codecs))
	copy(out, codecs)
	return out
}

// Lookup returns the codec registered for t.
func Lookup(t Type) (Codec, error) {
	for _, c := range codecs {
		if c.Type() == t {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, t)
}

// Detect returns the codec of the first format whose signature matches data.
func Detect(data []byte) (Codec, error) {
	for _, c := range codecs {
		if c.Match(data) {
			return c, nil
		}
	}
	return nil, ErrUnknownFormat
}

// Decode sniffs the format of data and decodes it with the matching codec.
// A nil budget means the process budget.
func Decode(data []byte, budget *pixel.Budget) (*pixel.Buffer, Type, error) {
	if budget == nil {
		budget = pixel.Default()
	}

	c, err := Detect(data)
	if err != nil {
		return nil, 0, err
	}
	logging.Debug("codec: decoding %d bytes as %s", len(data), c.Type())

	buf, err := c.Decode(data, budget)
	if err != nil {
		return nil, c.Type(), fmt.Errorf("%s: %w", c.Type(), err)
	}
	return buf, c.Type(), nil
}

// Encode encodes buf as format t.
func Encode(t Type, buf *pixel.Buffer, opts EncodeOptions) ([]byte, error) {
	c, err := Lookup(t)
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Kind() == pixel.KindEmpty {
		return nil, fmt.Errorf("%w: empty buffer", pixel.ErrInvalidDimensions)
	}
	return c.Encode(buf, opts)
}
