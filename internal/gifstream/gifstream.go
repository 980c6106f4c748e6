// Package gifstream is a pull-based reader for the record structure of a GIF
// stream. It yields the logical screen descriptor, typed records, image
// descriptors, decompressed scanlines and raw extension blocks; it does not
// build images.
//
// The GIF specification is at https://www.w3.org/Graphics/GIF/spec-gif89a.txt.
package gifstream

import (
	"bytes"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
)

var (
	ErrBadSignature  = errors.New("gifstream: not a GIF stream")
	ErrShortRead     = errors.New("gifstream: unexpected end of stream")
	ErrBadCodeSize   = errors.New("gifstream: LZW code size out of range")
	ErrNoImageData   = errors.New("gifstream: no image data pending")
	ErrTooMuchData   = errors.New("gifstream: scanline longer than remaining image data")
	ErrNotEnoughData = errors.New("gifstream: not enough image data")
	ErrClosed        = errors.New("gifstream: stream closed")
)

// RecordType identifies the next record in the stream.
type RecordType int

const (
	RecordUndefined RecordType = iota
	RecordImage
	RecordExtension
	RecordTerminate
)

func (t RecordType) String() string {
	switch t {
	case RecordImage:
		return "image"
	case RecordExtension:
		return "extension"
	case RecordTerminate:
		return "terminate"
	}
	return "undefined"
}

// Section introducers.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extension labels.
const (
	ExtPlainText      = 0x01
	ExtGraphicControl = 0xF9
	ExtComment        = 0xFE
	ExtApplication    = 0xFF
)

// Packed field masks.
const (
	fColorTable     = 1 << 7
	fColorTableSize = 7
	fInterlace      = 1 << 6
)

// RGB is one color table entry.
type RGB struct {
	R, G, B uint8
}

// ColorTable holds up to 256 entries.
type ColorTable []RGB

// Screen is the logical screen descriptor plus the global color table.
type Screen struct {
	Width       int
	Height      int
	Background  uint8
	AspectRatio uint8
	Global      ColorTable // nil when absent
}

// ImageDesc describes where the following scanlines belong on the screen.
type ImageDesc struct {
	Left       int
	Top        int
	Width      int
	Height     int
	Interlaced bool
	Local      ColorTable // nil when absent
}

// Decoder reads records from an in-memory GIF stream. Calls must be made
// sequentially; a Decoder is not safe for concurrent use.
type Decoder struct {
	r      *bytes.Reader
	screen Screen

	image   ImageDesc
	pending int // indices left in the current image
	blocks  *blockReader
	lzw     io.ReadCloser

	inExtension bool
	closed      bool

	tmp [768]byte
}

// Open positions a cursor at the start of data and reads the header, the
// logical screen descriptor and the global color table.
func Open(data []byte) (*Decoder, error) {
	d := &Decoder{r: bytes.NewReader(data)}

	if err := d.readFull(d.tmp[:13]); err != nil {
		return nil, fmt.Errorf("%w: reading header", err)
	}
	if vers := string(d.tmp[:6]); vers != "GIF87a" && vers != "GIF89a" {
		return nil, fmt.Errorf("%w: signature %q", ErrBadSignature, vers)
	}

	d.screen.Width = int(d.tmp[6]) | int(d.tmp[7])<<8
	d.screen.Height = int(d.tmp[8]) | int(d.tmp[9])<<8
	flags := d.tmp[10]
	d.screen.Background = d.tmp[11]
	d.screen.AspectRatio = d.tmp[12]

	if flags&fColorTable != 0 {
		table, err := d.readColorTable(flags)
		if err != nil {
			return nil, fmt.Errorf("global color table: %w", err)
		}
		d.screen.Global = table
	}

	return d, nil
}

// Screen returns the logical screen descriptor read by Open.
func (d *Decoder) Screen() Screen {
	return d.screen
}

// NextRecordType reads the next record introducer. Unread image data and
// extension blocks of the previous record are skipped first.
func (d *Decoder) NextRecordType() (RecordType, error) {
	if d.closed {
		return RecordUndefined, ErrClosed
	}
	if err := d.skipPending(); err != nil {
		return RecordUndefined, err
	}

	c, err := d.r.ReadByte()
	if err != nil {
		return RecordUndefined, fmt.Errorf("%w: record type", ErrShortRead)
	}

	switch c {
	case sImageDescriptor:
		return RecordImage, nil
	case sExtension:
		return RecordExtension, nil
	case sTrailer:
		return RecordTerminate, nil
	}
	return RecordUndefined, nil
}

// ImageDescriptor reads the image descriptor following a RecordImage
// introducer and prepares its LZW data for ReadScanline.
func (d *Decoder) ImageDescriptor() (ImageDesc, error) {
	if d.closed {
		return ImageDesc{}, ErrClosed
	}
	if err := d.readFull(d.tmp[:9]); err != nil {
		return ImageDesc{}, fmt.Errorf("%w: image descriptor", err)
	}

	desc := ImageDesc{
		Left:   int(d.tmp[0]) | int(d.tmp[1])<<8,
		Top:    int(d.tmp[2]) | int(d.tmp[3])<<8,
		Width:  int(d.tmp[4]) | int(d.tmp[5])<<8,
		Height: int(d.tmp[6]) | int(d.tmp[7])<<8,
	}
	flags := d.tmp[8]
	desc.Interlaced = flags&fInterlace != 0

	if flags&fColorTable != 0 {
		table, err := d.readColorTable(flags)
		if err != nil {
			return ImageDesc{}, fmt.Errorf("local color table: %w", err)
		}
		desc.Local = table
	}

	litWidth, err := d.r.ReadByte()
	if err != nil {
		return ImageDesc{}, fmt.Errorf("%w: LZW code size", ErrShortRead)
	}
	if litWidth < 2 || litWidth > 8 {
		return ImageDesc{}, fmt.Errorf("%w: %d", ErrBadCodeSize, litWidth)
	}

	d.image = desc
	d.blocks = &blockReader{r: d.r}
	d.lzw = lzw.NewReader(d.blocks, lzw.LSB, int(litWidth))
	d.pending = desc.Width * desc.Height

	if d.pending == 0 {
		if err := d.finishImage(); err != nil {
			return ImageDesc{}, err
		}
	}

	return desc, nil
}

// ReadScanline fills dst with the next len(dst) palette indices of the
// current image. Once the last index is read, the rest of the image data is
// consumed so the cursor sits on the next record.
func (d *Decoder) ReadScanline(dst []byte) error {
	if d.closed {
		return ErrClosed
	}
	if d.pending == 0 {
		return ErrNoImageData
	}
	if len(dst) > d.pending {
		return fmt.Errorf("%w: want %d, have %d", ErrTooMuchData, len(dst), d.pending)
	}

	if _, err := io.ReadFull(d.lzw, dst); err != nil {
		d.abortImage()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrNotEnoughData
		}
		return fmt.Errorf("gifstream: lzw: %w", err)
	}

	d.pending -= len(dst)
	if d.pending == 0 {
		return d.finishImage()
	}
	return nil
}

// ExtensionHeader reads the label and first data block of an extension. A
// nil block means the extension carried no data.
func (d *Decoder) ExtensionHeader() (code byte, block []byte, err error) {
	if d.closed {
		return 0, nil, ErrClosed
	}
	code, err = d.r.ReadByte()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: extension label", ErrShortRead)
	}

	d.inExtension = true
	block, err = d.NextExtensionBlock()
	return code, block, err
}

// NextExtensionBlock returns the next data block of the current extension,
// or nil once the block terminator has been read.
func (d *Decoder) NextExtensionBlock() ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if !d.inExtension {
		return nil, nil
	}

	n, err := d.r.ReadByte()
	if err != nil {
		d.inExtension = false
		return nil, fmt.Errorf("%w: extension block size", ErrShortRead)
	}
	if n == 0 {
		d.inExtension = false
		return nil, nil
	}

	block := make([]byte, n)
	if err := d.readFull(block); err != nil {
		d.inExtension = false
		return nil, fmt.Errorf("%w: extension block", err)
	}
	return block, nil
}

// Close releases the decompressor. Further calls return ErrClosed.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.abortImage()
	d.inExtension = false
	d.closed = true
	return nil
}

func (d *Decoder) readColorTable(flags byte) (ColorTable, error) {
	n := 1 << (1 + int(flags&fColorTableSize))
	raw := d.tmp[:3*n]
	if err := d.readFull(raw); err != nil {
		return nil, err
	}

	table := make(ColorTable, n)
	for i := range table {
		table[i] = RGB{R: raw[3*i], G: raw[3*i+1], B: raw[3*i+2]}
	}
	return table, nil
}

func (d *Decoder) readFull(p []byte) error {
	if _, err := io.ReadFull(d.r, p); err != nil {
		return ErrShortRead
	}
	return nil
}

func (d *Decoder) skipPending() error {
	if d.lzw != nil {
		if err := d.finishImage(); err != nil {
			return err
		}
	}
	for d.inExtension {
		if _, err := d.NextExtensionBlock(); err != nil {
			return err
		}
	}
	return nil
}

// finishImage discards what is left of the image data sub-blocks, up to and
// including the block terminator.
func (d *Decoder) finishImage() error {
	blocks := d.blocks
	d.abortImage()
	if blocks == nil {
		return nil
	}
	if _, err := io.Copy(io.Discard, blocks); err != nil {
		return fmt.Errorf("%w: image data", ErrShortRead)
	}
	return nil
}

func (d *Decoder) abortImage() {
	if d.lzw != nil {
		_ = d.lzw.Close()
	}
	d.lzw = nil
	d.blocks = nil
	d.pending = 0
}

// blockReader presents the (n, n bytes) sub-block framing of image data as
// a plain stream. It reports io.EOF at the zero-length terminator block.
type blockReader struct {
	r     *bytes.Reader
	slice []byte
	err   error
	tmp   [255]byte
}

func (b *blockReader) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(b.slice) == 0 {
		n, err := b.r.ReadByte()
		if err != nil {
			b.err = io.ErrUnexpectedEOF
			return 0, b.err
		}
		if n == 0 {
			b.err = io.EOF
			return 0, b.err
		}
		b.slice = b.tmp[:n]
		if _, err := io.ReadFull(b.r, b.slice); err != nil {
			b.err = io.ErrUnexpectedEOF
			return 0, b.err
		}
	}
	n := copy(p, b.slice)
	b.slice = b.slice[n:]
	return n, nil
}
