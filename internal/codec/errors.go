// Package codec turns encoded image bytes into budgeted pixel buffers.
//
// The GIF path rebuilds the logical screen as a grid of palette indices,
// composites each frame into an RGBA buffer and keeps only the state left by
// the last frame. The other formats go through image/png, image/jpeg and
// golang.org/x/image and are selected by sniffing their magic bytes.
package codec

import "errors"

// Decode failures. Every failure is terminal for the call that returned it
// and no partially decoded buffer is ever handed back.
var (
	ErrStreamOpen                = errors.New("codec: stream could not be opened")
	ErrMalformedScreenDescriptor = errors.New("codec: malformed screen descriptor")
	ErrFrameOutOfBounds          = errors.New("codec: frame rectangle exceeds canvas")
	ErrScanlineRead              = errors.New("codec: stream read failed")
	ErrMissingColorTable         = errors.New("codec: no color table for frame")
	ErrPaletteIndexOutOfRange    = errors.New("codec: palette index out of range")
	ErrUnexpectedRecordType      = errors.New("codec: unexpected record type")
	ErrAllocationBudgetExceeded  = errors.New("codec: allocation budget exceeded")
)

// Registry failures.
var (
	ErrUnknownFormat     = errors.New("codec: unknown image format")
	ErrEncodeUnsupported = errors.New("codec: encoding not supported for format")
	ErrInputTooLarge     = errors.New("codec: input exceeds size limit")
)
