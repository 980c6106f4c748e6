package codec

import (
	"fmt"

	"github.com/zhanspace/node-images/internal/gifstream"
)

// ActiveTable returns the color table governing a frame: its local table
// when present, the global screen table otherwise.
func ActiveTable(frame gifstream.ImageDesc, global gifstream.ColorTable) (gifstream.ColorTable, error) {
	if frame.Local != nil {
		return frame.Local, nil
	}
	if global != nil {
		return global, nil
	}
	return nil, ErrMissingColorTable
}

// Resolve maps a palette index to its color.
func Resolve(table gifstream.ColorTable, index uint8) (gifstream.RGB, error) {
	if int(index) >= len(table) {
		return gifstream.RGB{}, fmt.Errorf("%w: %d >= %d", ErrPaletteIndexOutOfRange, index, len(table))
	}
	return table[index], nil
}
