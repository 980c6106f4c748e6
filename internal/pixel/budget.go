package pixel

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Default limits, matching the historical 10240x10240 screen cap.
const (
	DefaultMaxWidth  = 10240
	DefaultMaxHeight = 10240
	DefaultMaxMemory = 1 << 30
)

var (
	ErrInvalidDimensions  = errors.New("pixel: invalid dimensions")
	ErrDimensionsTooLarge = errors.New("pixel: dimensions exceed limits")
	ErrBudgetExceeded     = errors.New("pixel: memory budget exceeded")
	ErrBufferInUse        = errors.New("pixel: buffer already reserved")
)

// Budget tracks the memory charged by pixel buffers against a shared limit.
// A zero maxMemory means no memory limit. All methods are safe for
// concurrent use.
type Budget struct {
	maxWidth  atomic.Int64
	maxHeight atomic.Int64
	maxMemory atomic.Int64
	used      atomic.Int64
}

var defaultBudget = NewBudget(DefaultMaxWidth, DefaultMaxHeight, DefaultMaxMemory)

// Default returns the process-wide budget.
func Default() *Budget {
	return defaultBudget
}

// NewBudget creates a budget with the given limits.
func NewBudget(maxWidth, maxHeight int, maxMemory int64) *Budget {
	b := &Budget{}
	b.SetLimits(maxWidth, maxHeight, maxMemory)
	return b
}

// SetLimits replaces the limits. Memory already charged is kept.
func (b *Budget) SetLimits(maxWidth, maxHeight int, maxMemory int64) {
	b.maxWidth.Store(int64(maxWidth))
	b.maxHeight.Store(int64(maxHeight))
	b.maxMemory.Store(maxMemory)
}

// Limits returns the current maximum width, height and memory.
func (b *Budget) Limits() (maxWidth, maxHeight int, maxMemory int64) {
	return int(b.maxWidth.Load()), int(b.maxHeight.Load()), b.maxMemory.Load()
}

// Used returns the number of bytes currently charged.
func (b *Budget) Used() int64 {
	return b.used.Load()
}

// CheckDimensions reports whether a w x h buffer is within the size limits.
func (b *Budget) CheckDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	maxW, maxH := b.maxWidth.Load(), b.maxHeight.Load()
	if int64(w) > maxW || int64(h) > maxH {
		return fmt.Errorf("%w: %dx%d > %dx%d", ErrDimensionsTooLarge, w, h, maxW, maxH)
	}
	return nil
}

// charge adds n bytes to the used counter unless that would pass the limit.
// The counter is left untouched on failure.
func (b *Budget) charge(n int64) error {
	for {
		used := b.used.Load()
		limit := b.maxMemory.Load()
		if limit > 0 && (n > limit || used > limit-n) {
			return fmt.Errorf("%w: %d + %d > %d bytes", ErrBudgetExceeded, used, n, limit)
		}
		if b.used.CompareAndSwap(used, used+n) {
			return nil
		}
	}
}

func (b *Budget) refund(n int64) {
	b.used.Add(-n)
}
