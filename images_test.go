package images

import (
	"bytes"
	"os"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanspace/node-images/internal/gifstream/giftest"
	"github.com/zhanspace/node-images/internal/logging"
	"github.com/zhanspace/node-images/internal/pixel"
)

// withConfig applies a modified default configuration for the duration of
// the test.
func withConfig(t *testing.T, mutate func(cfg *Config)) {
	t.Helper()
	cfg := *settings()
	mutate(&cfg)
	require.NoError(t, Configure(&cfg))

	t.Cleanup(func() {
		current.Store(nil)
		pixel.Default().SetLimits(pixel.DefaultMaxWidth, pixel.DefaultMaxHeight, pixel.DefaultMaxMemory)
		logging.Configure("info", "text")
		logging.Default().SetOutput(os.Stderr)
	})
}

func smallGIF() []byte {
	return giftest.New(2, 2).
		Global(giftest.Color{0xFF, 0, 0}, giftest.Color{0, 0, 0xFF}).
		Frame(giftest.Frame{Width: 2, Height: 2, Pixels: []uint8{0, 1, 1, 0}}).
		Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}

func TestDecodeGif(t *testing.T) {
	before := UsedMemory()

	buf, err := DecodeGif(smallGIF())
	require.NoError(t, err)
	assert.Equal(t, before+buf.Size(), UsedMemory())
	assert.Equal(t, KindSolid, buf.Kind())
	assert.Equal(t, Pixel{B: 0xFF, A: 0xFF}, buf.PixelAt(1, 0))

	buf.Release()
	assert.Equal(t, before, UsedMemory())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain", smallGIF()},
		{"gzip wrapped", gzipped(t, smallGIF())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, typ, err := Decode(tt.data)
			require.NoError(t, err)
			defer buf.Release()

			assert.Equal(t, TypeGIF, typ)
			assert.Equal(t, 2, buf.Width())
			assert.Equal(t, Pixel{R: 0xFF, A: 0xFF}, buf.PixelAt(0, 0))
		})
	}
}

func TestDecode_UnwrapDisabled(t *testing.T) {
	withConfig(t, func(cfg *Config) { cfg.Decode.Unwrap = false })

	_, _, err := Decode(gzipped(t, smallGIF()))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecode_InputTooLarge(t *testing.T) {
	data := smallGIF()

	withConfig(t, func(cfg *Config) { cfg.Decode.MaxInputSize = int64(len(data) - 1) })
	_, _, err := Decode(data)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	withConfig(t, func(cfg *Config) {
		cfg.Decode.Unwrap = false
		cfg.Decode.MaxInputSize = int64(len(data) - 1)
	})
	_, _, err = Decode(data)
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestConfigure_Limits(t *testing.T) {
	withConfig(t, func(cfg *Config) {
		cfg.Limits.MaxWidth = 1
		cfg.Limits.MaxHeight = 8
	})

	w, h, _ := Limits()
	assert.Equal(t, 1, w)
	assert.Equal(t, 8, h)

	before := UsedMemory()
	_, err := DecodeGif(smallGIF())
	assert.ErrorIs(t, err, ErrAllocationBudgetExceeded)
	assert.ErrorIs(t, err, pixel.ErrDimensionsTooLarge)
	assert.Equal(t, before, UsedMemory())
}

func TestConfigure_Invalid(t *testing.T) {
	assert.Error(t, Configure(nil))

	cfg := *settings()
	cfg.Decode.ResizeFilter = "box"
	assert.Error(t, Configure(&cfg))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("IMAGES_MAX_WIDTH", "320")
	t.Setenv("IMAGES_RESIZE_FILTER", "nearest")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Limits.MaxWidth)
	assert.Equal(t, "nearest", cfg.Decode.ResizeFilter)
}

func TestEncodeAndResize(t *testing.T) {
	withConfig(t, func(cfg *Config) { cfg.Decode.ResizeFilter = "nearest" })

	buf, err := DecodeGif(smallGIF())
	require.NoError(t, err)
	defer buf.Release()

	require.NoError(t, Resize(buf, 4, 4))
	assert.Equal(t, 4, buf.Width())
	assert.Equal(t, Pixel{R: 0xFF, A: 0xFF}, buf.PixelAt(1, 1))
	assert.Equal(t, Pixel{B: 0xFF, A: 0xFF}, buf.PixelAt(2, 1))

	data, err := Encode(TypePNG, buf)
	require.NoError(t, err)

	back, typ, err := Decode(data)
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, TypePNG, typ)
	assert.Equal(t, buf.Row(3), back.Row(3))

	_, err = Encode(TypeGIF, buf)
	assert.ErrorIs(t, err, ErrEncodeUnsupported)

	jpg, err := Encode(TypeJPEG, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, jpg[:2])
}

func TestRotate(t *testing.T) {
	buf, err := DecodeGif(giftest.New(2, 1).
		Global(giftest.Color{0xFF, 0, 0}, giftest.Color{0, 0, 0xFF}).
		Frame(giftest.Frame{Width: 2, Height: 1, Pixels: []uint8{0, 1}}).
		Bytes())
	require.NoError(t, err)
	defer buf.Release()

	require.NoError(t, Rotate(buf, 270))
	assert.Equal(t, 1, buf.Width())
	assert.Equal(t, 2, buf.Height())
	assert.Equal(t, Pixel{R: 0xFF, A: 0xFF}, buf.PixelAt(0, 0))
	assert.Equal(t, Pixel{B: 0xFF, A: 0xFF}, buf.PixelAt(0, 1))
}

func TestConfigure_WarnsWhenReservedExceedsLimit(t *testing.T) {
	buf, err := DecodeGif(smallGIF())
	require.NoError(t, err)
	defer buf.Release()

	var out bytes.Buffer
	logging.Default().SetOutput(&out)
	withConfig(t, func(cfg *Config) { cfg.Limits.MaxMemory = 1 })

	assert.Contains(t, out.String(), "[WARN] images:")
	assert.Contains(t, out.String(), "exceed the new memory limit of 1")
}

func TestSetWidthSetHeight(t *testing.T) {
	withConfig(t, func(cfg *Config) { cfg.Decode.ResizeFilter = "nearest" })

	buf, err := DecodeGif(giftest.New(2, 1).
		Global(giftest.Color{0xFF, 0, 0}, giftest.Color{0, 0, 0xFF}).
		Frame(giftest.Frame{Width: 2, Height: 1, Pixels: []uint8{0, 1}}).
		Bytes())
	require.NoError(t, err)
	defer buf.Release()

	require.NoError(t, SetWidth(buf, 8))
	assert.Equal(t, 8, buf.Width())
	assert.Equal(t, 4, buf.Height())
	assert.Equal(t, Pixel{B: 0xFF, A: 0xFF}, buf.PixelAt(7, 3))

	require.NoError(t, SetHeight(buf, 2))
	assert.Equal(t, 4, buf.Width())
	assert.Equal(t, 2, buf.Height())
	assert.Equal(t, pixel.SizeOf(4, 2), buf.Size())
}
