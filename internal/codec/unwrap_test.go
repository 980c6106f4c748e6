package codec

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanspace/node-images/internal/gifstream/giftest"
	"github.com/zhanspace/node-images/internal/pixel"
)

func zstdCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func gzipCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}

func TestUnwrap(t *testing.T) {
	payload := bytes.Repeat([]byte("pixels "), 200)

	tests := []struct {
		name string
		data []byte
	}{
		{"plain", payload},
		{"zstd", zstdCompress(t, payload)},
		{"gzip", gzipCompress(t, payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unwrap(tt.data, int64(len(payload)))
			require.NoError(t, err)
			assert.Equal(t, payload, got)

			got, err = Unwrap(tt.data, 0)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestUnwrap_TooLarge(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 4096)

	for name, data := range map[string][]byte{
		"plain": payload,
		"zstd":  zstdCompress(t, payload),
		"gzip":  gzipCompress(t, payload),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Unwrap(data, 4095)
			assert.ErrorIs(t, err, ErrInputTooLarge)
		})
	}
}

func TestUnwrap_Corrupt(t *testing.T) {
	_, err := Unwrap([]byte{0x1F, 0x8B, 0x00, 0x00}, 0)
	assert.ErrorIs(t, err, ErrStreamOpen)

	_, err = Unwrap(append(append([]byte{}, zstdMagic...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF), 0)
	assert.Error(t, err)
}

func TestUnwrap_ThenDecode(t *testing.T) {
	gif := giftest.New(1, 1).Global(green).Frame(giftest.Frame{Width: 1, Height: 1, Pixels: []uint8{0}}).Bytes()

	data, err := Unwrap(zstdCompress(t, gif), 1<<20)
	require.NoError(t, err)

	budget := pixel.NewBudget(8, 8, 0)
	buf, typ, err := Decode(data, budget)
	require.NoError(t, err)
	defer buf.Release()

	assert.Equal(t, TypeGIF, typ)
	assert.Equal(t, opaque(green), buf.PixelAt(0, 0))
}
