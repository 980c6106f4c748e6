package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

// Unwrap strips a zstd or gzip container from data. Anything else is
// returned unchanged. limit caps the decompressed size; a non-positive
// limit disables the cap.
func Unwrap(data []byte, limit int64) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return unwrapZstd(data, limit)
	case bytes.HasPrefix(data, gzipMagic):
		return unwrapGzip(data, limit)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(data), limit)
	}
	return data, nil
}

func unwrapZstd(data []byte, limit int64) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer func() {
		_ = dec.Reset(nil)
		zstdDecPool.Put(dec)
	}()

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrStreamOpen, err)
	}
	return readLimited(dec, limit, "zstd")
}

func unwrapGzip(data []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrStreamOpen, err)
	}
	defer zr.Close()

	return readLimited(zr, limit, "gzip")
}

func readLimited(r io.Reader, limit int64, container string) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	var out bytes.Buffer
	n, err := io.Copy(&out, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScanlineRead, container, err)
	}
	if limit > 0 && n > limit {
		return nil, fmt.Errorf("%w: %s payload over %d bytes", ErrInputTooLarge, container, limit)
	}
	return out.Bytes(), nil
}
