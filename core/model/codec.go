package model

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// CodecType は保存時のペイロード圧縮方式です。値はファイルに書き込まれるため変更しないこと。
type CodecType uint8

const (
	CodecNone CodecType = iota
	CodecGzip
	CodecZstd
	CodecS2
	CodecLZ4
)

var codecNames = map[CodecType]string{
	CodecNone: "none",
	CodecGzip: "gzip",
	CodecZstd: "zstd",
	CodecS2:   "s2",
	CodecLZ4:  "lz4",
}

func (t CodecType) String() string {
	if n, ok := codecNames[t]; ok {
		return n
	}
	return fmt.Sprintf("codec(%d)", uint8(t))
}

// ParseCodec returns the codec with the given name.
func ParseCodec(name string) (CodecType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range codecNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.NewValidationError("codec", "unknown codec, want one of none, gzip, zstd, s2, lz4", name)
}

// Codec compresses and decompresses a payload. Decompress receives the
// uncompressed size recorded in the envelope.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, size int) ([]byte, error)
}

var builtinCodecs = map[CodecType]Codec{
	CodecNone: noopCodec{},
	CodecGzip: gzipCodec{},
	CodecZstd: zstdCodec{},
	CodecS2:   s2Codec{},
	CodecLZ4:  lz4Codec{},
}

// GetCodec retrieves the built-in Codec for t.
func GetCodec(t CodecType) (Codec, error) {
	if c, ok := builtinCodecs[t]; ok {
		return c, nil
	}
	return nil, errors.Newf("unsupported codec: %s", t)
}

type noopCodec struct{}

func (noopCodec) Compress(data []byte) ([]byte, error) { return data, nil }

func (noopCodec) Decompress(data []byte, size int) ([]byte, error) {
	if len(data) != size {
		return nil, errors.Newf("stored size %d, payload has %d bytes", size, len(data))
	}
	return data, nil
}

type gzipCodec struct{}

func (gzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Decompress(data []byte, size int) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// zstd の Encoder/Decoder はウォームアップ後に再利用するとアロケーションが発生しない
var zstdDecoderPool = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
		}
		return d
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
		}
		return e
	},
}

type zstdCodec struct{}

func (zstdCodec) Compress(data []byte) ([]byte, error) {
	e := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(e)
	return e.EncodeAll(data, nil), nil
}

func (zstdCodec) Decompress(data []byte, size int) ([]byte, error) {
	d := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(d)
	return d.DecodeAll(data, make([]byte, 0, size))
}

type s2Codec struct{}

func (s2Codec) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Codec) Decompress(data []byte, size int) ([]byte, error) {
	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, errors.Newf("stored size %d, s2 block decodes to %d bytes", size, n)
	}
	return s2.Decode(make([]byte, size), data)
}

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

type lz4Codec struct{}

func (lz4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	c := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

func (lz4Codec) Decompress(data []byte, size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
