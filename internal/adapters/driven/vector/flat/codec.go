package flat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// vectorFileName returns the vector file name for a codec.
func vectorFileName(c domain.Compression) string {
	switch c {
	case domain.CompressionZstd:
		return vectorFileBase + ".zst"
	case domain.CompressionLZ4:
		return vectorFileBase + ".lz4"
	default:
		return vectorFileBase
	}
}

// encodeVectors serialises values as little-endian float32.
func encodeVectors(values []float32) []byte {
	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return raw
}

// decodeVectors is the inverse of encodeVectors.
func decodeVectors(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: vector payload of %d bytes is not a multiple of 4", domain.ErrIndexCorrupt, len(raw))
	}
	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return values, nil
}

// compress frames raw with the given codec.
func compress(c domain.Compression, raw []byte) ([]byte, error) {
	switch c {
	case domain.CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), nil

	case domain.CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 close: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return raw, nil
	}
}

// decompress reverses compress. A malformed frame is reported as a corrupt index.
func decompress(c domain.Compression, data []byte) ([]byte, error) {
	switch c {
	case domain.CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer zstdDecoderPool.Put(dec)
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", domain.ErrIndexCorrupt, err)
		}
		return raw, nil

	case domain.CompressionLZ4:
		raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", domain.ErrIndexCorrupt, err)
		}
		return raw, nil

	default:
		return data, nil
	}
}
