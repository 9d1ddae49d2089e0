// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Result describes one compression. Ratio is CompressedSize divided
// by UncompressedSize, and 0 (not NaN) for empty input.
type Result struct {
	Compressed       []byte    `json:"-"`
	UncompressedSize int       `json:"uncompressed_size"`
	CompressedSize   int       `json:"compressed_size"`
	Ratio            float64   `json:"ratio"`
	Hash             string    `json:"hash"`
	Algorithm        Algorithm `json:"algorithm"`
	Level            int       `json:"level"`
}

// Ratio computes compressed/uncompressed, defining the empty case as 0.
func Ratio(compressedSize, uncompressedSize int64) float64 {
	if uncompressedSize == 0 {
		return 0
	}
	return float64(compressedSize) / float64(uncompressedSize)
}

// Compress compresses data with config. The config is clamped first,
// so out-of-range levels never reach an encoder. For AlgorithmNone the
// returned Compressed slice is data itself, not a copy.
func Compress(data []byte, config Config) (Result, error) {
	config = config.normalized()
	if !config.Algorithm.Valid() {
		return Result{}, fmt.Errorf("compression: unsupported algorithm %s", config.Algorithm)
	}

	result := Result{
		UncompressedSize: len(data),
		Hash:             ContentHash(data),
		Algorithm:        config.Algorithm,
		Level:            config.Level,
	}
	if len(data) == 0 {
		result.Compressed = []byte{}
		return result, nil
	}

	var compressed []byte
	var err error
	switch config.Algorithm {
	case AlgorithmNone:
		compressed = data
	case AlgorithmGzip:
		compressed, err = compressGzip(data, config.Level)
	case AlgorithmBrotli:
		compressed, err = compressBrotli(data, config.Level, config.WindowBits)
	case AlgorithmZstd:
		compressed, err = compressZstd(data, config.Level)
	}
	if err != nil {
		return Result{}, err
	}

	result.Compressed = compressed
	result.CompressedSize = len(compressed)
	result.Ratio = Ratio(int64(len(compressed)), int64(len(data)))
	return result, nil
}

// Decompress reverses [Compress]. Input that is not a valid stream
// for algorithm is an error; it is never passed through.
func Decompress(data []byte, algorithm Algorithm) ([]byte, error) {
	if !algorithm.Valid() {
		return nil, fmt.Errorf("compression: unsupported algorithm %s", algorithm)
	}
	if len(data) == 0 {
		return []byte{}, nil
	}

	switch algorithm {
	case AlgorithmGzip:
		return decompressGzip(data)
	case AlgorithmBrotli:
		return decompressBrotli(data)
	case AlgorithmZstd:
		return decompressZstd(data)
	default:
		return data, nil
	}
}

// Gzip: klauspost's drop-in replacement for compress/gzip.

func compressGzip(data []byte, level int) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buffer, level)
	if err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer reader.Close()

	output, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return output, nil
}

// Brotli: quality maps directly to level; windowBits maps to LGWin
// (0 lets the encoder pick from quality).

func compressBrotli(data []byte, level, windowBits int) ([]byte, error) {
	var buffer bytes.Buffer
	writer := brotli.NewWriterOptions(&buffer, brotli.WriterOptions{
		Quality: level,
		LGWin:   windowBits,
	})
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("brotli compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("brotli compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func decompressBrotli(data []byte) ([]byte, error) {
	output, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("brotli decompress: %w", err)
	}
	return output, nil
}

// Zstd: klauspost maps the 1-22 reference levels onto four encoder
// speeds. One encoder per speed is built on first use and reused;
// zstd.Encoder.EncodeAll and zstd.Decoder.DecodeAll are safe for
// concurrent use.

var zstdEncoders struct {
	sync.Mutex
	byLevel map[zstd.EncoderLevel]*zstd.Encoder
}

var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil)
})

func zstdEncoder(level int) (*zstd.Encoder, error) {
	encoderLevel := zstd.EncoderLevelFromZstd(level)

	zstdEncoders.Lock()
	defer zstdEncoders.Unlock()

	if encoder, ok := zstdEncoders.byLevel[encoderLevel]; ok {
		return encoder, nil
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
	if err != nil {
		return nil, err
	}
	if zstdEncoders.byLevel == nil {
		zstdEncoders.byLevel = make(map[zstd.EncoderLevel]*zstd.Encoder)
	}
	zstdEncoders.byLevel[encoderLevel] = encoder
	return encoder, nil
}

func compressZstd(data []byte, level int) ([]byte, error) {
	encoder, err := zstdEncoder(level)
	if err != nil {
		return nil, fmt.Errorf("zstd compress: %w", err)
	}
	return encoder.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	output, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return output, nil
}
