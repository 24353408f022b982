// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the algorithm applied to an envelope
// payload. The numeric values are persisted and must never change.
type CompressionTag uint8

const (
	// CompressionNone stores the payload as-is.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 favours speed over ratio.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is the default for backups: transcripts are
	// repetitive text and compress well.
	CompressionZstd CompressionTag = 2
)

// String returns the configuration name of the tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag converts a configuration name to a tag. The
// empty string selects zstd.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// envelope is the on-disk framing around a CBOR payload. Size is the
// uncompressed length, which both decompressors need to size their
// output buffers.
type envelope struct {
	Compression CompressionTag `cbor:"c"`
	Size        int            `cbor:"n"`
	Payload     []byte         `cbor:"p"`
}

// MarshalCompressed encodes v to deterministic CBOR and compresses it
// with the requested algorithm. When compression does not shrink the
// payload the envelope records CompressionNone instead, so callers
// never pay decompression cost for nothing.
func MarshalCompressed(v any, tag CompressionTag) ([]byte, error) {
	raw, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encoding payload: %w", err)
	}
	used, payload, err := Compress(raw, tag)
	if err != nil {
		return nil, err
	}
	return Marshal(envelope{Compression: used, Size: len(raw), Payload: payload})
}

// UnmarshalCompressed reverses MarshalCompressed.
func UnmarshalCompressed(data []byte, v any) error {
	raw, err := Open(data)
	if err != nil {
		return err
	}
	if err := Unmarshal(raw, v); err != nil {
		return fmt.Errorf("codec: decoding payload: %w", err)
	}
	return nil
}

// Open returns the uncompressed CBOR payload of an envelope without
// decoding it.
func Open(data []byte) ([]byte, error) {
	var frame envelope
	if err := Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("codec: decoding envelope: %w", err)
	}
	if frame.Size < 0 {
		return nil, fmt.Errorf("codec: envelope has negative size %d", frame.Size)
	}
	raw, err := Decompress(frame.Payload, frame.Compression, frame.Size)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// EnvelopeCompression reports which algorithm an envelope was written
// with.
func EnvelopeCompression(data []byte) (CompressionTag, error) {
	var frame envelope
	if err := Unmarshal(data, &frame); err != nil {
		return 0, fmt.Errorf("codec: decoding envelope: %w", err)
	}
	return frame.Compression, nil
}

// Compress applies tag to data and returns the tag actually used
// along with the compressed bytes. Incompressible data comes back
// unchanged with CompressionNone.
func Compress(data []byte, tag CompressionTag) (CompressionTag, []byte, error) {
	var compressed []byte
	var err error
	switch tag {
	case CompressionNone:
		return CompressionNone, data, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	default:
		return 0, nil, fmt.Errorf("codec: unknown compression tag %d", uint8(tag))
	}
	if errors.Is(err, errIncompressible) {
		return CompressionNone, data, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return tag, compressed, nil
}

// Decompress reverses Compress. uncompressedSize must be the length
// of the original data.
func Decompress(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("codec: uncompressed payload is %d bytes, expected %d", len(compressed), uncompressedSize)
		}
		return compressed, nil
	case CompressionLZ4:
		return decompressLZ4(compressed, uncompressedSize)
	case CompressionZstd:
		return decompressZstd(compressed, uncompressedSize)
	default:
		return nil, fmt.Errorf("codec: unknown compression tag %d", uint8(tag))
	}
}

var errIncompressible = errors.New("data is incompressible")

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errIncompressible
	}
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when the input cannot be compressed.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// zstd encoder and decoder are safe for concurrent EncodeAll and
// DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errIncompressible
	}
	compressed := zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
