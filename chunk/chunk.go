// seehuhn.de/go/silica - a library for reading Procreate files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package chunk decodes the raster tiles of a Procreate document.
//
// A tile holds the pixels of one fixed-size square block of a layer, 4
// bytes per pixel.  Tiles are written by several application versions using
// different compression schemes, with no reliable format marker except for
// the chained-LZ4 scheme.  [Decode] therefore tries a fixed sequence of
// codecs and accepts the first one whose output has exactly the expected
// size.
//
// Tiles store pixels in BGRA channel order; Decode returns them reordered
// as RGBA, the canonical order used throughout this module.
package chunk

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/rasky/go-lzo"
)

// ErrUnknownEncoding indicates that none of the known codecs produced a
// pixel buffer of the expected size.
var ErrUnknownEncoding = errors.New("unknown tile encoding")

// DecodeError is returned by [Decode] when a tile cannot be decoded.
type DecodeError struct {
	Size int // size of the raw tile data, in bytes
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("chunk: cannot decode %d-byte tile: %s", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Magic tags of the chained-LZ4 scheme.  A tile starts with blockMagic and
// a sequence of compressed blocks; blockEnd terminates the sequence.
var (
	blockMagic = []byte("bv41")
	blockEnd   = []byte("bv4$")
)

// Hard limits on attacker-controlled size fields.  Block headers declare
// their own sizes; a malformed tile must fail fast instead of causing large
// allocations or unbounded loops.
const (
	maxBlockSize  = 1 << 24 // declared uncompressed size of a single block
	maxBlockCount = 1 << 12
)

// Decode decodes the raw bytes of one tile into an RGBA pixel buffer of
// side*side pixels (side*side*4 bytes).
//
// The codecs are tried in order: chained-LZ4 block sequence, uncompressed,
// plain LZ4 block, LZO, and zlib.  A codec whose output does not have
// exactly the expected size counts as failed and the next one is tried.  If
// all fail, Decode returns a [*DecodeError] wrapping [ErrUnknownEncoding];
// the caller should treat the tile as fully transparent.
func Decode(raw []byte, side int) ([]byte, error) {
	if side <= 0 {
		return nil, fmt.Errorf("chunk: invalid tile size %d", side)
	}
	expected := side * side * 4

	pixels := decodeChained(raw, expected)
	if pixels == nil && len(raw) == expected {
		pixels = bytes.Clone(raw)
	}
	if pixels == nil {
		pixels = decodeLZ4Block(raw, expected)
	}
	if pixels == nil {
		pixels = decodeLZO(raw, expected)
	}
	if pixels == nil {
		pixels = decodeZlib(raw, expected)
	}
	if pixels == nil {
		return nil, &DecodeError{Size: len(raw), Err: ErrUnknownEncoding}
	}

	bgraToRGBA(pixels)
	return pixels, nil
}

// decodeChained decodes the chained-LZ4 block sequence format: a run of
// blocks, each introduced by the "bv41" tag followed by the uncompressed
// and compressed sizes as little-endian uint32, terminated by the "bv4$"
// tag or the end of input.
//
// Each block is LZ4-decompressed using the previous block's decompressed
// output as the sliding-window dictionary.  The first block has an empty
// dictionary.  The dictionary is exactly the prior block's output, not an
// accumulation.
//
// Returns nil if raw is not in this format, violates the size limits, or
// the concatenated output does not have the expected size.
func decodeChained(raw []byte, expected int) []byte {
	if !bytes.HasPrefix(raw, blockMagic) {
		return nil
	}

	var out []byte
	var dict []byte
	off := 0
	for blocks := 0; off < len(raw); blocks++ {
		if blocks >= maxBlockCount {
			return nil
		}
		if bytes.HasPrefix(raw[off:], blockEnd) {
			break
		}
		if !bytes.HasPrefix(raw[off:], blockMagic) {
			break
		}
		off += 4

		if len(raw)-off < 8 {
			return nil
		}
		uSize := int(binary.LittleEndian.Uint32(raw[off:]))
		cSize := int(binary.LittleEndian.Uint32(raw[off+4:]))
		off += 8

		if uSize <= 0 || uSize > maxBlockSize || len(out)+uSize > expected {
			return nil
		}
		if cSize <= 0 || cSize > len(raw)-off {
			return nil
		}

		block := make([]byte, uSize)
		n, err := lz4.UncompressBlockWithDict(raw[off:off+cSize], block, dict)
		if err != nil || n != uSize {
			return nil
		}
		out = append(out, block...)
		dict = block
		off += cSize
	}

	if len(out) != expected {
		return nil
	}
	return out
}

// decodeLZ4Block decodes raw as a single unchained LZ4 block.
func decodeLZ4Block(raw []byte, expected int) []byte {
	out := make([]byte, expected)
	n, err := lz4.UncompressBlock(raw, out)
	if err != nil || n != expected {
		return nil
	}
	return out
}

// decodeLZO decodes raw using the legacy LZO1X scheme.
func decodeLZO(raw []byte, expected int) []byte {
	out, err := lzo.Decompress1X(bytes.NewReader(raw), len(raw), expected)
	if err != nil || len(out) != expected {
		return nil
	}
	return out
}

// decodeZlib decodes raw as a zlib stream.  Reading is capped at one byte
// past the expected size, so an over-long stream fails the length check
// without being fully decompressed.
func decodeZlib(raw []byte, expected int) []byte {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, int64(expected)+1))
	if err != nil || len(out) != expected {
		return nil
	}
	return out
}

// bgraToRGBA swaps the blue and red channels in place.
func bgraToRGBA(pixels []byte) {
	for i := 0; i+3 < len(pixels); i += 4 {
		pixels[i], pixels[i+2] = pixels[i+2], pixels[i]
	}
}
