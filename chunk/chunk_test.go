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

package chunk

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pierrec/lz4/v4"
	"github.com/rasky/go-lzo"
)

// swapped returns the pixel buffer with blue and red channels exchanged,
// i.e. the RGBA view of BGRA data.
func swapped(pixels []byte) []byte {
	out := bytes.Clone(pixels)
	bgraToRGBA(out)
	return out
}

func TestDecodeRaw(t *testing.T) {
	const side = 4
	raw := make([]byte, side*side*4)
	for i := range raw {
		raw[i] = byte(i)
	}

	got, err := Decode(raw, side)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(swapped(raw), got); d != "" {
		t.Errorf("unexpected pixels (-want +got):\n%s", d)
	}
}

func TestDecodeZlib(t *testing.T) {
	const side = 8
	raw := make([]byte, side*side*4)
	for i := range raw {
		raw[i] = byte(i % 7)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := Decode(buf.Bytes(), side)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(swapped(raw), got); d != "" {
		t.Errorf("unexpected pixels (-want +got):\n%s", d)
	}
}

func TestDecodeLZ4Block(t *testing.T) {
	const side = 8
	raw := bytes.Repeat([]byte{1, 2, 3, 4}, side*side)

	dst := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, dst, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("test data is incompressible")
	}

	got, err := Decode(dst[:n], side)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(swapped(raw), got); d != "" {
		t.Errorf("unexpected pixels (-want +got):\n%s", d)
	}
}

func TestDecodeLZO(t *testing.T) {
	const side = 8
	raw := bytes.Repeat([]byte{9, 8, 7, 6}, side*side)

	compressed := lzo.Compress1X(raw)

	got, err := Decode(compressed, side)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(swapped(raw), got); d != "" {
		t.Errorf("unexpected pixels (-want +got):\n%s", d)
	}
}

// chainedFixture builds a two-block chained stream for a 4x4 tile (64
// bytes).  The first block holds the first 32 bytes as plain literals.  The
// second block copies 27 bytes from the sliding-window dictionary (the first
// block's output) and appends 5 literals, so that its decompressed output
// equals the first block's.  Decoding the second block without the
// dictionary must fail: its match reaches 32 bytes back into a window that
// would otherwise be empty.
func chainedFixture() (stream, part []byte) {
	part = make([]byte, 32)
	for i := range part {
		part[i] = byte(0x30 + i)
	}

	// literals-only LZ4 block: token F0, length extension 17 (15+17=32)
	block1 := append([]byte{0xF0, 17}, part...)

	// one match sequence (offset 32, length 27) plus 5 trailing literals
	block2 := []byte{0x0F, 0x20, 0x00, 0x08, 0x50}
	block2 = append(block2, part[27:]...)

	var buf bytes.Buffer
	for _, block := range [][]byte{block1, block2} {
		buf.Write(blockMagic)
		var sizes [8]byte
		binary.LittleEndian.PutUint32(sizes[0:], 32)
		binary.LittleEndian.PutUint32(sizes[4:], uint32(len(block)))
		buf.Write(sizes[:])
		buf.Write(block)
	}
	buf.Write(blockEnd)
	return buf.Bytes(), part
}

func TestDecodeChained(t *testing.T) {
	const side = 4
	stream, part := chainedFixture()

	want := swapped(append(bytes.Clone(part), part...))
	got, err := Decode(stream, side)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("unexpected pixels (-want +got):\n%s", d)
	}
}

// TestChainedNeedsDictionary is the negative control for the dictionary
// chaining: the second block of the fixture must not be decodable on its
// own, proving that TestDecodeChained actually exercised the dictionary.
func TestChainedNeedsDictionary(t *testing.T) {
	stream, part := chainedFixture()

	// skip tag and sizes of block 1
	block1 := stream[12 : 12+34]
	block2 := stream[12+34+12 : len(stream)-4]

	dict := make([]byte, 32)
	if n, err := lz4.UncompressBlock(block1, dict); err != nil || n != 32 {
		t.Fatalf("block 1 did not decode: n=%d, err=%v", n, err)
	}

	out := make([]byte, 32)
	n, err := lz4.UncompressBlockWithDict(block2, out, dict)
	if err != nil || n != 32 {
		t.Fatalf("block 2 did not decode with dictionary: n=%d, err=%v", n, err)
	}
	if d := cmp.Diff(part, out); d != "" {
		t.Errorf("unexpected block 2 output (-want +got):\n%s", d)
	}

	out2 := make([]byte, 32)
	n, err = lz4.UncompressBlock(block2, out2)
	if err == nil && n == 32 && bytes.Equal(out2, part) {
		t.Error("block 2 decoded identically without the dictionary")
	}
}

func TestDecodeChainedBadSizes(t *testing.T) {
	const side = 4

	// declared uncompressed size exceeds the hard limit
	var buf bytes.Buffer
	buf.Write(blockMagic)
	var sizes [8]byte
	binary.LittleEndian.PutUint32(sizes[0:], 0xFFFFFFF0)
	binary.LittleEndian.PutUint32(sizes[4:], 8)
	buf.Write(sizes[:])
	buf.Write(make([]byte, 8))
	buf.Write(blockEnd)

	_, err := Decode(buf.Bytes(), side)
	if err == nil {
		t.Error("expected decode failure for oversized block header")
	}

	// compressed size pointing past the end of input
	buf.Reset()
	buf.Write(blockMagic)
	binary.LittleEndian.PutUint32(sizes[0:], 32)
	binary.LittleEndian.PutUint32(sizes[4:], 1000)
	buf.Write(sizes[:])
	buf.Write(make([]byte, 4))

	_, err = Decode(buf.Bytes(), side)
	if err == nil {
		t.Error("expected decode failure for truncated block")
	}
}

func TestDecodeGarbage(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02}
	_, err := Decode(raw, 4)
	if !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("got %v, want ErrUnknownEncoding", err)
	}
	var dErr *DecodeError
	if !errors.As(err, &dErr) {
		t.Fatalf("got %T, want *DecodeError", err)
	}
	if dErr.Size != len(raw) {
		t.Errorf("Size = %d, want %d", dErr.Size, len(raw))
	}
}

func TestDecodeBadSide(t *testing.T) {
	for _, side := range []int{0, -1} {
		if _, err := Decode([]byte{1, 2, 3}, side); err == nil {
			t.Errorf("side=%d: expected error", side)
		}
	}
}
