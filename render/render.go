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

// Package render reassembles the raster layers of a Procreate document.
//
// [Layer] decodes the tiles of a single layer and pastes them into a
// full-canvas image.  [Composite] alpha-blends the layer stack, honoring
// per-layer opacity and caller-supplied visibility overrides.
//
// Missing or undecodable tiles are never fatal: a tile that fails to decode
// renders as fully transparent, and a layer or composite with no decodable
// data at all yields a nil image (with a nil error), signaling the caller to
// fall back to an embedded preview.
package render

import (
	"context"
	"image"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/silica"
	"seehuhn.de/go/silica/chunk"
)

// Tile file suffixes used by different application versions.
var tileSuffixes = []string{".chunk", ".lz4"}

// Options control layer rendering.  The zero value (or a nil *Options) uses
// defaults.
type Options struct {
	// Workers is the number of goroutines decoding tiles concurrently.
	// Values below 1 select GOMAXPROCS.
	Workers int

	// Warn, if non-nil, is called once for each tile which could not be
	// read or decoded.  Calls happen sequentially, after all tiles of a
	// layer have been processed.
	Warn func(entry string, err error)
}

func (o *Options) workers() int {
	if o != nil && o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o *Options) warn(entry string, err error) {
	if o != nil && o.Warn != nil {
		o.Warn(entry, err)
	}
}

// tileRef locates one tile of a layer inside the container.
type tileRef struct {
	entry    string
	col, row int
}

// Layer decodes the raster data of the layer with the given index and
// returns it as a full-canvas image.
//
// The result is nil (with a nil error) when the layer cannot be rasterized:
// the index is out of range, the layer has no tile namespace, the canvas
// dimensions are unknown, or no tile decoded.  A layer with only some
// decodable tiles renders as partially transparent; this is deliberate.
//
// The returned error is non-nil only when ctx is cancelled.
func Layer(ctx context.Context, r *silica.Reader, index int, opt *Options) (*image.NRGBA, error) {
	doc := r.Document()
	layers := doc.Layers
	if index < 0 || index >= len(layers) {
		return nil, nil
	}
	layer := layers[index]
	if layer.UUID == "" {
		return nil, nil
	}

	w, h := doc.Width, doc.Height
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	side := doc.TileSize
	if side <= 0 {
		side = 256
	}

	tiles := listTiles(r, layer.UUID)
	if len(tiles) == 0 {
		return nil, nil
	}

	// Decode concurrently; paste sequentially below.  Tiles do not
	// overlap, so only the decode step benefits from parallelism.
	pixels := make([][]byte, len(tiles))
	failures := make([]error, len(tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.workers())
	for i, tile := range tiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := r.ReadEntry(tile.entry)
			if err != nil {
				failures[i] = err
				return nil
			}
			buf, err := chunk.Decode(raw, side)
			if err != nil {
				failures[i] = err
				return nil
			}
			pixels[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, err := range failures {
		if err != nil {
			opt.warn(tiles[i].entry, err)
		}
	}

	cols := (w + side - 1) / side
	rows := (h + side - 1) / side
	canvas := image.NewNRGBA(image.Rect(0, 0, cols*side, rows*side))

	loaded := false
	for i, tile := range tiles {
		if pixels[i] == nil {
			continue
		}
		if tile.col >= cols || tile.row >= rows {
			continue
		}
		pasteTile(canvas, pixels[i], tile.col*side, tile.row*side, side)
		loaded = true
	}
	if !loaded {
		return nil, nil
	}

	if canvas.Rect.Dx() == w && canvas.Rect.Dy() == h {
		return canvas, nil
	}
	cropped := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(cropped, cropped.Rect, canvas, image.Point{}, draw.Src)
	return cropped, nil
}

// Composite alpha-blends the document's layer stack into a single image of
// the canvas size.
//
// Layers are blended in stored order, back to front.  For each layer the
// effective visibility is the override for its index if present, else the
// layer's native flag.  A layer with opacity below 1 has its alpha channel
// scaled before blending; color channels are untouched.
//
// If layers exist and every one is skipped as not visible, the composite is
// trivially complete and the transparent canvas is returned.  The result is
// nil (with a nil error) when the document has no layers at all, or when
// visible layers exist but none of them contributed any pixels; the caller
// should then fall back to [silica.Reader.BestImage].  Cancellation is
// checked between layers, and the returned error is non-nil only when ctx
// is cancelled.
func Composite(ctx context.Context, r *silica.Reader, overrides map[int]bool, opt *Options) (*image.NRGBA, error) {
	doc := r.Document()
	if len(doc.Layers) == 0 {
		return nil, nil
	}
	w, h := doc.Width, doc.Height
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	result := image.NewNRGBA(image.Rect(0, 0, w, h))
	attempted := 0
	loaded := false

	for i, layer := range doc.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		visible := layer.Visible
		if override, ok := overrides[i]; ok {
			visible = override
		}
		if !visible {
			continue
		}
		attempted++

		img, err := Layer(ctx, r, i, opt)
		if err != nil {
			return nil, err
		}
		if img == nil {
			continue
		}
		loaded = true

		if layer.Opacity < 1 {
			applyOpacity(img, layer.Opacity)
		}
		draw.Draw(result, result.Rect, img, image.Point{}, draw.Over)
	}

	if attempted > 0 && !loaded {
		return nil, nil
	}
	return result, nil
}

// listTiles enumerates the tile entries under the layer's namespace and
// parses their grid coordinates.  Tile names have the form
// "<uuid>/<col><sep><row><suffix>" where sep is "~" or "_".  Entries that do
// not parse are ignored.
func listTiles(r *silica.Reader, uuid string) []*tileRef {
	prefix := uuid + "/"
	var tiles []*tileRef
	for _, entry := range r.EntryNames() {
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		name, ok := trimTileSuffix(entry[len(prefix):])
		if !ok {
			continue
		}
		col, row, ok := splitTileName(name)
		if !ok {
			continue
		}
		tiles = append(tiles, &tileRef{entry: entry, col: col, row: row})
	}
	return tiles
}

func trimTileSuffix(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, suffix := range tileSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)], true
		}
	}
	return "", false
}

func splitTileName(name string) (col, row int, ok bool) {
	var parts []string
	for _, sep := range []string{"~", "_"} {
		if strings.Contains(name, sep) {
			parts = strings.Split(name, sep)
			break
		}
	}
	if len(parts) != 2 {
		return 0, 0, false
	}
	col, err := strconv.Atoi(parts[0])
	if err != nil || col < 0 {
		return 0, 0, false
	}
	row, err = strconv.Atoi(parts[1])
	if err != nil || row < 0 {
		return 0, 0, false
	}
	return col, row, true
}

// pasteTile copies a side×side RGBA pixel buffer into dst at (x0, y0).
func pasteTile(dst *image.NRGBA, pixels []byte, x0, y0, side int) {
	for y := 0; y < side; y++ {
		di := dst.PixOffset(x0, y0+y)
		copy(dst.Pix[di:di+side*4], pixels[y*side*4:(y+1)*side*4])
	}
}

// applyOpacity multiplies the alpha channel by opacity, leaving the color
// channels unchanged.
func applyOpacity(img *image.NRGBA, opacity float64) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * opacity)
	}
}
