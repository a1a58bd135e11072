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

// Package testdoc builds synthetic Procreate containers for use in tests.
package testdoc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"howett.net/plist"
)

// Layer describes one layer of a synthetic document.
type Layer struct {
	Name    string
	UUID    string
	Opacity float64
	Hidden  bool
	Blend   int
}

// Builder assembles a synthetic Procreate container in memory.
type Builder struct {
	width, height int
	tileSize      int
	layers        []Layer
	rawArchive    []byte // overrides the generated metadata entry
	noArchive     bool
	entries       []entry
}

type entry struct {
	name string
	data []byte
}

// NewBuilder returns a Builder for a document with the given canvas size.
func NewBuilder(width, height int) *Builder {
	return &Builder{
		width:    width,
		height:   height,
		tileSize: 256,
	}
}

// TileSize sets the tile side length recorded in the metadata.
func (b *Builder) TileSize(side int) *Builder {
	b.tileSize = side
	return b
}

// AddLayer appends a layer to the document.
func (b *Builder) AddLayer(l Layer) *Builder {
	if l.Opacity == 0 {
		l.Opacity = 1
	}
	b.layers = append(b.layers, l)
	return b
}

// AddEntry adds a raw container entry.
func (b *Builder) AddEntry(name string, data []byte) *Builder {
	b.entries = append(b.entries, entry{name, data})
	return b
}

// AddTile adds a tile entry for the given layer namespace.  sep is the
// separator between the grid coordinates ("_" or "~"), suffix the file
// suffix including the dot.
func (b *Builder) AddTile(uuid string, col, row int, sep, suffix string, data []byte) *Builder {
	name := fmt.Sprintf("%s/%d%s%d%s", uuid, col, sep, row, suffix)
	return b.AddEntry(name, data)
}

// Thumbnail adds a QuickLook thumbnail entry of the given size.
func (b *Builder) Thumbnail(width, height int) *Builder {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return b.AddEntry("QuickLook/Thumbnail.png", buf.Bytes())
}

// RawArchive replaces the generated metadata entry with the given bytes.
// Use this to simulate corrupt metadata.
func (b *Builder) RawArchive(data []byte) *Builder {
	b.rawArchive = data
	return b
}

// NoArchive omits the metadata entry entirely.
func (b *Builder) NoArchive() *Builder {
	b.noArchive = true
	return b
}

// Bytes builds the container and returns the ZIP bytes.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	writeEntry := func(name string, data []byte) {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(data); err != nil {
			panic(err)
		}
	}

	if !b.noArchive {
		data := b.rawArchive
		if data == nil {
			data = b.encodeArchive()
		}
		writeEntry("Document.archive", data)
	}
	for _, e := range b.entries {
		writeEntry(e.name, e.data)
	}

	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// encodeArchive builds the NSKeyedArchiver binary property list: a flat
// object table with "$null" at index 0 and the root object at index 1,
// cross-linked with UID references.
func (b *Builder) encodeArchive() []byte {
	objects := []interface{}{
		"$null",
	}
	addObject := func(obj interface{}) plist.UID {
		objects = append(objects, obj)
		return plist.UID(len(objects) - 1)
	}

	root := map[string]interface{}{
		"SilicaDocumentArchiveDimensionWidth":  b.width,
		"SilicaDocumentArchiveDimensionHeight": b.height,
		"tileSize":                             b.tileSize,
	}
	objects = append(objects, root) // index 1

	var layerRefs []interface{}
	for _, l := range b.layers {
		layer := map[string]interface{}{
			"contentsOpacity": l.Opacity,
			"hidden":          l.Hidden,
			"extendedBlend":   l.Blend,
		}
		layerUID := addObject(layer)
		layer["name"] = addObject(l.Name)
		layer["UUID"] = addObject(l.UUID)
		layerRefs = append(layerRefs, layerUID)
	}
	root["SilicaDocumentArchiveLayers"] = addObject(map[string]interface{}{
		"NS.objects": layerRefs,
	})

	doc := map[string]interface{}{
		"$version":  100000,
		"$archiver": "NSKeyedArchiver",
		"$objects":  objects,
		"$top":      map[string]interface{}{"root": plist.UID(1)},
	}
	data, err := plist.Marshal(doc, plist.BinaryFormat)
	if err != nil {
		panic(err)
	}
	return data
}

// RawTile returns an uncompressed tile of side×side pixels filled with the
// given color, in the BGRA byte order tiles are stored in.
func RawTile(side int, c color.NRGBA) []byte {
	data := make([]byte, side*side*4)
	for i := 0; i < len(data); i += 4 {
		data[i] = c.B
		data[i+1] = c.G
		data[i+2] = c.R
		data[i+3] = c.A
	}
	return data
}
