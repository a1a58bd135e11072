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

// Package silica provides support for reading Procreate files.
//
// Procreate documents are ZIP containers holding a preview thumbnail, an
// optional flattened composite image, a metadata entry encoded as a keyed
// object graph (an NSKeyedArchiver binary property list), and per-layer
// raster data split into fixed-size compressed tiles.
//
// A [Reader] gives access to the document metadata and the embedded preview
// images:
//
//	r, err := silica.Open("artwork.procreate")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	doc := r.Document()
//	fmt.Printf("canvas: %dx%d\n", doc.Width, doc.Height)
//	for _, layer := range doc.Layers {
//	    fmt.Println(layer)
//	}
//
// Rasterizing layers and compositing the layer stack is provided by the
// render subpackage, decoding of individual raster tiles by the chunk
// subpackage.
//
// Reading a document is forgiving by design: only an unreadable container
// aborts [Open].  Everything after that degrades gracefully, so that a
// partially corrupt document still shows whatever can be recovered.
package silica
