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

package silica

import (
	"encoding/binary"
	"fmt"
	"strings"

	"seehuhn.de/go/icc"
)

// Document holds the metadata of a Procreate document: canvas geometry and
// the ordered list of layers.  A Document is immutable after loading;
// visibility overrides at composite time are supplied by the caller and do
// not modify the Document.
type Document struct {
	// Width and Height are the canvas dimensions in pixels.
	Width  int
	Height int

	// DPI is the canvas resolution.  The default is 132, the value
	// Procreate uses when no resolution is recorded.
	DPI int

	// Orientation is the canvas orientation code.
	Orientation int

	// TileSize is the side length of the square raster tiles the layer
	// data is stored in.  The default is 256.
	TileSize int

	// ColorProfile is the name of the document's color profile.  The
	// default is "sRGB".
	ColorProfile string

	// Video reports whether the document contains timelapse video
	// segments.
	Video bool

	// Layers lists the document's layers in painting order, back to
	// front.
	Layers []*Layer

	// Metadata collects the scalar fields of the root object, for
	// diagnostic display.
	Metadata map[string]Object
}

// Layer describes a single layer of a Procreate document.
type Layer struct {
	// Name is the layer name.  Layers without a usable name get a
	// positional placeholder ("Layer 1", "Layer 2", ...).
	Name string

	// UUID identifies the container namespace holding the layer's raster
	// tiles.  A layer with an empty UUID cannot be rasterized.
	UUID string

	// Opacity is the layer opacity in the range 0 to 1.
	Opacity float64

	// Visible is the layer's native visibility flag.
	Visible bool

	// BlendMode is the layer's blend mode code.  See [BlendModeName].
	BlendMode int
}

func (l *Layer) String() string {
	vis := "visible"
	if !l.Visible {
		vis = "hidden"
	}
	return fmt.Sprintf("Layer(%q, %s, opacity=%.0f%%)", l.Name, vis, l.Opacity*100)
}

// Alias lists for the fields of the root object and of layer objects.  The
// key names vary between format generations; the probe order below is the
// order the fields are tried in, and is part of the contract.
var (
	widthKeys  = []string{"SilicaDocumentArchiveDimensionWidth", "width", "canvasWidth", "tileSize"}
	heightKeys = []string{"SilicaDocumentArchiveDimensionHeight", "height", "canvasHeight"}
	dpiKeys    = []string{"SilicaDocumentArchiveDPI", "dpi"}
	orientKeys = []string{"SilicaDocumentArchiveOrientation", "orientation"}
	tileKeys   = []string{"tileSize", "SilicaDocumentArchiveTileSize"}

	layerNameKeys    = []string{"name", "SilicaLayerArchiveName"}
	layerUUIDKeys    = []string{"UUID", "uuid", "SilicaLayerArchiveUUID"}
	layerOpacityKeys = []string{"contentsOpacity", "opacity", "SilicaLayerArchiveOpacity"}
	layerHiddenKeys  = []string{"hidden", "SilicaLayerArchiveHidden"}
	layerBlendKeys   = []string{"extendedBlend", "blend", "blendMode"}
)

const (
	videoKey        = "SilicaDocumentVideoSegmentInfoKey"
	colorProfileKey = "SilicaDocumentArchiveICCProfileData"
	layersKey       = "SilicaDocumentArchiveLayers"
	layerClassMark  = "SilicaLayer"
)

// ExtractDocument builds a Document from the root object of the given
// archive.  The archive may be nil or lack a usable root; in this case the
// returned Document is empty except for the defaults and the fallback canvas
// dimensions (typically taken from the embedded thumbnail).
func ExtractDocument(a *Archive, fallbackWidth, fallbackHeight int) *Document {
	doc := &Document{
		DPI:          132,
		TileSize:     256,
		ColorProfile: "sRGB",
		Metadata:     make(map[string]Object),
	}

	root := a.Root()
	if root != nil {
		doc.Width = intAlias(root, widthKeys)
		doc.Height = intAlias(root, heightKeys)

		if dpi := intAlias(root, dpiKeys); dpi > 0 {
			doc.DPI = dpi
		}
		doc.Orientation = intAlias(root, orientKeys)
		if ts := intAlias(root, tileKeys); ts > 0 {
			doc.TileSize = ts
		}

		doc.Video = isVideoEnabled(a, root)
		if name := colorProfileName(a, root); name != "" {
			doc.ColorProfile = name
		}

		for key, val := range root {
			switch val.(type) {
			case String, Integer, Real, Bool:
				doc.Metadata[key] = val
			}
		}

		doc.Layers = extractLayers(a, root)
	}

	if doc.Width == 0 {
		doc.Width = fallbackWidth
	}
	if doc.Height == 0 {
		doc.Height = fallbackHeight
	}

	return doc
}

// intAlias probes the keys in order and returns the first value that is
// numeric or a 4-byte big-endian integer blob.  It returns 0 if no key
// yields a usable value.
func intAlias(d Dict, keys []string) int {
	for _, key := range keys {
		switch val := d[key].(type) {
		case Integer:
			return int(val)
		case Real:
			return int(val)
		case Blob:
			if len(val) >= 4 {
				return int(int32(binary.BigEndian.Uint32(val[:4])))
			}
		}
	}
	return 0
}

// isVideoEnabled reports whether the root object records timelapse video
// segments.  The field counts as set unless it is absent or one of the
// archiver's "empty" sentinels (false, null, or a reference to "$null").
func isVideoEnabled(a *Archive, root Dict) bool {
	val, ok := root[videoKey]
	if !ok || val == nil {
		return false
	}
	if b, isBool := val.(Bool); isBool && !bool(b) {
		return false
	}
	if s, isString := a.Resolve(val).(String); isString && s == "$null" {
		return false
	}
	return true
}

// colorProfileName extracts the color profile name from the root object, or
// "" when none is recoverable.  A string value is used verbatim.  A data
// value is decoded as an ICC profile and mapped to the name of its color
// space.
func colorProfileName(a *Archive, root Dict) string {
	val := a.Resolve(root[colorProfileKey])
	switch val := val.(type) {
	case String:
		return string(val)
	case Blob:
		p, err := icc.Decode(val)
		if err != nil {
			return ""
		}
		switch p.ColorSpace {
		case icc.GraySpace:
			return "Gray"
		case icc.RGBSpace:
			return "RGB"
		case icc.CMYKSpace:
			return "CMYK"
		case icc.CIELabSpace:
			return "Lab"
		}
	}
	return ""
}

// extractLayers builds the layer list from the root object.  The layer list
// field resolves either to an NSArray wrapper object (element references
// under "NS.objects") or to a plain array.  If no layers are found this way,
// a fallback scan over the whole object table looks for layer-class objects.
func extractLayers(a *Archive, root Dict) []*Layer {
	layersVal, ok := root[layersKey]
	if !ok {
		layersVal = root["layers"]
	}

	var refs Array
	switch resolved := a.Resolve(layersVal).(type) {
	case Dict:
		refs, _ = resolved["NS.objects"].(Array)
	case Array:
		refs = resolved
	}

	var layers []*Layer
	for _, ref := range refs {
		obj, ok := GetDict(a, ref)
		if !ok {
			continue
		}

		layer := &Layer{
			Name:      fmt.Sprintf("Layer %d", len(layers)+1),
			Opacity:   1,
			Visible:   true,
			BlendMode: 0,
		}
		if name, ok := stringAlias(a, obj, layerNameKeys); ok {
			layer.Name = name
		}
		layer.UUID, _ = stringAlias(a, obj, layerUUIDKeys)
		if op, ok := realAlias(obj, layerOpacityKeys); ok {
			layer.Opacity = clamp01(op)
		}
		if hidden, ok := boolAlias(obj, layerHiddenKeys); ok {
			layer.Visible = !hidden
		}
		if blend, ok := realAlias(obj, layerBlendKeys); ok {
			layer.BlendMode = int(blend)
		}
		layers = append(layers, layer)
	}

	if len(layers) == 0 {
		layers = scanForLayers(a)
	}
	return layers
}

// scanForLayers iterates the whole object table and builds minimal layer
// records for every object whose class descriptor names a layer class.
// Layers found this way have no UUID and cannot be rasterized, but they can
// still be listed.
func scanForLayers(a *Archive) []*Layer {
	if a == nil {
		return nil
	}
	var layers []*Layer
	for i := 0; i < a.Len(); i++ {
		obj, ok := a.Object(i).(Dict)
		if !ok {
			continue
		}
		if !strings.Contains(a.ClassName(obj), layerClassMark) {
			continue
		}

		layer := &Layer{
			Name:    fmt.Sprintf("Layer %d", len(layers)+1),
			Opacity: 1,
			Visible: true,
		}
		if name, ok := stringAlias(a, obj, layerNameKeys); ok {
			layer.Name = name
		}
		if op, ok := realAlias(obj, layerOpacityKeys); ok {
			layer.Opacity = clamp01(op)
		}
		if hidden, ok := boolAlias(obj, layerHiddenKeys); ok {
			layer.Visible = !hidden
		}
		layers = append(layers, layer)
	}
	return layers
}

// stringAlias probes the keys in order, resolving each value once, and
// returns the first string found.
func stringAlias(a *Archive, d Dict, keys []string) (string, bool) {
	for _, key := range keys {
		val, ok := d[key]
		if !ok || val == nil {
			continue
		}
		if s, ok := a.Resolve(val).(String); ok {
			return string(s), true
		}
	}
	return "", false
}

// realAlias probes the keys in order and returns the first numeric value.
// Values of the wrong type are skipped, never coerced.
func realAlias(d Dict, keys []string) (float64, bool) {
	for _, key := range keys {
		switch val := d[key].(type) {
		case Integer:
			return float64(val), true
		case Real:
			return float64(val), true
		}
	}
	return 0, false
}

// boolAlias probes the keys in order and returns the first boolean value.
func boolAlias(d Dict, keys []string) (bool, bool) {
	for _, key := range keys {
		if val, ok := d[key].(Bool); ok {
			return bool(val), true
		}
	}
	return false, false
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
