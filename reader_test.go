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

package silica_test

import (
	"bytes"
	"errors"
	"testing"

	"seehuhn.de/go/silica"
	"seehuhn.de/go/silica/internal/testdoc"
)

func openDoc(t *testing.T, data []byte) *silica.Reader {
	t.Helper()
	r, err := silica.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpenDocument(t *testing.T) {
	data := testdoc.NewBuilder(800, 600).
		AddLayer(testdoc.Layer{Name: "Background", UUID: "BG-1"}).
		AddLayer(testdoc.Layer{Name: "Ink", UUID: "INK-1", Opacity: 0.5, Hidden: true, Blend: 2}).
		Thumbnail(80, 60).
		Bytes()
	r := openDoc(t, data)

	if err := r.ArchiveErr(); err != nil {
		t.Fatalf("unexpected archive error: %v", err)
	}

	doc := r.Document()
	if doc.Width != 800 || doc.Height != 600 {
		t.Errorf("canvas = %dx%d, want 800x600", doc.Width, doc.Height)
	}
	layers := r.Layers()
	if len(layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(layers))
	}
	if layers[0].Name != "Background" || layers[0].UUID != "BG-1" {
		t.Errorf("layer 0 = %v", layers[0])
	}
	l := layers[1]
	if l.Name != "Ink" || l.Opacity != 0.5 || l.Visible || l.BlendMode != 2 {
		t.Errorf("layer 1 = %v", l)
	}

	if r.Thumbnail() == nil {
		t.Error("Thumbnail() = nil")
	}
}

func TestNotAZip(t *testing.T) {
	data := []byte("this is not a zip archive at all, not even close......")
	_, err := silica.NewReader(bytes.NewReader(data), int64(len(data)))
	var notArchive *silica.NotArchiveError
	if !errors.As(err, &notArchive) {
		t.Fatalf("got %v, want *NotArchiveError", err)
	}
}

// TestGarbageMetadata checks the degraded-load path: a container whose
// metadata entry is garbage still opens, with canvas dimensions taken from
// the thumbnail and an empty layer list.
func TestGarbageMetadata(t *testing.T) {
	data := testdoc.NewBuilder(800, 600).
		RawArchive([]byte("complete garbage, certainly not a plist")).
		Thumbnail(120, 90).
		Bytes()
	r := openDoc(t, data)

	var parseErr *silica.ArchiveParseError
	if !errors.As(r.ArchiveErr(), &parseErr) {
		t.Fatalf("ArchiveErr() = %v, want *ArchiveParseError", r.ArchiveErr())
	}

	doc := r.Document()
	if doc.Width != 120 || doc.Height != 90 {
		t.Errorf("canvas = %dx%d, want thumbnail fallback 120x90",
			doc.Width, doc.Height)
	}
	if len(doc.Layers) != 0 {
		t.Errorf("got %d layers, want 0", len(doc.Layers))
	}
	if doc.DPI != 132 || doc.ColorProfile != "sRGB" {
		t.Errorf("defaults not applied: DPI=%d profile=%q",
			doc.DPI, doc.ColorProfile)
	}
}

func TestMissingMetadata(t *testing.T) {
	data := testdoc.NewBuilder(800, 600).
		NoArchive().
		Thumbnail(64, 48).
		Bytes()
	r := openDoc(t, data)

	if r.ArchiveErr() == nil {
		t.Error("ArchiveErr() = nil for missing metadata entry")
	}
	if !errors.Is(r.ArchiveErr(), silica.ErrEntryNotFound) {
		t.Errorf("ArchiveErr() = %v, want wrapped ErrEntryNotFound", r.ArchiveErr())
	}
	doc := r.Document()
	if doc.Width != 64 || doc.Height != 48 {
		t.Errorf("canvas = %dx%d, want 64x48", doc.Width, doc.Height)
	}
}

func TestEntryNames(t *testing.T) {
	data := testdoc.NewBuilder(100, 100).
		AddEntry("alpha.bin", []byte{1}).
		AddEntry("beta.bin", []byte{2}).
		Bytes()
	r := openDoc(t, data)

	names := r.EntryNames()
	want := []string{"Document.archive", "alpha.bin", "beta.bin"}
	if len(names) != len(want) {
		t.Fatalf("got %d entries, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, names[i], want[i])
		}
	}

	if _, err := r.ReadEntry("alpha.bin"); err != nil {
		t.Errorf("ReadEntry(alpha.bin): %v", err)
	}
	if _, err := r.ReadEntry("missing.bin"); !errors.Is(err, silica.ErrEntryNotFound) {
		t.Errorf("ReadEntry(missing.bin) = %v, want ErrEntryNotFound", err)
	}
}

func TestBestImage(t *testing.T) {
	// thumbnail only
	data := testdoc.NewBuilder(100, 100).Thumbnail(10, 10).Bytes()
	r := openDoc(t, data)
	if r.BestImage() == nil || r.BestImage() != r.Thumbnail() {
		t.Error("BestImage must fall back to the thumbnail")
	}

	// no images at all
	data = testdoc.NewBuilder(100, 100).Bytes()
	r = openDoc(t, data)
	if r.BestImage() != nil {
		t.Error("BestImage() != nil for a container without images")
	}
	if r.ThumbnailBytes() != nil {
		t.Error("ThumbnailBytes() != nil for a container without images")
	}
}

func TestCloseIdempotent(t *testing.T) {
	data := testdoc.NewBuilder(100, 100).Bytes()
	r, err := silica.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := r.ReadEntry("Document.archive"); !errors.Is(err, silica.ErrClosed) {
		t.Errorf("ReadEntry after Close = %v, want ErrClosed", err)
	}
}

func TestExportPNG(t *testing.T) {
	data := testdoc.NewBuilder(100, 100).Thumbnail(10, 10).Bytes()
	r := openDoc(t, data)

	var buf bytes.Buffer
	if err := r.ExportPNG(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("export did not produce a PNG file")
	}

	buf.Reset()
	if err := r.ExportJPEG(&buf, nil, 90); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xff, 0xd8}) {
		t.Error("export did not produce a JPEG file")
	}
}
