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
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	_ "image/gif" // allow odd preview entries to decode
)

// Conventional entry names inside the container.  Two case variants are in
// use for each, written by different application versions.
var (
	archiveEntries = []string{"Document.archive", "document.archive"}

	thumbnailEntries = []string{
		"QuickLook/Thumbnail.png",
		"QuickLook/thumbnail.png",
		"Thumbnail.png",
	}
	previewEntries = []string{
		"QuickLook/Preview.png",
		"QuickLook/preview.png",
		"composite.png",
	}
)

// Reader represents a Procreate document opened for reading.  Use the
// function [Open] or [NewReader] to create a new Reader.
//
// Opening fails only when the container itself is unreadable.  A missing or
// corrupt metadata entry degrades to an empty [Document] (its parse error is
// available via [Reader.ArchiveErr]), because embedded preview images may
// still be usable.
type Reader struct {
	file       *File
	archive    *Archive
	archiveErr error
	doc        *Document
	thumbnail  image.Image
	preview    image.Image
}

// Open opens the named Procreate file for reading.  After use, Close() must
// be called to release the file handle.
func Open(fname string) (*Reader, error) {
	f, err := OpenFile(fname)
	if err != nil {
		return nil, err
	}
	return newReader(f), nil
}

// NewReader opens a Procreate document from an in-memory or otherwise
// already-open byte source.
func NewReader(data io.ReaderAt, size int64) (*Reader, error) {
	f, err := NewFile(data, size)
	if err != nil {
		return nil, err
	}
	return newReader(f), nil
}

func newReader(f *File) *Reader {
	r := &Reader{file: f}

	r.thumbnail = r.loadImage(thumbnailEntries)
	if r.thumbnail == nil {
		// some documents store the thumbnail under a generated name
		for _, name := range f.EntryNames() {
			if strings.HasPrefix(name, "QuickLook/") &&
				strings.HasSuffix(strings.ToLower(name), ".png") {
				r.thumbnail = r.loadImage([]string{name})
				if r.thumbnail != nil {
					break
				}
			}
		}
	}
	r.preview = r.loadImage(previewEntries)

	r.archive, r.archiveErr = r.loadArchive()

	var fallbackW, fallbackH int
	if r.thumbnail != nil {
		b := r.thumbnail.Bounds()
		fallbackW, fallbackH = b.Dx(), b.Dy()
	}
	r.doc = ExtractDocument(r.archive, fallbackW, fallbackH)

	return r
}

func (r *Reader) loadArchive() (*Archive, error) {
	var firstErr error
	for _, name := range archiveEntries {
		data, err := r.file.ReadEntry(name)
		if err != nil {
			if firstErr == nil {
				firstErr = &ArchiveParseError{Entry: name, Err: err}
			}
			continue
		}
		a, err := DecodeArchive(data)
		if err != nil {
			if firstErr == nil || errors.Is(firstErr, ErrEntryNotFound) {
				firstErr = &ArchiveParseError{Entry: name, Err: err}
			}
			continue
		}
		return a, nil
	}
	return nil, firstErr
}

func (r *Reader) loadImage(candidates []string) image.Image {
	for _, name := range candidates {
		data, err := r.file.ReadEntry(name)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		return img
	}
	return nil
}

// Document returns the document metadata.  The result is never nil; for
// containers without usable metadata it holds the defaults and the
// thumbnail-derived canvas dimensions.
func (r *Reader) Document() *Document {
	return r.doc
}

// Layers returns the document's layers in painting order, back to front.
func (r *Reader) Layers() []*Layer {
	return r.doc.Layers
}

// Archive returns the decoded object graph, or nil when the metadata entry
// was missing or malformed.
func (r *Reader) Archive() *Archive {
	return r.archive
}

// ArchiveErr returns the error encountered while reading the document
// metadata entry, or nil.  A non-nil result means the Document was degraded
// to defaults.
func (r *Reader) ArchiveErr() error {
	return r.archiveErr
}

// Thumbnail returns the embedded preview thumbnail, or nil if the container
// has none.
func (r *Reader) Thumbnail() image.Image {
	return r.thumbnail
}

// CompositePreview returns the embedded flattened composite image, or nil if
// the container has none.
func (r *Reader) CompositePreview() image.Image {
	return r.preview
}

// BestImage returns the best available pre-rendered image: the composite
// preview if present, else the thumbnail, else nil.
func (r *Reader) BestImage() image.Image {
	if r.preview != nil {
		return r.preview
	}
	return r.thumbnail
}

// ThumbnailBytes returns the raw bytes of the embedded thumbnail entry, or
// nil if the container has none.  This is intended for callers which pass
// the encoded image on unchanged, e.g. thumbnail providers.
func (r *Reader) ThumbnailBytes() []byte {
	for _, name := range thumbnailEntries {
		data, err := r.file.ReadEntry(name)
		if err == nil {
			return data
		}
	}
	return nil
}

// EntryNames returns the names of all entries in the container, in archive
// order.
func (r *Reader) EntryNames() []string {
	return r.file.EntryNames()
}

// ReadEntry returns the contents of the named container entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	return r.file.ReadEntry(name)
}

// ExportPNG writes the given image to w in PNG format.  If img is nil, the
// best available pre-rendered image is used.
func (r *Reader) ExportPNG(w io.Writer, img image.Image) error {
	if img == nil {
		img = r.BestImage()
	}
	if img == nil {
		return errors.New("no image data available to export")
	}
	return png.Encode(w, img)
}

// ExportJPEG writes the given image to w in JPEG format with the given
// quality (1 to 100).  Transparent regions are flattened onto white, since
// JPEG has no alpha channel.  If img is nil, the best available pre-rendered
// image is used.
func (r *Reader) ExportJPEG(w io.Writer, img image.Image, quality int) error {
	if img == nil {
		img = r.BestImage()
	}
	if img == nil {
		return errors.New("no image data available to export")
	}

	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	return jpeg.Encode(w, flat, &jpeg.Options{Quality: quality})
}

// Close releases the resources held by the Reader.  Close is idempotent and
// safe to call more than once.
func (r *Reader) Close() error {
	return r.file.Close()
}
