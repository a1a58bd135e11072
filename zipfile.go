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
	"archive/zip"
	"io"
	"os"
	"sync"
)

// File provides access to the entries of a Procreate container.  Procreate
// documents are ZIP archives; File wraps the archive and serializes entry
// reads, since the underlying reader is not safe for concurrent use.
//
// After use, Close must be called to release the file handle.
type File struct {
	mu      sync.Mutex
	entries map[string]*zip.File
	names   []string
	closer  io.Closer
	closed  bool
}

// OpenFile opens the named Procreate container for reading.  After use,
// Close() must be called to release the file handle.
func OpenFile(name string) (*File, error) {
	fd, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	f, err := NewFile(fd, fi.Size())
	if err != nil {
		fd.Close()
		if notArchive, ok := err.(*NotArchiveError); ok {
			notArchive.Name = name
		}
		return nil, err
	}
	f.closer = fd
	return f, nil
}

// NewFile opens a Procreate container from an in-memory or otherwise
// already-open byte source.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &NotArchiveError{Err: err}
	}

	f := &File{
		entries: make(map[string]*zip.File, len(zr.File)),
		names:   make([]string, 0, len(zr.File)),
	}
	for _, entry := range zr.File {
		f.entries[entry.Name] = entry
		f.names = append(f.names, entry.Name)
	}
	return f, nil
}

// EntryNames returns the names of all entries in the container, in archive
// order.
func (f *File) EntryNames() []string {
	return f.names
}

// ReadEntry returns the decompressed contents of the named entry.  It
// returns [ErrEntryNotFound] if the container has no entry with this name,
// and [ErrClosed] if the File has been closed.
func (f *File) ReadEntry(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	entry, ok := f.entries[name]
	if !ok {
		return nil, ErrEntryNotFound
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Close releases the container's file handle.  Close is idempotent: calling
// it more than once is safe and returns nil on subsequent calls.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
