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

import "errors"

var (
	// ErrEntryNotFound is returned by [File.ReadEntry] when the container
	// has no entry with the requested name.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrClosed is returned when a method is called on a closed [File].
	ErrClosed = errors.New("file already closed")
)

// NotArchiveError indicates that a file could not be opened because it is
// not a valid Procreate container.
type NotArchiveError struct {
	Name string
	Err  error
}

func (err *NotArchiveError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	return "not a valid Procreate file" + middle
}

func (err *NotArchiveError) Unwrap() error {
	return err.Err
}

// ArchiveParseError indicates that the document metadata entry is missing or
// could not be decoded as a keyed object graph.  This error is not fatal:
// the document degrades to an empty one and any embedded preview images
// remain available.  Use [Reader.ArchiveErr] to retrieve it.
type ArchiveParseError struct {
	Entry string
	Err   error
}

func (err *ArchiveParseError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	return "cannot read document archive " + err.Entry + middle
}

func (err *ArchiveParseError) Unwrap() error {
	return err.Err
}
