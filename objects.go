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
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object represents a value stored in the keyed object graph of a Procreate
// document.  There are eight native types of archive objects, which implement
// this interface: Bool, Integer, Real, String, Blob, Array, Dict, and
// Reference.
type Object interface {
	// String returns a human-readable representation of the object,
	// used for diagnostic output.
	String() string
}

// Bool represents a boolean value in the object graph.
type Bool bool

// String implements the Object interface.
func (x Bool) String() string {
	if x {
		return "true"
	}
	return "false"
}

// Integer represents an integer value in the object graph.
type Integer int64

// String implements the Object interface.
func (x Integer) String() string {
	return strconv.FormatInt(int64(x), 10)
}

// Real represents a floating point value in the object graph.
type Real float64

// String implements the Object interface.
func (x Real) String() string {
	return strconv.FormatFloat(float64(x), 'g', -1, 64)
}

// String represents a text string in the object graph.
type String string

// String implements the Object interface.
func (x String) String() string {
	return strconv.Quote(string(x))
}

// Blob represents a raw byte string in the object graph.  Some encoder
// versions store small integers (e.g. canvas dimensions) as 4-byte big-endian
// blobs rather than as Integer values.
type Blob []byte

// String implements the Object interface.
func (x Blob) String() string {
	return fmt.Sprintf("<%d bytes>", len(x))
}

// Array represents an ordered sequence of objects in the object graph.
type Array []Object

// String implements the Object interface.
func (x Array) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, elem := range x {
		if i > 0 {
			sb.WriteString(" ")
		}
		if elem == nil {
			sb.WriteString("null")
		} else {
			sb.WriteString(elem.String())
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Dict represents a mapping from keys to objects in the object graph.
type Dict map[string]Object

// String implements the Object interface.
func (x Dict) String() string {
	keys := make([]string, 0, len(x))
	for key := range x {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, key := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(key)
		sb.WriteString("=")
		if x[key] == nil {
			sb.WriteString("null")
		} else {
			sb.WriteString(x[key].String())
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// Reference represents a UID reference in the object graph: an index into
// the archive's object table.  References are resolved using
// [Archive.Resolve]; a Reference is never followed automatically.
type Reference uint64

// String implements the Object interface.
func (x Reference) String() string {
	return "@" + strconv.FormatUint(uint64(x), 10)
}
