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

// Resolve resolves a UID reference to the object it refers to.
//
// If obj is a [Reference], the function returns the object stored at the
// referenced index of the object table, or nil when the index is out of
// bounds.  Any other object is returned unchanged.
//
// Resolution is a single table lookup and never follows chains of
// references: if the referenced slot itself holds a Reference, that
// Reference is returned as-is and the caller decides whether to resolve
// again.  This keeps lookups well-defined even for self-referential class
// descriptor objects.
func (a *Archive) Resolve(obj Object) Object {
	ref, isReference := obj.(Reference)
	if !isReference {
		return obj
	}
	if a == nil || uint64(ref) >= uint64(len(a.objects)) {
		return nil
	}
	return a.objects[ref]
}

func resolveAndCast[T Object](a *Archive, obj Object) (x T, ok bool) {
	resolved := a.Resolve(obj)
	if resolved == nil {
		return x, false
	}
	x, ok = resolved.(T)
	return x, ok
}

// Helper functions for getting objects of a specific type.  Each of these
// functions calls [Archive.Resolve] on the object before attempting to
// convert it to the desired type.  If the object is absent, unresolved, or
// of the wrong type, the zero value is returned together with ok == false.
//
// The signature of these functions is
//
//	func GetT(a *Archive, obj Object) (x T, ok bool)
//
// where T is the type of the object to be returned.
var (
	GetArray  = resolveAndCast[Array]
	GetBlob   = resolveAndCast[Blob]
	GetBool   = resolveAndCast[Bool]
	GetDict   = resolveAndCast[Dict]
	GetInt    = resolveAndCast[Integer]
	GetReal   = resolveAndCast[Real]
	GetString = resolveAndCast[String]
)
