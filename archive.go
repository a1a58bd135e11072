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
	"errors"
	"fmt"

	"howett.net/plist"
)

// Archive represents the keyed object graph embedded in a Procreate
// document.  The graph is stored as a flat table of objects ("$objects")
// together with a table of entry points ("$top").  Cross references between
// objects are stored as [Reference] values indexing into the object table.
//
// The on-disk encoding is an NSKeyedArchiver binary property list.
type Archive struct {
	objects []Object
	top     Dict
}

// DecodeArchive decodes the binary property list in data into an Archive.
//
// The top-level value must be a dictionary containing at least an "$objects"
// array.  A missing or malformed "$top" table is tolerated; [Archive.Root]
// falls back to a structural convention in that case.
func DecodeArchive(data []byte) (*Archive, error) {
	var raw interface{}
	_, err := plist.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("property list: %w", err)
	}

	rootVal, ok := fromPlist(raw).(Dict)
	if !ok {
		return nil, errors.New("property list: top-level value is not a dictionary")
	}

	objects, ok := rootVal["$objects"].(Array)
	if !ok {
		return nil, errors.New("keyed archive: missing $objects table")
	}

	a := &Archive{
		objects: objects,
	}
	if top, ok := rootVal["$top"].(Dict); ok {
		a.top = top
	}
	return a, nil
}

// fromPlist converts a value decoded by the plist package into the Object
// model.  Values with no counterpart (dates and the like) map to nil, which
// extraction sites treat the same as an absent field.
func fromPlist(v interface{}) Object {
	switch v := v.(type) {
	case bool:
		return Bool(v)
	case int:
		return Integer(v)
	case int64:
		return Integer(v)
	case uint64:
		return Integer(int64(v))
	case float32:
		return Real(v)
	case float64:
		return Real(v)
	case string:
		return String(v)
	case []byte:
		return Blob(v)
	case plist.UID:
		return Reference(v)
	case []interface{}:
		arr := make(Array, len(v))
		for i, elem := range v {
			arr[i] = fromPlist(elem)
		}
		return arr
	case map[string]interface{}:
		dict := make(Dict, len(v))
		for key, val := range v {
			dict[key] = fromPlist(val)
		}
		return dict
	default:
		return nil
	}
}

// Len returns the number of objects in the archive's object table.
func (a *Archive) Len() int {
	return len(a.objects)
}

// Object returns the object stored at the given index of the object table,
// or nil if the index is out of bounds.
func (a *Archive) Object(i int) Object {
	if i < 0 || i >= len(a.objects) {
		return nil
	}
	return a.objects[i]
}

// Root returns the root object of the archive.
//
// The root is located by resolving the "root" entry of the "$top" table.
// Some encoder versions write an unusable "$top" table; in this case the
// object at index 1 is used if it is a dictionary, matching the structural
// convention of the encoder.  If neither applies, Root returns nil.
func (a *Archive) Root() Dict {
	if a == nil {
		return nil
	}
	if a.top != nil {
		if root, ok := GetDict(a, a.top["root"]); ok {
			return root
		}
	}
	if len(a.objects) > 1 {
		if root, ok := a.objects[1].(Dict); ok {
			return root
		}
	}
	return nil
}

// ClassName returns the name of the archiver class of obj, resolved via the
// object's "$class" descriptor.  It returns the empty string if obj has no
// resolvable class descriptor.  Class descriptors may reference themselves
// transitively; since Resolve never follows chains, this lookup cannot loop.
func (a *Archive) ClassName(obj Dict) string {
	desc, ok := GetDict(a, obj["$class"])
	if !ok {
		return ""
	}
	name, _ := desc["$classname"].(String)
	return string(name)
}
