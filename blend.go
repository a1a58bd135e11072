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

import "fmt"

// blendModeNames maps blend mode codes to the names Procreate uses for
// them.  Only the code/name mapping is provided; compositing always uses
// normal alpha-over blending.
var blendModeNames = map[int]string{
	0:  "Normal",
	1:  "Multiply",
	2:  "Screen",
	3:  "Overlay",
	4:  "Darken",
	5:  "Lighten",
	6:  "Color Dodge",
	7:  "Color Burn",
	8:  "Soft Light",
	9:  "Hard Light",
	10: "Difference",
	11: "Exclusion",
	12: "Hue",
	13: "Saturation",
	14: "Color",
	15: "Luminosity",
	16: "Add",
	17: "Linear Burn",
	18: "Vivid Light",
	19: "Linear Light",
	20: "Pin Light",
	21: "Hard Mix",
	22: "Subtract",
	23: "Divide",
}

// BlendModeName returns the human-readable name of a blend mode code.
func BlendModeName(mode int) string {
	if name, ok := blendModeNames[mode]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", mode)
}
