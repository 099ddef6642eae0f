/*
 * atomicdata.go, part of gomatnet.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package matnet

//A map from element symbol to atomic number, H through Bi plus the most
//common heavier elements found in materials databases.
var symbolNumber = map[string]int{
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8,
	"F": 9, "Ne": 10, "Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15,
	"S": 16, "Cl": 17, "Ar": 18, "K": 19, "Ca": 20, "Sc": 21, "Ti": 22,
	"V": 23, "Cr": 24, "Mn": 25, "Fe": 26, "Co": 27, "Ni": 28, "Cu": 29,
	"Zn": 30, "Ga": 31, "Ge": 32, "As": 33, "Se": 34, "Br": 35, "Kr": 36,
	"Rb": 37, "Sr": 38, "Y": 39, "Zr": 40, "Nb": 41, "Mo": 42, "Tc": 43,
	"Ru": 44, "Rh": 45, "Pd": 46, "Ag": 47, "Cd": 48, "In": 49, "Sn": 50,
	"Sb": 51, "Te": 52, "I": 53, "Xe": 54, "Cs": 55, "Ba": 56, "La": 57,
	"Ce": 58, "Pr": 59, "Nd": 60, "Pm": 61, "Sm": 62, "Eu": 63, "Gd": 64,
	"Tb": 65, "Dy": 66, "Ho": 67, "Er": 68, "Tm": 69, "Yb": 70, "Lu": 71,
	"Hf": 72, "Ta": 73, "W": 74, "Re": 75, "Os": 76, "Ir": 77, "Pt": 78,
	"Au": 79, "Hg": 80, "Tl": 81, "Pb": 82, "Bi": 83, "Th": 90, "U": 92,
}

//A map for assigning covalent radii to elements, in Angstrom.
//Values from Cordero et al., 2008 (DOI:10.1039/B801115J). Only elements
//common in materials datasets are present; SuggestCutoff falls back to a
//generic radius for the rest.
var symbolCovrad = map[string]float64{
	"H": 0.31, "Li": 1.28, "Be": 0.96, "B": 0.84, "C": 0.76, "N": 0.71,
	"O": 0.66, "F": 0.57, "Na": 1.66, "Mg": 1.41, "Al": 1.21, "Si": 1.11,
	"P": 1.07, "S": 1.05, "Cl": 1.02, "K": 2.03, "Ca": 1.76, "Ti": 1.60,
	"V": 1.53, "Cr": 1.39, "Mn": 1.61, "Fe": 1.52, "Co": 1.50, "Ni": 1.24,
	"Cu": 1.32, "Zn": 1.22, "Ga": 1.22, "Ge": 1.20, "As": 1.19, "Se": 1.20,
	"Br": 1.20, "Rb": 2.20, "Sr": 1.95, "Zr": 1.75, "Nb": 1.64, "Mo": 1.54,
	"Ru": 1.46, "Rh": 1.42, "Pd": 1.39, "Ag": 1.45, "Cd": 1.44, "In": 1.42,
	"Sn": 1.39, "Sb": 1.39, "Te": 1.38, "I": 1.39, "Cs": 2.44, "Ba": 2.15,
	"La": 2.07, "W": 1.62, "Pt": 1.36, "Au": 1.36, "Pb": 1.46, "Bi": 1.48,
}

//generic covalent radius used for elements missing from symbolCovrad.
const genericCovrad = 1.5

// KnownSpecies reports whether the element symbol is part of the periodic
// table this library knows about.
func KnownSpecies(symbol string) bool {
	_, ok := symbolNumber[symbol]
	return ok
}

// AtomicNumber returns the atomic number of the given element symbol, or an
// error of kind KindUnknownSpecies when the symbol is not recognized.
func AtomicNumber(symbol string) (int, error) {
	z, ok := symbolNumber[symbol]
	if !ok {
		return 0, newError(KindUnknownSpecies, "unknown element symbol %q", symbol)
	}
	return z, nil
}

// ElementIndex builds a lookup from element symbol to its position in
// elements, the species vocabulary a model was built for. It returns an
// error if any symbol is not a known element or appears twice.
func ElementIndex(elements []string) (map[string]int, error) {
	index := make(map[string]int, len(elements))
	for i, sym := range elements {
		if !KnownSpecies(sym) {
			return nil, newError(KindUnknownSpecies, "unknown element symbol %q in element list", sym)
		}
		if _, dup := index[sym]; dup {
			return nil, newError(KindBadInput, "element %q repeated in element list", sym)
		}
		index[sym] = i
	}
	return index, nil
}

// SuggestCutoff returns a cutoff radius large enough to cover, with some
// margin, the longest plausible nearest-neighbor contact between any two
// species in the structure, based on covalent radii. It is a convenience
// for exploratory use; trained models carry their own cutoff in their
// configuration.
func SuggestCutoff(s *Structure) float64 {
	max := genericCovrad
	for i := 0; i < s.Len(); i++ {
		r, ok := symbolCovrad[s.Symbol(i)]
		if !ok {
			r = genericCovrad
		}
		if r > max {
			max = r
		}
	}
	// twice the largest radius reaches the longest homonuclear bond; the
	// 1.5 factor keeps second neighbors of open structures inside.
	return 3 * max
}
