/*
 * structure_test.go, part of gomatnet.
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

import (
	"math"
	"testing"
)

// cscl returns the CsCl conventional cell, a=4.1437.
func cscl(Te *testing.T) *Structure {
	lat, err := CubicLattice(4.1437)
	if err != nil {
		Te.Fatal(err)
	}
	s, err := NewStructureFrac([]string{"Cs", "Cl"},
		[]float64{0, 0, 0, 0.5, 0.5, 0.5}, lat)
	if err != nil {
		Te.Fatal(err)
	}
	return s
}

func TestLatticeVolume(Te *testing.T) {
	lat, err := CubicLattice(4.1437)
	if err != nil {
		Te.Fatal(err)
	}
	want := 4.1437 * 4.1437 * 4.1437
	if math.Abs(lat.Volume()-want) > 1e-9 {
		Te.Errorf("cubic cell volume %v, want %v", lat.Volume(), want)
	}
	// volume must not depend on handedness
	lat2, err := NewLattice([]float64{0, 0, 4.1437, 0, 4.1437, 0, 4.1437, 0, 0})
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(lat2.Volume()-want) > 1e-9 {
		Te.Errorf("permuted cell volume %v, want %v", lat2.Volume(), want)
	}
}

func TestFracCartRoundtrip(Te *testing.T) {
	lat, err := NewLattice([]float64{4.0, 0, 0, 1.0, 4.2, 0, 0.5, -0.7, 3.9})
	if err != nil {
		Te.Fatal(err)
	}
	s, err := NewStructureFrac([]string{"Fe", "O", "O"},
		[]float64{0.1, 0.2, 0.3, 0.6, 0.7, 0.8, 0.25, 0.9, 0.05}, lat)
	if err != nil {
		Te.Fatal(err)
	}
	frac, err := lat.Frac(s.Coords())
	if err != nil {
		Te.Fatal(err)
	}
	want := []float64{0.1, 0.2, 0.3, 0.6, 0.7, 0.8, 0.25, 0.9, 0.05}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(frac.At(i, j)-want[3*i+j]) > 1e-10 {
				Te.Errorf("frac(%d,%d) = %v, want %v", i, j, frac.At(i, j), want[3*i+j])
			}
		}
	}
}

func TestStructureEdits(Te *testing.T) {
	s := cscl(Te)
	moved := s.Translate(1.5, -0.25, 3.0)
	if moved.Len() != s.Len() {
		Te.Fatal("Translate changed atom count")
	}
	d0 := moved.Coord(0)
	if math.Abs(d0[0]-1.5) > 1e-12 || math.Abs(d0[1]+0.25) > 1e-12 || math.Abs(d0[2]-3.0) > 1e-12 {
		Te.Errorf("translated atom 0 is at %v", d0)
	}
	if s.Coord(0)[0] != 0 {
		Te.Error("Translate mutated the original structure")
	}

	bumped := s.PerturbAtom(1, 2, 0.01)
	if math.Abs(bumped.Coord(1)[2]-s.Coord(1)[2]-0.01) > 1e-12 {
		Te.Error("PerturbAtom moved the wrong coordinate")
	}
	if bumped.Coord(1)[0] != s.Coord(1)[0] {
		Te.Error("PerturbAtom touched another axis")
	}

	swapped, err := s.Permute([]int{1, 0})
	if err != nil {
		Te.Fatal(err)
	}
	if swapped.Symbol(0) != "Cl" || swapped.Symbol(1) != "Cs" {
		Te.Error("Permute did not reorder symbols")
	}
	if _, err := s.Permute([]int{0, 0}); err == nil {
		Te.Error("Permute accepted a repeated index")
	}
	if _, err := s.Permute([]int{0}); err == nil {
		Te.Error("Permute accepted a short permutation")
	}
}

func TestSupercell(Te *testing.T) {
	s := cscl(Te)
	big, err := s.Supercell(2, 1, 3)
	if err != nil {
		Te.Fatal(err)
	}
	if big.Len() != s.Len()*6 {
		Te.Fatalf("2x1x3 supercell has %d atoms, want %d", big.Len(), s.Len()*6)
	}
	va := big.Lattice().Vector(0)
	if math.Abs(va[0]-2*4.1437) > 1e-9 {
		Te.Errorf("supercell a vector is %v", va)
	}
	vc := big.Lattice().Vector(2)
	if math.Abs(vc[2]-3*4.1437) > 1e-9 {
		Te.Errorf("supercell c vector is %v", vc)
	}
	wantVol := 6 * s.Lattice().Volume()
	if math.Abs(big.Lattice().Volume()-wantVol) > 1e-6 {
		Te.Errorf("supercell volume %v, want %v", big.Lattice().Volume(), wantVol)
	}
	if _, err := s.Supercell(0, 1, 1); err == nil {
		Te.Error("Supercell accepted a zero repeat")
	}
}

func TestStructureValidation(Te *testing.T) {
	if _, err := NewStructure([]string{"H"}, []float64{0, 0}, nil); err == nil {
		Te.Error("NewStructure accepted a short coordinate slice")
	}
	if _, err := NewStructure(nil, nil, nil); err == nil {
		Te.Error("NewStructure accepted zero atoms")
	}
	if _, err := NewStructureFrac([]string{"H"}, []float64{0, 0, 0}, nil); err == nil {
		Te.Error("NewStructureFrac accepted a nil lattice")
	}
	bad := []float64{1, 0, 0, 2, 0, 0, 3, 0, 0} //coplanar rows, zero volume
	if _, err := NewLattice(bad); err == nil {
		Te.Error("NewLattice accepted a singular cell")
	}
}

func TestKnownSpecies(Te *testing.T) {
	if !KnownSpecies("Fe") || KnownSpecies("Xx") {
		Te.Error("species table lookup misbehaves")
	}
	idx, err := ElementIndex([]string{"Cs", "Cl"})
	if err != nil {
		Te.Fatal(err)
	}
	if idx["Cs"] != 0 || idx["Cl"] != 1 {
		Te.Errorf("ElementIndex gave %v", idx)
	}
	if _, err := ElementIndex([]string{"Cs", "Cs"}); err == nil {
		Te.Error("ElementIndex accepted a duplicate")
	}
	if _, err := ElementIndex([]string{"Qq"}); err == nil {
		Te.Error("ElementIndex accepted an unknown symbol")
	}
	n, err := AtomicNumber("Cs")
	if err != nil || n != 55 {
		Te.Errorf("AtomicNumber(Cs) = %d, %v", n, err)
	}
}

func TestSuggestCutoff(Te *testing.T) {
	s := cscl(Te)
	// three times the largest covalent radius present, Cs at 2.44
	if got := SuggestCutoff(s); math.Abs(got-3*2.44) > 1e-12 {
		Te.Errorf("SuggestCutoff gave %v", got)
	}
}
