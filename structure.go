/*
 * structure.go, part of gomatnet.
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

	"gonum.org/v1/gonum/mat"
)

// Lattice is a periodic cell. Rows of the matrix are the three cell
// vectors, in Angstrom, following the crystallographic row-vector
// convention: a Cartesian position is frac · L.
type Lattice struct {
	m *mat.Dense // 3x3
}

// NewLattice builds a Lattice from the 9 components of the cell vectors,
// row-major (ax, ay, az, bx, ...). It returns an error if the cell volume
// vanishes.
func NewLattice(v []float64) (*Lattice, error) {
	if len(v) != 9 {
		return nil, newError(KindBadInput, "lattice needs 9 components, got %d", len(v))
	}
	d := make([]float64, 9)
	copy(d, v)
	l := &Lattice{m: mat.NewDense(3, 3, d)}
	if math.Abs(l.det()) < 1e-12 {
		return nil, newError(KindBadInput, "lattice cell has zero volume")
	}
	return l, nil
}

// CubicLattice returns the lattice of a cubic cell with parameter a.
func CubicLattice(a float64) (*Lattice, error) {
	return NewLattice([]float64{a, 0, 0, 0, a, 0, 0, 0, a})
}

func (l *Lattice) det() float64 {
	return mat.Det(l.m)
}

// Volume returns the cell volume in cubic Angstrom.
func (l *Lattice) Volume() float64 {
	return math.Abs(l.det())
}

// Matrix returns a copy of the 3x3 cell matrix.
func (l *Lattice) Matrix() *mat.Dense {
	return mat.DenseCopyOf(l.m)
}

// Vector returns the i-th cell vector.
func (l *Lattice) Vector(i int) [3]float64 {
	return [3]float64{l.m.At(i, 0), l.m.At(i, 1), l.m.At(i, 2)}
}

// Cart converts fractional coordinates (n x 3) to Cartesian in place of a
// new matrix.
func (l *Lattice) Cart(frac *mat.Dense) *mat.Dense {
	r, _ := frac.Dims()
	out := mat.NewDense(r, 3, nil)
	out.Mul(frac, l.m)
	return out
}

// Frac converts Cartesian coordinates (n x 3) to fractional.
func (l *Lattice) Frac(cart *mat.Dense) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(l.m); err != nil {
		return nil, newError(KindBadInput, "lattice cell is singular: %v", err)
	}
	r, _ := cart.Dims()
	out := mat.NewDense(r, 3, nil)
	out.Mul(cart, &inv)
	return out, nil
}

// planeSpacings returns the perpendicular spacing between lattice planes
// along each cell axis, i.e. 1/|b_i| with b_i the reciprocal vectors. They
// bound how many periodic images must be searched for a given cutoff.
func (l *Lattice) planeSpacings() ([3]float64, error) {
	var inv mat.Dense
	if err := inv.Inverse(l.m); err != nil {
		return [3]float64{}, newError(KindBadInput, "lattice cell is singular: %v", err)
	}
	// columns of the inverse are the reciprocal vectors (row convention).
	var sp [3]float64
	for i := 0; i < 3; i++ {
		n := math.Hypot(inv.At(0, i), math.Hypot(inv.At(1, i), inv.At(2, i)))
		sp[i] = 1 / n
	}
	return sp, nil
}

// Structure is an immutable atomic arrangement: element symbols, Cartesian
// coordinates and an optional periodic lattice. A nil lattice means an
// isolated (non-periodic) system. Mutating methods return copies.
type Structure struct {
	symbols []string
	coords  *mat.Dense // n x 3, Cartesian, Angstrom
	lattice *Lattice   // nil for isolated systems
}

// NewStructure builds a Structure from element symbols and Cartesian
// coordinates given as a flat slice (x0, y0, z0, x1, ...). lattice may be
// nil for isolated systems.
func NewStructure(symbols []string, cart []float64, lattice *Lattice) (*Structure, error) {
	n := len(symbols)
	if n == 0 {
		return nil, newError(KindBadInput, "structure needs at least one atom")
	}
	if len(cart) != 3*n {
		return nil, newError(KindBadInput, "got %d coordinates for %d atoms", len(cart), n)
	}
	for _, sym := range symbols {
		if !KnownSpecies(sym) {
			return nil, newError(KindUnknownSpecies, "unknown element symbol %q", sym)
		}
	}
	d := make([]float64, 3*n)
	copy(d, cart)
	syms := make([]string, n)
	copy(syms, symbols)
	return &Structure{symbols: syms, coords: mat.NewDense(n, 3, d), lattice: lattice}, nil
}

// NewStructureFrac builds a periodic Structure from fractional coordinates.
func NewStructureFrac(symbols []string, frac []float64, lattice *Lattice) (*Structure, error) {
	if lattice == nil {
		return nil, newError(KindBadInput, "fractional coordinates need a lattice")
	}
	n := len(symbols)
	if len(frac) != 3*n {
		return nil, newError(KindBadInput, "got %d coordinates for %d atoms", len(frac), n)
	}
	f := mat.NewDense(n, 3, append([]float64(nil), frac...))
	cart := lattice.Cart(f)
	return NewStructure(symbols, cart.RawMatrix().Data, lattice)
}

// Len returns the number of atoms.
func (s *Structure) Len() int {
	if s == nil {
		panic(ErrNilStructure)
	}
	return len(s.symbols)
}

// Symbol returns the element symbol of atom i. Panics if out of range.
func (s *Structure) Symbol(i int) string {
	if i < 0 || i >= s.Len() {
		panic(ErrAtomOutOfRange)
	}
	return s.symbols[i]
}

// Symbols returns a copy of the element symbol list.
func (s *Structure) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Coord returns the Cartesian position of atom i. Panics if out of range.
func (s *Structure) Coord(i int) [3]float64 {
	if i < 0 || i >= s.Len() {
		panic(ErrAtomOutOfRange)
	}
	return [3]float64{s.coords.At(i, 0), s.coords.At(i, 1), s.coords.At(i, 2)}
}

// Coords returns a copy of the n x 3 Cartesian coordinate matrix.
func (s *Structure) Coords() *mat.Dense {
	return mat.DenseCopyOf(s.coords)
}

// Lattice returns the periodic lattice, or nil for isolated systems.
func (s *Structure) Lattice() *Lattice {
	return s.lattice
}

// Periodic reports whether the structure has a lattice.
func (s *Structure) Periodic() bool {
	return s.lattice != nil
}

// Translate returns a copy of the structure rigidly displaced by (dx,dy,dz).
func (s *Structure) Translate(dx, dy, dz float64) *Structure {
	n := s.Len()
	d := append([]float64(nil), s.coords.RawMatrix().Data...)
	for i := 0; i < n; i++ {
		d[3*i] += dx
		d[3*i+1] += dy
		d[3*i+2] += dz
	}
	out, _ := NewStructure(s.symbols, d, s.lattice)
	return out
}

// PerturbAtom returns a copy of the structure with coordinate axis (0..2)
// of atom i displaced by delta. Panics if i or axis is out of range.
func (s *Structure) PerturbAtom(i, axis int, delta float64) *Structure {
	if i < 0 || i >= s.Len() {
		panic(ErrAtomOutOfRange)
	}
	if axis < 0 || axis > 2 {
		panic(ErrAtomOutOfRange)
	}
	d := append([]float64(nil), s.coords.RawMatrix().Data...)
	d[3*i+axis] += delta
	out, _ := NewStructure(s.symbols, d, s.lattice)
	return out
}

// Permute returns a copy of the structure with atoms reordered so that new
// atom i is old atom perm[i]. It returns an error if perm is not a
// permutation of 0..n-1.
func (s *Structure) Permute(perm []int) (*Structure, error) {
	n := s.Len()
	if len(perm) != n {
		return nil, newError(KindBadInput, "permutation of length %d for %d atoms", len(perm), n)
	}
	seen := make([]bool, n)
	syms := make([]string, n)
	d := make([]float64, 3*n)
	for i, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return nil, newError(KindBadInput, "invalid permutation entry %d", p)
		}
		seen[p] = true
		syms[i] = s.symbols[p]
		copy(d[3*i:3*i+3], s.coords.RawMatrix().Data[3*p:3*p+3])
	}
	return NewStructure(syms, d, s.lattice)
}

// Supercell returns a na x nb x nc repetition of a periodic structure.
// Atom order is cell-major: all images of the original cell 0 offsets come
// first, then the next offset, matching how extensive properties are
// compared between a cell and its supercell.
func (s *Structure) Supercell(na, nb, nc int) (*Structure, error) {
	if s.lattice == nil {
		panic(ErrNoLattice)
	}
	if na < 1 || nb < 1 || nc < 1 {
		return nil, newError(KindBadInput, "supercell factors must be positive, got %d %d %d", na, nb, nc)
	}
	n := s.Len()
	nrep := na * nb * nc
	syms := make([]string, 0, n*nrep)
	d := make([]float64, 0, 3*n*nrep)
	a := s.lattice.Vector(0)
	b := s.lattice.Vector(1)
	c := s.lattice.Vector(2)
	for ia := 0; ia < na; ia++ {
		for ib := 0; ib < nb; ib++ {
			for ic := 0; ic < nc; ic++ {
				fa, fb, fc := float64(ia), float64(ib), float64(ic)
				for i := 0; i < n; i++ {
					p := s.Coord(i)
					syms = append(syms, s.symbols[i])
					d = append(d,
						p[0]+fa*a[0]+fb*b[0]+fc*c[0],
						p[1]+fa*a[1]+fb*b[1]+fc*c[1],
						p[2]+fa*a[2]+fb*b[2]+fc*c[2])
				}
			}
		}
	}
	lat, err := NewLattice([]float64{
		float64(na) * a[0], float64(na) * a[1], float64(na) * a[2],
		float64(nb) * b[0], float64(nb) * b[1], float64(nb) * b[2],
		float64(nc) * c[0], float64(nc) * c[1], float64(nc) * c[2],
	})
	if err != nil {
		return nil, errDecorate(err, "Supercell")
	}
	return NewStructure(syms, d, lat)
}
