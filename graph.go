/*
 * graph.go, part of gomatnet.
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

//two atoms closer than this produce a zero-length bond, which is a
//structurally invalid input (overlapping atoms), not a graph to build.
const overlapTol = 1e-8

// Graph is the bond graph of one structure (or, after DisjointUnion, of a
// batch of structures). Bonds are directed and stored as parallel arenas:
// bond k goes from atom Src[k] to the periodic image of atom Dst[k]
// displaced by Image[k] cell translations. Both directions of every
// atom pair are present.
type Graph struct {
	NAtoms  int
	Symbols []string
	Src     []int
	Dst     []int
	Image   [][3]int
	Dist    []float64
	Cutoff  float64

	// Coords are the Cartesian positions the graph was built from and
	// Shift[k] = Image[k] · lattice, so the bond vector of bond k is
	// Coords[Dst[k]] + Shift[k] - Coords[Src[k]]. Kept so downstream
	// feature construction can recompute bond geometry differentiably
	// from the fixed (src, dst, image) topology.
	Coords *mat.Dense
	Shift  *mat.Dense

	// Lattice is the cell of a single-structure graph; nil for isolated
	// systems and for batched (DisjointUnion) graphs.
	Lattice *Lattice

	// Segment bookkeeping for batched graphs. AtomSeg[i] and BondSeg[k]
	// give the index of the original structure an atom or bond belongs
	// to; pooling must never cross segments.
	NSegs   int
	AtomSeg []int
	BondSeg []int
}

// NBonds returns the number of directed bonds.
func (g *Graph) NBonds() int { return len(g.Src) }

// BondVector returns the Cartesian vector of bond k.
func (g *Graph) BondVector(k int) [3]float64 {
	var v [3]float64
	for a := 0; a < 3; a++ {
		v[a] = g.Coords.At(g.Dst[k], a) + g.Shift.At(k, a) - g.Coords.At(g.Src[k], a)
	}
	return v
}

// imageRanges returns how many periodic images along each axis can hold a
// neighbor within the cutoff. The bound comes from the perpendicular
// spacing between lattice planes, so skewed cells are covered too.
func imageRanges(l *Lattice, cutoff float64) ([3]int, error) {
	sp, err := l.planeSpacings()
	if err != nil {
		return [3]int{}, err
	}
	var n [3]int
	for i := 0; i < 3; i++ {
		n[i] = int(math.Ceil(cutoff / sp[i]))
	}
	return n, nil
}

// BuildGraph enumerates every directed bond (i, j, image) with length up to
// the cutoff and returns the resulting bond graph. For periodic structures
// every lattice translation that can reach within the cutoff is searched,
// including self-bonds of an atom to its own images; isolated structures
// only use the zero image. It is a pure function of the structure and the
// cutoff.
//
/// Errors: KindBadInput for cutoff <= 0, KindOverlap if any pair sits closer
// than 1e-8 Angstrom, and KindEmptyGraph if no bond is found at all.
func BuildGraph(s *Structure, cutoff float64) (*Graph, error) {
	if s == nil {
		panic(ErrNilStructure)
	}
	if cutoff <= 0 || math.IsNaN(cutoff) || math.IsInf(cutoff, 0) {
		return nil, newError(KindBadInput, "cutoff must be a positive number, got %v", cutoff)
	}
	n := s.Len()
	g := &Graph{
		NAtoms:  n,
		Symbols: s.Symbols(),
		Cutoff:  cutoff,
		Coords:  s.Coords(),
		Lattice: s.Lattice(),
		NSegs:   1,
		AtomSeg: make([]int, n),
	}
	var ranges [3]int
	if s.Periodic() {
		var err error
		ranges, err = imageRanges(s.Lattice(), cutoff)
		if err != nil {
			return nil, errDecorate(err, "BuildGraph")
		}
	}
	var lat *mat.Dense
	if s.Periodic() {
		lat = s.Lattice().Matrix()
	}
	cut2 := cutoff * cutoff
	var shifts []float64
	for i := 0; i < n; i++ {
		pi := s.Coord(i)
		for j := 0; j < n; j++ {
			pj := s.Coord(j)
			for ta := -ranges[0]; ta <= ranges[0]; ta++ {
				for tb := -ranges[1]; tb <= ranges[1]; tb++ {
					for tc := -ranges[2]; tc <= ranges[2]; tc++ {
						if i == j && ta == 0 && tb == 0 && tc == 0 {
							continue
						}
						var sh [3]float64
						if lat != nil {
							fa, fb, fc := float64(ta), float64(tb), float64(tc)
							for a := 0; a < 3; a++ {
								sh[a] = fa*lat.At(0, a) + fb*lat.At(1, a) + fc*lat.At(2, a)
							}
						}
						dx := pj[0] + sh[0] - pi[0]
						dy := pj[1] + sh[1] - pi[1]
						dz := pj[2] + sh[2] - pi[2]
						d2 := dx*dx + dy*dy + dz*dz
						if d2 > cut2 {
							continue
						}
						if d2 < overlapTol*overlapTol {
							return nil, newError(KindOverlap,
								"atoms %d and %d (image %d,%d,%d) overlap: distance %.3g", i, j, ta, tb, tc, math.Sqrt(d2))
						}
						g.Src = append(g.Src, i)
						g.Dst = append(g.Dst, j)
						g.Image = append(g.Image, [3]int{ta, tb, tc})
						g.Dist = append(g.Dist, math.Sqrt(d2))
						shifts = append(shifts, sh[0], sh[1], sh[2])
					}
				}
			}
		}
	}
	if len(g.Src) == 0 {
		return nil, newError(KindEmptyGraph,
			"no bonds within cutoff %.3g for a %d-atom structure", cutoff, n)
	}
	g.Shift = mat.NewDense(g.NBonds(), 3, shifts)
	g.BondSeg = make([]int, g.NBonds())
	return g, nil
}

// DisjointUnion merges graphs into one batched graph with disjoint atom and
// bond index ranges. Segment bookkeeping records which input each atom and
// bond came from so per-structure pooling stays scoped. The merged graph
// has no single lattice and is meant for batched property prediction, not
// for stress calculations.
func DisjointUnion(graphs ...*Graph) (*Graph, error) {
	if len(graphs) == 0 {
		return nil, newError(KindBadInput, "nothing to merge")
	}
	out := &Graph{Cutoff: graphs[0].Cutoff}
	nat, nb := 0, 0
	for _, g := range graphs {
		if g.NSegs != 1 {
			return nil, newError(KindBadInput, "cannot merge an already batched graph")
		}
		if g.Cutoff != out.Cutoff {
			return nil, newError(KindBadInput, "cannot merge graphs with different cutoffs (%g vs %g)", g.Cutoff, out.Cutoff)
		}
		nat += g.NAtoms
		nb += g.NBonds()
	}
	coords := make([]float64, 0, 3*nat)
	shifts := make([]float64, 0, 3*nb)
	atomOff := 0
	for seg, g := range graphs {
		out.Symbols = append(out.Symbols, g.Symbols...)
		coords = append(coords, g.Coords.RawMatrix().Data...)
		shifts = append(shifts, g.Shift.RawMatrix().Data...)
		for i := 0; i < g.NAtoms; i++ {
			out.AtomSeg = append(out.AtomSeg, seg)
		}
		for k := 0; k < g.NBonds(); k++ {
			out.Src = append(out.Src, g.Src[k]+atomOff)
			out.Dst = append(out.Dst, g.Dst[k]+atomOff)
			out.Image = append(out.Image, g.Image[k])
			out.Dist = append(out.Dist, g.Dist[k])
			out.BondSeg = append(out.BondSeg, seg)
		}
		atomOff += g.NAtoms
	}
	out.NAtoms = nat
	out.Coords = mat.NewDense(nat, 3, coords)
	out.Shift = mat.NewDense(nb, 3, shifts)
	out.NSegs = len(graphs)
	return out, nil
}
