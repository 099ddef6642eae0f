/*
 * threebody.go, part of gomatnet.
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

import "math"

// ThreeBody is the angular interaction index of a bond graph: every ordered
// pair of distinct bonds leaving the same atom, with both bond lengths
// within the three-body cutoff. Entry t records the two bond indices, the
// shared central atom, and the angle between the two bond vectors.
//
// The pairing convention is over outgoing bonds of the shared atom; since
// both directions of every pair are present in the bond graph, this is
// equivalent to pairing the incoming ones. Both (a, b) and (b, a) orderings
// appear, and any consumer whose angular features depend only on the angle
// is symmetric under that swap.
//
// Entry count grows as O(N k^2) with k the coordination number within the
// cutoff; keeping the three-body cutoff below the bond cutoff is what keeps
// this affordable.
type ThreeBody struct {
	Bond1    []int
	Bond2    []int
	Center   []int
	CosTheta []float64
	Theta    []float64
	Cutoff   float64
}

// Len returns the number of angle entries.
func (t *ThreeBody) Len() int { return len(t.Bond1) }

// BuildThreeBody derives the three-body index from a bond graph. A zero
// cutoff is valid and yields an empty index (models without angular
// features). The cutoff must not exceed the bond-graph cutoff: angles would
// otherwise reference bonds the graph never built.
func BuildThreeBody(g *Graph, cutoff float64) (*ThreeBody, error) {
	if cutoff < 0 || math.IsNaN(cutoff) {
		return nil, newError(KindBadInput, "three-body cutoff must be non-negative, got %v", cutoff)
	}
	if cutoff > g.Cutoff {
		return nil, newError(KindBadInput,
			"three-body cutoff %.3g exceeds the bond-graph cutoff %.3g", cutoff, g.Cutoff)
	}
	tb := &ThreeBody{Cutoff: cutoff}
	if cutoff == 0 {
		return tb, nil
	}
	// bonds grouped by source atom
	outgoing := make([][]int, g.NAtoms)
	for k := 0; k < g.NBonds(); k++ {
		if g.Dist[k] <= cutoff {
			outgoing[g.Src[k]] = append(outgoing[g.Src[k]], k)
		}
	}
	for center, bonds := range outgoing {
		for _, b1 := range bonds {
			v1 := g.BondVector(b1)
			for _, b2 := range bonds {
				if b1 == b2 {
					continue
				}
				v2 := g.BondVector(b2)
				cos := (v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]) / (g.Dist[b1] * g.Dist[b2])
				// floating-point overshoot past +-1 would take
				// arccos out of its domain
				if cos > 1 {
					cos = 1
				} else if cos < -1 {
					cos = -1
				}
				tb.Bond1 = append(tb.Bond1, b1)
				tb.Bond2 = append(tb.Bond2, b2)
				tb.Center = append(tb.Center, center)
				tb.CosTheta = append(tb.CosTheta, cos)
				tb.Theta = append(tb.Theta, math.Acos(cos))
			}
		}
	}
	return tb, nil
}

// BuildGraphs builds the bond graph and its three-body index in one call,
// the combination dataset builders need. Both cutoffs normally come from a
// model's persisted configuration rather than being re-derived by callers.
func BuildGraphs(s *Structure, cutoff, threeBodyCutoff float64) (*Graph, *ThreeBody, error) {
	g, err := BuildGraph(s, cutoff)
	if err != nil {
		return nil, nil, errDecorate(err, "BuildGraphs")
	}
	tb, err := BuildThreeBody(g, threeBodyCutoff)
	if err != nil {
		return nil, nil, errDecorate(err, "BuildGraphs")
	}
	return g, tb, nil
}
