/*
 * graphadapt_test.go, part of gomatnet.
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
	"testing"

	"gonum.org/v1/gonum/graph/topo"
)

func TestTopologyView(Te *testing.T) {
	s := cscl(Te)
	g, err := BuildGraph(s, 4.0)
	if err != nil {
		Te.Fatal(err)
	}
	if g.Degree(0) != 8 || g.Degree(1) != 8 {
		Te.Errorf("CsCl coordination numbers %d, %d, want 8, 8", g.Degree(0), g.Degree(1))
	}
	w := g.TopologyView()
	if n := w.Nodes().Len(); n != 2 {
		Te.Fatalf("view has %d nodes, want 2", n)
	}
	// bonds come in both directions, so the two atoms form one strongly
	// connected component
	comps := topo.TarjanSCC(w)
	if len(comps) != 1 {
		Te.Errorf("CsCl view splits into %d components, want 1", len(comps))
	}
	// each of the 8 images contributes its own line between the same pair
	lines := w.WeightedLines(0, 1)
	n := 0
	for lines.Next() {
		n++
	}
	if n != 8 {
		Te.Errorf("found %d parallel Cs->Cl lines, want 8", n)
	}
}
