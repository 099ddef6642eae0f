/*
 * netplot.go, part of gomatnet.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public
 * License along with this program. If not, see
 * <http://www.gnu.org/licenses/>.
 */

//Package netplot draws diagnostic plots for the graph-network models:
//the radial basis channels a model sees, and the energy of a dimer as a
//function of separation. Both write PNG files.
package netplot

import (
	"fmt"
	"image/color"

	matnet "github.com/matnetgo/gomatnet"
	"github.com/matnetgo/gomatnet/ad"
	"github.com/matnetgo/gomatnet/nn"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//takes hue (0-360) and returns a saturated r,g,b
func hue2RGB(h float64) (uint8, uint8, uint8) {
	for h >= 360 {
		h -= 360
	}
	seg := int(h / 60)
	f := h/60 - float64(seg)
	q := uint8(255 * (1 - f))
	t := uint8(255 * f)
	switch seg {
	case 0:
		return 255, t, 0
	case 1:
		return q, 255, 0
	case 2:
		return 0, 255, t
	case 3:
		return 0, q, 255
	case 4:
		return t, 0, 255
	default:
		return 255, 0, q
	}
}

// RadialBasisPlot draws every channel of an n-channel radial basis with
// the given cutoff over [0, cutoff], and saves the figure as
// plotname.png. The envelope is included, so each curve fades to zero at
// the cutoff.
func RadialBasisPlot(n int, cutoff float64, points int, plotname string) error {
	if n <= 0 || cutoff <= 0 {
		return fmt.Errorf("RadialBasisPlot: need a positive channel count and cutoff")
	}
	if points < 2 {
		points = 200
	}
	rb := nn.NewRadialBasis(n, cutoff)
	dists := make([]float64, points)
	for i := range dists {
		dists[i] = cutoff * float64(i) / float64(points-1)
	}
	tp := ad.NewTape()
	defer tp.Release()
	feats := rb.Expand(tp.NewConst(points, 1, dists))

	p := basicPlot("Radial basis", "r (Angstrom)", "basis value")
	for c := 0; c < n; c++ {
		xys := make(plotter.XYs, points)
		for i := range xys {
			xys[i].X = dists[i]
			xys[i].Y = feats.At(i, c)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		r, g, b := hue2RGB(360 * float64(c) / float64(n))
		line.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		p.Add(line)
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname))
}

// EnergyCurvePlot scans an isolated dimer of the two given species from
// rmin to rmax and plots the model's energy at each separation, saving
// the figure as plotname.png. Separations past the model's cutoff have no
// bond graph and are skipped.
func EnergyCurvePlot(m *nn.Model, symbolA, symbolB string, rmin, rmax float64, points int, plotname string) error {
	if rmin <= 0 || rmax <= rmin {
		return fmt.Errorf("EnergyCurvePlot: need 0 < rmin < rmax")
	}
	if points < 2 {
		points = 100
	}
	xys := make(plotter.XYs, 0, points)
	for i := 0; i < points; i++ {
		r := rmin + (rmax-rmin)*float64(i)/float64(points-1)
		s, err := matnet.NewStructure([]string{symbolA, symbolB},
			[]float64{0, 0, 0, r, 0, 0}, nil)
		if err != nil {
			return err
		}
		e, err := m.Predict(s, nil)
		if err != nil {
			if matnet.IsKind(err, matnet.KindEmptyGraph) {
				continue //past the cutoff, no curve to draw there
			}
			return err
		}
		xys = append(xys, plotter.XY{X: r, Y: e})
	}
	p := basicPlot(fmt.Sprintf("%s-%s dimer", symbolA, symbolB), "r (Angstrom)", "energy (eV)")
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)
	return p.Save(5*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname))
}
