package nn

import (
	matnet "github.com/matnetgo/gomatnet"
	"github.com/matnetgo/gomatnet/ad"
	"gonum.org/v1/gonum/mat"
)

//conversion from eV/Angstrom^3 to GPa.
const evPerA3ToGPa = 160.21766208

// Potential wraps an extensive energy model into an interatomic potential:
// one call yields the total energy together with its exact derivatives,
// forces on every atom and the virial stress of the cell. It is the sole
// interface a geometry-relaxation driver needs.
type Potential struct {
	m *Model
}

// NewPotential wraps a model. The model must predict a single extensive
// target (total energy); intensive models have no meaningful force.
func NewPotential(m *Model) (*Potential, error) {
	if m.cfg.Intensive {
		return nil, inputErr("a potential needs an extensive (total energy) model")
	}
	if m.cfg.Targets != 1 {
		return nil, inputErr("a potential needs a single-target model, this one has %d targets", m.cfg.Targets)
	}
	return &Potential{m: m}, nil
}

// Model returns the wrapped model.
func (p *Potential) Model() *Model { return p.m }

// Energy returns the total energy in eV without computing derivatives.
func (p *Potential) Energy(s *matnet.Structure) (float64, error) {
	return p.m.Predict(s, nil)
}

// EnergyForcesStress computes the total energy (eV), the forces on every
// atom (eV/Angstrom, N x 3) as the negative gradient of the energy with
// respect to atomic positions, and the virial stress tensor (GPa, 3 x 3,
// tension positive) as the strain derivative of the energy scaled by the
// inverse cell volume. The stress of an isolated structure is zero.
//
// The graph topology (which image of which atom each bond points to) is
// fixed from the input geometry; positions and a symmetric strain of the
// cell are then re-fed through bond construction, basis expansion, message
// passing and readout as differentiated inputs, and one reverse sweep
// yields all derivatives. All gradient-tracking state is released before
// returning, so repeated calls do not accumulate memory.
func (p *Potential) EnergyForcesStress(s *matnet.Structure) (float64, *mat.Dense, *mat.Dense, error) {
	g, tb, err := p.m.BuildGraph(s)
	if err != nil {
		return 0, nil, nil, err
	}
	tp := ad.NewTape()
	defer tp.Release()

	n := g.NAtoms
	pos := tp.NewVar(n, 3, g.Coords.RawMatrix().Data)
	strain := tp.NewVar(3, 3, nil)
	deform := ad.Add(tp.NewConst(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), strain)
	posDef := ad.MatMul(pos, deform)

	var shift *ad.Tensor
	if s.Periodic() {
		latDef := ad.MatMul(tp.NewConst(3, 3, s.Lattice().Matrix().RawMatrix().Data), deform)
		images := make([]float64, 3*g.NBonds())
		for k, im := range g.Image {
			images[3*k] = float64(im[0])
			images[3*k+1] = float64(im[1])
			images[3*k+2] = float64(im[2])
		}
		shift = ad.MatMul(tp.NewConst(g.NBonds(), 3, images), latDef)
	} else {
		shift = tp.NewConst(g.NBonds(), 3, nil)
	}

	vec := ad.Add(ad.Sub(ad.GatherRows(posDef, g.Dst), ad.GatherRows(posDef, g.Src)), shift)
	dist := ad.RowNorm(vec)

	var cos *ad.Tensor
	if tb.Len() > 0 {
		v1 := ad.GatherRows(vec, tb.Bond1)
		v2 := ad.GatherRows(vec, tb.Bond2)
		d1 := ad.GatherRows(dist, tb.Bond1)
		d2 := ad.GatherRows(dist, tb.Bond2)
		cos = ad.Clamp(ad.Div(ad.RowDot(v1, v2), ad.Mul(d1, d2)), -1, 1)
	}

	out, err := p.m.forward(tp, g, tb, dist, cos, []int{0})
	if err != nil {
		return 0, nil, nil, err
	}
	energy := out.At(0, 0)
	out.Backward()

	forces := mat.NewDense(n, 3, pos.Grad())
	forces.Scale(-1, forces)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			if !ad.IsFinite(forces.At(i, j)) {
				return 0, nil, nil, finiteErr("non-finite force on atom %d", i)
			}
		}
	}

	stress := mat.NewDense(3, 3, nil)
	if s.Periodic() {
		sg := strain.Grad()
		vol := s.Lattice().Volume()
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				sym := (sg[3*a+b] + sg[3*b+a]) / 2
				stress.Set(a, b, sym/vol*evPerA3ToGPa)
			}
		}
		if !ad.IsFinite(mat.Norm(stress, 2)) {
			return 0, nil, nil, finiteErr("non-finite stress tensor")
		}
	}
	return energy, forces, stress, nil
}
