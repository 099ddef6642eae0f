package nn

import (
	"math"
	"testing"

	matnet "github.com/matnetgo/gomatnet"
	"github.com/stretchr/testify/require"
)

func testPotential(t *testing.T, seed int64) *Potential {
	t.Helper()
	cfg := testConfig()
	cfg.Intensive = false
	m, err := NewModel(cfg, seed)
	require.NoError(t, err)
	p, err := NewPotential(m)
	require.NoError(t, err)
	return p
}

// a CsCl cell with one atom nudged off its site, so forces are nonzero
func perturbedCsCl(t *testing.T) *matnet.Structure {
	t.Helper()
	return csclStructure(t).PerturbAtom(1, 0, 0.15)
}

func TestPotentialRejectsIntensive(t *testing.T) {
	m, err := NewModel(testConfig(), 1)
	require.NoError(t, err)
	_, err = NewPotential(m)
	require.Error(t, err)
}

func TestPotentialEnergyMatchesModel(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	e, _, _, err := p.EnergyForcesStress(s)
	require.NoError(t, err)
	ePlain, err := p.Energy(s)
	require.NoError(t, err)
	require.InDelta(t, ePlain, e, 1e-10, "the derivative path must not change the energy")
}

// Forces must sum to zero: the energy is invariant under rigid
// translation, so its gradient has no net component.
func TestPotentialForceSumZero(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	_, forces, _, err := p.EnergyForcesStress(s)
	require.NoError(t, err)
	for axis := 0; axis < 3; axis++ {
		sum := 0.0
		for i := 0; i < s.Len(); i++ {
			sum += forces.At(i, axis)
		}
		require.InDelta(t, 0, sum, 1e-8, "axis %d", axis)
	}
}

// Central-difference check of every force component against the energy.
func TestPotentialForcesFiniteDifference(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	_, forces, _, err := p.EnergyForcesStress(s)
	require.NoError(t, err)
	const h = 1e-4
	for i := 0; i < s.Len(); i++ {
		for axis := 0; axis < 3; axis++ {
			ePlus, err := p.Energy(s.PerturbAtom(i, axis, h))
			require.NoError(t, err)
			eMinus, err := p.Energy(s.PerturbAtom(i, axis, -h))
			require.NoError(t, err)
			num := -(ePlus - eMinus) / (2 * h)
			require.InDeltaf(t, num, forces.At(i, axis), 1e-5*(1+math.Abs(num)),
				"atom %d axis %d", i, axis)
		}
	}
}

// The trace of the stress is the uniform-scaling derivative of the
// energy: expanding the whole cell (lattice and positions) by 1+eta
// changes the energy by trace(dE/dstrain)*eta to first order.
func TestPotentialStressTrace(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	_, _, stress, err := p.EnergyForcesStress(s)
	require.NoError(t, err)

	scaled := func(eta float64) *matnet.Structure {
		f := 1 + eta
		lm := s.Lattice().Matrix()
		lv := lm.RawMatrix().Data
		sv := make([]float64, 9)
		for i := range sv {
			sv[i] = f * lv[i]
		}
		lat, err := matnet.NewLattice(sv)
		require.NoError(t, err)
		cv := s.Coords().RawMatrix().Data
		cs := make([]float64, len(cv))
		for i := range cs {
			cs[i] = f * cv[i]
		}
		out, err := matnet.NewStructure(s.Symbols(), cs, lat)
		require.NoError(t, err)
		return out
	}
	const eta = 1e-5
	ePlus, err := p.Energy(scaled(eta))
	require.NoError(t, err)
	eMinus, err := p.Energy(scaled(-eta))
	require.NoError(t, err)
	num := (ePlus - eMinus) / (2 * eta) // = trace of dE/dstrain, in eV

	trace := stress.At(0, 0) + stress.At(1, 1) + stress.At(2, 2)
	traceEV := trace * s.Lattice().Volume() / 160.21766208
	require.InDelta(t, num, traceEV, 1e-4*(1+math.Abs(num)))
}

func TestPotentialStressProperties(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	_, _, stress, err := p.EnergyForcesStress(s)
	require.NoError(t, err)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			require.Equal(t, stress.At(a, b), stress.At(b, a), "stress must be symmetric")
		}
	}

	// isolated systems have no cell, so no stress
	iso, err := matnet.NewStructure([]string{"Cs", "Cl"},
		[]float64{0, 0, 0, 3.2, 0, 0}, nil)
	require.NoError(t, err)
	_, forces, isoStress, err := p.EnergyForcesStress(iso)
	require.NoError(t, err)
	require.Equal(t, 0.0, mat3Max(isoStress.RawMatrix().Data))
	// and the dimer forces are equal and opposite along the axis
	require.InDelta(t, -forces.At(0, 0), forces.At(1, 0), 1e-10)
}

func mat3Max(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

func TestPotentialTranslationInvariance(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	e1, f1, s1, err := p.EnergyForcesStress(s)
	require.NoError(t, err)
	e2, f2, s2, err := p.EnergyForcesStress(s.Translate(0.7, -0.2, 1.9))
	require.NoError(t, err)
	require.InDelta(t, e1, e2, 1e-9)
	for i := 0; i < s.Len(); i++ {
		for axis := 0; axis < 3; axis++ {
			require.InDelta(t, f1.At(i, axis), f2.At(i, axis), 1e-8)
		}
	}
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			require.InDelta(t, s1.At(a, b), s2.At(a, b), 1e-8)
		}
	}
}

// Repeated calls must agree exactly: each call gets a fresh tape and the
// old one is released.
func TestPotentialRepeatedCalls(t *testing.T) {
	p := testPotential(t, 4)
	s := perturbedCsCl(t)
	e1, f1, _, err := p.EnergyForcesStress(s)
	require.NoError(t, err)
	for k := 0; k < 3; k++ {
		e, f, _, err := p.EnergyForcesStress(s)
		require.NoError(t, err)
		require.Equal(t, e1, e)
		require.Equal(t, f1.RawMatrix().Data, f.RawMatrix().Data)
	}
}
