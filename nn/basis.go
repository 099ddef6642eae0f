package nn

import (
	"github.com/matnetgo/gomatnet/ad"
)

//basis.go expands raw bond geometry into smooth feature vectors: a
//Gaussian radial basis under a polynomial cutoff envelope for distances,
//and Legendre polynomials of the bond angle cosine for triplets. Both are
//fixed (non-learned) and fully differentiable, so forces and stresses flow
//through them.

// PolynomialCutoff is the quintic envelope 1 - 10x^3 + 15x^4 - 6x^5 with
// x = r/rcut, clamped to [0, 1]. Its value and first two derivatives vanish
// at rcut, so a neighbor's contribution fades out continuously as it leaves
// the cutoff sphere; without this, energies and forces would jump when a
// bond appears or disappears between two nearby geometries.
func PolynomialCutoff(dist *ad.Tensor, rcut float64) *ad.Tensor {
	x := ad.Clamp(ad.Scale(dist, 1/rcut), 0, 1)
	x2 := ad.Mul(x, x)
	x3 := ad.Mul(x2, x)
	x4 := ad.Mul(x3, x)
	x5 := ad.Mul(x4, x)
	poly := ad.Add(ad.Scale(x3, -10), ad.Add(ad.Scale(x4, 15), ad.Scale(x5, -6)))
	return ad.AddScalar(poly, 1)
}

// RadialBasis expands bond distances into N Gaussians evenly centered on
// [0, cutoff], multiplied by the cutoff envelope.
type RadialBasis struct {
	N       int
	Cutoff  float64
	centers []float64
	invW2   float64 // 1/width^2
}

// NewRadialBasis builds the expansion with n channels over [0, cutoff].
func NewRadialBasis(n int, cutoff float64) *RadialBasis {
	rb := &RadialBasis{N: n, Cutoff: cutoff}
	rb.centers = make([]float64, n)
	var spacing float64
	if n > 1 {
		spacing = cutoff / float64(n-1)
	} else {
		spacing = cutoff
	}
	for i := range rb.centers {
		rb.centers[i] = float64(i) * spacing
	}
	rb.invW2 = 1 / (spacing * spacing)
	return rb
}

// Expand maps an m x 1 distance tensor to m x N radial features.
func (rb *RadialBasis) Expand(dist *ad.Tensor) *ad.Tensor {
	cols := make([]*ad.Tensor, rb.N)
	for i, c := range rb.centers {
		d := ad.AddScalar(dist, -c)
		cols[i] = ad.Exp(ad.Scale(ad.Mul(d, d), -rb.invW2))
	}
	feats := ad.ConcatCols(cols...)
	return ad.MulCol(feats, PolynomialCutoff(dist, rb.Cutoff))
}

// AngularBasis expands bond-angle cosines into the first L Legendre
// polynomials, evaluated by the Bonnet recurrence. Working in cos(theta)
// rather than theta keeps the expansion smooth at 0 and pi, and makes it
// manifestly symmetric under swapping the two bonds of a pair.
type AngularBasis struct {
	L int
}

// Expand maps an m x 1 cosine tensor to m x L angular features.
func (ab *AngularBasis) Expand(cos *ad.Tensor) *ad.Tensor {
	cols := make([]*ad.Tensor, ab.L)
	ones := ad.AddScalar(ad.Scale(cos, 0), 1)
	cols[0] = ones
	if ab.L > 1 {
		cols[1] = cos
	}
	for l := 2; l < ab.L; l++ {
		fl := float64(l)
		// l P_l = (2l-1) x P_{l-1} - (l-1) P_{l-2}
		t1 := ad.Scale(ad.Mul(cos, cols[l-1]), (2*fl-1)/fl)
		t2 := ad.Scale(cols[l-2], (fl-1)/fl)
		cols[l] = ad.Sub(t1, t2)
	}
	return ad.ConcatCols(cols...)
}
