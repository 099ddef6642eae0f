package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/matnetgo/gomatnet/ad"
)

//layers.go holds the learned building blocks: linear maps, multilayer
//perceptrons, gated MLPs and embedding tables. Parameters live in plain
//float64 slices; every forward call wraps them as constants on the
//caller's tape, so inference never mutates the model and calls never share
//state.

// Linear is a dense affine map, weights stored row-major (in x out).
type Linear struct {
	In, Out int
	W, B    []float64
}

func newLinear(in, out int, rng *rand.Rand) *Linear {
	w := make([]float64, in*out)
	scale := math.Sqrt(1 / float64(in))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
	return &Linear{In: in, Out: out, W: w, B: make([]float64, out)}
}

func (l *Linear) apply(x *ad.Tensor) *ad.Tensor {
	tp := x.Tape()
	w := tp.NewConst(l.In, l.Out, l.W)
	b := tp.NewConst(1, l.Out, l.B)
	return ad.AddRow(ad.MatMul(x, w), b)
}

func (l *Linear) params(prefix string) []namedParam {
	return []namedParam{
		{prefix + ".W", l.In, l.Out, l.W},
		{prefix + ".B", 1, l.Out, l.B},
	}
}

// MLP is a stack of Linear layers with an activation between them, and
// optionally after the last one.
type MLP struct {
	Layers       []*Linear
	Act          func(*ad.Tensor) *ad.Tensor
	ActivateLast bool
}

// newMLP builds an MLP mapping dims[0] to dims[len-1] through the given
// hidden widths.
func newMLP(dims []int, act func(*ad.Tensor) *ad.Tensor, activateLast bool, rng *rand.Rand) *MLP {
	m := &MLP{Act: act, ActivateLast: activateLast}
	for i := 0; i+1 < len(dims); i++ {
		m.Layers = append(m.Layers, newLinear(dims[i], dims[i+1], rng))
	}
	return m
}

func (m *MLP) apply(x *ad.Tensor) *ad.Tensor {
	for i, l := range m.Layers {
		x = l.apply(x)
		if i < len(m.Layers)-1 || m.ActivateLast {
			x = m.Act(x)
		}
	}
	return x
}

func (m *MLP) params(prefix string) []namedParam {
	var ps []namedParam
	for i, l := range m.Layers {
		ps = append(ps, l.params(fmt.Sprintf("%s.%d", prefix, i))...)
	}
	return ps
}

// GatedMLP runs two parallel MLPs over the same input and multiplies the
// main path by the sigmoid of the gate path. The gating keeps residual
// updates bounded.
type GatedMLP struct {
	Main, Gate *MLP
}

func newGatedMLP(dims []int, rng *rand.Rand) *GatedMLP {
	return &GatedMLP{
		Main: newMLP(dims, ad.SiLU, true, rng),
		Gate: newMLP(dims, ad.SiLU, false, rng),
	}
}

func (g *GatedMLP) apply(x *ad.Tensor) *ad.Tensor {
	return ad.Mul(g.Main.apply(x), ad.Sigmoid(g.Gate.apply(x)))
}

func (g *GatedMLP) params(prefix string) []namedParam {
	return append(g.Main.params(prefix+".main"), g.Gate.params(prefix+".gate")...)
}

// Embedding is a lookup table mapping small integer ids (species or
// fidelity indices) to learned vectors.
type Embedding struct {
	N, Dim int
	W      []float64
}

func newEmbedding(n, dim int, rng *rand.Rand) *Embedding {
	w := make([]float64, n*dim)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.1
	}
	return &Embedding{N: n, Dim: dim, W: w}
}

func (e *Embedding) apply(tp *ad.Tape, idx []int) *ad.Tensor {
	table := tp.NewConst(e.N, e.Dim, e.W)
	return ad.GatherRows(table, idx)
}

func (e *Embedding) params(prefix string) []namedParam {
	return []namedParam{{prefix, e.N, e.Dim, e.W}}
}

// namedParam ties a parameter tensor to its stable name and shape for
// persistence. The data slice aliases the live parameters.
type namedParam struct {
	name       string
	rows, cols int
	data       []float64
}
