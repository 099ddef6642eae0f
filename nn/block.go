package nn

import (
	"math/rand"

	matnet "github.com/matnetgo/gomatnet"
	"github.com/matnetgo/gomatnet/ad"
)

// forwardState carries the evolving representations of one forward pass:
// per-atom, per-bond and per-graph hidden states plus the fixed basis
// expansions. Everything lives on one tape.
type forwardState struct {
	tp *ad.Tape
	g  *matnet.Graph
	tb *matnet.ThreeBody

	atoms *ad.Tensor // NAtoms x NodeDim
	bonds *ad.Tensor // NBonds x EdgeDim
	state *ad.Tensor // NSegs x StateDim, nil when the model has no state channel

	envelope *ad.Tensor // NBonds x 1, two-body cutoff envelope
	tbBasis  *ad.Tensor // len(tb) x NAngular, nil without angular features
	tbWeight *ad.Tensor // len(tb) x 1, product of three-body envelopes
}

// block is one message-passing round: angular refinement of bond states
// first, then the bond update from its endpoints, then atom aggregation,
// then the graph-level state.
type block struct {
	threeAtom   *MLP      // NodeDim -> NAngular, sigmoid attention over basis
	threeBond   *GatedMLP // NAngular -> EdgeDim
	bondUpdate  *GatedMLP
	atomUpdate  *GatedMLP
	stateUpdate *MLP // nil when the model has no state channel
}

func newBlock(cfg *Config, rng *rand.Rand) *block {
	b := &block{}
	if cfg.NAngular > 0 && cfg.ThreeBodyCutoff > 0 {
		b.threeAtom = newMLP([]int{cfg.NodeDim, cfg.NAngular}, ad.Sigmoid, true, rng)
		b.threeBond = newGatedMLP([]int{cfg.NAngular, cfg.EdgeDim}, rng)
	}
	in := 2*cfg.NodeDim + cfg.EdgeDim + cfg.StateDim
	b.bondUpdate = newGatedMLP([]int{in, cfg.Hidden, cfg.EdgeDim}, rng)
	b.atomUpdate = newGatedMLP([]int{in, cfg.Hidden, cfg.NodeDim}, rng)
	if cfg.StateDim > 0 {
		b.stateUpdate = newMLP([]int{cfg.NodeDim + cfg.StateDim, cfg.Hidden, cfg.StateDim}, ad.SiLU, false, rng)
	}
	return b
}

func (b *block) forward(fs *forwardState) {
	g := fs.g

	// (e) angular refinement: each triplet contributes its basis weighted
	// by a sigmoid attention on the central atom's state and by the
	// three-body envelopes of both bonds, scatter-summed onto the first
	// bond of the pair.
	if b.threeAtom != nil && fs.tbBasis != nil && fs.tb.Len() > 0 {
		atten := b.threeAtom.apply(fs.atoms)
		w := ad.Mul(fs.tbBasis, ad.GatherRows(atten, fs.tb.Center))
		w = ad.MulCol(w, fs.tbWeight)
		agg := ad.SegmentSum(w, fs.tb.Bond1, g.NBonds())
		fs.bonds = ad.Add(fs.bonds, b.threeBond.apply(agg))
	}

	src := ad.GatherRows(fs.atoms, g.Src)
	dst := ad.GatherRows(fs.atoms, g.Dst)
	var bondState *ad.Tensor
	if fs.state != nil {
		bondState = ad.GatherRows(fs.state, g.BondSeg)
	}

	// (a,d) bond update from both endpoints, the bond itself and the
	// graph state, as a gated residual.
	fs.bonds = ad.Add(fs.bonds, b.bondUpdate.apply(concatBond(src, dst, fs.bonds, bondState)))

	// (b,c) atom update: per-bond messages, faded by the cutoff envelope
	// so a bond leaving the cutoff sphere stops contributing smoothly,
	// summed over incoming bonds.
	msg := b.atomUpdate.apply(concatBond(src, dst, fs.bonds, bondState))
	msg = ad.MulCol(msg, fs.envelope)
	fs.atoms = ad.Add(fs.atoms, ad.SegmentSum(msg, g.Dst, g.NAtoms))

	// (f) graph-state update from a permutation-invariant pooling of the
	// new atom states, scoped per segment.
	if fs.state != nil && b.stateUpdate != nil {
		pooled := ad.SegmentMean(fs.atoms, g.AtomSeg, g.NSegs)
		fs.state = ad.Add(fs.state, b.stateUpdate.apply(ad.ConcatCols(pooled, fs.state)))
	}
}

func concatBond(src, dst, bonds, bondState *ad.Tensor) *ad.Tensor {
	if bondState == nil {
		return ad.ConcatCols(src, dst, bonds)
	}
	return ad.ConcatCols(src, dst, bonds, bondState)
}

func (b *block) params(prefix string) []namedParam {
	var ps []namedParam
	if b.threeAtom != nil {
		ps = append(ps, b.threeAtom.params(prefix+".three.atom")...)
		ps = append(ps, b.threeBond.params(prefix+".three.bond")...)
	}
	ps = append(ps, b.bondUpdate.params(prefix+".bond")...)
	ps = append(ps, b.atomUpdate.params(prefix+".atom")...)
	if b.stateUpdate != nil {
		ps = append(ps, b.stateUpdate.params(prefix+".state")...)
	}
	return ps
}
