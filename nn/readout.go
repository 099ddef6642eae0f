package nn

import (
	"math/rand"

	"github.com/matnetgo/gomatnet/ad"
)

// weightedReadout pools final atom states into per-graph targets: each atom
// contributes its value projection scaled by a learned sigmoid weight, and
// the per-atom contributions are summed (extensive targets) or averaged
// (intensive, per-atom targets) within each graph segment.
type weightedReadout struct {
	gate  *MLP
	value *MLP
}

func newWeightedReadout(cfg *Config, rng *rand.Rand) *weightedReadout {
	return &weightedReadout{
		gate:  newMLP([]int{cfg.NodeDim, cfg.Hidden, cfg.Targets}, ad.SiLU, false, rng),
		value: newMLP([]int{cfg.NodeDim, cfg.Hidden, cfg.Targets}, ad.SiLU, false, rng),
	}
}

// forward returns the NSegs x Targets pooled outputs, before
// de-normalization.
func (ro *weightedReadout) forward(fs *forwardState, intensive bool) *ad.Tensor {
	w := ad.Sigmoid(ro.gate.apply(fs.atoms))
	per := ad.Mul(w, ro.value.apply(fs.atoms))
	if intensive {
		return ad.SegmentMean(per, fs.g.AtomSeg, fs.g.NSegs)
	}
	return ad.SegmentSum(per, fs.g.AtomSeg, fs.g.NSegs)
}

func (ro *weightedReadout) params(prefix string) []namedParam {
	return append(ro.gate.params(prefix+".gate"), ro.value.params(prefix+".value")...)
}
