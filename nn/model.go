package nn

import (
	"math"
	"math/rand"

	matnet "github.com/matnetgo/gomatnet"
	"github.com/matnetgo/gomatnet/ad"
)

// Config enumerates everything needed to rebuild a model skeleton: graph
// cutoffs, basis sizes, layer counts, the element vocabulary and the output
// normalization constants. It is persisted alongside the parameters and is
// the only configuration a model ever consults; there is no global
// registry.
type Config struct {
	Elements        []string `json:"elements"`
	Cutoff          float64  `json:"cutoff"`
	ThreeBodyCutoff float64  `json:"three_body_cutoff"`
	NRBF            int      `json:"n_rbf"`
	NAngular        int      `json:"n_angular"`
	NBlocks         int      `json:"n_blocks"`
	NodeDim         int      `json:"node_dim"`
	EdgeDim         int      `json:"edge_dim"`
	StateDim        int      `json:"state_dim"`
	NStates         int      `json:"n_states"`
	Hidden          int      `json:"hidden"`
	Targets         int      `json:"targets"`
	// Intensive selects per-atom averaging in the readout (formation
	// energy per atom, band gaps); extensive targets (total energy) sum.
	Intensive bool `json:"intensive"`
	// Mean and Std de-normalize the raw network output.
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	// ElementRefs, when present, adds a fixed per-element reference value
	// per atom (pooled like the readout). Length must match Elements.
	ElementRefs []float64 `json:"element_refs,omitempty"`
}

// DefaultConfig returns a single-target regression configuration with the
// customary cutoffs for crystalline materials.
func DefaultConfig(elements []string) Config {
	return Config{
		Elements:        append([]string(nil), elements...),
		Cutoff:          5.0,
		ThreeBodyCutoff: 4.0,
		NRBF:            8,
		NAngular:        3,
		NBlocks:         3,
		NodeDim:         64,
		EdgeDim:         64,
		Hidden:          64,
		Targets:         1,
		Intensive:       true,
		Std:             1,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if _, err := matnet.ElementIndex(c.Elements); err != nil {
		return err
	}
	if c.Cutoff <= 0 {
		return confErr("cutoff must be positive, got %g", c.Cutoff)
	}
	if c.ThreeBodyCutoff < 0 || c.ThreeBodyCutoff > c.Cutoff {
		return confErr("three-body cutoff %g must lie in [0, cutoff=%g]", c.ThreeBodyCutoff, c.Cutoff)
	}
	if c.NRBF < 1 {
		return confErr("need at least one radial basis function")
	}
	if c.ThreeBodyCutoff > 0 && c.NAngular < 1 {
		return confErr("three-body interactions need at least one angular basis function")
	}
	if c.NBlocks < 1 || c.NodeDim < 1 || c.EdgeDim < 1 || c.Hidden < 1 || c.Targets < 1 {
		return confErr("layer counts and widths must be positive")
	}
	if (c.NStates > 0) != (c.StateDim > 0) {
		return confErr("NStates and StateDim must be set together (got %d, %d)", c.NStates, c.StateDim)
	}
	if c.Std <= 0 {
		return confErr("std normalization constant must be positive, got %g", c.Std)
	}
	if len(c.ElementRefs) != 0 && len(c.ElementRefs) != len(c.Elements) {
		return confErr("got %d element references for %d elements", len(c.ElementRefs), len(c.Elements))
	}
	return nil
}

func (c *Config) clone() Config {
	out := *c
	out.Elements = append([]string(nil), c.Elements...)
	out.ElementRefs = append([]float64(nil), c.ElementRefs...)
	return out
}

// Model bundles a configuration with its learned parameters into one
// invocable unit: structure in, property out. A Model is immutable during
// inference and safe for concurrent Predict calls.
type Model struct {
	cfg       Config
	elemIndex map[string]int

	atomEmbed  *Embedding
	stateEmbed *Embedding // nil without a state channel
	bondInit   *Linear
	rbf        *RadialBasis
	angular    *AngularBasis
	blocks     []*block
	readout    *weightedReadout
}

// NewModel builds a model with freshly initialized parameters drawn from
// the given seed. Loading trained parameters is the bundle's job.
func NewModel(cfg Config, seed int64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	idx, err := matnet.ElementIndex(cfg.Elements)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	m := &Model{
		cfg:       cfg,
		elemIndex: idx,
		atomEmbed: newEmbedding(len(cfg.Elements), cfg.NodeDim, rng),
		bondInit:  newLinear(cfg.NRBF, cfg.EdgeDim, rng),
		rbf:       NewRadialBasis(cfg.NRBF, cfg.Cutoff),
	}
	if cfg.NStates > 0 {
		m.stateEmbed = newEmbedding(cfg.NStates, cfg.StateDim, rng)
	}
	if cfg.ThreeBodyCutoff > 0 && cfg.NAngular > 0 {
		m.angular = &AngularBasis{L: cfg.NAngular}
	}
	for i := 0; i < cfg.NBlocks; i++ {
		m.blocks = append(m.blocks, newBlock(&cfg, rng))
	}
	m.readout = newWeightedReadout(&cfg, rng)
	return m, nil
}

// Config returns a copy of the model's configuration.
func (m *Model) Config() Config {
	return m.cfg.clone()
}

// BuildGraph encodes a structure with the model's persisted cutoffs, so
// dataset builders reuse exactly the graph the model will consume.
func (m *Model) BuildGraph(s *matnet.Structure) (*matnet.Graph, *matnet.ThreeBody, error) {
	if _, err := m.speciesIndices(s.Symbols()); err != nil {
		return nil, nil, err
	}
	return matnet.BuildGraphs(s, m.cfg.Cutoff, m.cfg.ThreeBodyCutoff)
}

func (m *Model) speciesIndices(symbols []string) ([]int, error) {
	idx := make([]int, len(symbols))
	for i, sym := range symbols {
		p, ok := m.elemIndex[sym]
		if !ok {
			return nil, speciesErr("element %q is not in the model's vocabulary %v", sym, m.cfg.Elements)
		}
		idx[i] = p
	}
	return idx, nil
}

// stateIndex resolves the fidelity channel from the caller-supplied state
// features. A nil or empty vector selects channel 0; models without a state
// channel ignore the argument.
func (m *Model) stateIndex(stateFeats []float64) (int, error) {
	if m.stateEmbed == nil || len(stateFeats) == 0 {
		return 0, nil
	}
	v := stateFeats[0]
	i := int(math.Round(v))
	if !ad.IsFinite(v) || i < 0 || i >= m.cfg.NStates {
		return 0, stateErr("state index %v out of range [0, %d)", v, m.cfg.NStates)
	}
	return i, nil
}

// forward runs embedding, message passing and readout on one tape and
// returns the de-normalized NSegs x Targets outputs. dist and cos must hold
// the bond lengths and triplet cosines of g and tb; when they are recorded
// as differentiated variables derived from positions, derivatives of the
// output flow all the way back.
func (m *Model) forward(tp *ad.Tape, g *matnet.Graph, tb *matnet.ThreeBody, dist, cos *ad.Tensor, stateIdx []int) (*ad.Tensor, error) {
	species, err := m.speciesIndices(g.Symbols)
	if err != nil {
		return nil, err
	}
	fs := &forwardState{tp: tp, g: g, tb: tb}
	fs.atoms = m.atomEmbed.apply(tp, species)
	fs.bonds = ad.SiLU(m.bondInit.apply(m.rbf.Expand(dist)))
	fs.envelope = PolynomialCutoff(dist, m.cfg.Cutoff)
	if m.stateEmbed != nil {
		fs.state = m.stateEmbed.apply(tp, stateIdx)
	}
	if m.angular != nil && tb.Len() > 0 {
		fs.tbBasis = m.angular.Expand(cos)
		d1 := ad.GatherRows(dist, tb.Bond1)
		d2 := ad.GatherRows(dist, tb.Bond2)
		fs.tbWeight = ad.Mul(
			PolynomialCutoff(d1, m.cfg.ThreeBodyCutoff),
			PolynomialCutoff(d2, m.cfg.ThreeBodyCutoff))
	}
	if err := fs.bonds.CheckFinite(); err != nil {
		return nil, finiteErr("bond features: %v", err)
	}
	for i, b := range m.blocks {
		b.forward(fs)
		if err := fs.atoms.CheckFinite(); err != nil {
			return nil, finiteErr("atom states after round %d: %v", i, err)
		}
	}
	out := m.readout.forward(fs, m.cfg.Intensive)
	out = ad.AddScalar(ad.Scale(out, m.cfg.Std), m.cfg.Mean)
	if len(m.cfg.ElementRefs) > 0 {
		refs := make([]float64, g.NAtoms)
		for i, p := range species {
			refs[i] = m.cfg.ElementRefs[p]
		}
		refCol := tp.NewConst(g.NAtoms, 1, refs)
		var pooled *ad.Tensor
		if m.cfg.Intensive {
			pooled = ad.SegmentMean(refCol, g.AtomSeg, g.NSegs)
		} else {
			pooled = ad.SegmentSum(refCol, g.AtomSeg, g.NSegs)
		}
		ones := make([]float64, g.NSegs*m.cfg.Targets)
		for i := range ones {
			ones[i] = 1
		}
		out = ad.Add(out, ad.MulCol(tp.NewConst(g.NSegs, m.cfg.Targets, ones), pooled))
	}
	if err := out.CheckFinite(); err != nil {
		return nil, finiteErr("model output: %v", err)
	}
	return out, nil
}

// Predict returns the model's property prediction for one structure.
// stateFeats selects the fidelity channel of multi-fidelity models; nil
// defaults to channel 0 and is ignored by single-fidelity models. Predict
// requires a single-target model.
func (m *Model) Predict(s *matnet.Structure, stateFeats []float64) (float64, error) {
	if m.cfg.Targets != 1 {
		return 0, confErr("Predict needs a single-target model, this one has %d targets", m.cfg.Targets)
	}
	out, err := m.PredictVector(s, stateFeats)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictVector is Predict for models with any number of targets.
func (m *Model) PredictVector(s *matnet.Structure, stateFeats []float64) ([]float64, error) {
	g, tb, err := m.BuildGraph(s)
	if err != nil {
		return nil, err
	}
	si, err := m.stateIndex(stateFeats)
	if err != nil {
		return nil, err
	}
	tp := ad.NewTape()
	defer tp.Release()
	dist := tp.NewConst(g.NBonds(), 1, g.Dist)
	var cos *ad.Tensor
	if tb.Len() > 0 {
		cos = tp.NewConst(tb.Len(), 1, tb.CosTheta)
	}
	out, err := m.forward(tp, g, tb, dist, cos, []int{si})
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// PredictBatch predicts every structure, batching the well-formed ones into
// a single disjoint-union forward pass. Failures are isolated per
// structure: results[i] is valid exactly when errs[i] is nil, and one bad
// structure never corrupts the others. stateFeats may be nil or one vector
// per structure.
func (m *Model) PredictBatch(structures []*matnet.Structure, stateFeats [][]float64) (results []float64, errs []error) {
	n := len(structures)
	results = make([]float64, n)
	errs = make([]error, n)
	if m.cfg.Targets != 1 {
		for i := range errs {
			errs[i] = confErr("PredictBatch needs a single-target model, this one has %d targets", m.cfg.Targets)
		}
		return results, errs
	}
	var (
		graphs   []*matnet.Graph
		stateIdx []int
		members  []int
	)
	for i, s := range structures {
		var sf []float64
		if stateFeats != nil {
			sf = stateFeats[i]
		}
		g, _, err := m.BuildGraph(s)
		if err != nil {
			errs[i] = err
			continue
		}
		si, err := m.stateIndex(sf)
		if err != nil {
			errs[i] = err
			continue
		}
		graphs = append(graphs, g)
		stateIdx = append(stateIdx, si)
		members = append(members, i)
	}
	if len(graphs) == 0 {
		return results, errs
	}
	merged, err := matnet.DisjointUnion(graphs...)
	if err == nil {
		var tb *matnet.ThreeBody
		tb, err = matnet.BuildThreeBody(merged, m.cfg.ThreeBodyCutoff)
		if err == nil {
			err = m.forwardBatch(merged, tb, stateIdx, members, results)
		}
	}
	if err != nil {
		// a batched failure (typically numeric) cannot be attributed to
		// one member from the merged graph, so isolate by re-running
		// each member on its own.
		for _, i := range members {
			var sf []float64
			if stateFeats != nil {
				sf = stateFeats[i]
			}
			results[i], errs[i] = m.Predict(structures[i], sf)
		}
	}
	return results, errs
}

func (m *Model) forwardBatch(g *matnet.Graph, tb *matnet.ThreeBody, stateIdx, members []int, results []float64) error {
	tp := ad.NewTape()
	defer tp.Release()
	dist := tp.NewConst(g.NBonds(), 1, g.Dist)
	var cos *ad.Tensor
	if tb.Len() > 0 {
		cos = tp.NewConst(tb.Len(), 1, tb.CosTheta)
	}
	out, err := m.forward(tp, g, tb, dist, cos, stateIdx)
	if err != nil {
		return err
	}
	for seg, i := range members {
		results[i] = out.At(seg, 0)
	}
	return nil
}
