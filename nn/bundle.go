package nn

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// BundleVersion is the on-disk format version written by Save. Load
// refuses any other version.
const BundleVersion = 1

type paramRecord struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

type bundle struct {
	Version int           `json:"version"`
	Config  Config        `json:"config"`
	Params  []paramRecord `json:"params"`
}

// namedParams walks every learnable tensor of the model in a stable
// order. The returned slices alias the live parameters, so writes
// through them mutate the model.
func (m *Model) namedParams() []namedParam {
	var ps []namedParam
	ps = append(ps, m.atomEmbed.params("embed.atom")...)
	if m.stateEmbed != nil {
		ps = append(ps, m.stateEmbed.params("embed.state")...)
	}
	ps = append(ps, m.bondInit.params("embed.bond")...)
	for i, b := range m.blocks {
		ps = append(ps, b.params(fmt.Sprintf("block%d", i))...)
	}
	ps = append(ps, m.readout.params("readout")...)
	return ps
}

// Save writes the model as a zstd-compressed JSON bundle: the full
// configuration plus every parameter tensor under its stable name. The
// bundle is self-contained, Load rebuilds an identical model from it.
func (m *Model) Save(w io.Writer) error {
	b := bundle{Version: BundleVersion, Config: m.cfg.clone()}
	for _, p := range m.namedParams() {
		b.Params = append(b.Params, paramRecord{Name: p.name, Rows: p.rows, Cols: p.cols, Data: p.data})
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return bundleErr("starting compressed stream: %v", err)
	}
	if err := json.NewEncoder(zw).Encode(&b); err != nil {
		zw.Close()
		return bundleErr("encoding model bundle: %v", err)
	}
	if err := zw.Close(); err != nil {
		return bundleErr("flushing compressed stream: %v", err)
	}
	return nil
}

// Load rebuilds a model from a bundle written by Save. Every check is
// strict: a version, name, shape or count mismatch fails the load
// rather than producing a silently wrong model.
func Load(r io.Reader) (*Model, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, bundleErr("opening compressed stream: %v", err)
	}
	defer zr.Close()
	var b bundle
	if err := json.NewDecoder(zr).Decode(&b); err != nil {
		return nil, bundleErr("decoding model bundle: %v", err)
	}
	if b.Version != BundleVersion {
		return nil, bundleErr("bundle version %d, this build reads version %d", b.Version, BundleVersion)
	}
	m, err := NewModel(b.Config, 0)
	if err != nil {
		return nil, bundleErr("bundle configuration rejected: %v", err)
	}
	want := m.namedParams()
	byName := make(map[string]namedParam, len(want))
	for _, p := range want {
		byName[p.name] = p
	}
	if len(b.Params) != len(want) {
		return nil, bundleErr("bundle has %d parameter tensors, model needs %d", len(b.Params), len(want))
	}
	for _, rec := range b.Params {
		p, ok := byName[rec.Name]
		if !ok {
			return nil, bundleErr("bundle parameter %q does not exist in this model", rec.Name)
		}
		if rec.Rows != p.rows || rec.Cols != p.cols {
			return nil, bundleErr("parameter %q is %dx%d in the bundle, model needs %dx%d",
				rec.Name, rec.Rows, rec.Cols, p.rows, p.cols)
		}
		if len(rec.Data) != rec.Rows*rec.Cols {
			return nil, bundleErr("parameter %q carries %d values for a %dx%d shape",
				rec.Name, len(rec.Data), rec.Rows, rec.Cols)
		}
		copy(p.data, rec.Data)
		delete(byName, rec.Name)
	}
	if len(byName) != 0 {
		for name := range byName {
			return nil, bundleErr("bundle is missing parameter %q", name)
		}
	}
	return m, nil
}

// SaveFile writes the bundle to path, creating or truncating it.
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return bundleErr("creating %s: %v", path, err)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return bundleErr("closing %s: %v", path, err)
	}
	return nil
}

// LoadFile reads a bundle written by SaveFile.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bundleErr("opening %s: %v", path, err)
	}
	defer f.Close()
	return Load(f)
}
