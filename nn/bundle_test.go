package nn

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	matnet "github.com/matnetgo/gomatnet"
	"github.com/stretchr/testify/require"
)

func TestBundleRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.NStates = 2
	cfg.StateDim = 8
	cfg.Mean = -1.2
	cfg.ElementRefs = []float64{-3.1, -4.7}
	m, err := NewModel(cfg, 33)
	require.NoError(t, err)
	s := csclStructure(t)
	want, err := m.Predict(s, []float64{1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	got, err := loaded.Predict(s, []float64{1})
	require.NoError(t, err)
	require.Equal(t, want, got, "a reloaded model must predict identically")

	lcfg := loaded.Config()
	require.Equal(t, cfg.Elements, lcfg.Elements)
	require.Equal(t, cfg.Mean, lcfg.Mean)
	require.Equal(t, cfg.ElementRefs, lcfg.ElementRefs)
}

func TestBundleFileRoundtrip(t *testing.T) {
	m, err := NewModel(testConfig(), 8)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.matnet")
	require.NoError(t, m.SaveFile(path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)

	s := csclStructure(t)
	want, err := m.Predict(s, nil)
	require.NoError(t, err)
	got, err := loaded.Predict(s, nil)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBundleRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a bundle at all")))
	require.True(t, matnet.IsKind(err, matnet.KindBadBundle), "got %v", err)

	m, err := NewModel(testConfig(), 8)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))
	// truncation must fail loudly, never yield a half-loaded model
	trunc := buf.Bytes()[:buf.Len()/2]
	_, err = Load(bytes.NewReader(trunc))
	require.Error(t, err)
}

// A bundle from one architecture must not load into another.
func TestBundleShapeMismatch(t *testing.T) {
	m, err := NewModel(testConfig(), 8)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	// tamper with the stored width so the shapes disagree
	b := buf.Bytes()
	tampered := decodeRecodeWith(t, b, func(bd *bundle) {
		bd.Params[0].Rows++
	})
	_, err = Load(bytes.NewReader(tampered))
	require.True(t, matnet.IsKind(err, matnet.KindBadBundle), "got %v", err)

	tampered = decodeRecodeWith(t, b, func(bd *bundle) {
		bd.Version = 99
	})
	_, err = Load(bytes.NewReader(tampered))
	require.True(t, matnet.IsKind(err, matnet.KindBadBundle), "got %v", err)

	tampered = decodeRecodeWith(t, b, func(bd *bundle) {
		bd.Params[0].Name = "no.such.parameter"
	})
	_, err = Load(bytes.NewReader(tampered))
	require.True(t, matnet.IsKind(err, matnet.KindBadBundle), "got %v", err)

	tampered = decodeRecodeWith(t, b, func(bd *bundle) {
		bd.Params = bd.Params[:len(bd.Params)-1]
	})
	_, err = Load(bytes.NewReader(tampered))
	require.True(t, matnet.IsKind(err, matnet.KindBadBundle), "got %v", err)
}

// decodeRecodeWith decompresses a saved bundle, applies an edit and
// compresses it again.
func decodeRecodeWith(t *testing.T, raw []byte, edit func(*bundle)) []byte {
	t.Helper()
	zr, err := zstd.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer zr.Close()
	var bd bundle
	require.NoError(t, json.NewDecoder(zr).Decode(&bd))
	edit(&bd)
	var out bytes.Buffer
	zw, err := zstd.NewWriter(&out)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(zw).Encode(&bd))
	require.NoError(t, zw.Close())
	return out.Bytes()
}
