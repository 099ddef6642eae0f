package netplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matnetgo/gomatnet/nn"
	"github.com/stretchr/testify/require"
)

func TestRadialBasisPlot(t *testing.T) {
	base := filepath.Join(t.TempDir(), "rbf")
	require.NoError(t, RadialBasisPlot(6, 4.0, 120, base))
	info, err := os.Stat(base + ".png")
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	require.Error(t, RadialBasisPlot(0, 4.0, 120, base))
	require.Error(t, RadialBasisPlot(6, -1, 120, base))
}

func TestEnergyCurvePlot(t *testing.T) {
	cfg := nn.DefaultConfig([]string{"Cs", "Cl"})
	cfg.Cutoff = 4.0
	cfg.ThreeBodyCutoff = 0
	cfg.NAngular = 0
	cfg.NRBF = 4
	cfg.NBlocks = 1
	cfg.NodeDim = 8
	cfg.EdgeDim = 8
	cfg.Hidden = 8
	m, err := nn.NewModel(cfg, 2)
	require.NoError(t, err)

	base := filepath.Join(t.TempDir(), "dimer")
	require.NoError(t, EnergyCurvePlot(m, "Cs", "Cl", 2.0, 5.0, 30, base))
	info, err := os.Stat(base + ".png")
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	require.Error(t, EnergyCurvePlot(m, "Cs", "Cl", 3.0, 2.0, 30, base))
}
