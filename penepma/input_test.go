package penepma

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pymontecarlo/gopenelopetools/geometry"
	"github.com/pymontecarlo/gopenelopetools/keyword"
	"github.com/pymontecarlo/gopenelopetools/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//coated returns a coating on a substrate, and the index of the geometry.
func coated(Te *testing.T) (coating, substrate geometry.ModuleID, idx *geometry.Index) {
	G := geometry.New("Coated copper")
	cu, err := material.New("Copper", map[int]float64{29: 1}, 8.9)
	require.NoError(Te, err)
	c, err := material.New("Carbon", map[int]float64{6: 1}, 2.2)
	require.NoError(Te, err)
	top, err := G.AddSurfaceReduced("Top", [5]int{0, 0, 0, 1, 0}, geometry.Scale{X: 1, Y: 1, Z: 1})
	require.NoError(Te, err)
	interface_, err := G.AddSurfaceReduced("Interface", [5]int{0, 0, 0, 1, 0}, geometry.Scale{X: 1, Y: 1, Z: 1})
	require.NoError(Te, err)
	interface_.Shift.Z = -1e-6
	m1, err := G.AddModule(G.AddMaterial(c), "Coating")
	require.NoError(Te, err)
	require.NoError(Te, m1.AddSurface(top.ID(), geometry.Inside))
	require.NoError(Te, m1.AddSurface(interface_.ID(), geometry.Outside))
	m2, err := G.AddModule(G.AddMaterial(cu), "Substrate")
	require.NoError(Te, err)
	require.NoError(Te, m2.AddSurface(interface_.ID(), geometry.Inside))
	idx, err = G.Indexify()
	require.NoError(Te, err)
	return m1.ID(), m2.ID(), idx
}

func sample(Te *testing.T) (*Input, *geometry.Index) {
	coating, substrate, idx := coated(Te)
	I := NewInput()
	require.NoError(Te, I.Title.Set("Copper with a 1 um carbon coating"))
	require.NoError(Te, I.Energy.Set(15e3))
	require.NoError(Te, I.Position.Set(0.0, 0.0, 1.0))
	require.NoError(Te, I.Direction.Set(180.0, 0.0))
	require.NoError(Te, I.Aperture.Set(0.0))
	require.NoError(Te, I.Materials.Add("C.mat", 1e3, 1e3, 1e3, 0.2, 0.2, 1e3, 1e3))
	require.NoError(Te, I.Materials.Add("Cu.mat", 1e3, 1e3, 1e3, 0.2, 0.2, 1e3, 1e3))
	require.NoError(Te, I.GeometryFile.Set("coated.geo"))
	require.NoError(Te, I.StepLengths.Add(coating, 1e-7))
	require.NoError(Te, I.LocalAbsorption.Add(substrate, 5e3, 5e3, 5e3))
	require.NoError(Te, I.Forcing.Add(coating, 1, 4, -5.0, 0.9, 1.0))
	require.NoError(Te, I.EnergyBins.Set(0.0, 15e3, 300))
	require.NoError(Te, I.AngleBins.Set(45, 30))
	require.NoError(Te, I.Detectors.Add(30.0, 50.0, 0.0, 360.0, 0, 0.0, 15e3, 1000))
	require.NoError(Te, I.Detectors.Add(0.0, 90.0, 0.0, 360.0, 1, 0.0, 15e3, 1000))
	require.NoError(Te, I.DumpTo.Set("dump1.dat"))
	require.NoError(Te, I.DumpPeriod.Set(60.0))
	require.NoError(Te, I.Seeds.Set(-10, 1))
	require.NoError(Te, I.ReferenceLine.Set(29010300, 1, 1.5e-3))
	require.NoError(Te, I.Showers.Set(2e9))
	require.NoError(Te, I.Time.Set(600.0))
	return I, idx
}

func TestWrite(Te *testing.T) {
	I, idx := sample(Te)
	require.NoError(Te, I.Check())
	var b bytes.Buffer
	require.NoError(Te, I.Write(&b, idx))
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n"), "\n")

	assert.Equal(Te, "TITLE  Copper with a 1 um carbon coating", lines[0])
	assert.Equal(Te, "       >>>>>>>> Electron beam definition.", lines[1])
	assert.Equal(Te, "SENERG 15000             [Energy of the electron beam, in eV]", lines[2])
	assert.Equal(Te, "MFNAME C.mat             [Material file, up to 20 chars]", lines[7])
	assert.True(Te, strings.HasPrefix(lines[8], "MSIMPA 1000 1000 1000 0.2 0.2 1000 1000"))
	assert.Contains(Te, lines, "DSMAX  1 1e-07           [KB, maximum step length (cm) in body KB]")
	assert.True(Te, strings.HasPrefix(lines[len(lines)-1], "END "))
	assert.NotContains(Te, b.String(), "RESUME")
	assert.NotContains(Te, b.String(), "GRIDX")
	for _, l := range lines {
		assert.LessOrEqual(Te, len(l), 80, l)
	}

	//module references need the geometry's index
	assert.ErrorIs(Te, I.Write(&b, nil), keyword.ErrUnresolved)
}

func TestRoundTrip(Te *testing.T) {
	I, idx := sample(Te)
	name := filepath.Join(Te.TempDir(), "coated.in")
	require.NoError(Te, I.WriteFile(name, idx))
	J, err := ReadFile(name, idx)
	require.NoError(Te, err)

	written, read := I.Document().Keywords(), J.Document().Keywords()
	require.Equal(Te, len(written), len(read))
	for i, k := range written {
		assert.Equal(Te, k.IsSet(), read[i].IsSet(), k.Label())
		switch t := k.(type) {
		case *keyword.Record:
			assert.Equal(Te, t.Get(), read[i].(*keyword.Record).Get(), t.Label())
		case *keyword.Sequence:
			assert.Equal(Te, t.Get(), read[i].(*keyword.Sequence).Get(), t.Label())
		}
	}
	assert.False(Te, J.Resume.IsSet())
	assert.Equal(Te, 2, J.Detectors.Len())
}

func TestReadByHand(Te *testing.T) {
	text := `TITLE  A hand written input
       .
       >>>>>>>> Electron beam definition.
SENERG 2.0D4              [Energy of the electron beam, in eV]
MFNAME Cu.mat
MSIMPA 1e3 1e3 1e3 0.1 0.1 1e3 1e3
       .
GEOMFN foil.geo
PDANGL 0 90 0 360 0
PDENER 0 20e3 1000
NSIMSH 1e6
END
`
	I := NewInput()
	require.NoError(Te, I.Read(strings.NewReader(text), nil))
	assert.Equal(Te, []any{"A hand written input"}, I.Title.Get())
	assert.Equal(Te, []any{20000.0}, I.Energy.Get())
	assert.Equal(Te, 1, I.Materials.Len())
	assert.False(Te, I.Position.IsSet())
	require.NoError(Te, I.Check())

	//a keyword this catalog does not know stops the read
	unknown := strings.Replace(text, "GEOMFN foil.geo\n", "SKPAR  1\nGEOMFN foil.geo\n", 1)
	err := NewInput().Read(strings.NewReader(unknown), nil)
	require.ErrorIs(Te, err, keyword.ErrParse)
	assert.Contains(Te, err.Error(), "SKPAR")
}

func TestDomains(Te *testing.T) {
	I := NewInput()
	assert.ErrorIs(Te, I.Check(), ErrMissing)
	assert.ErrorIs(Te, I.Energy.Set(10.0), keyword.ErrDomain)
	assert.False(Te, I.Energy.IsSet())
	assert.ErrorIs(Te, I.Direction.Set(190.0, 0.0), keyword.ErrDomain)
	assert.ErrorIs(Te, I.Title.Set(strings.Repeat("t", 66)), keyword.ErrDomain)
	assert.ErrorIs(Te, I.GeometryFile.Set("a-very-long-geometry.geo"), keyword.ErrDomain)
	assert.ErrorIs(Te, I.Forcing.Add(geometry.ModuleID(0), 4, 4, -5.0, 0.9, 1.0), keyword.ErrDomain)
	assert.ErrorIs(Te, I.Forcing.Add(geometry.ModuleID(0), 1, 9, -5.0, 0.9, 1.0), keyword.ErrDomain)
	assert.ErrorIs(Te, I.Forcing.Add(geometry.SurfaceID(0), 1, 4, -5.0, 0.9, 1.0), keyword.ErrType)
	assert.Equal(Te, 0, I.Forcing.Len())
	assert.ErrorIs(Te, I.Materials.Add("Cu.mat", 1e3, 1e3, 1e3, 0.3, 0.2, 1e3, 1e3), keyword.ErrDomain)
	assert.ErrorIs(Te, I.Detectors.Add(50.0, 30.0, 0.0, 360.0, 0, 0.0, 15e3, 1000), keyword.ErrDomain)
	assert.ErrorIs(Te, I.ReferenceLine.Set(29010300, 26, 1.5e-3), keyword.ErrDomain)

	for i := 0; i < MaxDetectors; i++ {
		require.NoError(Te, I.Detectors.Add(0.0, 90.0, 0.0, 360.0, 0, 0.0, 15e3, 1000))
	}
	assert.ErrorIs(Te, I.Detectors.Add(0.0, 90.0, 0.0, 360.0, 0, 0.0, 15e3, 1000), keyword.ErrCapacity)
	for i := 0; i < MaxMaterials; i++ {
		require.NoError(Te, I.Materials.Add("Cu.mat", 1e3, 1e3, 1e3, 0.2, 0.2, 1e3, 1e3))
	}
	assert.ErrorIs(Te, I.Materials.Add("Cu.mat", 1e3, 1e3, 1e3, 0.2, 0.2, 1e3, 1e3), keyword.ErrCapacity)
}
