/*
 * geometry_test.go, part of gopenelopetools.
 *
 *
 * Copyright 2024 The gopenelopetools Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package geometry

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pymontecarlo/gopenelopetools/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestEncodeExponent(Te *testing.T) {
	for v, want := range map[float64]string{
		90:      "+9.000000000000000E+01",
		0:       "+0.000000000000000E+00",
		-1.5e-3: "-1.500000000000000E-03",
		1:       "+1.000000000000000E+00",
		1e-10:   "+1.000000000000000E-10",
	} {
		got, err := EncodeExponent(v)
		require.NoError(Te, err)
		assert.Equal(Te, want, got)
		assert.Len(Te, got, ExponentWidth)
	}
	_, err := EncodeExponent(1e100)
	assert.ErrorIs(Te, err, ErrFormat)
	_, err = EncodeExponent(math.NaN())
	assert.ErrorIs(Te, err, ErrFormat)
}

func TestLines(Te *testing.T) {
	line, err := EncodeLine("X-SHIFT", 1, defaultZero)
	require.NoError(Te, err)
	assert.Equal(Te, "X-SHIFT=(+1.000000000000000E+00,   0)              (DEFAULT=0.0)", line)
	line, err = EncodeLine("PHI", 90, degrees)
	require.NoError(Te, err)
	assert.True(Te, strings.HasPrefix(line, "    PHI=(+9.000000000000000E+01,   0) DEG"))
	_, err = EncodeLine("TOO-LONG", 1, "")
	assert.ErrorIs(Te, err, ErrFormat)

	label, v, trailing, err := DecodeLine("  OMEGA=(+9.000000000000000E+ 1,   0) DEG          (DEFAULT=0.0)\r")
	require.NoError(Te, err)
	assert.Equal(Te, "OMEGA", label)
	assert.Equal(Te, 90.0, v)
	assert.Equal(Te, degrees, trailing)
	_, v, _, err = DecodeLine("     A0=(-2.5D-01,0)")
	require.NoError(Te, err)
	assert.Equal(Te, -0.25, v)

	_, _, _, err = DecodeLine("     A0=(+1.000000000000000E+00,   3)")
	assert.ErrorIs(Te, err, ErrUnsupportedIndex)
	_, _, _, err = DecodeLine("MATERIAL(   1)")
	assert.ErrorIs(Te, err, ErrParse)
}

func TestCycles(Te *testing.T) {
	G := New("cycles")
	a, err := G.AddModule(Vacuum, "a")
	require.NoError(Te, err)
	b, err := G.AddModule(Vacuum, "b")
	require.NoError(Te, err)
	c, err := G.AddModule(Vacuum, "c")
	require.NoError(Te, err)

	assert.ErrorIs(Te, a.AddModule(a.ID()), ErrCycle)
	require.NoError(Te, a.AddModule(b.ID()))
	assert.ErrorIs(Te, b.AddModule(a.ID()), ErrCycle)
	require.NoError(Te, b.AddModule(c.ID()))
	assert.ErrorIs(Te, c.AddModule(a.ID()), ErrCycle)
	require.NoError(Te, a.AddModule(b.ID())) //already there
	assert.Equal(Te, []ModuleID{b.ID()}, a.Modules())
	assert.Empty(Te, c.Modules())
	assert.Equal(Te, []ModuleID{a.ID()}, G.Roots())
	assert.ErrorIs(Te, G.AddChild(a.ID(), 42), ErrUnknown)
}

func TestSurfaceValidation(Te *testing.T) {
	G := New("surfaces")
	_, err := G.AddSurfaceReduced("none", [5]int{}, Scale{1, 1, 1})
	assert.ErrorIs(Te, err, ErrDomain)
	_, err = G.AddSurfaceReduced("two", [5]int{2, 0, 0, 0, 0}, Scale{1, 1, 1})
	assert.ErrorIs(Te, err, ErrDomain)
	_, err = G.AddSurfaceReduced("flat", [5]int{0, 0, 0, 1, 0}, Scale{1, 0, 1})
	assert.ErrorIs(Te, err, ErrDomain)

	s, err := G.AddSurfaceReduced("plane", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	m, err := G.AddModule(Vacuum, "half space")
	require.NoError(Te, err)
	require.NoError(Te, m.AddSurface(s.ID(), Inside))
	require.NoError(Te, m.AddSurface(s.ID(), Inside))
	assert.ErrorIs(Te, m.AddSurface(s.ID(), Outside), ErrDomain)
	assert.ErrorIs(Te, m.AddSurface(s.ID(), 0), ErrDomain)
	assert.Len(Te, m.Surfaces(), 1)
}

func TestTransform(Te *testing.T) {
	G := New("transform")
	plane, err := G.AddSurfaceReduced("plane", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	plane.Shift.Z = 1
	want := [10]float64{8: 1, 9: -1}
	got := plane.Global()
	assert.True(Te, floats.EqualApprox(want[:], got[:], 1e-12), "got %v", got)

	//a sphere of radius 2 doesn't care about rotations
	sphere, err := G.AddSurfaceReduced("sphere", [5]int{1, 1, 1, 0, -1}, Scale{2, 2, 2})
	require.NoError(Te, err)
	sphere.Rotation = Rotation{Omega: 30, Theta: 60, Phi: 10}
	want = [10]float64{0: 0.25, 3: 0.25, 5: 0.25, 9: -1}
	got = sphere.Global()
	assert.True(Te, floats.EqualApprox(want[:], got[:], 1e-12), "got %v", got)

	R := Rotation{Theta: 90}.Matrix()
	assert.InDelta(Te, 0, R.At(0, 0), 1e-12)
	assert.InDelta(Te, -1, R.At(2, 0), 1e-12)

	//a plane x = 0 turned 90 degrees around y becomes z = 0
	yz := G.AddSurfaceImplicit("yz plane", [10]float64{6: 1})
	yz.Rotation.Theta = 90
	got = yz.Global()
	assert.InDelta(Te, 0, got[6], 1e-12)
	assert.InDelta(Te, -1, got[8], 1e-12)
}

//three builds two independent modules and one nested in the first.
func three(Te *testing.T) (*Geometry, *Module, *Module, *Module) {
	G := New("three modules")
	cu, err := material.New("Copper", map[int]float64{29: 1}, 8.9)
	require.NoError(Te, err)
	mat := G.AddMaterial(cu)
	plane, err := G.AddSurfaceReduced("plane", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	parent, err := G.AddModule(mat, "parent")
	require.NoError(Te, err)
	require.NoError(Te, parent.AddSurface(plane.ID(), Inside))
	child, err := G.AddModule(mat, "child")
	require.NoError(Te, err)
	other, err := G.AddModule(Vacuum, "other")
	require.NoError(Te, err)
	require.NoError(Te, parent.AddModule(child.ID()))
	return G, parent, child, other
}

func TestIndexify(Te *testing.T) {
	G, parent, child, other := three(Te)
	G.Tilt = 45
	idx, err := G.Indexify()
	require.NoError(Te, err)
	ip, err := idx.Module(parent.ID())
	require.NoError(Te, err)
	ic, err := idx.Module(child.ID())
	require.NoError(Te, err)
	assert.Less(Te, ic, ip)
	assert.Len(Te, idx.Modules, 3)

	require.NotNil(Te, idx.Extra)
	ie, err := idx.Index(idx.Extra.ID())
	require.NoError(Te, err)
	assert.Equal(Te, 4, ie)
	assert.ElementsMatch(Te, []ModuleID{parent.ID(), other.ID()}, idx.Extra.Modules())
	assert.Equal(Te, Rotation{Omega: 270, Theta: 45, Phi: 90}, idx.Extra.Rotation)

	im, err := idx.Index(Vacuum)
	require.NoError(Te, err)
	assert.Equal(Te, 0, im)
	im, err = idx.Index(MaterialID(1))
	require.NoError(Te, err)
	assert.Equal(Te, 1, im)
	ref, err := idx.Lookup(ModuleRef, ic)
	require.NoError(Te, err)
	assert.Equal(Te, child.ID(), ref)
	_, err = idx.Lookup(SurfaceRef, 2)
	assert.ErrorIs(Te, err, ErrUnknown)

	again, err := G.Indexify()
	require.NoError(Te, err)
	assert.Equal(Te, idx.Modules, again.Modules)
	assert.Equal(Te, idx.Surfaces, again.Surfaces)
	assert.Equal(Te, idx.Materials, again.Materials)

	G.Tilt = 0
	idx, err = G.Indexify()
	require.NoError(Te, err)
	assert.Nil(Te, idx.Extra)
}

//shape is what a module looks like, independent of handles.
type shape struct {
	Material string
	Surfaces []string
	Children []string
	Rotation Rotation
	Shift    Shift
}

func shapes(G *Geometry) map[string]shape {
	ret := make(map[string]shape)
	for _, m := range G.Modules() {
		s := shape{Material: G.Material(m.Material).Name, Rotation: m.Rotation, Shift: m.Shift}
		for _, v := range m.Surfaces() {
			s.Surfaces = append(s.Surfaces, fmt.Sprintf("%s %d", G.Surface(v.Surface).Description, v.Side))
		}
		for _, c := range m.Modules() {
			s.Children = append(s.Children, G.Module(c).Description)
		}
		sort.Strings(s.Children)
		ret[m.Description] = s
	}
	return ret
}

func sample(Te *testing.T) *Geometry {
	G := New("Thin film on a substrate")
	cu, err := material.New("Copper", map[int]float64{29: 1}, 8.9)
	require.NoError(Te, err)
	si, err := material.New("Silicon", map[int]float64{14: 1}, 2.33)
	require.NoError(Te, err)
	unused, err := material.New("Gold", map[int]float64{79: 1}, 19.3)
	require.NoError(Te, err)
	mcu, msi := G.AddMaterial(cu), G.AddMaterial(si)
	G.AddMaterial(unused)

	top, err := G.AddSurfaceReduced("Top plane", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	middle, err := G.AddSurfaceReduced("Middle plane", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	middle.Shift.Z = -1e-5
	bottom, err := G.AddSurfaceReduced("Bottom plane", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	bottom.Shift.Z = -0.1
	cyl, err := G.AddSurfaceReduced("Cylinder", [5]int{1, 1, 0, 0, -1}, Scale{0.1, 0.1, 1})
	require.NoError(Te, err)
	cone := G.AddSurfaceImplicit("Cone", [10]float64{0: 1, 3: 1, 5: -1})
	cone.Rotation = Rotation{Omega: 10, Theta: 20, Phi: 30}
	G.AddSurfaceImplicit("Unused", [10]float64{9: 1})

	film, err := G.AddModule(mcu, "Film")
	require.NoError(Te, err)
	require.NoError(Te, film.AddSurface(top.ID(), Inside))
	require.NoError(Te, film.AddSurface(middle.ID(), Outside))
	require.NoError(Te, film.AddSurface(cyl.ID(), Inside))
	substrate, err := G.AddModule(msi, "Substrate")
	require.NoError(Te, err)
	require.NoError(Te, substrate.AddSurface(middle.ID(), Inside))
	require.NoError(Te, substrate.AddSurface(bottom.ID(), Outside))
	require.NoError(Te, substrate.AddSurface(cyl.ID(), Inside))
	holder, err := G.AddModule(Vacuum, "Holder")
	require.NoError(Te, err)
	require.NoError(Te, holder.AddSurface(cone.ID(), Inside))
	require.NoError(Te, holder.AddModule(film.ID()))
	require.NoError(Te, holder.AddModule(substrate.ID()))
	holder.Shift = Shift{0.5, 0, -2}
	G.Tilt = 30
	G.Rotation = 45
	return G
}

func TestWrite(Te *testing.T) {
	G := sample(Te)
	var b bytes.Buffer
	idx, err := G.Write(&b)
	require.NoError(Te, err)
	assert.Len(Te, idx.Materials, 2)
	assert.Len(Te, idx.Surfaces, 5)
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n"), "\n")
	assert.Equal(Te, startLine, lines[0])
	assert.Equal(Te, "       Thin film on a substrate", lines[1])
	assert.Equal(Te, zeroLine, lines[2])
	assert.Equal(Te, "SURFACE (   1) Top plane", lines[3])
	assert.Equal(Te, "INDICES=( 0, 0, 0, 1, 0)", lines[4])
	assert.Equal(Te, "X-SCALE=(+1.000000000000000E+00,   0)              (DEFAULT=1.0)", lines[5])
	assert.Equal(Te, endLine, lines[len(lines)-1])
	assert.Len(Te, endLine, 64)
	assert.Contains(Te, b.String(), "MODULE  (   4) "+extraDescription)
	assert.Contains(Te, b.String(), "SURFACE (   4), SIDE POINTER=(-1)")

	G.Title = strings.Repeat("t", maxTitle+1)
	_, err = G.Write(&b)
	assert.ErrorIs(Te, err, ErrFormat)
}

func TestRoundTrip(Te *testing.T) {
	G := sample(Te)
	var b bytes.Buffer
	idx, err := G.Write(&b)
	require.NoError(Te, err)
	lookup := func(i int) (*material.Material, error) {
		return G.Material(idx.Materials[i-1]), nil
	}
	H, err := Read(&b, lookup)
	require.NoError(Te, err)

	assert.Equal(Te, G.Title, H.Title)
	assert.InDelta(Te, G.Tilt, H.Tilt, 1e-10)
	assert.InDelta(Te, G.Rotation, H.Rotation, 1e-10)
	assert.Len(Te, H.Modules(), len(G.Modules()))
	assert.Len(Te, H.Surfaces(), len(G.Surfaces()))
	assert.Len(Te, H.Materials(), len(G.Materials()))
	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) <= 1e-12*math.Max(1, math.Abs(a)) })
	if diff := cmp.Diff(shapes(G), shapes(H), approx); diff != "" {
		Te.Errorf("modules differ (-written +read):\n%s", diff)
	}
	for _, s := range H.Surfaces() {
		if s.Description != "Cone" {
			continue
		}
		assert.Equal(Te, Implicit, s.Form)
		assert.InDelta(Te, 20, s.Rotation.Theta, 1e-12)
		assert.InDelta(Te, -1, s.Coefficients[5], 1e-12)
	}
}

func TestReadErrors(Te *testing.T) {
	G := sample(Te)
	var b bytes.Buffer
	_, err := G.Write(&b)
	require.NoError(Te, err)
	text := b.String()
	none := Materials()

	_, err = Read(strings.NewReader(text), none)
	assert.ErrorIs(Te, err, ErrUnknown)

	broken := strings.Replace(text, "+1.000000000000000E+00,   0)", "+1.000000000000000E+00,   2)", 1)
	_, err = Read(strings.NewReader(broken), none)
	require.ErrorIs(Te, err, ErrUnsupportedIndex)
	var gerr *Error
	require.ErrorAs(Te, err, &gerr)
	assert.Equal(Te, 6, gerr.line)
	assert.Equal(Te, []string{"Read"}, gerr.Decorate(""))

	//the materials resolve, so only the missing end can fail
	idx, err := G.Indexify()
	require.NoError(Te, err)
	all := func(i int) (*material.Material, error) { return G.Material(idx.Materials[i-1]), nil }
	cut := text[:strings.Index(text, "END      ")]
	_, err = Read(strings.NewReader(cut), all)
	require.ErrorIs(Te, err, ErrParse)
	assert.Contains(Te, err.Error(), "unexpected end of file")

	_, err = Read(strings.NewReader("not a geometry\n"), none)
	assert.ErrorIs(Te, err, ErrParse)
}

//twoLayers returns a layer of silicon over copper, with copper added first
//so that the first module is written with material 2.
func twoLayers(Te *testing.T) (G *Geometry, cu, si *material.Material) {
	cu, err := material.New("Copper", map[int]float64{29: 1}, 8.96)
	require.NoError(Te, err)
	si, err = material.New("Silicon", map[int]float64{14: 1}, 2.33)
	require.NoError(Te, err)
	G = New("Silicon on copper")
	mcu := G.AddMaterial(cu)
	top, err := G.AddSurfaceReduced("Top", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	bottom, err := G.AddSurfaceReduced("Bottom", [5]int{0, 0, 0, 1, 0}, Scale{1, 1, 1})
	require.NoError(Te, err)
	bottom.Shift.Z = -1e-4
	A, err := G.AddModule(G.AddMaterial(si), "Layer")
	require.NoError(Te, err)
	require.NoError(Te, A.AddSurface(top.ID(), Inside))
	require.NoError(Te, A.AddSurface(bottom.ID(), Outside))
	B, err := G.AddModule(mcu, "Substrate")
	require.NoError(Te, err)
	require.NoError(Te, B.AddSurface(bottom.ID(), Inside))
	return G, cu, si
}

func TestReadKeepsMaterialIndices(Te *testing.T) {
	G, cu, si := twoLayers(Te)
	var b bytes.Buffer
	_, err := G.Write(&b)
	require.NoError(Te, err)
	text := b.String()
	assert.Less(Te, strings.Index(text, "MATERIAL(   2)"), strings.Index(text, "MATERIAL(   1)"))

	H, err := Read(strings.NewReader(text), Materials(cu, si))
	require.NoError(Te, err)
	idx, err := H.Indexify()
	require.NoError(Te, err)
	require.Len(Te, idx.Materials, 2)
	assert.Same(Te, cu, H.Material(idx.Materials[0]))
	assert.Same(Te, si, H.Material(idx.Materials[1]))
	assert.Same(Te, si, H.Material(H.Module(0).Material))

	var again bytes.Buffer
	_, err = H.Write(&again)
	require.NoError(Te, err)
	assert.Equal(Te, text, again.String())

	//one material behind two indices
	H, err = Read(strings.NewReader(text), func(int) (*material.Material, error) { return cu, nil })
	require.NoError(Te, err)
	assert.Equal(Te, []MaterialID{1}, H.Materials())
}

func TestReadUnusedSurface(Te *testing.T) {
	G, cu, si := twoLayers(Te)
	var b bytes.Buffer
	_, err := G.Write(&b)
	require.NoError(Te, err)
	text := strings.ReplaceAll(b.String(), "\r\n", "\n")
	//the layer no longer refers to Top
	text = strings.Replace(text, "SURFACE (   1), SIDE POINTER=(-1)\n", "", 1)

	H, err := Read(strings.NewReader(text), Materials(cu, si))
	require.NoError(Te, err)
	assert.Equal(Te, "Top", H.Surface(0).Description)
	require.Len(Te, H.Surfaces(), 1)
	assert.Equal(Te, "Bottom", H.Surfaces()[0].Description)

	var again bytes.Buffer
	_, err = H.Write(&again)
	require.NoError(Te, err)
	assert.Contains(Te, again.String(), "SURFACE (   1) Bottom")
	assert.NotContains(Te, again.String(), "Top")
}

func TestFiles(Te *testing.T) {
	G := sample(Te)
	name := filepath.Join(Te.TempDir(), "film.geo.zst")
	idx, err := G.WriteFile(name)
	require.NoError(Te, err)
	mats := make([]*material.Material, len(idx.Materials))
	for i, m := range idx.Materials {
		mats[i] = G.Material(m)
	}
	H, err := ReadFile(name, Materials(mats...))
	require.NoError(Te, err)
	assert.Equal(Te, G.String(), H.String())
}
