/*
 * file.go, part of gopenelopetools.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pymontecarlo/gopenelopetools/fileio"
	"github.com/pymontecarlo/gopenelopetools/keyword"
	"github.com/pymontecarlo/gopenelopetools/material"
)

const maxTitle = 61

var (
	startLine = strings.Repeat("X", 64)
	zeroLine  = strings.Repeat("0", 64)
	oneLine   = strings.Repeat("1", 64)
	endLine   = "END      " + strings.Repeat("0", 55)
)

const (
	defaultZero = "              (DEFAULT=0.0)"
	defaultOne  = "              (DEFAULT=1.0)"
	degrees     = " DEG          (DEFAULT=0.0)"
)

//lineWriter keeps the first error of a run of numeric lines.
type lineWriter struct {
	kw  *keyword.Writer
	err error
}

func (L *lineWriter) line(s string) {
	if L.err == nil {
		L.err = L.kw.WriteLine(s)
	}
}

func (L *lineWriter) number(label string, v float64, trailing string) {
	if L.err != nil {
		return
	}
	s, err := EncodeLine(label, v, trailing)
	if err != nil {
		L.err = err
		return
	}
	L.line(s)
}

func (L *lineWriter) transform(r Rotation, s Shift) {
	L.number("OMEGA", r.Omega, degrees)
	L.number("THETA", r.Theta, degrees)
	L.number("PHI", r.Phi, degrees)
	L.number("X-SHIFT", s.X, defaultZero)
	L.number("Y-SHIFT", s.Y, defaultZero)
	L.number("Z-SHIFT", s.Z, defaultZero)
}

func (L *lineWriter) surface(n int, S *Surface) {
	L.line(fmt.Sprintf("SURFACE (%4d) %s", n, S.Description))
	var ind [5]int
	if S.Form == Reduced {
		ind = S.Indices
	}
	L.line(fmt.Sprintf("INDICES=(%2d,%2d,%2d,%2d,%2d)", ind[0], ind[1], ind[2], ind[3], ind[4]))
	if S.Form == Reduced {
		L.number("X-SCALE", S.Scale.X, defaultOne)
		L.number("Y-SCALE", S.Scale.Y, defaultOne)
		L.number("Z-SCALE", S.Scale.Z, defaultOne)
	} else {
		for i, name := range coefficientNames {
			L.number(name, S.Coefficients[i], defaultZero)
		}
		L.line(oneLine)
	}
	L.transform(S.Rotation, S.Shift)
	L.line(zeroLine)
}

func (L *lineWriter) module(idx *Index, n int, M *Module) {
	if L.err != nil {
		return
	}
	mat, err := idx.Material(M.Material)
	if err != nil {
		L.err = err
		return
	}
	L.line(fmt.Sprintf("MODULE  (%4d) %s", n, M.Description))
	L.line(fmt.Sprintf("MATERIAL(%4d)", mat))
	for _, s := range M.surfaces {
		i, err := idx.Surface(s.Surface)
		if err != nil {
			L.err = err
			return
		}
		L.line(fmt.Sprintf("SURFACE (%4d), SIDE POINTER=(%2d)", i, s.Side))
	}
	for _, c := range M.children {
		i, err := idx.Module(c)
		if err != nil {
			L.err = err
			return
		}
		L.line(fmt.Sprintf("MODULE  (%4d)", i))
	}
	L.line(oneLine)
	L.transform(M.Rotation, M.Shift)
	L.line(zeroLine)
}

// Write writes the geometry in the format of the pengeom package, and returns
// the index it was written with. Input files that refer to the geometry must
// be written with the same index.
func (G *Geometry) Write(w io.Writer) (*Index, error) {
	if len(G.Title) > maxTitle {
		return nil, newError(ErrFormat, "title %q longer than %d characters", G.Title, maxTitle)
	}
	idx, err := G.Indexify()
	if err != nil {
		return nil, err
	}
	kw := keyword.NewWriter(w, idx)
	kw.Format = keyword.GeometryFormat
	L := &lineWriter{kw: kw}
	L.line(startLine)
	L.line("       " + G.Title)
	L.line(zeroLine)
	for i, s := range idx.Surfaces {
		L.surface(i+1, G.surfaces[s])
	}
	for i, m := range idx.Modules {
		L.module(idx, i+1, G.modules[m])
	}
	if idx.Extra != nil {
		L.module(idx, len(idx.Modules)+1, idx.Extra)
	}
	L.line(endLine)
	if L.err != nil {
		if e, ok := L.err.(*Error); ok {
			e.Decorate("Geometry.Write")
		}
		return nil, L.err
	}
	return idx, nil
}

// WriteFile writes the geometry to the named file, compressed if the name
// ends in .zst or .gz.
func (G *Geometry) WriteFile(name string) (*Index, error) {
	f, err := fileio.Create(name)
	if err != nil {
		return nil, err
	}
	idx, err := G.Write(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if e, ok := err.(*Error); ok {
		e.filename = name
	}
	return idx, err
}

// MaterialLookup returns the material written with the given index, which is
// never 0. Materials are not stored in geometry files.
type MaterialLookup func(index int) (*material.Material, error)

// Materials returns a MaterialLookup over a list, where index i is mats[i-1].
func Materials(mats ...*material.Material) MaterialLookup {
	return func(i int) (*material.Material, error) {
		if i < 1 || i > len(mats) {
			return nil, fmt.Errorf("no material %d", i)
		}
		return mats[i-1], nil
	}
}

var (
	surfaceHeader = regexp.MustCompile(`^SURFACE\s*\(\s*(\d+)\)\s?(.*)$`)
	moduleHeader  = regexp.MustCompile(`^MODULE\s*\(\s*(\d+)\)\s?(.*)$`)
	indicesLine   = regexp.MustCompile(`^INDICES=\(\s*([-+]?\d+)\s*,\s*([-+]?\d+)\s*,\s*([-+]?\d+)\s*,\s*([-+]?\d+)\s*,\s*([-+]?\d+)\s*\)`)
	materialLine  = regexp.MustCompile(`^MATERIAL\s*\(\s*(\d+)\)`)
	sideLine      = regexp.MustCompile(`^SURFACE\s*\(\s*(\d+)\)\s*,\s*SIDE POINTER=\(\s*([-+]?\d+)\s*\)`)
)

//lineReader numbers the lines it reads.
type lineReader struct {
	sc     *bufio.Scanner
	lineno int
}

//raw returns the next line. ok is false at the end of the input.
func (L *lineReader) raw() (string, bool) {
	if !L.sc.Scan() {
		return "", false
	}
	L.lineno++
	return strings.TrimRight(L.sc.Text(), "\r"), true
}

//next returns the next non-blank line.
func (L *lineReader) next() (string, error) {
	for {
		l, ok := L.raw()
		if !ok {
			if err := L.sc.Err(); err != nil {
				return "", err
			}
			return "", L.errorf(ErrParse, "unexpected end of file")
		}
		if strings.TrimSpace(l) != "" {
			return l, nil
		}
	}
}

func (L *lineReader) errorf(kind error, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.line = L.lineno
	return e
}

//transform sets the rotation and shift from a numeric line. It returns false
//for any other label.
func transform(label string, v float64, trailing string, r *Rotation, s *Shift) bool {
	if strings.Contains(strings.ToUpper(trailing), "RAD") {
		v = v * 180 / math.Pi
	}
	switch label {
	case "OMEGA":
		r.Omega = v
	case "THETA":
		r.Theta = v
	case "PHI":
		r.Phi = v
	case "X-SHIFT":
		s.X = v
	case "Y-SHIFT":
		s.Y = v
	case "Z-SHIFT":
		s.Z = v
	default:
		return false
	}
	return true
}

type reader struct {
	L        *lineReader
	G        *Geometry
	lookup   MaterialLookup
	surfaces map[int]SurfaceID
	modules  map[int]ModuleID
	mats     map[int]MaterialID
	last     int //file index of the last module read
}

func (R *reader) surface(n int, description string) error {
	if _, ok := R.surfaces[n]; ok {
		return R.L.errorf(ErrParse, "surface %d defined twice", n)
	}
	l, err := R.L.next()
	if err != nil {
		return err
	}
	m := indicesLine.FindStringSubmatch(l)
	if m == nil {
		return R.L.errorf(ErrParse, "expected INDICES, found %q", l)
	}
	var ind [5]int
	reduced := false
	for i := range ind {
		ind[i], _ = strconv.Atoi(m[i+1])
		reduced = reduced || ind[i] != 0
	}
	var coef [10]float64
	scale := Scale{1, 1, 1}
	var rot Rotation
	var shift Shift
	for {
		l, err = R.L.next()
		if err != nil {
			return err
		}
		if strings.HasPrefix(l, "0000") {
			break
		}
		if strings.HasPrefix(l, "1111") {
			continue
		}
		label, v, trailing, err := DecodeLine(l)
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.line = R.L.lineno
			}
			return err
		}
		if transform(label, v, trailing, &rot, &shift) {
			continue
		}
		switch {
		case reduced && label == "X-SCALE":
			scale.X = v
		case reduced && label == "Y-SCALE":
			scale.Y = v
		case reduced && label == "Z-SCALE":
			scale.Z = v
		case !reduced && coefficient(label) >= 0:
			coef[coefficient(label)] = v
		default:
			return R.L.errorf(ErrParse, "unexpected %s in surface %d", label, n)
		}
	}
	var S *Surface
	if reduced {
		S, err = R.G.AddSurfaceReduced(description, ind, scale)
		if err != nil {
			err.(*Error).line = R.L.lineno
			return err
		}
	} else {
		S = R.G.AddSurfaceImplicit(description, coef)
	}
	S.Rotation = rot
	S.Shift = shift
	R.surfaces[n] = S.id
	return nil
}

func coefficient(label string) int {
	for i, v := range coefficientNames {
		if v == label {
			return i
		}
	}
	return -1
}

func (R *reader) material(n int) (MaterialID, error) {
	if n == 0 {
		return Vacuum, nil
	}
	if id, ok := R.mats[n]; ok {
		return id, nil
	}
	m, err := R.lookup(n)
	if err != nil || m == nil {
		return 0, R.L.errorf(ErrUnknown, "material %d: %v", n, err)
	}
	id := R.G.AddMaterial(m)
	R.mats[n] = id
	return id, nil
}

func (R *reader) module(n int, description string) error {
	if _, ok := R.modules[n]; ok {
		return R.L.errorf(ErrParse, "module %d defined twice", n)
	}
	mat := -1
	var sides []SurfaceSide
	var children []ModuleID
	var rot Rotation
	var shift Shift
	transforms := false
	for {
		l, err := R.L.next()
		if err != nil {
			return err
		}
		if strings.HasPrefix(l, "0000") {
			break
		}
		if transforms {
			label, v, trailing, err := DecodeLine(l)
			if err != nil {
				if e, ok := err.(*Error); ok {
					e.line = R.L.lineno
				}
				return err
			}
			if !transform(label, v, trailing, &rot, &shift) {
				return R.L.errorf(ErrParse, "unexpected %s in module %d", label, n)
			}
			continue
		}
		if strings.HasPrefix(l, "1111") {
			transforms = true
			continue
		}
		if m := materialLine.FindStringSubmatch(l); m != nil {
			mat, _ = strconv.Atoi(m[1])
			continue
		}
		if m := sideLine.FindStringSubmatch(l); m != nil {
			i, _ := strconv.Atoi(m[1])
			side, _ := strconv.Atoi(m[2])
			s, ok := R.surfaces[i]
			if !ok {
				return R.L.errorf(ErrParse, "module %d refers to undefined surface %d", n, i)
			}
			sides = append(sides, SurfaceSide{s, Side(side)})
			continue
		}
		if m := moduleHeader.FindStringSubmatch(l); m != nil {
			i, _ := strconv.Atoi(m[1])
			c, ok := R.modules[i]
			if !ok {
				return R.L.errorf(ErrParse, "module %d refers to undefined module %d", n, i)
			}
			children = append(children, c)
			continue
		}
		return R.L.errorf(ErrParse, "unexpected %q in module %d", l, n)
	}
	if mat < 0 {
		return R.L.errorf(ErrParse, "module %d has no material", n)
	}
	id, err := R.material(mat)
	if err != nil {
		return err
	}
	M, err := R.G.AddModule(id, description)
	if err != nil {
		return err
	}
	M.Rotation = rot
	M.Shift = shift
	for _, s := range sides {
		if err := M.AddSurface(s.Surface, s.Side); err != nil {
			err.(*Error).line = R.L.lineno
			return err
		}
	}
	for _, c := range children {
		if err := M.AddModule(c); err != nil {
			err.(*Error).line = R.L.lineno
			return err
		}
	}
	R.modules[n] = M.id
	R.last = n
	return nil
}

//sortMaterials gives the materials their handles in the order of their
//indices in the file, so writing the geometry back numbers them the same.
func (R *reader) sortMaterials() {
	ns := make([]int, 0, len(R.mats))
	for n := range R.mats {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	remap := map[MaterialID]MaterialID{Vacuum: Vacuum}
	mats := []*material.Material{R.G.materials[Vacuum]}
	for _, n := range ns {
		old := R.mats[n]
		if id, ok := remap[old]; ok {
			R.mats[n] = id
			continue
		}
		remap[old] = MaterialID(len(mats))
		R.mats[n] = remap[old]
		mats = append(mats, R.G.materials[old])
	}
	R.G.materials = mats
	for _, M := range R.G.modules {
		M.Material = remap[M.Material]
	}
}

//unwrap turns a trailing extra module back into the tilt and rotation of
//the geometry.
func (R *reader) unwrap() {
	id, ok := R.modules[R.last]
	if !ok || int(id) != len(R.G.modules)-1 {
		return
	}
	M := R.G.modules[id]
	if M.Description != extraDescription || M.Material != Vacuum || len(M.surfaces) > 0 || M.Rotation.Phi != 90 {
		return
	}
	R.G.Tilt = M.Rotation.Theta
	R.G.Rotation = mod360(M.Rotation.Omega + 90)
	R.G.nesting.RemoveNode(int64(id))
	R.G.modules = R.G.modules[:id]
	delete(R.modules, R.last)
}

// Read reads a geometry in the format of the pengeom package. Materials are
// resolved through lookup and keep the order of their indices in the file.
// Surfaces that bound no module are read but Indexify does not number them,
// so writing the geometry back leaves them out. The extra module Write adds
// for tilt and rotation is turned back into Tilt and Rotation.
func Read(r io.Reader, lookup MaterialLookup) (*Geometry, error) {
	L := &lineReader{sc: bufio.NewScanner(r)}
	G, err := read(L, lookup)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Decorate("Read")
		}
		return nil, err
	}
	return G, nil
}

func read(L *lineReader, lookup MaterialLookup) (*Geometry, error) {
	l, err := L.next()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(l, "XXXX") {
		return nil, L.errorf(ErrParse, "expected the XXXX line, found %q", l)
	}
	title, _ := L.raw()
	if l, err = L.next(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(l, "0000") {
		return nil, L.errorf(ErrParse, "expected the 0000 line after the title, found %q", l)
	}
	R := &reader{
		L:        L,
		G:        New(strings.TrimSpace(title)),
		lookup:   lookup,
		surfaces: make(map[int]SurfaceID),
		modules:  make(map[int]ModuleID),
		mats:     make(map[int]MaterialID),
	}
	for {
		l, err = L.next()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(l, "END") {
			break
		}
		if m := surfaceHeader.FindStringSubmatch(l); m != nil {
			n, _ := strconv.Atoi(m[1])
			err = R.surface(n, strings.TrimSpace(m[2]))
		} else if m := moduleHeader.FindStringSubmatch(l); m != nil {
			n, _ := strconv.Atoi(m[1])
			err = R.module(n, strings.TrimSpace(m[2]))
		} else {
			err = L.errorf(ErrParse, "expected SURFACE, MODULE or END, found %q", l)
		}
		if err != nil {
			return nil, err
		}
	}
	R.unwrap()
	R.sortMaterials()
	return R.G, nil
}

// ReadFile reads a geometry from the named file, which may be compressed.
func ReadFile(name string, lookup MaterialLookup) (*Geometry, error) {
	f, err := fileio.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	G, err := Read(f, lookup)
	if e, ok := err.(*Error); ok {
		e.filename = name
	}
	return G, err
}
