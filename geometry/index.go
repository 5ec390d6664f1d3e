/*
 * index.go, part of gopenelopetools.
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
	"math"

	"github.com/pymontecarlo/gopenelopetools/keyword"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

//The description the extra module is written with, and recognized by.
const extraDescription = "Extra module for rotation and tilt"

// Index holds the integers materials, surfaces and modules are written with.
// Each kind is numbered from 1, in its own block; 0 is the vacuum. It
// implements keyword.IndexTable, so input files can refer to geometry
// elements.
type Index struct {
	Materials []MaterialID //Materials[i] is written as i+1
	Surfaces  []SurfaceID
	Modules   []ModuleID //children always come before their parents
	//Extra is the module that applies tilt and rotation to the whole
	//geometry. It is nil if both are zero. It is not part of the Geometry.
	Extra *Module
	mat   map[MaterialID]int
	surf  map[SurfaceID]int
	mod   map[ModuleID]int
}

// Indexify numbers the elements of the geometry as they are written to a
// file. Only materials and surfaces used by some module are numbered. Calling
// it again on an unchanged geometry gives the same numbers.
func (G *Geometry) Indexify() (*Index, error) {
	I := &Index{
		mat:  map[MaterialID]int{Vacuum: 0},
		surf: make(map[SurfaceID]int),
		mod:  make(map[ModuleID]int),
	}
	for i, m := range G.Materials() {
		I.Materials = append(I.Materials, m)
		I.mat[m] = i + 1
	}
	for i, s := range G.Surfaces() {
		I.Surfaces = append(I.Surfaces, s.id)
		I.surf[s.id] = i + 1
	}
	//Sorting the inverted nesting graph puts every module after all its
	//descendants. Ties are broken by handle, so the order is stable.
	inv := simple.NewDirectedGraph()
	for _, m := range G.modules {
		inv.AddNode(simple.Node(m.id))
	}
	for _, m := range G.modules {
		for _, c := range m.children {
			inv.SetEdge(simple.Edge{F: simple.Node(c), T: simple.Node(m.id)})
		}
	}
	sorted, err := topo.SortStabilized(inv, nil)
	if err != nil {
		return nil, newError(ErrCycle, "%v", err)
	}
	for i, n := range sorted {
		id := ModuleID(n.ID())
		I.Modules = append(I.Modules, id)
		I.mod[id] = i + 1
	}
	if G.Tilt != 0 || G.Rotation != 0 {
		I.Extra = &Module{
			Description: extraDescription,
			Material:    Vacuum,
			Rotation:    Rotation{Omega: mod360(G.Rotation - 90), Theta: G.Tilt, Phi: 90},
			id:          ModuleID(len(G.modules)),
			children:    G.Roots(),
			geo:         G,
		}
		I.mod[I.Extra.id] = len(I.Modules) + 1
	}
	return I, nil
}

// Material returns the index of a material.
func (I *Index) Material(id MaterialID) (int, error) {
	i, ok := I.mat[id]
	if !ok {
		return 0, newError(ErrUnknown, "material %d is not used by any module", id)
	}
	return i, nil
}

// Surface returns the index of a surface.
func (I *Index) Surface(id SurfaceID) (int, error) {
	i, ok := I.surf[id]
	if !ok {
		return 0, newError(ErrUnknown, "surface %d does not bound any module", id)
	}
	return i, nil
}

// Module returns the index of a module.
func (I *Index) Module(id ModuleID) (int, error) {
	i, ok := I.mod[id]
	if !ok {
		return 0, newError(ErrUnknown, "module %d", id)
	}
	return i, nil
}

// Index implements keyword.IndexTable.
func (I *Index) Index(r keyword.Ref) (int, error) {
	switch v := r.(type) {
	case MaterialID:
		return I.Material(v)
	case SurfaceID:
		return I.Surface(v)
	case ModuleID:
		return I.Module(v)
	}
	return 0, newError(ErrUnknown, "%v is not a geometry element", r)
}

// Lookup implements keyword.IndexTable.
func (I *Index) Lookup(kind string, i int) (keyword.Ref, error) {
	switch kind {
	case MaterialRef:
		if i == 0 {
			return Vacuum, nil
		}
		if i > 0 && i <= len(I.Materials) {
			return I.Materials[i-1], nil
		}
	case SurfaceRef:
		if i > 0 && i <= len(I.Surfaces) {
			return I.Surfaces[i-1], nil
		}
	case ModuleRef:
		if i > 0 && i <= len(I.Modules) {
			return I.Modules[i-1], nil
		}
		if I.Extra != nil && i == len(I.Modules)+1 {
			return I.Extra.id, nil
		}
	}
	return nil, newError(ErrUnknown, "no %s with index %d", kind, i)
}

func mod360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
