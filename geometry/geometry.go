/*
 * geometry.go, part of gopenelopetools.
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
	"fmt"

	"github.com/pymontecarlo/gopenelopetools/material"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// MaterialID, SurfaceID and ModuleID are handles into a Geometry. They are
// assigned when the element is added and never change.
type (
	MaterialID int
	SurfaceID  int
	ModuleID   int
)

// Vacuum is the handle of the vacuum every Geometry is created with.
const Vacuum MaterialID = 0

//Reference kinds, as used by keyword.Ref fields.
const (
	MaterialRef = "material"
	SurfaceRef  = "surface"
	ModuleRef   = "module"
)

func (MaterialID) RefKind() string { return MaterialRef }
func (SurfaceID) RefKind() string  { return SurfaceRef }
func (ModuleID) RefKind() string   { return ModuleRef }

// Rotation holds Euler angles in degrees: OMEGA about z, then THETA about y,
// then PHI about z.
type Rotation struct {
	Omega, Theta, Phi float64
}

// Shift is a translation, in cm.
type Shift struct {
	X, Y, Z float64
}

// Scale holds the axis scale factors of a reduced-form surface.
type Scale struct {
	X, Y, Z float64
}

// Side says on which side of a surface a module lies.
type Side int

const (
	Inside  Side = -1
	Outside Side = 1
)

// Form distinguishes implicit surfaces from reduced ones.
type Form int

const (
	Implicit Form = iota
	Reduced
)

//Names of the ten coefficients of an implicit surface, in file order.
var coefficientNames = [10]string{"AXX", "AXY", "AXZ", "AYY", "AYZ", "AZZ", "AX", "AY", "AZ", "A0"}

// Surface is a quadric. In implicit form it is given by its ten coefficients:
//
//	AXX x² + AXY xy + AXZ xz + AYY y² + AYZ yz + AZZ z² + AX x + AY y + AZ z + A0 = 0
//
// In reduced form by five indices in {-1,0,1} and a scale:
//
//	I1 (x/X)² + I2 (y/Y)² + I3 (z/Z)² + I4 z/Z + I5 = 0
//
// Both forms are then rotated and shifted.
type Surface struct {
	Description  string
	Form         Form
	Coefficients [10]float64
	Indices      [5]int
	Scale        Scale
	Rotation     Rotation
	Shift        Shift
	id           SurfaceID
}

func (S *Surface) ID() SurfaceID { return S.id }

// SurfaceSide is a surface bounding a module, with the side the module is on.
type SurfaceSide struct {
	Surface SurfaceID
	Side    Side
}

// Module is a region filled with one material, bounded by surfaces, which can
// contain other modules.
type Module struct {
	Description string
	Material    MaterialID
	Rotation    Rotation
	Shift       Shift
	id          ModuleID
	surfaces    []SurfaceSide
	children    []ModuleID
	geo         *Geometry
}

func (M *Module) ID() ModuleID { return M.id }

// Surfaces returns the bounding surfaces, in the order they were added.
func (M *Module) Surfaces() []SurfaceSide {
	ret := make([]SurfaceSide, len(M.surfaces))
	copy(ret, M.surfaces)
	return ret
}

// Modules returns the modules directly contained in M.
func (M *Module) Modules() []ModuleID {
	ret := make([]ModuleID, len(M.children))
	copy(ret, M.children)
	return ret
}

// AddSurface bounds the module with s. Adding the same surface twice is a
// no-op, adding it with the other side is an error.
func (M *Module) AddSurface(s SurfaceID, side Side) error {
	if side != Inside && side != Outside {
		return newError(ErrDomain, "side pointer must be -1 or 1, got %d", side)
	}
	if M.geo.Surface(s) == nil {
		return newError(ErrUnknown, "surface %d", s)
	}
	for _, v := range M.surfaces {
		if v.Surface == s {
			if v.Side != side {
				return newError(ErrDomain, "surface %d already bounds module %d from the other side", s, M.id)
			}
			return nil
		}
	}
	M.surfaces = append(M.surfaces, SurfaceSide{s, side})
	return nil
}

// AddModule nests child in M. See Geometry.AddChild.
func (M *Module) AddModule(child ModuleID) error {
	return M.geo.AddChild(M.id, child)
}

// Geometry owns the materials, surfaces and modules of a simulation geometry.
// Tilt and Rotation (degrees) turn the whole sample; they are applied through
// an extra module when the file is written.
type Geometry struct {
	Title     string
	Tilt      float64
	Rotation  float64
	materials []*material.Material
	surfaces  []*Surface
	modules   []*Module
	nesting   *simple.DirectedGraph
}

// New returns an empty geometry, holding only its vacuum.
func New(title string) *Geometry {
	return &Geometry{
		Title:     title,
		materials: []*material.Material{material.Vacuum()},
		nesting:   simple.NewDirectedGraph(),
	}
}

// AddMaterial registers m and returns its handle. A material already in the
// geometry keeps its handle.
func (G *Geometry) AddMaterial(m *material.Material) MaterialID {
	if m == nil || m.IsVacuum() {
		return Vacuum
	}
	for i, v := range G.materials {
		if v == m {
			return MaterialID(i)
		}
	}
	G.materials = append(G.materials, m)
	return MaterialID(len(G.materials) - 1)
}

// Material returns the material for the handle, or nil.
func (G *Geometry) Material(id MaterialID) *material.Material {
	if id < 0 || int(id) >= len(G.materials) {
		return nil
	}
	return G.materials[id]
}

// AddSurfaceImplicit adds a surface given by its ten coefficients (see Surface).
func (G *Geometry) AddSurfaceImplicit(description string, coefficients [10]float64) *Surface {
	s := &Surface{Description: description, Form: Implicit, Coefficients: coefficients, Scale: Scale{1, 1, 1}, id: SurfaceID(len(G.surfaces))}
	G.surfaces = append(G.surfaces, s)
	return s
}

// AddSurfaceReduced adds a surface in reduced form. The indices must be -1, 0
// or 1, not all zero, and the scale factors positive.
func (G *Geometry) AddSurfaceReduced(description string, indices [5]int, scale Scale) (*Surface, error) {
	nonzero := false
	for _, i := range indices {
		if i < -1 || i > 1 {
			return nil, newError(ErrDomain, "surface indices must be -1, 0 or 1, got %v", indices)
		}
		nonzero = nonzero || i != 0
	}
	if !nonzero {
		return nil, newError(ErrDomain, "reduced surface with all indices zero")
	}
	if scale.X <= 0 || scale.Y <= 0 || scale.Z <= 0 {
		return nil, newError(ErrDomain, "scale factors must be positive, got %v", scale)
	}
	s := &Surface{Description: description, Form: Reduced, Indices: indices, Scale: scale, id: SurfaceID(len(G.surfaces))}
	G.surfaces = append(G.surfaces, s)
	return s, nil
}

// Surface returns the surface for the handle, or nil.
func (G *Geometry) Surface(id SurfaceID) *Surface {
	if id < 0 || int(id) >= len(G.surfaces) {
		return nil
	}
	return G.surfaces[id]
}

// AddModule adds a module filled with the material mat.
func (G *Geometry) AddModule(mat MaterialID, description string) (*Module, error) {
	if G.Material(mat) == nil {
		return nil, newError(ErrUnknown, "material %d", mat)
	}
	m := &Module{Description: description, Material: mat, id: ModuleID(len(G.modules)), geo: G}
	G.modules = append(G.modules, m)
	G.nesting.AddNode(simple.Node(m.id))
	return m, nil
}

// Module returns the module for the handle, or nil.
func (G *Geometry) Module(id ModuleID) *Module {
	if id < 0 || int(id) >= len(G.modules) {
		return nil
	}
	return G.modules[id]
}

// Modules returns every module, in creation order.
func (G *Geometry) Modules() []*Module {
	ret := make([]*Module, len(G.modules))
	copy(ret, G.modules)
	return ret
}

// Surfaces returns the distinct surfaces bounding at least one module, in
// creation order.
func (G *Geometry) Surfaces() []*Surface {
	used := make(map[SurfaceID]bool)
	for _, m := range G.modules {
		for _, s := range m.surfaces {
			used[s.Surface] = true
		}
	}
	ret := make([]*Surface, 0, len(used))
	for _, s := range G.surfaces {
		if used[s.id] {
			ret = append(ret, s)
		}
	}
	return ret
}

// Materials returns the distinct materials filling at least one module,
// vacuum excluded, in the order they were added.
func (G *Geometry) Materials() []MaterialID {
	used := make(map[MaterialID]bool)
	for _, m := range G.modules {
		used[m.Material] = true
	}
	ret := make([]MaterialID, 0, len(used))
	for i := 1; i < len(G.materials); i++ {
		if used[MaterialID(i)] {
			ret = append(ret, MaterialID(i))
		}
	}
	return ret
}

// AddChild records that parent contains child. It fails with ErrCycle, without
// changing anything, if parent is child or is already contained in child.
func (G *Geometry) AddChild(parent, child ModuleID) error {
	if G.Module(parent) == nil {
		return newError(ErrUnknown, "module %d", parent)
	}
	if G.Module(child) == nil {
		return newError(ErrUnknown, "module %d", child)
	}
	if parent == child {
		return newError(ErrCycle, "module %d can't contain itself", parent)
	}
	if G.nesting.HasEdgeFromTo(int64(parent), int64(child)) {
		return nil
	}
	if topo.PathExistsIn(G.nesting, simple.Node(child), simple.Node(parent)) {
		return newError(ErrCycle, "module %d already contains module %d", child, parent)
	}
	G.nesting.SetEdge(simple.Edge{F: simple.Node(parent), T: simple.Node(child)})
	p := G.modules[parent]
	p.children = append(p.children, child)
	return nil
}

// Roots returns the modules not contained in any other module.
func (G *Geometry) Roots() []ModuleID {
	var ret []ModuleID
	for _, m := range G.modules {
		if G.nesting.To(int64(m.id)).Len() == 0 {
			ret = append(ret, m.id)
		}
	}
	return ret
}

func (G *Geometry) String() string {
	return fmt.Sprintf("%s: %d materials, %d surfaces, %d modules", G.Title, len(G.Materials()), len(G.Surfaces()), len(G.modules))
}
