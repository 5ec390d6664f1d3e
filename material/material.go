/*
 * material.go, part of gopenelopetools.
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

package material

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pymontecarlo/gopenelopetools/keyword"
	"gonum.org/v1/gonum/floats"
)

// ErrDomain is returned for compositions, densities or names the material
// program would not accept.
var ErrDomain = errors.New("material: value out of domain")

const (
	maxZ           = 99
	maxNameLen     = 62
	maxFilenameLen = 20
)

// Material is a material as the material program builds it: a composition in
// weight fractions and a density, plus optional parameters that the program
// otherwise computes itself.
type Material struct {
	Name        string
	Composition map[int]float64 //atomic number -> weight fraction
	Density     float64         //g/cm3
	//Mean excitation energy in eV. 0 means the program's default.
	MeanExcitationEnergy float64
	//Oscillator strength and plasmon energy (eV) of the conduction band. Used
	//only if both are non-zero.
	OscillatorStrength float64
	PlasmonEnergy      float64
	Filename           string //output of the material program, up to 20 characters
	vacuum             bool
}

// New returns a material with the given composition, normalized so the
// fractions add up to 1. The output file name defaults to the name plus ".mat".
func New(name string, composition map[int]float64, density float64) (*Material, error) {
	M := &Material{Name: name, Composition: make(map[int]float64, len(composition)), Density: density}
	for z, f := range composition {
		M.Composition[z] = f
	}
	M.Filename = strings.ReplaceAll(name, " ", "_") + ".mat"
	if len(M.Filename) > maxFilenameLen {
		M.Filename = M.Filename[:maxFilenameLen-4] + ".mat"
	}
	if err := M.Validate(); err != nil {
		return nil, err
	}
	M.normalize()
	return M, nil
}

// Vacuum returns a new vacuum material. Geometries carry their own vacuum,
// always at index 0.
func Vacuum() *Material {
	return &Material{Name: "Vacuum", vacuum: true}
}

// IsVacuum returns true for materials built with Vacuum.
func (M *Material) IsVacuum() bool { return M != nil && M.vacuum }

func (M *Material) String() string {
	if M.vacuum {
		return M.Name
	}
	return fmt.Sprintf("%s (%s, %g g/cm3)", M.Name, M.formula(), M.Density)
}

func (M *Material) formula() string {
	parts := make([]string, 0, len(M.Composition))
	for _, z := range M.Elements() {
		parts = append(parts, fmt.Sprintf("Z%d:%.4g", z, M.Composition[z]))
	}
	return strings.Join(parts, " ")
}

// Elements returns the atomic numbers of the composition, in increasing order.
func (M *Material) Elements() []int {
	zs := make([]int, 0, len(M.Composition))
	for z := range M.Composition {
		zs = append(zs, z)
	}
	sort.Ints(zs)
	return zs
}

// Validate checks the material against the limits of the material program.
func (M *Material) Validate() error {
	if M.vacuum {
		return nil
	}
	if M.Name == "" || len(M.Name) > maxNameLen {
		return fmt.Errorf("%w: name %q must have 1 to %d characters", ErrDomain, M.Name, maxNameLen)
	}
	if len(M.Composition) == 0 {
		return fmt.Errorf("%w: %s has an empty composition", ErrDomain, M.Name)
	}
	for z, f := range M.Composition {
		if z < 1 || z > maxZ {
			return fmt.Errorf("%w: atomic number %d not in 1-%d", ErrDomain, z, maxZ)
		}
		if f <= 0 {
			return fmt.Errorf("%w: weight fraction of Z=%d must be positive, got %g", ErrDomain, z, f)
		}
	}
	if M.Density <= 0 {
		return fmt.Errorf("%w: density must be positive, got %g", ErrDomain, M.Density)
	}
	if M.MeanExcitationEnergy < 0 {
		return fmt.Errorf("%w: negative mean excitation energy", ErrDomain)
	}
	if M.Filename == "" || len(M.Filename) > maxFilenameLen {
		return fmt.Errorf("%w: file name %q must have 1 to %d characters", ErrDomain, M.Filename, maxFilenameLen)
	}
	return nil
}

func (M *Material) normalize() {
	zs := M.Elements()
	fr := make([]float64, len(zs))
	for i, z := range zs {
		fr[i] = M.Composition[z]
	}
	sum := floats.Sum(fr)
	for i, z := range zs {
		M.Composition[z] = fr[i] / sum
	}
}

// WriteInput writes the answers the material program expects on its standard
// input, one per line: composition mode, name, number of elements, the
// elements (and their weight fractions if there is more than one), mean
// excitation energy, density, conduction band oscillator and output file.
func (M *Material) WriteInput(w io.Writer) error {
	if M.vacuum {
		return fmt.Errorf("%w: vacuum has no material file", ErrDomain)
	}
	if err := M.Validate(); err != nil {
		return err
	}
	kw := keyword.NewWriter(w, nil)
	kw.WriteLine("1") //composition from the keyboard
	kw.WriteLine(M.Name)
	kw.WriteLine(strconv.Itoa(len(M.Composition)))
	zs := M.Elements()
	if len(zs) == 1 {
		kw.WriteLine(strconv.Itoa(zs[0]))
	} else {
		kw.WriteLine("2") //weight fractions
		for _, z := range zs {
			kw.WriteLine(fmt.Sprintf("%d %s", z, keyword.FormatValue(M.Composition[z])))
		}
	}
	if M.MeanExcitationEnergy > 0 {
		kw.WriteLine("1")
		kw.WriteLine(keyword.FormatValue(M.MeanExcitationEnergy))
	} else {
		kw.WriteLine("2")
	}
	kw.WriteLine(keyword.FormatValue(M.Density))
	if M.OscillatorStrength > 0 && M.PlasmonEnergy > 0 {
		kw.WriteLine("1")
		kw.WriteLine(keyword.FormatValue(M.OscillatorStrength) + " " + keyword.FormatValue(M.PlasmonEnergy))
	} else {
		kw.WriteLine("2")
	}
	return kw.WriteLine(M.Filename)
}
