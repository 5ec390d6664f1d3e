/*
 * input.go, part of gopenelopetools.
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

package penepma

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pymontecarlo/gopenelopetools/fileio"
	"github.com/pymontecarlo/gopenelopetools/geometry"
	"github.com/pymontecarlo/gopenelopetools/keyword"
)

//Capacities of the program, from its dimension statements.
const (
	MaxMaterials = 10
	MaxBodies    = 5000
	MaxDetectors = 25
	MaxFileName  = 20
	maxTitle     = 65
)

// ErrMissing is returned by Check for mandatory keywords left unset.
var ErrMissing = errors.New("penepma: mandatory keyword not set")

func within(name string, v, min, max float64) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be in [%g, %g], got %g", name, min, max, v)
	}
	return nil
}

func ordered(name string, low, high float64) error {
	if low > high {
		return fmt.Errorf("%s: lower limit %g above upper limit %g", name, low, high)
	}
	return nil
}

// Input is a PENEPMA input file. Each field is a keyword, set through its Set
// (or Add, for sequences) method. Module references (DSMAX, EABSB and IFORCE)
// take geometry.ModuleID values and are written with the geometry's Index.
type Input struct {
	Title *keyword.Record //TITLE

	Energy    *keyword.Record //SENERG energy (eV)
	Position  *keyword.Record //SPOSIT x y z (cm)
	Direction *keyword.Record //SDIREC theta phi (deg)
	Aperture  *keyword.Record //SAPERT aperture (deg)

	//MFNAME filename, then MSIMPA eabs1 eabs2 eabs3 c1 c2 wcc wcr. The n-th
	//material is material n in the geometry file.
	Materials *keyword.Sequence

	GeometryFile    *keyword.Record   //GEOMFN
	StepLengths     *keyword.Sequence //DSMAX module dsmax (cm)
	LocalAbsorption *keyword.Sequence //EABSB module eabs1 eabs2 eabs3 (eV)

	//IFORCE module kpar icol forcer wlow whig
	Forcing *keyword.Sequence

	EnergyBins *keyword.Record //NBE emin emax nbins
	AngleBins  *keyword.Record //NBANGL ntheta nphi

	//PDANGL theta1 theta2 phi1 phi2 ipsf, then PDENER emin emax nchannels.
	Detectors *keyword.Sequence

	GridX    *keyword.Record //GRIDX xmin xmax nx
	GridY    *keyword.Record //GRIDY ymin ymax ny
	GridZ    *keyword.Record //GRIDZ zmin zmax nz
	XRayGrid *keyword.Record //XRAYE emin emax

	Resume        *keyword.Record //RESUME dump file
	DumpTo        *keyword.Record //DUMPTO dump file
	DumpPeriod    *keyword.Record //DUMPP period (s)
	Seeds         *keyword.Record //RSEED seed1 seed2
	ReferenceLine *keyword.Record //REFLIN code detector tolerance
	Showers       *keyword.Record //NSIMSH
	Time          *keyword.Record //TIME (s)
	End           *keyword.Record

	doc *keyword.Document
}

func fileName(name string) keyword.Field { return keyword.String(name, MaxFileName) }

func grid(label, axis string) *keyword.Record {
	return keyword.NewRecord(label, fmt.Sprintf("%s coords of the box vertices, no. of bins", axis),
		keyword.Float(axis+"min"), keyword.Float(axis+"max"), keyword.PositiveInt("n"+axis)).
		WithValidator(func(v []any) error {
			return ordered(label, v[0].(float64), v[1].(float64))
		})
}

// NewInput returns an input with every keyword unset.
func NewInput() *Input {
	I := &Input{}
	I.Title = keyword.NewRecord("TITLE", "", keyword.String("title", maxTitle))

	I.Energy = keyword.NewRecord("SENERG", "Energy of the electron beam, in eV", keyword.PositiveFloat("energy")).
		WithValidator(func(v []any) error { return within("energy", v[0].(float64), 50, 1e9) })
	I.Position = keyword.NewRecord("SPOSIT", "Coordinates of the electron source",
		keyword.Float("x"), keyword.Float("y"), keyword.Float("z"))
	I.Direction = keyword.NewRecord("SDIREC", "Direction angles of the beam axis, in deg",
		keyword.Float("theta"), keyword.Float("phi")).
		WithValidator(func(v []any) error {
			if err := within("theta", v[0].(float64), 0, 180); err != nil {
				return err
			}
			return within("phi", v[1].(float64), 0, 360)
		})
	I.Aperture = keyword.NewRecord("SAPERT", "Beam aperture, in deg", keyword.Float("aperture")).
		WithValidator(func(v []any) error { return within("aperture", v[0].(float64), 0, 180) })

	mfname := keyword.NewRecord("MFNAME", "Material file, up to 20 chars", fileName("filename"))
	msimpa := keyword.NewRecord("MSIMPA", "EABS(1:3),C1,C2,WCC,WCR",
		keyword.PositiveFloat("eabs1"), keyword.PositiveFloat("eabs2"), keyword.PositiveFloat("eabs3"),
		keyword.Float("c1"), keyword.Float("c2"), keyword.Float("wcc"), keyword.Float("wcr")).
		WithValidator(func(v []any) error {
			if err := within("c1", v[3].(float64), 0, 0.2); err != nil {
				return err
			}
			if err := within("c2", v[4].(float64), 0, 0.2); err != nil {
				return err
			}
			if v[5].(float64) < 0 {
				return fmt.Errorf("wcc must not be negative, got %g", v[5])
			}
			return nil
		})
	I.Materials = keyword.NewSequence(keyword.NewGroup(mfname, msimpa), MaxMaterials)

	I.GeometryFile = keyword.NewRecord("GEOMFN", "Geometry file, up to 20 chars", fileName("filename"))
	I.StepLengths = keyword.NewSequence(keyword.NewRecord("DSMAX", "KB, maximum step length (cm) in body KB",
		keyword.Reference("module", geometry.ModuleRef), keyword.PositiveFloat("dsmax")), MaxBodies)
	I.LocalAbsorption = keyword.NewSequence(keyword.NewRecord("EABSB", "KB, local absorption energies, EABSB(1:3)",
		keyword.Reference("module", geometry.ModuleRef),
		keyword.PositiveFloat("eabs1"), keyword.PositiveFloat("eabs2"), keyword.PositiveFloat("eabs3")), MaxBodies)

	iforce := keyword.NewRecord("IFORCE", "KB,KPAR,ICOL,FORCER,WLOW,WHIG",
		keyword.Reference("module", geometry.ModuleRef), keyword.Enum("kpar", 1, 2, 3), keyword.Int("icol"),
		keyword.Float("forcer"), keyword.Float("wlow"), keyword.Float("whig")).
		WithValidator(func(v []any) error {
			if icol := v[2].(int); icol < 1 || icol > 8 {
				return fmt.Errorf("icol must be in [1, 8], got %d", icol)
			}
			if v[4].(float64) < 0 {
				return fmt.Errorf("wlow must not be negative, got %g", v[4])
			}
			return ordered("weight window", v[4].(float64), v[5].(float64))
		})
	I.Forcing = keyword.NewSequence(iforce, MaxBodies)

	I.EnergyBins = keyword.NewRecord("NBE", "E-interval and no. of energy bins",
		keyword.Float("emin"), keyword.Float("emax"), keyword.PositiveInt("nbins")).
		WithValidator(func(v []any) error { return ordered("energy interval", v[0].(float64), v[1].(float64)) })
	I.AngleBins = keyword.NewRecord("NBANGL", "No. of bins for the angles THETA and PHI",
		keyword.PositiveInt("ntheta"), keyword.PositiveInt("nphi"))

	pdangl := keyword.NewRecord("PDANGL", "Angular window, in deg, IPSF",
		keyword.Float("theta1"), keyword.Float("theta2"), keyword.Float("phi1"), keyword.Float("phi2"),
		keyword.Enum("ipsf", 0, 1)).
		WithValidator(func(v []any) error {
			t1, t2, p1, p2 := v[0].(float64), v[1].(float64), v[2].(float64), v[3].(float64)
			if err := within("theta1", t1, 0, 180); err != nil {
				return err
			}
			if err := within("theta2", t2, 0, 180); err != nil {
				return err
			}
			if err := ordered("theta window", t1, t2); err != nil {
				return err
			}
			if err := within("phi1", p1, 0, 360); err != nil {
				return err
			}
			if err := within("phi2", p2, 0, 360); err != nil {
				return err
			}
			return ordered("phi window", p1, p2)
		})
	pdener := keyword.NewRecord("PDENER", "Energy window, no. of channels",
		keyword.Float("emin"), keyword.Float("emax"), keyword.PositiveInt("nchannels")).
		WithValidator(func(v []any) error {
			if v[0].(float64) < 0 {
				return fmt.Errorf("emin must not be negative, got %g", v[0])
			}
			return ordered("energy window", v[0].(float64), v[1].(float64))
		})
	I.Detectors = keyword.NewSequence(keyword.NewGroup(pdangl, pdener), MaxDetectors)

	I.GridX = grid("GRIDX", "x")
	I.GridY = grid("GRIDY", "y")
	I.GridZ = grid("GRIDZ", "z")
	I.XRayGrid = keyword.NewRecord("XRAYE", "Energy interval where x-rays are tallied",
		keyword.Float("emin"), keyword.Float("emax")).
		WithValidator(func(v []any) error { return ordered("energy interval", v[0].(float64), v[1].(float64)) })

	I.Resume = keyword.NewRecord("RESUME", "Resume from this dump file, 20 chars", fileName("filename"))
	I.DumpTo = keyword.NewRecord("DUMPTO", "Generate this dump file, 20 chars", fileName("filename"))
	I.DumpPeriod = keyword.NewRecord("DUMPP", "Dumping period, in sec", keyword.PositiveFloat("period"))
	I.Seeds = keyword.NewRecord("RSEED", "Seeds of the random-number generator", keyword.Int("seed1"), keyword.Int("seed2"))
	I.ReferenceLine = keyword.NewRecord("REFLIN", "IZ*1e6+S1*1e4+S2*100,detector,tolerance",
		keyword.PositiveInt("code"), keyword.PositiveInt("detector"), keyword.PositiveFloat("tolerance")).
		WithValidator(func(v []any) error {
			if d := v[1].(int); d > MaxDetectors {
				return fmt.Errorf("detector %d above the %d available", d, MaxDetectors)
			}
			return nil
		})
	I.Showers = keyword.NewRecord("NSIMSH", "Desired number of simulated showers", keyword.PositiveFloat("showers"))
	I.Time = keyword.NewRecord("TIME", "Allotted simulation time, in sec", keyword.PositiveFloat("time"))
	I.End = keyword.NewEnd()

	I.doc = keyword.NewDocument(
		I.Title,
		keyword.Separator("Electron beam definition."),
		I.Energy, I.Position, I.Direction, I.Aperture,
		keyword.Separator("Material data and simulation parameters."),
		I.Materials,
		keyword.Separator("Geometry and local simulation parameters."),
		I.GeometryFile, I.StepLengths, I.LocalAbsorption,
		keyword.Separator("Interaction forcing."),
		I.Forcing,
		keyword.Separator("Emerging particles. Energy and angular distributions."),
		I.EnergyBins, I.AngleBins,
		keyword.Separator("Photon detectors (up to 25 different detectors)."),
		I.Detectors,
		keyword.Separator("Spatial distribution of x-ray emission."),
		I.GridX, I.GridY, I.GridZ, I.XRayGrid,
		keyword.Separator("Job properties."),
		I.Resume, I.DumpTo, I.DumpPeriod, I.Seeds, I.ReferenceLine, I.Showers, I.Time,
		I.End,
	)
	return I
}

// Document returns the keywords of the input, with their separators, in the
// order PENEPMA reads them.
func (I *Input) Document() *keyword.Document { return I.doc }

// Check returns ErrMissing if a keyword PENEPMA can't do without is unset.
func (I *Input) Check() error {
	var missing []string
	for _, k := range []keyword.Keyword{I.Title, I.Energy, I.Materials, I.GeometryFile, I.Detectors} {
		if !k.IsSet() {
			missing = append(missing, k.Label())
		}
	}
	if !I.Showers.IsSet() && !I.Time.IsSet() {
		missing = append(missing, "NSIMSH or TIME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Write writes the input file. idx resolves module references, and is
// usually the one returned by geometry's Write.
func (I *Input) Write(w io.Writer, idx keyword.IndexTable) error {
	return I.doc.Encode(w, idx)
}

// Read reads an input file, setting the keywords found in it.
func (I *Input) Read(r io.Reader, idx keyword.IndexTable) error {
	return I.doc.Decode(r, idx)
}

// WriteFile writes the input to the named file.
func (I *Input) WriteFile(name string, idx keyword.IndexTable) error {
	f, err := fileio.Create(name)
	if err != nil {
		return err
	}
	if err = I.Write(f, idx); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the input from the named file, which may be compressed.
func ReadFile(name string, idx keyword.IndexTable) (*Input, error) {
	f, err := fileio.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	I := NewInput()
	if err = I.Read(f, idx); err != nil {
		return nil, err
	}
	return I, nil
}
