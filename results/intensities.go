/*
 * intensities.go, part of gopenelopetools.
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

package results

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Intensity is the intensity of one characteristic line seen by a detector,
// in 1/(sr electron).
type Intensity struct {
	Z              int
	Shell0         string //the shell with the vacancy
	Shell1         string //the shell the electron comes from
	Energy         float64
	Primary        Uncertain //photons from electron interactions
	Characteristic Uncertain //fluorescence from characteristic x rays
	Bremsstrahlung Uncertain //fluorescence from bremsstrahlung
	Fluorescence   Uncertain //Characteristic + Bremsstrahlung
	Total          Uncertain //Primary + Fluorescence
}

// Line returns a name like "Z29 K-L3".
func (I Intensity) Line() string { return fmt.Sprintf("Z%d %s-%s", I.Z, I.Shell0, I.Shell1) }

// ReadIntensities reads the characteristic line intensities seen by a
// detector (pe-intens-NN.dat).
func ReadIntensities(r io.Reader) ([]Intensity, error) {
	var ret []Intensity
	sc := newScanner(r)
	for {
		line, ok := sc.scan()
		if !ok {
			break
		}
		text := strings.TrimSpace(line)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 14 {
			return nil, sc.errorf(ErrParse, "14 columns expected, found %d", len(f))
		}
		z, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, sc.errorf(ErrParse, "bad atomic number %q", f[0])
		}
		v := make([]float64, 0, 11)
		for _, s := range f[3:] {
			x, err := ParseValue(s)
			if err != nil {
				e := err.(*Error)
				e.line = sc.lineno
				return nil, e
			}
			v = append(v, x)
		}
		ret = append(ret, Intensity{
			Z:              z,
			Shell0:         f[1],
			Shell1:         f[2],
			Energy:         v[0],
			Primary:        Uncertain{v[1], v[2]},
			Characteristic: Uncertain{v[3], v[4]},
			Bremsstrahlung: Uncertain{v[5], v[6]},
			Fluorescence:   Uncertain{v[7], v[8]},
			Total:          Uncertain{v[9], v[10]},
		})
	}
	if err := sc.sc.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ReadIntensitiesFile reads line intensities from the named file.
func ReadIntensitiesFile(name string) ([]Intensity, error) {
	return open(name, ReadIntensities)
}
