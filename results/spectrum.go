/*
 * spectrum.go, part of gopenelopetools.
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
	"image/color"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Spectrum is the emitted photon spectrum seen by one detector
// (pe-spect-NN.dat). Intensities are probability densities, in
// 1/(eV sr electron).
type Spectrum struct {
	Detector    int
	Header      []string //the comment lines, without the leading #
	Energy      []float64
	Intensity   []float64
	Uncertainty []float64
}

var detectorNumber = regexp.MustCompile(`detector\s*#\s*(\d+)`)

// ReadSpectrum reads a spectrum: comment lines starting with #, then three
// columns, energy, intensity and uncertainty.
func ReadSpectrum(r io.Reader) (*Spectrum, error) {
	S := &Spectrum{}
	sc := newScanner(r)
	for {
		line, ok := sc.scan()
		if !ok {
			break
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			h := strings.TrimSpace(strings.TrimPrefix(text, "#"))
			S.Header = append(S.Header, h)
			if m := detectorNumber.FindStringSubmatch(h); m != nil && S.Detector == 0 {
				S.Detector, _ = strconv.Atoi(m[1])
			}
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, sc.errorf(ErrParse, "3 columns expected, found %d", len(fields))
		}
		var v [3]float64
		for i := range v {
			var err error
			if v[i], err = ParseValue(fields[i]); err != nil {
				e := err.(*Error)
				e.line = sc.lineno
				return nil, e
			}
		}
		if n := len(S.Energy); n > 0 && v[0] < S.Energy[n-1] {
			return nil, sc.errorf(ErrParse, "energy %g after %g", v[0], S.Energy[n-1])
		}
		S.Energy = append(S.Energy, v[0])
		S.Intensity = append(S.Intensity, v[1])
		S.Uncertainty = append(S.Uncertainty, v[2])
	}
	if err := sc.sc.Err(); err != nil {
		return nil, err
	}
	if len(S.Energy) == 0 {
		return nil, newError(ErrNotFound, "no spectrum data")
	}
	return S, nil
}

// ReadSpectrumFile reads a spectrum from the named file.
func ReadSpectrumFile(name string) (*Spectrum, error) {
	return open(name, ReadSpectrum)
}

// Len returns the number of channels.
func (S *Spectrum) Len() int { return len(S.Energy) }

// Integrate returns the integral of the intensity between emin and emax
// (eV), with the trapezoidal rule over the channels in that window.
func (S *Spectrum) Integrate(emin, emax float64) float64 {
	lo := sort.SearchFloat64s(S.Energy, emin)
	hi := sort.SearchFloat64s(S.Energy, emax)
	if hi < len(S.Energy) && S.Energy[hi] == emax {
		hi++
	}
	if hi-lo < 2 {
		return 0
	}
	return integrate.Trapezoidal(S.Energy[lo:hi], S.Intensity[lo:hi])
}

// Plot renders the spectrum, with a log scale for the intensity if logy is
// true. Channels with no intensity are left out of log plots.
func (S *Spectrum) Plot(title string, logy bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Energy (eV)"
	p.Y.Label.Text = "Intensity (1/(eV sr electron))"
	pts := make(plotter.XYs, 0, len(S.Energy))
	for i, e := range S.Energy {
		if logy && S.Intensity[i] <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: e, Y: S.Intensity[i]})
	}
	if logy {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(plotter.NewGrid())
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, newError(ErrParse, "can't plot %s: %v", title, err)
	}
	l.LineStyle.Color = color.RGBA{B: 255, A: 255}
	l.LineStyle.Width = vg.Points(1)
	p.Add(l)
	return p, nil
}

// PlotSpectrum saves a plot of the spectrum to filename. The extension of
// filename (png, svg, pdf...) sets the format.
func PlotSpectrum(S *Spectrum, title, filename string, logy bool) error {
	p, err := S.Plot(title, logy)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}
