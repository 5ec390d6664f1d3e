/*
 * summary.go, part of gopenelopetools.
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
	"io"
	"strconv"
	"strings"
)

// Summary holds the global results PENEPMA writes to penepma-res.dat.
type Summary struct {
	SimulationTime float64 //s
	Speed          float64 //showers/s
	Showers        float64 //simulated primary showers

	Upbound   float64 //primary particles leaving upwards
	Downbound float64
	Absorbed  float64

	Transmission    Uncertain //fractions of primary particles
	Backscattering  Uncertain
	Absorption      Uncertain
	LastRandomSeeds [2]int
}

//The labels are followed by a row of dots and the value.
var summaryValues = []struct {
	label string
	set   func(S *Summary, v []float64)
}{
	{"Simulation time", func(S *Summary, v []float64) { S.SimulationTime = v[0] }},
	{"Simulation speed", func(S *Summary, v []float64) { S.Speed = v[0] }},
	{"Simulated primary showers", func(S *Summary, v []float64) { S.Showers = v[0] }},
	{"Upbound primary particles", func(S *Summary, v []float64) { S.Upbound = v[0] }},
	{"Downbound primary particles", func(S *Summary, v []float64) { S.Downbound = v[0] }},
	{"Absorbed primary particles", func(S *Summary, v []float64) { S.Absorbed = v[0] }},
	{"Fractional transmission", func(S *Summary, v []float64) { S.Transmission = uncertain(v) }},
	{"Fractional backscattering", func(S *Summary, v []float64) { S.Backscattering = uncertain(v) }},
	{"Fractional absorption", func(S *Summary, v []float64) { S.Absorption = uncertain(v) }},
}

func uncertain(v []float64) Uncertain {
	if len(v) < 2 {
		return Uncertain{Value: v[0]}
	}
	return Uncertain{v[0], v[1]}
}

// ReadSummary reads a PENEPMA global report. It fails with ErrNotFound if the
// simulation time or the number of showers are not there, as happens with
// reports from runs that did not get to dump any result.
func ReadSummary(r io.Reader) (*Summary, error) {
	S := &Summary{}
	sc := newScanner(r)
	found := make(map[string]bool)
	for {
		line, ok := sc.scan()
		if !ok {
			break
		}
		text := strings.TrimSpace(line)
		if strings.HasPrefix(text, "Last random seeds") {
			_, rest, _ := strings.Cut(text, "=")
			v := strings.Fields(strings.ReplaceAll(rest, ",", " "))
			if len(v) != 2 {
				return nil, sc.errorf(ErrParse, "bad random seeds %q", rest)
			}
			for i := range v {
				n, err := strconv.Atoi(v[i])
				if err != nil {
					return nil, sc.errorf(ErrParse, "bad random seed %q", v[i])
				}
				S.LastRandomSeeds[i] = n
			}
			continue
		}
		for _, sv := range summaryValues {
			if !strings.HasPrefix(text, sv.label) {
				continue
			}
			v := FindValues(text[len(sv.label):])
			if len(v) == 0 {
				return nil, sc.errorf(ErrParse, "no value for %s", sv.label)
			}
			sv.set(S, v)
			found[sv.label] = true
			break
		}
	}
	if err := sc.sc.Err(); err != nil {
		return nil, err
	}
	for _, must := range []string{"Simulation time", "Simulated primary showers"} {
		if !found[must] {
			return nil, newError(ErrNotFound, "%s", must)
		}
	}
	return S, nil
}

// ReadSummaryFile reads a global report from the named file.
func ReadSummaryFile(name string) (*Summary, error) {
	return open(name, ReadSummary)
}
