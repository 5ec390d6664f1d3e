/*
 * exponent.go, part of gopenelopetools.
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
	"math"
	"regexp"
	"strconv"
	"strings"
)

//ExponentWidth is the width of every number in a geometry file.
const ExponentWidth = 22

// EncodeExponent writes v as the geometry reader expects it: sign, one digit,
// 15 decimals, E, sign and a two digit exponent, 22 characters in all.
func EncodeExponent(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", newError(ErrFormat, "%g can't be written", v)
	}
	exp := 0
	if v != 0 {
		exp = int(math.Floor(math.Log10(math.Abs(v))))
		if math.Abs(v/math.Pow10(exp)) < 1 {
			exp--
		}
	}
	mant := fmt.Sprintf("%+.15f", v/math.Pow10(exp))
	if strings.HasPrefix(mant[1:], "10.") { //rounding carried over
		exp++
		mant = fmt.Sprintf("%+.15f", v/math.Pow10(exp))
	}
	ret := fmt.Sprintf("%sE%+03d", mant, exp)
	if len(ret) != ExponentWidth {
		return "", newError(ErrFormat, "%g written as %q, %d characters instead of %d", v, ret, len(ret), ExponentWidth)
	}
	return ret, nil
}

// EncodeLine returns a numeric line, label right-justified in the first 8
// columns with the equal sign, the number and the empty substitution index:
//
//	X-SHIFT=(+1.000000000000000E+00,   0)              (DEFAULT=0.0)
func EncodeLine(label string, v float64, trailing string) (string, error) {
	if len(label) > 7 {
		return "", newError(ErrFormat, "label %q longer than 7 characters", label)
	}
	e, err := EncodeExponent(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%7s=(%s,%4d)%s", label, e, 0, trailing), nil
}

var numberLine = regexp.MustCompile(`^\s*([A-Z0-9-]+)\s*=\s*\(\s*([-+]?[0-9.]+(?:[EeDd]\s*[-+]?\s*\d+)?)\s*,\s*(\d+)\s*\)(.*)$`)

// DecodeLine is the inverse of EncodeLine. A non-zero substitution index
// returns ErrUnsupportedIndex.
func DecodeLine(line string) (label string, v float64, trailing string, err error) {
	m := numberLine.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return "", 0, "", newError(ErrParse, "not a numeric line: %q", line)
	}
	num := strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return -1
		case 'D', 'd':
			return 'E'
		}
		return r
	}, m[2])
	v, err = strconv.ParseFloat(num, 64)
	if err != nil {
		return "", 0, "", newError(ErrParse, "bad number %q in %q", m[2], line)
	}
	if strings.TrimLeft(m[3], "0") != "" {
		return "", 0, "", newError(ErrUnsupportedIndex, "index %s in %q", m[3], line)
	}
	return m[1], v, m[4], nil
}
