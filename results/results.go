/*
 * results.go, part of gopenelopetools.
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pymontecarlo/gopenelopetools/fileio"
)

var (
	ErrParse    = errors.New("unexpected report content")
	ErrNotFound = errors.New("value not found in report")
)

// Error is the error type of the results package.
type Error struct {
	kind     error
	message  string
	filename string
	line     int
	deco     []string
	critical bool
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), critical: true}
}

func (err *Error) Error() string {
	where := ""
	if err.filename != "" {
		where = " " + err.filename
	}
	if err.line > 0 {
		where += fmt.Sprintf(" line %d", err.line)
	}
	return fmt.Sprintf("results%s: %v: %s", where, err.kind, err.message)
}

func (err *Error) Unwrap() error { return err.kind }

// Decorate adds information to the error as it is passed up, and returns all
// the decorations so far.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *Error) FileName() string { return err.filename }

func (err *Error) Critical() bool { return err.critical }

//The reports write numbers like 1.23456E+02, 0.0E+00 or, for exponents over
//99, 1.23456+100.
var number = regexp.MustCompile(`[-+]?\d+\.\d*(?:[EeDd][-+]?\d+|[-+]\d{3})`)

// ParseValue reads a number as the PENELOPE programs write it.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !number.MatchString(s) || number.FindString(s) != s {
		return 0, newError(ErrParse, "%q is not a report number", s)
	}
	s = strings.NewReplacer("D", "E", "d", "E").Replace(s)
	if !strings.ContainsAny(s, "Ee") {
		//exponent with no E: the sign after the mantissa starts it
		i := strings.LastIndexAny(s, "+-")
		s = s[:i] + "E" + s[i:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newError(ErrParse, "%q: %v", s, err)
	}
	return v, nil
}

// FindValues returns every number in line, in order.
func FindValues(line string) []float64 {
	var ret []float64
	for _, s := range number.FindAllString(line, -1) {
		if v, err := ParseValue(s); err == nil {
			ret = append(ret, v)
		}
	}
	return ret
}

// Uncertain is a value with its statistical uncertainty, which the reports
// give as 3 standard deviations.
type Uncertain struct {
	Value       float64
	Uncertainty float64
}

func (U Uncertain) String() string { return fmt.Sprintf("%g +- %g", U.Value, U.Uncertainty) }

// scanner reads a report line by line.
type scanner struct {
	sc     *bufio.Scanner
	lineno int
}

func newScanner(r io.Reader) *scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &scanner{sc: sc}
}

func (S *scanner) scan() (string, bool) {
	if !S.sc.Scan() {
		return "", false
	}
	S.lineno++
	return strings.TrimRight(S.sc.Text(), "\r"), true
}

func (S *scanner) errorf(kind error, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.line = S.lineno
	return e
}

// open opens a report and hands it to read, filling in the file name of any
// error.
func open[T any](name string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := fileio.Open(name)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	ret, err := read(f)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.filename = name
		}
		return zero, err
	}
	return ret, nil
}
