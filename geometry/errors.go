/*
 * errors.go, part of gopenelopetools.
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
	"errors"
	"fmt"
)

var (
	ErrFormat           = errors.New("fixed-format violation")
	ErrUnsupportedIndex = errors.New("parameter substitution index not supported")
	ErrParse            = errors.New("unexpected geometry input")
	ErrCycle            = errors.New("module would contain itself")
	ErrDomain           = errors.New("value out of domain")
	ErrUnknown          = errors.New("unknown geometry element")
)

// Error is the error type of the geometry package.
type Error struct {
	kind     error
	message  string
	filename string //the file with problems, or empty string if none.
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
	return fmt.Sprintf("geometry%s: %v: %s", where, err.kind, err.message)
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

func (err *Error) Format() string { return "pengeom" }

func (err *Error) Critical() bool { return err.critical }
