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

package keyword

import (
	"errors"
	"fmt"
	"strings"
)

//Sentinel errors. Every *Error returned by this package unwraps to one of them,
//so callers can use errors.Is to tell format problems from domain problems.
var (
	ErrLineTooLong = errors.New("line exceeds the column budget")
	ErrType        = errors.New("value of the wrong type")
	ErrDomain      = errors.New("value out of domain")
	ErrCapacity    = errors.New("maximum number of occurrences reached")
	ErrParse       = errors.New("unexpected input")
	ErrUnresolved  = errors.New("reference not in index table")
)

// Error is the error type for the keyword package. It keeps the label of the
// keyword involved and, when reading, the offending line.
type Error struct {
	kind     error
	message  string
	label    string
	line     int //0 if not reading
	deco     []string
	critical bool
}

func newError(kind error, label string, format string, args ...any) *Error {
	return &Error{kind: kind, label: label, message: fmt.Sprintf(format, args...), critical: true}
}

func (err *Error) Error() string {
	var b strings.Builder
	b.WriteString("keyword")
	if err.label != "" {
		b.WriteString(" " + err.label)
	}
	if err.line > 0 {
		fmt.Fprintf(&b, " (line %d)", err.line)
	}
	b.WriteString(": " + err.kind.Error())
	if err.message != "" {
		b.WriteString(": " + err.message)
	}
	return b.String()
}

func (err *Error) Unwrap() error { return err.kind }

// Decorate adds information to the error as it travels up the stack, and returns
// all the decorations so far. An empty string only returns the current ones.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Critical is true for every error in this package. Nothing here is retried.
func (err *Error) Critical() bool { return err.critical }

// Label returns the label of the keyword that failed, if any.
func (err *Error) Label() string { return err.label }

// Line returns the line number where a read failed, or 0.
func (err *Error) Line() int { return err.line }

func decorate(err error, deco string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(deco)
	}
	return err
}
