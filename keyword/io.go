/*
 * io.go, part of gopenelopetools.
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
	"bufio"
	"io"
	"runtime"
	"strings"
)

// Ref is implemented by values stored in reference fields, typically the
// handles of geometry elements.
type Ref interface {
	RefKind() string
}

// IndexTable maps references to the integers written in the files, and back.
type IndexTable interface {
	Index(r Ref) (int, error)
	Lookup(kind string, index int) (Ref, error)
}

// Line is a keyword line as seen by a Reader.
type Line struct {
	Label   string
	Values  []string
	Comment string
	Text    string
	Number  int
}

// Reader reads keyword lines one at a time, with one line of look-ahead. Blank
// lines and indented comment lines are skipped.
type Reader struct {
	Index  IndexTable
	Format Format
	sc     *bufio.Scanner
	peeked *Line
	last   string //label of the last line consumed
	lineno int
	err    error
}

// NewReader returns a Reader on r for input files. idx can be nil if no
// keyword read holds references.
func NewReader(r io.Reader, idx IndexTable) *Reader {
	return &Reader{Index: idx, Format: InputFormat, sc: bufio.NewScanner(r)}
}

// Peek returns the next keyword line without consuming it. It returns io.EOF
// when there are no more keyword lines.
func (R *Reader) Peek() (*Line, error) {
	if R.peeked != nil {
		return R.peeked, nil
	}
	if R.err != nil {
		return nil, R.err
	}
	for R.sc.Scan() {
		R.lineno++
		text := R.sc.Text()
		label, values, comment, ok := R.Format.Decode(text)
		if !ok {
			continue
		}
		R.peeked = &Line{Label: label, Values: values, Comment: comment, Text: strings.TrimRight(text, "\r"), Number: R.lineno}
		return R.peeked, nil
	}
	R.err = R.sc.Err()
	if R.err == nil {
		R.err = io.EOF
	}
	return nil, R.err
}

// Next returns the next keyword line and consumes it.
func (R *Reader) Next() (*Line, error) {
	l, err := R.Peek()
	if err != nil {
		return nil, err
	}
	R.peeked = nil
	R.last = l.Label
	return l, nil
}

//peekLabel returns the label of the next line, or "" at the end of the input.
func (R *Reader) peekLabel() (string, error) {
	l, err := R.Peek()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return l.Label, nil
}

// Writer writes keyword lines, each terminated by Newline.
type Writer struct {
	Index   IndexTable
	Format  Format
	Newline string
	w       io.Writer
	err     error
}

// NewWriter returns a Writer on w for input files, using the platform's line
// separator.
func NewWriter(w io.Writer, idx IndexTable) *Writer {
	nl := "\n"
	if runtime.GOOS == "windows" {
		nl = "\r\n"
	}
	return &Writer{Index: idx, Format: InputFormat, Newline: nl, w: w}
}

// WriteLine writes one line. After the first failure all writes are no-ops
// returning the same error.
func (W *Writer) WriteLine(line string) error {
	if W.err != nil {
		return W.err
	}
	_, W.err = io.WriteString(W.w, line+W.Newline)
	return W.err
}

// Encode writes the line built by the Writer's Format.
func (W *Writer) Encode(label string, values []string, comment string) error {
	line, err := W.Format.Encode(label, values, comment)
	if err != nil {
		return err
	}
	return W.WriteLine(line)
}
