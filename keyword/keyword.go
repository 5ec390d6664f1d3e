/*
 * keyword.go, part of gopenelopetools.
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
	"strings"
)

// Item is anything that takes part in a Document.
type Item interface {
	//Read consumes the item's lines if the next line belongs to it. If it
	//does not, Read leaves the item and the Reader untouched and returns nil.
	Read(r *Reader) error
	//Write emits the item's lines, possibly none.
	Write(w *Writer) error
}

// Keyword is the unit of serialization. It has three implementations:
// *Record, *Group and *Sequence.
type Keyword interface {
	Item
	Label() string
	Set(values ...any) error
	IsSet() bool
	Reset()
	Clone() Keyword
	keyword()
}

// Validator checks a full set of already coerced values. It is called before
// a Record is modified, so a rejection leaves the Record as it was.
type Validator func(values []any) error

// Record is a single typed line: a label, a fixed list of fields and a static
// comment. A Record whose values are unset writes nothing.
type Record struct {
	label     string
	comment   string
	fields    []Field
	values    []any
	validator Validator
}

// NewRecord returns an unset record. A record with no fields (like END) is
// always written.
func NewRecord(label, comment string, fields ...Field) *Record {
	return &Record{
		label:   strings.ToUpper(label),
		comment: comment,
		fields:  fields,
		values:  make([]any, len(fields)),
	}
}

// WithValidator sets the record's validation hook and returns the record.
func (R *Record) WithValidator(v Validator) *Record {
	R.validator = v
	return R
}

func (R *Record) keyword() {}

func (R *Record) Label() string { return R.label }

func (R *Record) Comment() string { return R.comment }

func (R *Record) Fields() []Field { return R.fields }

// IsSet returns true if every field holds a value.
func (R *Record) IsSet() bool {
	for _, v := range R.values {
		if v == nil {
			return false
		}
	}
	return true
}

// Get returns a copy of the values. Unset fields are nil.
func (R *Record) Get() []any {
	ret := make([]any, len(R.values))
	copy(ret, R.values)
	return ret
}

// Set assigns all the values of the record, converting each to its field type.
// On error the record is not modified.
func (R *Record) Set(values ...any) error {
	vals, err := R.check(values)
	if err != nil {
		return err
	}
	R.values = vals
	return nil
}

// Reset unsets all the values.
func (R *Record) Reset() {
	R.values = make([]any, len(R.fields))
}

// Clone returns an independent copy of the record.
func (R *Record) Clone() Keyword {
	c := *R
	c.values = R.Get()
	return &c
}

func (R *Record) check(values []any) ([]any, error) {
	if len(values) != len(R.fields) {
		return nil, newError(ErrType, R.label, "%d values given, %d expected", len(values), len(R.fields))
	}
	vals := make([]any, len(values))
	for i, f := range R.fields {
		if values[i] == nil {
			return nil, newError(ErrType, R.label, "field %s is nil", f.Name)
		}
		v, err := f.coerce(values[i], i == len(R.fields)-1)
		if err != nil {
			return nil, withLabel(err, R.label)
		}
		vals[i] = v
	}
	if R.validator != nil {
		if err := R.validator(vals); err != nil {
			var e *Error
			if errors.As(err, &e) {
				return nil, withLabel(err, R.label)
			}
			return nil, &Error{kind: ErrDomain, label: R.label, message: err.Error(), critical: true}
		}
	}
	return vals, nil
}

//strings returns the formatted values.
func (R *Record) strings(idx IndexTable) ([]string, error) {
	ret := make([]string, len(R.values))
	for i, f := range R.fields {
		s, err := f.format(R.values[i], idx)
		if err != nil {
			return nil, withLabel(err, R.label)
		}
		ret[i] = s
	}
	return ret, nil
}

// Line returns the text of the record's line. The record must be set.
func (R *Record) Line(F Format, idx IndexTable) (string, error) {
	vals, err := R.strings(idx)
	if err != nil {
		return "", err
	}
	line, err := F.Encode(R.label, vals, R.comment)
	if err != nil {
		return "", withLabel(err, R.label)
	}
	return line, nil
}

// Write emits the record's line, or nothing if the record is unset.
func (R *Record) Write(w *Writer) error {
	if !R.IsSet() {
		return nil
	}
	line, err := R.Line(w.Format, w.Index)
	if err != nil {
		return err
	}
	return w.WriteLine(line)
}

// Read consumes the next line if it carries the record's label.
func (R *Record) Read(r *Reader) error {
	label, err := r.peekLabel()
	if err != nil {
		return err
	}
	if label != R.label {
		return nil
	}
	l, _ := r.Peek()
	vals, err := R.parse(l, r.Index)
	if err != nil {
		return atLine(err, l.Number)
	}
	if vals, err = R.check(vals); err != nil {
		return atLine(err, l.Number)
	}
	R.values = vals
	_, err = r.Next()
	return err
}

func (R *Record) parse(l *Line, idx IndexTable) ([]any, error) {
	n := len(R.fields)
	tokens := l.Values
	//the last string field takes the rest of the line, blanks included
	if n > 0 && len(tokens) > n && R.fields[n-1].Kind == StringKind {
		tokens = append(tokens[:n-1:n-1], rest(l.Text, n))
	}
	if len(tokens) != n {
		return nil, newError(ErrParse, R.label, "%d values found, %d expected", len(tokens), n)
	}
	vals := make([]any, n)
	for i, f := range R.fields {
		v, err := f.parse(tokens[i], idx)
		if err != nil {
			return nil, withLabel(err, R.label)
		}
		vals[i] = v
	}
	return vals, nil
}

//rest returns text without its comment and its first skip blank-separated
//tokens. The blanks inside what is left are kept.
func rest(text string, skip int) string {
	if i := strings.IndexByte(text, '['); i >= 0 {
		text = text[:i]
	}
	s := strings.TrimLeft(text, " \t")
	for ; skip > 0; skip-- {
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			return ""
		}
		s = strings.TrimLeft(s[i:], " \t")
	}
	return strings.TrimRight(s, " \t")
}

func withLabel(err error, label string) error {
	var e *Error
	if errors.As(err, &e) && e.label == "" {
		e.label = label
	}
	return err
}

func atLine(err error, n int) error {
	var e *Error
	if errors.As(err, &e) && e.line == 0 {
		e.line = n
	}
	return err
}

// NewEnd returns the END record that closes input files.
func NewEnd() *Record {
	return NewRecord("END", "Ends the reading of input data")
}
