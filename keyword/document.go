/*
 * document.go, part of gopenelopetools.
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
	"bytes"
	"io"
)

// Separator is a cosmetic banner between sections of an input file. It is
// always written and ignored on read.
type Separator string

func (S Separator) Read(r *Reader) error { return nil }

func (S Separator) Write(w *Writer) error {
	return w.WriteLine(indentedComment + ">>>>>>>> " + string(S))
}

// Document is an ordered list of keywords and separators. The order is the one
// the external program reads its input in.
type Document struct {
	items []Item
}

// NewDocument returns a document with the given items, in order.
func NewDocument(items ...Item) *Document {
	return &Document{items: items}
}

// Append adds items at the end of the document.
func (D *Document) Append(items ...Item) {
	D.items = append(D.items, items...)
}

// Items returns the items of the document, separators included.
func (D *Document) Items() []Item {
	ret := make([]Item, len(D.items))
	copy(ret, D.items)
	return ret
}

// Keywords returns the keywords of the document, in order.
func (D *Document) Keywords() []Keyword {
	ret := make([]Keyword, 0, len(D.items))
	for _, it := range D.items {
		if k, ok := it.(Keyword); ok {
			ret = append(ret, k)
		}
	}
	return ret
}

// Read gives each item, in order, the chance to consume the next lines. Absent
// keywords are left untouched. A keyword line that no item consumed before END
// is an ErrParse error.
func (D *Document) Read(r *Reader) error {
	for _, it := range D.items {
		if err := it.Read(r); err != nil {
			return decorate(err, "Document.Read")
		}
	}
	//a line left over is unknown or out of order
	if r.last == "END" {
		return nil
	}
	l, err := r.Peek()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return decorate(err, "Document.Read")
	}
	e := newError(ErrParse, l.Label, "unknown or misplaced keyword")
	e.line = l.Number
	return decorate(e, "Document.Read")
}

// Write emits every item in order.
func (D *Document) Write(w *Writer) error {
	for _, it := range D.items {
		if err := it.Write(w); err != nil {
			return decorate(err, "Document.Write")
		}
	}
	return nil
}

// Encode writes the document to w with the input file layout.
func (D *Document) Encode(w io.Writer, idx IndexTable) error {
	return D.Write(NewWriter(w, idx))
}

// Decode reads the document from r with the input file layout.
func (D *Document) Decode(r io.Reader, idx IndexTable) error {
	return D.Read(NewReader(r, idx))
}

// String returns the text of the document, or the empty string if it can't be
// written.
func (D *Document) String() string {
	var b bytes.Buffer
	if err := D.Encode(&b, nil); err != nil {
		return ""
	}
	return b.String()
}
