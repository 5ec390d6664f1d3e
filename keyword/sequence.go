/*
 * sequence.go, part of gopenelopetools.
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

// Sequence holds from zero up to a maximum number of occurrences of a
// keyword. Each occurrence is an independent clone of the prototype.
type Sequence struct {
	prototype Keyword
	max       int
	items     []Keyword
}

// NewSequence returns an empty sequence of copies of prototype, which must be
// a *Record or a *Group. max is the capacity of the external program.
func NewSequence(prototype Keyword, max int) *Sequence {
	if _, ok := prototype.(*Sequence); ok {
		panic("keyword.NewSequence: sequences can't be nested")
	}
	p := prototype.Clone()
	p.Reset()
	return &Sequence{prototype: p, max: max}
}

func (S *Sequence) keyword() {}

func (S *Sequence) Label() string { return S.prototype.Label() }

// Max returns the capacity of the sequence.
func (S *Sequence) Max() int { return S.max }

// Len returns the number of occurrences.
func (S *Sequence) Len() int { return len(S.items) }

// IsSet returns true if there is at least one occurrence.
func (S *Sequence) IsSet() bool { return len(S.items) > 0 }

// Items returns the occurrences, in insertion order.
func (S *Sequence) Items() []Keyword {
	ret := make([]Keyword, len(S.items))
	copy(ret, S.items)
	return ret
}

// Get returns the values of each occurrence.
func (S *Sequence) Get() [][]any {
	ret := make([][]any, 0, len(S.items))
	for _, it := range S.items {
		ret = append(ret, values(it))
	}
	return ret
}

func values(k Keyword) []any {
	switch t := k.(type) {
	case *Record:
		return t.Get()
	case *Group:
		return t.Get()
	}
	return nil
}

// Add appends a new occurrence with the given values.
func (S *Sequence) Add(values ...any) error {
	if len(S.items) >= S.max {
		return newError(ErrCapacity, S.Label(), "at most %d occurrences", S.max)
	}
	k := S.prototype.Clone()
	if err := k.Set(values...); err != nil {
		return err
	}
	S.items = append(S.items, k)
	return nil
}

// Set replaces all the occurrences. Each argument must be a []any with the
// values of one occurrence. On error the sequence is not modified.
func (S *Sequence) Set(occurrences ...any) error {
	if len(occurrences) > S.max {
		return newError(ErrCapacity, S.Label(), "%d occurrences given, at most %d", len(occurrences), S.max)
	}
	items := make([]Keyword, 0, len(occurrences))
	for i, o := range occurrences {
		vals, ok := o.([]any)
		if !ok {
			return newError(ErrType, S.Label(), "occurrence %d is a %T, not a []any", i, o)
		}
		k := S.prototype.Clone()
		if err := k.Set(vals...); err != nil {
			return err
		}
		items = append(items, k)
	}
	S.items = items
	return nil
}

// Pop removes the occurrence at index i.
func (S *Sequence) Pop(i int) error {
	if i < 0 || i >= len(S.items) {
		return newError(ErrDomain, S.Label(), "no occurrence %d, there are %d", i, len(S.items))
	}
	S.items = append(S.items[:i], S.items[i+1:]...)
	return nil
}

// Clear removes all the occurrences.
func (S *Sequence) Clear() { S.items = nil }

func (S *Sequence) Reset() { S.Clear() }

func (S *Sequence) Clone() Keyword {
	c := &Sequence{prototype: S.prototype.Clone(), max: S.max}
	for _, it := range S.items {
		c.items = append(c.items, it.Clone())
	}
	return c
}

func (S *Sequence) Write(w *Writer) error {
	for _, it := range S.items {
		if err := it.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// Read appends one occurrence per consecutive group of lines carrying the
// prototype's label.
func (S *Sequence) Read(r *Reader) error {
	for {
		label, err := r.peekLabel()
		if err != nil {
			return err
		}
		if label != S.Label() {
			return nil
		}
		if len(S.items) >= S.max {
			l, _ := r.Peek()
			e := newError(ErrCapacity, S.Label(), "at most %d occurrences", S.max)
			e.line = l.Number
			return e
		}
		k := S.prototype.Clone()
		if err := k.Read(r); err != nil {
			return err
		}
		S.items = append(S.items, k)
	}
}
