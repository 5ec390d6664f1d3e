/*
 * group.go, part of gopenelopetools.
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

import "io"

// Group is a set of records that are always read and written together, in
// order, such as a file name followed by the parameters that go with it.
type Group struct {
	members []*Record
}

// NewGroup returns a group of the given records. The group's label is the
// label of its first member.
func NewGroup(members ...*Record) *Group {
	if len(members) == 0 {
		panic("keyword.NewGroup: a group needs at least one member")
	}
	return &Group{members: members}
}

func (G *Group) keyword() {}

func (G *Group) Label() string { return G.members[0].label }

// Members returns the records of the group.
func (G *Group) Members() []*Record { return G.members }

// IsSet returns true if all the members are set.
func (G *Group) IsSet() bool {
	for _, m := range G.members {
		if !m.IsSet() {
			return false
		}
	}
	return true
}

// Get returns the values of all the members, concatenated.
func (G *Group) Get() []any {
	ret := make([]any, 0, G.nfields())
	for _, m := range G.members {
		ret = append(ret, m.Get()...)
	}
	return ret
}

func (G *Group) nfields() int {
	n := 0
	for _, m := range G.members {
		n += len(m.fields)
	}
	return n
}

// Set takes the values of all the members, in order. Every member is checked
// before any of them is modified.
func (G *Group) Set(values ...any) error {
	if len(values) != G.nfields() {
		return newError(ErrType, G.Label(), "%d values given, %d expected", len(values), G.nfields())
	}
	checked := make([][]any, len(G.members))
	start := 0
	for i, m := range G.members {
		n := len(m.fields)
		vals, err := m.check(values[start : start+n])
		if err != nil {
			return decorate(err, "group "+G.Label())
		}
		checked[i] = vals
		start += n
	}
	for i, m := range G.members {
		m.values = checked[i]
	}
	return nil
}

func (G *Group) Reset() {
	for _, m := range G.members {
		m.Reset()
	}
}

func (G *Group) Clone() Keyword {
	members := make([]*Record, len(G.members))
	for i, m := range G.members {
		members[i] = m.Clone().(*Record)
	}
	return &Group{members: members}
}

// Write emits the members' lines. A group is written whole or not at all.
func (G *Group) Write(w *Writer) error {
	if !G.IsSet() {
		return nil
	}
	for _, m := range G.members {
		if err := m.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// Read consumes the group if the next line carries the label of the first
// member. Once the first member is found, every other member must follow.
func (G *Group) Read(r *Reader) error {
	label, err := r.peekLabel()
	if err != nil {
		return err
	}
	if label != G.Label() {
		return nil
	}
	tmp := G.Clone().(*Group)
	for _, m := range tmp.members {
		l, err := r.Peek()
		if err == io.EOF {
			return newError(ErrParse, m.label, "end of input inside group %s", G.Label())
		}
		if err != nil {
			return err
		}
		if l.Label != m.label {
			e := newError(ErrParse, m.label, "expected %s in group %s, found %s", m.label, G.Label(), l.Label)
			e.line = l.Number
			return e
		}
		if err := m.Read(r); err != nil {
			return err
		}
	}
	for i, m := range G.members {
		m.values = tmp.members[i].values
	}
	return nil
}
