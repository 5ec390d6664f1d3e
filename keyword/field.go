/*
 * field.go, part of gopenelopetools.
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
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a field.
type Kind int

const (
	IntKind Kind = iota
	FloatKind
	StringKind
	EnumKind
	RefKind
)

func (K Kind) String() string {
	switch K {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case EnumKind:
		return "enum"
	case RefKind:
		return "ref"
	}
	return "unknown"
}

// Field describes one value of a record.
type Field struct {
	Name     string
	Kind     Kind
	MaxLen   int    //strings only, 0 means no limit
	Allowed  []int  //enums only
	Positive bool   //ints and floats must be > 0
	RefKind  string //references only, see Ref
}

// Int returns an integer field.
func Int(name string) Field { return Field{Name: name, Kind: IntKind} }

// Float returns a floating point field.
func Float(name string) Field { return Field{Name: name, Kind: FloatKind} }

// PositiveFloat returns a floating point field that only accepts values > 0.
func PositiveFloat(name string) Field { return Field{Name: name, Kind: FloatKind, Positive: true} }

// PositiveInt returns an integer field that only accepts values > 0.
func PositiveInt(name string) Field { return Field{Name: name, Kind: IntKind, Positive: true} }

// String returns a string field of at most maxlen characters (0 for no limit).
func String(name string, maxlen int) Field { return Field{Name: name, Kind: StringKind, MaxLen: maxlen} }

// Enum returns an integer field restricted to the allowed values.
func Enum(name string, allowed ...int) Field {
	return Field{Name: name, Kind: EnumKind, Allowed: allowed}
}

// Reference returns a field holding a Ref of the given kind, written as the
// integer the IndexTable assigns to it.
func Reference(name, kind string) Field { return Field{Name: name, Kind: RefKind, RefKind: kind} }

//coerce converts v to the canonical Go type of the field (int, float64, string
//or Ref) and checks the field's domain. last is true for the last field of a
//record, the only one allowed to hold blanks.
func (F Field) coerce(v any, last bool) (any, error) {
	switch F.Kind {
	case IntKind, EnumKind:
		i, ok := toInt(v)
		if !ok {
			return nil, newError(ErrType, "", "field %s wants an integer, got %T (%v)", F.Name, v, v)
		}
		if F.Positive && i <= 0 {
			return nil, newError(ErrDomain, "", "field %s must be positive, got %d", F.Name, i)
		}
		if F.Kind == EnumKind && !isInInt(F.Allowed, i) {
			return nil, newError(ErrDomain, "", "field %s must be one of %v, got %d", F.Name, F.Allowed, i)
		}
		return i, nil
	case FloatKind:
		f, ok := toFloat(v)
		if !ok {
			return nil, newError(ErrType, "", "field %s wants a number, got %T (%v)", F.Name, v, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newError(ErrDomain, "", "field %s is not finite", F.Name)
		}
		if F.Positive && f <= 0 {
			return nil, newError(ErrDomain, "", "field %s must be positive, got %g", F.Name, f)
		}
		return f, nil
	case StringKind:
		s, ok := v.(string)
		if !ok {
			return nil, newError(ErrType, "", "field %s wants a string, got %T", F.Name, v)
		}
		if s == "" {
			return nil, newError(ErrDomain, "", "field %s is empty", F.Name)
		}
		if F.MaxLen > 0 && len(s) > F.MaxLen {
			return nil, newError(ErrDomain, "", "field %s is limited to %d characters, got %d", F.Name, F.MaxLen, len(s))
		}
		if strings.ContainsAny(s, "[]\r\n") {
			return nil, newError(ErrDomain, "", "field %s contains brackets or line breaks", F.Name)
		}
		if !last && strings.ContainsAny(s, " \t") {
			return nil, newError(ErrDomain, "", "field %s contains blanks", F.Name)
		}
		return s, nil
	case RefKind:
		r, ok := v.(Ref)
		if !ok || r == nil {
			return nil, newError(ErrType, "", "field %s wants a %s reference, got %T", F.Name, F.RefKind, v)
		}
		if r.RefKind() != F.RefKind {
			return nil, newError(ErrType, "", "field %s wants a %s reference, got a %s", F.Name, F.RefKind, r.RefKind())
		}
		return r, nil
	}
	return nil, newError(ErrType, "", "field %s has unknown kind %d", F.Name, F.Kind)
}

//format renders a value already coerced by the field.
func (F Field) format(v any, idx IndexTable) (string, error) {
	if F.Kind != RefKind {
		return FormatValue(v), nil
	}
	if idx == nil {
		return "", newError(ErrUnresolved, "", "field %s: no index table to resolve %v", F.Name, v)
	}
	i, err := idx.Index(v.(Ref))
	if err != nil {
		return "", newError(ErrUnresolved, "", "field %s: %v", F.Name, err)
	}
	return strconv.Itoa(i), nil
}

//parse reads a token written by format.
func (F Field) parse(tok string, idx IndexTable) (any, error) {
	switch F.Kind {
	case IntKind, EnumKind:
		i, err := strconv.Atoi(tok)
		if err != nil {
			//Fortran programs happily write 1.0E+03 for integers.
			f, ferr := parseFloat(tok)
			if ferr != nil || f != math.Trunc(f) {
				return nil, newError(ErrParse, "", "field %s: %q is not an integer", F.Name, tok)
			}
			i = int(f)
		}
		return i, nil
	case FloatKind:
		f, err := parseFloat(tok)
		if err != nil {
			return nil, newError(ErrParse, "", "field %s: %q is not a number", F.Name, tok)
		}
		return f, nil
	case StringKind:
		return tok, nil
	case RefKind:
		i, err := strconv.Atoi(tok)
		if err != nil {
			return nil, newError(ErrParse, "", "field %s: %q is not an index", F.Name, tok)
		}
		if idx == nil {
			return nil, newError(ErrUnresolved, "", "field %s: no index table to resolve %d", F.Name, i)
		}
		r, err := idx.Lookup(F.RefKind, i)
		if err != nil {
			return nil, newError(ErrUnresolved, "", "field %s: %v", F.Name, err)
		}
		return r, nil
	}
	return nil, newError(ErrType, "", "field %s has unknown kind %d", F.Name, F.Kind)
}

func parseFloat(tok string) (float64, error) {
	//Fortran double precision exponents
	tok = strings.NewReplacer("D", "E", "d", "e").Replace(tok)
	return strconv.ParseFloat(tok, 64)
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int8:
		return int(t), true
	case int16:
		return int(t), true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case uint:
		return int(t), true
	case uint8:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return int(t), true
		}
	case float32:
		if float64(t) == math.Trunc(float64(t)) {
			return int(t), true
		}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case string:
		f, err := parseFloat(strings.TrimSpace(t))
		return f, err == nil
	}
	return 0, false
}

//isInInt returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
