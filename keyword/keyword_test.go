/*
 * keyword_test.go, part of gopenelopetools.
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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

//body is a reference kind used only by the tests.
type body int

func (body) RefKind() string { return "body" }

//table is an IndexTable that numbers bodies from 1.
type table struct{}

func (table) Index(r Ref) (int, error) {
	b, ok := r.(body)
	if !ok {
		return 0, fmt.Errorf("not a body: %v", r)
	}
	return int(b) + 1, nil
}

func (table) Lookup(kind string, i int) (Ref, error) {
	if kind != "body" || i < 1 {
		return nil, fmt.Errorf("no %s %d", kind, i)
	}
	return body(i - 1), nil
}

func TestEncodeWidth(Te *testing.T) {
	exact := strings.Repeat("a", 73)
	line, err := InputFormat.Encode("title", []string{exact}, "")
	require.NoError(Te, err)
	assert.Len(Te, line, 80)
	assert.True(Te, strings.HasPrefix(line, "TITLE  a"))

	_, err = InputFormat.Encode("title", []string{exact + "a"}, "")
	require.ErrorIs(Te, err, ErrLineTooLong)
	var kerr *Error
	require.True(Te, errors.As(err, &kerr))
	assert.Equal(Te, "TITLE", kerr.Label())

	//the comment doesn't fit, so it is dropped, never an error.
	line, err = InputFormat.Encode("title", []string{exact}, "Title of the job")
	require.NoError(Te, err)
	assert.Equal(Te, "TITLE  "+exact, line)
}

func TestEncodeComment(Te *testing.T) {
	line, err := InputFormat.Encode("senerg", []string{FormatValue(15e3)}, "Energy of the electron beam, in eV")
	require.NoError(Te, err)
	assert.Equal(Te, "SENERG 15000             [Energy of the electron beam, in eV]", line)
	assert.Equal(Te, 25, strings.IndexByte(line, '['))

	line, err = InputFormat.Encode("END", nil, "")
	require.NoError(Te, err)
	assert.Equal(Te, "END", line)

	_, err = InputFormat.Encode("TOOLONG", []string{"1"}, "")
	assert.ErrorIs(Te, err, ErrLineTooLong)
}

func TestFormatValue(Te *testing.T) {
	assert.Equal(Te, "0.1", FormatValue(0.1))
	assert.Equal(Te, "1e+09", FormatValue(1e9))
	assert.Equal(Te, "-3", FormatValue(-3))
	assert.Equal(Te, "Cu.mat", FormatValue("Cu.mat"))
}

func TestDecode(Te *testing.T) {
	label, values, comment, ok := InputFormat.Decode("SPOSIT 0 0 1            [Coordinates of the source]\r\n")
	require.True(Te, ok)
	assert.Equal(Te, "SPOSIT", label)
	assert.Equal(Te, []string{"0", "0", "1"}, values)
	assert.Equal(Te, "Coordinates of the source", comment)

	_, _, comment, ok = InputFormat.Decode("       >>>>>>>> Electron beam definition.")
	assert.False(Te, ok)
	assert.Equal(Te, "       >>>>>>>> Electron beam definition.", comment)

	_, _, _, ok = InputFormat.Decode("   ")
	assert.False(Te, ok)

	label, values, _, ok = InputFormat.Decode("end")
	require.True(Te, ok)
	assert.Equal(Te, "END", label)
	assert.Empty(Te, values)
}

func TestRecordSet(Te *testing.T) {
	r := NewRecord("IFORCE", "", Reference("KB", "body"), Enum("KPAR", 1, 2, 3), PositiveInt("ICOL"), Float("FORCER"))
	assert.False(Te, r.IsSet())
	require.NoError(Te, r.Set(body(0), 1, 4, -5))
	assert.Equal(Te, []any{body(0), 1, 4, -5.0}, r.Get())

	//rejections leave the previous values in place
	err := r.Set(body(1), 4, 4, -5)
	require.ErrorIs(Te, err, ErrDomain)
	err = r.Set(body(1), 1, 0, -5)
	require.ErrorIs(Te, err, ErrDomain)
	err = r.Set(body(1), 1, 4)
	require.ErrorIs(Te, err, ErrType)
	err = r.Set(body(1), "x", 4, 1.0)
	require.ErrorIs(Te, err, ErrType)
	assert.Equal(Te, []any{body(0), 1, 4, -5.0}, r.Get())

	r.Reset()
	assert.False(Te, r.IsSet())
	assert.Equal(Te, []any{nil, nil, nil, nil}, r.Get())
}

func TestRecordValidator(Te *testing.T) {
	r := NewRecord("PDENER", "", Float("EL"), Float("EU"), PositiveInt("NCHAN")).
		WithValidator(func(v []any) error {
			if v[0].(float64) >= v[1].(float64) {
				return fmt.Errorf("lower energy %g not below upper energy %g", v[0], v[1])
			}
			return nil
		})
	require.NoError(Te, r.Set(0, 20e3, 1000))
	err := r.Set(30e3, 20e3, 1000)
	require.ErrorIs(Te, err, ErrDomain)
	assert.Contains(Te, err.Error(), "PDENER")
	assert.Equal(Te, []any{0.0, 20e3, 1000}, r.Get())
}

func TestStringField(Te *testing.T) {
	r := NewRecord("MFNAME", "", String("FILENAME", 20))
	assert.ErrorIs(Te, r.Set(strings.Repeat("x", 21)), ErrDomain)
	assert.ErrorIs(Te, r.Set("a[1].mat"), ErrDomain)
	assert.ErrorIs(Te, r.Set(""), ErrDomain)
	require.NoError(Te, r.Set(strings.Repeat("x", 20)))

	two := NewRecord("XX", "", String("A", 0), String("B", 0))
	assert.ErrorIs(Te, two.Set("a b", "c"), ErrDomain)
	require.NoError(Te, two.Set("a", "b c"))
}

func TestUnsetRecordWritesNothing(Te *testing.T) {
	var b bytes.Buffer
	w := NewWriter(&b, nil)
	w.Newline = "\n"
	r := NewRecord("SAPERT", "Beam aperture", Float("APERTURE"))
	require.NoError(Te, r.Write(w))
	assert.Empty(Te, b.String())
	require.NoError(Te, NewEnd().Write(w))
	assert.Equal(Te, "END                      [Ends the reading of input data]\n", b.String())
}

func TestRecordReadLeavesOtherLines(Te *testing.T) {
	r := NewReader(strings.NewReader("SENERG 1e3\nSPOSIT 0 0 1\n"), nil)
	sposit := NewRecord("SPOSIT", "", Float("X"), Float("Y"), Float("Z"))
	require.NoError(Te, sposit.Read(r))
	assert.False(Te, sposit.IsSet())
	l, err := r.Peek()
	require.NoError(Te, err)
	assert.Equal(Te, "SENERG", l.Label)

	bad := NewRecord("SENERG", "", Float("E"), Float("F"))
	err = bad.Read(r)
	require.ErrorIs(Te, err, ErrParse)
	var kerr *Error
	require.True(Te, errors.As(err, &kerr))
	assert.Equal(Te, 1, kerr.Line())
}

func TestSequenceCapacity(Te *testing.T) {
	s := NewSequence(NewRecord("DSMAX", "", Reference("KB", "body"), PositiveFloat("DSMAX")), 3)
	for i := 0; i < 3; i++ {
		require.NoError(Te, s.Add(body(i), 1e-4))
	}
	err := s.Add(body(3), 1e-4)
	require.ErrorIs(Te, err, ErrCapacity)
	assert.Equal(Te, 3, s.Len())

	require.NoError(Te, s.Pop(1))
	assert.Equal(Te, [][]any{{body(0), 1e-4}, {body(2), 1e-4}}, s.Get())
	assert.ErrorIs(Te, s.Pop(5), ErrDomain)

	err = s.Set([]any{body(0), 1.0}, []any{body(1), -1.0})
	require.ErrorIs(Te, err, ErrDomain)
	assert.Equal(Te, 2, s.Len())

	s.Clear()
	assert.False(Te, s.IsSet())
}

func TestGroup(Te *testing.T) {
	g := NewGroup(
		NewRecord("MFNAME", "Material file", String("FILENAME", 20)),
		NewRecord("MSIMPA", "EABS(1:3),C1,C2,WCC,WCR", PositiveFloat("EABS1"), PositiveFloat("EABS2")),
	)
	require.NoError(Te, g.Set("Cu.mat", 1e3, 1e3))
	assert.Equal(Te, []any{"Cu.mat", 1e3, 1e3}, g.Get())
	err := g.Set("Au.mat", 1e3, -1.0)
	require.ErrorIs(Te, err, ErrDomain)
	assert.Equal(Te, []any{"Cu.mat", 1e3, 1e3}, g.Get())

	r := NewReader(strings.NewReader("MFNAME Au.mat\nSENERG 1\n"), nil)
	err = g.Clone().Read(r)
	require.ErrorIs(Te, err, ErrParse)
	assert.Contains(Te, err.Error(), "MSIMPA")
}

func newTestDocument() (*Document, map[string]Keyword) {
	kw := map[string]Keyword{
		"TITLE":  NewRecord("TITLE", "", String("TITLE", 65)),
		"SENERG": NewRecord("SENERG", "Energy of the electron beam, in eV", PositiveFloat("ENERGY")),
		"SPOSIT": NewRecord("SPOSIT", "Coordinates of the electron source", Float("X"), Float("Y"), Float("Z")),
		"SAPERT": NewRecord("SAPERT", "Beam aperture, in deg", Float("APERTURE")),
		"MAT": NewSequence(NewGroup(
			NewRecord("MFNAME", "Material file, up to 20 chars", String("FILENAME", 20)),
			NewRecord("MSIMPA", "EABS(1:3),C1,C2,WCC,WCR", Float("EABS1"), Float("EABS2"), Float("EABS3"), Float("C1"), Float("C2"), Float("WCC"), Float("WCR")),
		), 10),
		"DSMAX": NewSequence(NewRecord("DSMAX", "IB, Maximum step length (cm) in body IB", Reference("KB", "body"), PositiveFloat("DSMAX")), 5000),
	}
	doc := NewDocument(
		kw["TITLE"],
		Separator("Electron beam definition."),
		kw["SENERG"], kw["SPOSIT"], kw["SAPERT"],
		Separator("Material data and simulation parameters."),
		kw["MAT"],
		Separator("Geometry and local simulation parameters."),
		kw["DSMAX"],
		NewEnd(),
	)
	return doc, kw
}

func TestDocumentRoundTrip(Te *testing.T) {
	doc, kw := newTestDocument()
	require.NoError(Te, kw["TITLE"].Set("A copper sample, 15 keV"))
	require.NoError(Te, kw["SENERG"].Set(15e3))
	require.NoError(Te, kw["SPOSIT"].Set(0, 0, 1.0e-3))
	mat := kw["MAT"].(*Sequence)
	require.NoError(Te, mat.Add("Cu.mat", 1e3, 1e3, 1e3, 0.2, 0.2, 1e3, 1e3))
	require.NoError(Te, mat.Add("Au.mat", 1.5e3, 1e3, 1e3, 0.1, 0.1, 1e3, 1e3))
	dsmax := kw["DSMAX"].(*Sequence)
	require.NoError(Te, dsmax.Add(body(0), 1e-4))
	require.NoError(Te, dsmax.Add(body(1), 2.5e-5))

	var b bytes.Buffer
	w := NewWriter(&b, table{})
	w.Newline = "\n"
	require.NoError(Te, doc.Write(w))
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	assert.Len(Te, lines, 13)
	assert.Equal(Te, "       >>>>>>>> Electron beam definition.", lines[1])
	assert.True(Te, strings.HasPrefix(lines[10], "DSMAX  1 0.0001"), lines[10])
	assert.Equal(Te, "END                      [Ends the reading of input data]", lines[12])
	for _, l := range lines {
		assert.LessOrEqual(Te, len(l), 80, l)
	}

	doc2, kw2 := newTestDocument()
	require.NoError(Te, doc2.Decode(strings.NewReader(b.String()), table{}))
	assert.Equal(Te, kw["TITLE"].(*Record).Get(), kw2["TITLE"].(*Record).Get())
	assert.Equal(Te, kw["SPOSIT"].(*Record).Get(), kw2["SPOSIT"].(*Record).Get())
	assert.False(Te, kw2["SAPERT"].IsSet())
	assert.Equal(Te, []any{nil}, kw2["SAPERT"].(*Record).Get())
	got := kw2["MAT"].(*Sequence).Get()
	want := mat.Get()
	require.Len(Te, got, len(want))
	for i := range want {
		assert.Equal(Te, want[i][0], got[i][0])
		for j := 1; j < len(want[i]); j++ {
			assert.True(Te, scalar.EqualWithinRel(want[i][j].(float64), got[i][j].(float64), 1e-5))
		}
	}
	assert.Equal(Te, dsmax.Get(), kw2["DSMAX"].(*Sequence).Get())
}

func TestDocumentReadCapacity(Te *testing.T) {
	in := strings.Repeat("DSMAX 1 1e-4\n", 4)
	s := NewSequence(NewRecord("DSMAX", "", Reference("KB", "body"), PositiveFloat("DSMAX")), 3)
	err := NewDocument(s).Decode(strings.NewReader(in), table{})
	require.ErrorIs(Te, err, ErrCapacity)
	var kerr *Error
	require.True(Te, errors.As(err, &kerr))
	assert.Equal(Te, 4, kerr.Line())
	assert.Contains(Te, kerr.Decorate(""), "Document.Read")
}

func TestDocumentReadLeftover(Te *testing.T) {
	//SKPAR is not in the document
	doc, kw := newTestDocument()
	err := doc.Decode(strings.NewReader("TITLE  x\nSENERG 1e3\nSKPAR 1\nMFNAME Cu.mat\nEND\n"), table{})
	require.ErrorIs(Te, err, ErrParse)
	var kerr *Error
	require.True(Te, errors.As(err, &kerr))
	assert.Equal(Te, 3, kerr.Line())
	assert.Equal(Te, "SKPAR", kerr.Label())
	assert.False(Te, kw["MAT"].IsSet())

	//SPOSIT after SAPERT is out of order
	doc, _ = newTestDocument()
	err = doc.Decode(strings.NewReader("SAPERT 0\nSPOSIT 0 0 1\nEND\n"), table{})
	require.True(Te, errors.As(err, &kerr))
	assert.Equal(Te, 2, kerr.Line())
	assert.Equal(Te, "SPOSIT", kerr.Label())

	//nothing after END is read
	doc, kw = newTestDocument()
	require.NoError(Te, doc.Decode(strings.NewReader("SENERG 1e3\nEND\nSKPAR 1\n"), table{}))
	assert.Equal(Te, []any{1e3}, kw["SENERG"].(*Record).Get())
}

func TestTitleKeepsBlanks(Te *testing.T) {
	doc, kw := newTestDocument()
	require.NoError(Te, doc.Decode(strings.NewReader("TITLE  Cu  on   Si  [a comment]\nEND\n"), nil))
	assert.Equal(Te, []any{"Cu  on   Si"}, kw["TITLE"].(*Record).Get())

	two := NewRecord("XX", "", Float("A"), String("B", 0))
	require.NoError(Te, two.Read(NewReader(strings.NewReader("XX   2.5  a  b\n"), nil)))
	assert.Equal(Te, []any{2.5, "a  b"}, two.Get())
}

func TestUnresolvedReference(Te *testing.T) {
	s := NewRecord("DSMAX", "", Reference("KB", "body"), PositiveFloat("DSMAX"))
	require.NoError(Te, s.Set(body(0), 1.0))
	var b bytes.Buffer
	err := s.Write(NewWriter(&b, nil))
	assert.ErrorIs(Te, err, ErrUnresolved)
	err = NewDocument(s.Clone()).Decode(strings.NewReader("DSMAX 0 1\n"), table{})
	assert.ErrorIs(Te, err, ErrUnresolved)
}
