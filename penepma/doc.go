/*
Package penepma builds and reads input files for PENEPMA, the electron probe
microanalysis program of the PENELOPE distribution.

An Input holds one keyword per field, in the order PENEPMA reads them. Keywords
left unset are not written. Module references are written with the index of
the geometry file the input goes with:

	idx, err := geo.WriteFile("sample.geo")
	in := penepma.NewInput()
	in.StepLengths.Add(film.ID(), 1e-7)
	err = in.WriteFile("sample.in", idx)
*/
package penepma
