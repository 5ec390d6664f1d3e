/*
Package keyword maps typed values to the fixed-format, column limited lines
read by the PENELOPE family of Fortran programs, and back.

A line has a label, left justified to a fixed width, the values separated by
single blanks and, when there is room, a comment in brackets:

	SENERG 15000             [Energy of the electron beam, in eV]

A Keyword is one of three things. A Record is a single line. A Group is a few
records always written together. A Sequence holds up to a maximum number of
occurrences of a Record or Group. A Document orders keywords and separators the
way the external program expects them.

Unset records are not written, and records missing from an input are left
unset: whether a keyword is mandatory is up to the program reading the file.
*/
package keyword
