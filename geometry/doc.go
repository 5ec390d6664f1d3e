/*
Package geometry holds the geometry of a PENELOPE simulation: quadric
surfaces, and modules filled with a material and bounded by surfaces. Modules
can contain other modules.

A Geometry owns all its elements and hands out integer handles for them. Every
Geometry starts with a vacuum material, handle 0. Nesting a module inside
itself, directly or not, fails when it is attempted.

Write and Read handle the text format of the pengeom package, where every
number takes exactly 22 characters:

	SURFACE (   1) Plane Z=0
	INDICES=( 0, 0, 0, 1, 0)
	X-SCALE=(+1.000000000000000E+00,   0)              (DEFAULT=1.0)

Materials, surfaces and modules are numbered when written (see Indexify).
Input files for the simulation programs must refer to modules with the Index
the geometry was written with.
*/
package geometry
