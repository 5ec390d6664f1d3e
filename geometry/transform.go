/*
 * transform.go, part of gopenelopetools.
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

package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

func rotZ(angle float64) *mat.Dense {
	s, c := math.Sincos(angle * math.Pi / 180)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func rotY(angle float64) *mat.Dense {
	s, c := math.Sincos(angle * math.Pi / 180)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// Matrix returns the 3x3 matrix of the rotation: OMEGA around z, then THETA
// around y, then PHI around z.
func (R Rotation) Matrix() *mat.Dense {
	var tmp, ret mat.Dense
	tmp.Mul(rotY(R.Theta), rotZ(R.Omega))
	ret.Mul(rotZ(R.Phi), &tmp)
	return &ret
}

//local returns the ten coefficients before rotation and shift.
func (S *Surface) local() [10]float64 {
	if S.Form == Implicit {
		return S.Coefficients
	}
	var c [10]float64
	i := S.Indices
	c[0] = float64(i[0]) / (S.Scale.X * S.Scale.X)
	c[3] = float64(i[1]) / (S.Scale.Y * S.Scale.Y)
	c[5] = float64(i[2]) / (S.Scale.Z * S.Scale.Z)
	c[8] = float64(i[3]) / S.Scale.Z
	c[9] = float64(i[4])
	return c
}

// Global returns the implicit coefficients of the surface in the laboratory
// frame, in the order AXX, AXY, AXZ, AYY, AYZ, AZZ, AX, AY, AZ, A0. Reduced
// surfaces are expanded with their scale first, then every surface is rotated
// and shifted.
func (S *Surface) Global() [10]float64 {
	c := S.local()
	q := mat.NewSymDense(4, []float64{
		c[0], c[1] / 2, c[2] / 2, c[6] / 2,
		c[1] / 2, c[3], c[4] / 2, c[7] / 2,
		c[2] / 2, c[4] / 2, c[5], c[8] / 2,
		c[6] / 2, c[7] / 2, c[8] / 2, c[9],
	})
	//m takes laboratory coordinates to the surface frame: r' = R^T (r - t)
	rt := S.Rotation.Matrix().T()
	var t mat.VecDense
	t.MulVec(rt, mat.NewVecDense(3, []float64{S.Shift.X, S.Shift.Y, S.Shift.Z}))
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rt.At(i, j))
		}
		m.Set(i, 3, -t.AtVec(i))
	}
	m.Set(3, 3, 1)
	var tmp, g mat.Dense
	tmp.Mul(q, m)
	g.Mul(m.T(), &tmp)
	return [10]float64{
		g.At(0, 0), 2 * g.At(0, 1), 2 * g.At(0, 2),
		g.At(1, 1), 2 * g.At(1, 2), g.At(2, 2),
		2 * g.At(0, 3), 2 * g.At(1, 3), 2 * g.At(2, 3),
		g.At(3, 3),
	}
}
