/*
Copyright © 2026 the changealong authors.
This file is part of changealong.

changealong is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

changealong is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with changealong.  If not, see <http://www.gnu.org/licenses/>.
*/


package changealong

import (
	"fmt"
	"math"

	"github.com/prosuite/changealong/geometry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// degenerateRatio is the ratio between the middle and the largest
// eigenvalue of the point covariance below which a point set is treated
// as collinear.
const degenerateRatio = 1e-10

// Plane3D is the plane A·x + B·y + C·z + D = 0 with a unit normal.
type Plane3D struct {
	A, B, C, D float64
}

// FitPlane returns the least-squares plane through the points that have
// a Z value. It returns nil if fewer than three such points exist or if
// they are coincident or collinear.
func FitPlane(points []geometry.Point) *Plane3D {
	var pts []geometry.Point
	for _, p := range points {
		if p.HasZ() {
			pts = append(pts, p)
		}
	}
	if len(pts) < 3 {
		return nil
	}
	centroid := make([]float64, 3)
	for _, p := range pts {
		floats.Add(centroid, []float64{p.X, p.Y, p.Z})
	}
	floats.Scale(1/float64(len(pts)), centroid)

	cov := mat.NewSymDense(3, nil)
	d := make([]float64, 3)
	for _, p := range pts {
		floats.SubTo(d, []float64{p.X, p.Y, p.Z}, centroid)
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov.SetSym(i, j, cov.At(i, j)+d[i]*d[j])
			}
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil
	}
	values := eig.Values(nil) // ascending
	if values[2] <= 0 || values[1]/values[2] < degenerateRatio {
		return nil
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	n := []float64{vectors.At(0, 0), vectors.At(1, 0), vectors.At(2, 0)}
	floats.Scale(1/floats.Norm(n, 2), n)
	if n[2] < 0 {
		floats.Scale(-1, n)
	}
	return &Plane3D{A: n[0], B: n[1], C: n[2], D: -floats.Dot(n, centroid)}
}

// Distance returns the signed perpendicular distance of p from the plane.
func (pl *Plane3D) Distance(p geometry.Point) float64 {
	return pl.A*p.X + pl.B*p.Y + pl.C*p.Z + pl.D
}

// IsVertical reports whether the plane cannot provide Z values.
func (pl *Plane3D) IsVertical() bool { return math.Abs(pl.C) < 1e-12 }

// ZAt returns the Z value of the plane at (x, y). It returns NaN for a
// vertical plane.
func (pl *Plane3D) ZAt(x, y float64) float64 {
	if pl.IsVertical() {
		return math.NaN()
	}
	return -(pl.A*x + pl.B*y + pl.D) / pl.C
}

// Coplanarity is the result of testing points against a plane.
type Coplanarity struct {
	Coplanar              bool
	MaxDeviationFromPlane float64
	// MaxDeviationPoint is the point farthest from the plane.
	MaxDeviationPoint geometry.Point
}

// CheckCoplanarity tests whether all points with a Z value lie within
// tolerance of the plane.
func (pl *Plane3D) CheckCoplanarity(points []geometry.Point, tolerance float64) Coplanarity {
	r := Coplanarity{Coplanar: true, MaxDeviationPoint: geometry.Pt(math.NaN(), math.NaN())}
	for _, p := range points {
		if !p.HasZ() {
			continue
		}
		dev := math.Abs(pl.Distance(p))
		if dev > r.MaxDeviationFromPlane || math.IsNaN(r.MaxDeviationPoint.X) {
			r.MaxDeviationFromPlane = dev
			r.MaxDeviationPoint = p
		}
	}
	r.Coplanar = r.MaxDeviationFromPlane <= tolerance
	return r
}

// AssignZ returns g with every vertex Z taken from the plane. Multipatch
// geometries are rejected.
func (pl *Plane3D) AssignZ(g geometry.Geometry) (geometry.Geometry, error) {
	if g.Type == geometry.Multipatch {
		return geometry.Geometry{}, geometry.ErrMultipatch
	}
	if pl.IsVertical() {
		return geometry.Geometry{}, fmt.Errorf("changealong: assigning Z: vertical plane %v", *pl)
	}
	out := g.Clone()
	out.ZAware = true
	for i, part := range out.Parts {
		out.Parts[i] = pl.assignPathZ(part)
	}
	return out, nil
}

func (pl *Plane3D) assignPathZ(p geometry.Path) geometry.Path {
	p = p.WithZ()
	for j, v := range p.Points {
		p.Points[j].Z = pl.ZAt(v.X, v.Y)
	}
	return p
}
