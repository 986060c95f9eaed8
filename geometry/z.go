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

package geometry

import (
	"errors"
	"math"
)

// ErrMultipatch is returned when an operation that is only defined for
// single-surface geometries is given a multipatch.
var ErrMultipatch = errors.New("geometry: operation not supported for multipatch geometries")

// ErrEmpty is returned for operations that need a non-empty geometry.
var ErrEmpty = errors.New("geometry: empty geometry")

// InterpolateZ returns a Z-aware copy of p in which undefined elevations
// are interpolated along the path between the nearest vertices with
// defined elevation. Vertices before the first or after the last defined
// elevation take that elevation. p is returned as is if no vertex has a
// defined elevation.
func InterpolateZ(p Path) Path {
	o := p.WithZ()
	var known []int
	for i, pt := range o.Points {
		if pt.HasZ() {
			known = append(known, i)
		}
	}
	if len(known) == 0 || len(known) == len(o.Points) {
		return o
	}
	measure := make([]float64, len(o.Points))
	for i := 1; i < len(o.Points); i++ {
		measure[i] = measure[i-1] + o.Segment(i-1).Length()
	}
	for i := range o.Points {
		if o.Points[i].HasZ() {
			continue
		}
		prev, next := -1, -1
		for _, k := range known {
			if k < i {
				prev = k
			} else if next < 0 {
				next = k
			}
		}
		switch {
		case prev < 0:
			o.Points[i].Z = o.Points[next].Z
		case next < 0:
			o.Points[i].Z = o.Points[prev].Z
		default:
			span := measure[next] - measure[prev]
			t := 0.0
			if span > 0 {
				t = (measure[i] - measure[prev]) / span
			}
			o.Points[i].Z = lerpZ(o.Points[prev].Z, o.Points[next].Z, t)
		}
	}
	return o
}

// ZAt returns the elevation of the paths at the location nearest to pt, if
// that location is within tol of pt and has a defined elevation.
func ZAt(paths []Path, pt Point, tol float64) (float64, bool) {
	best, bestD := math.NaN(), math.Inf(1)
	for _, p := range linearizeAll(paths) {
		pos, d := Locate(p, pt)
		if d < bestD {
			best, bestD = p.At(pos).Z, d
		}
	}
	if bestD > tol || math.IsNaN(best) {
		return math.NaN(), false
	}
	return best, true
}

// NearestZ returns the elevation of the vertex with defined elevation that
// is horizontally nearest to pt.
func NearestZ(paths []Path, pt Point) (float64, bool) {
	z, bestD := math.NaN(), math.Inf(1)
	for _, p := range paths {
		for _, v := range p.Points {
			if d := v.DistanceXY(pt); v.HasZ() && d < bestD {
				z, bestD = v.Z, d
			}
		}
	}
	return z, !math.IsNaN(z)
}
