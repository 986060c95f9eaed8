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
	"math"

	"github.com/ctessum/geom"
)

// arcSteps is the number of vertices used for a quarter circle when
// buffering.
const arcSteps = 4

// capsule returns the polygon covering all points within dist of s.
func capsule(s Segment, dist float64) geom.Polygon {
	dx, dy := s.P1.X-s.P0.X, s.P1.Y-s.P0.Y
	l := math.Hypot(dx, dy)
	start := 0.0
	if l > 0 {
		start = math.Atan2(dy, dx) - math.Pi/2
	}
	var ring []geom.Point
	arc := func(c Point, from float64) {
		for i := 0; i <= 2*arcSteps; i++ {
			a := from + float64(i)*math.Pi/(2*arcSteps)
			ring = append(ring, geom.Point{X: c.X + dist*math.Cos(a), Y: c.Y + dist*math.Sin(a)})
		}
	}
	// Half circle around the end from the right side to the left side,
	// then back around the start.
	arc(s.P1, start)
	arc(s.P0, start+math.Pi)
	ring = append(ring, ring[0])
	return geom.Polygon{ring}
}

// Buffer returns the area within dist of the paths.
func Buffer(paths []Path, dist float64) geom.Polygon {
	var out geom.Polygon
	for _, p := range linearizeAll(paths) {
		for i := 0; i < p.SegmentCount(); i++ {
			c := capsule(p.Segment(i), dist)
			if out == nil {
				out = c
				continue
			}
			out = out.Union(c)
		}
	}
	return out
}

// PolygonRings converts the rings of a geom polygon into closed paths.
func PolygonRings(p geom.Polygon) []Path {
	o := make([]Path, 0, len(p))
	for _, r := range p {
		if len(r) < 3 {
			continue
		}
		pts := fromGeomPoints(r)
		if !pts[0].EqualXY(pts[len(pts)-1], 0) {
			pts = append(pts, pts[0])
		}
		o = append(o, Path{Points: pts})
	}
	return o
}

// EnforceMinSegmentLength drops vertices of p so that no segment is
// shorter than minLength. The end vertices are kept. If too few vertices
// would remain, p is returned unchanged.
func EnforceMinSegmentLength(p Path, minLength float64) Path {
	p = p.Linearize()
	if len(p.Points) < 3 || minLength <= 0 {
		return p
	}
	o := Path{ZAware: p.ZAware, Points: []Point{p.Points[0]}}
	last := len(p.Points) - 1
	for i := 1; i < last; i++ {
		if o.End().DistanceXY(p.Points[i]) >= minLength &&
			p.Points[i].DistanceXY(p.Points[last]) >= minLength {
			o.Points = append(o.Points, p.Points[i])
		}
	}
	o.Points = append(o.Points, p.Points[last])
	if p.Closed(0) && len(o.Points) < 4 {
		return p
	}
	return o
}

// BufferBoundary returns the boundary of the area within dist of the
// paths. If minSegmentLength is positive, short segments are removed from
// the result.
func BufferBoundary(paths []Path, dist, minSegmentLength float64) []Path {
	rings := PolygonRings(Buffer(paths, dist))
	for i, r := range rings {
		rings[i] = EnforceMinSegmentLength(r, minSegmentLength)
	}
	return rings
}

// ClipToBounds returns the parts of the paths that lie inside b.
func ClipToBounds(paths []Path, b *geom.Bounds) []Path {
	var out []Path
	for _, p := range linearizeAll(paths) {
		var cur *Path
		for i := 0; i < p.SegmentCount(); i++ {
			s := p.Segment(i)
			t0, t1, ok := clipSegment(s, b)
			if !ok {
				if cur != nil {
					out = append(out, *cur)
					cur = nil
				}
				continue
			}
			a, e := s.Eval(t0), s.Eval(t1)
			if cur != nil && t0 == 0 && cur.End().EqualXY(a, 0) {
				cur.Points = append(cur.Points, e)
			} else {
				if cur != nil {
					out = append(out, *cur)
				}
				cur = &Path{Points: []Point{a, e}, ZAware: p.ZAware}
			}
			if t1 < 1 {
				out = append(out, *cur)
				cur = nil
			}
		}
		if cur != nil {
			out = append(out, *cur)
		}
	}
	return out
}

// clipSegment clips s to b using the Liang–Barsky algorithm.
func clipSegment(s Segment, b *geom.Bounds) (t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	dx, dy := s.P1.X-s.P0.X, s.P1.Y-s.P0.Y
	for _, c := range [4][2]float64{
		{-dx, s.P0.X - b.Min.X},
		{dx, b.Max.X - s.P0.X},
		{-dy, s.P0.Y - b.Min.Y},
		{dy, b.Max.Y - s.P0.Y},
	} {
		p, q := c[0], c[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0, t1, true
}
