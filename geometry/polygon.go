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

// Within returns the status of pt relative to the polygon g.
func Within(pt Point, g Geometry) geom.WithinStatus {
	return pt.geom().Within(g.geomPolygon())
}

func ringStatus(pt Point, ring Path) geom.WithinStatus {
	return pt.geom().Within(geom.Polygon{toGeomPoints(ring.Linearize().Points)})
}

// interiorVertex returns a vertex of r that is not on the edge of other,
// falling back to the first vertex.
func interiorVertex(r, other Path) Point {
	for _, pt := range r.Points {
		if ringStatus(pt, other) != geom.OnEdge {
			return pt
		}
	}
	return r.Points[0]
}

// RingGroups splits the rings of a polygon into groups made of an outer
// ring followed by the holes directly inside it.
func RingGroups(g Geometry) [][]Path {
	rings := g.Boundary()
	depth := make([]int, len(rings))
	for i, r := range rings {
		for j, o := range rings {
			if i != j && ringStatus(interiorVertex(r, o), o) == geom.Inside {
				depth[i]++
			}
		}
	}
	var groups [][]Path
	outerOf := make(map[int]int)
	for i, r := range rings {
		if depth[i]%2 == 0 {
			outerOf[i] = len(groups)
			groups = append(groups, []Path{r})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		best, bestArea := -1, math.Inf(1)
		for j, o := range rings {
			if depth[j]%2 != 0 || ringStatus(interiorVertex(r, o), o) != geom.Inside {
				continue
			}
			if a := math.Abs(SignedArea(o)); a < bestArea {
				best, bestArea = j, a
			}
		}
		if best >= 0 {
			k := outerOf[best]
			groups[k] = append(groups[k], r)
		}
	}
	return groups
}

// SignedArea returns the signed area of a ring; it is positive for
// counter-clockwise rings.
func SignedArea(ring Path) float64 {
	pts := ring.Linearize().Points
	a := 0.0
	for i := 0; i+1 < len(pts); i++ {
		a += pts[i].X*pts[i+1].Y - pts[i+1].X*pts[i].Y
	}
	return a / 2
}

// PositionAt returns the position at distance m along p.
func (p Path) PositionAt(m float64) Position {
	for i := 0; i < p.SegmentCount(); i++ {
		l := p.Segment(i).Length()
		if m <= l || i == p.SegmentCount()-1 {
			if l == 0 {
				return Position{Segment: i}
			}
			return Position{Segment: i, T: clamp01(m / l)}
		}
		m -= l
	}
	return Position{}
}

// Midpoint returns the point halfway along p.
func (p Path) Midpoint() Point {
	p = p.Linearize()
	return p.At(p.PositionAt(p.Length() / 2))
}

// Join appends b to a. The first point of b is dropped; it is expected to
// coincide with the last point of a.
func Join(a, b Path) Path {
	if a.IsEmpty() {
		return b.Clone()
	}
	o := a.Clone()
	offset := a.SegmentCount()
	for k, v := range b.Curves {
		if o.Curves == nil {
			o.Curves = make(map[int]Controls)
		}
		o.Curves[offset+k] = v
	}
	o.Points = append(o.Points, b.Points[1:]...)
	o.ZAware = a.ZAware || b.ZAware
	return o
}

// SplitPolygon splits the polygon g along cut, whose ends must lie within
// tol of the same outer ring and whose middle must be inside g. The
// first returned polygon keeps the rings that are not affected.
func SplitPolygon(g Geometry, cut Path, tol float64) ([]Geometry, bool) {
	cut = cut.Linearize()
	if cut.IsEmpty() {
		return nil, false
	}
	groups := RingGroups(g)
	for gi, grp := range groups {
		outer := grp[0].Linearize()
		posA, dA := Locate(outer, cut.Start())
		posB, dB := Locate(outer, cut.End())
		if dA > tol || dB > tol || math.Abs(outer.Measure(posA)-outer.Measure(posB)) <= tol {
			continue
		}
		if Within(cut.Midpoint(), NewPolygon(grp...)) != geom.Inside {
			continue
		}
		r1 := Join(outer.RingSection(posA, posB), cut.Reverse())
		r2 := Join(outer.RingSection(posB, posA), cut)
		p1, p2 := []Path{r1}, []Path{r2}
		for _, h := range grp[1:] {
			if ringStatus(interiorVertex(h, r1), r1) == geom.Inside {
				p1 = append(p1, h)
			} else {
				p2 = append(p2, h)
			}
		}
		for gj, other := range groups {
			if gj != gi {
				p1 = append(p1, other...)
			}
		}
		a, b := NewPolygon(p1...), NewPolygon(p2...)
		a.ZAware, b.ZAware = g.ZAware || cut.ZAware, g.ZAware || cut.ZAware
		return []Geometry{a, b}, true
	}
	return nil, false
}

// ReshapeRing returns the two rings that result from replacing either side
// of ring between the ends of c with c. The first result replaces the
// section running from the start of c to its end in ring direction.
func ReshapeRing(ring, c Path, tol float64) (Path, Path, bool) {
	ring, c = ring.Linearize(), c.Linearize()
	posA, dA := Locate(ring, c.Start())
	posB, dB := Locate(ring, c.End())
	if dA > tol || dB > tol || math.Abs(ring.Measure(posA)-ring.Measure(posB)) <= tol {
		return Path{}, Path{}, false
	}
	r1 := Join(c, ring.RingSection(posB, posA))
	r2 := Join(c.Reverse(), ring.RingSection(posA, posB))
	return r1, r2, true
}

// ReshapePolygon replaces part of a ring of g with c. Of the two possible
// results the one with the larger area is returned, or the smaller one if
// nonDefaultSide is set.
func ReshapePolygon(g Geometry, c Path, tol float64, nonDefaultSide bool) (Geometry, bool) {
	for i, ring := range g.Parts {
		r1, r2, ok := ReshapeRing(ring, c, tol)
		if !ok {
			continue
		}
		g1, g2 := g.Clone(), g.Clone()
		g1.Parts[i], g2.Parts[i] = r1, r2
		g1.ZAware, g2.ZAware = g.ZAware || c.ZAware, g.ZAware || c.ZAware
		larger, smaller := g1, g2
		if g2.Area() > g1.Area() {
			larger, smaller = g2, g1
		}
		if nonDefaultSide {
			return smaller, true
		}
		return larger, true
	}
	return g, false
}

// ReplaceSection replaces the part of line between the ends of c with c.
func ReplaceSection(line, c Path, tol float64) (Path, bool) {
	line, c = line.Linearize(), c.Linearize()
	posA, dA := Locate(line, c.Start())
	posB, dB := Locate(line, c.End())
	if dA > tol || dB > tol {
		return line, false
	}
	mA, mB := line.Measure(posA), line.Measure(posB)
	if math.Abs(mA-mB) <= tol {
		return line, false
	}
	if mB < mA {
		c = c.Reverse()
		posA, posB = posB, posA
		mA, mB = mB, mA
	}
	o := Path{ZAware: line.ZAware || c.ZAware}
	if mA > tol {
		prefix := line.Section(Position{}, posA)
		o.Points = append(o.Points, prefix.Points[:len(prefix.Points)-1]...)
	}
	o.Points = append(o.Points, c.Points...)
	if line.Length()-mB > tol {
		suffix := line.Section(posB, Position{Segment: line.SegmentCount() - 1, T: 1})
		o.Points = append(o.Points, suffix.Points[1:]...)
	}
	return o, true
}

// InsertVertex inserts pt into p if p passes within tol of pt without
// having a vertex there. The elevation of the new vertex is interpolated
// from p when p is Z aware.
func InsertVertex(p Path, pt Point, tol float64) (Path, bool) {
	p = p.Linearize()
	for _, v := range p.Points {
		if v.EqualXY(pt, tol) {
			return p, false
		}
	}
	pos, d := Locate(p, pt)
	if d > tol {
		return p, false
	}
	v := Pt(pt.X, pt.Y)
	if p.ZAware {
		v.Z = p.At(pos).Z
	}
	o := Path{ZAware: p.ZAware, Points: make([]Point, 0, len(p.Points)+1)}
	o.Points = append(o.Points, p.Points[:pos.Segment+1]...)
	o.Points = append(o.Points, v)
	o.Points = append(o.Points, p.Points[pos.Segment+1:]...)
	return o, true
}

// OverlapArea returns the area shared by the polygons a and b.
func OverlapArea(a, b Geometry) float64 {
	if a.Type != Polygon || b.Type != Polygon {
		return 0
	}
	return a.geomPolygon().Intersection(b.geomPolygon()).Area()
}

// BufferGeometry returns the buffer of paths as a polygon geometry.
func BufferGeometry(paths []Path, dist float64) Geometry {
	return NewPolygon(PolygonRings(Buffer(paths, dist))...)
}
