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
	"sort"

	"github.com/ctessum/geom"
)

// Position is a location along a path, given as segment index and the
// segment parameter in [0, 1].
type Position struct {
	Segment int
	T       float64
}

// Less reports whether a comes before b along the path.
func (a Position) Less(b Position) bool {
	if a.Segment != b.Segment {
		return a.Segment < b.Segment
	}
	return a.T < b.T
}

func (p Path) normalize(pos Position) Position {
	if pos.T >= 1 && pos.Segment < p.SegmentCount()-1 {
		return Position{Segment: pos.Segment + 1}
	}
	return pos
}

// At returns the point of p at pos.
func (p Path) At(pos Position) Point { return p.Segment(pos.Segment).Eval(pos.T) }

// Measure returns the distance along p from its start to pos.
func (p Path) Measure(pos Position) float64 {
	m := 0.0
	for i := 0; i < pos.Segment; i++ {
		m += p.Segment(i).Length()
	}
	return m + p.Segment(pos.Segment).Length()*pos.T
}

func nearestOnSegment(s Segment, pt Point) (dist, t float64) {
	d2, t := s.line().Nearest(pt.xy(), 1e-12)
	return math.Sqrt(d2), t
}

// Locate returns the position on the linear path p that is nearest to pt,
// and the horizontal distance between the two.
func Locate(p Path, pt Point) (Position, float64) {
	best, bestD := Position{}, math.Inf(1)
	for i := 0; i < p.SegmentCount(); i++ {
		if d, t := nearestOnSegment(p.Segment(i), pt); d < bestD {
			best, bestD = Position{Segment: i, T: t}, d
		}
	}
	return p.normalize(best), bestD
}

// DistanceToPaths returns the smallest horizontal distance between pt and
// the paths.
func DistanceToPaths(pt Point, paths []Path) float64 {
	d := math.Inf(1)
	for _, p := range paths {
		if _, dd := Locate(p.Linearize(), pt); dd < d {
			d = dd
		}
	}
	return d
}

// Section returns the part of the linear path p between from and to,
// which must not come before from.
func (p Path) Section(from, to Position) Path {
	o := Path{ZAware: p.ZAware}
	o.Points = append(o.Points, p.At(from))
	for i := from.Segment + 1; i <= to.Segment; i++ {
		if v := p.Points[i]; !v.EqualXY(o.Points[len(o.Points)-1], 0) {
			o.Points = append(o.Points, v)
		}
	}
	end := p.At(to)
	if len(o.Points) == 1 || !end.EqualXY(o.Points[len(o.Points)-1], 0) {
		o.Points = append(o.Points, end)
	}
	return o
}

// RingSection returns the part of the linear ring r from one position to
// another in ring direction, wrapping around the ring start if needed.
func (p Path) RingSection(from, to Position) Path {
	if !to.Less(from) {
		return p.Section(from, to)
	}
	o := p.Section(from, Position{Segment: p.SegmentCount() - 1, T: 1})
	rest := p.Section(Position{}, to)
	o.Points = append(o.Points, rest.Points[1:]...)
	return o
}

func linearizeAll(paths []Path) []Path {
	o := make([]Path, 0, len(paths))
	for _, p := range paths {
		if !p.IsEmpty() {
			o = append(o, p.Linearize())
		}
	}
	return o
}

func segmentBounds(s Segment, tol float64) *geom.Bounds {
	b := geom.NewBoundsPoint(s.P0.geom())
	b.Extend(geom.NewBoundsPoint(s.P1.geom()))
	if tol <= 0 {
		tol = 1e-12
	}
	b.Min.X -= tol
	b.Min.Y -= tol
	b.Max.X += tol
	b.Max.Y += tol
	return b
}

func clamp01(t float64) float64 { return math.Max(0, math.Min(1, t)) }

// Intersections returns the points where the paths in a cross or touch the
// paths in b within tol, sorted by X and then Y. Elevations are taken
// from a.
func Intersections(a, b []Path, tol float64) []Point {
	ix := NewSegmentIndex(b)
	var out []Point
	add := func(p Point) {
		for _, q := range out {
			if q.EqualXY(p, tol) {
				return
			}
		}
		out = append(out, p)
	}
	for _, pa := range linearizeAll(a) {
		for i := 0; i < pa.SegmentCount(); i++ {
			sa := pa.Segment(i)
			for _, ref := range ix.Search(segmentBounds(sa, tol)) {
				sb := ref.Segment
				if hits, n := sa.line().IntersectLine(sb.line()); n > 0 {
					add(sa.Eval(clamp01(hits[0].SegmentT)))
				}
				for _, v := range [2]Point{sa.P0, sa.P1} {
					if d, _ := nearestOnSegment(sb, v); d <= tol {
						add(v)
					}
				}
				for _, v := range [2]Point{sb.P0, sb.P1} {
					if d, t := nearestOnSegment(sa, v); d <= tol {
						add(sa.Eval(t))
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Intersects reports whether pt lies within tol of any of the points.
func Intersects(pt Point, points []Point, tol float64) bool {
	for _, q := range points {
		if pt.EqualXY(q, tol) {
			return true
		}
	}
	return false
}

// SplitPath splits the linear form of p at the given points. Points
// farther than tol from p, or within tol of its ends, do not split it.
// For a closed path whose start is not a split point, the pieces before
// and after the start are joined.
func SplitPath(p Path, at []Point, tol float64) []Path {
	p = p.Linearize()
	if p.IsEmpty() {
		return nil
	}
	type cut struct {
		pos Position
		m   float64
	}
	total := p.Length()
	startIsCut := false
	var cuts []cut
	for _, pt := range at {
		pos, d := Locate(p, pt)
		if d > tol {
			continue
		}
		m := p.Measure(pos)
		if m <= tol || total-m <= tol {
			startIsCut = true
			continue
		}
		cuts = append(cuts, cut{pos: pos, m: m})
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].m < cuts[j].m })
	var out []Path
	from, last := Position{}, -math.MaxFloat64
	for _, c := range cuts {
		if c.m-last <= tol {
			continue
		}
		out = append(out, p.Section(from, c.pos))
		from, last = c.pos, c.m
	}
	out = append(out, p.Section(from, Position{Segment: p.SegmentCount() - 1, T: 1}))
	if len(out) > 1 && p.Closed(tol) && !startIsCut {
		joined := out[len(out)-1].Clone()
		joined.Points = append(joined.Points, out[0].Points[1:]...)
		out = append([]Path{joined}, out[1:len(out)-1]...)
	}
	return out
}

type interval struct{ a, b float64 }

// complement returns the parts of [0, 1] not covered by ivs.
func complement(ivs []interval) []interval {
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].a < ivs[j].a })
	var out []interval
	pos := 0.0
	for _, iv := range ivs {
		if iv.a > pos {
			out = append(out, interval{pos, iv.a})
		}
		if iv.b > pos {
			pos = iv.b
		}
	}
	if pos < 1 {
		out = append(out, interval{pos, 1})
	}
	return out
}

// coverage returns the parameter interval of s that q runs along within
// tol.
func coverage(s, q Segment, tol, zTol float64) (interval, bool) {
	o := s.P0.xy()
	d := s.P1.xy().Sub(o)
	l2 := d.Dot(d)
	l := math.Sqrt(l2)
	if math.Abs(d.Cross(q.P0.xy().Sub(o)))/l > tol || math.Abs(d.Cross(q.P1.xy().Sub(o)))/l > tol {
		return interval{}, false
	}
	t0 := d.Dot(q.P0.xy().Sub(o)) / l2
	t1 := d.Dot(q.P1.xy().Sub(o)) / l2
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t1 < 0 || t0 > 1 {
		return interval{}, false
	}
	iv := interval{math.Max(t0, 0), math.Min(t1, 1)}
	if !math.IsNaN(zTol) {
		for _, t := range [2]float64{iv.a, iv.b} {
			ps := s.Eval(t)
			_, tq := nearestOnSegment(q, ps)
			pq := q.Eval(tq)
			if ps.HasZ() && pq.HasZ() && math.Abs(ps.Z-pq.Z) > zTol {
				return interval{}, false
			}
		}
	}
	return iv, true
}

// LineDifference returns the parts of the paths in on that do not run
// along the paths in from within xyTol. When zTol is not NaN, parts that
// coincide horizontally but differ in elevation by more than zTol are
// returned as well. Parts not longer than xyTol are dropped.
func LineDifference(on, from []Path, xyTol, zTol float64) []Path {
	ix := NewSegmentIndex(from)
	var out []Path
	for _, p := range linearizeAll(on) {
		for _, d := range pathDifference(p, ix, xyTol, zTol) {
			if d.Length() > xyTol {
				out = append(out, d)
			}
		}
	}
	return out
}

func pathDifference(p Path, ix *SegmentIndex, xyTol, zTol float64) []Path {
	var out []Path
	var cur *Path
	for i := 0; i < p.SegmentCount(); i++ {
		s := p.Segment(i)
		if s.Length() == 0 {
			continue
		}
		var covered []interval
		for _, ref := range ix.Search(segmentBounds(s, xyTol)) {
			if iv, ok := coverage(s, ref.Segment, xyTol, zTol); ok {
				covered = append(covered, iv)
			}
		}
		for _, iv := range complement(covered) {
			start, end := s.Eval(iv.a), s.Eval(iv.b)
			if cur != nil && iv.a == 0 && cur.End().EqualXY(start, 0) {
				cur.Points = append(cur.Points, end)
				continue
			}
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &Path{Points: []Point{start, end}, ZAware: p.ZAware}
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	if len(out) > 1 && p.Closed(0) &&
		out[0].Start().EqualXY(p.Start(), 0) && out[len(out)-1].End().EqualXY(p.End(), 0) {
		joined := out[len(out)-1]
		joined.Points = append(joined.Points, out[0].Points[1:]...)
		out = append([]Path{joined}, out[1:len(out)-1]...)
	}
	return out
}
