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

/*
Package geometry is the geometry engine used by the change-along core.
It holds points with optional elevation, paths made of straight or cubic
Bézier segments, and polyline, polygon and multipatch geometries, together
with the intersection, splitting, buffering and clipping operations that the
subcurve calculation needs.

Topological operations work on the flattened form of a path: Bézier segments
are replaced by straight pieces before intersecting or splitting.
*/
package geometry

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"honnef.co/go/curve"
)

// bezierSteps is the number of straight pieces a Bézier segment is
// flattened into.
const bezierSteps = 16

// Point is a location with an optional elevation. Z is NaN when undefined.
type Point struct {
	X, Y, Z float64
}

// Pt returns a two-dimensional point with undefined Z.
func Pt(x, y float64) Point { return Point{X: x, Y: y, Z: math.NaN()} }

// PtZ returns a point with elevation.
func PtZ(x, y, z float64) Point { return Point{X: x, Y: y, Z: z} }

// HasZ reports whether the elevation of p is defined.
func (p Point) HasZ() bool { return !math.IsNaN(p.Z) }

// DistanceXY returns the horizontal distance between p and o.
func (p Point) DistanceXY(o Point) float64 { return math.Hypot(p.X-o.X, p.Y-o.Y) }

// EqualXY reports whether p and o are within tol of each other horizontally.
func (p Point) EqualXY(o Point, tol float64) bool { return p.DistanceXY(o) <= tol }

func (p Point) String() string {
	if p.HasZ() {
		return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
	}
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

func (p Point) xy() curve.Point { return curve.Point{X: p.X, Y: p.Y} }

func (p Point) geom() geom.Point { return geom.Point{X: p.X, Y: p.Y} }

func fromCurve(p curve.Point, z float64) Point { return Point{X: p.X, Y: p.Y, Z: z} }

// lerpZ interpolates elevation, staying undefined if either end is.
func lerpZ(z0, z1, t float64) float64 {
	if math.IsNaN(z0) || math.IsNaN(z1) {
		return math.NaN()
	}
	return z0 + (z1-z0)*t
}

// Controls holds the two inner control points of a cubic Bézier segment.
type Controls [2]Point

// Segment is one piece of a path between two consecutive vertices.
type Segment struct {
	P0, P1 Point

	// Ctrl holds the control points of a Bézier segment and is nil for
	// straight segments.
	Ctrl *Controls
}

// IsLine reports whether s is straight.
func (s Segment) IsLine() bool { return s.Ctrl == nil }

func (s Segment) line() curve.Line { return curve.Line{P0: s.P0.xy(), P1: s.P1.xy()} }

func (s Segment) cubic() curve.CubicBez {
	return curve.CubicBez{P0: s.P0.xy(), P1: s.Ctrl[0].xy(), P2: s.Ctrl[1].xy(), P3: s.P1.xy()}
}

// Eval returns the point at parameter t in [0, 1].
func (s Segment) Eval(t float64) Point {
	var p curve.Point
	if s.IsLine() {
		p = s.line().Eval(t)
	} else {
		p = s.cubic().Eval(t)
	}
	return fromCurve(p, lerpZ(s.P0.Z, s.P1.Z, t))
}

// Direction returns the direction of s used for angular ordering. For a
// straight segment this is the segment vector. For a Bézier segment it is
// the tangent at parameter 1.
func (s Segment) Direction() curve.Vec2 {
	if s.IsLine() {
		d, _ := s.line().Tangents()
		return d
	}
	_, d := s.cubic().Tangents()
	return d
}

// Length returns the horizontal length of s.
func (s Segment) Length() float64 {
	if s.IsLine() {
		return s.P0.DistanceXY(s.P1)
	}
	l := 0.0
	prev := s.P0
	for i := 1; i <= bezierSteps; i++ {
		p := s.Eval(float64(i) / bezierSteps)
		l += prev.DistanceXY(p)
		prev = p
	}
	return l
}

// Path is an ordered sequence of vertices. Segments listed in Curves are
// cubic Bézier segments keyed by the index of their start vertex; all
// others are straight.
type Path struct {
	Points []Point
	Curves map[int]Controls `codec:",omitempty"`
	ZAware bool
}

// NewPath returns a straight-segment path through pts. The path is Z aware
// if any of the points has a defined elevation.
func NewPath(pts ...Point) Path {
	p := Path{Points: append([]Point(nil), pts...)}
	for _, pt := range pts {
		if pt.HasZ() {
			p.ZAware = true
			break
		}
	}
	return p
}

// IsEmpty reports whether p has fewer than two vertices.
func (p Path) IsEmpty() bool { return len(p.Points) < 2 }

// SegmentCount returns the number of segments of p.
func (p Path) SegmentCount() int {
	if len(p.Points) < 2 {
		return 0
	}
	return len(p.Points) - 1
}

// Start returns the first vertex of p.
func (p Path) Start() Point { return p.Points[0] }

// End returns the last vertex of p.
func (p Path) End() Point { return p.Points[len(p.Points)-1] }

// Segment returns segment i of p.
func (p Path) Segment(i int) Segment {
	s := Segment{P0: p.Points[i], P1: p.Points[i+1]}
	if c, ok := p.Curves[i]; ok {
		cc := c
		s.Ctrl = &cc
	}
	return s
}

// IsLinear reports whether all segments of p are straight.
func (p Path) IsLinear() bool { return len(p.Curves) == 0 }

// Closed reports whether the first and last vertex coincide within tol.
func (p Path) Closed(tol float64) bool {
	return len(p.Points) > 2 && p.Start().EqualXY(p.End(), tol)
}

// Length returns the horizontal length of p.
func (p Path) Length() float64 {
	l := 0.0
	for i := 0; i < p.SegmentCount(); i++ {
		l += p.Segment(i).Length()
	}
	return l
}

// Clone returns a deep copy of p.
func (p Path) Clone() Path {
	o := Path{Points: append([]Point(nil), p.Points...), ZAware: p.ZAware}
	if len(p.Curves) > 0 {
		o.Curves = make(map[int]Controls, len(p.Curves))
		for k, v := range p.Curves {
			o.Curves[k] = v
		}
	}
	return o
}

// Reverse returns p with the opposite orientation.
func (p Path) Reverse() Path {
	n := len(p.Points)
	o := Path{Points: make([]Point, n), ZAware: p.ZAware}
	for i, pt := range p.Points {
		o.Points[n-1-i] = pt
	}
	if len(p.Curves) > 0 {
		o.Curves = make(map[int]Controls, len(p.Curves))
		for k, c := range p.Curves {
			o.Curves[n-2-k] = Controls{c[1], c[0]}
		}
	}
	return o
}

// Linearize returns p with every Bézier segment replaced by straight pieces.
func (p Path) Linearize() Path {
	if p.IsLinear() {
		return p.Clone()
	}
	o := Path{ZAware: p.ZAware}
	if len(p.Points) > 0 {
		o.Points = append(o.Points, p.Points[0])
	}
	for i := 0; i < p.SegmentCount(); i++ {
		s := p.Segment(i)
		if s.IsLine() {
			o.Points = append(o.Points, s.P1)
			continue
		}
		for j := 1; j <= bezierSteps; j++ {
			if j == bezierSteps {
				o.Points = append(o.Points, s.P1)
			} else {
				o.Points = append(o.Points, s.Eval(float64(j)/bezierSteps))
			}
		}
	}
	return o
}

// WithZ returns a Z-aware copy of p. Vertices without elevation keep an
// undefined Z.
func (p Path) WithZ() Path {
	o := p.Clone()
	o.ZAware = true
	return o
}

// DropZ returns a copy of p with all elevations undefined. The Z awareness
// of p is kept.
func (p Path) DropZ() Path {
	o := p.Clone()
	for i := range o.Points {
		o.Points[i].Z = math.NaN()
	}
	return o
}

// Bounds returns the horizontal extent of the vertices of p.
func (p Path) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, pt := range p.Linearize().Points {
		b.Extend(geom.NewBoundsPoint(pt.geom()))
	}
	return b
}

// Equal reports whether p and o have the same vertices within tol,
// including elevation when both points carry one, and the same segment
// kinds.
func (p Path) Equal(o Path, tol float64) bool {
	if len(p.Points) != len(o.Points) || len(p.Curves) != len(o.Curves) {
		return false
	}
	for i, pt := range p.Points {
		q := o.Points[i]
		if !pt.EqualXY(q, tol) {
			return false
		}
		if pt.HasZ() != q.HasZ() || (pt.HasZ() && math.Abs(pt.Z-q.Z) > tol) {
			return false
		}
	}
	for k, c := range p.Curves {
		oc, ok := o.Curves[k]
		if !ok || !c[0].EqualXY(oc[0], tol) || !c[1].EqualXY(oc[1], tol) {
			return false
		}
	}
	return true
}

// Type is the kind of a geometry.
type Type int

// Geometry types.
const (
	UnknownType Type = iota
	PointType
	Polyline
	Polygon
	Multipatch
)

func (t Type) String() string {
	switch t {
	case PointType:
		return "Point"
	case Polyline:
		return "Polyline"
	case Polygon:
		return "Polygon"
	case Multipatch:
		return "Multipatch"
	default:
		return "Unknown"
	}
}

// Geometry is a multi-part geometry. Polyline parts are paths, polygon
// parts are closed rings, and multipatch parts are the rings of its
// patches.
type Geometry struct {
	Type   Type
	Parts  []Path
	ZAware bool
}

// NewPolyline returns a polyline made of the given paths.
func NewPolyline(parts ...Path) Geometry {
	g := Geometry{Type: Polyline, Parts: parts}
	g.ZAware = anyZAware(parts)
	return g
}

// NewPolygon returns a polygon made of the given rings. Rings that are not
// closed are closed by repeating their first vertex.
func NewPolygon(rings ...Path) Geometry {
	g := Geometry{Type: Polygon}
	for _, r := range rings {
		if len(r.Points) > 0 && !r.Start().EqualXY(r.End(), 0) {
			r = r.Clone()
			r.Points = append(r.Points, r.Points[0])
		}
		g.Parts = append(g.Parts, r)
	}
	g.ZAware = anyZAware(rings)
	return g
}

func anyZAware(parts []Path) bool {
	for _, p := range parts {
		if p.ZAware {
			return true
		}
	}
	return false
}

// IsEmpty reports whether g has no non-empty part.
func (g Geometry) IsEmpty() bool {
	for _, p := range g.Parts {
		if !p.IsEmpty() {
			return false
		}
	}
	return true
}

// Boundary returns the linear boundary of g: the paths of a polyline or
// the rings of a polygon.
func (g Geometry) Boundary() []Path {
	o := make([]Path, 0, len(g.Parts))
	for _, p := range g.Parts {
		if !p.IsEmpty() {
			o = append(o, p)
		}
	}
	return o
}

// Clone returns a deep copy of g.
func (g Geometry) Clone() Geometry {
	o := Geometry{Type: g.Type, ZAware: g.ZAware, Parts: make([]Path, len(g.Parts))}
	for i, p := range g.Parts {
		o.Parts[i] = p.Clone()
	}
	return o
}

// Length returns the total length of the parts of g.
func (g Geometry) Length() float64 {
	l := 0.0
	for _, p := range g.Parts {
		l += p.Length()
	}
	return l
}

// Area returns the area of a polygon, taking holes into account. It is
// zero for other geometry types.
func (g Geometry) Area() float64 {
	if g.Type != Polygon {
		return 0
	}
	return g.geomPolygon().Area()
}

// Bounds returns the horizontal extent of g.
func (g Geometry) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range g.Parts {
		b.Extend(p.Bounds())
	}
	return b
}

// Equal reports whether g and o have the same type and equal parts within
// tol.
func (g Geometry) Equal(o Geometry, tol float64) bool {
	if g.Type != o.Type || len(g.Parts) != len(o.Parts) {
		return false
	}
	for i, p := range g.Parts {
		if !p.Equal(o.Parts[i], tol) {
			return false
		}
	}
	return true
}

func (g Geometry) geomPolygon() geom.Polygon {
	o := make(geom.Polygon, 0, len(g.Parts))
	for _, p := range g.Parts {
		o = append(o, toGeomPoints(p.Linearize().Points))
	}
	return o
}

func toGeomPoints(pts []Point) []geom.Point {
	o := make([]geom.Point, len(pts))
	for i, p := range pts {
		o[i] = p.geom()
	}
	return o
}

func fromGeomPoints(pts []geom.Point) []Point {
	o := make([]Point, len(pts))
	for i, p := range pts {
		o[i] = Pt(p.X, p.Y)
	}
	return o
}

// ToGeom converts g into the equivalent two-dimensional geom value:
// a LineString for single-part polylines, a MultiLineString otherwise, and
// a Polygon for polygons.
func (g Geometry) ToGeom() (geom.Geom, error) {
	switch g.Type {
	case Polyline:
		if len(g.Parts) == 1 {
			return geom.LineString(toGeomPoints(g.Parts[0].Linearize().Points)), nil
		}
		ml := make(geom.MultiLineString, len(g.Parts))
		for i, p := range g.Parts {
			ml[i] = toGeomPoints(p.Linearize().Points)
		}
		return ml, nil
	case Polygon:
		return g.geomPolygon(), nil
	case PointType:
		if len(g.Parts) == 1 && len(g.Parts[0].Points) == 1 {
			return g.Parts[0].Points[0].geom(), nil
		}
	}
	return nil, fmt.Errorf("geometry: cannot convert %v to geom", g.Type)
}

// FromGeom converts a geom value into a Geometry.
func FromGeom(gg geom.Geom) (Geometry, error) {
	switch t := gg.(type) {
	case geom.Point:
		return Geometry{Type: PointType, Parts: []Path{{Points: []Point{Pt(t.X, t.Y)}}}}, nil
	case geom.LineString:
		return NewPolyline(Path{Points: fromGeomPoints(t)}), nil
	case geom.MultiLineString:
		parts := make([]Path, len(t))
		for i, l := range t {
			parts[i] = Path{Points: fromGeomPoints(l)}
		}
		return NewPolyline(parts...), nil
	case geom.Polygon:
		rings := make([]Path, len(t))
		for i, r := range t {
			rings[i] = Path{Points: fromGeomPoints(r)}
		}
		return NewPolygon(rings...), nil
	default:
		return Geometry{}, fmt.Errorf("geometry: unsupported geom type %T", gg)
	}
}
