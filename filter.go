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
	"github.com/ctessum/geom"
	"github.com/prosuite/changealong/geometry"
)

// curveFilter marks subcurves that the filter options exclude.
type curveFilter struct {
	opts      ReshapeCurveFilterOptions
	tolerance float64

	sourceBoundary []geometry.Path
	targets        []*Feature

	// buffer is the area around the sources used by
	// ExcludeOutsideTolerance.
	buffer geometry.Geometry
}

func newCurveFilter(opts ReshapeCurveFilterOptions, sources, targets []*Feature, tolerance float64) *curveFilter {
	f := &curveFilter{opts: opts, tolerance: tolerance, targets: targets}
	for _, s := range sources {
		f.sourceBoundary = append(f.sourceBoundary, s.Shape.Boundary()...)
	}
	if opts.ExcludeOutsideTolerance && len(f.sourceBoundary) > 0 {
		f.buffer = geometry.BufferGeometry(f.sourceBoundary, opts.ExcludeTolerance+tolerance)
	}
	return f
}

// apply sets IsFiltered on every curve the options exclude. source
// resolves the source feature of a curve.
func (f *curveFilter) apply(curves []*Subcurve, source func(*Subcurve) *Feature) {
	if !f.opts.active() {
		return
	}
	for _, c := range curves {
		if f.excluded(c, source(c)) {
			c.IsFiltered = true
		}
	}
}

func (f *curveFilter) excluded(c *Subcurve, source *Feature) bool {
	p := c.Path().Linearize()
	if p.IsEmpty() {
		return true
	}
	if ext := f.opts.extents(); len(ext) > 0 && !overlapsAny(p.Bounds(), ext) {
		return true
	}
	if f.opts.ExcludeOutsideTolerance && f.outsideTolerance(p) {
		return true
	}
	if source == nil || source.Shape.Type != geometry.Polygon {
		return false
	}
	mid := p.Midpoint()
	outside := geometry.Within(mid, source.Shape) == geom.Outside
	if f.opts.ExcludeOutsideSource && outside {
		return true
	}
	if f.opts.ExcludeResultingInOverlaps && f.overlapsTarget(p, mid, outside, source) {
		return true
	}
	return false
}

func overlapsAny(b *geom.Bounds, extents []Envelope) bool {
	for _, e := range extents {
		if e.Bounds().Overlaps(b) {
			return true
		}
	}
	return false
}

func (f *curveFilter) outsideTolerance(p geometry.Path) bool {
	limit := f.opts.ExcludeTolerance + f.tolerance
	for i, v := range p.Points {
		if geometry.DistanceToPaths(v, f.sourceBoundary) > limit {
			return true
		}
		if i > 0 {
			mid := p.Segment(i - 1).Eval(0.5)
			if geometry.DistanceToPaths(mid, f.sourceBoundary) > limit {
				return true
			}
		}
	}
	return false
}

// overlapsTarget reports whether applying p to the polygon source would
// make it overlap a target polygon: p runs inside another target, or p
// lies outside the source on the boundary of a target that already
// overlaps the source.
func (f *curveFilter) overlapsTarget(p geometry.Path, mid geometry.Point, outside bool, source *Feature) bool {
	for _, t := range f.targets {
		if t.Shape.Type != geometry.Polygon || t.Reference() == source.Reference() {
			continue
		}
		onEdge := geometry.DistanceToPaths(mid, t.Shape.Boundary()) <= f.tolerance
		switch {
		case onEdge:
			if outside && geometry.OverlapArea(source.Shape, t.Shape) > f.tolerance*f.tolerance {
				return true
			}
		case geometry.Within(mid, t.Shape) == geom.Inside:
			return true
		}
	}
	return false
}
