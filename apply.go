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
	"github.com/prosuite/changealong/geometry"
	"github.com/sirupsen/logrus"
)

// chain is a path made of connected selected subcurves whose ends both
// lie on a source boundary.
type chain struct {
	path         geometry.Path
	insertPoints []geometry.Point
}

// chainSelection joins the selected subcurves into paths that start and
// end on boundary. Subcurves that cannot be connected to boundary at both
// ends are dropped.
func chainSelection(selected []*Subcurve, boundary []geometry.Path, tol float64, log logrus.FieldLogger) []chain {
	touches := func(pt geometry.Point) bool {
		return geometry.DistanceToPaths(pt, boundary) <= tol
	}
	used := make([]bool, len(selected))
	var out []chain
	for i, s := range selected {
		if used[i] || s.path.IsEmpty() {
			continue
		}
		p := s.path
		switch {
		case touches(p.Start()):
		case touches(p.End()):
			p = p.Reverse()
		default:
			continue
		}
		used[i] = true
		ch := chain{path: p, insertPoints: s.PotentialTargetInsertPoints()}
		for !touches(ch.path.End()) {
			j, next := nextInChain(selected, used, ch.path.End(), tol)
			if j < 0 {
				break
			}
			used[j] = true
			ch.path = geometry.Join(ch.path, next)
			ch.insertPoints = append(ch.insertPoints, selected[j].PotentialTargetInsertPoints()...)
		}
		if !touches(ch.path.End()) {
			log.WithField("start", ch.path.Start().String()).Debug("dropping open selection")
			continue
		}
		out = append(out, ch)
	}
	return out
}

// nextInChain returns the first unused subcurve with an end at pt, oriented
// to start at pt.
func nextInChain(selected []*Subcurve, used []bool, pt geometry.Point, tol float64) (int, geometry.Path) {
	for j, s := range selected {
		if used[j] || s.path.IsEmpty() {
			continue
		}
		if s.path.Start().EqualXY(pt, tol) {
			return j, s.path
		}
		if s.path.End().EqualXY(pt, tol) {
			return j, s.path.Reverse()
		}
	}
	return -1, geometry.Path{}
}

// applyReshape reshapes every source along the selected subcurves.
func applyReshape(sources []*Feature, selected []*Subcurve, tol float64, nonDefaultSide bool, z ZSettingsModel, log logrus.FieldLogger) ([]ResultObject, []chain, error) {
	var results []ResultObject
	var applied []chain
	for _, source := range sources {
		g := source.Shape
		changed := false
		for _, ch := range chainSelection(selected, g.Boundary(), tol, log) {
			p := ch.path
			if source.HasZ() && z != nil {
				var err error
				if p, err = z.ApplyZs(p.WithZ(), source); err != nil {
					return nil, nil, err
				}
			}
			var ok bool
			switch g.Type {
			case geometry.Polygon:
				g, ok = geometry.ReshapePolygon(g, p, tol, nonDefaultSide)
			case geometry.Polyline:
				g, ok = reshapeLine(g, p, tol)
			}
			if ok {
				changed = true
				applied = append(applied, ch)
			}
		}
		if changed {
			results = append(results, ResultObject{Feature: source, Geometry: g, Kind: Update})
		}
	}
	return results, applied, nil
}

func reshapeLine(g geometry.Geometry, p geometry.Path, tol float64) (geometry.Geometry, bool) {
	for i, part := range g.Parts {
		if r, ok := geometry.ReplaceSection(part, p, tol); ok {
			out := g.Clone()
			out.Parts[i] = r
			out.ZAware = g.ZAware || p.ZAware
			return out, true
		}
	}
	return g, false
}

// applyCut cuts every source along the selected subcurves. The largest
// piece of a source updates it, the others are inserted.
func applyCut(sources []*Feature, selected []*Subcurve, tol float64, z ZSettingsModel, log logrus.FieldLogger) ([]ResultObject, []chain, error) {
	var results []ResultObject
	var applied []chain
	for _, source := range sources {
		var pieces []geometry.Geometry
		switch source.Shape.Type {
		case geometry.Polygon:
			pieces = []geometry.Geometry{source.Shape}
			for _, ch := range chainSelection(selected, source.Shape.Boundary(), tol, log) {
				p := ch.path
				if source.HasZ() && z != nil {
					var err error
					if p, err = z.ApplyZs(p.WithZ(), source); err != nil {
						return nil, nil, err
					}
				}
				for k, piece := range pieces {
					if parts, ok := geometry.SplitPolygon(piece, p, tol); ok {
						pieces = append(pieces[:k], append(parts, pieces[k+1:]...)...)
						applied = append(applied, ch)
						break
					}
				}
			}
		case geometry.Polyline:
			pieces = cutLine(source.Shape, selected, tol)
		}
		if len(pieces) < 2 {
			continue
		}
		results = append(results, cutResults(source, pieces)...)
	}
	return results, applied, nil
}

// cutLine splits the parts of g at the ends of the selected subcurves that
// lie on g.
func cutLine(g geometry.Geometry, selected []*Subcurve, tol float64) []geometry.Geometry {
	boundary := g.Boundary()
	var cuts []geometry.Point
	for _, s := range selected {
		if s.path.IsEmpty() || geometry.DistanceToPaths(s.path.Midpoint(), boundary) > tol {
			continue
		}
		cuts = append(cuts, s.path.Start(), s.path.End())
	}
	var out []geometry.Geometry
	for _, part := range boundary {
		for _, p := range geometry.SplitPath(part, cuts, tol) {
			piece := geometry.NewPolyline(p)
			piece.ZAware = g.ZAware
			out = append(out, piece)
		}
	}
	return out
}

func cutResults(source *Feature, pieces []geometry.Geometry) []ResultObject {
	size := func(g geometry.Geometry) float64 {
		if g.Type == geometry.Polygon {
			return g.Area()
		}
		return g.Length()
	}
	largest := 0
	for i, p := range pieces {
		if size(p) > size(pieces[largest]) {
			largest = i
		}
	}
	results := []ResultObject{{Feature: source, Geometry: pieces[largest], Kind: Update}}
	for i, p := range pieces {
		if i != largest {
			results = append(results, ResultObject{Feature: source, Geometry: p, Kind: Insert})
		}
	}
	return results
}

// insertTargetVertices adds the insert points of the applied chains as
// vertices to the targets that pass through them. Targets that are also
// sources are left alone.
func insertTargetVertices(targets, sources []*Feature, applied []chain, tol float64) []ResultObject {
	isSource := make(map[GdbObjectReference]bool)
	for _, s := range sources {
		isSource[s.Reference()] = true
	}
	var results []ResultObject
	for _, t := range targets {
		if isSource[t.Reference()] || t.Shape.Type == geometry.PointType || t.Shape.Type == geometry.Multipatch {
			continue
		}
		g := t.Shape.Clone()
		changed := false
		for _, ch := range applied {
			for _, pt := range ch.insertPoints {
				for i, part := range g.Parts {
					if p, ok := geometry.InsertVertex(part, pt, tol); ok {
						g.Parts[i] = p
						changed = true
					}
				}
			}
		}
		if changed {
			results = append(results, ResultObject{Feature: t, Geometry: g, Kind: Update})
		}
	}
	return results
}

// updated returns copies of the features with the geometries of their
// Update results.
func updated(features []*Feature, results []ResultObject) []*Feature {
	shapes := make(map[GdbObjectReference]geometry.Geometry)
	for _, r := range results {
		if r.Kind == Update {
			shapes[r.Feature.Reference()] = r.Geometry
		}
	}
	out := make([]*Feature, len(features))
	for i, f := range features {
		if g, ok := shapes[f.Reference()]; ok {
			out[i] = &Feature{Class: f.Class, ObjectID: f.ObjectID, Shape: g}
		} else {
			out[i] = f
		}
	}
	return out
}
