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
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"github.com/prosuite/changealong/geometry"
)

func lineFeature(oid int64, coords ...float64) *Feature {
	var pts []geometry.Point
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, geometry.Pt(coords[i], coords[i+1]))
	}
	return &Feature{Class: lines, ObjectID: oid, Shape: geometry.NewPolyline(geometry.NewPath(pts...))}
}

func polygonFeature(oid int64, coords ...float64) *Feature {
	f := lineFeature(oid, coords...)
	return &Feature{Class: polygons, ObjectID: oid, Shape: geometry.NewPolygon(f.Shape.Parts...)}
}

func green(c *Subcurve) bool { return c.CanReshape() && !c.IsFiltered }

func count(curves []*Subcurve, f func(*Subcurve) bool) int {
	n := 0
	for _, c := range curves {
		if f(c) {
			n++
		}
	}
	return n
}

func TestCalculateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLocalService(0)
	sources := []*Feature{squareFeature(1, 10, nil)}
	targets := []*Feature{lineFeature(2, 3, 0, 3, -4, 7, -4, 7, 0)}

	sets := make(map[string]*CurveSet)
	var err error
	if sets["reshape"], err = s.CalculateReshapeLines(ctx, sources, targets, TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil); err != nil {
		t.Fatal(err)
	}
	if sets["cut"], err = s.CalculateCutLines(ctx, sources, targets, TargetBufferOptions{}, nil, nil, ZTarget); err != nil {
		t.Fatal(err)
	}
	results, set, err := s.ApplyReshapeLines(ctx, sources, targets, nil, TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("apply: have %d results, want 0", len(results))
	}
	sets["apply"] = set
	for name, set := range sets {
		if set.Usability() != Undefined || set.Len() != 0 {
			t.Errorf("%s: have %v, want empty Undefined set", name, set)
		}
	}
}

func TestCalculateUsability(t *testing.T) {
	square := squareFeature(1, 10, nil)
	tests := []struct {
		name             string
		sources, targets []*Feature
		want             Usability
		curves           int
	}{
		{name: "no source", targets: []*Feature{square}, want: NoSource},
		{name: "no target", sources: []*Feature{square}, want: NoTarget},
		{name: "congruent", sources: []*Feature{square}, targets: []*Feature{squareFeature(2, 10, nil)}, want: AlreadyCongruent},
		{
			name:    "unconnected",
			sources: []*Feature{square},
			targets: []*Feature{lineFeature(2, 20, 20, 30, 30)},
			want:    InsufficientOrAmbiguousReshapeCurves,
			curves:  1,
		},
		{
			name:    "reshape",
			sources: []*Feature{square},
			targets: []*Feature{lineFeature(2, 3, 0, 3, -4, 7, -4, 7, 0)},
			want:    CanReshape,
			curves:  1,
		},
	}
	s := NewLocalService(0)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			set, err := s.CalculateReshapeLines(context.Background(), test.sources, test.targets,
				TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if set.Usability() != test.want {
				t.Errorf("usability: have %v, want %v", set.Usability(), test.want)
			}
			if set.Len() != test.curves {
				t.Errorf("curves: have %d, want %d", set.Len(), test.curves)
			}
		})
	}
}

func TestUnsupportedSource(t *testing.T) {
	s := NewLocalService(0)
	point := &Feature{Class: &ObjectClass{Name: "trees", GeometryType: geometry.PointType},
		Shape: geometry.Geometry{Type: geometry.PointType, Parts: []geometry.Path{geometry.NewPath(geometry.Pt(1, 1))}}}
	_, err := s.CalculateReshapeLines(context.Background(), []*Feature{point}, []*Feature{squareFeature(2, 10, nil)},
		TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil)
	if !errors.Is(err, ErrUnsupportedGeometry) {
		t.Errorf("have %v, want %v", err, ErrUnsupportedGeometry)
	}
}

func TestReshapePolygon(t *testing.T) {
	s := NewLocalService(0)
	ctx := context.Background()
	sources := []*Feature{squareFeature(1, 10, nil)}
	targets := []*Feature{lineFeature(2, 3, 0, 3, -4, 7, -4, 7, 0)}

	set, err := s.CalculateReshapeLines(ctx, sources, targets, TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != CanReshape {
		t.Fatalf("usability: have %v, want CanReshape", set.Usability())
	}
	c := set.Curves()[0]
	if c.Source == nil || *c.Source != sources[0].Reference() {
		t.Errorf("source: have %v, want %v", c.Source, sources[0].Reference())
	}
	if c.StitchAtFrom() || c.StitchAtTo() {
		t.Error("ends are target vertices, not stitch points")
	}

	for _, test := range []struct {
		nonDefaultSide bool
		area           float64
	}{{false, 116}, {true, 16}} {
		results, next, err := s.ApplyReshapeLines(ctx, sources, targets, set.GetSelectedReshapeCurves(green, true),
			TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil, false, test.nonDefaultSide)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].Kind != Update || results[0].Feature != sources[0] {
			t.Fatalf("results: %# v", pretty.Formatter(results))
		}
		if have := results[0].Geometry.Area(); math.Abs(have-test.area) > 1e-9 {
			t.Errorf("area (non-default side %v): have %g, want %g", test.nonDefaultSide, have, test.area)
		}
		if test.nonDefaultSide {
			continue
		}
		if next.Usability() != AlreadyCongruent {
			t.Errorf("recalculated usability: have %v, want AlreadyCongruent", next.Usability())
		}
	}
}

func TestReshapeJoinsNonForkingCandidates(t *testing.T) {
	s := NewLocalService(0)
	sources := []*Feature{squareFeature(1, 10, nil)}
	targets := []*Feature{
		lineFeature(2, 3, 0, 3, -4, 7, -4),
		lineFeature(3, 7, -4, 7, 0),
	}
	set, err := s.CalculateReshapeLines(context.Background(), sources, targets, TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != CanReshape || set.Len() != 1 {
		t.Fatalf("have %v, want one green curve", set)
	}
	c := set.Curves()[0]
	if have := len(c.Path().Points); have != 4 {
		t.Errorf("merged vertices: have %d, want 4", have)
	}
	if len(c.ExtraTargetInsertPoints) != 1 || !c.ExtraTargetInsertPoints[0].EqualXY(geometry.Pt(7, -4), 0) {
		t.Errorf("extra insert points: have %v, want [(7, -4)]", c.ExtraTargetInsertPoints)
	}
}

func TestReshapeAmbiguousCandidates(t *testing.T) {
	s := NewLocalService(0)
	ctx := context.Background()
	sources := []*Feature{squareFeature(1, 10, nil)}
	targets := []*Feature{
		lineFeature(2, 3, 0, 3, -4, 5, -4),
		lineFeature(3, 5, -4, 7, -4, 7, 0),
		lineFeature(4, 5, -4, 5, 0),
	}
	set, err := s.CalculateReshapeLines(ctx, sources, targets, TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != InsufficientOrAmbiguousReshapeCurves {
		t.Fatalf("usability: have %v", set.Usability())
	}
	curves := set.Curves()
	if have := count(curves, (*Subcurve).IsReshapeMemberCandidate); have != 3 {
		t.Errorf("candidates: have %d, want 3", have)
	}
	n := curves[0].ToNode()
	if n == nil || len(n.Connected()) != 3 {
		t.Fatalf("fork node: have %v", n)
	}

	set.PreSelectCurves(func(c *Subcurve) bool { return c.Path().Start().X != 5 || c.Path().End().X != 5 })
	selected := set.GetSelectedReshapeCurves(func(*Subcurve) bool { return false }, true)
	if len(selected) != 2 {
		t.Fatalf("selected: have %v", selected)
	}
	results, next, err := s.ApplyReshapeLines(ctx, sources, targets, selected,
		TargetBufferOptions{}, ReshapeCurveFilterOptions{}, nil, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || math.Abs(results[0].Geometry.Area()-116) > 1e-9 {
		t.Errorf("results: %# v", pretty.Formatter(results))
	}
	if next.Len() != 1 || next.Curves()[0].IsReshapeMemberCandidate() {
		t.Errorf("recalculated: have %v, want one dangling curve", next)
	}
}

func overlapping() (sources, targets []*Feature) {
	return []*Feature{squareFeature(1, 10, nil)},
		[]*Feature{polygonFeature(2, 5, -5, 5, 5, 15, 5, 15, -5, 5, -5)}
}

func TestReshapeFilterOverlaps(t *testing.T) {
	s := NewLocalService(0)
	ctx := context.Background()
	sources, targets := overlapping()
	filter := ReshapeCurveFilterOptions{ExcludeResultingInOverlaps: true}
	set, err := s.CalculateReshapeLines(ctx, sources, targets, TargetBufferOptions{}, filter, nil)
	if err != nil {
		t.Fatal(err)
	}
	curves := set.Curves()
	if set.Usability() != CanReshape || len(curves) != 2 {
		t.Fatalf("have %v, want two curves", set)
	}
	if have := count(curves, (*Subcurve).CanReshape); have != 2 {
		t.Errorf("reshapable: have %d, want 2", have)
	}
	if have := count(curves, func(c *Subcurve) bool { return c.IsFiltered }); have != 1 {
		t.Errorf("filtered: have %d, want 1", have)
	}
	inside := set.GetSelectedReshapeCurves(green, false)
	if len(inside) != 1 || math.Abs(inside[0].Path().Length()-10) > 1e-9 {
		t.Fatalf("inside curve: have %v", inside)
	}
	if !inside[0].StitchAtFrom() || !inside[0].StitchAtTo() {
		t.Error("both ends of the inside curve are stitch points")
	}

	results, _, err := s.ApplyReshapeLines(ctx, sources, targets, inside, TargetBufferOptions{}, filter, nil, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results: %# v", pretty.Formatter(results))
	}
	if have := results[0].Geometry.Area(); math.Abs(have-75) > 1e-9 {
		t.Errorf("area: have %g, want 75", have)
	}
	target := results[1]
	if target.Feature != targets[0] || target.Kind != Update {
		t.Errorf("target result: %# v", pretty.Formatter(target))
	}
	if have := len(target.Geometry.Parts[0].Points); have != 7 {
		t.Errorf("target vertices: have %d, want 7", have)
	}
}

func TestReshapeFilterOutsideSource(t *testing.T) {
	s := NewLocalService(0)
	sources, targets := overlapping()
	set, err := s.CalculateReshapeLines(context.Background(), sources, targets, TargetBufferOptions{},
		ReshapeCurveFilterOptions{ExcludeOutsideSource: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range set.Curves() {
		outside := geometry.Within(c.Path().Midpoint(), sources[0].Shape) != geom.Inside
		if c.IsFiltered != outside {
			t.Errorf("%v: filtered %v, outside %v", c, c.IsFiltered, outside)
		}
	}
}

func TestReshapeFilterTolerance(t *testing.T) {
	s := NewLocalService(0)
	sources, targets := overlapping()
	filter := ReshapeCurveFilterOptions{ExcludeOutsideTolerance: true, ExcludeTolerance: 6}
	set, err := s.CalculateReshapeLines(context.Background(), sources, targets, TargetBufferOptions{}, filter, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.FilterBuffer().IsEmpty() {
		t.Error("filter buffer expected")
	}
	if have := count(set.Curves(), func(c *Subcurve) bool { return c.IsFiltered }); have != 1 {
		t.Errorf("filtered: have %d, want 1", have)
	}
}

func TestCutLine(t *testing.T) {
	s := NewLocalService(0)
	ctx := context.Background()
	sources := []*Feature{lineFeature(1, 0, 0, 10, 0)}
	targets := []*Feature{lineFeature(2, 5, -5, 5, 5)}

	set, err := s.CalculateCutLines(ctx, sources, targets, TargetBufferOptions{}, nil, nil, ZTarget)
	if err != nil {
		t.Fatal(err)
	}
	curves := set.Reshapeable()
	if len(curves) != 2 {
		t.Fatalf("curves: have %v, want 2", curves)
	}
	want := []geometry.Path{
		geometry.NewPath(geometry.Pt(0, 0), geometry.Pt(5, 0)),
		geometry.NewPath(geometry.Pt(5, 0), geometry.Pt(10, 0)),
	}
	for i, c := range curves {
		if !c.Path().Equal(want[i], 1e-9) {
			t.Errorf("curve %d: have %v, want %v", i, c.Path(), want[i])
		}
	}
	if curves[0].ToNode() != curves[1].FromNode() || !curves[0].ToNode().Equal(curves[1].FromNode()) {
		t.Errorf("curves do not share a node: %v, %v", curves[0].ToNode(), curves[1].FromNode())
	}

	results, _, err := s.ApplyCutLines(ctx, sources, targets, curves, TargetBufferOptions{}, nil, nil, ZTarget, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Kind != Update || results[1].Kind != Insert {
		t.Fatalf("results: %# v", pretty.Formatter(results))
	}
	total := 0.0
	for _, r := range results {
		if r.Feature != sources[0] {
			t.Errorf("result references %v, want %v", r.Feature, sources[0])
		}
		total += r.Geometry.Length()
	}
	if math.Abs(total-10) > 1e-9 {
		t.Errorf("total length: have %g, want 10", total)
	}
	a, b := results[0].Geometry.Parts[0], results[1].Geometry.Parts[0]
	if !a.End().EqualXY(b.Start(), 1e-9) && !a.Start().EqualXY(b.End(), 1e-9) {
		t.Errorf("pieces do not meet: %v, %v", a, b)
	}
}

func TestCutPolygon(t *testing.T) {
	s := NewLocalService(0)
	ctx := context.Background()
	sources := []*Feature{squareFeature(1, 10, nil)}
	targets := []*Feature{lineFeature(2, 5, -1, 5, 11)}

	set, err := s.CalculateCutLines(ctx, sources, targets, TargetBufferOptions{}, nil, nil, ZTarget)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != CanReshape || set.Len() != 1 {
		t.Fatalf("have %v, want one green curve", set)
	}
	results, _, err := s.ApplyCutLines(ctx, sources, targets, set.Curves(), TargetBufferOptions{}, nil, nil, ZTarget, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results: %# v", pretty.Formatter(results))
	}
	for _, r := range results {
		if have := r.Geometry.Area(); math.Abs(have-50) > 1e-9 {
			t.Errorf("%v area: have %g, want 50", r.Kind, have)
		}
	}
}

func TestTargetBuffer(t *testing.T) {
	s := NewLocalService(4)
	sources := []*Feature{squareFeature(1, 10, nil)}
	targets := []*Feature{lineFeature(2, 5, -3, 5, 3)}
	set, err := s.CalculateReshapeLines(context.Background(), sources, targets,
		NewTargetBufferOptions(1, 0.5), ReshapeCurveFilterOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != CanReshape {
		t.Errorf("usability: have %v, want CanReshape", set.Usability())
	}
}
