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
	"testing"

	"github.com/prosuite/changealong/geometry"
)

var (
	polygons = &ObjectClass{Name: "parcels", GeometryType: geometry.Polygon}
	lines    = &ObjectClass{Name: "roads", GeometryType: geometry.Polyline}
)

// squareFeature returns a polygon feature covering [0, size]² with z as
// the elevation function (nil for no elevation).
func squareFeature(oid int64, size float64, z func(x, y float64) float64) *Feature {
	pt := func(x, y float64) geometry.Point {
		if z == nil {
			return geometry.Pt(x, y)
		}
		return geometry.PtZ(x, y, z(x, y))
	}
	ring := geometry.NewPath(pt(0, 0), pt(0, size), pt(size, size), pt(size, 0), pt(0, 0))
	if z != nil {
		ring = ring.WithZ()
	}
	return &Feature{Class: polygons, ObjectID: oid, Shape: geometry.NewPolygon(ring)}
}

func bump() *Subcurve {
	return NewSubcurve(geometry.NewPath(
		geometry.Pt(3, 0), geometry.Pt(3, -4), geometry.Pt(7, -4), geometry.Pt(7, 0)), true, true, nil)
}

func TestApplyZsNoOpWithoutSourceZ(t *testing.T) {
	sources := []*Feature{squareFeature(1, 10, nil)}
	for _, zs := range []ZSource{ZTarget, ZInterpolatedSource, ZSourcePlane} {
		t.Run(zs.String(), func(t *testing.T) {
			c := bump()
			before := c.Path()
			model := &ZSettings{Source: zs, Targets: []*Feature{squareFeature(2, 20, func(x, y float64) float64 { return 3 })}}
			if err := ApplyZsToReshapeCurves(sources, []*Subcurve{c}, model); err != nil {
				t.Fatal(err)
			}
			after := c.Path()
			if &after.Points[0] != &before.Points[0] || fmt.Sprint(after) != fmt.Sprint(before) {
				t.Errorf("path changed: have %v, want %v", after, before)
			}
		})
	}
	c := bump()
	before := fmt.Sprint(c.Path())
	if err := ApplyZsToReshapeCurves([]*Feature{squareFeature(1, 10, func(x, y float64) float64 { return 1 })}, []*Subcurve{c}, nil); err != nil {
		t.Fatal(err)
	}
	if have := fmt.Sprint(c.Path()); have != before {
		t.Errorf("nil model changed path: %v", have)
	}
}

func TestApplyZs(t *testing.T) {
	plane := func(x, y float64) float64 { return x }
	tests := []struct {
		name    string
		zSource ZSource
		source  *Feature
		targets []*Feature
		want    []float64
	}{
		{
			name:    "interpolated",
			zSource: ZInterpolatedSource,
			source:  squareFeature(1, 10, func(x, y float64) float64 { return 100 }),
			want:    []float64{100, 100, 100, 100},
		},
		{
			name:    "plane",
			zSource: ZSourcePlane,
			source:  squareFeature(1, 10, plane),
			want:    []float64{3, 3, 7, 7},
		},
		{
			name:    "target",
			zSource: ZTarget,
			source:  squareFeature(1, 10, func(x, y float64) float64 { return 100 }),
			targets: []*Feature{{Class: lines, ObjectID: 5, Shape: geometry.NewPolyline(geometry.NewPath(
				geometry.PtZ(3, 0, 1), geometry.PtZ(3, -4, 2), geometry.PtZ(7, -4, 3), geometry.PtZ(7, 0, 4)).WithZ())}},
			want: []float64{1, 2, 3, 4},
		},
		{
			name:    "target without z",
			zSource: ZTarget,
			source:  squareFeature(1, 10, func(x, y float64) float64 { return 100 }),
			targets: []*Feature{{Class: lines, ObjectID: 5, Shape: geometry.NewPolyline(bump().Path())}},
			want:    []float64{100, 100, 100, 100},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := bump()
			model := &ZSettings{Source: test.zSource, Targets: test.targets}
			if err := ApplyZsToReshapeCurves([]*Feature{test.source}, []*Subcurve{c}, model); err != nil {
				t.Fatal(err)
			}
			p := c.Path()
			if !p.ZAware {
				t.Error("path should be Z aware")
			}
			for i, v := range p.Points {
				if math.Abs(v.Z-test.want[i]) > 1e-9 {
					t.Errorf("vertex %d: have %g, want %g", i, v.Z, test.want[i])
				}
			}
		})
	}
}

func TestApplyZsSkipsSourcesWithoutZ(t *testing.T) {
	flat := squareFeature(1, 10, nil)
	high := squareFeature(2, 10, func(x, y float64) float64 { return 50 })
	c := bump()
	ref := flat.Reference()
	c.Source = &ref
	before := fmt.Sprint(c.Path())
	model := &ZSettings{Source: ZInterpolatedSource}
	if err := ApplyZsToReshapeCurves([]*Feature{flat, high}, []*Subcurve{c}, model); err != nil {
		t.Fatal(err)
	}
	if have := fmt.Sprint(c.Path()); have != before {
		t.Errorf("have %v, want %v", have, before)
	}
}

func TestParseZSource(t *testing.T) {
	for _, z := range []ZSource{ZTarget, ZInterpolatedSource, ZSourcePlane} {
		have, err := ParseZSource(z.String())
		if err != nil || have != z {
			t.Errorf("have %v (%v), want %v", have, err, z)
		}
	}
	if _, err := ParseZSource("roof"); err == nil {
		t.Error("expected error")
	}
}
