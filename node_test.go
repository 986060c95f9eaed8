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
	"math"
	"reflect"
	"testing"

	"github.com/prosuite/changealong/geometry"
)

func TestNodeKey(t *testing.T) {
	tests := []struct {
		a, b  geometry.Point
		equal bool
	}{
		{a: geometry.Pt(2600000.1234, 1200000.5678), b: geometry.Pt(2600000.12341, 1200000.56779), equal: true},
		{a: geometry.Pt(5, 1), b: geometry.Pt(5+1e-9, 1-1e-9), equal: true},
		{a: geometry.Pt(5, 1), b: geometry.Pt(5.001, 1), equal: false},
		{a: geometry.Pt(-3.25, 7), b: geometry.Pt(-3.25, 7), equal: true},
	}
	for _, test := range tests {
		t.Run(test.a.String(), func(t *testing.T) {
			r := NewNodeRegistry()
			na, nb := r.Node(test.a), r.Node(test.b)
			if have := na.Equal(nb); have != test.equal {
				t.Errorf("equal: have %v, want %v (%v, %v)", have, test.equal, na.Key(), nb.Key())
			}
			if have := na == nb; have != test.equal {
				t.Errorf("same node: have %v, want %v", have, test.equal)
			}
			set := map[NodeKey]bool{na.Key(): true}
			if set[nb.Key()] != test.equal {
				t.Errorf("hash lookup: have %v, want %v", set[nb.Key()], test.equal)
			}
		})
	}
}

func TestRoundSignificant(t *testing.T) {
	for _, test := range []struct{ in, want float64 }{
		{in: 123456789, want: 123456800},
		{in: 0.000123456789, want: 0.0001234568},
		{in: -1.23456789, want: -1.234568},
		{in: 0, want: 0},
	} {
		if have := roundSignificant(test.in, 7); !approxEqual(have, test.want, 1e-12) {
			t.Errorf("roundSignificant(%g): have %g, want %g", test.in, have, test.want)
		}
	}
}

func approxEqual(a, b, rel float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	m := a
	if m < 0 {
		m = -m
	}
	return d <= rel*m+1e-300
}

// star returns subcurves that all start at the origin and point in the
// given directions.
func star(r *NodeRegistry, dirs ...[2]float64) []*Subcurve {
	var out []*Subcurve
	for _, d := range dirs {
		c := NewSubcurve(geometry.NewPath(geometry.Pt(0, 0), geometry.Pt(d[0], d[1])), false, false, nil)
		r.Attach(c)
		out = append(out, c)
	}
	return out
}

func TestNodeOrdered(t *testing.T) {
	r := NewNodeRegistry()
	c := star(r, [2]float64{1, 0}, [2]float64{0, 1}, [2]float64{-1, 0}, [2]float64{0, -1}, [2]float64{0, 2})
	n := r.Node(geometry.Pt(0, 0))

	l2r := n.Ordered(c[0], LeftToRight)
	want := []*Subcurve{c[1], c[4], c[2], c[3]}
	if !reflect.DeepEqual(l2r, want) {
		t.Errorf("left to right: have %v, want %v", l2r, want)
	}
	r2l := n.Ordered(c[0], RightToLeft)
	for i := range l2r {
		if r2l[i] != l2r[len(l2r)-1-i] {
			t.Fatalf("right to left is not the reverse of left to right: %v, %v", r2l, l2r)
		}
	}
	if !reflect.DeepEqual(n.Connected(), c) {
		t.Error("ordering changed the node")
	}
}

func TestNodeOrderedArrivingAtEnd(t *testing.T) {
	r := NewNodeRegistry()
	in := NewSubcurve(geometry.NewPath(geometry.Pt(-1, 0), geometry.Pt(0, 0)), false, false, nil)
	r.Attach(in)
	out := star(r, [2]float64{1, 0}, [2]float64{0, 1})
	n := r.Node(geometry.Pt(0, 0))
	if have := in.angleAt(n); !approxEqual(have, math.Pi, 1e-12) {
		t.Errorf("arriving angle: have %g, want π", have)
	}
	have := n.Ordered(in, LeftToRight)
	want := []*Subcurve{out[0], out[1]}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestNodeRegistryDetach(t *testing.T) {
	r := NewNodeRegistry()
	c := star(r, [2]float64{1, 0}, [2]float64{0, 1})
	r.Detach(c[0])
	n := r.Node(geometry.Pt(0, 0))
	if have := n.Connected(); len(have) != 1 || have[0] != c[1] {
		t.Errorf("have %v, want [%v]", have, c[1])
	}
	if len(r.Nodes()) != 3 {
		t.Errorf("nodes: have %d, want 3", len(r.Nodes()))
	}
}
