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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// SegmentRef identifies a segment within an indexed set of paths.
type SegmentRef struct {
	Part, Index int
	Segment     Segment
}

// indexedSegment is the value stored in the tree.
type indexedSegment struct {
	geom.LineString
	ref SegmentRef
}

// SegmentIndex is a spatial index over the segments of a set of paths.
// Paths are flattened before they are indexed.
type SegmentIndex struct {
	tree  *rtree.Rtree
	Paths []Path
}

// NewSegmentIndex indexes the segments of paths.
func NewSegmentIndex(paths []Path) *SegmentIndex {
	ix := &SegmentIndex{
		tree:  rtree.NewTree(25, 50),
		Paths: make([]Path, len(paths)),
	}
	for i, p := range paths {
		p = p.Linearize()
		ix.Paths[i] = p
		for j := 0; j < p.SegmentCount(); j++ {
			s := p.Segment(j)
			ix.tree.Insert(&indexedSegment{
				LineString: geom.LineString{s.P0.geom(), s.P1.geom()},
				ref:        SegmentRef{Part: i, Index: j, Segment: s},
			})
		}
	}
	return ix
}

// Search returns the segments whose extent intersects b, ordered by part
// and segment index.
func (ix *SegmentIndex) Search(b *geom.Bounds) []SegmentRef {
	found := ix.tree.SearchIntersect(b)
	o := make([]SegmentRef, 0, len(found))
	for _, g := range found {
		o = append(o, g.(*indexedSegment).ref)
	}
	sort.Slice(o, func(i, j int) bool {
		if o[i].Part != o[j].Part {
			return o[i].Part < o[j].Part
		}
		return o[i].Index < o[j].Index
	})
	return o
}

// HitVertex returns the part and vertex index of the first vertex within
// tol of pt.
func (ix *SegmentIndex) HitVertex(pt Point, tol float64) (part, vertex int, ok bool) {
	for _, ref := range ix.Search(pointBounds(pt, tol)) {
		if ref.Segment.P0.EqualXY(pt, tol) {
			return ref.Part, ref.Index, true
		}
		if ref.Segment.P1.EqualXY(pt, tol) {
			return ref.Part, ref.Index + 1, true
		}
	}
	return 0, 0, false
}

// HitSegment returns the nearest segment within tol of pt.
func (ix *SegmentIndex) HitSegment(pt Point, tol float64) (SegmentRef, bool) {
	var best SegmentRef
	bestD, found := tol, false
	for _, ref := range ix.Search(pointBounds(pt, tol)) {
		if d, _ := nearestOnSegment(ref.Segment, pt); d <= bestD {
			best, bestD, found = ref, d, true
		}
	}
	return best, found
}

func pointBounds(pt Point, tol float64) *geom.Bounds {
	return segmentBounds(Segment{P0: pt, P1: pt}, tol)
}
