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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/prosuite/changealong/geometry"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// MinimumTolerance is the tolerance used when a caller asks for a zero
// tolerance.
const MinimumTolerance = 1e-7

// resolveTolerance returns the horizontal tolerance and the stitch point
// search tolerance of a calculation.
func resolveTolerance(tolerance *float64, sources []*Feature) (xy, stitch float64) {
	switch {
	case tolerance == nil:
		xy = sourceTolerance(sources)
		return xy, xy * 2 * math.Sqrt2
	case *tolerance <= 0:
		return MinimumTolerance, MinimumTolerance * 2 * math.Sqrt2
	default:
		return *tolerance, *tolerance
	}
}

// calculation holds the state shared by the subcurves of one calculation.
type calculation struct {
	ctx context.Context
	log logrus.FieldLogger

	tolerance, stitchTolerance float64

	targetPaths []geometry.Path
	targetIndex *geometry.SegmentIndex
	targetsZ    bool

	nodes      *NodeRegistry
	boundaries map[GdbObjectReference][]geometry.Path
}

func newCalculation(ctx context.Context, log logrus.FieldLogger, targets []*Feature, targetPaths []geometry.Path, tolerance *float64, sources []*Feature) *calculation {
	c := &calculation{
		ctx:         ctx,
		log:         log,
		targetPaths: targetPaths,
		targetIndex: geometry.NewSegmentIndex(targetPaths),
		nodes:       NewNodeRegistry(),
		boundaries:  make(map[GdbObjectReference][]geometry.Path),
	}
	c.tolerance, c.stitchTolerance = resolveTolerance(tolerance, sources)
	c.targetsZ = lo.SomeBy(targets, func(t *Feature) bool { return t.HasZ() })
	return c
}

func (c *calculation) cancelled() bool { return c.ctx.Err() != nil }

// sourceStatus is the outcome of calculating the curves of one source.
type sourceStatus int

const (
	sourceUnusable sourceStatus = iota
	sourceCongruent
	sourceUsable
)

// partOf returns the index of the boundary part nearest to pt.
func partOf(boundary []geometry.Path, pt geometry.Point) int {
	best, bestD := -1, math.Inf(1)
	for i, p := range boundary {
		if d := geometry.DistanceToPaths(pt, []geometry.Path{p}); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// touchingDifferentParts is nil for single-part boundaries and for paths
// that do not touch the boundary at both ends.
func (c *calculation) touchingDifferentParts(boundary []geometry.Path, p geometry.Path, touchFrom, touchTo bool) *bool {
	if len(boundary) < 2 || !touchFrom || !touchTo {
		return nil
	}
	v := partOf(boundary, p.Start()) != partOf(boundary, p.End())
	return &v
}

// newSubcurve creates a subcurve of source, records stitch points and
// attaches it to the node registry.
func (c *calculation) newSubcurve(source *Feature, p geometry.Path, boundary []geometry.Path, touchFrom, touchTo bool) *Subcurve {
	s := NewSubcurve(p, touchFrom, touchTo, c.touchingDifferentParts(boundary, p, touchFrom, touchTo))
	ref := source.Reference()
	s.Source = &ref
	if touchFrom {
		s.TargetSegmentAtFrom = c.stitchSegment(p.Start())
	}
	if touchTo {
		s.TargetSegmentAtTo = c.stitchSegment(p.End())
	}
	c.nodes.Attach(s)
	return s
}

// stitchSegment returns the target segment at pt if pt is not a target
// vertex.
func (c *calculation) stitchSegment(pt geometry.Point) *geometry.Segment {
	if _, _, ok := c.targetIndex.HitVertex(pt, c.stitchTolerance); ok {
		return nil
	}
	ref, ok := c.targetIndex.HitSegment(pt, c.stitchTolerance)
	if !ok {
		return nil
	}
	seg := ref.Segment
	return &seg
}

// sourceBoundary returns the boundary of source, clipped to the extents
// if any are given.
func sourceBoundary(source *Feature, extents []Envelope) []geometry.Path {
	boundary := source.Shape.Boundary()
	if len(extents) == 0 {
		return boundary
	}
	var clipped []geometry.Path
	for _, e := range extents {
		clipped = append(clipped, geometry.ClipToBounds(boundary, e.Bounds())...)
	}
	return clipped
}

func checkSources(sources []*Feature) error {
	for _, s := range sources {
		switch s.Shape.Type {
		case geometry.Polyline, geometry.Polygon:
		default:
			return fmt.Errorf("%w: source %v is %v", ErrUnsupportedGeometry, s, s.Shape.Type)
		}
	}
	return nil
}

// zTolerance returns the elevation tolerance for comparing the source with
// the targets, or NaN if elevations are not compared.
func (c *calculation) zTolerance(source *Feature) float64 {
	if source.HasZ() && c.targetsZ {
		return c.tolerance
	}
	return math.NaN()
}

// reshapeCurves derives the reshape subcurves of one source: the parts of
// the target boundaries that differ from the source boundary, split where
// they meet the source.
func (c *calculation) reshapeCurves(source *Feature, extents []Envelope) ([]*Subcurve, sourceStatus) {
	boundary := sourceBoundary(source, extents)
	if len(boundary) == 0 {
		return nil, sourceUnusable
	}
	c.boundaries[source.Reference()] = boundary

	differences := geometry.LineDifference(c.targetPaths, boundary, c.tolerance, c.zTolerance(source))
	if len(differences) == 0 {
		return nil, sourceCongruent
	}
	intersections := geometry.Intersections(differences, boundary, c.tolerance)
	c.log.WithFields(logrus.Fields{
		"source":        source.String(),
		"differences":   len(differences),
		"intersections": len(intersections),
	}).Debug("calculated reshape differences")

	var curves []*Subcurve
	for _, d := range differences {
		for _, p := range geometry.SplitPath(d, intersections, c.tolerance) {
			if p.IsEmpty() || p.Length() <= c.tolerance {
				continue
			}
			touchFrom := geometry.Intersects(p.Start(), intersections, c.tolerance)
			touchTo := geometry.Intersects(p.End(), intersections, c.tolerance)
			curves = append(curves, c.newSubcurve(source, p, boundary, touchFrom, touchTo))
		}
	}
	return curves, sourceUsable
}

// cutCurves derives the cut subcurves of one source. For polygons these
// are the target lines inside the polygon. For polylines they are the
// pieces of the source between its crossings with the targets.
func (c *calculation) cutCurves(source *Feature, clip *Envelope) ([]*Subcurve, sourceStatus) {
	boundary := source.Shape.Boundary()
	if len(boundary) == 0 {
		return nil, sourceUnusable
	}
	c.boundaries[source.Reference()] = boundary
	targets := c.targetPaths
	if clip != nil && !clip.IsEmpty() {
		targets = geometry.ClipToBounds(targets, clip.Bounds())
	}
	if len(geometry.LineDifference(targets, boundary, c.tolerance, math.NaN())) == 0 {
		return nil, sourceCongruent
	}
	if source.Shape.Type == geometry.Polyline {
		return c.lineCutCurves(source, boundary, targets), sourceUsable
	}

	intersections := geometry.Intersections(targets, boundary, c.tolerance)
	var curves []*Subcurve
	for _, t := range targets {
		for _, p := range geometry.SplitPath(t, intersections, c.tolerance) {
			if p.IsEmpty() || p.Length() <= c.tolerance {
				continue
			}
			if geometry.Within(p.Midpoint(), source.Shape) != geom.Inside {
				continue
			}
			touchFrom := geometry.Intersects(p.Start(), intersections, c.tolerance)
			touchTo := geometry.Intersects(p.End(), intersections, c.tolerance)
			curves = append(curves, c.newSubcurve(source, p, boundary, touchFrom, touchTo))
		}
	}
	return curves, sourceUsable
}

// lineCutCurves splits the source lines at their crossings with the
// targets. Every piece that ends in a cut point can be selected.
func (c *calculation) lineCutCurves(source *Feature, boundary, targets []geometry.Path) []*Subcurve {
	cuts := geometry.Intersections(boundary, targets, c.tolerance)
	var curves []*Subcurve
	for _, b := range boundary {
		pieces := geometry.SplitPath(b, cuts, c.tolerance)
		if len(pieces) < 2 {
			continue
		}
		for _, p := range pieces {
			touchFrom := geometry.Intersects(p.Start(), cuts, c.tolerance)
			touchTo := geometry.Intersects(p.End(), cuts, c.tolerance)
			s := c.newSubcurve(source, p, nil, touchFrom, touchTo)
			s.canReshape = touchFrom || touchTo
			s.candidacyKnown = true
			curves = append(curves, s)
		}
	}
	return curves
}

// assignCandidates classifies every subcurve that cannot reshape on its
// own as reshape member candidate or not.
func (c *calculation) assignCandidates(curves []*Subcurve) {
	for _, s := range curves {
		if s.candidacyKnown {
			continue
		}
		s.memberCandidate = s.isMemberCandidate()
		s.candidacyKnown = true
	}
}

func (s *Subcurve) isMemberCandidate() bool {
	if s.canReshape || s.fromNode == nil {
		return false
	}
	if s.touchAtFrom && s.touchAtTo && s.touchesDifferentParts() {
		return false
	}
	return s.tryCanConnect(s.fromNode) || s.tryCanConnect(s.toNode)
}

// tryCanConnect reports whether both ends of s are connected to the source
// through unfiltered subcurves, starting at first without passing the
// other end. All subcurves on the found connection become candidates.
func (s *Subcurve) tryCanConnect(first *Node) bool {
	other := s.otherNode(first)
	checked := map[*Node]bool{other: true}
	var intermediate []*Subcurve
	if !isConnected(s, first, checked, &intermediate) {
		return false
	}
	delete(checked, other)
	if !isConnected(s, other, checked, &intermediate) {
		return false
	}
	for _, c := range intermediate {
		if !c.canReshape {
			c.memberCandidate = true
			c.candidacyKnown = true
		}
	}
	return true
}

func isConnected(s *Subcurve, at *Node, checked map[*Node]bool, intermediate *[]*Subcurve) bool {
	if s.IsFiltered {
		return false
	}
	if s.touchesAt(at) {
		checked[at] = true
		*intermediate = append(*intermediate, s)
		return true
	}
	if checked[at] {
		return false
	}
	checked[at] = true
	for _, c := range at.connected {
		if c != s && isConnected(c, c.otherNode(at), checked, intermediate) {
			*intermediate = append(*intermediate, s)
			return true
		}
	}
	return false
}

// joinNonForking merges chains of candidates that meet at nodes without a
// fork into single subcurves.
func (c *calculation) joinNonForking(curves []*Subcurve) []*Subcurve {
	replaced := make(map[*Subcurve]bool)
	var added []*Subcurve
	for _, s := range curves {
		if replaced[s] || !s.IsReshapeMemberCandidate() {
			continue
		}
		current := s
		for {
			merged := c.mergeAtOpenEnds(current, replaced)
			if merged == current {
				break
			}
			current = merged
		}
		if current != s {
			added = append(added, current)
		}
	}
	out := lo.Filter(curves, func(s *Subcurve, _ int) bool { return !replaced[s] })
	return append(out, lo.Filter(added, func(s *Subcurve, _ int) bool { return !replaced[s] })...)
}

func (c *calculation) mergeAtOpenEnds(s *Subcurve, replaced map[*Subcurve]bool) *Subcurve {
	if !s.touchAtFrom {
		if m := c.mergeWithSingleCandidate(s, s.fromNode, replaced); m != nil {
			return m
		}
	}
	if !s.touchAtTo {
		if m := c.mergeWithSingleCandidate(s, s.toNode, replaced); m != nil {
			return m
		}
	}
	return s
}

func (c *calculation) mergeWithSingleCandidate(s *Subcurve, at *Node, replaced map[*Subcurve]bool) *Subcurve {
	if at == nil || s.fromNode == s.toNode {
		return nil
	}
	var single *Subcurve
	for _, o := range at.connected {
		if o == s || !o.IsReshapeMemberCandidate() || replaced[o] || o.touchesAt(at) {
			continue
		}
		if single != nil {
			return nil
		}
		single = o
	}
	if single == nil || single.fromNode == single.toNode {
		return nil
	}
	replaced[s] = true
	replaced[single] = true
	return c.merge(s, single, at)
}

// merge joins a and b, which meet at node at, into a new subcurve that
// keeps the orientation of a.
func (c *calculation) merge(a, b *Subcurve, at *Node) *Subcurve {
	bPath := b.path
	bFrom, bTo := b.touchAtFrom, b.touchAtTo
	bSegFrom, bSegTo := b.TargetSegmentAtFrom, b.TargetSegmentAtTo
	if (at == a.toNode) == (b.toNode == at) {
		bPath = bPath.Reverse()
		bFrom, bTo = bTo, bFrom
		bSegFrom, bSegTo = bSegTo, bSegFrom
	}

	var p geometry.Path
	var touchFrom, touchTo bool
	var segFrom, segTo *geometry.Segment
	if at == a.toNode {
		p = geometry.Join(a.path, bPath)
		touchFrom, touchTo = a.touchAtFrom, bTo
		segFrom, segTo = a.TargetSegmentAtFrom, bSegTo
	} else {
		p = geometry.Join(bPath, a.path)
		touchFrom, touchTo = bFrom, a.touchAtTo
		segFrom, segTo = bSegFrom, a.TargetSegmentAtTo
	}

	var boundary []geometry.Path
	if a.Source != nil {
		boundary = c.boundaries[*a.Source]
	}
	m := NewSubcurve(p, touchFrom, touchTo, c.touchingDifferentParts(boundary, p, touchFrom, touchTo))
	m.Source = a.Source
	m.TargetSegmentAtFrom, m.TargetSegmentAtTo = segFrom, segTo
	m.memberCandidate = !m.canReshape
	m.candidacyKnown = true
	m.ExtraTargetInsertPoints = append(m.ExtraTargetInsertPoints, a.ExtraTargetInsertPoints...)
	m.ExtraTargetInsertPoints = append(m.ExtraTargetInsertPoints, b.ExtraTargetInsertPoints...)
	m.ExtraTargetInsertPoints = append(m.ExtraTargetInsertPoints, a.path.Points[endIndex(a, at)])

	c.nodes.Detach(a)
	c.nodes.Detach(b)
	c.nodes.Attach(m)
	return m
}

func endIndex(s *Subcurve, at *Node) int {
	if at == s.toNode {
		return len(s.path.Points) - 1
	}
	return 0
}

// classify returns the usability of a calculation.
func classify(curves []*Subcurve, usable, congruent int) Usability {
	switch {
	case usable == 0:
		return NoSource
	case lo.SomeBy(curves, func(s *Subcurve) bool { return s.canReshape }):
		return CanReshape
	case len(curves) > 0:
		return InsufficientOrAmbiguousReshapeCurves
	case congruent == usable:
		return AlreadyCongruent
	default:
		return NoReshapeCurves
	}
}
