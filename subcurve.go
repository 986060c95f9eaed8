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

	"github.com/prosuite/changealong/geometry"
)

// DefaultXYTolerance is the horizontal tolerance used when neither the
// caller nor the feature classes provide one.
const DefaultXYTolerance = 0.001

// Subcurve is one candidate path along which a source can be changed.
type Subcurve struct {
	path geometry.Path

	touchAtFrom, touchAtTo bool
	// touchingDifferentParts is nil when unknown, e.g. for single-part
	// sources or subcurves received over the wire.
	touchingDifferentParts *bool

	fromNode, toNode *Node

	canReshape      bool
	memberCandidate bool
	candidacyKnown  bool

	angleAtFrom, angleAtTo float64
	seq                    int

	// IsFiltered is set when a filter excludes the subcurve. A filtered
	// subcurve is never a reshape member candidate.
	IsFiltered bool

	// Source is a weak reference to the source feature the subcurve
	// was derived from.
	Source *GdbObjectReference

	// TargetSegmentAtFrom and TargetSegmentAtTo hold the original target
	// segment when the respective end is a stitch point.
	TargetSegmentAtFrom, TargetSegmentAtTo *geometry.Segment

	// ExtraTargetInsertPoints are vertices where adjacent subcurves were
	// joined.
	ExtraTargetInsertPoints []geometry.Point
}

// NewSubcurve returns a subcurve created during calculation. touchAtFrom
// and touchAtTo tell whether the ends lie on the source. touchingDifferentParts
// may be nil if the source has a single part.
func NewSubcurve(path geometry.Path, touchAtFrom, touchAtTo bool, touchingDifferentParts *bool) *Subcurve {
	c := &Subcurve{
		touchAtFrom:            touchAtFrom,
		touchAtTo:              touchAtTo,
		touchingDifferentParts: touchingDifferentParts,
	}
	c.canReshape = touchAtFrom && touchAtTo &&
		(touchingDifferentParts == nil || !*touchingDifferentParts)
	c.SetPath(path)
	return c
}

// NewSubcurveFromFlags returns a subcurve whose classification is already
// known, e.g. one that was received from a remote service.
func NewSubcurveFromFlags(path geometry.Path, canReshape, isCandidate, isFiltered bool) *Subcurve {
	c := &Subcurve{
		canReshape:      canReshape,
		memberCandidate: isCandidate,
		candidacyKnown:  true,
		IsFiltered:      isFiltered,
		touchAtFrom:     canReshape,
		touchAtTo:       canReshape,
	}
	c.SetPath(path)
	return c
}

// Path returns the subcurve's path.
func (c *Subcurve) Path() geometry.Path { return c.path }

// SetPath replaces the path and recomputes the end angles.
func (c *Subcurve) SetPath(p geometry.Path) {
	c.path = p
	c.angleAtFrom, c.angleAtTo = 0, 0
	n := p.SegmentCount()
	if n == 0 {
		return
	}
	c.angleAtFrom = normalizeAngle(p.Segment(0).Direction().Angle())
	c.angleAtTo = normalizeAngle(p.Segment(n-1).Direction().Angle() + math.Pi)
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// AngleAtFrom returns the outgoing direction at the start in [0, 2π).
func (c *Subcurve) AngleAtFrom() float64 { return c.angleAtFrom }

// AngleAtTo returns the outgoing direction at the end, i.e. the reversed
// direction of the last segment, in [0, 2π).
func (c *Subcurve) AngleAtTo() float64 { return c.angleAtTo }

// TouchAtFrom reports whether the start lies on the source.
func (c *Subcurve) TouchAtFrom() bool { return c.touchAtFrom }

// TouchAtTo reports whether the end lies on the source.
func (c *Subcurve) TouchAtTo() bool { return c.touchAtTo }

// CanReshape reports whether the subcurve alone is a valid reshape line.
func (c *Subcurve) CanReshape() bool { return c.canReshape }

// IsReshapeMemberCandidate reports whether the subcurve can be used in
// combination with other subcurves. It is false for filtered subcurves.
func (c *Subcurve) IsReshapeMemberCandidate() bool {
	return !c.IsFiltered && c.memberCandidate
}

// FromNode and ToNode return the nodes of the subcurve's ends, if it has
// been attached to a NodeRegistry.
func (c *Subcurve) FromNode() *Node { return c.fromNode }

// ToNode returns the end node.
func (c *Subcurve) ToNode() *Node { return c.toNode }

// StitchAtFrom reports whether the start is a stitch point.
func (c *Subcurve) StitchAtFrom() bool { return c.TargetSegmentAtFrom != nil }

// StitchAtTo reports whether the end is a stitch point.
func (c *Subcurve) StitchAtTo() bool { return c.TargetSegmentAtTo != nil }

// angleAt returns the outgoing angle at n.
func (c *Subcurve) angleAt(n *Node) float64 {
	if n == c.toNode && n != c.fromNode {
		return c.angleAtTo
	}
	return c.angleAtFrom
}

// otherNode returns the node at the opposite end of n.
func (c *Subcurve) otherNode(n *Node) *Node {
	if n == c.fromNode {
		return c.toNode
	}
	return c.fromNode
}

func (c *Subcurve) touchesAt(n *Node) bool {
	if n == c.fromNode {
		return c.touchAtFrom
	}
	return c.touchAtTo
}

// touchesDifferentParts reports whether both ends touch the source on
// different parts.
func (c *Subcurve) touchesDifferentParts() bool {
	return c.touchingDifferentParts != nil && *c.touchingDifferentParts
}

// PotentialTargetInsertPoints returns the points that must exist as
// vertices in the target once the subcurve has been applied.
func (c *Subcurve) PotentialTargetInsertPoints() []geometry.Point {
	if c.path.IsEmpty() {
		return nil
	}
	pts := []geometry.Point{c.path.Start(), c.path.End()}
	return append(pts, c.ExtraTargetInsertPoints...)
}

// Equal reports whether c and o have the same classification, source
// reference, stitch points and, within tolerance, the same path.
func (c *Subcurve) Equal(o *Subcurve, tolerance float64) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if c.canReshape != o.canReshape ||
		c.IsReshapeMemberCandidate() != o.IsReshapeMemberCandidate() ||
		c.IsFiltered != o.IsFiltered ||
		c.StitchAtFrom() != o.StitchAtFrom() ||
		c.StitchAtTo() != o.StitchAtTo() {
		return false
	}
	if (c.Source == nil) != (o.Source == nil) ||
		(c.Source != nil && *c.Source != *o.Source) {
		return false
	}
	return c.path.Equal(o.path, tolerance)
}

func (c *Subcurve) String() string {
	state := "red"
	switch {
	case c.canReshape:
		state = "green"
	case c.IsReshapeMemberCandidate():
		state = "yellow"
	}
	if c.IsFiltered {
		state += ",filtered"
	}
	if c.path.IsEmpty() {
		return fmt.Sprintf("subcurve[%s] empty", state)
	}
	return fmt.Sprintf("subcurve[%s] %v-%v", state, c.path.Start(), c.path.End())
}
