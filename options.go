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

	"github.com/ctessum/geom"
)

// TargetBufferOptions control the expansion of target boundaries before
// they are intersected with the sources.
type TargetBufferOptions struct {
	BufferTarget   bool
	BufferDistance float64

	EnforceMinimumBufferSegmentLength bool
	MinimumBufferSegmentLength        float64
}

// NewTargetBufferOptions returns options that buffer targets by distance
// and, if minSegmentLength is positive, drop shorter buffer segments.
func NewTargetBufferOptions(distance, minSegmentLength float64) TargetBufferOptions {
	return TargetBufferOptions{
		BufferTarget:                      distance > 0,
		BufferDistance:                    distance,
		EnforceMinimumBufferSegmentLength: minSegmentLength > 0,
		MinimumBufferSegmentLength:        minSegmentLength,
	}
}

func (o TargetBufferOptions) minSegmentLength() float64 {
	if !o.EnforceMinimumBufferSegmentLength {
		return 0
	}
	return o.MinimumBufferSegmentLength
}

// Envelope is an axis-aligned rectangle.
type Envelope struct {
	XMin, YMin, XMax, YMax float64
}

// Bounds converts e.
func (e Envelope) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: e.XMin, Y: e.YMin},
		Max: geom.Point{X: e.XMax, Y: e.YMax},
	}
}

// IsEmpty reports whether e encloses no area.
func (e Envelope) IsEmpty() bool { return e.XMax <= e.XMin || e.YMax <= e.YMin }

func (e Envelope) String() string {
	return fmt.Sprintf("[%g %g, %g %g]", e.XMin, e.YMin, e.XMax, e.YMax)
}

// ReshapeCurveFilterOptions control which calculated subcurves are
// marked as filtered.
type ReshapeCurveFilterOptions struct {
	// ClipLinesOnVisibleExtent restricts the source boundary and the
	// subcurves to VisibleExtents.
	ClipLinesOnVisibleExtent bool
	VisibleExtents           []Envelope

	// ExcludeOutsideTolerance filters subcurves that leave the buffer of
	// ExcludeTolerance around the source boundary.
	ExcludeOutsideTolerance bool
	ExcludeTolerance        float64

	// ExcludeOutsideSource filters subcurves outside of polygon sources,
	// so that only removals of area remain.
	ExcludeOutsideSource bool

	// ExcludeResultingInOverlaps filters subcurves running inside other
	// target polygons.
	ExcludeResultingInOverlaps bool
}

func (o ReshapeCurveFilterOptions) active() bool {
	return (o.ClipLinesOnVisibleExtent && len(o.VisibleExtents) > 0) ||
		o.ExcludeOutsideTolerance || o.ExcludeOutsideSource || o.ExcludeResultingInOverlaps
}

// extents returns the visible extents if clipping is enabled.
func (o ReshapeCurveFilterOptions) extents() []Envelope {
	if !o.ClipLinesOnVisibleExtent {
		return nil
	}
	return o.VisibleExtents
}
