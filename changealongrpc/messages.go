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


// Package changealongrpc exposes a changealong.Service over gRPC. Requests
// and responses are plain structs encoded with MessagePack, and features
// cross the wire as value identities together with a deduplicated list of
// class definitions.
package changealongrpc

import (
	"github.com/prosuite/changealong/geometry"
)

// ObjectClassMsg describes a feature class once per request.
type ObjectClassMsg struct {
	ClassHandle  int64   `codec:"classHandle"`
	Name         string  `codec:"name"`
	GeometryType int     `codec:"geometryType"`
	HasZ         bool    `codec:"hasZ"`
	XYTolerance  float64 `codec:"xyTolerance"`
}

// ShapeMsg is the wire form of a geometry.
type ShapeMsg struct {
	Type   int             `codec:"type"`
	ZAware bool            `codec:"zAware"`
	Parts  []geometry.Path `codec:"parts"`
}

// GdbObjectMsg is a feature on the wire.
type GdbObjectMsg struct {
	ClassHandle int64    `codec:"classHandle"`
	ObjectID    int64    `codec:"objectId"`
	Shape       ShapeMsg `codec:"shape"`
}

// GdbObjRefMsg is the value identity of a feature.
type GdbObjRefMsg struct {
	ClassHandle int64 `codec:"classHandle"`
	ObjectID    int64 `codec:"objectId"`
}

// SegmentMsg is a single segment, used for stitch points.
type SegmentMsg struct {
	P0   geometry.Point     `codec:"p0"`
	P1   geometry.Point     `codec:"p1"`
	Ctrl *geometry.Controls `codec:"ctrl,omitempty"`
}

// ReshapeLineMsg is a subcurve on the wire.
type ReshapeLineMsg struct {
	Path        geometry.Path `codec:"path"`
	CanReshape  bool          `codec:"canReshape"`
	IsCandidate bool          `codec:"isCandidate"`
	IsFiltered  bool          `codec:"isFiltered"`

	Source *GdbObjRefMsg `codec:"source,omitempty"`

	TargetSegmentAtFrom *SegmentMsg `codec:"targetSegmentAtFrom,omitempty"`
	TargetSegmentAtTo   *SegmentMsg `codec:"targetSegmentAtTo,omitempty"`

	ExtraTargetInsertPoints []geometry.Point `codec:"extraTargetInsertPoints,omitempty"`
}

// TargetBufferOptionsMsg carries changealong.TargetBufferOptions.
type TargetBufferOptionsMsg struct {
	BufferDistance             float64 `codec:"bufferDistance"`
	MinimumBufferSegmentLength float64 `codec:"minBufferSegmentLength"`
}

// EnvelopeMsg carries changealong.Envelope.
type EnvelopeMsg struct {
	XMin float64 `codec:"xMin"`
	YMin float64 `codec:"yMin"`
	XMax float64 `codec:"xMax"`
	YMax float64 `codec:"yMax"`
}

// ReshapeLineFilterOptionsMsg carries changealong.ReshapeCurveFilterOptions.
type ReshapeLineFilterOptionsMsg struct {
	ClipLinesOnVisibleExtent   bool          `codec:"clipLinesOnVisibleExtent"`
	VisibleExtents             []EnvelopeMsg `codec:"visibleExtents,omitempty"`
	ExcludeOutsideTolerance    bool          `codec:"excludeOutsideTolerance"`
	ExcludeTolerance           float64       `codec:"excludeTolerance"`
	ExcludeOutsideSource       bool          `codec:"excludeOutsideSource"`
	ExcludeResultingInOverlaps bool          `codec:"excludeResultingInOverlaps"`
}

// CalculateReshapeLinesRequest is the request of CalculateReshapeLines.
type CalculateReshapeLinesRequest struct {
	ClassDefinitions []ObjectClassMsg `codec:"classDefinitions"`
	SourceFeatures   []GdbObjectMsg   `codec:"sourceFeatures"`
	TargetFeatures   []GdbObjectMsg   `codec:"targetFeatures"`

	TargetBufferOptions TargetBufferOptionsMsg      `codec:"targetBufferOptions"`
	FilterOptions       ReshapeLineFilterOptionsMsg `codec:"filterOptions"`

	// Tolerance is nil to use the class tolerance.
	Tolerance *float64 `codec:"tolerance,omitempty"`
}

// CalculateReshapeLinesResponse is the response of CalculateReshapeLines.
type CalculateReshapeLinesResponse struct {
	ReshapeLinesUsability int              `codec:"reshapeLinesUsability"`
	ReshapeLines          []ReshapeLineMsg `codec:"reshapeLines"`
	Tolerance             float64          `codec:"tolerance"`
	FilterBuffer          *ShapeMsg        `codec:"filterBuffer,omitempty"`
}

// CalculateCutLinesRequest is the request of CalculateCutLines.
type CalculateCutLinesRequest struct {
	ClassDefinitions []ObjectClassMsg `codec:"classDefinitions"`
	SourceFeatures   []GdbObjectMsg   `codec:"sourceFeatures"`
	TargetFeatures   []GdbObjectMsg   `codec:"targetFeatures"`

	TargetBufferOptions TargetBufferOptionsMsg `codec:"targetBufferOptions"`
	ClipExtent          *EnvelopeMsg           `codec:"clipExtent,omitempty"`
	Tolerance           *float64               `codec:"tolerance,omitempty"`
	ZSource             int                    `codec:"zSource"`
}

// CalculateCutLinesResponse is the response of CalculateCutLines.
type CalculateCutLinesResponse struct {
	CutLinesUsability int              `codec:"cutLinesUsability"`
	CutLines          []ReshapeLineMsg `codec:"cutLines"`
	Tolerance         float64          `codec:"tolerance"`
}

// ApplyReshapeLinesRequest is the request of ApplyReshapeLines.
type ApplyReshapeLinesRequest struct {
	CalculationRequest CalculateReshapeLinesRequest `codec:"calculationRequest"`
	ReshapeLines       []ReshapeLineMsg             `codec:"reshapeLines"`

	InsertVerticesInTarget   bool `codec:"insertVerticesInTarget"`
	UseNonDefaultReshapeSide bool `codec:"useNonDefaultReshapeSide"`
}

// ApplyReshapeLinesResponse is the response of ApplyReshapeLines.
type ApplyReshapeLinesResponse struct {
	ResultFeatures        []ResultObjectMsg `codec:"resultFeatures"`
	NewReshapeLines       []ReshapeLineMsg  `codec:"newReshapeLines"`
	ReshapeLinesUsability int               `codec:"reshapeLinesUsability"`
	Tolerance             float64           `codec:"tolerance"`
}

// ApplyCutLinesRequest is the request of ApplyCutLines.
type ApplyCutLinesRequest struct {
	CalculationRequest CalculateCutLinesRequest `codec:"calculationRequest"`
	CutLines           []ReshapeLineMsg         `codec:"cutLines"`

	InsertVerticesInTarget bool `codec:"insertVerticesInTarget"`
}

// ApplyCutLinesResponse is the response of ApplyCutLines.
type ApplyCutLinesResponse struct {
	ResultFeatures    []ResultObjectMsg `codec:"resultFeatures"`
	NewCutLines       []ReshapeLineMsg  `codec:"newCutLines"`
	CutLinesUsability int               `codec:"cutLinesUsability"`
	Tolerance         float64           `codec:"tolerance"`
}

// ResultObjectMsg is one result of an apply operation. Exactly one of
// Update and Insert is set.
type ResultObjectMsg struct {
	Update *GdbObjectMsg       `codec:"update,omitempty"`
	Insert *InsertedObjectMsg `codec:"insert,omitempty"`
}

// InsertedObjectMsg is a new feature derived from an original one.
type InsertedObjectMsg struct {
	InsertedObject    GdbObjectMsg `codec:"insertedObject"`
	OriginalReference GdbObjRefMsg `codec:"originalReference"`
}
