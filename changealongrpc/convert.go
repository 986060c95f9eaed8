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


package changealongrpc

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prosuite/changealong"
	"github.com/prosuite/changealong/geometry"
	"github.com/samber/lo"
)

// ErrUnknownObject is returned when a reference received over the wire
// does not resolve to any feature of the request.
var ErrUnknownObject = errors.New("changealongrpc: unknown object reference")

// ErrUnknownClass is returned when a feature names a class that is not
// among the class definitions of the request.
var ErrUnknownClass = errors.New("changealongrpc: unknown class handle")

func toShapeMsg(g geometry.Geometry) ShapeMsg {
	return ShapeMsg{Type: int(g.Type), ZAware: g.ZAware, Parts: g.Parts}
}

func fromShapeMsg(m ShapeMsg) geometry.Geometry {
	return geometry.Geometry{Type: geometry.Type(m.Type), ZAware: m.ZAware, Parts: m.Parts}
}

func toRefMsg(r changealong.GdbObjectReference) GdbObjRefMsg {
	return GdbObjRefMsg{ClassHandle: r.ClassHandle, ObjectID: r.ObjectID}
}

func fromRefMsg(m GdbObjRefMsg) changealong.GdbObjectReference {
	return changealong.GdbObjectReference{ClassHandle: m.ClassHandle, ObjectID: m.ObjectID}
}

func toObjectMsg(f *changealong.Feature, shape geometry.Geometry) GdbObjectMsg {
	return GdbObjectMsg{
		ClassHandle: f.Class.Handle(),
		ObjectID:    f.ObjectID,
		Shape:       toShapeMsg(shape),
	}
}

// encodeFeatures converts the feature lists and collects the definitions
// of their classes. Each class is listed once however many features it has.
func encodeFeatures(lists ...[]*changealong.Feature) ([]ObjectClassMsg, [][]GdbObjectMsg) {
	var classes []ObjectClassMsg
	seen := make(map[int64]bool)
	out := make([][]GdbObjectMsg, len(lists))
	for i, l := range lists {
		out[i] = make([]GdbObjectMsg, len(l))
		for j, f := range l {
			h := f.Class.Handle()
			if !seen[h] {
				seen[h] = true
				c := ObjectClassMsg{ClassHandle: h}
				if f.Class != nil {
					c.Name = f.Class.Name
					c.GeometryType = int(f.Class.GeometryType)
					c.HasZ = f.Class.HasZ
					c.XYTolerance = f.Class.XYTolerance
				}
				classes = append(classes, c)
			}
			out[i][j] = toObjectMsg(f, f.Shape)
		}
	}
	return classes, out
}

// decodeFeatures rebuilds the features of a request. Features of the same
// class share one ObjectClass.
func decodeFeatures(classes []ObjectClassMsg, lists ...[]GdbObjectMsg) ([][]*changealong.Feature, error) {
	byHandle := lo.SliceToMap(classes, func(c ObjectClassMsg) (int64, *changealong.ObjectClass) {
		return c.ClassHandle, &changealong.ObjectClass{
			Name:         c.Name,
			GeometryType: geometry.Type(c.GeometryType),
			HasZ:         c.HasZ,
			XYTolerance:  c.XYTolerance,
			ID:           c.ClassHandle,
		}
	})
	out := make([][]*changealong.Feature, len(lists))
	for i, l := range lists {
		out[i] = make([]*changealong.Feature, len(l))
		for j, m := range l {
			class, ok := byHandle[m.ClassHandle]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownClass, "object %d of class %d", m.ObjectID, m.ClassHandle)
			}
			out[i][j] = &changealong.Feature{
				Class:    class,
				ObjectID: m.ObjectID,
				Shape:    fromShapeMsg(m.Shape),
			}
		}
	}
	return out, nil
}

func toSegmentMsg(s *geometry.Segment) *SegmentMsg {
	if s == nil {
		return nil
	}
	return &SegmentMsg{P0: s.P0, P1: s.P1, Ctrl: s.Ctrl}
}

func fromSegmentMsg(m *SegmentMsg) *geometry.Segment {
	if m == nil {
		return nil
	}
	return &geometry.Segment{P0: m.P0, P1: m.P1, Ctrl: m.Ctrl}
}

func toReshapeLineMsgs(curves []*changealong.Subcurve) []ReshapeLineMsg {
	return lo.Map(curves, func(c *changealong.Subcurve, _ int) ReshapeLineMsg {
		m := ReshapeLineMsg{
			Path:                    c.Path(),
			CanReshape:              c.CanReshape(),
			IsCandidate:             c.IsReshapeMemberCandidate(),
			IsFiltered:              c.IsFiltered,
			TargetSegmentAtFrom:     toSegmentMsg(c.TargetSegmentAtFrom),
			TargetSegmentAtTo:       toSegmentMsg(c.TargetSegmentAtTo),
			ExtraTargetInsertPoints: c.ExtraTargetInsertPoints,
		}
		if c.Source != nil {
			r := toRefMsg(*c.Source)
			m.Source = &r
		}
		return m
	})
}

func fromReshapeLineMsgs(msgs []ReshapeLineMsg) []*changealong.Subcurve {
	return lo.Map(msgs, func(m ReshapeLineMsg, _ int) *changealong.Subcurve {
		c := changealong.NewSubcurveFromFlags(m.Path, m.CanReshape, m.IsCandidate, m.IsFiltered)
		c.TargetSegmentAtFrom = fromSegmentMsg(m.TargetSegmentAtFrom)
		c.TargetSegmentAtTo = fromSegmentMsg(m.TargetSegmentAtTo)
		c.ExtraTargetInsertPoints = m.ExtraTargetInsertPoints
		if m.Source != nil {
			r := fromRefMsg(*m.Source)
			c.Source = &r
		}
		return c
	})
}

func toBufferMsg(o changealong.TargetBufferOptions) TargetBufferOptionsMsg {
	m := TargetBufferOptionsMsg{}
	if o.BufferTarget {
		m.BufferDistance = o.BufferDistance
	}
	if o.EnforceMinimumBufferSegmentLength {
		m.MinimumBufferSegmentLength = o.MinimumBufferSegmentLength
	}
	return m
}

func fromBufferMsg(m TargetBufferOptionsMsg) changealong.TargetBufferOptions {
	return changealong.NewTargetBufferOptions(m.BufferDistance, m.MinimumBufferSegmentLength)
}

func toEnvelopeMsg(e changealong.Envelope) EnvelopeMsg {
	return EnvelopeMsg{XMin: e.XMin, YMin: e.YMin, XMax: e.XMax, YMax: e.YMax}
}

func fromEnvelopeMsg(m EnvelopeMsg) changealong.Envelope {
	return changealong.Envelope{XMin: m.XMin, YMin: m.YMin, XMax: m.XMax, YMax: m.YMax}
}

func toFilterMsg(o changealong.ReshapeCurveFilterOptions) ReshapeLineFilterOptionsMsg {
	return ReshapeLineFilterOptionsMsg{
		ClipLinesOnVisibleExtent:   o.ClipLinesOnVisibleExtent,
		VisibleExtents:             lo.Map(o.VisibleExtents, func(e changealong.Envelope, _ int) EnvelopeMsg { return toEnvelopeMsg(e) }),
		ExcludeOutsideTolerance:    o.ExcludeOutsideTolerance,
		ExcludeTolerance:           o.ExcludeTolerance,
		ExcludeOutsideSource:       o.ExcludeOutsideSource,
		ExcludeResultingInOverlaps: o.ExcludeResultingInOverlaps,
	}
}

func fromFilterMsg(m ReshapeLineFilterOptionsMsg) changealong.ReshapeCurveFilterOptions {
	return changealong.ReshapeCurveFilterOptions{
		ClipLinesOnVisibleExtent:   m.ClipLinesOnVisibleExtent,
		VisibleExtents:             lo.Map(m.VisibleExtents, func(e EnvelopeMsg, _ int) changealong.Envelope { return fromEnvelopeMsg(e) }),
		ExcludeOutsideTolerance:    m.ExcludeOutsideTolerance,
		ExcludeTolerance:           m.ExcludeTolerance,
		ExcludeOutsideSource:       m.ExcludeOutsideSource,
		ExcludeResultingInOverlaps: m.ExcludeResultingInOverlaps,
	}
}

func toResultMsgs(results []changealong.ResultObject) []ResultObjectMsg {
	return lo.Map(results, func(r changealong.ResultObject, _ int) ResultObjectMsg {
		obj := toObjectMsg(r.Feature, r.Geometry)
		if r.Kind == changealong.Insert {
			return ResultObjectMsg{Insert: &InsertedObjectMsg{
				InsertedObject:    obj,
				OriginalReference: toRefMsg(r.Feature.Reference()),
			}}
		}
		return ResultObjectMsg{Update: &obj}
	})
}

// fromResultMsgs resolves the results against the features of the request.
func fromResultMsgs(msgs []ResultObjectMsg, idx changealong.FeatureIndex) ([]changealong.ResultObject, error) {
	out := make([]changealong.ResultObject, 0, len(msgs))
	for _, m := range msgs {
		var (
			ref   changealong.GdbObjectReference
			shape ShapeMsg
			kind  changealong.ChangeKind
		)
		switch {
		case m.Update != nil:
			ref = changealong.GdbObjectReference{ClassHandle: m.Update.ClassHandle, ObjectID: m.Update.ObjectID}
			shape, kind = m.Update.Shape, changealong.Update
		case m.Insert != nil:
			ref = fromRefMsg(m.Insert.OriginalReference)
			shape, kind = m.Insert.InsertedObject.Shape, changealong.Insert
		default:
			return nil, fmt.Errorf("changealongrpc: empty result object")
		}
		f, ok := idx.Lookup(ref)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownObject, "%v result %v", kind, ref)
		}
		out = append(out, changealong.ResultObject{Feature: f, Geometry: fromShapeMsg(shape), Kind: kind})
	}
	return out, nil
}

// setFromMsgs builds a curve set received from the server. The targets of
// the set are the caller's own features.
func setFromMsgs(usability int, lines []ReshapeLineMsg, tolerance float64, targets []*changealong.Feature) *changealong.CurveSet {
	set := changealong.NewCurveSet(changealong.Usability(usability), fromReshapeLineMsgs(lines), targets)
	set.Tolerance = tolerance
	return set
}
