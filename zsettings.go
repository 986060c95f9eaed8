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
	"strings"

	"github.com/prosuite/changealong/geometry"
	"github.com/sirupsen/logrus"
)

// ZSource selects where missing elevations of new vertices come from.
type ZSource int

// Z sources.
const (
	// ZTarget takes elevations from the target. Without target
	// elevations it falls back to ZInterpolatedSource.
	ZTarget ZSource = iota
	// ZInterpolatedSource interpolates between the source elevations
	// adjacent to the new vertices.
	ZInterpolatedSource
	// ZSourcePlane evaluates the best-fit plane of the source vertices.
	// If no plane can be fit it falls back to ZInterpolatedSource.
	ZSourcePlane
)

func (z ZSource) String() string {
	switch z {
	case ZTarget:
		return "Target"
	case ZInterpolatedSource:
		return "InterpolatedSource"
	case ZSourcePlane:
		return "SourcePlane"
	default:
		return fmt.Sprintf("ZSource(%d)", int(z))
	}
}

// ParseZSource parses the name of a Z source, ignoring case.
func ParseZSource(s string) (ZSource, error) {
	for _, z := range []ZSource{ZTarget, ZInterpolatedSource, ZSourcePlane} {
		if strings.EqualFold(s, z.String()) {
			return z, nil
		}
	}
	return 0, fmt.Errorf("changealong: invalid Z source %q", s)
}

// ZSettingsModel fills undefined elevations of a path that is to be
// applied to source.
type ZSettingsModel interface {
	ApplyZs(path geometry.Path, source *Feature) (geometry.Path, error)
}

// ZSettings is the ZSettingsModel used by the services.
type ZSettings struct {
	Source  ZSource
	Targets []*Feature

	// Tolerance is the horizontal distance within which a vertex takes
	// the elevation of a source or target boundary.
	Tolerance float64

	// CoplanarityTolerance is the maximum distance of a source vertex
	// from its fitted plane before a warning is logged.
	CoplanarityTolerance float64

	Log logrus.FieldLogger
}

func (z *ZSettings) log() logrus.FieldLogger {
	if z.Log == nil {
		return logrus.StandardLogger()
	}
	return z.Log
}

func (z *ZSettings) tolerance() float64 {
	if z.Tolerance <= 0 {
		return DefaultXYTolerance
	}
	return z.Tolerance
}

// ApplyZs implements ZSettingsModel.
func (z *ZSettings) ApplyZs(path geometry.Path, source *Feature) (geometry.Path, error) {
	switch z.Source {
	case ZTarget:
		if p, ok := z.fromTargets(path); ok {
			return z.interpolated(p, source), nil
		}
	case ZSourcePlane:
		p, ok, err := z.fromPlane(path, source)
		if err != nil {
			return path, err
		}
		if ok {
			return p, nil
		}
	}
	return z.interpolated(path, source), nil
}

func (z *ZSettings) fromTargets(path geometry.Path) (geometry.Path, bool) {
	var boundaries []geometry.Path
	for _, t := range z.Targets {
		if t.HasZ() {
			boundaries = append(boundaries, t.Shape.Boundary()...)
		}
	}
	if len(boundaries) == 0 {
		return path, false
	}
	out := path.WithZ()
	for i, v := range out.Points {
		if v.HasZ() {
			continue
		}
		if zv, ok := geometry.ZAt(boundaries, v, z.tolerance()); ok {
			out.Points[i].Z = zv
		}
	}
	return out, true
}

func (z *ZSettings) fromPlane(path geometry.Path, source *Feature) (geometry.Path, bool, error) {
	if source.Shape.Type == geometry.Multipatch {
		return path, false, geometry.ErrMultipatch
	}
	var vertices []geometry.Point
	for _, p := range source.Shape.Parts {
		vertices = append(vertices, p.Points...)
	}
	plane := FitPlane(vertices)
	if plane == nil || plane.IsVertical() {
		z.log().WithField("source", source.String()).Debug("no source plane; interpolating Z")
		return path, false, nil
	}
	if tol := z.CoplanarityTolerance; tol > 0 {
		if c := plane.CheckCoplanarity(vertices, tol); !c.Coplanar {
			z.log().WithFields(logrus.Fields{
				"source":       source.String(),
				"maxDeviation": c.MaxDeviationFromPlane,
				"point":        c.MaxDeviationPoint.String(),
			}).Warn("source is not planar; using best-fit plane")
		}
	}
	out := path.WithZ()
	for i, v := range out.Points {
		if !v.HasZ() {
			out.Points[i].Z = plane.ZAt(v.X, v.Y)
		}
	}
	return out, true, nil
}

// interpolated takes elevations from source vertices the path runs through
// and interpolates the others along the path.
func (z *ZSettings) interpolated(path geometry.Path, source *Feature) geometry.Path {
	boundary := source.Shape.Boundary()
	out := path.WithZ()
	known := false
	for i, v := range out.Points {
		if v.HasZ() {
			known = true
			continue
		}
		if zv, ok := geometry.ZAt(boundary, v, z.tolerance()); ok {
			out.Points[i].Z = zv
			known = true
		}
	}
	if !known {
		if zv, ok := geometry.NearestZ(boundary, out.Start()); ok {
			out.Points[0].Z = zv
		}
	}
	return geometry.InterpolateZ(out)
}

// ApplyZsToReshapeCurves fills undefined elevations of the subcurve paths
// using model. Nothing changes if model is nil or no source carries
// elevation. Subcurves whose source has no elevation keep their path.
func ApplyZsToReshapeCurves(sources []*Feature, curves []*Subcurve, model ZSettingsModel) error {
	if model == nil {
		return nil
	}
	var zSource *Feature
	for _, s := range sources {
		if s.HasZ() {
			zSource = s
			break
		}
	}
	if zSource == nil {
		return nil
	}
	idx := NewFeatureIndex(sources)
	for _, c := range curves {
		source := zSource
		if c.Source != nil {
			if f, ok := idx.Lookup(*c.Source); ok {
				if !f.HasZ() {
					continue
				}
				source = f
			}
		}
		p, err := model.ApplyZs(c.Path().WithZ(), source)
		if err != nil {
			return fmt.Errorf("changealong: applying Z to %v: %v", c, err)
		}
		c.SetPath(p)
	}
	return nil
}
