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


package cautil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/prosuite/changealong"
	"github.com/prosuite/changealong/geometry"
	"github.com/spf13/cast"
)

// Feature is one GeoJSON feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// classKey identifies a class within one file set.
type classKey struct {
	name string
	t    geometry.Type
}

// featureReader turns GeoJSON features into change-along features. Features
// with the same "class" property and geometry type share one class.
type featureReader struct {
	classes map[classKey]*changealong.ObjectClass
}

func newFeatureReader() *featureReader {
	return &featureReader{classes: make(map[classKey]*changealong.ObjectClass)}
}

func (r *featureReader) class(name string, t geometry.Type, tolerance float64) *changealong.ObjectClass {
	k := classKey{name: name, t: t}
	c, ok := r.classes[k]
	if !ok {
		c = &changealong.ObjectClass{Name: name, GeometryType: t, XYTolerance: tolerance}
		r.classes[k] = c
	}
	return c
}

// Features converts the features of fc. defaultClass names the class of
// features without a "class" property, and object IDs default to the
// 1-based position in the collection.
func (r *featureReader) Features(fc *FeatureCollection, defaultClass string) ([]*changealong.Feature, error) {
	out := make([]*changealong.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("cautil: feature %d has no geometry", i)
		}
		shape, err := fromGeoJSON(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("cautil: decoding feature %d: %v", i, err)
		}
		name := defaultClass
		oid := int64(i + 1)
		var tolerance float64
		if v, ok := f.Properties["class"]; ok {
			name = cast.ToString(v)
		}
		if v, ok := f.Properties["objectId"]; ok {
			if oid, err = cast.ToInt64E(v); err != nil {
				return nil, fmt.Errorf("cautil: feature %d: invalid objectId: %v", i, err)
			}
		}
		if v, ok := f.Properties["xyTolerance"]; ok {
			tolerance = cast.ToFloat64(v)
		}
		out = append(out, &changealong.Feature{
			Class:    r.class(name, shape.Type, tolerance),
			ObjectID: oid,
			Shape:    shape,
		})
	}
	return out, nil
}

// DecodeFeatures reads a GeoJSON feature collection.
func DecodeFeatures(rd io.Reader, defaultClass string) ([]*changealong.Feature, error) {
	fc := new(FeatureCollection)
	if err := json.NewDecoder(rd).Decode(fc); err != nil {
		return nil, fmt.Errorf("cautil: reading GeoJSON: %v", err)
	}
	return newFeatureReader().Features(fc, defaultClass)
}

// ReadFeatures reads the source and target feature files. Features of the
// same class in both files share one class.
func ReadFeatures(sourceFile, targetFile string) (sources, targets []*changealong.Feature, err error) {
	r := newFeatureReader()
	read := func(path, defaultClass string) ([]*changealong.Feature, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cautil: %v", err)
		}
		defer f.Close()
		fc := new(FeatureCollection)
		if err := json.NewDecoder(f).Decode(fc); err != nil {
			return nil, fmt.Errorf("cautil: reading %s: %v", path, err)
		}
		return r.Features(fc, defaultClass)
	}
	if sources, err = read(sourceFile, "sources"); err != nil {
		return nil, nil, err
	}
	if targets, err = read(targetFile, "targets"); err != nil {
		return nil, nil, err
	}
	return sources, targets, nil
}

// EncodeFeatures converts features to a feature collection.
func EncodeFeatures(features []*changealong.Feature) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection"}
	for _, f := range features {
		g, err := toGeoJSON(f.Shape)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &Feature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]interface{}{
				"objectId": f.ObjectID,
				"class":    className(f),
			},
		})
	}
	return fc, nil
}

// EncodeResults converts apply results to a feature collection with the
// properties objectId, class, kind and original. Inserted features have no
// object ID yet; their original property names the feature they derive
// from.
func EncodeResults(results []changealong.ResultObject) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: []*Feature{}}
	for _, r := range results {
		g, err := toGeoJSON(r.Geometry)
		if err != nil {
			return nil, err
		}
		props := map[string]interface{}{
			"class": className(r.Feature),
			"kind":  r.Kind.String(),
		}
		if r.Kind == changealong.Update {
			props["objectId"] = r.Feature.ObjectID
		} else {
			props["objectId"] = nil
			props["original"] = r.Feature.ObjectID
		}
		fc.Features = append(fc.Features, &Feature{Type: "Feature", Geometry: g, Properties: props})
	}
	return fc, nil
}

// EncodeCurves converts subcurves to a feature collection whose
// properties give the state of each curve.
func EncodeCurves(curves []*changealong.Subcurve) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: []*Feature{}}
	for _, c := range curves {
		g, err := toGeoJSON(geometry.NewPolyline(c.Path()))
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &Feature{Type: "Feature", Geometry: g, Properties: map[string]interface{}{
			"canReshape":  c.CanReshape(),
			"isCandidate": c.IsReshapeMemberCandidate(),
			"isFiltered":  c.IsFiltered,
		}})
	}
	return fc, nil
}

// fromGeoJSON decodes a geometry. MultiLineStrings are decoded line by
// line since the decoder does not handle them.
func fromGeoJSON(g *geojson.Geometry) (geometry.Geometry, error) {
	if g.Type == "MultiLineString" {
		lines, ok := g.Coordinates.([]interface{})
		if !ok {
			return geometry.Geometry{}, geojson.InvalidGeometryError{}
		}
		var parts []geometry.Path
		for _, l := range lines {
			part, err := fromGeoJSON(&geojson.Geometry{Type: "LineString", Coordinates: l})
			if err != nil {
				return geometry.Geometry{}, err
			}
			parts = append(parts, part.Parts...)
		}
		return geometry.NewPolyline(parts...), nil
	}
	gg, err := geojson.FromGeoJSON(g)
	if err != nil {
		return geometry.Geometry{}, err
	}
	return geometry.FromGeom(gg)
}

func toGeoJSON(g geometry.Geometry) (*geojson.Geometry, error) {
	if g.Type == geometry.Polyline && len(g.Parts) > 1 {
		coords := make([][][]float64, len(g.Parts))
		for i, p := range g.Parts {
			for _, pt := range p.Linearize().Points {
				coords[i] = append(coords[i], []float64{pt.X, pt.Y})
			}
		}
		return &geojson.Geometry{Type: "MultiLineString", Coordinates: coords}, nil
	}
	gg, err := g.ToGeom()
	if err != nil {
		return nil, fmt.Errorf("cautil: %v", err)
	}
	out, err := geojson.ToGeoJSON(gg)
	if err != nil {
		return nil, fmt.Errorf("cautil: encoding GeoJSON: %v", err)
	}
	return out, nil
}

func className(f *changealong.Feature) string {
	if f.Class == nil {
		return ""
	}
	return f.Class.Name
}

// WriteJSON writes v as indented JSON to w.
func WriteJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
