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


// Package changealong derives the subcurves along which source features
// can be reshaped or cut so that they follow the boundaries of target
// features, and applies a selection of those subcurves to the sources.
package changealong

import (
	"errors"
	"fmt"

	"github.com/prosuite/changealong/geometry"
	"github.com/prosuite/changealong/internal/hash"
)

// ErrUnsupportedGeometry is returned when a feature's geometry type cannot
// take part in a change-along operation.
var ErrUnsupportedGeometry = errors.New("changealong: unsupported geometry type")

// ObjectClass describes the table a feature belongs to.
type ObjectClass struct {
	Name         string
	GeometryType geometry.Type
	HasZ         bool

	// XYTolerance is the class' coordinate tolerance. Zero means
	// DefaultXYTolerance.
	XYTolerance float64

	// ID is an explicit class handle. If zero, Handle derives one
	// from Name and GeometryType.
	ID int64
}

// Handle returns the stable handle that identifies c across process
// boundaries.
func (c *ObjectClass) Handle() int64 {
	if c == nil {
		return 0
	}
	if c.ID != 0 {
		return c.ID
	}
	return hash.Int64(struct {
		Name string
		Type int
	}{c.Name, int(c.GeometryType)})
}

func (c *ObjectClass) tolerance() float64 {
	if c == nil || c.XYTolerance <= 0 {
		return DefaultXYTolerance
	}
	return c.XYTolerance
}

// GdbObjectReference identifies a feature by value: the handle of its
// class and its object ID.
type GdbObjectReference struct {
	ClassHandle int64
	ObjectID    int64
}

func (r GdbObjectReference) String() string {
	return fmt.Sprintf("%d:%d", r.ClassHandle, r.ObjectID)
}

// Feature is a row with a shape.
type Feature struct {
	Class    *ObjectClass
	ObjectID int64
	Shape    geometry.Geometry
}

// Reference returns the value identity of f.
func (f *Feature) Reference() GdbObjectReference {
	return GdbObjectReference{ClassHandle: f.Class.Handle(), ObjectID: f.ObjectID}
}

// HasZ reports whether f carries elevation.
func (f *Feature) HasZ() bool {
	return (f.Class != nil && f.Class.HasZ) || f.Shape.ZAware
}

func (f *Feature) String() string {
	name := ""
	if f.Class != nil {
		name = f.Class.Name
	}
	return fmt.Sprintf("%s<%d>", name, f.ObjectID)
}

// ChangeKind tells how a result geometry is to be stored.
type ChangeKind int

// Change kinds.
const (
	// Update replaces the geometry of the original feature.
	Update ChangeKind = iota + 1
	// Insert stores the geometry as a new feature derived from the
	// original one.
	Insert
)

func (k ChangeKind) String() string {
	switch k {
	case Update:
		return "Update"
	case Insert:
		return "Insert"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ResultObject is one outcome of an apply operation.
type ResultObject struct {
	// Feature is the original feature the result derives from.
	Feature  *Feature
	Geometry geometry.Geometry
	Kind     ChangeKind
}

// FeatureIndex resolves value identities to features. It is the
// dictionary used wherever object identity cannot be shared.
type FeatureIndex map[GdbObjectReference]*Feature

// NewFeatureIndex indexes the given feature lists. Later duplicates
// replace earlier ones.
func NewFeatureIndex(lists ...[]*Feature) FeatureIndex {
	idx := make(FeatureIndex)
	for _, l := range lists {
		for _, f := range l {
			idx[f.Reference()] = f
		}
	}
	return idx
}

// Lookup returns the feature referenced by r.
func (idx FeatureIndex) Lookup(r GdbObjectReference) (*Feature, bool) {
	f, ok := idx[r]
	return f, ok
}

func sourceTolerance(sources []*Feature) float64 {
	tol := 0.0
	for _, s := range sources {
		if t := s.Class.tolerance(); t > tol {
			tol = t
		}
	}
	if tol == 0 {
		return DefaultXYTolerance
	}
	return tol
}
