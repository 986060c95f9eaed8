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
	"sync"

	"github.com/prosuite/changealong/geometry"
	"github.com/samber/lo"
)

// Usability classifies the outcome of a calculation.
type Usability int

// Usability states.
const (
	Undefined Usability = iota
	NoSource
	NoTarget
	AlreadyCongruent
	NoReshapeCurves
	InsufficientOrAmbiguousReshapeCurves
	CanReshape
)

var usabilityNames = [...]string{
	"Undefined",
	"NoSource",
	"NoTarget",
	"AlreadyCongruent",
	"NoReshapeCurves",
	"InsufficientOrAmbiguousReshapeCurves",
	"CanReshape",
}

func (u Usability) String() string {
	if u < 0 || int(u) >= len(usabilityNames) {
		return fmt.Sprintf("Usability(%d)", int(u))
	}
	return usabilityNames[u]
}

// CurveSet is the result of one calculation. It is safe for concurrent
// use; a newer calculation replaces its whole state through Update.
type CurveSet struct {
	mu sync.RWMutex

	usability   Usability
	curves      []*Subcurve
	targets     []*Feature
	preselected []*Subcurve

	// filterBuffer is the area outside of which curves were excluded.
	filterBuffer geometry.Geometry

	// Tolerance is used for preselection membership tests.
	Tolerance float64
}

// NewCurveSet returns a curve set with the given state.
func NewCurveSet(u Usability, curves []*Subcurve, targets []*Feature) *CurveSet {
	return &CurveSet{
		usability: u,
		curves:    curves,
		targets:   targets,
		Tolerance: DefaultXYTolerance,
	}
}

// EmptyCurveSet returns a curve set with no curves and usability
// Undefined.
func EmptyCurveSet() *CurveSet { return NewCurveSet(Undefined, nil, nil) }

// Usability returns the classification of the calculation.
func (s *CurveSet) Usability() Usability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usability
}

// Curves returns all subcurves.
func (s *CurveSet) Curves() []*Subcurve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Subcurve(nil), s.curves...)
}

// Len returns the number of subcurves.
func (s *CurveSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.curves)
}

// Targets returns the target features the set was calculated for.
func (s *CurveSet) Targets() []*Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Feature(nil), s.targets...)
}

// FilterBuffer returns the area outside of which curves were filtered.
// It is empty if no tolerance filter was used.
func (s *CurveSet) FilterBuffer() geometry.Geometry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBuffer
}

// SetFilterBuffer replaces the filter buffer, e.g. with one received
// from a remote service.
func (s *CurveSet) SetFilterBuffer(g geometry.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterBuffer = g
}

// HasSelectableCurves reports whether the usability is CanReshape or any
// subcurve exists.
func (s *CurveSet) HasSelectableCurves() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSelectableCurves()
}

func (s *CurveSet) hasSelectableCurves() bool {
	return s.usability == CanReshape || len(s.curves) > 0
}

// Reshapeable returns the subcurves a user can select: green and yellow
// ones. It returns nil whenever the set has no selectable curves, so a
// non-empty result always implies HasSelectableCurves.
func (s *CurveSet) Reshapeable() []*Subcurve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasSelectableCurves() {
		return nil
	}
	return lo.Filter(s.curves, func(c *Subcurve, _ int) bool {
		return c.CanReshape() || c.IsReshapeMemberCandidate()
	})
}

// PreSelected returns the current preselection.
func (s *CurveSet) PreSelected() []*Subcurve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Subcurve(nil), s.preselected...)
}

// IsPreSelected reports whether a subcurve equal to c is preselected.
func (s *CurveSet) IsPreSelected(c *Subcurve) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preselectedIndex(c) >= 0
}

func (s *CurveSet) preselectedIndex(c *Subcurve) int {
	for i, p := range s.preselected {
		if p.Equal(c, s.Tolerance) {
			return i
		}
	}
	return -1
}

// PreSelectCurves toggles the preselection of every yellow subcurve that
// satisfies predicate. A nil predicate matches all subcurves. Green and
// red subcurves are never preselected. Calling it twice with the same
// predicate restores the previous preselection.
func (s *CurveSet) PreSelectCurves(predicate func(*Subcurve) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.curves {
		if predicate != nil && !predicate(c) {
			continue
		}
		if c.CanReshape() || !c.IsReshapeMemberCandidate() {
			continue
		}
		if i := s.preselectedIndex(c); i >= 0 {
			s.preselected = append(s.preselected[:i], s.preselected[i+1:]...)
		} else {
			s.preselected = append(s.preselected, c)
		}
	}
}

// GetSelectedReshapeCurves returns the subcurves that satisfy predicate
// (all of them if it is nil) together with, if includeAllPreSelectedCandidates
// is set, all preselected yellow subcurves.
func (s *CurveSet) GetSelectedReshapeCurves(predicate func(*Subcurve) bool, includeAllPreSelectedCandidates bool) []*Subcurve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.curves, func(c *Subcurve, _ int) bool {
		if includeAllPreSelectedCandidates && c.IsReshapeMemberCandidate() &&
			s.preselectedIndex(c) >= 0 {
			return true
		}
		return predicate == nil || predicate(c)
	})
}

// Update replaces the state of s by the state of o.
func (s *CurveSet) Update(o *CurveSet) {
	if s == o {
		return
	}
	o.mu.RLock()
	usability, curves, targets := o.usability, o.curves, o.targets
	preselected, buffer := o.preselected, o.filterBuffer
	o.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.usability = usability
	s.curves = append([]*Subcurve(nil), curves...)
	s.targets = append([]*Feature(nil), targets...)
	s.preselected = append([]*Subcurve(nil), preselected...)
	s.filterBuffer = buffer
}

func (s *CurveSet) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("%v: %d curves, %d preselected", s.usability, len(s.curves), len(s.preselected))
}
