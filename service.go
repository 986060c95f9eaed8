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

	"github.com/sirupsen/logrus"
)

// Version is the version of this module.
const Version = "1.0.0"

// Service calculates and applies change-along subcurves. Calculations
// that are cancelled through ctx return an empty curve set with usability
// Undefined and no error.
type Service interface {
	// CalculateReshapeLines returns the subcurves along which the sources
	// can be reshaped to follow the targets.
	CalculateReshapeLines(ctx context.Context, sources, targets []*Feature,
		buffer TargetBufferOptions, filter ReshapeCurveFilterOptions,
		tolerance *float64) (*CurveSet, error)

	// CalculateCutLines returns the subcurves along which the sources can
	// be cut by the targets.
	CalculateCutLines(ctx context.Context, sources, targets []*Feature,
		buffer TargetBufferOptions, clipExtent *Envelope, tolerance *float64,
		zSource ZSource) (*CurveSet, error)

	// ApplyReshapeLines reshapes the sources along the selected subcurves
	// and returns the changed features together with the curve set
	// calculated for the changed features.
	ApplyReshapeLines(ctx context.Context, sources, targets []*Feature,
		selected []*Subcurve, buffer TargetBufferOptions,
		filter ReshapeCurveFilterOptions, tolerance *float64,
		insertVerticesInTarget, nonDefaultSide bool) ([]ResultObject, *CurveSet, error)

	// ApplyCutLines cuts the sources along the selected subcurves.
	ApplyCutLines(ctx context.Context, sources, targets []*Feature,
		selected []*Subcurve, buffer TargetBufferOptions, clipExtent *Envelope,
		tolerance *float64, zSource ZSource,
		insertVerticesInTarget bool) ([]ResultObject, *CurveSet, error)
}

// LocalService is a Service that runs in the calling process.
type LocalService struct {
	// CacheSize is the number of prepared target sets to keep.
	CacheSize int

	// CoplanarityTolerance is passed to the Z settings. Zero disables
	// planarity warnings.
	CoplanarityTolerance float64

	Log logrus.FieldLogger

	targets targetCache
}

// NewLocalService returns a LocalService that caches up to cacheSize
// prepared target sets.
func NewLocalService(cacheSize int) *LocalService {
	return &LocalService{CacheSize: cacheSize}
}

func (s *LocalService) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func (s *LocalService) zSettings(zSource ZSource, targets []*Feature, tolerance float64) *ZSettings {
	return &ZSettings{
		Source:               zSource,
		Targets:              targets,
		Tolerance:            tolerance,
		CoplanarityTolerance: s.CoplanarityTolerance,
		Log:                  s.log(),
	}
}

// prepare checks the inputs of a calculation. It returns a non-nil curve
// set if the calculation cannot proceed.
func (s *LocalService) prepare(ctx context.Context, sources, targets []*Feature, buffer TargetBufferOptions, tolerance *float64) (*calculation, *CurveSet, error) {
	if ctx.Err() != nil {
		return nil, EmptyCurveSet(), nil
	}
	if len(sources) == 0 {
		return nil, NewCurveSet(NoSource, nil, targets), nil
	}
	if err := checkSources(sources); err != nil {
		return nil, nil, err
	}
	if len(targets) == 0 {
		return nil, NewCurveSet(NoTarget, nil, targets), nil
	}
	paths, err := s.targets.paths(ctx, s.CacheSize, targets, buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("changealong: preparing targets: %v", err)
	}
	if len(paths) == 0 {
		return nil, NewCurveSet(NoTarget, nil, targets), nil
	}
	return newCalculation(ctx, s.log(), targets, paths, tolerance, sources), nil, nil
}

// CalculateReshapeLines implements Service.
func (s *LocalService) CalculateReshapeLines(ctx context.Context, sources, targets []*Feature,
	buffer TargetBufferOptions, filter ReshapeCurveFilterOptions, tolerance *float64) (*CurveSet, error) {
	calc, result, err := s.prepare(ctx, sources, targets, buffer, tolerance)
	if calc == nil {
		return result, err
	}

	var curves []*Subcurve
	usable, congruent := 0, 0
	for _, source := range sources {
		c, status := calc.reshapeCurves(source, filter.extents())
		if calc.cancelled() {
			return EmptyCurveSet(), nil
		}
		switch status {
		case sourceCongruent:
			congruent++
			usable++
		case sourceUsable:
			usable++
		}
		curves = append(curves, c...)
	}

	cf := newCurveFilter(filter, sources, targets, calc.tolerance)
	idx := NewFeatureIndex(sources)
	cf.apply(curves, func(c *Subcurve) *Feature {
		if c.Source == nil {
			return nil
		}
		f, _ := idx.Lookup(*c.Source)
		return f
	})
	calc.assignCandidates(curves)
	curves = calc.joinNonForking(curves)

	if err := ApplyZsToReshapeCurves(sources, curves, s.zSettings(ZTarget, targets, calc.tolerance)); err != nil {
		return nil, err
	}
	if calc.cancelled() {
		return EmptyCurveSet(), nil
	}

	set := NewCurveSet(classify(curves, usable, congruent), curves, targets)
	set.Tolerance = calc.tolerance
	set.filterBuffer = cf.buffer
	s.logResult("CalculateReshapeLines", sources, targets, set)
	return set, nil
}

// CalculateCutLines implements Service.
func (s *LocalService) CalculateCutLines(ctx context.Context, sources, targets []*Feature,
	buffer TargetBufferOptions, clipExtent *Envelope, tolerance *float64, zSource ZSource) (*CurveSet, error) {
	calc, result, err := s.prepare(ctx, sources, targets, buffer, tolerance)
	if calc == nil {
		return result, err
	}

	var curves []*Subcurve
	usable, congruent := 0, 0
	for _, source := range sources {
		c, status := calc.cutCurves(source, clipExtent)
		if calc.cancelled() {
			return EmptyCurveSet(), nil
		}
		switch status {
		case sourceCongruent:
			congruent++
			usable++
		case sourceUsable:
			usable++
		}
		curves = append(curves, c...)
	}
	calc.assignCandidates(curves)
	curves = calc.joinNonForking(curves)

	if err := ApplyZsToReshapeCurves(sources, curves, s.zSettings(zSource, targets, calc.tolerance)); err != nil {
		return nil, err
	}
	if calc.cancelled() {
		return EmptyCurveSet(), nil
	}

	set := NewCurveSet(classify(curves, usable, congruent), curves, targets)
	set.Tolerance = calc.tolerance
	s.logResult("CalculateCutLines", sources, targets, set)
	return set, nil
}

// ApplyReshapeLines implements Service.
func (s *LocalService) ApplyReshapeLines(ctx context.Context, sources, targets []*Feature,
	selected []*Subcurve, buffer TargetBufferOptions, filter ReshapeCurveFilterOptions,
	tolerance *float64, insertVerticesInTarget, nonDefaultSide bool) ([]ResultObject, *CurveSet, error) {
	if ctx.Err() != nil {
		return nil, EmptyCurveSet(), nil
	}
	if err := checkSources(sources); err != nil {
		return nil, nil, err
	}
	tol, _ := resolveTolerance(tolerance, sources)
	z := s.zSettings(ZTarget, targets, tol)
	results, applied, err := applyReshape(sources, selected, tol, nonDefaultSide, z, s.log())
	if err != nil {
		return nil, nil, err
	}
	return s.commit(ctx, "ApplyReshapeLines", sources, targets, results, applied, tol, insertVerticesInTarget,
		func(newSources, newTargets []*Feature) (*CurveSet, error) {
			return s.CalculateReshapeLines(ctx, newSources, newTargets, buffer, filter, tolerance)
		})
}

// ApplyCutLines implements Service.
func (s *LocalService) ApplyCutLines(ctx context.Context, sources, targets []*Feature,
	selected []*Subcurve, buffer TargetBufferOptions, clipExtent *Envelope, tolerance *float64,
	zSource ZSource, insertVerticesInTarget bool) ([]ResultObject, *CurveSet, error) {
	if ctx.Err() != nil {
		return nil, EmptyCurveSet(), nil
	}
	if err := checkSources(sources); err != nil {
		return nil, nil, err
	}
	tol, _ := resolveTolerance(tolerance, sources)
	z := s.zSettings(zSource, targets, tol)
	results, applied, err := applyCut(sources, selected, tol, z, s.log())
	if err != nil {
		return nil, nil, err
	}
	return s.commit(ctx, "ApplyCutLines", sources, targets, results, applied, tol, insertVerticesInTarget,
		func(newSources, newTargets []*Feature) (*CurveSet, error) {
			return s.CalculateCutLines(ctx, newSources, newTargets, buffer, clipExtent, tolerance, zSource)
		})
}

// commit adds the target vertex updates to the results and recalculates
// the curve set for the changed features.
func (s *LocalService) commit(ctx context.Context, method string, sources, targets []*Feature,
	results []ResultObject, applied []chain, tol float64, insertVerticesInTarget bool,
	recalculate func(newSources, newTargets []*Feature) (*CurveSet, error)) ([]ResultObject, *CurveSet, error) {
	if ctx.Err() != nil {
		return nil, EmptyCurveSet(), nil
	}
	if insertVerticesInTarget {
		results = append(results, insertTargetVertices(targets, sources, applied, tol)...)
	}
	set, err := recalculate(updated(sources, results), updated(targets, results))
	if err != nil {
		return nil, nil, err
	}
	s.log().WithFields(logrus.Fields{
		"method":    method,
		"results":   len(results),
		"usability": set.Usability().String(),
	}).Info("applied subcurves")
	return results, set, nil
}

func (s *LocalService) logResult(method string, sources, targets []*Feature, set *CurveSet) {
	s.log().WithFields(logrus.Fields{
		"method":    method,
		"sources":   len(sources),
		"targets":   len(targets),
		"usability": set.Usability().String(),
		"curves":    set.Len(),
	}).Debug("calculated subcurves")
}
