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
	"context"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/prosuite/changealong"
	"github.com/prosuite/changealong/changealongrpc"
	"github.com/sirupsen/logrus"
)

// Operation selects what a run does with the features.
type Operation int

// Operations.
const (
	Reshape Operation = iota
	Cut
)

func (o Operation) String() string {
	if o == Cut {
		return "cut"
	}
	return "reshape"
}

// Result is the outcome of a run.
type Result struct {
	// Calculated is the curve set the selection was taken from.
	Calculated *changealong.CurveSet
	// Selected are the applied subcurves.
	Selected []*changealong.Subcurve
	Results  []changealong.ResultObject
	// Next is the curve set recalculated for the changed features.
	Next *changealong.CurveSet
}

// NewService returns the remote service at cfg's "remote" address, or a
// local service if no address is set. The returned function releases the
// service.
func NewService(ctx context.Context, cfg *viper.Viper) (changealong.Service, func() error, error) {
	addr := cfg.GetString("remote")
	if addr == "" {
		s := changealong.NewLocalService(cfg.GetInt("cache_size"))
		s.CoplanarityTolerance = cfg.GetFloat64("coplanarity_tolerance")
		return s, func() error { return nil }, nil
	}
	timeout, err := timeoutPerFeature(cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := changealongrpc.Dial(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	c.TimeoutPerFeature = timeout
	return c, c.Close, nil
}

// Run calculates the subcurves of the operation, selects every green
// subcurve together with the preselected yellow ones, and applies them.
// Yellow subcurves are preselected only if o.PreSelectCandidates is set.
func Run(ctx context.Context, svc changealong.Service, op Operation,
	sources, targets []*changealong.Feature, o Options) (*Result, error) {
	log := logrus.WithField("operation", op.String())

	var set *changealong.CurveSet
	var err error
	switch op {
	case Reshape:
		set, err = svc.CalculateReshapeLines(ctx, sources, targets, o.Buffer, o.Filter, o.Tolerance)
	case Cut:
		set, err = svc.CalculateCutLines(ctx, sources, targets, o.Buffer, o.ClipExtent, o.Tolerance, o.ZSource)
	default:
		return nil, fmt.Errorf("cautil: invalid operation %d", op)
	}
	if err != nil {
		return nil, err
	}
	r := &Result{Calculated: set}
	log.WithFields(logrus.Fields{
		"usability": set.Usability().String(),
		"curves":    set.Len(),
	}).Info("calculated subcurves")
	if !set.HasSelectableCurves() {
		return r, nil
	}

	if o.PreSelectCandidates {
		set.PreSelectCurves(nil)
	}
	r.Selected = set.GetSelectedReshapeCurves(func(c *changealong.Subcurve) bool {
		return c.CanReshape() && !c.IsFiltered
	}, true)
	if len(r.Selected) == 0 {
		return r, nil
	}

	// Z values of remote curves are reconciled against the local targets.
	if _, remote := svc.(*changealongrpc.Client); remote {
		z := &changealong.ZSettings{Source: o.ZSource, Targets: targets, Tolerance: set.Tolerance}
		if op == Reshape {
			z.Source = changealong.ZTarget
		}
		if err := changealong.ApplyZsToReshapeCurves(sources, r.Selected, z); err != nil {
			return nil, err
		}
	}

	switch op {
	case Reshape:
		r.Results, r.Next, err = svc.ApplyReshapeLines(ctx, sources, targets, r.Selected,
			o.Buffer, o.Filter, o.Tolerance, o.InsertVerticesInTarget, o.NonDefaultSide)
	case Cut:
		r.Results, r.Next, err = svc.ApplyCutLines(ctx, sources, targets, r.Selected,
			o.Buffer, o.ClipExtent, o.Tolerance, o.ZSource, o.InsertVerticesInTarget)
	}
	if err != nil {
		return nil, err
	}
	log.WithField("results", len(r.Results)).Info("applied subcurves")
	return r, nil
}
