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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/prosuite/changealong"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Options holds the settings of a reshape or cut run.
type Options struct {
	Tolerance *float64
	Buffer    changealong.TargetBufferOptions
	Filter    changealong.ReshapeCurveFilterOptions

	ClipExtent *changealong.Envelope
	ZSource    changealong.ZSource

	InsertVerticesInTarget bool
	NonDefaultSide         bool
	PreSelectCandidates    bool
}

// RunOptions reads the run options from cfg.
func RunOptions(cfg *viper.Viper) (Options, error) {
	var o Options
	var err error
	if o.Tolerance, err = parseTolerance(cfg.GetString("tolerance")); err != nil {
		return o, err
	}
	o.Buffer = changealong.NewTargetBufferOptions(
		cfg.GetFloat64("buffer_distance"), cfg.GetFloat64("min_segment_length"))
	if d := cfg.GetFloat64("exclude_outside_tolerance"); d > 0 {
		o.Filter.ExcludeOutsideTolerance = true
		o.Filter.ExcludeTolerance = d
	}
	o.Filter.ExcludeOutsideSource = cfg.GetBool("exclude_outside_source")
	o.Filter.ExcludeResultingInOverlaps = cfg.GetBool("exclude_overlaps")
	if o.ClipExtent, err = parseEnvelope(cfg.GetString("clip_extent")); err != nil {
		return o, err
	}
	if o.ClipExtent != nil {
		o.Filter.ClipLinesOnVisibleExtent = true
		o.Filter.VisibleExtents = []changealong.Envelope{*o.ClipExtent}
	}
	if z := cfg.GetString("z_source"); z != "" {
		if o.ZSource, err = changealong.ParseZSource(z); err != nil {
			return o, err
		}
	}
	o.InsertVerticesInTarget = cfg.GetBool("insert_vertices_in_target")
	o.NonDefaultSide = cfg.GetBool("non_default_side")
	o.PreSelectCandidates = cfg.GetBool("preselect_candidates")
	return o, nil
}

// parseTolerance returns nil for an empty string, which selects the
// tolerance of the source classes.
func parseTolerance(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := cast.ToFloat64E(s)
	if err != nil {
		return nil, fmt.Errorf("cautil: invalid tolerance %q: %v", s, err)
	}
	return &t, nil
}

// parseEnvelope parses "xmin,ymin,xmax,ymax".
func parseEnvelope(s string) (*changealong.Envelope, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("cautil: clip extent %q must have four comma-separated values", s)
	}
	v := make([]float64, 4)
	for i, p := range parts {
		var err error
		if v[i], err = cast.ToFloat64E(strings.TrimSpace(p)); err != nil {
			return nil, fmt.Errorf("cautil: invalid clip extent %q: %v", s, err)
		}
	}
	e := changealong.Envelope{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}
	if e.IsEmpty() {
		return nil, fmt.Errorf("cautil: clip extent %v is empty", e)
	}
	return &e, nil
}

// timeoutPerFeature reads the per-feature timeout of remote calls.
func timeoutPerFeature(cfg *viper.Viper) (time.Duration, error) {
	d, err := cast.ToDurationE(cfg.Get("timeout_per_feature"))
	if err != nil {
		return 0, fmt.Errorf("cautil: invalid timeout_per_feature: %v", err)
	}
	return d, nil
}

// configureLogging sets the level and format of the standard logger.
func configureLogging(cfg *viper.Viper) error {
	level, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("cautil: %v", err)
	}
	logrus.SetLevel(level)
	if cfg.GetBool("LogJSON") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}
	logrus.SetOutput(os.Stderr)
	return nil
}
