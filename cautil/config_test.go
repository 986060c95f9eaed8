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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lnashier/viper"
	"github.com/prosuite/changealong"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		in   string
		want *changealong.Envelope
		err  bool
	}{
		{in: "", want: nil},
		{in: "0,1,10,11", want: &changealong.Envelope{XMin: 0, YMin: 1, XMax: 10, YMax: 11}},
		{in: " -5, -5 ,5,5 ", want: &changealong.Envelope{XMin: -5, YMin: -5, XMax: 5, YMax: 5}},
		{in: "0,0,10", err: true},
		{in: "0,0,x,1", err: true},
		{in: "10,0,0,10", err: true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			have, err := parseEnvelope(test.in)
			if (err != nil) != test.err {
				t.Fatalf("error: have %v, want error %v", err, test.err)
			}
			if diff := cmp.Diff(test.want, have); diff != "" {
				t.Errorf("(-want +have):\n%s", diff)
			}
		})
	}
}

func TestParseTolerance(t *testing.T) {
	if tol, err := parseTolerance(""); err != nil || tol != nil {
		t.Errorf("empty: have %v, %v; want nil", tol, err)
	}
	tol, err := parseTolerance("0.01")
	if err != nil {
		t.Fatal(err)
	}
	if *tol != 0.01 {
		t.Errorf("have %g, want 0.01", *tol)
	}
	if _, err := parseTolerance("fine"); err == nil {
		t.Error("want an error")
	}
}

func TestRunOptions(t *testing.T) {
	cfg := viper.New()
	cfg.Set("tolerance", "0.05")
	cfg.Set("buffer_distance", 2.5)
	cfg.Set("min_segment_length", 0.3)
	cfg.Set("exclude_outside_tolerance", 1.0)
	cfg.Set("exclude_overlaps", true)
	cfg.Set("clip_extent", "0,0,100,50")
	cfg.Set("z_source", "SourcePlane")
	cfg.Set("non_default_side", true)

	have, err := RunOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tol := 0.05
	extent := changealong.Envelope{XMax: 100, YMax: 50}
	want := Options{
		Tolerance: &tol,
		Buffer: changealong.TargetBufferOptions{
			BufferTarget:                      true,
			BufferDistance:                    2.5,
			EnforceMinimumBufferSegmentLength: true,
			MinimumBufferSegmentLength:        0.3,
		},
		Filter: changealong.ReshapeCurveFilterOptions{
			ClipLinesOnVisibleExtent:   true,
			VisibleExtents:             []changealong.Envelope{extent},
			ExcludeOutsideTolerance:    true,
			ExcludeTolerance:           1,
			ExcludeResultingInOverlaps: true,
		},
		ClipExtent:     &extent,
		ZSource:        changealong.ZSourcePlane,
		NonDefaultSide: true,
	}
	if diff := cmp.Diff(want, have, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("(-want +have):\n%s", diff)
	}

	cfg.Set("z_source", "Sky")
	if _, err := RunOptions(cfg); err == nil {
		t.Error("want an error for an unknown Z source")
	}
}

func TestTimeoutPerFeature(t *testing.T) {
	cfg := viper.New()
	cfg.Set("timeout_per_feature", "250ms")
	d, err := timeoutPerFeature(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Milliseconds() != 250 {
		t.Errorf("have %v, want 250ms", d)
	}
}
