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
	"context"
	"math"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/prosuite/changealong"
	"github.com/prosuite/changealong/geometry"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

var (
	parcels = &changealong.ObjectClass{Name: "parcels", GeometryType: geometry.Polygon}
	roads   = &changealong.ObjectClass{Name: "roads", GeometryType: geometry.Polyline}
)

func line(class *changealong.ObjectClass, oid int64, coords ...float64) *changealong.Feature {
	var pts []geometry.Point
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, geometry.Pt(coords[i], coords[i+1]))
	}
	shape := geometry.NewPolyline(geometry.NewPath(pts...))
	if class.GeometryType == geometry.Polygon {
		shape = geometry.NewPolygon(shape.Parts...)
	}
	return &changealong.Feature{Class: class, ObjectID: oid, Shape: shape}
}

func square(oid int64) *changealong.Feature {
	return line(parcels, oid, 0, 0, 0, 10, 10, 10, 10, 0, 0, 0)
}

// connect serves svc on an in-memory listener and returns a client for it.
func connect(t *testing.T, svc changealong.Service, log logrus.FieldLogger) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(svc)
	srv.Log = log
	gs := srv.NewGRPCServer()
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	c := NewClient(conn)
	c.Log = log
	return c
}

func quiet() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func sameCurves(t *testing.T, name string, have, want *changealong.CurveSet) {
	t.Helper()
	if have.Usability() != want.Usability() {
		t.Errorf("%s usability: have %v, want %v", name, have.Usability(), want.Usability())
	}
	hc, wc := have.Curves(), want.Curves()
	if len(hc) != len(wc) {
		t.Fatalf("%s: have %d curves, want %d", name, len(hc), len(wc))
	}
	for i := range hc {
		if !hc[i].Equal(wc[i], 1e-12) {
			t.Errorf("%s curve %d: have %v, want %v", name, i, hc[i], wc[i])
		}
	}
}

func sameResults(t *testing.T, name string, have, want []changealong.ResultObject) {
	t.Helper()
	if len(have) != len(want) {
		t.Fatalf("%s: have %# v, want %# v", name, pretty.Formatter(have), pretty.Formatter(want))
	}
	for i := range have {
		if have[i].Feature != want[i].Feature || have[i].Kind != want[i].Kind ||
			!have[i].Geometry.Equal(want[i].Geometry, 1e-12) {
			t.Errorf("%s result %d: have %# v, want %# v", name, i, pretty.Formatter(have[i]), pretty.Formatter(want[i]))
		}
	}
}

func TestRemoteReshapeMatchesLocal(t *testing.T) {
	ctx := context.Background()
	local := changealong.NewLocalService(0)
	local.Log = quiet()
	remote := connect(t, local, quiet())

	sources := []*changealong.Feature{square(1)}
	targets := []*changealong.Feature{line(roads, 2, 3, 0, 3, -4, 7, -4, 7, 0)}
	buffer := changealong.TargetBufferOptions{}
	filter := changealong.ReshapeCurveFilterOptions{ExcludeResultingInOverlaps: true}

	want, err := local.CalculateReshapeLines(ctx, sources, targets, buffer, filter, nil)
	if err != nil {
		t.Fatal(err)
	}
	have, err := remote.CalculateReshapeLines(ctx, sources, targets, buffer, filter, nil)
	if err != nil {
		t.Fatal(err)
	}
	sameCurves(t, "calculate", have, want)
	if have.Tolerance != want.Tolerance {
		t.Errorf("tolerance: have %g, want %g", have.Tolerance, want.Tolerance)
	}

	selected := func(s *changealong.CurveSet) []*changealong.Subcurve {
		return s.GetSelectedReshapeCurves(func(c *changealong.Subcurve) bool { return c.CanReshape() }, true)
	}
	wantResults, wantNext, err := local.ApplyReshapeLines(ctx, sources, targets, selected(want), buffer, filter, nil, true, false)
	if err != nil {
		t.Fatal(err)
	}
	haveResults, haveNext, err := remote.ApplyReshapeLines(ctx, sources, targets, selected(have), buffer, filter, nil, true, false)
	if err != nil {
		t.Fatal(err)
	}
	sameResults(t, "apply", haveResults, wantResults)
	sameCurves(t, "recalculated", haveNext, wantNext)
	if haveResults[0].Feature != sources[0] {
		t.Errorf("result feature: have %v, want %v", haveResults[0].Feature, sources[0])
	}
}

func TestRemoteCutMatchesLocal(t *testing.T) {
	ctx := context.Background()
	local := changealong.NewLocalService(0)
	local.Log = quiet()
	remote := connect(t, local, quiet())

	sources := []*changealong.Feature{line(roads, 1, 0, 0, 10, 0)}
	targets := []*changealong.Feature{line(roads, 2, 5, -5, 5, 5)}
	clip := &changealong.Envelope{XMin: -1, YMin: -10, XMax: 11, YMax: 10}

	want, err := local.CalculateCutLines(ctx, sources, targets, changealong.TargetBufferOptions{}, clip, nil, changealong.ZTarget)
	if err != nil {
		t.Fatal(err)
	}
	have, err := remote.CalculateCutLines(ctx, sources, targets, changealong.TargetBufferOptions{}, clip, nil, changealong.ZTarget)
	if err != nil {
		t.Fatal(err)
	}
	sameCurves(t, "calculate", have, want)

	wantResults, _, err := local.ApplyCutLines(ctx, sources, targets, want.Reshapeable(),
		changealong.TargetBufferOptions{}, clip, nil, changealong.ZTarget, false)
	if err != nil {
		t.Fatal(err)
	}
	haveResults, _, err := remote.ApplyCutLines(ctx, sources, targets, have.Reshapeable(),
		changealong.TargetBufferOptions{}, clip, nil, changealong.ZTarget, false)
	if err != nil {
		t.Fatal(err)
	}
	sameResults(t, "apply", haveResults, wantResults)
	var kinds []changealong.ChangeKind
	for _, r := range haveResults {
		kinds = append(kinds, r.Kind)
	}
	if len(kinds) != 2 || kinds[0] != changealong.Update || kinds[1] != changealong.Insert {
		t.Errorf("kinds: have %v, want [Update Insert]", kinds)
	}
}

func TestRemoteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	remote := connect(t, changealong.NewLocalService(0), quiet())
	set, err := remote.CalculateReshapeLines(ctx, []*changealong.Feature{square(1)}, nil,
		changealong.TargetBufferOptions{}, changealong.ReshapeCurveFilterOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != changealong.Undefined || set.Len() != 0 {
		t.Errorf("have %v, want empty Undefined set", set)
	}
}

// stalled never answers before the request is cancelled.
type stalled struct {
	changealong.Service
}

func (stalled) CalculateCutLines(ctx context.Context, _, _ []*changealong.Feature,
	_ changealong.TargetBufferOptions, _ *changealong.Envelope, _ *float64,
	_ changealong.ZSource) (*changealong.CurveSet, error) {
	<-ctx.Done()
	return changealong.EmptyCurveSet(), nil
}

func TestRemoteTimeout(t *testing.T) {
	log, hook := test.NewNullLogger()
	remote := connect(t, stalled{}, quiet())
	remote.Log = log
	remote.TimeoutPerFeature = 20 * time.Millisecond

	start := time.Now()
	set, err := remote.CalculateCutLines(context.Background(),
		[]*changealong.Feature{square(1)}, []*changealong.Feature{square(2)},
		changealong.TargetBufferOptions{}, nil, nil, changealong.ZTarget)
	if err != nil {
		t.Fatal(err)
	}
	if set.Usability() != changealong.Undefined || set.Len() != 0 {
		t.Errorf("have %v, want empty Undefined set", set)
	}
	if d := time.Since(start); d > 5*time.Second {
		t.Errorf("call took %v", d)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("want a warning, have %v", e)
	}
}

// failing always returns an error.
type failing struct {
	changealong.Service
}

func (failing) CalculateReshapeLines(context.Context, []*changealong.Feature, []*changealong.Feature,
	changealong.TargetBufferOptions, changealong.ReshapeCurveFilterOptions, *float64) (*changealong.CurveSet, error) {
	return nil, errors.New("geometry engine unavailable")
}

func TestRemoteErrorDiagnostics(t *testing.T) {
	log, hook := test.NewNullLogger()
	remote := connect(t, failing{}, quiet())
	remote.Log = log
	_, err := remote.CalculateReshapeLines(context.Background(),
		[]*changealong.Feature{square(1)}, []*changealong.Feature{square(2)},
		changealong.TargetBufferOptions{}, changealong.ReshapeCurveFilterOptions{}, nil)
	if err == nil || !strings.Contains(err.Error(), "geometry engine unavailable") {
		t.Fatalf("have %v, want the server error", err)
	}
	e := hook.LastEntry()
	if e == nil {
		t.Fatal("no log entry")
	}
	if have := e.Data[DiagnosticsKey]; have != "geometry engine unavailable" {
		t.Errorf("diagnostics: have %v, want the server error", have)
	}
	if id, _ := e.Data[RequestIDKey].(string); id == "" {
		t.Error("missing request ID")
	}
}

func TestClassDefinitionsDeduplicated(t *testing.T) {
	sources := []*changealong.Feature{square(1), square(2)}
	targets := []*changealong.Feature{line(roads, 3, 0, 0, 1, 1), square(4)}
	classes, msgs := encodeFeatures(sources, targets)
	if len(classes) != 2 {
		t.Fatalf("have %d class definitions, want 2", len(classes))
	}
	features, err := decodeFeatures(classes, msgs...)
	if err != nil {
		t.Fatal(err)
	}
	if features[0][0].Class != features[0][1].Class || features[0][0].Class != features[1][1].Class {
		t.Error("features of one class do not share it")
	}
	for i, l := range [][]*changealong.Feature{sources, targets} {
		for j, f := range l {
			if have, want := features[i][j].Reference(), f.Reference(); have != want {
				t.Errorf("reference: have %v, want %v", have, want)
			}
		}
	}

	_, err = decodeFeatures(classes[:1], msgs...)
	if errors.Cause(err) != ErrUnknownClass {
		t.Errorf("have %v, want %v", err, ErrUnknownClass)
	}
}

func TestResolveResults(t *testing.T) {
	f := square(1)
	idx := changealong.NewFeatureIndex([]*changealong.Feature{f})
	msgs := toResultMsgs([]changealong.ResultObject{
		{Feature: f, Geometry: f.Shape, Kind: changealong.Update},
		{Feature: f, Geometry: f.Shape, Kind: changealong.Insert},
	})
	results, err := fromResultMsgs(msgs, idx)
	if err != nil {
		t.Fatal(err)
	}
	for i, kind := range []changealong.ChangeKind{changealong.Update, changealong.Insert} {
		if results[i].Feature != f || results[i].Kind != kind {
			t.Errorf("result %d: have %v %v, want %v %v", i, results[i].Kind, results[i].Feature, kind, f)
		}
	}

	other := square(7)
	_, err = fromResultMsgs(toResultMsgs([]changealong.ResultObject{{Feature: other, Geometry: other.Shape, Kind: changealong.Update}}), idx)
	if errors.Cause(err) != ErrUnknownObject {
		t.Errorf("have %v, want %v", err, ErrUnknownObject)
	}
}

func TestCodecKeepsUndefinedZ(t *testing.T) {
	in := ReshapeLineMsg{
		Path:       geometry.NewPath(geometry.Pt(0, 0), geometry.PtZ(1, 1, 4)),
		CanReshape: true,
	}
	b, err := Codec{}.Marshal(&in)
	if err != nil {
		t.Fatal(err)
	}
	var out ReshapeLineMsg
	if err := (Codec{}).Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(out.Path.Points[0].Z) || out.Path.Points[1].Z != 4 {
		t.Errorf("have %v, want %v", out.Path, in.Path)
	}
	if !out.Path.Equal(in.Path, 0) || !out.CanReshape {
		t.Errorf("have %# v, want %# v", pretty.Formatter(out), pretty.Formatter(in))
	}
}
