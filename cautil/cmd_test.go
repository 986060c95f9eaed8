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
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prosuite/changealong"
	"github.com/prosuite/changealong/changealongrpc"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	out := new(bytes.Buffer)
	Root.SetOut(out)
	Root.SetErr(out)
	Root.SetArgs(args)
	if err := Root.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestVersion(t *testing.T) {
	have := execute(t, "version")
	if want := "changealong v" + changealong.Version + "\n"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
}

func TestConfigDump(t *testing.T) {
	have := execute(t, "config", "dump")
	for _, want := range []string{`addr = ":7050"`, `LogLevel = "info"`, `timeout_per_feature = "5s"`} {
		if !strings.Contains(have, want) {
			t.Errorf("dump does not contain %s:\n%s", want, have)
		}
	}
}

func readResults(t *testing.T, path string) *FeatureCollection {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	fc := new(FeatureCollection)
	if err := json.Unmarshal(b, fc); err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestReshapeCommand(t *testing.T) {
	dir := t.TempDir()
	sources := writeFile(t, dir, "sources.geojson", squareJSON)
	targets := writeFile(t, dir, "targets.geojson", bumpJSON)
	output := filepath.Join(dir, "out.geojson")

	execute(t, "reshape", "--sources", sources, "--targets", targets, "--output", output, "--LogLevel", "warn")

	fc := readResults(t, output)
	if len(fc.Features) != 1 {
		t.Fatalf("have %d results, want 1", len(fc.Features))
	}
	f := fc.Features[0]
	if f.Properties["kind"] != "Update" || f.Properties["objectId"] != 7.0 {
		t.Errorf("properties: have %v", f.Properties)
	}
	shape, err := fromGeoJSON(f.Geometry)
	if err != nil {
		t.Fatal(err)
	}
	if have := shape.Area(); math.Abs(have-116) > 1e-9 {
		t.Errorf("area: have %g, want 116", have)
	}
}

func TestCutCommand(t *testing.T) {
	dir := t.TempDir()
	sources := writeFile(t, dir, "sources.geojson", squareJSON)
	targets := writeFile(t, dir, "targets.geojson", `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"objectId": 3, "class": "roads"},
   "geometry": {"type": "LineString", "coordinates": [[5, -1], [5, 11]]}}
]}`)
	output := filepath.Join(dir, "out.geojson")

	execute(t, "cut", "--sources", sources, "--targets", targets, "--output", output, "--LogLevel", "warn")

	fc := readResults(t, output)
	if len(fc.Features) != 2 {
		t.Fatalf("have %d results, want 2", len(fc.Features))
	}
	kinds := map[interface{}]int{}
	for _, f := range fc.Features {
		kinds[f.Properties["kind"]]++
		shape, err := fromGeoJSON(f.Geometry)
		if err != nil {
			t.Fatal(err)
		}
		if have := shape.Area(); math.Abs(have-50) > 1e-9 {
			t.Errorf("area: have %g, want 50", have)
		}
	}
	if kinds["Update"] != 1 || kinds["Insert"] != 1 {
		t.Errorf("kinds: have %v, want one Update and one Insert", kinds)
	}
}

func TestGateway(t *testing.T) {
	svc := changealong.NewLocalService(0)
	srv := httptest.NewServer(NewGateway(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatal(err)
	}
	var version map[string]string
	json.NewDecoder(resp.Body).Decode(&version)
	resp.Body.Close()
	if version["version"] != changealong.Version {
		t.Errorf("version: have %v, want %s", version, changealong.Version)
	}

	body := `{"sources": ` + squareJSON + `, "targets": ` + bumpJSON + `, "options": {"nonDefaultSide": true}}`
	resp, err = http.Post(srv.URL+"/reshape", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: have %d, want 200", resp.StatusCode)
	}
	var have GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&have); err != nil {
		t.Fatal(err)
	}
	if have.Usability != changealong.CanReshape.String() || len(have.Curves.Features) != 1 {
		t.Errorf("have %s with %d curves, want CanReshape with 1", have.Usability, len(have.Curves.Features))
	}
	if len(have.Results.Features) != 1 {
		t.Fatalf("have %d results, want 1", len(have.Results.Features))
	}
	shape, err := fromGeoJSON(have.Results.Features[0].Geometry)
	if err != nil {
		t.Fatal(err)
	}
	if a := shape.Area(); math.Abs(a-16) > 1e-9 {
		t.Errorf("non-default side area: have %g, want 16", a)
	}

	resp, err = http.Post(srv.URL+"/cut", "application/json", strings.NewReader(`{"sources": {}}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("empty cut: have status %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/cut", "application/json", strings.NewReader(`{`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: have status %d, want 400", resp.StatusCode)
	}
}

func TestRunRemote(t *testing.T) {
	local := changealong.NewLocalService(0)
	lis := bufconn.Listen(1 << 20)
	gs := changealongrpc.NewServer(local).NewGRPCServer()
	go gs.Serve(lis)
	defer gs.Stop()
	conn, err := grpc.DialContext(context.Background(), "bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	remote := changealongrpc.NewClient(conn)
	remote.Log, _ = test.NewNullLogger()

	sources, err := DecodeFeatures(strings.NewReader(squareJSON), "sources")
	if err != nil {
		t.Fatal(err)
	}
	targets, err := DecodeFeatures(strings.NewReader(bumpJSON), "targets")
	if err != nil {
		t.Fatal(err)
	}
	want, err := Run(context.Background(), local, Reshape, sources, targets, Options{InsertVerticesInTarget: true})
	if err != nil {
		t.Fatal(err)
	}
	have, err := Run(context.Background(), remote, Reshape, sources, targets, Options{InsertVerticesInTarget: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(have.Results) != len(want.Results) {
		t.Fatalf("have %d results, want %d", len(have.Results), len(want.Results))
	}
	for i := range have.Results {
		h, w := have.Results[i], want.Results[i]
		if h.Feature != w.Feature || h.Kind != w.Kind || !h.Geometry.Equal(w.Geometry, 1e-12) {
			t.Errorf("result %d: have %v %v, want %v %v", i, h.Kind, h.Feature, w.Kind, w.Feature)
		}
	}
	if have.Next.Usability() != want.Next.Usability() {
		t.Errorf("next usability: have %v, want %v", have.Next.Usability(), want.Next.Usability())
	}
}
