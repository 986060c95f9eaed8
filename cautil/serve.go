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
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prosuite/changealong"
	"github.com/prosuite/changealong/changealongrpc"
	"github.com/sirupsen/logrus"
)

// Serve serves svc over gRPC at addr and, if httpAddr is not empty, the
// JSON gateway at httpAddr. It returns when ctx is done or a server fails.
func Serve(ctx context.Context, svc changealong.Service, addr, httpAddr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cautil: %v", err)
	}
	gs := changealongrpc.NewServer(svc).NewGRPCServer()
	errc := make(chan error, 2)
	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("serving gRPC")
		errc <- gs.Serve(lis)
	}()

	var hs *http.Server
	if httpAddr != "" {
		hs = &http.Server{Addr: httpAddr, Handler: NewGateway(svc)}
		go func() {
			logrus.WithField("addr", httpAddr).Info("serving HTTP gateway")
			errc <- hs.ListenAndServe()
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
	}
	gs.GracefulStop()
	if hs != nil {
		hs.Close()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("cautil: serving: %v", err)
	}
	return nil
}

// GatewayOptions are the run options of a gateway request.
type GatewayOptions struct {
	Tolerance                  *float64              `json:"tolerance,omitempty"`
	BufferDistance             float64               `json:"bufferDistance"`
	MinSegmentLength           float64               `json:"minSegmentLength"`
	ExcludeOutsideTolerance    float64               `json:"excludeOutsideTolerance"`
	ExcludeOutsideSource       bool                  `json:"excludeOutsideSource"`
	ExcludeResultingInOverlaps bool                  `json:"excludeResultingInOverlaps"`
	ClipExtent                 *changealong.Envelope `json:"clipExtent,omitempty"`
	ZSource                    string                `json:"zSource"`
	InsertVerticesInTarget     bool                  `json:"insertVerticesInTarget"`
	NonDefaultSide             bool                  `json:"nonDefaultSide"`
	PreSelectCandidates        bool                  `json:"preselectCandidates"`
}

func (g GatewayOptions) options() (Options, error) {
	o := Options{
		Tolerance:              g.Tolerance,
		Buffer:                 changealong.NewTargetBufferOptions(g.BufferDistance, g.MinSegmentLength),
		ClipExtent:             g.ClipExtent,
		InsertVerticesInTarget: g.InsertVerticesInTarget,
		NonDefaultSide:         g.NonDefaultSide,
		PreSelectCandidates:    g.PreSelectCandidates,
	}
	if g.ExcludeOutsideTolerance > 0 {
		o.Filter.ExcludeOutsideTolerance = true
		o.Filter.ExcludeTolerance = g.ExcludeOutsideTolerance
	}
	o.Filter.ExcludeOutsideSource = g.ExcludeOutsideSource
	o.Filter.ExcludeResultingInOverlaps = g.ExcludeResultingInOverlaps
	if g.ClipExtent != nil {
		o.Filter.ClipLinesOnVisibleExtent = true
		o.Filter.VisibleExtents = []changealong.Envelope{*g.ClipExtent}
	}
	if g.ZSource != "" {
		var err error
		if o.ZSource, err = changealong.ParseZSource(g.ZSource); err != nil {
			return o, err
		}
	}
	return o, nil
}

// GatewayRequest is the body of a gateway request.
type GatewayRequest struct {
	Sources FeatureCollection `json:"sources"`
	Targets FeatureCollection `json:"targets"`
	Options GatewayOptions    `json:"options"`
}

// GatewayResponse is the body of a gateway response.
type GatewayResponse struct {
	Usability     string             `json:"usability"`
	Curves        *FeatureCollection `json:"curves"`
	Results       *FeatureCollection `json:"results"`
	NextUsability string             `json:"nextUsability,omitempty"`
}

// NewGateway returns an HTTP handler that runs reshape and cut operations
// on GeoJSON input.
func NewGateway(svc changealong.Service) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, map[string]string{"version": changealong.Version})
	}).Methods(http.MethodGet)
	r.HandleFunc("/{operation:reshape|cut}", func(w http.ResponseWriter, req *http.Request) {
		op := Reshape
		if mux.Vars(req)["operation"] == "cut" {
			op = Cut
		}
		resp, status, err := gateway(req.Context(), svc, op, req)
		if err != nil {
			logrus.WithError(err).WithField("operation", op.String()).Warn("gateway request failed")
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		WriteJSON(w, resp)
	}).Methods(http.MethodPost)
	return r
}

func gateway(ctx context.Context, svc changealong.Service, op Operation, req *http.Request) (*GatewayResponse, int, error) {
	var body GatewayRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("cautil: decoding request: %v", err)
	}
	o, err := body.Options.options()
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	fr := newFeatureReader()
	sources, err := fr.Features(&body.Sources, "sources")
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	targets, err := fr.Features(&body.Targets, "targets")
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	r, err := Run(ctx, svc, op, sources, targets, o)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	resp := &GatewayResponse{Usability: r.Calculated.Usability().String()}
	if resp.Curves, err = EncodeCurves(r.Calculated.Curves()); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if resp.Results, err = EncodeResults(r.Results); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if r.Next != nil {
		resp.NextUsability = r.Next.Usability().String()
	}
	return resp, http.StatusOK, nil
}
