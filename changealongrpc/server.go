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

	"github.com/prosuite/changealong"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	// RequestIDKey is the metadata key holding the client's request ID.
	RequestIDKey = "request-id"

	// DiagnosticsKey is the trailer key holding the error details of a
	// failed call.
	DiagnosticsKey = "diagnostics"

	// MaxMsgSize is the largest message the server and client accept.
	MaxMsgSize = 200000000
)

// Server answers change-along requests by calling a changealong.Service.
type Server struct {
	Service changealong.Service
	Log     logrus.FieldLogger
}

// NewServer returns a Server that delegates to svc.
func NewServer(svc changealong.Service) *Server {
	return &Server{Service: svc}
}

// NewGRPCServer returns a gRPC server with s registered.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMsgSize),
		grpc.MaxSendMsgSize(MaxMsgSize),
	}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterChangeAlongServer(gs, s)
	return gs
}

func (s *Server) log(ctx context.Context, method string) logrus.FieldLogger {
	l := s.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	fields := logrus.Fields{"method": method}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDKey); len(ids) > 0 {
			fields[RequestIDKey] = ids[0]
		}
	}
	return l.WithFields(fields)
}

// fail logs err, attaches it to the trailer and converts it to a status.
func (s *Server) fail(ctx context.Context, method string, err error) error {
	s.log(ctx, method).WithError(err).Error("request failed")
	if terr := grpc.SetTrailer(ctx, metadata.Pairs(DiagnosticsKey, err.Error())); terr != nil {
		s.log(ctx, method).WithError(terr).Warn("setting trailer")
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

// CalculateReshapeLines implements ChangeAlongServer.
func (s *Server) CalculateReshapeLines(ctx context.Context, req *CalculateReshapeLinesRequest) (*CalculateReshapeLinesResponse, error) {
	const method = "CalculateReshapeLines"
	s.log(ctx, method).WithField("sources", len(req.SourceFeatures)).Debug("received request")
	features, err := decodeFeatures(req.ClassDefinitions, req.SourceFeatures, req.TargetFeatures)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	set, err := s.Service.CalculateReshapeLines(ctx, features[0], features[1],
		fromBufferMsg(req.TargetBufferOptions), fromFilterMsg(req.FilterOptions), req.Tolerance)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	resp := &CalculateReshapeLinesResponse{
		ReshapeLinesUsability: int(set.Usability()),
		ReshapeLines:          toReshapeLineMsgs(set.Curves()),
		Tolerance:             set.Tolerance,
	}
	if b := set.FilterBuffer(); !b.IsEmpty() {
		m := toShapeMsg(b)
		resp.FilterBuffer = &m
	}
	return resp, nil
}

// CalculateCutLines implements ChangeAlongServer.
func (s *Server) CalculateCutLines(ctx context.Context, req *CalculateCutLinesRequest) (*CalculateCutLinesResponse, error) {
	const method = "CalculateCutLines"
	s.log(ctx, method).WithField("sources", len(req.SourceFeatures)).Debug("received request")
	features, err := decodeFeatures(req.ClassDefinitions, req.SourceFeatures, req.TargetFeatures)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	set, err := s.Service.CalculateCutLines(ctx, features[0], features[1],
		fromBufferMsg(req.TargetBufferOptions), clipExtent(req.ClipExtent), req.Tolerance,
		changealong.ZSource(req.ZSource))
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return &CalculateCutLinesResponse{
		CutLinesUsability: int(set.Usability()),
		CutLines:          toReshapeLineMsgs(set.Curves()),
		Tolerance:         set.Tolerance,
	}, nil
}

func clipExtent(m *EnvelopeMsg) *changealong.Envelope {
	if m == nil {
		return nil
	}
	e := fromEnvelopeMsg(*m)
	return &e
}

// ApplyReshapeLines implements ChangeAlongServer.
func (s *Server) ApplyReshapeLines(ctx context.Context, req *ApplyReshapeLinesRequest) (*ApplyReshapeLinesResponse, error) {
	const method = "ApplyReshapeLines"
	calc := req.CalculationRequest
	s.log(ctx, method).WithField("selected", len(req.ReshapeLines)).Debug("received request")
	features, err := decodeFeatures(calc.ClassDefinitions, calc.SourceFeatures, calc.TargetFeatures)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	results, set, err := s.Service.ApplyReshapeLines(ctx, features[0], features[1],
		fromReshapeLineMsgs(req.ReshapeLines), fromBufferMsg(calc.TargetBufferOptions),
		fromFilterMsg(calc.FilterOptions), calc.Tolerance,
		req.InsertVerticesInTarget, req.UseNonDefaultReshapeSide)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return &ApplyReshapeLinesResponse{
		ResultFeatures:        toResultMsgs(results),
		NewReshapeLines:       toReshapeLineMsgs(set.Curves()),
		ReshapeLinesUsability: int(set.Usability()),
		Tolerance:             set.Tolerance,
	}, nil
}

// ApplyCutLines implements ChangeAlongServer.
func (s *Server) ApplyCutLines(ctx context.Context, req *ApplyCutLinesRequest) (*ApplyCutLinesResponse, error) {
	const method = "ApplyCutLines"
	calc := req.CalculationRequest
	s.log(ctx, method).WithField("selected", len(req.CutLines)).Debug("received request")
	features, err := decodeFeatures(calc.ClassDefinitions, calc.SourceFeatures, calc.TargetFeatures)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	results, set, err := s.Service.ApplyCutLines(ctx, features[0], features[1],
		fromReshapeLineMsgs(req.CutLines), fromBufferMsg(calc.TargetBufferOptions),
		clipExtent(calc.ClipExtent), calc.Tolerance, changealong.ZSource(calc.ZSource),
		req.InsertVerticesInTarget)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return &ApplyCutLinesResponse{
		ResultFeatures:    toResultMsgs(results),
		NewCutLines:       toReshapeLineMsgs(set.Curves()),
		CutLinesUsability: int(set.Usability()),
		Tolerance:         set.Tolerance,
	}, nil
}
