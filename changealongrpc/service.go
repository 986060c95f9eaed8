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

	"google.golang.org/grpc"
)

// ServiceName is the full name of the gRPC service.
const ServiceName = "changealong.ChangeAlongGrpc"

// ChangeAlongServer is the server API of the change-along service.
type ChangeAlongServer interface {
	CalculateReshapeLines(context.Context, *CalculateReshapeLinesRequest) (*CalculateReshapeLinesResponse, error)
	CalculateCutLines(context.Context, *CalculateCutLinesRequest) (*CalculateCutLinesResponse, error)
	ApplyReshapeLines(context.Context, *ApplyReshapeLinesRequest) (*ApplyReshapeLinesResponse, error)
	ApplyCutLines(context.Context, *ApplyCutLinesRequest) (*ApplyCutLinesResponse, error)
}

// RegisterChangeAlongServer registers srv with s.
func RegisterChangeAlongServer(s grpc.ServiceRegistrar, srv ChangeAlongServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChangeAlongServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CalculateReshapeLines",
			Handler: unaryHandler("CalculateReshapeLines",
				func() interface{} { return new(CalculateReshapeLinesRequest) },
				func(ctx context.Context, srv ChangeAlongServer, req interface{}) (interface{}, error) {
					return srv.CalculateReshapeLines(ctx, req.(*CalculateReshapeLinesRequest))
				}),
		},
		{
			MethodName: "CalculateCutLines",
			Handler: unaryHandler("CalculateCutLines",
				func() interface{} { return new(CalculateCutLinesRequest) },
				func(ctx context.Context, srv ChangeAlongServer, req interface{}) (interface{}, error) {
					return srv.CalculateCutLines(ctx, req.(*CalculateCutLinesRequest))
				}),
		},
		{
			MethodName: "ApplyReshapeLines",
			Handler: unaryHandler("ApplyReshapeLines",
				func() interface{} { return new(ApplyReshapeLinesRequest) },
				func(ctx context.Context, srv ChangeAlongServer, req interface{}) (interface{}, error) {
					return srv.ApplyReshapeLines(ctx, req.(*ApplyReshapeLinesRequest))
				}),
		},
		{
			MethodName: "ApplyCutLines",
			Handler: unaryHandler("ApplyCutLines",
				func() interface{} { return new(ApplyCutLinesRequest) },
				func(ctx context.Context, srv ChangeAlongServer, req interface{}) (interface{}, error) {
					return srv.ApplyCutLines(ctx, req.(*ApplyCutLinesRequest))
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "changealong",
}

func fullMethod(method string) string { return "/" + ServiceName + "/" + method }

func unaryHandler(method string, newReq func() interface{},
	call func(context.Context, ChangeAlongServer, interface{}) (interface{}, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(ChangeAlongServer), in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, srv.(ChangeAlongServer), req)
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ChangeAlongClient is the client API of the change-along service.
type ChangeAlongClient interface {
	CalculateReshapeLines(ctx context.Context, in *CalculateReshapeLinesRequest, opts ...grpc.CallOption) (*CalculateReshapeLinesResponse, error)
	CalculateCutLines(ctx context.Context, in *CalculateCutLinesRequest, opts ...grpc.CallOption) (*CalculateCutLinesResponse, error)
	ApplyReshapeLines(ctx context.Context, in *ApplyReshapeLinesRequest, opts ...grpc.CallOption) (*ApplyReshapeLinesResponse, error)
	ApplyCutLines(ctx context.Context, in *ApplyCutLinesRequest, opts ...grpc.CallOption) (*ApplyCutLinesResponse, error)
}

type changeAlongClient struct {
	cc grpc.ClientConnInterface
}

// NewChangeAlongClient returns a client stub that sends MessagePack
// encoded requests over cc.
func NewChangeAlongClient(cc grpc.ClientConnInterface) ChangeAlongClient {
	return &changeAlongClient{cc: cc}
}

func (c *changeAlongClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *changeAlongClient) CalculateReshapeLines(ctx context.Context, in *CalculateReshapeLinesRequest, opts ...grpc.CallOption) (*CalculateReshapeLinesResponse, error) {
	out := new(CalculateReshapeLinesResponse)
	if err := c.invoke(ctx, "CalculateReshapeLines", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *changeAlongClient) CalculateCutLines(ctx context.Context, in *CalculateCutLinesRequest, opts ...grpc.CallOption) (*CalculateCutLinesResponse, error) {
	out := new(CalculateCutLinesResponse)
	if err := c.invoke(ctx, "CalculateCutLines", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *changeAlongClient) ApplyReshapeLines(ctx context.Context, in *ApplyReshapeLinesRequest, opts ...grpc.CallOption) (*ApplyReshapeLinesResponse, error) {
	out := new(ApplyReshapeLinesResponse)
	if err := c.invoke(ctx, "ApplyReshapeLines", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *changeAlongClient) ApplyCutLines(ctx context.Context, in *ApplyCutLinesRequest, opts ...grpc.CallOption) (*ApplyCutLinesResponse, error) {
	out := new(ApplyCutLinesResponse)
	if err := c.invoke(ctx, "ApplyCutLines", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
