package pathsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "blitz.path.v1.PathService"

const (
	listFormatsMethod         = "/" + ServiceName + "/ListFormats"
	computeFollowPointsMethod = "/" + ServiceName + "/ComputeFollowPoints"
	exportMethod              = "/" + ServiceName + "/Export"
)

// PathServiceServer is the server API for PathService. Requests and replies
// use the well-known Struct, ListValue and wrapper types; trajectories travel
// in the same JSON shape the document store reads and writes.
type PathServiceServer interface {
	// ListFormats returns the registered export format names.
	ListFormats(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// ComputeFollowPoints takes {"trajectory": {...}} and returns one
	// {x, y, speed, source} struct per follow point.
	ComputeFollowPoints(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	// Export takes {"format": name} plus either "trajectory" or
	// "trajectories" and returns the rendered text.
	Export(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
}

// RegisterPathServiceServer registers srv on s.
func RegisterPathServiceServer(s grpc.ServiceRegistrar, srv PathServiceServer) {
	s.RegisterService(&pathServiceDesc, srv)
}

var pathServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PathServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListFormats", Handler: listFormatsHandler},
		{MethodName: "ComputeFollowPoints", Handler: computeFollowPointsHandler},
		{MethodName: "Export", Handler: exportHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blitz/path/v1/path_service.proto",
}

func listFormatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathServiceServer).ListFormats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listFormatsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PathServiceServer).ListFormats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func computeFollowPointsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathServiceServer).ComputeFollowPoints(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: computeFollowPointsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PathServiceServer).ComputeFollowPoints(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func exportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathServiceServer).Export(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: exportMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PathServiceServer).Export(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// PathServiceClient is the client API for PathService.
type PathServiceClient interface {
	ListFormats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	ComputeFollowPoints(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Export(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type pathServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPathServiceClient returns a client bound to cc.
func NewPathServiceClient(cc grpc.ClientConnInterface) PathServiceClient {
	return &pathServiceClient{cc: cc}
}

func (c *pathServiceClient) ListFormats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listFormatsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pathServiceClient) ComputeFollowPoints(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, computeFollowPointsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pathServiceClient) Export(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, exportMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
