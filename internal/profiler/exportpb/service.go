// Package exportpb ships profiling events to a remote collector over
// gRPC. Rather than generating a dedicated message type from a .proto
// file, it encodes each event as a google.protobuf.Struct (the
// well-known dynamic-map type) and declares the service by hand with a
// grpc.ServiceDesc, the same wire-level mechanics protoc-gen-go-grpc
// would produce, without depending on a build-time codegen step this
// module cannot run.
package exportpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// serviceName is the fully-qualified gRPC service name advertised to the
// remote collector.
const serviceName = "falconjobs.profiler.v1.ProfileEventService"

// ProfileEventServiceClient is the client-side stub for shipping one
// event per call. Structurally identical to what protoc-gen-go-grpc
// would emit for a service with a single ReportEvent(Struct) returns
// (Empty) RPC.
type ProfileEventServiceClient interface {
	ReportEvent(ctx context.Context, event *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type profileEventServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProfileEventServiceClient wraps an established connection (or any
// grpc.ClientConnInterface, including one under test) as a typed client.
func NewProfileEventServiceClient(cc grpc.ClientConnInterface) ProfileEventServiceClient {
	return &profileEventServiceClient{cc: cc}
}

func (c *profileEventServiceClient) ReportEvent(ctx context.Context, event *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	err := c.cc.Invoke(ctx, "/"+serviceName+"/ReportEvent", event, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProfileEventServiceServer is the server-side contract a remote
// collector implements.
type ProfileEventServiceServer interface {
	ReportEvent(ctx context.Context, event *structpb.Struct) (*emptypb.Empty, error)
}

func reportEventHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileEventServiceServer).ReportEvent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/ReportEvent",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileEventServiceServer).ReportEvent(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the hand-wired equivalent of the _ServiceDesc value
// protoc-gen-go-grpc generates from a .proto service block.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProfileEventServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ReportEvent",
			Handler:    reportEventHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "falconjobs/profiler.proto",
}

// RegisterProfileEventServiceServer registers an implementation with a
// grpc.Server, mirroring the generated RegisterXxxServer helper.
func RegisterProfileEventServiceServer(s grpc.ServiceRegistrar, srv ProfileEventServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
