// Package proto defines the gRPC contract between cluster nodes. Messages are
// protobuf well-known types, so the service descriptor is written by hand in
// the same layout protoc-gen-go-grpc would produce.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "overseer.Node"

	Node_Status_FullMethodName      = "/overseer.Node/Status"
	Node_Election_FullMethodName    = "/overseer.Node/Election"
	Node_Ok_FullMethodName          = "/overseer.Node/Ok"
	Node_Coordinator_FullMethodName = "/overseer.Node/Coordinator"
)

// NodeClient is the client API for the Node service.
type NodeClient interface {
	// Status takes the caller's logical clock and returns a resource snapshot.
	Status(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.Struct, error)
	// Election takes the ID of the node that started an election.
	Election(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// Ok takes the ID of the node that answers an election message.
	Ok(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// Coordinator takes the ID of the newly elected coordinator.
	Coordinator(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type nodeClient struct {
	cc grpc.ClientConnInterface
}

func NewNodeClient(cc grpc.ClientConnInterface) NodeClient {
	return &nodeClient{cc}
}

func (c *nodeClient) Status(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Node_Status_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *nodeClient) Election(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Node_Election_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *nodeClient) Ok(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Node_Ok_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *nodeClient) Coordinator(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Node_Coordinator_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// NodeServer is the server API for the Node service.
type NodeServer interface {
	Status(context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error)
	Election(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	Ok(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	Coordinator(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
}

func RegisterNodeServer(s grpc.ServiceRegistrar, srv NodeServer) {
	s.RegisterService(&Node_ServiceDesc, srv)
}

func _Node_Status_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(NodeServer).Status(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Node_Status_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).Status(ctx, req.(*wrapperspb.UInt64Value))
	}

	return interceptor(ctx, in, info, handler)
}

func _Node_Election_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(NodeServer).Election(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Node_Election_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).Election(ctx, req.(*wrapperspb.UInt32Value))
	}

	return interceptor(ctx, in, info, handler)
}

func _Node_Ok_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(NodeServer).Ok(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Node_Ok_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).Ok(ctx, req.(*wrapperspb.UInt32Value))
	}

	return interceptor(ctx, in, info, handler)
}

func _Node_Coordinator_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(NodeServer).Coordinator(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Node_Coordinator_FullMethodName,
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeServer).Coordinator(ctx, req.(*wrapperspb.UInt32Value))
	}

	return interceptor(ctx, in, info, handler)
}

// Node_ServiceDesc is the grpc.ServiceDesc for the Node service.
var Node_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Status",
			Handler:    _Node_Status_Handler,
		},
		{
			MethodName: "Election",
			Handler:    _Node_Election_Handler,
		},
		{
			MethodName: "Ok",
			Handler:    _Node_Ok_Handler,
		},
		{
			MethodName: "Coordinator",
			Handler:    _Node_Coordinator_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "overseer/node",
}
