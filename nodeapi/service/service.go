package service

import (
	"context"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/maxpoletaev/overseer/internal/grpcutil"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/nodeapi/proto"
	"github.com/maxpoletaev/overseer/resource"
)

var _ proto.NodeServer = (*NodeService)(nil)

// Handler is the node-side logic behind the remote endpoint.
type Handler interface {
	ID() membership.NodeID
	IsActive() bool
	HandleStatus(clock uint64) resource.Snapshot
	HandleElection(from membership.NodeID)
	HandleOk(from membership.NodeID)
	HandleCoordinator(id membership.NodeID)
}

type NodeService struct {
	node   Handler
	logger kitlog.Logger
}

func New(node Handler, logger kitlog.Logger) *NodeService {
	return &NodeService{
		node:   node,
		logger: logger,
	}
}

func (s *NodeService) Status(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	if !s.node.IsActive() {
		return nil, grpcutil.InactiveError(uint32(s.node.ID()))
	}

	snap := s.node.HandleStatus(req.GetValue())

	level.Debug(s.logger).Log(
		"msg", "status requested",
		"caller_clock", req.GetValue(),
		"clock", snap.Clock,
	)

	return proto.ToProtoSnapshot(&snap), nil
}

func (s *NodeService) Election(ctx context.Context, req *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	if !s.node.IsActive() {
		return nil, grpcutil.InactiveError(uint32(s.node.ID()))
	}

	s.node.HandleElection(membership.NodeID(req.GetValue()))

	return &emptypb.Empty{}, nil
}

func (s *NodeService) Ok(ctx context.Context, req *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	if !s.node.IsActive() {
		return nil, grpcutil.InactiveError(uint32(s.node.ID()))
	}

	s.node.HandleOk(membership.NodeID(req.GetValue()))

	return &emptypb.Empty{}, nil
}

func (s *NodeService) Coordinator(ctx context.Context, req *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	if !s.node.IsActive() {
		return nil, grpcutil.InactiveError(uint32(s.node.ID()))
	}

	s.node.HandleCoordinator(membership.NodeID(req.GetValue()))

	return &emptypb.Empty{}, nil
}
