package discovery

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/maxpoletaev/overseer/membership"
)

func encodeMeta(p membership.Peer) ([]byte, error) {
	st, err := structpb.NewStruct(map[string]interface{}{
		"id":  float64(p.ID),
		"rpc": p.RPCAddr,
		"hb":  p.HeartbeatAddr,
	})
	if err != nil {
		return nil, err
	}

	return proto.Marshal(st)
}

func decodeMeta(data []byte) (membership.Peer, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return membership.Peer{}, fmt.Errorf("failed to unmarshal node meta: %w", err)
	}

	fields := st.GetFields()

	id, ok := fields["id"]
	if !ok || id.GetNumberValue() <= 0 {
		return membership.Peer{}, fmt.Errorf("node meta has no id")
	}

	return membership.Peer{
		ID:            membership.NodeID(id.GetNumberValue()),
		RPCAddr:       fields["rpc"].GetStringValue(),
		HeartbeatAddr: fields["hb"].GetStringValue(),
	}, nil
}
