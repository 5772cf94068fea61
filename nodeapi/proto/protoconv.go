package proto

import (
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

const (
	fieldNodeID      = "node_id"
	fieldClock       = "clock"
	fieldCPUPercent  = "cpu_percent"
	fieldMemPercent  = "mem_percent"
	fieldMemTotalGB  = "mem_total_gb"
	fieldLoadAvg     = "load_avg"
	fieldProcessors  = "processors"
	fieldUptimeSec   = "uptime_sec"
	fieldCollectedAt = "collected_at"
)

// ToProtoSnapshot converts a snapshot into its wire representation. The clock
// is a decimal string, since struct numbers are float64.
func ToProtoSnapshot(s *resource.Snapshot) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldNodeID:      structpb.NewNumberValue(float64(s.NodeID)),
			fieldClock:       structpb.NewStringValue(strconv.FormatUint(s.Clock, 10)),
			fieldCPUPercent:  structpb.NewNumberValue(s.CPUPercent),
			fieldMemPercent:  structpb.NewNumberValue(s.MemPercent),
			fieldMemTotalGB:  structpb.NewNumberValue(float64(s.MemTotalGB)),
			fieldLoadAvg:     structpb.NewNumberValue(s.LoadAvg),
			fieldProcessors:  structpb.NewNumberValue(float64(s.Processors)),
			fieldUptimeSec:   structpb.NewNumberValue(s.Uptime.Seconds()),
			fieldCollectedAt: structpb.NewStringValue(s.CollectedAt.UTC().Format(time.RFC3339Nano)),
		},
	}
}

// FromProtoSnapshot converts the wire representation back into a snapshot.
// The node ID and the clock are mandatory, other fields default to zero.
func FromProtoSnapshot(pb *structpb.Struct) (*resource.Snapshot, error) {
	fields := pb.GetFields()

	nodeID, ok := fields[fieldNodeID]
	if !ok {
		return nil, fmt.Errorf("snapshot: missing %s", fieldNodeID)
	}

	clockValue, ok := fields[fieldClock]
	if !ok {
		return nil, fmt.Errorf("snapshot: missing %s", fieldClock)
	}

	clock, err := strconv.ParseUint(clockValue.GetStringValue(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("snapshot: invalid %s: %w", fieldClock, err)
	}

	s := &resource.Snapshot{
		NodeID:     membership.NodeID(nodeID.GetNumberValue()),
		Clock:      clock,
		CPUPercent: fields[fieldCPUPercent].GetNumberValue(),
		MemPercent: fields[fieldMemPercent].GetNumberValue(),
		MemTotalGB: uint64(fields[fieldMemTotalGB].GetNumberValue()),
		LoadAvg:    fields[fieldLoadAvg].GetNumberValue(),
		Processors: int(fields[fieldProcessors].GetNumberValue()),
		Uptime:     time.Duration(fields[fieldUptimeSec].GetNumberValue() * float64(time.Second)),
	}

	if v := fields[fieldCollectedAt].GetStringValue(); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("snapshot: invalid %s: %w", fieldCollectedAt, err)
		}

		s.CollectedAt = t
	}

	return s, nil
}
