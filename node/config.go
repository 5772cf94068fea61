package node

import (
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/maxpoletaev/overseer/auth"
	"github.com/maxpoletaev/overseer/coordinator"
	"github.com/maxpoletaev/overseer/election"
	"github.com/maxpoletaev/overseer/heartbeat"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/nodeapi"
	nodeapigrpc "github.com/maxpoletaev/overseer/nodeapi/grpc"
	"github.com/maxpoletaev/overseer/report"
	"github.com/maxpoletaev/overseer/resource"
)

type Config struct {
	ID membership.NodeID
	// Cluster lists every member of the cluster, including the local node.
	Cluster          []membership.Peer
	FailureThreshold int

	ProbeInterval       time.Duration
	ProbeConnectTimeout time.Duration
	ProbeReadTimeout    time.Duration

	DecisionWindow      time.Duration
	CoordinatorInterval time.Duration
	CallTimeout         time.Duration
	DialTimeout         time.Duration

	Auth auth.Config

	// ReportGroup is the multicast group reports are sent to. Ignored when
	// Reporter is set.
	ReportGroup     string
	ReportInterface string

	Logger   kitlog.Logger
	Dialer   nodeapi.Dialer
	Sampler  resource.Sampler
	Reporter coordinator.Reporter
}

func DefaultConfig() Config {
	electionConf := election.DefaultConfig()
	coordinatorConf := coordinator.DefaultConfig()

	return Config{
		FailureThreshold:    membership.DefaultFailureThreshold,
		ProbeInterval:       heartbeat.DefaultProbeInterval,
		ProbeConnectTimeout: heartbeat.DefaultConnectTimeout,
		ProbeReadTimeout:    heartbeat.DefaultReadTimeout,
		DecisionWindow:      electionConf.DecisionWindow,
		CoordinatorInterval: coordinatorConf.Interval,
		CallTimeout:         coordinatorConf.CallTimeout,
		DialTimeout:         2 * time.Second,
		Auth:                auth.DefaultConfig(),
		ReportGroup:         report.DefaultGroup,
		Logger:              kitlog.NewNopLogger(),
		Dialer:              nodeapigrpc.Dial,
	}
}
